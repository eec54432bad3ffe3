package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/agentx-labs/skilldocs/internal/config"
	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runCommand executes the root command against a static registry served by
// a local document server.
func runCommand(t *testing.T, project string, args ...string) (string, error) {
	t.Helper()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/astro/llms.txt" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("ETag", `"v1"`)
		_, _ = w.Write([]byte("# Astro\n\n> Docs.\n"))
	}))
	t.Cleanup(srv.Close)

	t.Setenv("HOME", t.TempDir())
	t.Setenv("DO_NOT_TRACK", "1")

	orig := newRegistry
	newRegistry = func(config.Settings) *registry.Registry {
		return registry.New(registry.WithEntries([]registry.Entry{{
			Slug: "astro", Name: "Astro", Domain: "docs.astro.build",
			Description: "The web framework for content-driven websites.",
			LlmsTxtURL:  srv.URL + "/astro/llms.txt",
			Category:    registry.CategoryFramework,
		}}))
	}
	t.Cleanup(func() { newRegistry = orig })

	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(append(args, "--project", project))
	t.Cleanup(func() {
		rootCmd.SetArgs(nil)
		rootProjectDir = ""
	})

	err := rootCmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestInstallListRemove(t *testing.T) {
	project := t.TempDir()

	out, err := runCommand(t, project, "install", "astro", "--yes")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ Install: 1 installed")
	assert.FileExists(t, filepath.Join(project, ".agents", "skills", "astro", "SKILL.md"))

	out, err = runCommand(t, project, "list", "--json")
	require.NoError(t, err, out)
	var entries []listEntry
	require.NoError(t, json.Unmarshal([]byte(out), &entries))
	require.Len(t, entries, 1)
	assert.Equal(t, "astro", entries[0].Slug)
	assert.True(t, entries[0].Tracked)
	assert.Contains(t, entries[0].Description, "Astro documentation")

	out, err = runCommand(t, project, "uninstall", "astro")
	require.NoError(t, err, out)
	assert.Contains(t, out, "✓ Remove: 1 removed")
	_, statErr := os.Stat(filepath.Join(project, ".agents", "skills", "astro"))
	assert.True(t, os.IsNotExist(statErr))
}

func TestInstallUnknownReturnsError(t *testing.T) {
	project := t.TempDir()

	out, err := runCommand(t, project, "install", "qqqqqqqqqqqq", "--yes")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "install failed for 1 of 1")
	assert.Contains(t, out, "✗ Install: 1 failed")
	assert.NoFileExists(t, filepath.Join(project, ".skilldocs", "skills-lock.json"))
}
