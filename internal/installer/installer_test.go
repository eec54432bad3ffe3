package installer

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/platform"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func astroRequest(content string) Request {
	return Request{
		Slug:        "astro",
		Name:        "Astro",
		Description: "The web framework for content-driven websites.",
		SourceURL:   "https://docs.astro.build/llms.txt",
		Content:     []byte(content),
	}
}

func lookup(t *testing.T, name agents.Name) agents.Agent {
	t.Helper()
	a, ok := agents.Lookup(string(name))
	require.True(t, ok)
	return a
}

func TestInstallSmallContent(t *testing.T) {
	project := t.TempDir()
	in := New(project, WithAgents([]agents.Agent{}), WithLinkStrategy(platform.CopyStrategy{}))

	content := "# Astro\n\nSome docs.\n"
	res, err := in.InstallToAgents(context.Background(), astroRequest(content))
	require.NoError(t, err)

	assert.Equal(t, Checksum([]byte(content)), res.Checksum)
	assert.Len(t, res.Checksum, 64)
	assert.EqualValues(t, len(content), res.Size)
	assert.False(t, res.Split)
	assert.Equal(t, []agents.Name{agents.Universal}, res.Agents)

	index, err := os.ReadFile(filepath.Join(project, ".agents", "skills", "astro", IndexFile))
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(index), "---\nname: astro-docs\n"))
	assert.Contains(t, string(index), "user-invocable: false\n")
	assert.True(t, strings.HasSuffix(string(index), content))

	_, err = os.Stat(filepath.Join(project, ".agents", "skills", "astro", ReferenceFile))
	assert.True(t, os.IsNotExist(err))

	info, err := os.Stat(filepath.Join(project, ".skilldocs"))
	require.NoError(t, err)
	assert.True(t, info.IsDir())
	_, err = os.Stat(filepath.Join(project, ".skilldocs", "skills-lock.json"))
	assert.True(t, os.IsNotExist(err), "installer must not write the lockfile")

	assert.True(t, in.IsInstalled("astro"))
}

func TestInstallSplitsLargeContent(t *testing.T) {
	project := t.TempDir()
	in := New(project, WithAgents([]agents.Agent{}), WithSplitThreshold(10))

	var b strings.Builder
	b.WriteString("# Astro\n\n## Getting started\n\n")
	for i := 0; i < 20; i++ {
		b.WriteString("line of documentation\n")
	}
	b.WriteString("\n## Routing\n\nmore\n")
	content := b.String()

	res, err := in.InstallToAgents(context.Background(), astroRequest(content))
	require.NoError(t, err)
	assert.True(t, res.Split)

	dir := filepath.Join(project, ".agents", "skills", "astro")
	ref, err := os.ReadFile(filepath.Join(dir, ReferenceFile))
	require.NoError(t, err)
	assert.Equal(t, content, string(ref))

	index, err := os.ReadFile(filepath.Join(dir, IndexFile))
	require.NoError(t, err)
	assert.Contains(t, string(index), "[reference.md](reference.md)")
	assert.Contains(t, string(index), "Source: https://docs.astro.build/llms.txt")
	assert.Contains(t, string(index), "- Astro\n")
	assert.Contains(t, string(index), "  - Getting started\n")
	assert.Contains(t, string(index), "  - Routing\n")
	assert.NotContains(t, string(index), "line of documentation")

	// Reinstalling small content drops the stale reference document.
	_, err = in.InstallToAgents(context.Background(), astroRequest("short\n"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, ReferenceFile))
	assert.True(t, os.IsNotExist(err))
}

func TestInstallRejectsUnsafeSlugs(t *testing.T) {
	slugs := []string{"../escape", "..", ".", "a/b", `a\b`, "/abs", "Astro", "", "astro/../../x", "-lead", "trail-"}
	for _, slug := range slugs {
		t.Run(slug, func(t *testing.T) {
			project := t.TempDir()
			in := New(project, WithAgents([]agents.Agent{}))

			req := astroRequest("x\n")
			req.Slug = slug
			_, err := in.InstallToAgents(context.Background(), req)
			assert.ErrorIs(t, err, ErrInvalidSlug)

			entries, err := os.ReadDir(project)
			require.NoError(t, err)
			assert.Empty(t, entries, "nothing may be written for a rejected slug")
		})
	}
}

func TestContainedPath(t *testing.T) {
	root := t.TempDir()

	p, err := containedPath(root, "astro")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(root, "astro"), p)

	for _, name := range []string{"..", "../x", ".", "", "a/../../x"} {
		_, err := containedPath(root, name)
		assert.ErrorIs(t, err, ErrPathEscape, name)
	}
}

func TestInstallFansOutToAgents(t *testing.T) {
	project := t.TempDir()
	in := New(project,
		WithAgents([]agents.Agent{lookup(t, agents.ClaudeCode), lookup(t, agents.Cursor)}),
		WithLinkStrategy(platform.CopyStrategy{}),
	)

	res, err := in.InstallToAgents(context.Background(), astroRequest("# Astro\n"))
	require.NoError(t, err)
	assert.Equal(t, []agents.Name{agents.Universal, agents.ClaudeCode, agents.Cursor}, res.Agents)
	assert.Empty(t, res.LinkErrors)

	for _, dir := range []string{".claude", ".cursor"} {
		_, err := os.Stat(filepath.Join(project, dir, "skills", "astro", IndexFile))
		assert.NoError(t, err, dir)
	}
}

func TestInstallDetectsAgents(t *testing.T) {
	project := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(project, ".windsurf"), 0755))

	in := New(project, WithLinkStrategy(platform.CopyStrategy{}))
	res, err := in.InstallToAgents(context.Background(), astroRequest("# Astro\n"))
	require.NoError(t, err)
	assert.Equal(t, []agents.Name{agents.Universal, agents.Windsurf}, res.Agents)
}

type brokenLink struct{}

func (brokenLink) Name() string                               { return "broken" }
func (brokenLink) Link(context.Context, string, string) error { return os.ErrPermission }
func (brokenLink) Unlink(context.Context, string) error       { return nil }

func TestLinkFailureIsNotFatal(t *testing.T) {
	project := t.TempDir()
	log, hook := logtest.NewNullLogger()
	ctx := logger.WithLogger(context.Background(), log.WithField("command", "add"))
	in := New(project,
		WithAgents([]agents.Agent{lookup(t, agents.Cursor)}),
		WithLinkStrategy(brokenLink{}),
	)

	res, err := in.InstallToAgents(ctx, astroRequest("# Astro\n"))
	require.NoError(t, err)
	assert.Equal(t, []agents.Name{agents.Universal}, res.Agents)
	assert.ErrorIs(t, res.LinkErrors[agents.Cursor], os.ErrPermission)
	assert.True(t, in.IsInstalled("astro"))

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "add", entry.Data["command"])
	assert.Equal(t, "astro", entry.Data["slug"])
}

func TestAgentDirLinkedToCanonicalRoot(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("requires symlinks")
	}
	project := t.TempDir()
	canonicalRoot := filepath.Join(project, ".agents", "skills")
	require.NoError(t, os.MkdirAll(canonicalRoot, 0755))
	require.NoError(t, os.MkdirAll(filepath.Join(project, ".claude"), 0755))
	require.NoError(t, os.Symlink(canonicalRoot, filepath.Join(project, ".claude", "skills")))

	in := New(project, WithAgents([]agents.Agent{lookup(t, agents.ClaudeCode)}))
	res, err := in.InstallToAgents(context.Background(), astroRequest("# Astro\n"))
	require.NoError(t, err)
	assert.Contains(t, res.Agents, agents.ClaudeCode)
	assert.True(t, in.IsInstalled("astro"), "canonical copy must survive")

	removed, err := in.RemoveFromAgents(context.Background(), "astro")
	require.NoError(t, err)
	assert.Equal(t, []agents.Name{agents.Universal}, removed)
}

func TestRemoveFromAgents(t *testing.T) {
	project := t.TempDir()
	in := New(project,
		WithAgents([]agents.Agent{lookup(t, agents.Cursor), lookup(t, agents.Copilot)}),
		WithLinkStrategy(platform.CopyStrategy{}),
	)
	_, err := in.InstallToAgents(context.Background(), astroRequest("# Astro\n"))
	require.NoError(t, err)

	removed, err := in.RemoveFromAgents(context.Background(), "astro")
	require.NoError(t, err)
	assert.Equal(t, []agents.Name{agents.Universal, agents.Cursor, agents.Copilot}, removed)
	assert.False(t, in.IsInstalled("astro"))

	for _, dir := range []string{".agents", ".cursor", ".github"} {
		_, err := os.Lstat(filepath.Join(project, dir, "skills", "astro"))
		assert.True(t, os.IsNotExist(err), dir)
	}

	// Removing again is not an error.
	removed, err = in.RemoveFromAgents(context.Background(), "astro")
	require.NoError(t, err)
	assert.Empty(t, removed)

	_, err = in.RemoveFromAgents(context.Background(), "../etc")
	assert.ErrorIs(t, err, ErrInvalidSlug)
}

func TestInstalledSlugs(t *testing.T) {
	project := t.TempDir()
	in := New(project, WithAgents([]agents.Agent{}))

	slugs, err := in.InstalledSlugs()
	require.NoError(t, err)
	assert.Empty(t, slugs)

	for _, slug := range []string{"zod", "astro"} {
		req := astroRequest("x\n")
		req.Slug = slug
		_, err := in.InstallToAgents(context.Background(), req)
		require.NoError(t, err)
	}
	require.NoError(t, os.MkdirAll(filepath.Join(in.CanonicalRoot(), "empty-dir"), 0755))

	slugs, err = in.InstalledSlugs()
	require.NoError(t, err)
	assert.Equal(t, []string{"astro", "zod"}, slugs)
}

func TestRelink(t *testing.T) {
	project := t.TempDir()
	in := New(project, WithAgents([]agents.Agent{}), WithLinkStrategy(platform.CopyStrategy{}))

	_, _, err := in.Relink(context.Background(), "astro", nil)
	assert.ErrorIs(t, err, ErrNotInstalled)

	_, err = in.InstallToAgents(context.Background(), astroRequest("# Astro\n"))
	require.NoError(t, err)

	names, failed, err := in.Relink(context.Background(), "astro", []agents.Agent{lookup(t, agents.Augment)})
	require.NoError(t, err)
	assert.Empty(t, failed)
	assert.Equal(t, []agents.Name{agents.Universal, agents.Augment}, names)
	_, err = os.Stat(filepath.Join(project, ".augment", "skills", "astro", IndexFile))
	assert.NoError(t, err)
}
