package config

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupHome(t *testing.T) string {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
	home := t.TempDir()
	t.Setenv("HOME", home)
	return home
}

func TestResolveDefaults(t *testing.T) {
	setupHome(t)
	t.Setenv("DO_NOT_TRACK", "")
	Load()

	s := Resolve()
	assert.Equal(t, DefaultRegistryTimeout, s.RegistryTimeout)
	assert.Equal(t, DefaultFetchTimeout, s.FetchTimeout)
	assert.Equal(t, DefaultCacheTTL, s.CacheTTL)
	assert.Equal(t, DefaultSplitThreshold, s.SplitThreshold)
	assert.Equal(t, int64(DefaultMaxContentBytes), s.MaxContentBytes)
	assert.Equal(t, "auto", s.LinkMode)
	assert.True(t, s.Telemetry)
	assert.False(t, s.Tracing)
	assert.NotEmpty(t, s.RegistryURL)
}

func TestResolveEnvOverride(t *testing.T) {
	setupHome(t)
	t.Setenv("SKILLDOCS_FETCH_TIMEOUT", "2s")
	t.Setenv("SKILLDOCS_SPLIT_THRESHOLD", "42")
	t.Setenv("SKILLDOCS_LINK_MODE", "copy")
	Load()

	s := Resolve()
	assert.Equal(t, 2*time.Second, s.FetchTimeout)
	assert.Equal(t, 42, s.SplitThreshold)
	assert.Equal(t, "copy", s.LinkMode)
}

func TestResolveDoNotTrack(t *testing.T) {
	setupHome(t)
	t.Setenv("DO_NOT_TRACK", "1")
	Load()

	assert.False(t, Resolve().Telemetry)
}

func TestSetAndGet(t *testing.T) {
	home := setupHome(t)
	Load()

	require.NoError(t, Set(KeyLogLevel, "debug"))
	assert.FileExists(t, filepath.Join(home, ".skilldocs", "config.yaml"))

	viper.Reset()
	Load()
	assert.Equal(t, "debug", Get(KeyLogLevel))
}
