package cli

import (
	"testing"
	"time"

	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestListEntries(t *testing.T) {
	fetched := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	lf := lockfile.New()
	lf.Entries["zod"] = lockfile.Entry{Slug: "zod", Name: "Zod", Format: lockfile.FormatLlmsTxt, FetchedAt: fetched}
	lf.Entries["astro"] = lockfile.Entry{Slug: "astro", Name: "Astro", Format: lockfile.FormatLlmsFullTxt, FetchedAt: fetched}

	entries := listEntries(lf, []string{"astro", "hono"})
	require.Len(t, entries, 3)

	assert.Equal(t, "astro", entries[0].Slug)
	assert.True(t, entries[0].Tracked)
	assert.True(t, entries[0].OnDisk)
	assert.Equal(t, lockfile.FormatLlmsFullTxt, entries[0].Format)

	assert.Equal(t, "hono", entries[1].Slug)
	assert.False(t, entries[1].Tracked)
	assert.True(t, entries[1].OnDisk)

	assert.Equal(t, "zod", entries[2].Slug)
	assert.True(t, entries[2].Tracked)
	assert.False(t, entries[2].OnDisk)
}

func TestListEntriesEmpty(t *testing.T) {
	assert.Empty(t, listEntries(lockfile.New(), nil))
}
