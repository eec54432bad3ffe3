package lockfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/sirupsen/logrus"
	logtest "github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 6, 1, 9, 30, 0, 0, time.UTC)

func sampleEntry(slug string) Entry {
	return Entry{
		Slug:         slug,
		Format:       FormatLlmsTxt,
		SourceURL:    "https://docs.example.test/" + slug + "/llms.txt",
		ETag:         `"abc"`,
		LastModified: "Mon, 01 Jun 2026 08:00:00 GMT",
		FetchedAt:    fixedNow,
		Checksum:     "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
		Size:         1234,
		Name:         "Example " + slug,
	}
}

func TestReadMissingReturnsEmpty(t *testing.T) {
	lf, err := Read(context.Background(), t.TempDir())
	require.NoError(t, err)
	assert.Equal(t, Version, lf.Version)
	assert.NotNil(t, lf.Entries)
	assert.Empty(t, lf.Entries)
}

func TestWriteReadRoundTrip(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, WithClock(func() time.Time { return fixedNow }))

	lf := New()
	lf.Entries["astro"] = sampleEntry("astro")
	lf.Entries["zod"] = sampleEntry("zod")
	require.NoError(t, store.Write(lf))

	got, err := store.Read(context.Background())
	require.NoError(t, err)
	assert.Equal(t, lf, got)
	assert.True(t, got.UpdatedAt.Equal(fixedNow))

	info, err := os.Stat(Path(dir))
	require.NoError(t, err)
	assert.False(t, info.IsDir())
}

func TestUpdatedAtAdvances(t *testing.T) {
	dir := t.TempDir()
	// A clock that never moves must still produce increasing stamps.
	store := NewStore(dir, WithClock(func() time.Time { return fixedNow }))

	lf := New()
	require.NoError(t, store.Write(lf))
	first := lf.UpdatedAt

	again, err := store.Read(context.Background())
	require.NoError(t, err)
	require.NoError(t, store.Write(again))
	assert.True(t, again.UpdatedAt.After(first))
}

func TestWriteFormat(t *testing.T) {
	dir := t.TempDir()
	store := NewStore(dir, WithClock(func() time.Time { return fixedNow }))
	require.NoError(t, store.AddEntry(context.Background(), sampleEntry("astro")))

	data, err := os.ReadFile(Path(dir))
	require.NoError(t, err)
	assert.JSONEq(t, `{
	  "version": 1,
	  "updatedAt": "2026-06-01T09:30:00Z",
	  "entries": {
	    "astro": {
	      "slug": "astro",
	      "format": "llms.txt",
	      "sourceUrl": "https://docs.example.test/astro/llms.txt",
	      "etag": "\"abc\"",
	      "lastModified": "Mon, 01 Jun 2026 08:00:00 GMT",
	      "fetchedAt": "2026-06-01T09:30:00Z",
	      "checksum": "9f86d081884c7d659a2feaa0c55ad015a3bf4f1b2b0b822cd15d6c15b0f00a08",
	      "size": 1234,
	      "name": "Example astro"
	    }
	  }
	}`, string(data))
	assert.Equal(t, byte('\n'), data[len(data)-1])
}

func TestCorruptLockfileIsBackedUp(t *testing.T) {
	tests := []struct {
		name    string
		content string
	}{
		{"not json", "{{{ not json"},
		{"wrong version", `{"version": 2, "entries": {}}`},
		{"missing entries", `{"version": 1, "updatedAt": "2026-01-01T00:00:00Z"}`},
		{"entries not an object", `{"version": 1, "entries": []}`},
		{"bad entry", `{"version": 1, "entries": {"astro": {"slug": "astro"}}}`},
		{"bad format", `{"version": 1, "entries": {"astro": {"slug":"astro","format":"html","sourceUrl":"u","fetchedAt":"2026-01-01T00:00:00Z","checksum":"c","size":1}}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := t.TempDir()
			path := Path(dir)
			require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))

			lf, err := Read(context.Background(), dir)
			require.NoError(t, err)
			assert.Equal(t, Version, lf.Version)
			assert.Empty(t, lf.Entries)

			backup, err := os.ReadFile(path + BackupSuffix)
			require.NoError(t, err)
			assert.Equal(t, tt.content, string(backup))

			_, err = os.Stat(path)
			assert.True(t, os.IsNotExist(err))
		})
	}
}

func TestCorruptLockfileWarnsThroughContext(t *testing.T) {
	dir := t.TempDir()
	path := Path(dir)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte("{{{"), 0644))

	log, hook := logtest.NewNullLogger()
	ctx := logger.WithLogger(context.Background(), log.WithField("command", "list"))

	_, err := Read(ctx, dir)
	require.NoError(t, err)

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "list", entry.Data["command"])
	assert.Equal(t, path+BackupSuffix, entry.Data["backup"])
}

func TestAddGetRemove(t *testing.T) {
	dir := t.TempDir()

	require.NoError(t, AddEntry(context.Background(), dir, sampleEntry("astro")))
	require.NoError(t, AddEntry(context.Background(), dir, sampleEntry("hono")))

	e, err := GetEntry(context.Background(), dir, "astro")
	require.NoError(t, err)
	assert.Equal(t, "Example astro", e.Name)

	updated := sampleEntry("astro")
	updated.Checksum = "deadbeef"
	require.NoError(t, AddEntry(context.Background(), dir, updated))

	lf, err := Read(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, []string{"astro", "hono"}, lf.Slugs())
	assert.Equal(t, "deadbeef", lf.Entries["astro"].Checksum)

	require.NoError(t, RemoveEntry(context.Background(), dir, "astro"))
	_, err = GetEntry(context.Background(), dir, "astro")
	assert.ErrorIs(t, err, ErrNotFound)

	assert.ErrorIs(t, RemoveEntry(context.Background(), dir, "astro"), ErrNotFound)
}

func TestAddEntryRequiresSlug(t *testing.T) {
	assert.Error(t, NewStore(t.TempDir()).AddEntry(context.Background(), Entry{}))
}

func TestDiff(t *testing.T) {
	before := New()
	before.Entries["astro"] = sampleEntry("astro")
	before.Entries["zod"] = sampleEntry("zod")

	after := New()
	changed := sampleEntry("astro")
	changed.Checksum = "0000"
	after.Entries["astro"] = changed
	after.Entries["hono"] = sampleEntry("hono")
	after.UpdatedAt = fixedNow

	patch, err := Diff(before, after)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{
		"astro: checksum changed",
		"hono: added",
		"zod: removed",
	}, Describe(patch))

	same, err := Diff(before, before)
	require.NoError(t, err)
	assert.Empty(t, Describe(same))
}
