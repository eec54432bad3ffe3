package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGetLoggerFallsBackToGlobal(t *testing.T) {
	entry := GetLogger(context.Background())
	require.NotNil(t, entry)
	assert.Same(t, L.Logger, entry.Logger)
}

func TestWithLogger(t *testing.T) {
	custom := logrus.NewEntry(logrus.New()).WithField("component", "test")
	ctx := WithLogger(context.Background(), custom)

	got := G(ctx)
	assert.Equal(t, "test", got.Data["component"])
}

func TestSetLogLevel(t *testing.T) {
	original := L.Logger.GetLevel()
	t.Cleanup(func() { L.Logger.SetLevel(original) })

	require.NoError(t, SetLogLevel("debug"))
	assert.Equal(t, logrus.DebugLevel, L.Logger.GetLevel())

	assert.Error(t, SetLogLevel("loud"))
}

func TestSetLogFormatJSON(t *testing.T) {
	var buf bytes.Buffer
	l := logrus.New()
	l.SetOutput(&buf)
	setLoggerFormat(l, "json")

	l.WithField("slug", "astro").Warn("backed up lockfile")

	var out map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &out))
	assert.Equal(t, "backed up lockfile", out["message"])
	assert.Equal(t, "warning", out["level"])
	assert.Equal(t, "astro", out["slug"])
}
