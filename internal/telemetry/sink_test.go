package telemetry

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHTTPSinkPostsEvent(t *testing.T) {
	var (
		mu  sync.Mutex
		got []payload
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		var p payload
		assert.NoError(t, json.NewDecoder(r.Body).Decode(&p))
		mu.Lock()
		got = append(got, p)
		mu.Unlock()
	}))
	defer srv.Close()

	idPath := filepath.Join(t.TempDir(), "anonymous-id")
	s := NewHTTPSink(srv.URL, "1.2.3", idPath)
	s.Track(Event{Event: EventInstall, Skills: []string{"astro"}, Agents: []string{"universal", "cursor"}})
	s.Close()

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, got, 1)
	assert.Equal(t, EventInstall, got[0].Event.Event)
	assert.Equal(t, []string{"astro"}, got[0].Skills)
	assert.Equal(t, "1.2.3", got[0].Version)
	assert.Equal(t, s.AnonymousID(), got[0].AnonymousID)
}

func TestHTTPSinkNeverBlocks(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}))
	defer func() {
		close(release)
		srv.Close()
	}()

	s := NewHTTPSink(srv.URL, "dev", "")
	start := time.Now()
	s.Track(Event{Event: EventUpdate})
	s.Close()
	assert.Less(t, time.Since(start), 2*time.Second)
}

func TestHTTPSinkUnreachable(t *testing.T) {
	s := NewHTTPSink("http://127.0.0.1:1/events", "dev", "")
	s.Track(Event{Event: EventRemove})
	s.Close()
}

func TestAnonymousIDPersisted(t *testing.T) {
	idPath := filepath.Join(t.TempDir(), "sub", "anonymous-id")

	first := loadAnonymousID(idPath)
	_, err := uuid.Parse(first)
	require.NoError(t, err)

	assert.Equal(t, first, loadAnonymousID(idPath))

	require.NoError(t, os.WriteFile(idPath, []byte("garbage"), 0600))
	replaced := loadAnonymousID(idPath)
	assert.NotEqual(t, "garbage", replaced)

	data, err := os.ReadFile(idPath)
	require.NoError(t, err)
	assert.Equal(t, replaced, strings.TrimSpace(string(data)))
}
