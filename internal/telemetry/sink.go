package telemetry

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/google/uuid"
)

// Event names.
const (
	EventInstall = "install"
	EventUpdate  = "update"
	EventRemove  = "remove"
	EventDetect  = "detect"
)

const (
	sendTimeout  = 3 * time.Second
	closeTimeout = 500 * time.Millisecond
)

// Event is one anonymous usage counter.
type Event struct {
	Event  string   `json:"event"`
	Skills []string `json:"skills,omitempty"`
	Agents []string `json:"agents,omitempty"`
}

// Sink receives events. Track must return immediately.
type Sink interface {
	Track(Event)
	Close()
}

// NopSink discards every event.
type NopSink struct{}

func (NopSink) Track(Event) {}
func (NopSink) Close()      {}

type payload struct {
	Event
	AnonymousID string `json:"anonymousId"`
	Version     string `json:"version"`
}

// HTTPSink posts each event from its own goroutine. Sends are bounded by a
// short timeout and never retried; failures are logged at debug level.
type HTTPSink struct {
	url         string
	version     string
	anonymousID string
	client      *http.Client
	wg          sync.WaitGroup
}

// NewHTTPSink creates a sink posting to url. idPath is where the anonymous
// id is persisted; an empty path uses a fresh id per invocation.
func NewHTTPSink(url, version, idPath string) *HTTPSink {
	return &HTTPSink{
		url:         url,
		version:     version,
		anonymousID: loadAnonymousID(idPath),
		client:      &http.Client{Timeout: sendTimeout},
	}
}

// Track sends ev in the background.
func (s *HTTPSink) Track(ev Event) {
	body, err := json.Marshal(payload{Event: ev, AnonymousID: s.anonymousID, Version: s.version})
	if err != nil {
		return
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), sendTimeout)
		defer cancel()

		req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.url, bytes.NewReader(body))
		if err != nil {
			return
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := s.client.Do(req)
		if err != nil {
			logger.L.WithError(err).Debug("telemetry event not sent")
			return
		}
		resp.Body.Close()
	}()
}

// Close waits briefly for in-flight sends. Events still pending afterwards
// are abandoned.
func (s *HTTPSink) Close() {
	done := make(chan struct{})
	go func() {
		s.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(closeTimeout):
	}
}

// AnonymousID returns the id attached to every event.
func (s *HTTPSink) AnonymousID() string {
	return s.anonymousID
}

// loadAnonymousID reads the persisted id, creating it on first use.
func loadAnonymousID(path string) string {
	if path == "" {
		return uuid.NewString()
	}
	if data, err := os.ReadFile(path); err == nil {
		if id, err := uuid.Parse(strings.TrimSpace(string(data))); err == nil {
			return id.String()
		}
	}

	id := uuid.NewString()
	if err := os.MkdirAll(filepath.Dir(path), 0755); err == nil {
		_ = os.WriteFile(path, []byte(id+"\n"), 0600)
	}
	return id
}
