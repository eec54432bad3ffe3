package fetcher

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const (
	testETag         = `"v1"`
	testLastModified = "Wed, 01 Apr 2026 10:00:00 GMT"
)

// conditionalServer serves body with validators and honors If-None-Match.
func conditionalServer(t *testing.T, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "skilldocs/test", r.Header.Get("User-Agent"))
		if r.Header.Get("If-None-Match") == testETag {
			w.WriteHeader(http.StatusNotModified)
			return
		}
		w.Header().Set("ETag", testETag)
		w.Header().Set("Last-Modified", testLastModified)
		_, _ = w.Write([]byte(body))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchFresh(t *testing.T) {
	srv := conditionalServer(t, "# Astro\n")
	f := New(WithUserAgent("skilldocs/test"))

	res, err := f.Fetch(context.Background(), srv.URL+"/llms.txt", Validators{})
	require.NoError(t, err)
	assert.False(t, res.NotModified)
	assert.Equal(t, "# Astro\n", string(res.Content))
	assert.Equal(t, testETag, res.Validators.ETag)
	assert.Equal(t, testLastModified, res.Validators.LastModified)
	assert.Equal(t, http.StatusOK, res.StatusCode)
}

func TestFetchNotModified(t *testing.T) {
	srv := conditionalServer(t, "# Astro\n")
	f := New(WithUserAgent("skilldocs/test"))

	prev := Validators{ETag: testETag, LastModified: testLastModified}
	res, err := f.Fetch(context.Background(), srv.URL, prev)
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Nil(t, res.Content)
	assert.Equal(t, prev, res.Validators)
}

func TestFetchSendsLastModified(t *testing.T) {
	var got string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = r.Header.Get("If-Modified-Since")
		assert.Empty(t, r.Header.Get("If-None-Match"))
		w.WriteHeader(http.StatusNotModified)
	}))
	defer srv.Close()

	res, err := New().Fetch(context.Background(), srv.URL, Validators{LastModified: testLastModified})
	require.NoError(t, err)
	assert.True(t, res.NotModified)
	assert.Equal(t, testLastModified, got)
}

func TestFetchStatusError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := New().Fetch(context.Background(), srv.URL, Validators{})
	require.Error(t, err)

	var se *StatusError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, http.StatusNotFound, se.StatusCode)
	assert.Contains(t, err.Error(), "404")
}

func TestFetchTooLarge(t *testing.T) {
	body := strings.Repeat("x", 2048)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Force chunked encoding so the limit is enforced while reading.
		w.(http.Flusher).Flush()
		_, _ = w.Write([]byte(body))
	}))
	defer srv.Close()

	_, err := New(WithMaxBytes(1024)).Fetch(context.Background(), srv.URL, Validators{})
	assert.ErrorIs(t, err, ErrTooLarge)

	res, err := New(WithMaxBytes(4096)).Fetch(context.Background(), srv.URL, Validators{})
	require.NoError(t, err)
	assert.Len(t, res.Content, 2048)
}

func TestFetchTimeout(t *testing.T) {
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

	start := time.Now()
	_, err := New(WithTimeout(50*time.Millisecond)).Fetch(context.Background(), srv.URL, Validators{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "timed out")
	assert.Less(t, time.Since(start), 5*time.Second)
}

func TestFetchUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New().Fetch(context.Background(), url, Validators{})
	assert.Error(t, err)
}

func TestValidatorsIsZero(t *testing.T) {
	assert.True(t, Validators{}.IsZero())
	assert.False(t, Validators{ETag: testETag}.IsZero())
}
