package fetcher

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"github.com/sirupsen/logrus"
	"go.opentelemetry.io/otel/attribute"
)

const (
	// DefaultTimeout bounds a single content fetch.
	DefaultTimeout = 30 * time.Second
	// DefaultMaxBytes caps the size of a fetched document.
	DefaultMaxBytes int64 = 20 << 20
)

// ErrTooLarge is returned when a response body exceeds the size limit.
var ErrTooLarge = errors.New("response exceeds size limit")

// Validators are the cache validators recorded from an earlier fetch.
type Validators struct {
	ETag         string
	LastModified string
}

// IsZero reports whether no validator is set.
func (v Validators) IsZero() bool {
	return v.ETag == "" && v.LastModified == ""
}

// Result is the outcome of a successful fetch. When NotModified is true the
// server confirmed the cached copy is current and Content is nil.
type Result struct {
	NotModified bool
	Content     []byte
	Validators  Validators
	StatusCode  int
	FinalURL    string
}

// StatusError reports a response status other than 2xx or 304.
type StatusError struct {
	URL        string
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("fetching %s: server returned %d %s", e.URL, e.StatusCode, http.StatusText(e.StatusCode))
}

// Fetcher performs conditional GETs.
type Fetcher struct {
	httpClient *http.Client
	timeout    time.Duration
	userAgent  string
	maxBytes   int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(f *Fetcher) { f.httpClient = c }
}

// WithTimeout bounds each fetch. Zero or negative keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		if d > 0 {
			f.timeout = d
		}
	}
}

// WithUserAgent sets the User-Agent header.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) { f.userAgent = ua }
}

// WithMaxBytes caps the accepted body size. Zero or negative keeps the default.
func WithMaxBytes(n int64) Option {
	return func(f *Fetcher) {
		if n > 0 {
			f.maxBytes = n
		}
	}
}

// New creates a Fetcher with the given options.
func New(opts ...Option) *Fetcher {
	f := &Fetcher{
		httpClient: http.DefaultClient,
		timeout:    DefaultTimeout,
		userAgent:  branding.UserAgent("dev"),
		maxBytes:   DefaultMaxBytes,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Fetch GETs url. Non-empty validators are sent as If-None-Match and
// If-Modified-Since. Every failure, including a timeout, is returned as an
// error for the caller to count against the one entry being fetched.
func (f *Fetcher) Fetch(ctx context.Context, url string, prev Validators) (*Result, error) {
	var result *Result
	err := telemetry.WithSpan(ctx, "fetcher.fetch", func(ctx context.Context) error {
		var err error
		result, err = f.fetch(ctx, url, prev)
		if result != nil {
			telemetry.SetAttributes(ctx,
				attribute.String("http.url", url),
				attribute.Int("http.status_code", result.StatusCode),
				attribute.Bool("fetch.not_modified", result.NotModified),
				attribute.Int("fetch.bytes", len(result.Content)),
			)
		}
		return err
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

func (f *Fetcher) fetch(ctx context.Context, url string, prev Validators) (*Result, error) {
	log := logger.G(ctx).WithField("url", url)

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request for %s: %w", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/plain, text/markdown;q=0.9, */*;q=0.5")
	if prev.ETag != "" {
		req.Header.Set("If-None-Match", prev.ETag)
	}
	if prev.LastModified != "" {
		req.Header.Set("If-Modified-Since", prev.LastModified)
	}

	start := time.Now()
	resp, err := f.httpClient.Do(req)
	if err != nil {
		if errors.Is(ctx.Err(), context.DeadlineExceeded) {
			return nil, fmt.Errorf("fetching %s: timed out after %s: %w", url, f.timeout, err)
		}
		return nil, fmt.Errorf("fetching %s: %w", url, err)
	}
	defer resp.Body.Close()

	finalURL := url
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL.String()
	}

	if resp.StatusCode == http.StatusNotModified {
		log.WithField("elapsed", time.Since(start)).Debug("not modified")
		return &Result{
			NotModified: true,
			Validators:  mergeValidators(prev, resp.Header),
			StatusCode:  resp.StatusCode,
			FinalURL:    finalURL,
		}, nil
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{URL: url, StatusCode: resp.StatusCode}
	}

	if resp.ContentLength > f.maxBytes {
		return nil, fmt.Errorf("fetching %s: %d bytes: %w", url, resp.ContentLength, ErrTooLarge)
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, f.maxBytes+1))
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", url, err)
	}
	if int64(len(body)) > f.maxBytes {
		return nil, fmt.Errorf("fetching %s: more than %d bytes: %w", url, f.maxBytes, ErrTooLarge)
	}

	log.WithFields(logrus.Fields{
		"status":  resp.StatusCode,
		"bytes":   len(body),
		"elapsed": time.Since(start),
	}).Debug("fetched")

	return &Result{
		Content: body,
		Validators: Validators{
			ETag:         resp.Header.Get("ETag"),
			LastModified: resp.Header.Get("Last-Modified"),
		},
		StatusCode: resp.StatusCode,
		FinalURL:   finalURL,
	}, nil
}

// mergeValidators keeps earlier validators unless a 304 response carries
// replacements.
func mergeValidators(prev Validators, h http.Header) Validators {
	out := prev
	if v := h.Get("ETag"); v != "" {
		out.ETag = v
	}
	if v := h.Get("Last-Modified"); v != "" {
		out.LastModified = v
	}
	return out
}
