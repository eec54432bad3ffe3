package registry

import (
	"context"
	_ "embed"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

//go:embed bundled.json
var bundledSnapshot []byte

const (
	// DefaultTimeout bounds the remote registry fetch.
	DefaultTimeout = 5 * time.Second
	// DefaultCacheTTL is how long a cached snapshot is preferred over a fetch.
	DefaultCacheTTL = 24 * time.Hour

	maxRegistryBytes = 10 << 20
)

// Registry is the catalog of installable entries for one command invocation.
type Registry struct {
	remoteURL   string
	httpClient  *http.Client
	timeout     time.Duration
	cachePath   string
	cacheTTL    time.Duration
	bundled     []byte
	toolVersion string
	userAgent   string
	now         func() time.Time

	// loadMu serializes Load; mu guards the loaded state and is never held
	// across network or disk access.
	loadMu  sync.Mutex
	mu      sync.Mutex
	loaded  bool
	entries []Entry
	bySlug  map[string]int
	source  Source
	index   *searchIndex
}

// Option configures a Registry.
type Option func(*Registry)

// WithRemoteURL sets the URL of the live registry snapshot. Empty disables
// the remote tier.
func WithRemoteURL(url string) Option {
	return func(r *Registry) { r.remoteURL = url }
}

// WithHTTPClient sets a custom HTTP client (useful for testing).
func WithHTTPClient(c *http.Client) Option {
	return func(r *Registry) { r.httpClient = c }
}

// WithTimeout bounds the remote fetch.
func WithTimeout(d time.Duration) Option {
	return func(r *Registry) { r.timeout = d }
}

// WithCachePath sets the snapshot cache location. Empty disables caching.
func WithCachePath(path string) Option {
	return func(r *Registry) { r.cachePath = path }
}

// WithCacheTTL sets how long a cached snapshot stays fresh.
func WithCacheTTL(d time.Duration) Option {
	return func(r *Registry) { r.cacheTTL = d }
}

// WithBundled replaces the snapshot compiled into the binary.
func WithBundled(data []byte) Option {
	return func(r *Registry) { r.bundled = data }
}

// WithToolVersion records the running tool version in written snapshots and
// gates reuse of snapshots written by other major versions.
func WithToolVersion(v string) Option {
	return func(r *Registry) {
		r.toolVersion = v
		r.userAgent = branding.UserAgent(v)
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Registry) { r.now = now }
}

// WithEntries preloads a fixed entry list and skips every loading tier.
func WithEntries(entries []Entry) Option {
	return func(r *Registry) {
		r.setEntries(entries, SourceStatic)
	}
}

// New creates a Registry. Nothing is loaded until Load is called.
func New(opts ...Option) *Registry {
	r := &Registry{
		httpClient:  http.DefaultClient,
		timeout:     DefaultTimeout,
		cacheTTL:    DefaultCacheTTL,
		bundled:     bundledSnapshot,
		toolVersion: "dev",
		userAgent:   branding.UserAgent("dev"),
		now:         time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Load returns the full entry list, loading it on first call. Tiers are tried
// in order: fresh cached snapshot, remote fetch, bundled snapshot. Failures
// are logged and fall through; Load itself never fails.
func (r *Registry) Load(ctx context.Context) []Entry {
	r.loadMu.Lock()
	defer r.loadMu.Unlock()

	if r.isLoaded() {
		return r.AllEntries()
	}

	_ = telemetry.WithSpan(ctx, "registry.load", func(ctx context.Context) error {
		r.loadTiers(ctx)
		telemetry.SetAttributes(ctx,
			attribute.String("registry.source", string(r.Source())),
			attribute.Int("registry.entries", len(r.AllEntries())),
		)
		return nil
	})
	return r.AllEntries()
}

func (r *Registry) isLoaded() bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.loaded
}

func (r *Registry) loadTiers(ctx context.Context) {
	log := logger.G(ctx)

	if entries, ok := r.loadCached(ctx); ok {
		r.setEntries(entries, SourceCache)
		return
	}

	if r.remoteURL != "" {
		entries, raw, err := r.fetchRemote(ctx)
		if err == nil {
			r.setEntries(entries, SourceRemote)
			r.writeCache(ctx, raw)
			return
		}
		telemetry.RecordError(ctx, err)
		log.WithError(err).WithField("url", r.remoteURL).Debug("remote registry unavailable, using bundled snapshot")
	}

	entries, err := Parse(r.bundled)
	if err != nil {
		log.WithError(err).Error("bundled registry snapshot is invalid")
		entries = nil
	}
	r.setEntries(entries, SourceBundled)
}

func (r *Registry) loadCached(ctx context.Context) ([]Entry, bool) {
	if r.cachePath == "" {
		return nil, false
	}
	log := logger.G(ctx).WithField("path", r.cachePath)

	snap, err := LoadSnapshot(r.cachePath)
	if err != nil {
		log.WithError(err).Debug("ignoring unreadable registry cache")
		return nil, false
	}
	if snap == nil {
		return nil, false
	}
	if IsSnapshotStale(snap, r.cacheTTL, r.now()) {
		log.Debug("registry cache is stale")
		return nil, false
	}
	if !IsSnapshotCompatible(snap.ToolVersion, r.toolVersion) {
		log.WithField("cached_version", snap.ToolVersion).Debug("registry cache written by another major version")
		return nil, false
	}
	if r.remoteURL != "" && snap.SourceURL != "" && snap.SourceURL != r.remoteURL {
		log.Debug("registry cache was fetched from a different URL")
		return nil, false
	}
	entries, err := Parse(snap.Entries)
	if err != nil {
		log.WithError(err).Debug("registry cache failed validation")
		return nil, false
	}
	return entries, true
}

func (r *Registry) fetchRemote(ctx context.Context) ([]Entry, []byte, error) {
	ctx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, r.remoteURL, nil)
	if err != nil {
		return nil, nil, fmt.Errorf("creating registry request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", r.userAgent)

	resp, err := r.httpClient.Do(req)
	if err != nil {
		return nil, nil, fmt.Errorf("fetching registry: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, nil, fmt.Errorf("registry returned status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxRegistryBytes+1))
	if err != nil {
		return nil, nil, fmt.Errorf("reading registry body: %w", err)
	}
	if len(body) > maxRegistryBytes {
		return nil, nil, fmt.Errorf("registry payload exceeds %d bytes", maxRegistryBytes)
	}

	entries, err := Parse(body)
	if err != nil {
		return nil, nil, fmt.Errorf("validating registry payload: %w", err)
	}
	return entries, body, nil
}

// writeCache is best effort: a failed write only costs a fetch next time.
func (r *Registry) writeCache(ctx context.Context, raw []byte) {
	if r.cachePath == "" {
		return
	}
	snap := &Snapshot{
		ToolVersion: r.toolVersion,
		SourceURL:   r.remoteURL,
		FetchedAt:   r.now().UTC(),
		Entries:     raw,
	}
	if err := SaveSnapshot(r.cachePath, snap); err != nil {
		logger.G(ctx).WithError(err).Debug("could not write registry cache")
	}
}

// setEntries replaces the loaded set and drops any search index built
// before it.
func (r *Registry) setEntries(entries []Entry, source Source) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries = entries
	r.index = nil
	r.source = source
	r.loaded = true
	r.bySlug = make(map[string]int, len(entries))
	for i, e := range entries {
		r.bySlug[e.Slug] = i
	}
}

// Source reports which tier served the entries; empty before Load.
func (r *Registry) Source() Source {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.source
}

// AllEntries returns the loaded entries.
func (r *Registry) AllEntries() []Entry {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]Entry, len(r.entries))
	copy(out, r.entries)
	return out
}

// Get returns the entry with the exact slug.
func (r *Registry) Get(slug string) (Entry, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	i, ok := r.bySlug[slug]
	if !ok {
		return Entry{}, false
	}
	return r.entries[i], true
}

// FilterByCategories returns the loaded entries whose category is in cats.
// An empty cats returns every entry.
func (r *Registry) FilterByCategories(cats []string) []Entry {
	return FilterByCategories(r.AllEntries(), cats)
}

// PrimaryCategories returns the primary categories that have at least one
// loaded entry, in display order.
func (r *Registry) PrimaryCategories() []string {
	present := make(map[string]bool)
	for _, e := range r.AllEntries() {
		present[e.Category] = true
	}
	var out []string
	for _, c := range Categories {
		if present[c] {
			out = append(out, c)
		}
	}
	return out
}

// FilterByCategories is the pure form of Registry.FilterByCategories.
func FilterByCategories(entries []Entry, cats []string) []Entry {
	if len(cats) == 0 {
		return entries
	}
	want := make(map[string]bool, len(cats))
	for _, c := range cats {
		want[strings.ToLower(strings.TrimSpace(c))] = true
	}
	var out []Entry
	for _, e := range entries {
		if want[e.Category] {
			out = append(out, e)
		}
	}
	return out
}
