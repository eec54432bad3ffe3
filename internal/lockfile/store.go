package lockfile

import (
	"context"
	"fmt"
	"time"
)

// Store binds lockfile operations to one project directory and clock.
type Store struct {
	projectDir string
	now        func() time.Time
}

// StoreOption configures a Store.
type StoreOption func(*Store)

// WithClock overrides the time source used to stamp writes.
func WithClock(now func() time.Time) StoreOption {
	return func(s *Store) { s.now = now }
}

// NewStore creates a Store for projectDir.
func NewStore(projectDir string, opts ...StoreOption) *Store {
	s := &Store{projectDir: projectDir, now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ProjectDir returns the directory the store is bound to.
func (s *Store) ProjectDir() string { return s.projectDir }

// Path returns the lockfile path.
func (s *Store) Path() string { return Path(s.projectDir) }

// Read loads the lockfile fresh from disk.
func (s *Store) Read(ctx context.Context) (*Lockfile, error) {
	return Read(ctx, s.projectDir)
}

// Write persists lf.
func (s *Store) Write(lf *Lockfile) error {
	return write(s.projectDir, lf, s.now())
}

// AddEntry records e, replacing any entry with the same slug.
func (s *Store) AddEntry(ctx context.Context, e Entry) error {
	if e.Slug == "" {
		return fmt.Errorf("lockfile entry has no slug")
	}
	lf, err := s.Read(ctx)
	if err != nil {
		return err
	}
	lf.Entries[e.Slug] = e
	return s.Write(lf)
}

// RemoveEntry drops the entry for slug. Removing an unknown slug returns
// ErrNotFound and leaves the file untouched.
func (s *Store) RemoveEntry(ctx context.Context, slug string) error {
	lf, err := s.Read(ctx)
	if err != nil {
		return err
	}
	if _, ok := lf.Entries[slug]; !ok {
		return fmt.Errorf("%s: %w", slug, ErrNotFound)
	}
	delete(lf.Entries, slug)
	return s.Write(lf)
}

// GetEntry returns the entry for slug.
func (s *Store) GetEntry(ctx context.Context, slug string) (Entry, error) {
	lf, err := s.Read(ctx)
	if err != nil {
		return Entry{}, err
	}
	e, ok := lf.Entries[slug]
	if !ok {
		return Entry{}, fmt.Errorf("%s: %w", slug, ErrNotFound)
	}
	return e, nil
}
