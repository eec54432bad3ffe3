package registry

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/Masterminds/semver/v3"
	"github.com/agentx-labs/skilldocs/internal/platform"
)

// Snapshot is the on-disk cache of a successful remote registry load.
type Snapshot struct {
	ToolVersion string          `json:"toolVersion"`
	SourceURL   string          `json:"sourceUrl"`
	FetchedAt   time.Time       `json:"fetchedAt"`
	Entries     json.RawMessage `json:"entries"`
}

// LoadSnapshot reads the cached snapshot. Returns nil, nil if the cache file
// does not exist (first run).
func LoadSnapshot(path string) (*Snapshot, error) {
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading registry cache: %w", err)
	}

	var snap Snapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return nil, fmt.Errorf("parsing registry cache: %w", err)
	}
	return &snap, nil
}

// SaveSnapshot writes the snapshot atomically, creating the cache directory
// if needed.
func SaveSnapshot(path string, snap *Snapshot) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("creating cache directory: %w", err)
	}

	data, err := json.MarshalIndent(snap, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling registry cache: %w", err)
	}

	if err := platform.WriteFileAtomic(path, data, 0644); err != nil {
		return fmt.Errorf("writing registry cache: %w", err)
	}
	return nil
}

// IsSnapshotStale returns true if the snapshot is nil or older than maxAge.
func IsSnapshotStale(snap *Snapshot, maxAge time.Duration, now time.Time) bool {
	if snap == nil {
		return true
	}
	return now.Sub(snap.FetchedAt) > maxAge
}

// IsSnapshotCompatible reports whether a snapshot written by cachedVersion
// may be reused by currentVersion. Versions are compared by semver major.
// Development builds accept any snapshot; a snapshot without a parseable
// version is only accepted by a development build.
func IsSnapshotCompatible(cachedVersion, currentVersion string) bool {
	cur, err := parseVersion(currentVersion)
	if err != nil {
		return true
	}
	cached, err := parseVersion(cachedVersion)
	if err != nil {
		return false
	}
	return cached.Major() == cur.Major()
}

func parseVersion(v string) (*semver.Version, error) {
	return semver.NewVersion(strings.TrimPrefix(v, "v"))
}
