package lockfile

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"sync"
	"time"

	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/platform"
	"github.com/santhosh-tekuri/jsonschema/v6"
)

// Version is the current lockfile schema version.
const Version = 1

// FileName is the lockfile name inside the project metadata directory.
const FileName = "skills-lock.json"

// BackupSuffix is appended to a corrupt lockfile's name.
const BackupSuffix = ".backup"

// Content formats.
const (
	FormatLlmsTxt     = "llms.txt"
	FormatLlmsFullTxt = "llms-full.txt"
)

// ErrNotFound is returned by GetEntry and RemoveEntry for an unknown slug.
var ErrNotFound = errors.New("skill not found in lockfile")

//go:embed schema/lockfile.schema.json
var schemaBytes []byte

var (
	schema     *jsonschema.Schema
	schemaOnce sync.Once
	schemaErr  error
)

// Entry records the provenance of one installed skill.
type Entry struct {
	Slug         string    `json:"slug"`
	Format       string    `json:"format"`
	SourceURL    string    `json:"sourceUrl"`
	ETag         string    `json:"etag"`
	LastModified string    `json:"lastModified"`
	FetchedAt    time.Time `json:"fetchedAt"`
	Checksum     string    `json:"checksum"`
	Size         int64     `json:"size"`
	Name         string    `json:"name"`
}

// Lockfile is the project-scoped aggregate.
type Lockfile struct {
	Version   int              `json:"version"`
	UpdatedAt time.Time        `json:"updatedAt"`
	Entries   map[string]Entry `json:"entries"`
}

// New returns an empty lockfile.
func New() *Lockfile {
	return &Lockfile{Version: Version, Entries: make(map[string]Entry)}
}

// Slugs returns the recorded slugs, sorted.
func (l *Lockfile) Slugs() []string {
	out := make([]string, 0, len(l.Entries))
	for slug := range l.Entries {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// Dir returns the project metadata directory holding the lockfile.
func Dir(projectDir string) string {
	return filepath.Join(projectDir, branding.ProjectDir())
}

// Path returns the lockfile path for a project.
func Path(projectDir string) string {
	return filepath.Join(Dir(projectDir), FileName)
}

func getSchema() (*jsonschema.Schema, error) {
	schemaOnce.Do(func() {
		doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(schemaBytes))
		if err != nil {
			schemaErr = fmt.Errorf("unmarshaling lockfile schema: %w", err)
			return
		}
		c := jsonschema.NewCompiler()
		if err := c.AddResource("lockfile.schema.json", doc); err != nil {
			schemaErr = fmt.Errorf("adding lockfile schema resource: %w", err)
			return
		}
		schema, schemaErr = c.Compile("lockfile.schema.json")
	})
	return schema, schemaErr
}

// Parse decodes and structurally validates lockfile bytes.
func Parse(data []byte) (*Lockfile, error) {
	sch, err := getSchema()
	if err != nil {
		return nil, err
	}
	inst, err := jsonschema.UnmarshalJSON(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("parsing lockfile: %w", err)
	}
	if err := sch.Validate(inst); err != nil {
		return nil, fmt.Errorf("validating lockfile: %w", err)
	}

	var lf Lockfile
	if err := json.Unmarshal(data, &lf); err != nil {
		return nil, fmt.Errorf("decoding lockfile: %w", err)
	}
	if lf.Entries == nil {
		lf.Entries = make(map[string]Entry)
	}
	return &lf, nil
}

// Read loads the project's lockfile. A missing file yields an empty
// lockfile. A file that fails validation is renamed with BackupSuffix and an
// empty lockfile is returned; an error is returned only when the file cannot
// be read or backed up.
func Read(ctx context.Context, projectDir string) (*Lockfile, error) {
	path := Path(projectDir)

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return New(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading lockfile %s: %w", path, err)
	}

	lf, parseErr := Parse(data)
	if parseErr == nil {
		return lf, nil
	}

	backup := path + BackupSuffix
	if err := os.Rename(path, backup); err != nil {
		return nil, fmt.Errorf("backing up corrupt lockfile %s: %w", path, err)
	}
	logger.G(ctx).WithError(parseErr).WithField("backup", backup).
		Warn("lockfile was corrupt; moved it aside and started a new one")
	return New(), nil
}

// Write stamps UpdatedAt with now and atomically replaces the project's
// lockfile. UpdatedAt always moves forward, even if the clock does not.
func Write(projectDir string, lf *Lockfile) error {
	return write(projectDir, lf, time.Now())
}

func write(projectDir string, lf *Lockfile, now time.Time) error {
	if lf.Entries == nil {
		lf.Entries = make(map[string]Entry)
	}
	lf.Version = Version

	stamp := now.UTC()
	if !stamp.After(lf.UpdatedAt) {
		stamp = lf.UpdatedAt.Add(time.Millisecond).UTC()
	}
	lf.UpdatedAt = stamp

	data, err := json.MarshalIndent(lf, "", "  ")
	if err != nil {
		return fmt.Errorf("marshaling lockfile: %w", err)
	}
	data = append(data, '\n')

	dir := Dir(projectDir)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}
	if err := platform.WriteFileAtomic(Path(projectDir), data, 0644); err != nil {
		return fmt.Errorf("writing lockfile: %w", err)
	}
	return nil
}

// AddEntry records e, replacing any entry with the same slug.
func AddEntry(ctx context.Context, projectDir string, e Entry) error {
	return NewStore(projectDir).AddEntry(ctx, e)
}

// RemoveEntry drops the entry for slug.
func RemoveEntry(ctx context.Context, projectDir, slug string) error {
	return NewStore(projectDir).RemoveEntry(ctx, slug)
}

// GetEntry returns the entry for slug.
func GetEntry(ctx context.Context, projectDir, slug string) (Entry, error) {
	return NewStore(projectDir).GetEntry(ctx, slug)
}
