package installer

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/platform"
	digest "github.com/opencontainers/go-digest"
)

// ErrNotInstalled is returned when a skill has no canonical index document.
var ErrNotInstalled = errors.New("skill is not installed")

// Request describes one skill to materialize.
type Request struct {
	Slug        string
	Name        string
	Description string
	SourceURL   string
	Content     []byte
	// Agents overrides the installer's agent selection for this request.
	Agents []agents.Agent
}

// Result reports what InstallToAgents did.
type Result struct {
	Checksum     string
	Size         int64
	Split        bool
	CanonicalDir string
	// Agents lists every agent the skill is available to, universal first.
	Agents []agents.Name
	// LinkErrors holds per-agent fan-out failures. They do not fail the install.
	LinkErrors map[agents.Name]error
}

// Installer writes skills for one project.
type Installer struct {
	projectDir     string
	link           platform.LinkStrategy
	splitThreshold int
	agents         []agents.Agent
}

// Option configures an Installer.
type Option func(*Installer)

// WithLinkStrategy sets how agent directories are populated.
func WithLinkStrategy(s platform.LinkStrategy) Option {
	return func(in *Installer) { in.link = s }
}

// WithSplitThreshold sets the line count above which content is split.
func WithSplitThreshold(n int) Option {
	return func(in *Installer) {
		if n > 0 {
			in.splitThreshold = n
		}
	}
}

// WithAgents fixes the agents to fan out to. Without it, agents are detected
// from the project on every install.
func WithAgents(list []agents.Agent) Option {
	return func(in *Installer) { in.agents = list }
}

// New creates an Installer rooted at projectDir.
func New(projectDir string, opts ...Option) *Installer {
	in := &Installer{
		projectDir:     projectDir,
		link:           platform.FallbackStrategy{Primary: platform.SymlinkStrategy{}, Secondary: platform.CopyStrategy{}},
		splitThreshold: DefaultSplitThreshold,
	}
	for _, opt := range opts {
		opt(in)
	}
	return in
}

// Checksum returns the hex SHA-256 of content.
func Checksum(content []byte) string {
	return digest.SHA256.FromBytes(content).Encoded()
}

// ProjectDir returns the project the installer writes to.
func (in *Installer) ProjectDir() string { return in.projectDir }

// CanonicalRoot returns the directory holding every canonical skill.
func (in *Installer) CanonicalRoot() string {
	return agents.UniversalAgent().Dir(in.projectDir)
}

// CanonicalDir returns the validated canonical directory for slug.
func (in *Installer) CanonicalDir(slug string) (string, error) {
	if err := ValidateSlug(slug); err != nil {
		return "", err
	}
	return containedPath(in.CanonicalRoot(), slug)
}

// TargetAgents returns the non-universal agents an install would fan out to.
func (in *Installer) TargetAgents(override []agents.Agent) []agents.Agent {
	list := override
	if list == nil {
		list = in.agents
	}
	if list == nil {
		list = agents.Detect(in.projectDir)
	}
	out := make([]agents.Agent, 0, len(list))
	for _, a := range list {
		if !a.IsUniversal {
			out = append(out, a)
		}
	}
	return out
}

// InstallToAgents writes the canonical documents for req and links them into
// every target agent. Only canonical-store failures are returned as errors.
func (in *Installer) InstallToAgents(ctx context.Context, req Request) (*Result, error) {
	res := &Result{
		Checksum:   Checksum(req.Content),
		Size:       int64(len(req.Content)),
		LinkErrors: make(map[agents.Name]error),
	}

	dir, err := in.CanonicalDir(req.Slug)
	if err != nil {
		return nil, err
	}
	res.CanonicalDir = dir

	docs, err := RenderDocuments(req, in.splitThreshold)
	if err != nil {
		return nil, err
	}
	res.Split = docs.Split()

	if err := writeDocuments(dir, docs); err != nil {
		return nil, err
	}
	res.Agents = append(res.Agents, agents.Universal)

	log := logger.G(ctx).WithField("slug", req.Slug)
	for _, a := range in.TargetAgents(req.Agents) {
		if err := in.linkAgent(ctx, a, req.Slug, dir); err != nil {
			log.WithError(err).WithField("agent", a.Name).Warn("could not link skill into agent directory")
			res.LinkErrors[a.Name] = err
			continue
		}
		res.Agents = append(res.Agents, a.Name)
	}

	lockDir := lockfile.Dir(in.projectDir)
	if err := os.MkdirAll(lockDir, 0755); err != nil {
		return nil, fmt.Errorf("creating %s: %w", lockDir, err)
	}
	return res, nil
}

// Relink refreshes the agent fan-out of an installed skill without touching
// its canonical documents.
func (in *Installer) Relink(ctx context.Context, slug string, override []agents.Agent) ([]agents.Name, map[agents.Name]error, error) {
	if !in.IsInstalled(slug) {
		return nil, nil, fmt.Errorf("%s: %w", slug, ErrNotInstalled)
	}
	dir, err := in.CanonicalDir(slug)
	if err != nil {
		return nil, nil, err
	}

	names := []agents.Name{agents.Universal}
	failed := make(map[agents.Name]error)
	for _, a := range in.TargetAgents(override) {
		if err := in.linkAgent(ctx, a, slug, dir); err != nil {
			failed[a.Name] = err
			continue
		}
		names = append(names, a.Name)
	}
	return names, failed, nil
}

func (in *Installer) linkAgent(ctx context.Context, a agents.Agent, slug, canonicalDir string) error {
	agentDir := a.Dir(in.projectDir)
	// An agent directory that is itself a link to the canonical root
	// already exposes every skill.
	if sameDir(agentDir, in.CanonicalRoot()) {
		return nil
	}
	target, err := containedPath(agentDir, slug)
	if err != nil {
		return err
	}
	return in.link.Link(ctx, canonicalDir, target)
}

// IsInstalled reports whether the canonical index document for slug exists.
// Agent links are not checked.
func (in *Installer) IsInstalled(slug string) bool {
	dir, err := in.CanonicalDir(slug)
	if err != nil {
		return false
	}
	info, err := os.Stat(filepath.Join(dir, IndexFile))
	return err == nil && info.Mode().IsRegular()
}

// InstalledSlugs lists the canonical skills present on disk, sorted.
func (in *Installer) InstalledSlugs() ([]string, error) {
	entries, err := os.ReadDir(in.CanonicalRoot())
	if os.IsNotExist(err) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", in.CanonicalRoot(), err)
	}

	var out []string
	for _, e := range entries {
		if !e.IsDir() || ValidateSlug(e.Name()) != nil {
			continue
		}
		if in.IsInstalled(e.Name()) {
			out = append(out, e.Name())
		}
	}
	sort.Strings(out)
	return out, nil
}

// RemoveFromAgents deletes the canonical directory and the skill's entry in
// every agent directory. Targets that do not exist count as removed. It
// returns the agents that actually had something to remove.
func (in *Installer) RemoveFromAgents(ctx context.Context, slug string) ([]agents.Name, error) {
	dir, err := in.CanonicalDir(slug)
	if err != nil {
		return nil, err
	}

	var removed []agents.Name
	var errs []error

	for _, a := range agents.NonUniversal() {
		agentDir := a.Dir(in.projectDir)
		if sameDir(agentDir, in.CanonicalRoot()) {
			continue
		}
		target, err := containedPath(agentDir, slug)
		if err != nil {
			errs = append(errs, err)
			continue
		}
		if _, err := os.Lstat(target); os.IsNotExist(err) {
			continue
		}
		if err := in.link.Unlink(ctx, target); err != nil {
			errs = append(errs, fmt.Errorf("%s: %w", a.Name, err))
			continue
		}
		removed = append(removed, a.Name)
	}

	if _, err := os.Lstat(dir); err == nil {
		if err := os.RemoveAll(dir); err != nil {
			errs = append(errs, fmt.Errorf("removing %s: %w", dir, err))
		} else {
			removed = append([]agents.Name{agents.Universal}, removed...)
		}
	}

	return removed, errors.Join(errs...)
}

// writeDocuments writes the index and, if present, the reference document.
// A reference document left from an earlier split install is removed.
func writeDocuments(dir string, docs Documents) error {
	if platform.IsSymlink(dir) {
		return fmt.Errorf("%w: canonical directory %s is a symlink", ErrPathEscape, dir)
	}
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("creating %s: %w", dir, err)
	}

	if err := platform.WriteFileAtomic(filepath.Join(dir, IndexFile), docs.Index, 0644); err != nil {
		return err
	}

	ref := filepath.Join(dir, ReferenceFile)
	if docs.Reference != nil {
		return platform.WriteFileAtomic(ref, docs.Reference, 0644)
	}
	if err := os.Remove(ref); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("removing stale %s: %w", ref, err)
	}
	return nil
}

// sameDir reports whether a and b resolve to the same existing directory.
func sameDir(a, b string) bool {
	ai, err := os.Stat(a)
	if err != nil {
		return false
	}
	bi, err := os.Stat(b)
	if err != nil {
		return false
	}
	return os.SameFile(ai, bi)
}
