package workflow

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/agentx-labs/skilldocs/internal/fetcher"
	"github.com/agentx-labs/skilldocs/internal/installer"
	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
)

// ErrNotFound is returned when a name resolves to no registry entry.
var ErrNotFound = errors.New("no skill matches")

// suggestionCount is how many alternatives are offered for an unknown name.
const suggestionCount = 5

// Fetcher retrieves content, conditionally when validators are given.
type Fetcher interface {
	Fetch(ctx context.Context, url string, prev fetcher.Validators) (*fetcher.Result, error)
}

// Prompter resolves ambiguity interactively.
type Prompter interface {
	// Choose asks the user to pick one of suggestions for an unresolved name.
	// ok is false when the user declines.
	Choose(name string, suggestions []registry.Entry) (choice registry.Entry, ok bool)
}

// Runner executes workflows for one project and one command invocation.
type Runner struct {
	registry  *registry.Registry
	fetcher   Fetcher
	installer *installer.Installer
	store     *lockfile.Store
	sink      telemetry.Sink
	prompter  Prompter
	out       io.Writer
	now       func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithSink sets the telemetry sink. The default discards events.
func WithSink(s telemetry.Sink) Option {
	return func(r *Runner) { r.sink = s }
}

// WithPrompter enables interactive disambiguation.
func WithPrompter(p Prompter) Option {
	return func(r *Runner) { r.prompter = p }
}

// WithOutput sets where progress lines are written.
func WithOutput(w io.Writer) Option {
	return func(r *Runner) { r.out = w }
}

// WithClock overrides the time source for fetchedAt stamps.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) { r.now = now }
}

// New creates a Runner from its collaborators.
func New(reg *registry.Registry, f Fetcher, inst *installer.Installer, store *lockfile.Store, opts ...Option) *Runner {
	r := &Runner{
		registry:  reg,
		fetcher:   f,
		installer: inst,
		store:     store,
		sink:      telemetry.NopSink{},
		out:       io.Discard,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Runner) printf(format string, args ...interface{}) {
	fmt.Fprintf(r.out, format, args...)
}

func (r *Runner) report(o Outcome) {
	if o.Err != nil {
		r.printf("  ✗ %s: %v\n", o.Name, o.Err)
		return
	}
	label := o.Slug
	if o.Name != "" && o.Name != o.Slug {
		label = fmt.Sprintf("%s (%s)", o.Name, o.Slug)
	}
	r.printf("  ✓ %s: %s", label, o.Status)
	if len(o.Agents) > 0 && (o.Status == StatusInstalled || o.Status == StatusUpdated) {
		r.printf(" → %s", joinNames(o.Agents))
	}
	r.printf("\n")
	for _, w := range o.Warnings {
		r.printf("    ⚠ %s\n", w)
	}
}

// resolve maps a user-supplied name to an entry, asking the prompter when
// there is no direct match.
func (r *Runner) resolve(ctx context.Context, name string) (registry.Entry, error) {
	r.registry.Load(ctx)
	if e, ok := r.registry.Resolve(name); ok {
		return e, nil
	}

	suggestions := r.registry.Suggest(name, suggestionCount)
	if r.prompter != nil && len(suggestions) > 0 {
		if e, ok := r.prompter.Choose(name, suggestions); ok {
			return e, nil
		}
	}

	if len(suggestions) == 0 {
		return registry.Entry{}, fmt.Errorf("%w %q", ErrNotFound, name)
	}
	slugs := make([]string, 0, len(suggestions))
	for _, s := range suggestions {
		slugs = append(slugs, s.Slug)
	}
	return registry.Entry{}, fmt.Errorf("%w %q (did you mean: %s?)", ErrNotFound, name, strings.Join(slugs, ", "))
}

// exactInstalled maps name to an installed slug without fuzzy matching:
// the slug itself in any case, or the display name recorded in lf or the
// registry, compared case-insensitively. A miss returns ErrNotInstalled
// with installed near matches as hints.
func (r *Runner) exactInstalled(ctx context.Context, lf *lockfile.Lockfile, name string, installed func(slug string) bool) (string, error) {
	q := strings.TrimSpace(name)
	for _, slug := range []string{q, strings.ToLower(q)} {
		if installer.ValidateSlug(slug) == nil && installed(slug) {
			return slug, nil
		}
	}

	for _, slug := range lf.Slugs() {
		if strings.EqualFold(lf.Entries[slug].Name, q) {
			return slug, nil
		}
	}

	entries := r.registry.Load(ctx)
	for _, e := range entries {
		if strings.EqualFold(e.Name, q) && installed(e.Slug) {
			return e.Slug, nil
		}
	}

	var hints []string
	for _, e := range r.registry.Suggest(q, suggestionCount) {
		if installed(e.Slug) {
			hints = append(hints, e.Slug)
		}
	}
	if len(hints) == 0 {
		return "", fmt.Errorf("%s: %w", name, installer.ErrNotInstalled)
	}
	return "", fmt.Errorf("%s: %w (did you mean: %s?)", name, installer.ErrNotInstalled, strings.Join(hints, ", "))
}

func joinNames(names []agents.Name) string {
	parts := make([]string, len(names))
	for i, n := range names {
		parts[i] = string(n)
	}
	return strings.Join(parts, ", ")
}
