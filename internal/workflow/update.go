package workflow

import (
	"context"
	"errors"

	"github.com/agentx-labs/skilldocs/internal/fetcher"
	"github.com/agentx-labs/skilldocs/internal/installer"
	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// UpdateOptions control Update.
type UpdateOptions struct {
	// Name restricts the update to one installed skill. Empty means all.
	Name string
	// Force ignores cache validators and rewrites the canonical copy.
	Force bool
}

// Update re-fetches locked skills and reinstalls those whose content changed.
func (r *Runner) Update(ctx context.Context, opts UpdateOptions) *Summary {
	sum := &Summary{Command: "update"}

	before, err := r.store.Read(ctx)
	if err != nil {
		sum.add(Outcome{Name: opts.Name, Status: StatusFailed, Err: err})
		r.report(sum.Outcomes[0])
		sum.Print(r.out)
		return sum
	}

	slugs := before.Slugs()
	if opts.Name != "" {
		slug, err := r.lockedSlug(ctx, before, opts.Name)
		if err != nil {
			o := Outcome{Name: opts.Name, Status: StatusFailed, Err: err}
			r.report(o)
			sum.add(o)
			sum.Print(r.out)
			return sum
		}
		slugs = []string{slug}
	}

	for _, slug := range slugs {
		var o Outcome
		_ = telemetry.WithSpan(ctx, "workflow.update", func(ctx context.Context) error {
			o = r.updateOne(ctx, before.Entries[slug], opts.Force)
			return o.Err
		}, attribute.String("skill.slug", slug))
		r.report(o)
		sum.add(o)
	}

	r.logChanges(ctx, before)
	sum.Print(r.out)
	if updated := sum.Slugs(StatusUpdated); len(updated) > 0 {
		r.sink.Track(telemetry.Event{Event: telemetry.EventUpdate, Skills: updated, Agents: sum.agentNames()})
	}
	return sum
}

// lockedSlug maps name to a slug recorded in lf. Only exact matches count.
func (r *Runner) lockedSlug(ctx context.Context, lf *lockfile.Lockfile, name string) (string, error) {
	return r.exactInstalled(ctx, lf, name, func(slug string) bool {
		_, ok := lf.Entries[slug]
		return ok
	})
}

func (r *Runner) updateOne(ctx context.Context, le lockfile.Entry, force bool) Outcome {
	o := Outcome{Name: le.Slug, Slug: le.Slug}
	log := logger.G(ctx).WithField("slug", le.Slug)

	r.registry.Load(ctx)
	var current *registry.Entry
	if e, ok := r.registry.Get(le.Slug); ok {
		current = &e
	} else {
		o.Warnings = append(o.Warnings, "no longer in the registry; refreshed from the recorded source")
		log.Warn("locked skill is not in the registry")
	}

	url := le.SourceURL
	if url == "" && current != nil {
		url = current.LlmsTxtURL
		if le.Format == lockfile.FormatLlmsFullTxt && current.HasFull() {
			url = current.LlmsFullTxtURL
		}
	}
	if url == "" {
		o.Status, o.Err = StatusFailed, errors.New("no source URL recorded")
		return o
	}

	installed := r.installer.IsInstalled(le.Slug)
	prev := fetcher.Validators{ETag: le.ETag, LastModified: le.LastModified}
	if force || !installed {
		prev = fetcher.Validators{}
	}

	res, err := r.fetcher.Fetch(ctx, url, prev)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	next := le
	next.SourceURL = url
	next.FetchedAt = r.now().UTC()
	if current != nil {
		next.Name = current.Name
	}

	if res.NotModified {
		telemetry.AddEvent(ctx, "not_modified")
		if res.Validators.ETag != "" {
			next.ETag = res.Validators.ETag
		}
		if res.Validators.LastModified != "" {
			next.LastModified = res.Validators.LastModified
		}
		if err := r.store.AddEntry(ctx, next); err != nil {
			o.Status, o.Err = StatusFailed, err
			return o
		}
		o.Status = StatusUnchanged
		return o
	}

	next.ETag = res.Validators.ETag
	next.LastModified = res.Validators.LastModified
	checksum := installer.Checksum(res.Content)
	same := checksum == le.Checksum

	if !same || force || !installed {
		result, err := r.installer.InstallToAgents(ctx, registryRequest(le, current, url, res.Content))
		if err != nil {
			o.Status, o.Err = StatusFailed, err
			return o
		}
		o.Agents = result.Agents
		o.Warnings = append(o.Warnings, linkWarnings(result.LinkErrors)...)
		next.Checksum = result.Checksum
		next.Size = result.Size
	}

	if err := r.store.AddEntry(ctx, next); err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	telemetry.SetAttributes(ctx, attribute.Bool("skill.changed", !same))
	if same {
		o.Status = StatusSameContent
	} else {
		o.Status = StatusUpdated
	}
	return o
}

// logChanges reports the lockfile changes made since before at debug level.
func (r *Runner) logChanges(ctx context.Context, before *lockfile.Lockfile) {
	log := logger.G(ctx)
	after, err := r.store.Read(ctx)
	if err != nil {
		return
	}
	patch, err := lockfile.Diff(before, after)
	if err != nil {
		log.WithError(err).Debug("could not diff lockfile")
		return
	}
	for _, line := range lockfile.Describe(patch) {
		log.Debug("lockfile: " + line)
	}
}
