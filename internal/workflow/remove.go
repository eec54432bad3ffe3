package workflow

import (
	"context"
	"errors"

	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// Remove deletes each named skill from the canonical store, every agent
// directory and the lockfile.
func (r *Runner) Remove(ctx context.Context, names []string) *Summary {
	sum := &Summary{Command: "remove"}

	for _, name := range names {
		var o Outcome
		_ = telemetry.WithSpan(ctx, "workflow.remove", func(ctx context.Context) error {
			o = r.removeOne(ctx, name)
			return o.Err
		}, attribute.String("skill.name", name))
		r.report(o)
		sum.add(o)
	}

	sum.Print(r.out)
	if removed := sum.Slugs(StatusRemoved); len(removed) > 0 {
		r.sink.Track(telemetry.Event{Event: telemetry.EventRemove, Skills: removed, Agents: sum.agentNames()})
	}
	return sum
}

func (r *Runner) removeOne(ctx context.Context, name string) Outcome {
	o := Outcome{Name: name}

	slug, err := r.installedSlug(ctx, name)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	o.Slug = slug

	removed, err := r.installer.RemoveFromAgents(ctx, slug)
	o.Agents = removed
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	if err := r.store.RemoveEntry(ctx, slug); err != nil && !errors.Is(err, lockfile.ErrNotFound) {
		o.Status, o.Err = StatusFailed, err
		return o
	}

	o.Status = StatusRemoved
	return o
}

// installedSlug maps name to a slug present in the lockfile or the
// canonical store. Only exact matches count.
func (r *Runner) installedSlug(ctx context.Context, name string) (string, error) {
	lf, err := r.store.Read(ctx)
	if err != nil {
		return "", err
	}
	return r.exactInstalled(ctx, lf, name, func(slug string) bool {
		if _, ok := lf.Entries[slug]; ok {
			return true
		}
		return r.installer.IsInstalled(slug)
	})
}
