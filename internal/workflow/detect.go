package workflow

import (
	"context"

	"github.com/agentx-labs/skilldocs/internal/detector"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
)

// Detect suggests registry entries for the project's declared dependencies,
// optionally restricted to categories. Skills already installed are left out.
func (r *Runner) Detect(ctx context.Context, categories []string) []detector.Match {
	entries := r.registry.Load(ctx)
	matches := detector.Detect(ctx, r.installer.ProjectDir(), entries)
	matches = detector.FilterMatchesByCategories(matches, categories)

	var out []detector.Match
	for _, m := range matches {
		if r.installer.IsInstalled(m.Slug) {
			continue
		}
		out = append(out, m)
	}

	logger.G(ctx).WithField("matches", len(out)).Debug("detected dependencies")

	slugs := make([]string, len(out))
	for i, m := range out {
		slugs[i] = m.Slug
	}
	r.sink.Track(telemetry.Event{Event: telemetry.EventDetect, Skills: slugs})
	return out
}
