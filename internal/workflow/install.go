package workflow

import (
	"context"
	"fmt"

	"github.com/agentx-labs/skilldocs/internal/agents"
	"github.com/agentx-labs/skilldocs/internal/fetcher"
	"github.com/agentx-labs/skilldocs/internal/installer"
	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"go.opentelemetry.io/otel/attribute"
)

// InstallOptions control Install.
type InstallOptions struct {
	// Full installs llms-full.txt when the entry publishes one.
	Full bool
	// Force reinstalls skills that are already present.
	Force bool
	// Agents overrides agent detection. Nil means detect.
	Agents []agents.Agent
}

// Install resolves, fetches, installs and records each name in turn.
func (r *Runner) Install(ctx context.Context, names []string, opts InstallOptions) *Summary {
	sum := &Summary{Command: "install"}

	for _, name := range names {
		var o Outcome
		_ = telemetry.WithSpan(ctx, "workflow.install", func(ctx context.Context) error {
			o = r.installOne(ctx, name, opts)
			return o.Err
		}, attribute.String("skill.name", name))
		r.report(o)
		sum.add(o)
	}

	sum.Print(r.out)
	if installed := sum.Slugs(StatusInstalled); len(installed) > 0 {
		r.sink.Track(telemetry.Event{Event: telemetry.EventInstall, Skills: installed, Agents: sum.agentNames()})
	}
	return sum
}

func (r *Runner) installOne(ctx context.Context, name string, opts InstallOptions) Outcome {
	o := Outcome{Name: name}
	log := logger.G(ctx).WithField("name", name)

	entry, err := r.resolve(ctx, name)
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	o.Slug = entry.Slug
	if entry.Slug != name {
		log.WithField("slug", entry.Slug).Debug("resolved")
	}

	if !opts.Force && r.installer.IsInstalled(entry.Slug) {
		// Agent directories created since the first install still get a link.
		names, failed, err := r.installer.Relink(ctx, entry.Slug, opts.Agents)
		if err != nil {
			log.WithError(err).Debug("relink failed")
		}
		o.Agents = names
		o.Warnings = append(o.Warnings, linkWarnings(failed)...)
		o.Status = StatusAlreadyInstalled
		return o
	}

	url, format := entry.LlmsTxtURL, lockfile.FormatLlmsTxt
	if opts.Full {
		if entry.HasFull() {
			url, format = entry.LlmsFullTxtURL, lockfile.FormatLlmsFullTxt
		} else {
			o.Warnings = append(o.Warnings, fmt.Sprintf("%s publishes no llms-full.txt; installed llms.txt", entry.Name))
		}
	}

	res, err := r.fetcher.Fetch(ctx, url, fetcher.Validators{})
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	if res.NotModified {
		o.Status, o.Err = StatusFailed, fmt.Errorf("fetching %s: unexpected 304 without validators", url)
		return o
	}

	installed, err := r.installer.InstallToAgents(ctx, installer.Request{
		Slug:        entry.Slug,
		Name:        entry.Name,
		Description: entry.Description,
		SourceURL:   url,
		Content:     res.Content,
		Agents:      opts.Agents,
	})
	if err != nil {
		o.Status, o.Err = StatusFailed, err
		return o
	}
	o.Agents = installed.Agents
	o.Warnings = append(o.Warnings, linkWarnings(installed.LinkErrors)...)

	err = r.store.AddEntry(ctx, lockfile.Entry{
		Slug:         entry.Slug,
		Format:       format,
		SourceURL:    url,
		ETag:         res.Validators.ETag,
		LastModified: res.Validators.LastModified,
		FetchedAt:    r.now().UTC(),
		Checksum:     installed.Checksum,
		Size:         installed.Size,
		Name:         entry.Name,
	})
	if err != nil {
		o.Status, o.Err = StatusFailed, fmt.Errorf("recording %s in lockfile: %w", entry.Slug, err)
		return o
	}

	o.Status = StatusInstalled
	return o
}

// registryRequest builds an install request from a registry entry or, for
// an entry no longer in the registry, from what the lockfile recorded.
func registryRequest(le lockfile.Entry, entry *registry.Entry, url string, content []byte) installer.Request {
	req := installer.Request{
		Slug:      le.Slug,
		Name:      le.Name,
		SourceURL: url,
		Content:   content,
	}
	if entry != nil {
		req.Name = entry.Name
		req.Description = entry.Description
	}
	return req
}

func linkWarnings(errs map[agents.Name]error) []string {
	var out []string
	for _, a := range agents.NonUniversal() {
		if err, ok := errs[a.Name]; ok {
			out = append(out, fmt.Sprintf("not linked for %s: %v", a.DisplayName, err))
		}
	}
	return out
}
