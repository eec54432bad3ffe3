package cli

import (
	"context"
	"io"
	"path/filepath"
	"time"

	"github.com/agentx-labs/skilldocs/internal/branding"
	"github.com/agentx-labs/skilldocs/internal/config"
	"github.com/agentx-labs/skilldocs/internal/fetcher"
	"github.com/agentx-labs/skilldocs/internal/installer"
	"github.com/agentx-labs/skilldocs/internal/lockfile"
	"github.com/agentx-labs/skilldocs/internal/logger"
	"github.com/agentx-labs/skilldocs/internal/platform"
	"github.com/agentx-labs/skilldocs/internal/registry"
	"github.com/agentx-labs/skilldocs/internal/telemetry"
	"github.com/agentx-labs/skilldocs/internal/workflow"
	"github.com/sirupsen/logrus"
)

// shutdownTimeout bounds trace flushing when a command exits.
const shutdownTimeout = 2 * time.Second

// app holds the collaborators of one command invocation.
type app struct {
	settings  config.Settings
	registry  *registry.Registry
	installer *installer.Installer
	store     *lockfile.Store
	sink      telemetry.Sink
	shutdown  func(context.Context) error
	log       *logrus.Entry
}

// newRegistry is replaced in tests to avoid network access.
var newRegistry = func(s config.Settings) *registry.Registry {
	return registry.New(
		registry.WithRemoteURL(s.RegistryURL),
		registry.WithCachePath(config.RegistryCachePath()),
		registry.WithTimeout(s.RegistryTimeout),
		registry.WithCacheTTL(s.CacheTTL),
		registry.WithToolVersion(buildVersion),
	)
}

func newApp(ctx context.Context) (*app, error) {
	dir, err := projectDir()
	if err != nil {
		return nil, err
	}
	s := config.Resolve()

	link, err := platform.NewLinkStrategy(s.LinkMode)
	if err != nil {
		return nil, err
	}

	shutdown, err := telemetry.InitTracer(ctx, telemetry.TracingConfig{
		Enabled:        s.Tracing,
		ServiceName:    branding.CLIName(),
		ServiceVersion: buildVersion,
	})
	if err != nil {
		logger.G(ctx).WithError(err).Warn("tracing disabled")
		shutdown = func(context.Context) error { return nil }
	}

	var sink telemetry.Sink = telemetry.NopSink{}
	if s.Telemetry && s.TelemetryURL != "" {
		sink = telemetry.NewHTTPSink(s.TelemetryURL, buildVersion, filepath.Join(config.Dir(), "telemetry-id"))
	}

	return &app{
		settings: s,
		registry: newRegistry(s),
		installer: installer.New(dir,
			installer.WithLinkStrategy(link),
			installer.WithSplitThreshold(s.SplitThreshold),
		),
		store:    lockfile.NewStore(dir),
		sink:     sink,
		shutdown: shutdown,
		log:      logger.G(ctx),
	}, nil
}

func (a *app) runner(out io.Writer, opts ...workflow.Option) *workflow.Runner {
	f := fetcher.New(
		fetcher.WithTimeout(a.settings.FetchTimeout),
		fetcher.WithMaxBytes(a.settings.MaxContentBytes),
		fetcher.WithUserAgent(branding.UserAgent(buildVersion)),
	)
	opts = append([]workflow.Option{workflow.WithSink(a.sink), workflow.WithOutput(out)}, opts...)
	return workflow.New(a.registry, f, a.installer, a.store, opts...)
}

// close flushes telemetry and traces.
func (a *app) close() {
	a.sink.Close()
	ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := a.shutdown(ctx); err != nil {
		a.log.WithError(err).Debug("trace shutdown failed")
	}
}
