package daemon

import (
	"context"
	"fmt"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/flags"
	"github.com/recon-ai/enumd/internal/recon"
	"github.com/recon-ai/enumd/internal/session"
)

// Daemon supervises the configured MCP servers and exposes them over the HTTP API.
// NewDaemon should be used to create instances of Daemon.
type Daemon struct {
	logger    hclog.Logger
	cfgLoader config.Loader
	apiAddr   string
	opts      Options
	manager   *session.Manager
}

// NewDaemon creates a daemon from validated dependencies and options.
func NewDaemon(deps Dependencies, opt ...Option) (*Daemon, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	manager, err := session.NewManager(deps.Logger, opts.SessionOptions...)
	if err != nil {
		return nil, fmt.Errorf("failed to create session manager: %w", err)
	}

	return &Daemon{
		logger:    deps.Logger.Named("daemon"),
		cfgLoader: deps.ConfigLoader,
		apiAddr:   deps.APIAddr,
		opts:      opts,
		manager:   manager,
	}, nil
}

// LoadConfig loads and registers the configured servers.
func (d *Daemon) LoadConfig() ([]config.ServerEntry, error) {
	cfg, err := d.cfgLoader.Load(flags.ConfigFile)
	if err != nil {
		return nil, err
	}

	entries := cfg.ListServers()
	if err := d.manager.RegisterAll(entries); err != nil {
		return nil, err
	}

	return entries, nil
}

// StartAndManage connects all enabled servers, starts the liveness polling
// loop and the HTTP API, and blocks until the context is canceled.
// Every supervised process is disconnected on the way out.
func (d *Daemon) StartAndManage(ctx context.Context) error {
	entries, err := d.LoadConfig()
	if err != nil {
		return err
	}

	d.logger.Info("loaded server config", "servers", len(entries))

	tracker := NewHealthTracker(d.manager.EnabledServers())

	// Registered before any process can exist so every return path below,
	// including failed construction of the API server, tears the sessions
	// down again.
	defer d.manager.DisconnectAll()

	connected := d.manager.ConnectAll(ctx)
	for name, ok := range connected {
		if !ok {
			d.logger.Error("failed to connect server", "name", name)
		}
	}
	d.pollHealth(tracker)

	enumerator, err := recon.NewEnumerator(recon.Deps{
		Accessor: d.manager,
		Logger:   d.logger,
	})
	if err != nil {
		return err
	}

	apiDeps, err := NewAPIDependencies(d.logger, d.manager, tracker, enumerator, d.apiAddr)
	if err != nil {
		return err
	}
	apiServer, err := NewAPIServer(apiDeps, d.opts.APIOptions...)
	if err != nil {
		return fmt.Errorf("failed to create daemon API server: %w", err)
	}

	go d.healthCheckLoop(ctx, tracker, d.opts.HealthCheckInterval)

	return apiServer.Start(ctx)
}

// healthCheckLoop polls server liveness until the context is canceled.
func (d *Daemon) healthCheckLoop(ctx context.Context, tracker *HealthTracker, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.logger.Info("Stopping MCP server health checks")
			return
		case <-ticker.C:
			d.pollHealth(tracker)
		}
	}
}

// pollHealth records the current session state of every tracked server.
func (d *Daemon) pollHealth(tracker *HealthTracker) {
	for _, health := range tracker.List() {
		state, err := d.manager.StatusOf(health.Name)
		if err != nil {
			continue
		}

		if err := tracker.Update(health.Name, healthStatusFor(state), state); err != nil {
			d.logger.Error("failed to record health check", "name", health.Name, "error", err)
		}
	}
}

// healthStatusFor maps a session state to a liveness status.
// A stopped or transitioning session is not unhealthy, just not yet known.
func healthStatusFor(state domain.SessionState) domain.HealthStatus {
	switch state {
	case domain.SessionStateRunning:
		return domain.HealthStatusOK
	case domain.SessionStateFailed:
		return domain.HealthStatusUnreachable
	default:
		return domain.HealthStatusUnknown
	}
}
