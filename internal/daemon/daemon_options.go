package daemon

import (
	"fmt"
	"time"

	"github.com/recon-ai/enumd/internal/session"
)

// Options contains optional configuration for the daemon.
// NewOptions should be used to create instances of Options.
type Options struct {
	// APIOptions contains functional options for the API server.
	APIOptions []APIOption

	// SessionOptions contains functional options for the session manager.
	SessionOptions []session.Option

	// HealthCheckInterval specifies how often to poll MCP server liveness.
	HealthCheckInterval time.Duration
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
// Starts with default values, then applies options in order with later options overriding earlier ones.
func NewOptions(opts ...Option) (Options, error) {
	options := defaultOptions()

	for _, opt := range opts {
		if opt == nil {
			continue
		}
		if err := opt(&options); err != nil {
			return Options{}, err
		}
	}

	return options, nil
}

func defaultOptions() Options {
	return Options{
		HealthCheckInterval: DefaultHealthCheckInterval(),
	}
}

// WithAPIOptions configures API server options.
// Replaces all previous API configuration including CORS settings.
func WithAPIOptions(apiOpts ...APIOption) Option {
	return func(o *Options) error {
		o.APIOptions = apiOpts
		return nil
	}
}

// WithSessionOptions configures session manager options.
// Replaces all previous session configuration.
func WithSessionOptions(sessionOpts ...session.Option) Option {
	return func(o *Options) error {
		o.SessionOptions = sessionOpts
		return nil
	}
}

// WithHealthCheckInterval configures how often to poll MCP server liveness.
func WithHealthCheckInterval(interval time.Duration) Option {
	return func(o *Options) error {
		if interval <= 0 {
			return fmt.Errorf("health check interval must be positive, got %v", interval)
		}
		o.HealthCheckInterval = interval
		return nil
	}
}

// DefaultHealthCheckInterval returns the default liveness polling interval.
func DefaultHealthCheckInterval() time.Duration {
	return 10 * time.Second
}
