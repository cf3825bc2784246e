package session

import (
	"fmt"
	"time"

	"github.com/recon-ai/enumd/internal/supervisor"
)

const (
	// DefaultHandshakeTimeout bounds the initialize and tools/list exchanges
	// performed at connect time.
	DefaultHandshakeTimeout = 10 * time.Second

	// DefaultCallTimeout is the per-call timeout applied when the caller does
	// not provide one.
	DefaultCallTimeout = 30 * time.Second
)

// Options contains optional configuration for sessions.
// NewOptions should be used to create instances of Options.
type Options struct {
	// HandshakeTimeout bounds each connect-time exchange.
	HandshakeTimeout time.Duration

	// StopGracePeriod is how long disconnect waits for a graceful exit
	// before the process is force-killed.
	StopGracePeriod time.Duration

	// Supervisor holds options passed through to process startup.
	Supervisor []supervisor.Option
}

// Option defines a functional option for configuring Options.
// Options are applied in order, with later options overriding earlier ones.
type Option func(*Options) error

// NewOptions creates Options with optional configurations applied.
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
		HandshakeTimeout: DefaultHandshakeTimeout,
		StopGracePeriod:  supervisor.DefaultStopGracePeriod,
	}
}

func (o Options) stopGrace() time.Duration {
	if o.StopGracePeriod <= 0 {
		return supervisor.DefaultStopGracePeriod
	}
	return o.StopGracePeriod
}

// WithHandshakeTimeout configures the connect-time exchange timeout.
func WithHandshakeTimeout(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("handshake timeout must be positive, got %v", d)
		}
		o.HandshakeTimeout = d
		return nil
	}
}

// WithStopGracePeriod configures how long disconnect waits before force-killing.
func WithStopGracePeriod(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("stop grace period must be positive, got %v", d)
		}
		o.StopGracePeriod = d
		return nil
	}
}

// WithSupervisorOptions configures options passed through to process startup.
func WithSupervisorOptions(opts ...supervisor.Option) Option {
	return func(o *Options) error {
		o.Supervisor = opts
		return nil
	}
}
