package supervisor

import (
	"fmt"
	"time"
)

// Options contains optional configuration for starting a server process.
// NewOptions should be used to create instances of Options.
type Options struct {
	// StartGracePeriod is how long the process must survive after spawn
	// before Start returns successfully.
	StartGracePeriod time.Duration

	// StopGracePeriod is how long Stop waits after SIGTERM before killing.
	StopGracePeriod time.Duration

	// StderrTailSize bounds the retained diagnostic-stream output in bytes.
	StderrTailSize int
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
		StartGracePeriod: DefaultStartGracePeriod,
		StopGracePeriod:  DefaultStopGracePeriod,
		StderrTailSize:   4096,
	}
}

// WithStartGracePeriod configures the startup grace period.
func WithStartGracePeriod(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("start grace period must be positive, got %v", d)
		}
		o.StartGracePeriod = d
		return nil
	}
}

// WithStopGracePeriod configures the shutdown grace period.
func WithStopGracePeriod(d time.Duration) Option {
	return func(o *Options) error {
		if d <= 0 {
			return fmt.Errorf("stop grace period must be positive, got %v", d)
		}
		o.StopGracePeriod = d
		return nil
	}
}

// WithStderrTailSize configures the retained stderr tail size in bytes.
func WithStderrTailSize(n int) Option {
	return func(o *Options) error {
		if n <= 0 {
			return fmt.Errorf("stderr tail size must be positive, got %d", n)
		}
		o.StderrTailSize = n
		return nil
	}
}
