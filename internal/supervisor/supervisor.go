// Package supervisor owns the subprocess lifecycle for a single MCP server:
// spawning, liveness polling, and graceful-then-forced termination.
package supervisor

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
	"syscall"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/recon-ai/enumd/internal/config"
)

var (
	// ErrSpawnFailed indicates the executable could not be launched.
	ErrSpawnFailed = errors.New("failed to spawn server process")

	// ErrExitedEarly indicates the process terminated before the startup
	// grace period elapsed. Captured stderr output is included in the error.
	ErrExitedEarly = errors.New("server process exited during startup")
)

const (
	// DefaultStartGracePeriod is how long a freshly spawned process is given
	// to initialize before it is considered started.
	DefaultStartGracePeriod = 2 * time.Second

	// DefaultStopGracePeriod is how long a process is given to exit after
	// SIGTERM before it is force-killed.
	DefaultStopGracePeriod = 5 * time.Second
)

// Handle is the live-process handle for one server.
// Exactly one Handle exists per connected server; it is owned by the session
// that created it and destroyed on disconnect or fatal failure.
type Handle struct {
	name   string
	cmd    *exec.Cmd
	stdin  io.WriteCloser
	stdout io.ReadCloser
	stderr *stderrSink
	logger hclog.Logger

	// done is closed once the process has been reaped.
	done    chan struct{}
	waitErr error

	stopOnce sync.Once
}

// Start spawns the configured command with its args, environment overrides
// and working directory, wires up the standard streams, and waits the grace
// period to let the process initialize.
//
// The diagnostic stream is drained continuously in the background into a
// bounded buffer so the process can never block on a full stderr pipe.
func Start(ctx context.Context, entry config.ServerEntry, logger hclog.Logger, opt ...Option) (*Handle, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	if err := entry.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrSpawnFailed, err)
	}

	cmd := exec.Command(entry.Command, entry.Args...)
	cmd.Env = entry.Environ()
	cmd.Dir = entry.WorkingDir

	sink := newStderrSink(logger.Named("stderr"), opts.StderrTailSize)
	cmd.Stderr = sink

	stdin, err := cmd.StdinPipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdin pipe: %w", ErrSpawnFailed, err)
	}

	// The response stream is wired through an explicit pipe rather than
	// StdoutPipe: Wait closes StdoutPipe's parent end on exit, which can
	// race the reader and discard a response line written just before the
	// process exited. With an owned pipe, buffered lines stay readable
	// after the reap and the reader sees a clean EOF.
	stdoutR, stdoutW, err := os.Pipe()
	if err != nil {
		return nil, fmt.Errorf("%w: stdout pipe: %w", ErrSpawnFailed, err)
	}
	cmd.Stdout = stdoutW

	logger.Info("starting server process", "server", entry.Name, "command", entry.Command, "args", entry.Args)

	if err := cmd.Start(); err != nil {
		_ = stdoutR.Close()
		_ = stdoutW.Close()
		return nil, fmt.Errorf("%w: '%s': %w", ErrSpawnFailed, entry.Command, err)
	}

	// The child holds its own copy of the write end; ours closes now so
	// the reader's EOF arrives exactly when the process exits.
	_ = stdoutW.Close()

	h := &Handle{
		name:   entry.Name,
		cmd:    cmd,
		stdin:  stdin,
		stdout: stdoutR,
		stderr: sink,
		logger: logger,
		done:   make(chan struct{}),
	}

	go func() {
		h.waitErr = cmd.Wait()
		close(h.done)
	}()

	// Grace period: the process must survive startup before the handle is
	// handed to a session.
	select {
	case <-h.done:
		_ = stdoutR.Close()
		return nil, fmt.Errorf("%w: '%s': %s", ErrExitedEarly, entry.Command, h.stderr.Tail())
	case <-ctx.Done():
		h.Stop(opts.StopGracePeriod)
		return nil, ctx.Err()
	case <-time.After(opts.StartGracePeriod):
	}

	logger.Debug("server process started", "server", entry.Name, "pid", cmd.Process.Pid)

	return h, nil
}

// Name returns the server name this handle was started for.
func (h *Handle) Name() string {
	return h.name
}

// PID returns the process id.
func (h *Handle) PID() int {
	return h.cmd.Process.Pid
}

// Stdin returns the write-only request stream.
func (h *Handle) Stdin() io.Writer {
	return h.stdin
}

// Stdout returns the read-only response stream.
func (h *Handle) Stdout() io.Reader {
	return h.stdout
}

// StderrTail returns the most recent diagnostic-stream output.
func (h *Handle) StderrTail() string {
	return h.stderr.Tail()
}

// IsAlive reports process liveness without blocking.
func (h *Handle) IsAlive() bool {
	select {
	case <-h.done:
		return false
	default:
		return true
	}
}

// Done is closed once the process has been reaped.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// WaitErr returns the error from reaping the process.
// Only valid once Done is closed.
func (h *Handle) WaitErr() error {
	select {
	case <-h.done:
		return h.waitErr
	default:
		return nil
	}
}

// Stop terminates the process: stdin is closed, SIGTERM is sent, and if the
// process has not exited within gracePeriod it is force-killed. Stop always
// waits for the reap so no zombie is left behind, and is a no-op for handles
// that have already stopped.
func (h *Handle) Stop(gracePeriod time.Duration) {
	h.stopOnce.Do(func() {
		_ = h.stdin.Close()

		// The read end of the response stream is released only after the
		// reap; a stop is a teardown, so any still-buffered lines are
		// deliberately discarded with it.
		defer func() {
			_ = h.stdout.Close()
		}()

		if !h.IsAlive() {
			return
		}

		h.logger.Debug("terminating server process", "server", h.name, "pid", h.cmd.Process.Pid)
		_ = h.cmd.Process.Signal(syscall.SIGTERM)

		select {
		case <-h.done:
		case <-time.After(gracePeriod):
			h.logger.Warn("server process did not exit in time, killing", "server", h.name, "pid", h.cmd.Process.Pid)
			_ = h.cmd.Process.Kill()
			<-h.done
		}
	})
}
