package session

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/domain"
	enumderrors "github.com/recon-ai/enumd/internal/errors"
	"github.com/recon-ai/enumd/internal/protocol"
)

// Manager coordinates a named collection of sessions: registration, connect
// and disconnect of all enabled servers, single-server tool calls and
// fan-out calls across many servers.
//
// Failures local to one server are always converted into a failed
// ToolCallResult or a false entry in a status mapping; they never abort an
// operation across other servers. It is safe for concurrent use.
type Manager struct {
	logger hclog.Logger
	opts   Options

	mu       sync.RWMutex
	configs  map[string]config.ServerEntry
	sessions map[string]*Session
}

// NewManager creates an empty manager.
func NewManager(logger hclog.Logger, opt ...Option) (*Manager, error) {
	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Manager{
		logger:   logger.Named("manager"),
		opts:     opts,
		configs:  make(map[string]config.ServerEntry),
		sessions: make(map[string]*Session),
	}, nil
}

// Register stores a server config without starting a process.
// Structurally invalid entries are rejected eagerly. Registering an
// already-used name overwrites the previous entry (last-write-wins) with a
// logged warning.
func (m *Manager) Register(entry config.ServerEntry) error {
	if err := entry.Validate(); err != nil {
		return err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.configs[entry.Name]; exists {
		m.logger.Warn("overwriting existing server config", "server", entry.Name, "command", entry.Command)
	}
	m.configs[entry.Name] = entry

	return nil
}

// RegisterAll registers every entry, stopping at the first invalid one.
func (m *Manager) RegisterAll(entries []config.ServerEntry) error {
	for _, entry := range entries {
		if err := m.Register(entry); err != nil {
			return err
		}
	}
	return nil
}

// List returns all registered server names, sorted.
func (m *Manager) List() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.configs))
	for name := range m.configs {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Connect starts and initializes a session for the named server using its
// current config. Any previous session for that name is disconnected first.
func (m *Manager) Connect(ctx context.Context, name string) error {
	m.mu.RLock()
	entry, ok := m.configs[name]
	m.mu.RUnlock()
	if !ok {
		return fmt.Errorf("%w: %s", enumderrors.ErrServerNotFound, name)
	}
	if !entry.IsEnabled() {
		return fmt.Errorf("%w: %s", enumderrors.ErrServerDisabled, name)
	}

	m.mu.Lock()
	prev := m.sessions[name]
	delete(m.sessions, name)
	m.mu.Unlock()
	if prev != nil {
		prev.Disconnect()
	}

	sess, err := New(entry, m.logger,
		WithHandshakeTimeout(m.opts.HandshakeTimeout),
		WithStopGracePeriod(m.opts.stopGrace()),
		WithSupervisorOptions(m.opts.Supervisor...),
	)
	if err != nil {
		return err
	}
	// The session is retained even when the connect attempt fails so the
	// Failed state stays observable through StatusOf until the next attempt.
	m.mu.Lock()
	m.sessions[name] = sess
	m.mu.Unlock()

	return sess.Connect(ctx)
}

// ConnectAll attempts start+initialize for every enabled registered server
// concurrently. Each server's outcome is independent: one failure never
// blocks or fails another's attempt. The returned map has one entry per
// enabled server.
func (m *Manager) ConnectAll(ctx context.Context) map[string]bool {
	m.mu.RLock()
	names := make([]string, 0, len(m.configs))
	for name, entry := range m.configs {
		if entry.IsEnabled() {
			names = append(names, name)
		}
	}
	m.mu.RUnlock()

	results := make(map[string]bool, len(names))
	var resultsMu sync.Mutex

	g, gctx := errgroup.WithContext(ctx)
	for _, name := range names {
		g.Go(func() error {
			err := m.Connect(gctx, name)
			if err != nil {
				m.logger.Error("failed to connect server", "server", name, "error", err)
			}
			resultsMu.Lock()
			results[name] = err == nil
			resultsMu.Unlock()
			// Failure isolation: never propagate, never cancel siblings.
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// DisconnectAll tears down every live session. It is invoked unconditionally
// on shutdown paths, is idempotent, and is safe when some or all processes
// have already died or none were ever connected.
func (m *Manager) DisconnectAll() {
	m.mu.Lock()
	sessions := make([]*Session, 0, len(m.sessions))
	for _, sess := range m.sessions {
		sessions = append(sessions, sess)
	}
	m.sessions = make(map[string]*Session)
	m.mu.Unlock()

	var wg sync.WaitGroup
	for _, sess := range sessions {
		wg.Add(1)
		go func() {
			defer wg.Done()
			sess.Disconnect()
		}()
	}
	wg.Wait()

	if len(sessions) > 0 {
		m.logger.Info("disconnected all servers", "count", len(sessions))
	}
}

// Session returns the live session for the given server name.
func (m *Manager) Session(name string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[name]
	return sess, ok
}

// Tools returns the cached tool descriptors for the named server.
func (m *Manager) Tools(name string) ([]protocol.Tool, error) {
	m.mu.RLock()
	_, registered := m.configs[name]
	sess, connected := m.sessions[name]
	m.mu.RUnlock()

	if !registered {
		return nil, fmt.Errorf("%w: %s", enumderrors.ErrServerNotFound, name)
	}
	if !connected || sess.State() != domain.SessionStateRunning {
		return nil, fmt.Errorf("%w: server '%s' is not connected", enumderrors.ErrToolsNotFound, name)
	}

	return sess.Tools(), nil
}

// CallTool delegates to the named session. Callers always receive a
// structured result: unknown, disabled or dead servers yield a failed
// ToolCallResult rather than a fault.
func (m *Manager) CallTool(ctx context.Context, serverName, tool string, args protocol.Arguments, timeout time.Duration) domain.ToolCallResult {
	if timeout <= 0 {
		timeout = DefaultCallTimeout
	}

	m.mu.RLock()
	entry, registered := m.configs[serverName]
	sess, connected := m.sessions[serverName]
	m.mu.RUnlock()

	switch {
	case !registered:
		return domain.FailedToolCall(serverName, fmt.Errorf("%w: %s", enumderrors.ErrServerNotFound, serverName))
	case !entry.IsEnabled():
		return domain.FailedToolCall(serverName, fmt.Errorf("%w: %s", enumderrors.ErrServerDisabled, serverName))
	case !connected:
		return domain.FailedToolCall(serverName, fmt.Errorf("server '%s' is not connected", serverName))
	}

	result, err := sess.CallTool(ctx, tool, args, timeout)
	if err != nil {
		m.logger.Error("tool call failed", "server", serverName, "tool", tool, "error", err)
		return domain.FailedToolCall(serverName, err)
	}

	return result
}

// ArgsBuilder produces the arguments for one target server of a fan-out call.
type ArgsBuilder = func(serverName string) protocol.Arguments

// CallToolFanOut issues the tool call to each server concurrently, each with
// its own timeout and failure isolation, and collects every result before
// returning: a join barrier, not a race. Results are ordered like servers.
func (m *Manager) CallToolFanOut(ctx context.Context, servers []string, tool string, argsFor ArgsBuilder, timeout time.Duration) []domain.ToolCallResult {
	results := make([]domain.ToolCallResult, len(servers))

	g := new(errgroup.Group)
	for i, name := range servers {
		g.Go(func() error {
			var args protocol.Arguments
			if argsFor != nil {
				args = argsFor(name)
			}
			results[i] = m.CallTool(ctx, name, tool, args, timeout)
			return nil
		})
	}
	_ = g.Wait()

	return results
}

// EnabledServers returns the names of all enabled registered servers, sorted.
func (m *Manager) EnabledServers() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	names := make([]string, 0, len(m.configs))
	for name, entry := range m.configs {
		if entry.IsEnabled() {
			names = append(names, name)
		}
	}
	sort.Strings(names)
	return names
}

// StatusOf returns the current session state for the named server.
// A registered server with no session is Stopped.
func (m *Manager) StatusOf(name string) (domain.SessionState, error) {
	m.mu.RLock()
	_, registered := m.configs[name]
	sess, connected := m.sessions[name]
	m.mu.RUnlock()

	if !registered {
		return "", fmt.Errorf("%w: %s", enumderrors.ErrServerNotFound, name)
	}
	if !connected {
		return domain.SessionStateStopped, nil
	}
	return sess.State(), nil
}

// StatusOfAll returns a snapshot of all registered servers' session states.
func (m *Manager) StatusOfAll() map[string]domain.SessionState {
	m.mu.RLock()
	defer m.mu.RUnlock()

	statuses := make(map[string]domain.SessionState, len(m.configs))
	for name := range m.configs {
		if sess, ok := m.sessions[name]; ok {
			statuses[name] = sess.State()
		} else {
			statuses[name] = domain.SessionStateStopped
		}
	}
	return statuses
}
