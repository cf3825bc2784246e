// Package session implements framed request/response MCP sessions over the
// stdio streams of supervised server processes, and the manager that
// coordinates a named collection of them.
package session

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"io"
	"sync"
	"sync/atomic"
	"time"

	"github.com/hashicorp/go-hclog"

	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/protocol"
	"github.com/recon-ai/enumd/internal/supervisor"
)

const (
	clientName    = "enumd"
	clientVersion = "0.1.0"

	// maxLineSize bounds a single response line.
	maxLineSize = 1024 * 1024
)

// initializeParams is the payload of the handshake request.
type initializeParams struct {
	ProtocolVersion string     `json:"protocolVersion"`
	ClientInfo      clientInfo `json:"clientInfo"`
}

type clientInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Session is one framed RPC session over a live server process's streams.
//
// A single reader goroutine demultiplexes response lines to waiting callers
// by correlation id; writes are serialized so request lines never interleave.
// No other component reads or writes the process streams directly.
type Session struct {
	entry  config.ServerEntry
	logger hclog.Logger
	opts   Options

	// mu guards state, handle, tools and readerDone.
	mu         sync.Mutex
	state      domain.SessionState
	handle     *supervisor.Handle
	tools      []protocol.Tool
	readerDone chan struct{}

	// writeMu serializes request-line writes to the process stdin.
	writeMu sync.Mutex

	// nextID is the strictly increasing per-session correlation id counter.
	// Ids are never reused within a session's lifetime.
	nextID atomic.Int64

	pendingMu sync.Mutex
	pending   map[int64]chan *protocol.Response
}

// New creates a session for the given server entry. The process is not
// started until Connect.
func New(entry config.ServerEntry, logger hclog.Logger, opt ...Option) (*Session, error) {
	if err := entry.Validate(); err != nil {
		return nil, err
	}

	opts, err := NewOptions(opt...)
	if err != nil {
		return nil, err
	}

	return &Session{
		entry:   entry,
		logger:  logger.Named("session").With("server", entry.Name),
		opts:    opts,
		state:   domain.SessionStateStopped,
		pending: make(map[int64]chan *protocol.Response),
	}, nil
}

// Name returns the server name this session belongs to.
func (s *Session) Name() string {
	return s.entry.Name
}

// State returns the current lifecycle state.
func (s *Session) State() domain.SessionState {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Alive reports whether the session is running and its process is alive.
func (s *Session) Alive() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state == domain.SessionStateRunning && s.handle != nil && s.handle.IsAlive()
}

// Tools returns the tool descriptors cached at connect time.
func (s *Session) Tools() []protocol.Tool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]protocol.Tool(nil), s.tools...)
}

// Tool returns the cached descriptor for the named tool.
func (s *Session) Tool(name string) (protocol.Tool, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, t := range s.tools {
		if t.Name == name {
			return t, true
		}
	}
	return protocol.Tool{}, false
}

// Connect starts the server process, performs the initialize handshake and
// caches the server's tool descriptors. On any failure the process is torn
// down and the session transitions to Failed.
func (s *Session) Connect(ctx context.Context) error {
	s.mu.Lock()
	switch s.state {
	case domain.SessionStateRunning, domain.SessionStateStarting:
		s.mu.Unlock()
		return fmt.Errorf("session '%s' is already %s", s.entry.Name, s.state)
	case domain.SessionStateStopping:
		s.mu.Unlock()
		return fmt.Errorf("session '%s' is shutting down", s.entry.Name)
	}
	s.state = domain.SessionStateStarting
	s.mu.Unlock()

	handle, err := supervisor.Start(ctx, s.entry, s.logger, s.opts.Supervisor...)
	if err != nil {
		s.setState(domain.SessionStateFailed)
		return err
	}

	readerDone := make(chan struct{})
	s.mu.Lock()
	s.handle = handle
	s.readerDone = readerDone
	s.mu.Unlock()

	go s.readLoop(handle.Stdout(), readerDone)

	if err := s.initialize(ctx); err != nil {
		handle.Stop(s.opts.stopGrace())
		s.setState(domain.SessionStateFailed)
		return err
	}

	tools, err := s.listTools(ctx)
	if err != nil {
		handle.Stop(s.opts.stopGrace())
		s.setState(domain.SessionStateFailed)
		return err
	}

	s.mu.Lock()
	s.tools = tools
	s.state = domain.SessionStateRunning
	s.mu.Unlock()

	s.logger.Info("session connected", "pid", handle.PID(), "tools", len(tools))

	return nil
}

// Disconnect tears down the process and reader. It is safe to call on a
// session in any state, including one whose process already died, and is
// idempotent.
func (s *Session) Disconnect() {
	s.mu.Lock()
	handle := s.handle
	readerDone := s.readerDone
	switch s.state {
	case domain.SessionStateStopped:
		s.mu.Unlock()
		return
	case domain.SessionStateFailed:
		// Terminal, but the process (if any) still needs reaping.
		s.mu.Unlock()
	default:
		s.state = domain.SessionStateStopping
		s.mu.Unlock()
	}

	if handle != nil {
		handle.Stop(s.opts.stopGrace())
	}

	// The reader exits once the process streams are closed. The wait is
	// bounded so a wedged stream can never deadlock disconnect.
	if readerDone != nil {
		select {
		case <-readerDone:
		case <-time.After(s.opts.stopGrace()):
			s.logger.Warn("reader did not exit in time")
		}
	}

	s.mu.Lock()
	if s.state != domain.SessionStateFailed {
		s.state = domain.SessionStateStopped
	}
	s.handle = nil
	s.mu.Unlock()

	s.logger.Debug("session disconnected")
}

// CallTool invokes the named tool and blocks the calling goroutine until the
// matching response arrives, the timeout elapses, or the process exits.
//
// A timed-out call is abandoned locally: the subprocess keeps running and the
// session stays usable; the stale correlation id is never matched to a later
// call, so a late response is logged and dropped.
func (s *Session) CallTool(ctx context.Context, tool string, args protocol.Arguments, timeout time.Duration) (domain.ToolCallResult, error) {
	if state := s.State(); state != domain.SessionStateRunning {
		if state == domain.SessionStateFailed {
			return domain.ToolCallResult{}, fmt.Errorf("session '%s': %w", s.entry.Name, protocol.ErrProcessDied)
		}
		return domain.ToolCallResult{}, fmt.Errorf("session '%s' is not connected (state: %s)", s.entry.Name, state)
	}

	// Validate against the cached descriptor when the server declared a schema.
	if descriptor, ok := s.Tool(tool); ok {
		if err := protocol.ValidateArguments(descriptor, args); err != nil {
			return domain.ToolCallResult{}, err
		}
	}

	resp, err := s.roundTrip(ctx, protocol.MethodCallTool, protocol.CallParams{Name: tool, Arguments: args}, timeout)
	if err != nil {
		return domain.ToolCallResult{}, err
	}

	if resp.IsError() {
		return domain.ToolCallResult{
			ServerName: s.entry.Name,
			Error:      resp.Error.Message,
		}, nil
	}

	return domain.ToolCallResult{
		ServerName: s.entry.Name,
		Success:    true,
		Data:       resp.Result,
	}, nil
}

// initialize performs the capability-negotiation handshake. It must complete
// before any other call on the session.
func (s *Session) initialize(ctx context.Context) error {
	params := initializeParams{
		ProtocolVersion: "latest",
		ClientInfo:      clientInfo{Name: clientName, Version: clientVersion},
	}

	resp, err := s.roundTrip(ctx, protocol.MethodInitialize, params, s.opts.HandshakeTimeout)
	if err != nil {
		return fmt.Errorf("%w: %w", protocol.ErrHandshakeFailed, err)
	}
	if resp.IsError() {
		return fmt.Errorf("%w: %s", protocol.ErrHandshakeFailed, resp.Error.Message)
	}

	return nil
}

// listTools retrieves and parses the server's tool descriptors.
func (s *Session) listTools(ctx context.Context) ([]protocol.Tool, error) {
	resp, err := s.roundTrip(ctx, protocol.MethodListTools, struct{}{}, s.opts.HandshakeTimeout)
	if err != nil {
		return nil, err
	}
	if resp.IsError() {
		return nil, fmt.Errorf("%w: %s", protocol.ErrMalformedResponse, resp.Error.Message)
	}

	return protocol.ParseListToolsResult(resp.Result)
}

// roundTrip sends one request line and waits for the response with the
// matching correlation id.
func (s *Session) roundTrip(ctx context.Context, method string, params any, timeout time.Duration) (*protocol.Response, error) {
	id := s.nextID.Add(1)

	req, err := protocol.NewRequest(id, method, params)
	if err != nil {
		return nil, err
	}
	line, err := protocol.EncodeLine(req)
	if err != nil {
		return nil, err
	}

	ch := make(chan *protocol.Response, 1)
	s.pendingMu.Lock()
	s.pending[id] = ch
	s.pendingMu.Unlock()

	s.mu.Lock()
	handle := s.handle
	readerDone := s.readerDone
	s.mu.Unlock()
	if handle == nil {
		s.removePending(id)
		return nil, fmt.Errorf("session '%s' has no live process", s.entry.Name)
	}

	s.writeMu.Lock()
	_, err = handle.Stdin().Write(line)
	s.writeMu.Unlock()
	if err != nil {
		s.removePending(id)
		return nil, fmt.Errorf("%w: write failed: %w", protocol.ErrProcessDied, err)
	}

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	select {
	case resp := <-ch:
		return resp, nil
	case <-timer.C:
		s.removePending(id)
		return nil, fmt.Errorf("%s request %d: %w after %s", method, id, protocol.ErrTimeout, timeout)
	case <-ctx.Done():
		s.removePending(id)
		return nil, ctx.Err()
	case <-readerDone:
		// The stream closed under us; prefer a response that raced in.
		select {
		case resp := <-ch:
			return resp, nil
		default:
		}
		s.removePending(id)
		return nil, fmt.Errorf("%s request %d: %w", method, id, protocol.ErrProcessDied)
	}
}

func (s *Session) removePending(id int64) {
	s.pendingMu.Lock()
	delete(s.pending, id)
	s.pendingMu.Unlock()
}

// readLoop is the single dedicated reader for the process output stream.
// It demultiplexes complete response lines to waiting callers by id.
func (s *Session) readLoop(stdout io.Reader, done chan struct{}) {
	defer close(done)

	scanner := bufio.NewScanner(stdout)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineSize)

	for scanner.Scan() {
		line := bytes.TrimSpace(scanner.Bytes())
		if len(line) == 0 {
			continue
		}

		resp, err := protocol.DecodeResponse(line)
		if err != nil {
			s.logger.Warn("dropping undecodable response line", "error", err)
			continue
		}

		s.pendingMu.Lock()
		ch, ok := s.pending[resp.ID]
		if ok {
			delete(s.pending, resp.ID)
		}
		s.pendingMu.Unlock()

		if !ok {
			// Late response to an abandoned call, or a stray id.
			s.logger.Warn("dropping response with no pending request", "id", resp.ID)
			continue
		}

		ch <- resp
	}

	if err := scanner.Err(); err != nil {
		s.logger.Debug("response stream closed", "error", err)
	}

	// Stream is gone. If the session was running this is an unexpected
	// process exit.
	s.mu.Lock()
	if s.state == domain.SessionStateRunning || s.state == domain.SessionStateStarting {
		s.state = domain.SessionStateFailed
		if s.handle != nil {
			if tail := s.handle.StderrTail(); tail != "" {
				s.logger.Error("server process died", "stderr", tail)
			} else {
				s.logger.Error("server process died")
			}
		}
	}
	s.mu.Unlock()
}

func (s *Session) setState(state domain.SessionState) {
	s.mu.Lock()
	s.state = state
	s.mu.Unlock()
}
