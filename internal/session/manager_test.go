package session

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/protocol"
	"github.com/recon-ai/enumd/internal/supervisor"
)

// syncBuffer lets concurrent hclog writes be inspected safely.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testManager(t *testing.T, logOutput *syncBuffer) *Manager {
	t.Helper()

	if logOutput == nil {
		logOutput = &syncBuffer{}
	}
	output := hclog.New(&hclog.LoggerOptions{
		Name:   "test",
		Level:  hclog.Debug,
		Output: logOutput,
	})

	m, err := NewManager(output,
		WithHandshakeTimeout(2*time.Second),
		WithStopGracePeriod(time.Second),
		WithSupervisorOptions(supervisor.WithStartGracePeriod(50*time.Millisecond)),
	)
	require.NoError(t, err)
	t.Cleanup(m.DisconnectAll)

	return m
}

func domainArgs() ArgsBuilder {
	return func(string) protocol.Arguments {
		return protocol.NewArguments(protocol.Argument{Key: "domain", Value: protocol.String("test")})
	}
}

func TestManager_Register_ValidatesEagerly(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	err := m.Register(config.ServerEntry{Name: "no-command"})
	require.ErrorIs(t, err, config.ErrInvalidValue)

	err = m.Register(config.ServerEntry{Command: "cmd-without-name"})
	require.ErrorIs(t, err, config.ErrInvalidValue)

	require.Empty(t, m.List())
}

func TestManager_Register_LastWriteWins_Logged(t *testing.T) {
	t.Parallel()

	logs := &syncBuffer{}
	m := testManager(t, logs)

	first := stubServer(t, "echo-mcp", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["old.test"]}}'
cat >/dev/null
`)
	second := stubServer(t, "echo-mcp-v2", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["new.test"]}}'
cat >/dev/null
`)
	second.Name = "echo-mcp"

	require.NoError(t, m.Register(first))
	require.NoError(t, m.Register(second))

	require.Contains(t, logs.String(), "overwriting existing server config")
	require.Equal(t, []string{"echo-mcp"}, m.List())

	// A subsequent connect starts the overwritten command only.
	results := m.ConnectAll(context.Background())
	require.Equal(t, map[string]bool{"echo-mcp": true}, results)

	result := m.CallTool(context.Background(), "echo-mcp", "passive_subdomain_enum", domainArgs()("echo-mcp"), 5*time.Second)
	require.True(t, result.Success)
	require.JSONEq(t, `{"subdomains":["new.test"]}`, string(result.Data))
}

func TestManager_CallTool_EchoScenario(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)
	require.NoError(t, m.Register(stubServer(t, "echo-mcp", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["x.test"]}}'
cat >/dev/null
`)))

	results := m.ConnectAll(context.Background())
	require.Equal(t, map[string]bool{"echo-mcp": true}, results)

	args := protocol.NewArguments(protocol.Argument{Key: "domain", Value: protocol.String("test")})
	result := m.CallTool(context.Background(), "echo-mcp", "passive_subdomain_enum", args, 30*time.Second)

	require.True(t, result.Success)
	require.Equal(t, "echo-mcp", result.ServerName)
	require.JSONEq(t, `{"subdomains":["x.test"]}`, string(result.Data))
}

func TestManager_CallTool_StructuredFailures(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	disabled := false
	entry := stubServer(t, "disabled-mcp", stubHandshake+`cat >/dev/null`)
	entry.Enabled = &disabled
	require.NoError(t, m.Register(entry))

	connectedButNot := stubServer(t, "registered-mcp", stubHandshake+`cat >/dev/null`)
	require.NoError(t, m.Register(connectedButNot))

	tests := []struct {
		name    string
		server  string
		wantErr string
	}{
		{
			name:    "unknown server",
			server:  "ghost",
			wantErr: "server not found",
		},
		{
			name:    "disabled server",
			server:  "disabled-mcp",
			wantErr: "server disabled",
		},
		{
			name:    "registered but never connected",
			server:  "registered-mcp",
			wantErr: "not connected",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			result := m.CallTool(context.Background(), tc.server, "passive_subdomain_enum", nil, time.Second)
			require.False(t, result.Success)
			require.Equal(t, tc.server, result.ServerName)
			require.Contains(t, result.Error, tc.wantErr)
		})
	}
}

func TestManager_ConnectAll_FailureIsolation(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	require.NoError(t, m.Register(stubServer(t, "server-a", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["a.x"]}}'
cat >/dev/null
`)))
	require.NoError(t, m.Register(config.ServerEntry{
		Name:    "server-b",
		Command: "/nonexistent/enumd-test-binary",
	}))

	results := m.ConnectAll(context.Background())
	require.Equal(t, map[string]bool{"server-a": true, "server-b": false}, results)

	state, err := m.StatusOf("server-a")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStateRunning, state)
}

func TestManager_StatusOf_FailedConnectIsObservable(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)
	require.NoError(t, m.Register(config.ServerEntry{
		Name:    "broken",
		Command: "/nonexistent/enumd-test-binary",
	}))

	results := m.ConnectAll(context.Background())
	require.Equal(t, map[string]bool{"broken": false}, results)

	// The failed attempt stays visible until the next connect attempt.
	state, err := m.StatusOf("broken")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStateFailed, state)
	require.Equal(t, domain.SessionStateFailed, m.StatusOfAll()["broken"])

	// A failed session exposes no tools.
	_, err = m.Tools("broken")
	require.Error(t, err)

	// Teardown resets the failed session like any other.
	m.DisconnectAll()
	state, err = m.StatusOf("broken")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStateStopped, state)
}

func TestManager_ConnectAll_SkipsDisabled(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	disabled := false
	entry := stubServer(t, "disabled-mcp", stubHandshake+`cat >/dev/null`)
	entry.Enabled = &disabled
	require.NoError(t, m.Register(entry))

	results := m.ConnectAll(context.Background())
	require.Empty(t, results)
	require.Empty(t, m.EnabledServers())
}

func TestManager_CallToolFanOut_PartialFailure(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	require.NoError(t, m.Register(stubServer(t, "server-a", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["a.x"]}}'
cat >/dev/null
`)))
	require.NoError(t, m.Register(config.ServerEntry{
		Name:    "server-b",
		Command: "/nonexistent/enumd-test-binary",
	}))

	_ = m.ConnectAll(context.Background())

	results := m.CallToolFanOut(
		context.Background(),
		[]string{"server-a", "server-b"},
		"passive_subdomain_enum",
		domainArgs(),
		5*time.Second,
	)

	require.Len(t, results, 2)
	require.True(t, results[0].Success)
	require.Equal(t, "server-a", results[0].ServerName)
	require.False(t, results[1].Success)
	require.Equal(t, "server-b", results[1].ServerName)
}

func TestManager_CallToolFanOut_TimeoutIsolation(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	require.NoError(t, m.Register(stubServer(t, "fast", stubHandshake+`
read line; printf '%s\n' '{"id":3,"result":{"subdomains":["fast.x"]}}'
cat >/dev/null
`)))
	require.NoError(t, m.Register(stubServer(t, "stalled", stubHandshake+`cat >/dev/null`)))

	_ = m.ConnectAll(context.Background())

	start := time.Now()
	results := m.CallToolFanOut(
		context.Background(),
		[]string{"fast", "stalled"},
		"passive_subdomain_enum",
		domainArgs(),
		300*time.Millisecond,
	)
	elapsed := time.Since(start)

	// Join barrier: both results collected, the stalled server's timeout
	// does not cancel the fast one.
	require.Len(t, results, 2)
	require.True(t, results[0].Success)
	require.False(t, results[1].Success)
	require.Less(t, elapsed, 3*time.Second)

	// The stalled session is still running; only the call timed out.
	state, err := m.StatusOf("stalled")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStateRunning, state)
}

func TestManager_DisconnectAll_SafeAndIdempotent(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	// No servers ever connected.
	m.DisconnectAll()

	require.NoError(t, m.Register(stubServer(t, "clean", stubHandshake+`cat >/dev/null`)))
	require.NoError(t, m.Register(stubServer(t, "dies", stubHandshake+`
read line; exit 1
`)))
	_ = m.ConnectAll(context.Background())

	// Kill one server mid-flight so DisconnectAll must cope with an
	// already-dead process.
	_, ok := m.Session("dies")
	require.True(t, ok)
	result := m.CallTool(context.Background(), "dies", "passive_subdomain_enum", domainArgs()("dies"), time.Second)
	require.False(t, result.Success)

	done := make(chan struct{})
	go func() {
		m.DisconnectAll()
		m.DisconnectAll()
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(10 * time.Second):
		t.Fatal("DisconnectAll blocked")
	}

	state, err := m.StatusOf("clean")
	require.NoError(t, err)
	require.Equal(t, domain.SessionStateStopped, state)
}

func TestManager_StatusOfAll(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)

	require.NoError(t, m.Register(stubServer(t, "up", stubHandshake+`cat >/dev/null`)))
	require.NoError(t, m.Register(config.ServerEntry{Name: "never-started", Command: "true"}))

	require.NoError(t, m.Connect(context.Background(), "up"))

	statuses := m.StatusOfAll()
	require.Equal(t, domain.SessionStateRunning, statuses["up"])
	require.Equal(t, domain.SessionStateStopped, statuses["never-started"])

	_, err := m.StatusOf("ghost")
	require.Error(t, err)
}

func TestManager_Tools(t *testing.T) {
	t.Parallel()

	m := testManager(t, nil)
	require.NoError(t, m.Register(stubServer(t, "echo-mcp", stubHandshake+`cat >/dev/null`)))

	_, err := m.Tools("ghost")
	require.Error(t, err)

	_, err = m.Tools("echo-mcp")
	require.Error(t, err)

	require.NoError(t, m.Connect(context.Background(), "echo-mcp"))

	tools, err := m.Tools("echo-mcp")
	require.NoError(t, err)
	require.Len(t, tools, 1)
	require.Equal(t, "passive_subdomain_enum", tools[0].Name)
}
