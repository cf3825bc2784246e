package api

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
	"github.com/recon-ai/enumd/internal/protocol"
)

// mockSessionAccessor implements the MCPSessionAccessor interface for testing.
type mockSessionAccessor struct {
	tools      map[string][]protocol.Tool
	callResult domain.ToolCallResult
	states     map[string]domain.SessionState

	calledServer string
	calledTool   string
	calledArgs   protocol.Arguments
}

func newMockSessionAccessor() *mockSessionAccessor {
	return &mockSessionAccessor{
		tools:  make(map[string][]protocol.Tool),
		states: make(map[string]domain.SessionState),
	}
}

func (m *mockSessionAccessor) List() []string {
	names := make([]string, 0, len(m.tools))
	for name := range m.tools {
		names = append(names, name)
	}
	return names
}

func (m *mockSessionAccessor) Tools(name string) ([]protocol.Tool, error) {
	tools, ok := m.tools[name]
	if !ok {
		return nil, errors.ErrServerNotFound
	}
	return tools, nil
}

func (m *mockSessionAccessor) CallTool(_ context.Context, serverName, tool string, args protocol.Arguments, _ time.Duration) domain.ToolCallResult {
	m.calledServer = serverName
	m.calledTool = tool
	m.calledArgs = args
	return m.callResult
}

func (m *mockSessionAccessor) CallToolFanOut(ctx context.Context, servers []string, tool string, argsFor func(string) protocol.Arguments, timeout time.Duration) []domain.ToolCallResult {
	results := make([]domain.ToolCallResult, 0, len(servers))
	for _, name := range servers {
		results = append(results, m.CallTool(ctx, name, tool, argsFor(name), timeout))
	}
	return results
}

func (m *mockSessionAccessor) EnabledServers() []string { return m.List() }

func (m *mockSessionAccessor) StatusOf(name string) (domain.SessionState, error) {
	state, ok := m.states[name]
	if !ok {
		return "", errors.ErrServerNotFound
	}
	return state, nil
}

func (m *mockSessionAccessor) StatusOfAll() map[string]domain.SessionState {
	return m.states
}

// mockEnumerator implements the SubdomainEnumerator interface for testing.
type mockEnumerator struct {
	result domain.AggregateResult
	err    error

	gotReq domain.EnumerationRequest
}

func (m *mockEnumerator) Enumerate(_ context.Context, req domain.EnumerationRequest) (domain.AggregateResult, error) {
	m.gotReq = req
	return m.result, m.err
}

func TestHandleServers_Sorted(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()
	accessor.tools["subfinder"] = nil
	accessor.tools["amass"] = nil

	resp, err := handleServers(accessor)
	require.NoError(t, err)
	require.Equal(t, []string{"amass", "subfinder"}, resp.Body)
}

func TestHandleServerStatuses(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()
	accessor.states["subfinder"] = domain.SessionStateRunning
	accessor.states["amass"] = domain.SessionStateFailed

	resp, err := handleServerStatuses(accessor)
	require.NoError(t, err)
	require.Equal(t, map[string]string{
		"subfinder": "running",
		"amass":     "failed",
	}, resp.Body.Servers)
}

func TestHandleServerTools(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()
	accessor.tools["subfinder"] = []protocol.Tool{
		{
			Name:        "passive_subdomain_enum",
			Description: "Passive subdomain enumeration",
			InputSchema: json.RawMessage(`{"type":"object"}`),
		},
	}

	resp, err := handleServerTools(accessor, "subfinder")
	require.NoError(t, err)
	require.Len(t, resp.Body.Tools, 1)
	assert.Equal(t, "passive_subdomain_enum", resp.Body.Tools[0].Name)
	assert.JSONEq(t, `{"type":"object"}`, string(resp.Body.Tools[0].InputSchema))
}

func TestHandleServerTools_ServerNotFound(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()

	resp, err := handleServerTools(accessor, "nonexistent")
	require.Nil(t, resp)
	require.ErrorIs(t, err, errors.ErrServerNotFound)
}

func TestHandleServerTools_NoTools(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()
	accessor.tools["subfinder"] = nil

	resp, err := handleServerTools(accessor, "subfinder")
	require.Nil(t, resp)
	require.ErrorIs(t, err, errors.ErrToolsNotFound)
}

func TestHandleServerToolCall(t *testing.T) {
	t.Parallel()

	accessor := newMockSessionAccessor()
	accessor.tools["subfinder"] = []protocol.Tool{{Name: "passive_subdomain_enum"}}
	accessor.callResult = domain.ToolCallResult{
		ServerName: "subfinder",
		Success:    true,
		Data:       json.RawMessage(`{"subdomains":["a.example.com"]}`),
	}

	body := []byte(`{"domain":"example.com","timeout":30}`)
	resp, err := handleServerToolCall(context.Background(), accessor, "subfinder", "passive_subdomain_enum", body)
	require.NoError(t, err)
	require.True(t, resp.Body.Success)

	assert.Equal(t, "subfinder", accessor.calledServer)
	assert.Equal(t, "passive_subdomain_enum", accessor.calledTool)
	// Argument order from the request body is preserved.
	assert.Equal(t, []string{"domain", "timeout"}, accessor.calledArgs.Keys())
}

func TestHandleServerToolCall_Errors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		server  string
		body    []byte
		result  domain.ToolCallResult
		wantErr error
	}{
		{
			name:    "server not found",
			server:  "nonexistent",
			wantErr: errors.ErrServerNotFound,
		},
		{
			name:    "invalid arguments payload",
			server:  "subfinder",
			body:    []byte(`["not","an","object"]`),
			wantErr: errors.ErrBadRequest,
		},
		{
			name:    "failed call",
			server:  "subfinder",
			body:    []byte(`{"domain":"example.com"}`),
			result:  domain.ToolCallResult{ServerName: "subfinder", Error: "request timed out"},
			wantErr: errors.ErrToolCallFailed,
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			accessor := newMockSessionAccessor()
			accessor.tools["subfinder"] = []protocol.Tool{{Name: "passive_subdomain_enum"}}
			accessor.callResult = tc.result

			resp, err := handleServerToolCall(context.Background(), accessor, tc.server, "passive_subdomain_enum", tc.body)
			require.Nil(t, resp)
			require.ErrorIs(t, err, tc.wantErr)
		})
	}
}

func TestHandleEnumerate(t *testing.T) {
	t.Parallel()

	enumerator := &mockEnumerator{
		result: domain.AggregateResult{
			Domain:           "example.com",
			Method:           "passive",
			Success:          true,
			Subdomains:       []string{"a.example.com"},
			TotalCount:       1,
			SucceededServers: []string{"subfinder"},
		},
	}

	input := &EnumerateRequest{}
	input.Body.Domain = " example.com "
	input.Body.Servers = []string{"subfinder"}
	input.Body.TimeoutSeconds = 45

	resp, err := handleEnumerate(context.Background(), enumerator, input)
	require.NoError(t, err)
	require.True(t, resp.Body.Success)
	require.Equal(t, []string{"a.example.com"}, resp.Body.Subdomains)

	// Whitespace is trimmed and the method defaults to passive.
	assert.Equal(t, "example.com", enumerator.gotReq.Domain)
	assert.Equal(t, domain.EnumerationPassive, enumerator.gotReq.Method)
	assert.Equal(t, 45*time.Second, enumerator.gotReq.Timeout)
}

func TestHandleEnumerate_TotalFailure(t *testing.T) {
	t.Parallel()

	enumerator := &mockEnumerator{
		result: domain.AggregateResult{
			Domain:        "example.com",
			Method:        "passive",
			FailedServers: []string{"subfinder", "amass"},
		},
	}

	input := &EnumerateRequest{}
	input.Body.Domain = "example.com"

	resp, err := handleEnumerate(context.Background(), enumerator, input)
	require.Nil(t, resp)
	require.ErrorIs(t, err, errors.ErrEnumerationFailed)
	require.ErrorContains(t, err, "subfinder, amass")
}

func TestHandleEnumerate_BadRequest(t *testing.T) {
	t.Parallel()

	enumerator := &mockEnumerator{err: errors.ErrBadRequest}

	input := &EnumerateRequest{}
	input.Body.Domain = ""

	resp, err := handleEnumerate(context.Background(), enumerator, input)
	require.Nil(t, resp)
	require.ErrorIs(t, err, errors.ErrBadRequest)
}

func TestDomainServerHealth_ToAPIType(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	health := domain.ServerHealth{
		Name:        "subfinder",
		Status:      domain.HealthStatusOK,
		State:       domain.SessionStateRunning,
		LastChecked: &now,
	}

	data, err := DomainServerHealth(health).ToAPIType()
	require.NoError(t, err)
	assert.Equal(t, HealthStatusOK, data.Status)
	assert.Equal(t, "running", data.State)
	assert.Equal(t, &now, data.LastChecked)

	_, err = DomainServerHealth(domain.ServerHealth{Status: "bogus"}).ToAPIType()
	require.ErrorContains(t, err, "unknown health status")
}
