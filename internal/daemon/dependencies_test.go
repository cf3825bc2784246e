package daemon

import (
	"context"
	"testing"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/require"

	"github.com/recon-ai/enumd/internal/config"
	"github.com/recon-ai/enumd/internal/contracts"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/protocol"
)

type stubAccessor struct{}

func (s *stubAccessor) List() []string { return nil }

func (s *stubAccessor) Tools(_ string) ([]protocol.Tool, error) { return nil, nil }

func (s *stubAccessor) CallTool(_ context.Context, serverName, _ string, _ protocol.Arguments, _ time.Duration) domain.ToolCallResult {
	return domain.ToolCallResult{ServerName: serverName}
}

func (s *stubAccessor) CallToolFanOut(_ context.Context, _ []string, _ string, _ func(string) protocol.Arguments, _ time.Duration) []domain.ToolCallResult {
	return nil
}

func (s *stubAccessor) EnabledServers() []string { return nil }

func (s *stubAccessor) StatusOf(_ string) (domain.SessionState, error) {
	return domain.SessionStateStopped, nil
}

func (s *stubAccessor) StatusOfAll() map[string]domain.SessionState { return nil }

type stubEnumerator struct{}

func (s *stubEnumerator) Enumerate(_ context.Context, req domain.EnumerationRequest) (domain.AggregateResult, error) {
	return domain.AggregateResult{Domain: req.Domain}, nil
}

type stubLoader struct{}

func (s *stubLoader) Load(_ string) (config.Modifier, error) { return nil, nil }

func TestNewAPIDependencies(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()
	sessions := &stubAccessor{}
	tracker := NewHealthTracker(nil)
	enumerator := &stubEnumerator{}

	tests := []struct {
		name       string
		logger     hclog.Logger
		sessions   contracts.MCPSessionAccessor
		tracker    contracts.MCPHealthMonitor
		enumerator contracts.SubdomainEnumerator
		addr       string
		wantErr    string
	}{
		{
			name:       "valid",
			logger:     logger,
			sessions:   sessions,
			tracker:    tracker,
			enumerator: enumerator,
			addr:       "0.0.0.0:8090",
		},
		{
			name:       "bad address",
			logger:     logger,
			sessions:   sessions,
			tracker:    tracker,
			enumerator: enumerator,
			addr:       "no-port",
			wantErr:    "invalid API address",
		},
		{
			name:       "nil sessions",
			logger:     logger,
			tracker:    tracker,
			enumerator: enumerator,
			addr:       "0.0.0.0:8090",
			wantErr:    "session accessor cannot be nil",
		},
		{
			name:       "nil health tracker",
			logger:     logger,
			sessions:   sessions,
			enumerator: enumerator,
			addr:       "0.0.0.0:8090",
			wantErr:    "health tracker cannot be nil",
		},
		{
			name:     "nil enumerator",
			logger:   logger,
			sessions: sessions,
			tracker:  tracker,
			addr:     "0.0.0.0:8090",
			wantErr:  "enumerator cannot be nil",
		},
		{
			name:       "nil logger",
			sessions:   sessions,
			tracker:    tracker,
			enumerator: enumerator,
			addr:       "0.0.0.0:8090",
			wantErr:    "logger cannot be nil",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps, err := NewAPIDependencies(tc.logger, tc.sessions, tc.tracker, tc.enumerator, tc.addr)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.addr, deps.Addr)
		})
	}
}

func TestNewDependencies(t *testing.T) {
	t.Parallel()

	logger := hclog.NewNullLogger()
	loader := &stubLoader{}

	tests := []struct {
		name    string
		logger  hclog.Logger
		loader  config.Loader
		addr    string
		wantErr string
	}{
		{
			name:   "valid",
			logger: logger,
			loader: loader,
			addr:   "localhost:8090",
		},
		{
			name:    "nil logger",
			loader:  loader,
			addr:    "localhost:8090",
			wantErr: "logger cannot be nil",
		},
		{
			name:    "nil config loader",
			logger:  logger,
			addr:    "localhost:8090",
			wantErr: "config loader cannot be nil",
		},
		{
			name:    "bad address",
			logger:  logger,
			loader:  loader,
			addr:    "nope",
			wantErr: "invalid API address",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			deps, err := NewDependencies(tc.logger, tc.loader, tc.addr)
			if tc.wantErr != "" {
				require.ErrorContains(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			require.Equal(t, tc.addr, deps.APIAddr)
		})
	}
}

func TestNewDaemon(t *testing.T) {
	t.Parallel()

	deps, err := NewDependencies(hclog.NewNullLogger(), &stubLoader{}, "localhost:8090")
	require.NoError(t, err)

	d, err := NewDaemon(deps)
	require.NoError(t, err)
	require.NotNil(t, d)

	_, err = NewDaemon(Dependencies{})
	require.Error(t, err)
}
