package contracts

import (
	"context"
	"time"

	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/protocol"
)

// MCPHealthMonitor provides a way to interact with the health status of MCP servers.
type MCPHealthMonitor interface {
	// Status returns the health status for a single tracked server.
	Status(name string) (domain.ServerHealth, error)

	// List returns a copy of all known server health records.
	List() []domain.ServerHealth

	// Update records a health check for a tracked server.
	Update(name string, status domain.HealthStatus, state domain.SessionState) error
}

// MCPSessionAccessor provides a way to interact with MCP servers through their sessions.
type MCPSessionAccessor interface {
	// List returns all registered server names.
	List() []string

	// Tools returns the cached tool descriptors for the given server.
	Tools(name string) ([]protocol.Tool, error)

	// CallTool calls a tool on a single server.
	// Failures are carried in the returned result, never raised.
	CallTool(ctx context.Context, serverName, tool string, args protocol.Arguments, timeout time.Duration) domain.ToolCallResult

	// CallToolFanOut calls the same tool on every named server concurrently
	// and returns one result per server.
	CallToolFanOut(ctx context.Context, servers []string, tool string, argsFor func(serverName string) protocol.Arguments, timeout time.Duration) []domain.ToolCallResult

	// EnabledServers returns the names of registered servers that are enabled.
	EnabledServers() []string

	// StatusOf returns the session state for the given server.
	StatusOf(name string) (domain.SessionState, error)

	// StatusOfAll returns the session state for every registered server.
	StatusOfAll() map[string]domain.SessionState
}

// SubdomainEnumerator performs fan-out subdomain enumeration across servers.
type SubdomainEnumerator interface {
	// Enumerate runs one enumeration request and consolidates the results.
	Enumerate(ctx context.Context, req domain.EnumerationRequest) (domain.AggregateResult, error)
}
