package domain

import (
	"encoding/json"
	"time"
)

// ToolCallResult is the uniform per-(server, call) outcome.
// Server-facing failures are carried here as data rather than raised,
// so a fan-out always receives one result per targeted server.
type ToolCallResult struct {
	// ServerName identifies the server that produced this result.
	ServerName string `json:"serverName"`

	// Success reports whether the call produced a usable result payload.
	Success bool `json:"success"`

	// Data holds the opaque result payload when Success is true.
	Data json.RawMessage `json:"data,omitempty"`

	// Error holds the failure message when Success is false.
	Error string `json:"error,omitempty"`
}

// FailedToolCall builds a failed result for the named server.
func FailedToolCall(serverName string, err error) ToolCallResult {
	return ToolCallResult{
		ServerName: serverName,
		Error:      err.Error(),
	}
}

// AggregateResult is the consolidated outcome of one fan-out call.
//
// Invariant: SucceededServers and FailedServers are disjoint and their
// union is exactly the set of servers targeted by the call.
type AggregateResult struct {
	// Domain is the key the fan-out was performed for (e.g. the target domain).
	Domain string `json:"domain"`

	// Method tags the enumeration method that produced this result.
	Method string `json:"method"`

	// Success is true iff at least one server returned usable data.
	Success bool `json:"success"`

	// Subdomains is the deduplicated, sorted union of discovered names.
	Subdomains []string `json:"subdomains"`

	// TotalCount is len(Subdomains).
	TotalCount int `json:"totalCount"`

	// SucceededServers lists servers whose call succeeded.
	SucceededServers []string `json:"succeededServers"`

	// FailedServers lists servers whose call failed.
	FailedServers []string `json:"failedServers"`

	// ServerResults retains the unmodified per-server results for diagnostics.
	ServerResults []ToolCallResult `json:"serverResults"`

	// Timestamp records when the consolidation happened.
	Timestamp time.Time `json:"timestamp"`
}
