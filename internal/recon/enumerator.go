// Package recon orchestrates subdomain enumeration across MCP servers.
package recon

import (
	"context"
	"fmt"
	"reflect"

	"github.com/hashicorp/go-hclog"

	"github.com/recon-ai/enumd/internal/consolidate"
	"github.com/recon-ai/enumd/internal/contracts"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
	"github.com/recon-ai/enumd/internal/protocol"
)

const (
	toolPassive  = "passive_subdomain_enum"
	toolActive   = "active_subdomain_enum"
	toolCombined = "combined_subdomain_enum"
)

// Deps contains the required external dependencies for the Enumerator.
type Deps struct {
	// Accessor provides access to MCP server sessions.
	Accessor contracts.MCPSessionAccessor

	// Logger for enumeration operations.
	Logger hclog.Logger
}

// Validate ensures all required dependencies are provided and valid.
func (d Deps) Validate() error {
	if d.Accessor == nil || reflect.ValueOf(d.Accessor).IsNil() {
		return fmt.Errorf("session accessor cannot be nil")
	}
	if d.Logger == nil || reflect.ValueOf(d.Logger).IsNil() {
		return fmt.Errorf("logger cannot be nil")
	}
	return nil
}

// Enumerator fans enumeration tool calls out across MCP servers and
// consolidates the per-server results.
type Enumerator struct {
	accessor contracts.MCPSessionAccessor
	logger   hclog.Logger
}

// NewEnumerator validates deps and returns a configured Enumerator.
func NewEnumerator(deps Deps) (*Enumerator, error) {
	if err := deps.Validate(); err != nil {
		return nil, err
	}

	return &Enumerator{
		accessor: deps.Accessor,
		logger:   deps.Logger.Named("recon"),
	}, nil
}

// Enumerate runs one enumeration request: it resolves the target servers,
// fans the method's tool call out to all of them, and consolidates the
// results. Per-server failures never abort the fan-out; they surface in the
// aggregate's failed partition.
func (e *Enumerator) Enumerate(ctx context.Context, req domain.EnumerationRequest) (domain.AggregateResult, error) {
	if req.Domain == "" {
		return domain.AggregateResult{}, fmt.Errorf("%w: domain is required", errors.ErrBadRequest)
	}
	if !req.Method.Valid() {
		return domain.AggregateResult{}, fmt.Errorf("%w: unknown enumeration method %q", errors.ErrBadRequest, req.Method)
	}

	servers := req.Servers
	if len(servers) == 0 {
		servers = e.accessor.EnabledServers()
	}
	if len(servers) == 0 {
		return domain.AggregateResult{}, fmt.Errorf("%w: no servers available for enumeration", errors.ErrBadRequest)
	}

	tool := toolForMethod(req.Method)
	args := buildArguments(req)

	e.logger.Info(
		"starting enumeration",
		"domain", req.Domain,
		"method", req.Method,
		"tool", tool,
		"servers", len(servers),
	)

	results := e.accessor.CallToolFanOut(ctx, servers, tool, func(string) protocol.Arguments {
		return args
	}, req.Timeout)

	agg := consolidate.Consolidate(req.Domain, string(req.Method), results)

	e.logger.Info(
		"enumeration complete",
		"domain", agg.Domain,
		"method", agg.Method,
		"subdomains", agg.TotalCount,
		"succeeded", len(agg.SucceededServers),
		"failed", len(agg.FailedServers),
	)

	return agg, nil
}

func toolForMethod(method domain.EnumerationMethod) string {
	switch method {
	case domain.EnumerationActive:
		return toolActive
	case domain.EnumerationCombined:
		return toolCombined
	default:
		return toolPassive
	}
}

// buildArguments flattens the request into the tool argument object.
// Optional settings are omitted rather than sent with zero values.
func buildArguments(req domain.EnumerationRequest) protocol.Arguments {
	args := protocol.NewArguments().Set("domain", protocol.String(req.Domain))

	if req.Method != domain.EnumerationActive && len(req.Sources) > 0 {
		args = args.Set("sources", protocol.StringList(req.Sources...))
	}
	if req.Method != domain.EnumerationPassive && req.BruteForce {
		args = args.Set("brute", protocol.Bool(true))
	}
	if req.Timeout > 0 {
		args = args.Set("timeout", protocol.Int(int(req.Timeout.Seconds())))
	}

	return args
}
