package api

import (
	"context"
	"fmt"
	"net/http"
	"slices"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recon-ai/enumd/internal/contracts"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
	"github.com/recon-ai/enumd/internal/protocol"
)

// ServersResponse represents the wrapped API response for a list of servers.
type ServersResponse struct {
	Body []string
}

// ServerStatusesResponse represents the wrapped API response for all session states.
type ServerStatusesResponse struct {
	Body struct {
		Servers map[string]string `doc:"Session state per registered server" json:"servers"`
	}
}

// ServerToolsRequest represents the incoming API request for the tool schemas of a server.
type ServerToolsRequest struct {
	Name string `doc:"Name of the server to lookup tools for" example:"subfinder" path:"name"`
}

// ServerToolCallRequest represents the incoming API request to call a tool on a particular server.
type ServerToolCallRequest struct {
	Server  string `doc:"Name of the server"       example:"subfinder"              path:"server"`
	Tool    string `doc:"Name of the tool to call" example:"passive_subdomain_enum" path:"tool"`
	RawBody []byte `doc:"Tool arguments as a JSON object"`
}

// ToolCallResponse represents the wrapped API response for calling a tool.
type ToolCallResponse struct {
	Body domain.ToolCallResult
}

// RegisterServerRoutes sets up server-related API endpoint routes.
func RegisterServerRoutes(routerAPI huma.API, accessor contracts.MCPSessionAccessor, apiPathPrefix string) {
	serversAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Servers"}

	// Add route at the root of the group (no path specified).
	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServers",
			Method:      http.MethodGet,
			Summary:     "List all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServersResponse, error) {
			return handleServers(accessor)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listServerStatuses",
			Method:      http.MethodGet,
			Path:        "/status",
			Summary:     "List the session states for all servers",
			Tags:        tags,
		},
		func(ctx context.Context, _ *struct{}) (*ServerStatusesResponse, error) {
			return handleServerStatuses(accessor)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "listTools",
			Method:      http.MethodGet,
			Path:        "/{name}/tools",
			Summary:     "List server tools",
			Tags:        append(tags, "Tools"),
		},
		func(ctx context.Context, input *ServerToolsRequest) (*ToolsResponse, error) {
			return handleServerTools(accessor, input.Name)
		},
	)

	huma.Register(
		serversAPI,
		huma.Operation{
			OperationID: "callTool",
			Method:      http.MethodPost,
			Path:        "/{server}/tools/{tool}",
			Summary:     "Call a tool for a server",
			Tags:        append(tags, "Tools"),
		},
		func(ctx context.Context, input *ServerToolCallRequest) (*ToolCallResponse, error) {
			return handleServerToolCall(ctx, accessor, input.Server, input.Tool, input.RawBody)
		},
	)
}

// handleServers returns the list of configured MCP servers.
func handleServers(accessor contracts.MCPSessionAccessor) (*ServersResponse, error) {
	servers := accessor.List()
	slices.Sort(servers)

	resp := &ServersResponse{}
	resp.Body = servers

	return resp, nil
}

// handleServerStatuses returns the session state for every registered server.
func handleServerStatuses(accessor contracts.MCPSessionAccessor) (*ServerStatusesResponse, error) {
	states := accessor.StatusOfAll()

	servers := make(map[string]string, len(states))
	for name, state := range states {
		servers[name] = string(state)
	}

	resp := &ServerStatusesResponse{}
	resp.Body.Servers = servers

	return resp, nil
}

// handleServerTools returns the cached tool schemas for a given server.
func handleServerTools(accessor contracts.MCPSessionAccessor, name string) (*ToolsResponse, error) {
	tools, err := accessor.Tools(name)
	if err != nil {
		return nil, err
	}
	if len(tools) == 0 {
		return nil, fmt.Errorf("%w: %s", errors.ErrToolsNotFound, name)
	}

	apiTools := make([]Tool, 0, len(tools))
	for _, tool := range tools {
		apiTools = append(apiTools, DomainTool(tool).ToAPIType())
	}

	resp := &ToolsResponse{}
	resp.Body.Tools = apiTools

	return resp, nil
}

// handleServerToolCall handles making a call to a specific tool which exists on an MCP server.
func handleServerToolCall(
	ctx context.Context,
	accessor contracts.MCPSessionAccessor,
	server string,
	tool string,
	rawArgs []byte,
) (*ToolCallResponse, error) {
	// Resolving the tools first surfaces unknown or disabled servers as
	// their mapped errors instead of a generic call failure.
	if _, err := accessor.Tools(server); err != nil {
		return nil, err
	}

	var args protocol.Arguments
	if len(rawArgs) > 0 {
		if err := args.UnmarshalJSON(rawArgs); err != nil {
			return nil, fmt.Errorf("%w: invalid tool arguments: %w", errors.ErrBadRequest, err)
		}
	}

	result := accessor.CallTool(ctx, server, tool, args, 0)
	if !result.Success {
		return nil, fmt.Errorf("%w: %s/%s: %s", errors.ErrToolCallFailed, server, tool, result.Error)
	}

	resp := &ToolCallResponse{}
	resp.Body = result

	return resp, nil
}
