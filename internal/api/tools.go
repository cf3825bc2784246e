package api

import (
	"encoding/json"

	"github.com/recon-ai/enumd/internal/protocol"
)

// Tool represents the schema information for a tool exposed by an MCP server.
type Tool struct {
	// Name of the tool.
	Name string `doc:"Name of the tool" json:"name"`

	// Description is a human-readable description of the tool.
	Description string `doc:"Description of what the tool does" json:"description,omitempty"`

	// InputSchema is JSONSchema defining the expected parameters for the tool.
	InputSchema json.RawMessage `doc:"Input parameters schema" json:"inputSchema,omitempty"`
}

// ToolsResponse represents the wrapped API response for a tool collection.
type ToolsResponse struct {
	Body struct {
		Tools []Tool `doc:"Tool schemas for the server" json:"tools"`
	}
}

// DomainTool is a wrapper that allows receivers to be declared in the API package that deal with protocol types.
type DomainTool protocol.Tool

// ToAPIType can be used to convert a wrapped protocol type to an API-safe type.
func (d DomainTool) ToAPIType() Tool {
	return Tool{
		Name:        d.Name,
		Description: d.Description,
		InputSchema: d.InputSchema,
	}
}
