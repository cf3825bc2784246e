// Package protocol defines the line-delimited JSON wire format spoken to MCP
// tool servers over stdio: one request or response per newline-terminated
// UTF-8 line, correlated by an integer id.
package protocol

import (
	"encoding/json"
	"errors"
	"fmt"
)

const (
	// MethodInitialize is the capability-negotiation handshake.
	// It must complete before any other request on a session.
	MethodInitialize = "initialize"

	// MethodListTools requests the server's tool descriptors.
	MethodListTools = "tools/list"

	// MethodCallTool invokes a named tool with arguments.
	MethodCallTool = "tools/call"
)

var (
	// ErrHandshakeFailed indicates the initialize exchange was missing or malformed.
	ErrHandshakeFailed = errors.New("handshake failed")

	// ErrMalformedResponse indicates a response payload did not have the expected shape.
	ErrMalformedResponse = errors.New("malformed response")

	// ErrTimeout indicates a call was abandoned because no matching response
	// arrived in time. The session remains usable.
	ErrTimeout = errors.New("call timed out")

	// ErrProcessDied indicates the server process exited while a call was pending.
	ErrProcessDied = errors.New("server process died")
)

// Request is a single request line.
type Request struct {
	ID     int64           `json:"id"`
	Method string          `json:"method"`
	Params json.RawMessage `json:"params,omitempty"`
}

// Response is a single response line. Exactly one of Result or Error is set.
type Response struct {
	ID     int64           `json:"id"`
	Result json.RawMessage `json:"result,omitempty"`
	Error  *ResponseError  `json:"error,omitempty"`
}

// ResponseError carries the failure message for an errored request.
type ResponseError struct {
	Message string `json:"message"`
}

// IsError reports whether the response carries an error instead of a result.
func (r *Response) IsError() bool {
	return r.Error != nil
}

// CallParams are the params of a tools/call request.
type CallParams struct {
	Name      string    `json:"name"`
	Arguments Arguments `json:"arguments"`
}

// Tool describes one operation exposed by an MCP server.
// The input schema is treated as an opaque JSON Schema document.
type Tool struct {
	Name        string          `json:"name"`
	Description string          `json:"description,omitempty"`
	InputSchema json.RawMessage `json:"inputSchema,omitempty"`
}

// ListToolsResult is the result payload of a tools/list response.
type ListToolsResult struct {
	Tools []Tool `json:"tools"`
}

// NewRequest builds a request with marshaled params.
func NewRequest(id int64, method string, params any) (Request, error) {
	req := Request{ID: id, Method: method}
	if params != nil {
		raw, err := json.Marshal(params)
		if err != nil {
			return Request{}, fmt.Errorf("failed to marshal params for %s: %w", method, err)
		}
		req.Params = raw
	}
	return req, nil
}

// EncodeLine marshals v as a single newline-terminated line.
func EncodeLine(v any) ([]byte, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return append(data, '\n'), nil
}

// DecodeResponse parses one response line.
// Responses without a positive id cannot be correlated and are rejected.
func DecodeResponse(line []byte) (*Response, error) {
	var resp Response
	if err := json.Unmarshal(line, &resp); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if resp.ID <= 0 {
		return nil, fmt.Errorf("%w: missing response id", ErrMalformedResponse)
	}
	return &resp, nil
}

// ParseListToolsResult extracts the tool descriptors from a tools/list result payload.
func ParseListToolsResult(raw json.RawMessage) ([]Tool, error) {
	if len(raw) == 0 {
		return nil, fmt.Errorf("%w: empty tools/list result", ErrMalformedResponse)
	}

	var result ListToolsResult
	if err := json.Unmarshal(raw, &result); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrMalformedResponse, err)
	}
	if result.Tools == nil {
		return nil, fmt.Errorf("%w: tools/list result missing 'tools' array", ErrMalformedResponse)
	}

	return result.Tools, nil
}
