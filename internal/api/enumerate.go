package api

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/danielgtaylor/huma/v2"

	"github.com/recon-ai/enumd/internal/contracts"
	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
)

// EnumerateRequest represents the incoming API request for a fan-out subdomain enumeration.
type EnumerateRequest struct {
	Body struct {
		Domain         string   `doc:"Target domain to enumerate"                       example:"example.com" json:"domain"`
		Method         string   `doc:"Enumeration method: passive, active or combined"  example:"passive"     json:"method,omitempty"`
		Servers        []string `doc:"Servers to target, all enabled servers when empty"                      json:"servers,omitempty"`
		Sources        []string `doc:"Passive data sources to restrict to"                                    json:"sources,omitempty"`
		BruteForce     bool     `doc:"Enable brute forcing during active enumeration"                         json:"bruteForce,omitempty"`
		TimeoutSeconds int      `doc:"Per-server call timeout in seconds"                                     json:"timeoutSeconds,omitempty"`
	}
}

// EnumerateResponse represents the wrapped API response for a consolidated enumeration.
type EnumerateResponse struct {
	Body domain.AggregateResult
}

// RegisterEnumerateRoutes sets up the subdomain enumeration API endpoint routes.
func RegisterEnumerateRoutes(routerAPI huma.API, enumerator contracts.SubdomainEnumerator, apiPathPrefix string) {
	enumerateAPI := huma.NewGroup(routerAPI, apiPathPrefix)
	tags := []string{"Enumeration"}

	huma.Register(
		enumerateAPI,
		huma.Operation{
			OperationID: "enumerateSubdomains",
			Method:      http.MethodPost,
			Summary:     "Enumerate subdomains across servers",
			Tags:        tags,
		},
		func(ctx context.Context, input *EnumerateRequest) (*EnumerateResponse, error) {
			return handleEnumerate(ctx, enumerator, input)
		},
	)
}

// handleEnumerate runs one consolidated enumeration across the targeted servers.
// A fan-out where every server failed maps to a gateway error; partial failure
// is reported inside the successful aggregate.
func handleEnumerate(ctx context.Context, enumerator contracts.SubdomainEnumerator, input *EnumerateRequest) (*EnumerateResponse, error) {
	method := domain.EnumerationMethod(strings.TrimSpace(input.Body.Method))
	if method == "" {
		method = domain.EnumerationPassive
	}

	agg, err := enumerator.Enumerate(ctx, domain.EnumerationRequest{
		Domain:     strings.TrimSpace(input.Body.Domain),
		Method:     method,
		Servers:    input.Body.Servers,
		Sources:    input.Body.Sources,
		BruteForce: input.Body.BruteForce,
		Timeout:    time.Duration(input.Body.TimeoutSeconds) * time.Second,
	})
	if err != nil {
		return nil, err
	}

	if !agg.Success {
		return nil, fmt.Errorf("%w: servers: %s", errors.ErrEnumerationFailed, strings.Join(agg.FailedServers, ", "))
	}

	resp := &EnumerateResponse{}
	resp.Body = agg

	return resp, nil
}
