// Package consolidate merges heterogeneous per-server fan-out results into a
// single deduplicated aggregate.
package consolidate

import (
	"encoding/json"
	"sort"
	"time"

	"github.com/recon-ai/enumd/internal/domain"
)

// subdomainPayload matches the recognized string-set result payloads.
type subdomainPayload struct {
	Subdomains         []string `json:"subdomains"`
	CombinedSubdomains []string `json:"combined_subdomains"`
}

// Consolidate turns the raw results of one fan-out call into an
// AggregateResult. The union of discovered names is deduplicated by exact,
// case-sensitive match and sorted for determinism. Servers with a failed,
// missing or malformed payload are partitioned into FailedServers; the raw
// results are retained unmodified for diagnostics.
//
// The aggregate Success is true iff at least one server returned usable data:
// total failure requires every server to fail.
func Consolidate(targetDomain, method string, results []domain.ToolCallResult) domain.AggregateResult {
	names := make(map[string]struct{})
	var succeeded, failed []string

	for _, result := range results {
		payload, ok := parsePayload(result)
		if !ok {
			failed = append(failed, result.ServerName)
			continue
		}

		succeeded = append(succeeded, result.ServerName)
		for _, sub := range payload.Subdomains {
			names[sub] = struct{}{}
		}
		for _, sub := range payload.CombinedSubdomains {
			names[sub] = struct{}{}
		}
	}

	subdomains := make([]string, 0, len(names))
	for sub := range names {
		subdomains = append(subdomains, sub)
	}
	sort.Strings(subdomains)

	return domain.AggregateResult{
		Domain:           targetDomain,
		Method:           method,
		Success:          len(succeeded) > 0,
		Subdomains:       subdomains,
		TotalCount:       len(subdomains),
		SucceededServers: succeeded,
		FailedServers:    failed,
		ServerResults:    results,
		Timestamp:        time.Now().UTC(),
	}
}

func parsePayload(result domain.ToolCallResult) (subdomainPayload, bool) {
	if !result.Success || len(result.Data) == 0 {
		return subdomainPayload{}, false
	}

	var payload subdomainPayload
	if err := json.Unmarshal(result.Data, &payload); err != nil {
		return subdomainPayload{}, false
	}

	return payload, true
}
