package domain

import "time"

const (
	// EnumerationPassive queries passive data sources only.
	EnumerationPassive EnumerationMethod = "passive"

	// EnumerationActive probes the target directly, optionally brute forcing.
	EnumerationActive EnumerationMethod = "active"

	// EnumerationCombined runs passive and active enumeration in one call.
	EnumerationCombined EnumerationMethod = "combined"
)

// EnumerationMethod selects the subdomain enumeration strategy.
type EnumerationMethod string

// Valid reports whether m is a known enumeration method.
func (m EnumerationMethod) Valid() bool {
	switch m {
	case EnumerationPassive, EnumerationActive, EnumerationCombined:
		return true
	default:
		return false
	}
}

// EnumerationRequest describes one fan-out subdomain enumeration.
type EnumerationRequest struct {
	// Domain is the target domain to enumerate.
	Domain string `json:"domain"`

	// Method selects the enumeration strategy.
	Method EnumerationMethod `json:"method"`

	// Servers restricts the fan-out to the named servers.
	// Empty means every enabled server.
	Servers []string `json:"servers,omitempty"`

	// Sources restricts passive enumeration to the named data sources.
	Sources []string `json:"sources,omitempty"`

	// BruteForce enables brute forcing during active enumeration.
	BruteForce bool `json:"bruteForce,omitempty"`

	// Timeout bounds each per-server tool call. Zero means the default.
	Timeout time.Duration `json:"-"`
}
