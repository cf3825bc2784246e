package daemon

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
)

// HealthTracker records liveness check results for supervised servers.
type HealthTracker struct {
	mu       sync.RWMutex
	statuses map[string]domain.ServerHealth
}

// NewHealthTracker creates a tracker seeded with the given server names,
// each starting out with unknown health.
func NewHealthTracker(serverNames []string) *HealthTracker {
	statuses := make(map[string]domain.ServerHealth, len(serverNames))
	for _, name := range serverNames {
		statuses[name] = domain.ServerHealth{
			Name:   name,
			Status: domain.HealthStatusUnknown,
			State:  domain.SessionStateStopped,
		}
	}
	return &HealthTracker{
		statuses: statuses,
	}
}

// Status returns the health status for a single tracked server.
func (h *HealthTracker) Status(name string) (domain.ServerHealth, error) {
	h.mu.RLock()
	defer h.mu.RUnlock()

	if health, ok := h.statuses[name]; ok {
		return health, nil
	}

	return domain.ServerHealth{}, fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
}

// List returns a copy of all known server health records.
func (h *HealthTracker) List() []domain.ServerHealth {
	h.mu.RLock()
	defer h.mu.RUnlock()

	records := slices.Collect(maps.Values(h.statuses))
	slices.SortFunc(records, func(a, b domain.ServerHealth) int {
		return strings.Compare(a.Name, b.Name)
	})

	return records
}

// Update records a health check for a tracked server.
// The current time is recorded as LastChecked, and LastSuccessful is updated
// only if status is HealthStatusOK.
func (h *HealthTracker) Update(name string, status domain.HealthStatus, state domain.SessionState) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	now := time.Now().UTC()

	prev, exists := h.statuses[name]
	if !exists {
		return fmt.Errorf("%w: %s", errors.ErrHealthNotTracked, name)
	}

	lastSuccessful := prev.LastSuccessful
	if status == domain.HealthStatusOK {
		lastSuccessful = &now
	}

	h.statuses[name] = domain.ServerHealth{
		Name:           name,
		Status:         status,
		State:          state,
		LastChecked:    &now,
		LastSuccessful: lastSuccessful,
	}

	return nil
}
