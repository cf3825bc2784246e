package daemon

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/recon-ai/enumd/internal/domain"
	"github.com/recon-ai/enumd/internal/errors"
)

func TestNewHealthTracker_SeedsUnknown(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker([]string{"subfinder", "amass"})

	health, err := tracker.Status("subfinder")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusUnknown, health.Status)
	assert.Equal(t, domain.SessionStateStopped, health.State)
	assert.Nil(t, health.LastChecked)
	assert.Nil(t, health.LastSuccessful)
}

func TestHealthTracker_StatusUntracked(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker([]string{"subfinder"})

	_, err := tracker.Status("missing")
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
	require.ErrorContains(t, err, "missing")
}

func TestHealthTracker_UpdateRecordsSuccess(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker([]string{"subfinder"})

	require.NoError(t, tracker.Update("subfinder", domain.HealthStatusOK, domain.SessionStateRunning))

	health, err := tracker.Status("subfinder")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusOK, health.Status)
	assert.Equal(t, domain.SessionStateRunning, health.State)
	require.NotNil(t, health.LastChecked)
	require.NotNil(t, health.LastSuccessful)
	assert.Equal(t, *health.LastChecked, *health.LastSuccessful)
}

func TestHealthTracker_UpdateKeepsLastSuccessful(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker([]string{"subfinder"})

	require.NoError(t, tracker.Update("subfinder", domain.HealthStatusOK, domain.SessionStateRunning))
	healthy, err := tracker.Status("subfinder")
	require.NoError(t, err)
	require.NotNil(t, healthy.LastSuccessful)

	require.NoError(t, tracker.Update("subfinder", domain.HealthStatusUnreachable, domain.SessionStateFailed))

	health, err := tracker.Status("subfinder")
	require.NoError(t, err)
	assert.Equal(t, domain.HealthStatusUnreachable, health.Status)
	assert.Equal(t, domain.SessionStateFailed, health.State)
	require.NotNil(t, health.LastSuccessful)
	assert.Equal(t, *healthy.LastSuccessful, *health.LastSuccessful)
}

func TestHealthTracker_UpdateUntracked(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker(nil)

	err := tracker.Update("ghost", domain.HealthStatusOK, domain.SessionStateRunning)
	require.ErrorIs(t, err, errors.ErrHealthNotTracked)
}

func TestHealthTracker_ListSortedByName(t *testing.T) {
	t.Parallel()

	tracker := NewHealthTracker([]string{"zmap", "amass", "subfinder"})

	records := tracker.List()
	require.Len(t, records, 3)
	assert.Equal(t, "amass", records[0].Name)
	assert.Equal(t, "subfinder", records[1].Name)
	assert.Equal(t, "zmap", records[2].Name)
}

func TestHealthStatusFor(t *testing.T) {
	t.Parallel()

	tests := []struct {
		state domain.SessionState
		want  domain.HealthStatus
	}{
		{state: domain.SessionStateRunning, want: domain.HealthStatusOK},
		{state: domain.SessionStateFailed, want: domain.HealthStatusUnreachable},
		{state: domain.SessionStateStopped, want: domain.HealthStatusUnknown},
		{state: domain.SessionStateStarting, want: domain.HealthStatusUnknown},
		{state: domain.SessionStateStopping, want: domain.HealthStatusUnknown},
	}

	for _, tc := range tests {
		t.Run(string(tc.state), func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, healthStatusFor(tc.state))
		})
	}
}
