package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestCanTransitionJob(t *testing.T) {
	cases := []struct {
		from    string
		to      string
		allowed bool
	}{
		{JobStatusPending, JobStatusInProgress, true},
		{JobStatusPending, JobStatusCancelled, true},
		{JobStatusPending, JobStatusCompleted, false},
		{JobStatusInProgress, JobStatusCompleted, true},
		{JobStatusInProgress, JobStatusDisputed, true},
		{JobStatusInProgress, JobStatusCancelled, false},
		{JobStatusDisputed, JobStatusCompleted, true},
		{JobStatusDisputed, JobStatusCancelled, true},
		{JobStatusDisputed, JobStatusInProgress, false},
		{JobStatusCompleted, JobStatusPaid, true},
		{JobStatusCompleted, JobStatusCancelled, false},
		{JobStatusPaid, JobStatusCancelled, false},
		{JobStatusCancelled, JobStatusInProgress, false},
		{"unknown", JobStatusInProgress, false},
	}

	for _, tc := range cases {
		got := CanTransitionJob(tc.from, tc.to)
		assert.Equal(t, tc.allowed, got, "%s -> %s", tc.from, tc.to)
	}
}

func TestIsTerminalJobStatus(t *testing.T) {
	assert.True(t, IsTerminalJobStatus(JobStatusPaid))
	assert.True(t, IsTerminalJobStatus(JobStatusCancelled))
	assert.False(t, IsTerminalJobStatus(JobStatusPending))
	assert.False(t, IsTerminalJobStatus(JobStatusInProgress))
	assert.False(t, IsTerminalJobStatus(JobStatusDisputed))
	assert.False(t, IsTerminalJobStatus(JobStatusCompleted))
}

func TestJob_IsParticipant(t *testing.T) {
	customerID := uuid.New()
	providerID := uuid.New()
	job := &Job{CustomerID: customerID, ProviderID: providerID}

	assert.True(t, job.IsParticipant(customerID))
	assert.True(t, job.IsParticipant(providerID))
	assert.False(t, job.IsParticipant(uuid.New()))
}

func TestReputationDelta(t *testing.T) {
	assert.Equal(t, -10, ReputationDelta(1))
	assert.Equal(t, -5, ReputationDelta(2))
	assert.Equal(t, 0, ReputationDelta(3))
	assert.Equal(t, 5, ReputationDelta(4))
	assert.Equal(t, 10, ReputationDelta(5))
}

func TestIsArbiter(t *testing.T) {
	assert.True(t, IsArbiter(RoleAdmin))
	assert.True(t, IsArbiter(RoleModerator))
	assert.False(t, IsArbiter(RoleUser))
	assert.False(t, IsArbiter(""))
}
