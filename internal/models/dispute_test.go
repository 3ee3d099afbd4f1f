package models

import (
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func TestDispute_IsOpen(t *testing.T) {
	cases := []struct {
		status string
		open   bool
	}{
		{DisputeStatusOpen, true},
		{DisputeStatusUnderReview, true},
		{DisputeStatusResolved, false},
		{DisputeStatusRejected, false},
	}

	for _, tc := range cases {
		d := Dispute{Status: tc.status}
		assert.Equal(t, tc.open, d.IsOpen(), "статус %s", tc.status)
	}
}

func TestClosedDisputeStatus(t *testing.T) {
	customerID := uuid.New()
	providerID := uuid.New()

	cases := []struct {
		name        string
		initiatorID uuid.UUID
		outcome     string
		want        string
	}{
		{"заказчик добился возврата", customerID, DisputeOutcomeRefund, DisputeStatusResolved},
		{"заказчику отказано, выплата исполнителю", customerID, DisputeOutcomeRelease, DisputeStatusRejected},
		{"исполнитель добился выплаты", providerID, DisputeOutcomeRelease, DisputeStatusResolved},
		{"исполнителю отказано, возврат заказчику", providerID, DisputeOutcomeRefund, DisputeStatusRejected},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			assert.Equal(t, tc.want, ClosedDisputeStatus(tc.initiatorID, customerID, tc.outcome))
		})
	}
}
