package models

import (
	"time"

	"github.com/google/uuid"
)

// Статусы спора
const (
	DisputeStatusOpen        = "open"
	DisputeStatusUnderReview = "under_review"
	DisputeStatusResolved    = "resolved"
	DisputeStatusRejected    = "rejected"
)

// Исходы разрешения спора
const (
	DisputeOutcomeRelease = "release"
	DisputeOutcomeRefund  = "refund"
)

// Dispute описывает спор по работе. На работу допускается не более
// одного незакрытого спора; закрыть спор может только арбитр.
type Dispute struct {
	ID          uuid.UUID  `db:"id" json:"id"`
	JobID       uuid.UUID  `db:"job_id" json:"job_id"`
	InitiatorID uuid.UUID  `db:"initiator_id" json:"initiator_id"`
	Reason      string     `db:"reason" json:"reason"`
	Status      string     `db:"status" json:"status"`
	Resolution  *string    `db:"resolution" json:"resolution,omitempty"`
	ResolvedBy  *uuid.UUID `db:"resolved_by" json:"resolved_by,omitempty"`
	CreatedAt   time.Time  `db:"created_at" json:"created_at"`
	ResolvedAt  *time.Time `db:"resolved_at" json:"resolved_at,omitempty"`
}

// IsOpen сообщает, ожидает ли спор решения.
func (d *Dispute) IsOpen() bool {
	return d.Status == DisputeStatusOpen || d.Status == DisputeStatusUnderReview
}

// ClosedDisputeStatus возвращает итоговый статус закрытого спора.
// Заказчик добивается возврата средств, исполнитель - выплаты: если
// арбитр удовлетворил требование инициатора, спор resolved, если
// встал на сторону второго участника - rejected.
func ClosedDisputeStatus(initiatorID, customerID uuid.UUID, outcome string) string {
	initiatorWantsRefund := initiatorID == customerID
	if (initiatorWantsRefund && outcome == DisputeOutcomeRefund) ||
		(!initiatorWantsRefund && outcome == DisputeOutcomeRelease) {
		return DisputeStatusResolved
	}
	return DisputeStatusRejected
}
