package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Статусы работы
const (
	JobStatusPending    = "pending"
	JobStatusInProgress = "in_progress"
	JobStatusDisputed   = "disputed"
	JobStatusCompleted  = "completed"
	JobStatusPaid       = "paid"
	JobStatusCancelled  = "cancelled"
)

// ValidJobStatuses список валидных статусов работы
var ValidJobStatuses = map[string]struct{}{
	JobStatusPending:    {},
	JobStatusInProgress: {},
	JobStatusDisputed:   {},
	JobStatusCompleted:  {},
	JobStatusPaid:       {},
	JobStatusCancelled:  {},
}

// jobTransitions описывает допустимые переходы статусов.
// paid и cancelled — терминальные. Любой другой переход отклоняется,
// а сам переход применяется по правилу test-and-set: UPDATE с условием
// на текущий статус, чтобы два конкурентных вызова не прошли оба.
var jobTransitions = map[string][]string{
	JobStatusPending:    {JobStatusInProgress, JobStatusCancelled},
	JobStatusInProgress: {JobStatusCompleted, JobStatusDisputed},
	JobStatusDisputed:   {JobStatusCompleted, JobStatusCancelled},
	JobStatusCompleted:  {JobStatusPaid},
}

// CanTransitionJob сообщает, разрешён ли переход работы из from в to.
func CanTransitionJob(from, to string) bool {
	for _, next := range jobTransitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminalJobStatus сообщает, является ли статус терминальным.
func IsTerminalJobStatus(status string) bool {
	return status == JobStatusPaid || status == JobStatusCancelled
}

// Job описывает контракт между заказчиком и исполнителем.
// Одна работа управляет ровно одним эскроу-холдом; после движения денег
// запись никогда не удаляется.
type Job struct {
	ID          uuid.UUID       `db:"id" json:"id"`
	CustomerID  uuid.UUID       `db:"customer_id" json:"customer_id"`
	ProviderID  uuid.UUID       `db:"provider_id" json:"provider_id"`
	ServiceID   *uuid.UUID      `db:"service_id" json:"service_id,omitempty"`
	AgreedPrice decimal.Decimal `db:"agreed_price" json:"agreed_price"`
	Status      string          `db:"status" json:"status"`
	IsPaid      bool            `db:"is_paid" json:"is_paid"`
	CreatedAt   time.Time       `db:"created_at" json:"created_at"`
	StartedAt   *time.Time      `db:"started_at" json:"started_at,omitempty"`
	DisputedAt  *time.Time      `db:"disputed_at" json:"disputed_at,omitempty"`
	CompletedAt *time.Time      `db:"completed_at" json:"completed_at,omitempty"`
	PaidAt      *time.Time      `db:"paid_at" json:"paid_at,omitempty"`
	CancelledAt *time.Time      `db:"cancelled_at" json:"cancelled_at,omitempty"`
	UpdatedAt   time.Time       `db:"updated_at" json:"updated_at"`
}

// IsParticipant сообщает, является ли пользователь стороной контракта.
func (j *Job) IsParticipant(userID uuid.UUID) bool {
	return j.CustomerID == userID || j.ProviderID == userID
}

// JobMessage описывает сообщение в чате конкретной работы.
type JobMessage struct {
	ID        uuid.UUID `db:"id" json:"id"`
	JobID     uuid.UUID `db:"job_id" json:"job_id"`
	SenderID  uuid.UUID `db:"sender_id" json:"sender_id"`
	Message   string    `db:"message" json:"message"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}
