package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Типы транзакций
const (
	TransactionTypeDeposit       = "deposit"
	TransactionTypeWithdrawal    = "withdrawal"
	TransactionTypePayment       = "payment"
	TransactionTypeEarning       = "earning"
	TransactionTypeEscrowHold    = "escrow_hold"
	TransactionTypeEscrowRelease = "escrow_release"
	TransactionTypeRefund        = "refund"
	TransactionTypeReputation    = "reputation_conversion"
)

// ValidTransactionTypes список валидных типов транзакций
var ValidTransactionTypes = map[string]struct{}{
	TransactionTypeDeposit:       {},
	TransactionTypeWithdrawal:    {},
	TransactionTypePayment:       {},
	TransactionTypeEarning:       {},
	TransactionTypeEscrowHold:    {},
	TransactionTypeEscrowRelease: {},
	TransactionTypeRefund:        {},
	TransactionTypeReputation:    {},
}

// Transaction представляет одну запись журнала кошелька.
// Записи неизменяемы: журнал append-only, баланс пользователя всегда
// равен сумме amount его записей.
type Transaction struct {
	ID            uuid.UUID       `db:"id" json:"id"`
	UserID        uuid.UUID       `db:"user_id" json:"user_id"`
	Amount        decimal.Decimal `db:"amount" json:"amount"`
	Type          string          `db:"type" json:"type"`
	Description   *string         `db:"description" json:"description,omitempty"`
	RelatedUserID *uuid.UUID      `db:"related_user_id" json:"related_user_id,omitempty"`
	TransferID    *uuid.UUID      `db:"transfer_id" json:"transfer_id,omitempty"`
	JobID         *uuid.UUID      `db:"job_id" json:"job_id,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// TransferResult содержит обе записи перевода и итоговые балансы сторон.
type TransferResult struct {
	SenderTx         Transaction     `json:"sender_tx"`
	RecipientTx      Transaction     `json:"recipient_tx"`
	SenderBalance    decimal.Decimal `json:"sender_balance"`
	RecipientBalance decimal.Decimal `json:"recipient_balance"`
}
