package repository

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/shopspring/decimal"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/repository/common"
)

var (
	ErrInsufficientFunds      = errors.New("insufficient funds")
	ErrInsufficientReputation = errors.New("insufficient reputation")
	ErrSelfTransfer           = errors.New("cannot transfer to yourself")
)

// WalletRepository - единственный писатель полей balance и reputation.
// Каждая операция выполняется в одной транзакции: мутация баланса и
// запись журнала фиксируются вместе или не фиксируются вовсе.
type WalletRepository struct {
	db *sqlx.DB
}

// NewWalletRepository создаёт экземпляр репозитория.
func NewWalletRepository(db *sqlx.DB) *WalletRepository {
	return &WalletRepository{db: db}
}

// lockWallet берёт строку пользователя под эксклюзивную блокировку.
// Конкурентные мутации одного кошелька выстраиваются в линию на этой
// блокировке, что даёт линеаризуемость операций для каждого пользователя.
func lockWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID) (*models.WalletInfo, error) {
	var info models.WalletInfo
	query := `SELECT id, balance, reputation FROM users WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &info, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("wallet repository: lock wallet %w", err)
	}
	return &info, nil
}

// creditWallet изменяет баланс уже заблокированной строки.
// amount может быть отрицательным; CHECK (balance >= 0) в схеме служит
// последней линией защиты от ухода в минус.
func creditWallet(ctx context.Context, tx *sqlx.Tx, userID uuid.UUID, amount decimal.Decimal) error {
	query := `UPDATE users SET balance = balance + $2, updated_at = NOW() WHERE id = $1`
	if _, err := tx.ExecContext(ctx, query, userID, amount); err != nil {
		return fmt.Errorf("wallet repository: credit wallet %w", err)
	}
	return nil
}

// appendTransaction добавляет запись в журнал. Журнал append-only:
// записи никогда не обновляются и не удаляются.
func appendTransaction(ctx context.Context, tx *sqlx.Tx, t *models.Transaction) error {
	query := `
		INSERT INTO transactions (user_id, amount, type, description, related_user_id, transfer_id, job_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, created_at
	`
	if err := tx.QueryRowxContext(
		ctx, query,
		t.UserID, t.Amount, t.Type, t.Description, t.RelatedUserID, t.TransferID, t.JobID,
	).Scan(&t.ID, &t.CreatedAt); err != nil {
		return fmt.Errorf("wallet repository: append transaction %w", err)
	}
	return nil
}

// Deposit пополняет баланс пользователя.
func (r *WalletRepository) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	t := &models.Transaction{
		UserID:      userID,
		Amount:      amount,
		Type:        models.TransactionTypeDeposit,
		Description: &description,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockWallet(ctx, tx, userID); err != nil {
			return err
		}
		if err := creditWallet(ctx, tx, userID, amount); err != nil {
			return err
		}
		return appendTransaction(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Withdraw списывает средства с баланса пользователя.
func (r *WalletRepository) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	t := &models.Transaction{
		UserID:      userID,
		Amount:      amount.Neg(),
		Type:        models.TransactionTypeWithdrawal,
		Description: &description,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		info, err := lockWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if info.Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}
		if err := creditWallet(ctx, tx, userID, amount.Neg()); err != nil {
			return err
		}
		return appendTransaction(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// Transfer переводит средства между двумя пользователями и пишет две
// связанные записи журнала: payment у отправителя и earning у получателя,
// с общим transfer_id. Обе строки users блокируются в порядке возрастания
// id, чтобы встречные переводы не взаимоблокировались.
func (r *WalletRepository) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*models.TransferResult, error) {
	if fromID == toID {
		return nil, ErrSelfTransfer
	}

	transferID := uuid.New()
	result := &models.TransferResult{
		SenderTx: models.Transaction{
			UserID:        fromID,
			Amount:        amount.Neg(),
			Type:          models.TransactionTypePayment,
			Description:   &description,
			RelatedUserID: &toID,
			TransferID:    &transferID,
		},
		RecipientTx: models.Transaction{
			UserID:        toID,
			Amount:        amount,
			Type:          models.TransactionTypeEarning,
			Description:   &description,
			RelatedUserID: &fromID,
			TransferID:    &transferID,
		},
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		// Фиксированный глобальный порядок блокировок.
		first, second := fromID, toID
		if bytes.Compare(second[:], first[:]) < 0 {
			first, second = second, first
		}

		wallets := map[uuid.UUID]*models.WalletInfo{}
		for _, id := range []uuid.UUID{first, second} {
			info, err := lockWallet(ctx, tx, id)
			if err != nil {
				return err
			}
			wallets[id] = info
		}

		if wallets[fromID].Balance.LessThan(amount) {
			return ErrInsufficientFunds
		}

		if err := creditWallet(ctx, tx, fromID, amount.Neg()); err != nil {
			return err
		}
		if err := creditWallet(ctx, tx, toID, amount); err != nil {
			return err
		}

		if err := appendTransaction(ctx, tx, &result.SenderTx); err != nil {
			return err
		}
		if err := appendTransaction(ctx, tx, &result.RecipientTx); err != nil {
			return err
		}

		result.SenderBalance = wallets[fromID].Balance.Sub(amount)
		result.RecipientBalance = wallets[toID].Balance.Add(amount)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return result, nil
}

// ConvertReputation конвертирует пункты репутации в кредиты кошелька.
// Списание репутации и зачисление средств фиксируются одной транзакцией
// вместе с записью журнала типа reputation_conversion.
func (r *WalletRepository) ConvertReputation(ctx context.Context, userID uuid.UUID, points int, rate int64) (*models.Transaction, error) {
	credit := decimal.NewFromInt(int64(points) * rate)
	description := fmt.Sprintf("Конвертация %d пунктов репутации", points)
	t := &models.Transaction{
		UserID:      userID,
		Amount:      credit,
		Type:        models.TransactionTypeReputation,
		Description: &description,
	}

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		info, err := lockWallet(ctx, tx, userID)
		if err != nil {
			return err
		}
		if info.Reputation < points {
			return ErrInsufficientReputation
		}

		query := `UPDATE users SET reputation = reputation - $2, balance = balance + $3, updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, query, userID, points, credit); err != nil {
			return fmt.Errorf("wallet repository: convert reputation %w", err)
		}
		return appendTransaction(ctx, tx, t)
	})
	if err != nil {
		return nil, err
	}
	return t, nil
}

// GetWallet возвращает баланс и репутацию пользователя.
func (r *WalletRepository) GetWallet(ctx context.Context, userID uuid.UUID) (*models.WalletInfo, error) {
	var info models.WalletInfo
	query := `SELECT id, balance, reputation FROM users WHERE id = $1`
	if err := r.db.GetContext(ctx, &info, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("wallet repository: get wallet %w", err)
	}
	return &info, nil
}

// ListTransactions возвращает историю транзакций пользователя.
// Непустой txType сужает выборку до одного типа операций.
func (r *WalletRepository) ListTransactions(ctx context.Context, userID uuid.UUID, txType string, limit, offset int) ([]models.Transaction, error) {
	var transactions []models.Transaction
	if txType != "" {
		query := `
			SELECT id, user_id, amount, type, description, related_user_id, transfer_id, job_id, created_at
			FROM transactions WHERE user_id = $1 AND type = $2 ORDER BY created_at DESC LIMIT $3 OFFSET $4
		`
		if err := r.db.SelectContext(ctx, &transactions, query, userID, txType, limit, offset); err != nil {
			return nil, fmt.Errorf("wallet repository: list transactions by type %w", err)
		}
		return transactions, nil
	}

	query := `
		SELECT id, user_id, amount, type, description, related_user_id, transfer_id, job_id, created_at
		FROM transactions WHERE user_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &transactions, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("wallet repository: list transactions %w", err)
	}
	return transactions, nil
}

// ReconcileReport содержит результат сверки баланса с журналом.
type ReconcileReport struct {
	UserID     uuid.UUID       `db:"id" json:"user_id"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	JournalSum decimal.Decimal `db:"journal_sum" json:"journal_sum"`
}

// Consistent сообщает, сходится ли баланс с суммой журнала.
func (r ReconcileReport) Consistent() bool {
	return r.Balance.Equal(r.JournalSum)
}

// Reconcile сверяет баланс пользователя с суммой его журнала.
// Инвариант движка: для каждого пользователя они равны всегда.
func (r *WalletRepository) Reconcile(ctx context.Context, userID uuid.UUID) (*ReconcileReport, error) {
	var report ReconcileReport
	query := `
		SELECT u.id, u.balance, COALESCE(SUM(t.amount), 0) AS journal_sum
		FROM users u
		LEFT JOIN transactions t ON t.user_id = u.id
		WHERE u.id = $1
		GROUP BY u.id, u.balance
	`
	if err := r.db.GetContext(ctx, &report, query, userID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("wallet repository: reconcile %w", err)
	}
	return &report, nil
}
