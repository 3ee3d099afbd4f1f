package repository

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/repository/common"
)

// EscrowRepository выполняет денежные переходы жизненного цикла работы.
// Каждая операция - одна транзакция БД: смена статуса работы, мутация
// баланса и запись журнала фиксируются все вместе, поэтому состояние
// "completed, но не оплачено" снаружи транзакции не наблюдаемо.
type EscrowRepository struct {
	db *sqlx.DB
}

// NewEscrowRepository создаёт экземпляр репозитория.
func NewEscrowRepository(db *sqlx.DB) *EscrowRepository {
	return &EscrowRepository{db: db}
}

// Hire списывает цену услуги с заказчика (эскроу-холд) и создаёт работу
// сразу в статусе in_progress. При нехватке средств не создаётся ничего.
func (r *EscrowRepository) Hire(ctx context.Context, customerID uuid.UUID, svc *models.Service) (*models.Job, error) {
	var job models.Job

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		wallet, err := lockWallet(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if wallet.Balance.LessThan(svc.Price) {
			return ErrInsufficientFunds
		}

		if err := creditWallet(ctx, tx, customerID, svc.Price.Neg()); err != nil {
			return err
		}

		query := `
			INSERT INTO jobs (customer_id, provider_id, service_id, agreed_price, status, started_at)
			VALUES ($1, $2, $3, $4, $5, NOW())
			RETURNING ` + jobColumns
		if err := tx.GetContext(ctx, &job, query,
			customerID, svc.ProviderID, svc.ID, svc.Price, models.JobStatusInProgress); err != nil {
			return fmt.Errorf("escrow repository: create job %w", err)
		}

		description := fmt.Sprintf("Заморозка средств за услугу %q", svc.Name)
		return appendTransaction(ctx, tx, &models.Transaction{
			UserID:        customerID,
			Amount:        svc.Price.Neg(),
			Type:          models.TransactionTypeEscrowHold,
			Description:   &description,
			RelatedUserID: &svc.ProviderID,
			JobID:         &job.ID,
		})
	})
	if err != nil {
		return nil, err
	}
	return &job, nil
}

// Complete завершает работу из in_progress: переводит её в completed,
// зачисляет исполнителю удержанную сумму и помечает работу оплаченной.
// При открытом споре завершение блокируется.
func (r *EscrowRepository) Complete(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	var job *models.Job

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobID)
		if err != nil {
			return err
		}

		open, err := hasOpenDispute(ctx, tx, jobID)
		if err != nil {
			return err
		}
		if open {
			return ErrOpenDisputeExists
		}

		return settleJob(ctx, tx, job, models.JobStatusInProgress)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// ReleaseDisputed завершает работу из статуса disputed по решению арбитра.
func (r *EscrowRepository) ReleaseDisputed(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	var job *models.Job

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		return settleJob(ctx, tx, job, models.JobStatusDisputed)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// RefundDisputed отменяет работу из статуса disputed и возвращает
// удержанные средства заказчику.
func (r *EscrowRepository) RefundDisputed(ctx context.Context, jobID uuid.UUID) (*models.Job, error) {
	var job *models.Job

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		job, err = lockJob(ctx, tx, jobID)
		if err != nil {
			return err
		}
		return refundJob(ctx, tx, job, models.JobStatusDisputed)
	})
	if err != nil {
		return nil, err
	}
	return job, nil
}

// settleJob выполняет цепочку from -> completed -> paid над уже
// заблокированной работой: зачисляет исполнителю agreed_price и ставит
// is_paid. Вызывается внутри внешней транзакции.
func settleJob(ctx context.Context, tx *sqlx.Tx, job *models.Job, from string) error {
	if err := transitionJob(ctx, tx, job.ID, from, models.JobStatusCompleted); err != nil {
		return err
	}

	if _, err := lockWallet(ctx, tx, job.ProviderID); err != nil {
		return err
	}
	if err := creditWallet(ctx, tx, job.ProviderID, job.AgreedPrice); err != nil {
		return err
	}

	description := "Оплата за выполненную работу"
	if err := appendTransaction(ctx, tx, &models.Transaction{
		UserID:        job.ProviderID,
		Amount:        job.AgreedPrice,
		Type:          models.TransactionTypeEscrowRelease,
		Description:   &description,
		RelatedUserID: &job.CustomerID,
		JobID:         &job.ID,
	}); err != nil {
		return err
	}

	// Тот же test-and-set, но с установкой is_paid одним UPDATE.
	query := `
		UPDATE jobs SET status = $1, is_paid = TRUE, paid_at = NOW(), updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + jobColumns
	if err := tx.GetContext(ctx, job, query, models.JobStatusPaid, job.ID, models.JobStatusCompleted); err != nil {
		return fmt.Errorf("escrow repository: settle job %w", err)
	}
	return nil
}

// refundJob выполняет переход from -> cancelled над уже заблокированной
// работой и возвращает удержанную сумму заказчику.
func refundJob(ctx context.Context, tx *sqlx.Tx, job *models.Job, from string) error {
	if err := transitionJob(ctx, tx, job.ID, from, models.JobStatusCancelled); err != nil {
		return err
	}

	if _, err := lockWallet(ctx, tx, job.CustomerID); err != nil {
		return err
	}
	if err := creditWallet(ctx, tx, job.CustomerID, job.AgreedPrice); err != nil {
		return err
	}

	description := "Возврат средств за отменённую работу"
	if err := appendTransaction(ctx, tx, &models.Transaction{
		UserID:        job.CustomerID,
		Amount:        job.AgreedPrice,
		Type:          models.TransactionTypeRefund,
		Description:   &description,
		RelatedUserID: &job.ProviderID,
		JobID:         &job.ID,
	}); err != nil {
		return err
	}

	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1`
	if err := tx.GetContext(ctx, job, query, job.ID); err != nil {
		return fmt.Errorf("escrow repository: refund job reload %w", err)
	}
	return nil
}

// hasOpenDispute проверяет наличие незакрытого спора по работе.
func hasOpenDispute(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID) (bool, error) {
	var exists bool
	query := `
		SELECT EXISTS (
			SELECT 1 FROM disputes
			WHERE job_id = $1 AND status IN ($2, $3)
		)
	`
	if err := tx.GetContext(ctx, &exists, query, jobID, models.DisputeStatusOpen, models.DisputeStatusUnderReview); err != nil {
		return false, fmt.Errorf("escrow repository: check open dispute %w", err)
	}
	return exists, nil
}
