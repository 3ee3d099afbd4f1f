package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/repository/common"
)

var (
	ErrDisputeNotFound        = errors.New("dispute not found")
	ErrOpenDisputeExists      = errors.New("open dispute already exists for this job")
	ErrDisputeAlreadyResolved = errors.New("dispute is already resolved")
)

const disputeColumns = `id, job_id, initiator_id, reason, status, resolution, resolved_by, created_at, resolved_at`

// DisputeRepository отвечает за споры по работам.
// Создание спора и перевод работы в disputed фиксируются одной
// транзакцией: замороженные средства блокируются от выплаты атомарно.
type DisputeRepository struct {
	db *sqlx.DB
}

// NewDisputeRepository создаёт экземпляр репозитория.
func NewDisputeRepository(db *sqlx.DB) *DisputeRepository {
	return &DisputeRepository{db: db}
}

// Create открывает спор и переводит работу in_progress -> disputed.
// Частичный уникальный индекс по незакрытым спорам гарантирует не более
// одного открытого спора на работу даже при гонке двух участников.
func (r *DisputeRepository) Create(ctx context.Context, d *models.Dispute) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := lockJob(ctx, tx, d.JobID); err != nil {
			return err
		}

		query := `
			INSERT INTO disputes (job_id, initiator_id, reason, status)
			VALUES ($1, $2, $3, $4)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, query, d.JobID, d.InitiatorID, d.Reason, models.DisputeStatusOpen).
			Scan(&d.ID, &d.CreatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrOpenDisputeExists
			}
			return fmt.Errorf("dispute repository: create %w", err)
		}
		d.Status = models.DisputeStatusOpen

		return transitionJob(ctx, tx, d.JobID, models.JobStatusInProgress, models.JobStatusDisputed)
	})
}

// GetByID возвращает спор по идентификатору.
func (r *DisputeRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	return common.GetByID[models.Dispute](ctx, r.db, "disputes", id, ErrDisputeNotFound)
}

// GetOpenByJobID возвращает незакрытый спор по работе, если он есть.
func (r *DisputeRepository) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	var d models.Dispute
	query := `
		SELECT ` + disputeColumns + ` FROM disputes
		WHERE job_id = $1 AND status IN ($2, $3)
	`
	if err := r.db.GetContext(ctx, &d, query, jobID, models.DisputeStatusOpen, models.DisputeStatusUnderReview); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrDisputeNotFound
		}
		return nil, fmt.Errorf("dispute repository: get open by job %w", err)
	}
	return &d, nil
}

// ListByUser возвращает споры, где пользователь инициатор или сторона работы.
func (r *DisputeRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `
		SELECT d.id, d.job_id, d.initiator_id, d.reason, d.status, d.resolution, d.resolved_by, d.created_at, d.resolved_at
		FROM disputes d
		JOIN jobs j ON j.id = d.job_id
		WHERE d.initiator_id = $1 OR j.customer_id = $1 OR j.provider_id = $1
		ORDER BY d.created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &disputes, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list by user %w", err)
	}
	return disputes, nil
}

// ListOpen возвращает незакрытые споры для арбитража.
func (r *DisputeRepository) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	var disputes []models.Dispute
	query := `
		SELECT ` + disputeColumns + ` FROM disputes
		WHERE status IN ($1, $2)
		ORDER BY created_at ASC LIMIT $3 OFFSET $4
	`
	if err := r.db.SelectContext(ctx, &disputes, query, models.DisputeStatusOpen, models.DisputeStatusUnderReview, limit, offset); err != nil {
		return nil, fmt.Errorf("dispute repository: list open %w", err)
	}
	return disputes, nil
}

// Resolve закрывает спор и применяет исход: release выплачивает
// исполнителю, refund возвращает средства заказчику. Обновление спора,
// переход работы и движение денег - одна транзакция. Итоговый статус
// спора отражает судьбу требования инициатора: resolved, если арбитр
// встал на его сторону, rejected - если на сторону второго участника.
func (r *DisputeRepository) Resolve(ctx context.Context, disputeID, resolverID uuid.UUID, outcome, notes string) (*models.Dispute, *models.Job, error) {
	var (
		d   models.Dispute
		job *models.Job
	)

	err := common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `SELECT ` + disputeColumns + ` FROM disputes WHERE id = $1 FOR UPDATE`
		if err := tx.GetContext(ctx, &d, query, disputeID); err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrDisputeNotFound
			}
			return fmt.Errorf("dispute repository: lock dispute %w", err)
		}
		if !d.IsOpen() {
			return ErrDisputeAlreadyResolved
		}

		var err error
		job, err = lockJob(ctx, tx, d.JobID)
		if err != nil {
			return err
		}

		closed := models.ClosedDisputeStatus(d.InitiatorID, job.CustomerID, outcome)
		update := `
			UPDATE disputes SET status = $2, resolution = $3, resolved_by = $4, resolved_at = NOW()
			WHERE id = $1
			RETURNING ` + disputeColumns
		if err := tx.GetContext(ctx, &d, update, disputeID, closed, notes, resolverID); err != nil {
			return fmt.Errorf("dispute repository: resolve %w", err)
		}

		switch outcome {
		case models.DisputeOutcomeRelease:
			return settleJob(ctx, tx, job, models.JobStatusDisputed)
		case models.DisputeOutcomeRefund:
			return refundJob(ctx, tx, job, models.JobStatusDisputed)
		default:
			return fmt.Errorf("dispute repository: unknown outcome %q: %w", outcome, common.ErrInvalidInput)
		}
	})
	if err != nil {
		return nil, nil, err
	}
	return &d, job, nil
}
