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
	ErrJobNotFound      = errors.New("job not found")
	ErrJobStateConflict = errors.New("job is not in the expected state")
)

const jobColumns = `id, customer_id, provider_id, service_id, agreed_price, status, is_paid, created_at, started_at, disputed_at, completed_at, paid_at, cancelled_at, updated_at`

// Колонка с отметкой времени, заполняемая при входе в статус.
var jobStatusTimestamps = map[string]string{
	models.JobStatusInProgress: "started_at",
	models.JobStatusDisputed:   "disputed_at",
	models.JobStatusCompleted:  "completed_at",
	models.JobStatusPaid:       "paid_at",
	models.JobStatusCancelled:  "cancelled_at",
}

// transitionJob применяет переход статуса по правилу test-and-set:
// UPDATE проходит только если текущий статус всё ещё равен ожидаемому.
// Ноль затронутых строк означает, что конкурентный вызов успел раньше.
func transitionJob(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID, from, to string) error {
	if !models.CanTransitionJob(from, to) {
		return ErrJobStateConflict
	}

	query := fmt.Sprintf(
		`UPDATE jobs SET status = $1, %s = NOW(), updated_at = NOW() WHERE id = $2 AND status = $3`,
		jobStatusTimestamps[to],
	)
	res, err := tx.ExecContext(ctx, query, to, jobID, from)
	if err != nil {
		return fmt.Errorf("job repository: transition %s -> %s %w", from, to, err)
	}

	rows, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("job repository: transition rows affected %w", err)
	}
	if rows == 0 {
		return ErrJobStateConflict
	}
	return nil
}

// lockJob берёт строку работы под эксклюзивную блокировку.
func lockJob(ctx context.Context, tx *sqlx.Tx, jobID uuid.UUID) (*models.Job, error) {
	var job models.Job
	query := `SELECT ` + jobColumns + ` FROM jobs WHERE id = $1 FOR UPDATE`
	if err := tx.GetContext(ctx, &job, query, jobID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrJobNotFound
		}
		return nil, fmt.Errorf("job repository: lock job %w", err)
	}
	return &job, nil
}

// JobRepository отвечает за чтение работ и их чаты.
// Статусы работ изменяет только EscrowRepository: все денежные переходы
// должны фиксироваться вместе с движением средств.
type JobRepository struct {
	db *sqlx.DB
}

// NewJobRepository создаёт экземпляр репозитория.
func NewJobRepository(db *sqlx.DB) *JobRepository {
	return &JobRepository{db: db}
}

// GetByID возвращает работу по идентификатору.
func (r *JobRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error) {
	return common.GetByID[models.Job](ctx, r.db, "jobs", id, ErrJobNotFound)
}

// ListByUser возвращает работы, где пользователь заказчик или исполнитель.
// Непустой status сужает выборку до одного статуса.
func (r *JobRepository) ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Job, error) {
	var jobs []models.Job
	if status != "" {
		query := `
			SELECT ` + jobColumns + ` FROM jobs
			WHERE (customer_id = $1 OR provider_id = $1) AND status = $2
			ORDER BY created_at DESC LIMIT $3 OFFSET $4
		`
		if err := r.db.SelectContext(ctx, &jobs, query, userID, status, limit, offset); err != nil {
			return nil, fmt.Errorf("job repository: list by user and status %w", err)
		}
		return jobs, nil
	}

	query := `
		SELECT ` + jobColumns + ` FROM jobs
		WHERE customer_id = $1 OR provider_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &jobs, query, userID, limit, offset); err != nil {
		return nil, fmt.Errorf("job repository: list by user %w", err)
	}
	return jobs, nil
}

// CreateMessage сохраняет сообщение в чате работы.
func (r *JobRepository) CreateMessage(ctx context.Context, msg *models.JobMessage) error {
	query := `
		INSERT INTO job_messages (job_id, sender_id, message)
		VALUES ($1, $2, $3)
		RETURNING id, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query, msg.JobID, msg.SenderID, msg.Message).
		Scan(&msg.ID, &msg.CreatedAt); err != nil {
		return fmt.Errorf("job repository: create message %w", err)
	}
	return nil
}

// ListMessages возвращает сообщения чата работы в хронологическом порядке.
func (r *JobRepository) ListMessages(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]models.JobMessage, error) {
	var messages []models.JobMessage
	query := `
		SELECT id, job_id, sender_id, message, created_at
		FROM job_messages WHERE job_id = $1
		ORDER BY created_at ASC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &messages, query, jobID, limit, offset); err != nil {
		return nil, fmt.Errorf("job repository: list messages %w", err)
	}
	return messages, nil
}
