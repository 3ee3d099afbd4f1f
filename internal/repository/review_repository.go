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

var ErrReviewExists = errors.New("review already exists for this job and reviewer")

const reviewColumns = `id, job_id, reviewer_id, reviewee_id, rating, comment, role_rated, created_at`

// ReviewRepository отвечает за отзывы и их влияние на репутацию.
// Вставка отзыва и дельта репутации фиксируются одной транзакцией:
// отзыв без эффекта репутации (и наоборот) невозможен.
type ReviewRepository struct {
	db *sqlx.DB
}

// NewReviewRepository создаёт экземпляр репозитория.
func NewReviewRepository(db *sqlx.DB) *ReviewRepository {
	return &ReviewRepository{db: db}
}

// Create сохраняет отзыв и применяет дельту репутации к его адресату.
// GREATEST прижимает репутацию к нулю снизу.
func (r *ReviewRepository) Create(ctx context.Context, review *models.Review, reputationDelta int) error {
	return common.WithTransaction(ctx, r.db, func(tx *sqlx.Tx) error {
		query := `
			INSERT INTO reviews (job_id, reviewer_id, reviewee_id, rating, comment, role_rated)
			VALUES ($1, $2, $3, $4, $5, $6)
			RETURNING id, created_at
		`
		if err := tx.QueryRowxContext(ctx, query,
			review.JobID, review.ReviewerID, review.RevieweeID, review.Rating, review.Comment, review.RoleRated,
		).Scan(&review.ID, &review.CreatedAt); err != nil {
			if common.IsUniqueViolation(err) {
				return ErrReviewExists
			}
			return fmt.Errorf("review repository: create %w", err)
		}

		update := `UPDATE users SET reputation = GREATEST(reputation + $2, 0), updated_at = NOW() WHERE id = $1`
		if _, err := tx.ExecContext(ctx, update, review.RevieweeID, reputationDelta); err != nil {
			return fmt.Errorf("review repository: apply reputation delta %w", err)
		}
		return nil
	})
}

// GetByJobAndReviewer возвращает отзыв пары (работа, автор) или nil.
func (r *ReviewRepository) GetByJobAndReviewer(ctx context.Context, jobID, reviewerID uuid.UUID) (*models.Review, error) {
	var review models.Review
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE job_id = $1 AND reviewer_id = $2`
	if err := r.db.GetContext(ctx, &review, query, jobID, reviewerID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("review repository: get by job and reviewer %w", err)
	}
	return &review, nil
}

// ListByRevieweeID возвращает отзывы о пользователе.
func (r *ReviewRepository) ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	var reviews []models.Review
	query := `
		SELECT ` + reviewColumns + ` FROM reviews
		WHERE reviewee_id = $1 ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &reviews, query, revieweeID, limit, offset); err != nil {
		return nil, fmt.Errorf("review repository: list by reviewee %w", err)
	}
	return reviews, nil
}

// ListByJobID возвращает отзывы по работе (их не больше двух).
func (r *ReviewRepository) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	var reviews []models.Review
	query := `SELECT ` + reviewColumns + ` FROM reviews WHERE job_id = $1 ORDER BY created_at ASC`
	if err := r.db.SelectContext(ctx, &reviews, query, jobID); err != nil {
		return nil, fmt.Errorf("review repository: list by job %w", err)
	}
	return reviews, nil
}

// GetAverageRating возвращает средний рейтинг и количество отзывов.
func (r *ReviewRepository) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	var result struct {
		Avg   float64 `db:"avg"`
		Count int     `db:"count"`
	}
	query := `
		SELECT COALESCE(AVG(rating), 0) AS avg, COUNT(*) AS count
		FROM reviews WHERE reviewee_id = $1
	`
	if err := r.db.GetContext(ctx, &result, query, userID); err != nil {
		return 0, 0, fmt.Errorf("review repository: average rating %w", err)
	}
	return result.Avg, result.Count, nil
}
