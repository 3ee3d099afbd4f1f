package service

import (
	"context"
	"errors"

	"github.com/google/uuid"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
	"github.com/skhokho/linkup-backend/internal/repository/common"
	"github.com/skhokho/linkup-backend/internal/validation"
)

// ReviewRepo описывает хранилище отзывов.
type ReviewRepo interface {
	Create(ctx context.Context, review *models.Review, reputationDelta int) error
	GetByJobAndReviewer(ctx context.Context, jobID, reviewerID uuid.UUID) (*models.Review, error)
	ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error)
	ListByJobID(ctx context.Context, jobID uuid.UUID) ([]models.Review, error)
	GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error)
}

// UserRating агрегирует репутационные показатели пользователя.
type UserRating struct {
	UserID        uuid.UUID `json:"user_id"`
	AverageRating float64   `json:"average_rating"`
	ReviewCount   int       `json:"review_count"`
}

// ReviewService управляет отзывами и их влиянием на репутацию.
// Дельта репутации: (rating - 3) * 5, итог прижимается к нулю снизу.
type ReviewService struct {
	reviews       ReviewRepo
	jobs          JobRepo
	retryAttempts int
}

// NewReviewService создаёт сервис отзывов.
func NewReviewService(reviews ReviewRepo, jobs JobRepo, retryAttempts int) *ReviewService {
	return &ReviewService{
		reviews:       reviews,
		jobs:          jobs,
		retryAttempts: retryAttempts,
	}
}

// Rate оставляет отзыв о второй стороне оплаченной работы.
// Адресат определяется автоматически: заказчик оценивает исполнителя,
// исполнитель — заказчика. Повторный отзыв той же пары отклоняется.
func (s *ReviewService) Rate(ctx context.Context, reviewerID, jobID uuid.UUID, rating int, comment string) (*models.Review, error) {
	if err := validation.ValidateRating(rating); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateLength("комментарий", comment, 0, validation.MaxReviewCommentLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	if !job.IsParticipant(reviewerID) {
		return nil, apperror.ErrUnauthorizedParticipant
	}
	if !job.IsPaid || job.Status != models.JobStatusPaid {
		return nil, apperror.ErrJobNotCompleted
	}

	review := &models.Review{
		JobID:      jobID,
		ReviewerID: reviewerID,
	}
	if reviewerID == job.CustomerID {
		review.RevieweeID = job.ProviderID
		review.RoleRated = models.RoleRatedProvider
	} else {
		review.RevieweeID = job.CustomerID
		review.RoleRated = models.RoleRatedCustomer
	}
	review.Rating = rating
	if comment != "" {
		review.Comment = &comment
	}

	delta := models.ReputationDelta(rating)
	err = common.WithRetry(ctx, s.retryAttempts, func() error {
		return s.reviews.Create(ctx, review, delta)
	})
	if err != nil {
		return nil, mapReviewError(err)
	}
	return review, nil
}

// ListForUser возвращает отзывы о пользователе.
func (s *ReviewService) ListForUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Review, error) {
	limit, offset = normalizePage(limit, offset)
	reviews, err := s.reviews.ListByRevieweeID(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapReviewError(err)
	}
	return reviews, nil
}

// ListForJob возвращает отзывы по работе её участнику или арбитру.
func (s *ReviewService) ListForJob(ctx context.Context, userID uuid.UUID, role string, jobID uuid.UUID) ([]models.Review, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	if !job.IsParticipant(userID) && !models.IsArbiter(role) {
		return nil, apperror.ErrUnauthorizedParticipant
	}

	reviews, err := s.reviews.ListByJobID(ctx, jobID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	return reviews, nil
}

// GetRating возвращает средний рейтинг и число отзывов о пользователе.
func (s *ReviewService) GetRating(ctx context.Context, userID uuid.UUID) (*UserRating, error) {
	avg, count, err := s.reviews.GetAverageRating(ctx, userID)
	if err != nil {
		return nil, mapReviewError(err)
	}
	return &UserRating{UserID: userID, AverageRating: avg, ReviewCount: count}, nil
}

// mapReviewError переводит ошибки репозитория отзывов в доменные.
func mapReviewError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrJobNotFound):
		return apperror.ErrJobNotFound
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrReviewExists):
		return apperror.ErrDuplicateReview
	case common.IsRetryable(err):
		return apperror.ErrStorageUnavailable
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "операция с отзывом не выполнена")
	}
}
