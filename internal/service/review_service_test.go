package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
)

type mockReviewRepo struct {
	mock.Mock
}

func (m *mockReviewRepo) Create(ctx context.Context, review *models.Review, reputationDelta int) error {
	args := m.Called(ctx, review, reputationDelta)
	if args.Error(0) == nil {
		review.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockReviewRepo) GetByJobAndReviewer(ctx context.Context, jobID, reviewerID uuid.UUID) (*models.Review, error) {
	args := m.Called(ctx, jobID, reviewerID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByRevieweeID(ctx context.Context, revieweeID uuid.UUID, limit, offset int) ([]models.Review, error) {
	args := m.Called(ctx, revieweeID, limit, offset)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) ListByJobID(ctx context.Context, jobID uuid.UUID) ([]models.Review, error) {
	args := m.Called(ctx, jobID)
	return args.Get(0).([]models.Review), args.Error(1)
}

func (m *mockReviewRepo) GetAverageRating(ctx context.Context, userID uuid.UUID) (float64, int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).(float64), args.Int(1), args.Error(2)
}

func paidJob(customerID, providerID uuid.UUID) *models.Job {
	return &models.Job{
		ID:         uuid.New(),
		CustomerID: customerID,
		ProviderID: providerID,
		Status:     models.JobStatusPaid,
		IsPaid:     true,
	}
}

func TestReviewService_Rate_CustomerRatesProvider(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	providerID := uuid.New()
	job := paidJob(customerID, providerID)

	jobRepo.On("GetByID", ctx, job.ID).Return(job, nil)
	// Пятёрка даёт +10 репутации.
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review"), 10).Return(nil)

	review, err := svc.Rate(ctx, customerID, job.ID, 5, "Отличная работа!")
	assert.NoError(t, err)
	assert.Equal(t, providerID, review.RevieweeID)
	assert.Equal(t, models.RoleRatedProvider, review.RoleRated)
	assert.NotNil(t, review.Comment)
}

func TestReviewService_Rate_ProviderRatesCustomer(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	providerID := uuid.New()
	job := paidJob(customerID, providerID)

	jobRepo.On("GetByID", ctx, job.ID).Return(job, nil)
	// Единица даёт -10 репутации (клампится в нуле на стороне БД).
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review"), -10).Return(nil)

	review, err := svc.Rate(ctx, providerID, job.ID, 1, "")
	assert.NoError(t, err)
	assert.Equal(t, customerID, review.RevieweeID)
	assert.Equal(t, models.RoleRatedCustomer, review.RoleRated)
	assert.Nil(t, review.Comment)
}

func TestReviewService_Rate_InvalidRating(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	_, err := svc.Rate(ctx, uuid.New(), uuid.New(), 0, "")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "от 1 до 5")

	_, err = svc.Rate(ctx, uuid.New(), uuid.New(), 6, "")
	assert.Error(t, err)
	jobRepo.AssertNotCalled(t, "GetByID")
}

func TestReviewService_Rate_JobNotPaid(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	job := &models.Job{ID: uuid.New(), CustomerID: customerID, ProviderID: uuid.New(), Status: models.JobStatusInProgress}
	jobRepo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Rate(ctx, customerID, job.ID, 4, "")
	assert.ErrorIs(t, err, apperror.ErrJobNotCompleted)
	reviewRepo.AssertNotCalled(t, "Create")
}

func TestReviewService_Rate_NotParticipant(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	job := paidJob(uuid.New(), uuid.New())
	jobRepo.On("GetByID", ctx, job.ID).Return(job, nil)

	_, err := svc.Rate(ctx, uuid.New(), job.ID, 4, "")
	assert.ErrorIs(t, err, apperror.ErrUnauthorizedParticipant)
}

func TestReviewService_Rate_Duplicate(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	job := paidJob(customerID, uuid.New())

	jobRepo.On("GetByID", ctx, job.ID).Return(job, nil)
	reviewRepo.On("Create", ctx, mock.AnythingOfType("*models.Review"), 0).Return(repository.ErrReviewExists)

	_, err := svc.Rate(ctx, customerID, job.ID, 3, "")
	assert.ErrorIs(t, err, apperror.ErrDuplicateReview)
}

func TestReviewService_GetRating(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	userID := uuid.New()
	reviewRepo.On("GetAverageRating", ctx, userID).Return(4.5, 10, nil)

	rating, err := svc.GetRating(ctx, userID)
	assert.NoError(t, err)
	assert.Equal(t, 4.5, rating.AverageRating)
	assert.Equal(t, 10, rating.ReviewCount)
}

func TestReviewService_ListForUser(t *testing.T) {
	reviewRepo := new(mockReviewRepo)
	jobRepo := new(mockJobRepo)
	svc := NewReviewService(reviewRepo, jobRepo, 3)
	ctx := context.Background()

	userID := uuid.New()
	expected := []models.Review{{ID: uuid.New()}, {ID: uuid.New()}}
	reviewRepo.On("ListByRevieweeID", ctx, userID, 20, 0).Return(expected, nil)

	reviews, err := svc.ListForUser(ctx, userID, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, reviews, 2)
}
