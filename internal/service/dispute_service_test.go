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

type mockDisputeRepo struct {
	mock.Mock
}

func (m *mockDisputeRepo) Create(ctx context.Context, d *models.Dispute) error {
	args := m.Called(ctx, d)
	if args.Error(0) == nil {
		d.ID = uuid.New()
		d.Status = models.DisputeStatusOpen
	}
	return args.Error(0)
}

func (m *mockDisputeRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error) {
	args := m.Called(ctx, jobID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, userID, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error) {
	args := m.Called(ctx, limit, offset)
	return args.Get(0).([]models.Dispute), args.Error(1)
}

func (m *mockDisputeRepo) Resolve(ctx context.Context, disputeID, resolverID uuid.UUID, outcome, notes string) (*models.Dispute, *models.Job, error) {
	args := m.Called(ctx, disputeID, resolverID, outcome, notes)
	var (
		d   *models.Dispute
		job *models.Job
	)
	if args.Get(0) != nil {
		d = args.Get(0).(*models.Dispute)
	}
	if args.Get(1) != nil {
		job = args.Get(1).(*models.Job)
	}
	return d, job, args.Error(2)
}

const validReason = "исполнитель не вышел на связь"

func TestDisputeService_Raise_Success(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, CustomerID: customerID, ProviderID: uuid.New(), Status: models.JobStatusInProgress}

	jobRepo.On("GetByID", ctx, jobID).Return(job, nil)
	disputeRepo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(nil)

	d, err := svc.Raise(ctx, customerID, jobID, validReason)
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusOpen, d.Status)
	assert.Equal(t, customerID, d.InitiatorID)
}

func TestDisputeService_Raise_ReasonTooShort(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	_, err := svc.Raise(ctx, uuid.New(), uuid.New(), "мало")
	assert.Error(t, err)
	jobRepo.AssertNotCalled(t, "GetByID")
}

func TestDisputeService_Raise_NotParticipant(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	jobID := uuid.New()
	job := &models.Job{ID: jobID, CustomerID: uuid.New(), ProviderID: uuid.New(), Status: models.JobStatusInProgress}
	jobRepo.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.Raise(ctx, uuid.New(), jobID, validReason)
	assert.ErrorIs(t, err, apperror.ErrUnauthorizedParticipant)
}

func TestDisputeService_Raise_WrongStatus(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, CustomerID: customerID, ProviderID: uuid.New(), Status: models.JobStatusPaid}
	jobRepo.On("GetByID", ctx, jobID).Return(job, nil)

	_, err := svc.Raise(ctx, customerID, jobID, validReason)
	assert.ErrorIs(t, err, apperror.ErrInvalidStateTransition)
}

func TestDisputeService_Raise_Duplicate(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, CustomerID: customerID, ProviderID: uuid.New(), Status: models.JobStatusInProgress}

	jobRepo.On("GetByID", ctx, jobID).Return(job, nil)
	disputeRepo.On("Create", ctx, mock.AnythingOfType("*models.Dispute")).Return(repository.ErrOpenDisputeExists)

	_, err := svc.Raise(ctx, customerID, jobID, validReason)
	assert.ErrorIs(t, err, apperror.ErrDuplicateDispute)
}

func TestDisputeService_GetOpenForJob(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	customerID := uuid.New()
	jobID := uuid.New()
	job := &models.Job{ID: jobID, CustomerID: customerID, ProviderID: uuid.New(), Status: models.JobStatusDisputed}
	open := &models.Dispute{ID: uuid.New(), JobID: jobID, Status: models.DisputeStatusOpen}

	jobRepo.On("GetByID", ctx, jobID).Return(job, nil)
	disputeRepo.On("GetOpenByJobID", ctx, jobID).Return(open, nil)

	d, err := svc.GetOpenForJob(ctx, customerID, models.RoleUser, jobID)
	assert.NoError(t, err)
	assert.Equal(t, open.ID, d.ID)

	// Посторонний пользователь спор не видит.
	_, err = svc.GetOpenForJob(ctx, uuid.New(), models.RoleUser, jobID)
	assert.ErrorIs(t, err, apperror.ErrUnauthorizedParticipant)
}

func TestDisputeService_Resolve_RequiresArbiter(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	_, _, err := svc.Resolve(ctx, uuid.New(), models.RoleUser, uuid.New(), models.DisputeOutcomeRelease, "ok")
	assert.ErrorIs(t, err, apperror.ErrForbidden)
	disputeRepo.AssertNotCalled(t, "Resolve")
}

func TestDisputeService_Resolve_InvalidOutcome(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	_, _, err := svc.Resolve(ctx, uuid.New(), models.RoleAdmin, uuid.New(), "split", "ok")
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "release или refund")
}

func TestDisputeService_Resolve_Success(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	resolverID := uuid.New()
	disputeID := uuid.New()
	jobID := uuid.New()

	resolved := &models.Dispute{ID: disputeID, JobID: jobID, Status: models.DisputeStatusResolved}
	job := &models.Job{ID: jobID, Status: models.JobStatusCancelled}

	disputeRepo.On("Resolve", ctx, disputeID, resolverID, models.DisputeOutcomeRefund, "возврат заказчику").
		Return(resolved, job, nil)

	d, j, err := svc.Resolve(ctx, resolverID, models.RoleModerator, disputeID, models.DisputeOutcomeRefund, "возврат заказчику")
	assert.NoError(t, err)
	assert.Equal(t, models.DisputeStatusResolved, d.Status)
	assert.Equal(t, models.JobStatusCancelled, j.Status)
}

func TestDisputeService_Resolve_AlreadyResolved(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	disputeID := uuid.New()
	resolverID := uuid.New()
	disputeRepo.On("Resolve", ctx, disputeID, resolverID, models.DisputeOutcomeRelease, "повторно").
		Return(nil, nil, repository.ErrDisputeAlreadyResolved)

	_, _, err := svc.Resolve(ctx, resolverID, models.RoleAdmin, disputeID, models.DisputeOutcomeRelease, "повторно")
	assert.ErrorIs(t, err, apperror.ErrDisputeAlreadyResolved)
}

func TestDisputeService_ListOpen_RequiresArbiter(t *testing.T) {
	disputeRepo := new(mockDisputeRepo)
	jobRepo := new(mockJobRepo)
	svc := NewDisputeService(disputeRepo, jobRepo, 3)
	ctx := context.Background()

	_, err := svc.ListOpen(ctx, models.RoleUser, 20, 0)
	assert.ErrorIs(t, err, apperror.ErrForbidden)

	disputeRepo.On("ListOpen", ctx, 20, 0).Return([]models.Dispute{{ID: uuid.New()}}, nil)
	disputes, err := svc.ListOpen(ctx, models.RoleAdmin, 20, 0)
	assert.NoError(t, err)
	assert.Len(t, disputes, 1)
}
