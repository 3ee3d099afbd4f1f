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

// EscrowRepo описывает денежные переходы жизненного цикла работы.
type EscrowRepo interface {
	Hire(ctx context.Context, customerID uuid.UUID, svc *models.Service) (*models.Job, error)
	Complete(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	ReleaseDisputed(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
	RefundDisputed(ctx context.Context, jobID uuid.UUID) (*models.Job, error)
}

// JobRepo описывает чтение работ и их чаты.
type JobRepo interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Job, error)
	ListByUser(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Job, error)
	CreateMessage(ctx context.Context, msg *models.JobMessage) error
	ListMessages(ctx context.Context, jobID uuid.UUID, limit, offset int) ([]models.JobMessage, error)
}

// ServiceReader возвращает услуги каталога для найма.
type ServiceReader interface {
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
}

// EscrowService управляет жизненным циклом работ: найм с заморозкой
// средств, подтверждение выполнения с выплатой, принудительные решения
// арбитра по спорным работам.
type EscrowService struct {
	escrow        EscrowRepo
	jobs          JobRepo
	catalog       ServiceReader
	retryAttempts int
}

// NewEscrowService создаёт сервис эскроу.
func NewEscrowService(escrow EscrowRepo, jobs JobRepo, catalog ServiceReader, retryAttempts int) *EscrowService {
	return &EscrowService{
		escrow:        escrow,
		jobs:          jobs,
		catalog:       catalog,
		retryAttempts: retryAttempts,
	}
}

// Hire нанимает исполнителя: цена услуги списывается с заказчика в
// эскроу, работа создаётся в статусе in_progress. При нехватке средств
// работа не создаётся вовсе.
func (s *EscrowService) Hire(ctx context.Context, customerID, serviceID uuid.UUID) (*models.Job, error) {
	svc, err := s.catalog.GetByID(ctx, serviceID)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	if !svc.IsActive {
		return nil, apperror.ErrServiceNotFound
	}
	if svc.ProviderID == customerID {
		return nil, apperror.ErrSelfHire
	}

	var job *models.Job
	err = common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		job, err = s.escrow.Hire(ctx, customerID, svc)
		return err
	})
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return job, nil
}

// Complete подтверждает выполнение работы. Подтверждает только заказчик:
// деньги уходят исполнителю, работа помечается оплаченной.
func (s *EscrowService) Complete(ctx context.Context, customerID, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	if job.CustomerID != customerID {
		return nil, apperror.ErrUnauthorizedParticipant
	}

	var updated *models.Job
	err = common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		updated, err = s.escrow.Complete(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return updated, nil
}

// ForceRelease выплачивает исполнителю по спорной работе решением
// арбитра, минуя формальную процедуру спора.
func (s *EscrowService) ForceRelease(ctx context.Context, role string, jobID uuid.UUID) (*models.Job, error) {
	if !models.IsArbiter(role) {
		return nil, apperror.ErrForbidden
	}

	var job *models.Job
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		job, err = s.escrow.ReleaseDisputed(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return job, nil
}

// ForceRefund возвращает средства заказчику по спорной работе решением
// арбитра.
func (s *EscrowService) ForceRefund(ctx context.Context, role string, jobID uuid.UUID) (*models.Job, error) {
	if !models.IsArbiter(role) {
		return nil, apperror.ErrForbidden
	}

	var job *models.Job
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		job, err = s.escrow.RefundDisputed(ctx, jobID)
		return err
	})
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return job, nil
}

// GetJob возвращает работу участнику контракта или арбитру.
func (s *EscrowService) GetJob(ctx context.Context, userID uuid.UUID, role string, jobID uuid.UUID) (*models.Job, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	if !job.IsParticipant(userID) && !models.IsArbiter(role) {
		return nil, apperror.ErrUnauthorizedParticipant
	}
	return job, nil
}

// ListJobs возвращает работы пользователя в любой из ролей, опционально
// отфильтрованные по статусу.
func (s *EscrowService) ListJobs(ctx context.Context, userID uuid.UUID, status string, limit, offset int) ([]models.Job, error) {
	if status != "" {
		if _, ok := models.ValidJobStatuses[status]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный статус работы")
		}
	}

	limit, offset = normalizePage(limit, offset)
	jobs, err := s.jobs.ListByUser(ctx, userID, status, limit, offset)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return jobs, nil
}

// SendMessage отправляет сообщение в чат работы.
func (s *EscrowService) SendMessage(ctx context.Context, userID, jobID uuid.UUID, text string) (*models.JobMessage, error) {
	if err := validation.ValidateLength("сообщение", text, validation.MinMessageLength, validation.MaxMessageLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	if !job.IsParticipant(userID) {
		return nil, apperror.ErrUnauthorizedParticipant
	}

	msg := &models.JobMessage{JobID: jobID, SenderID: userID, Message: text}
	if err := s.jobs.CreateMessage(ctx, msg); err != nil {
		return nil, mapEscrowError(err)
	}
	return msg, nil
}

// ListMessages возвращает чат работы её участнику или арбитру.
func (s *EscrowService) ListMessages(ctx context.Context, userID uuid.UUID, role string, jobID uuid.UUID, limit, offset int) ([]models.JobMessage, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	if !job.IsParticipant(userID) && !models.IsArbiter(role) {
		return nil, apperror.ErrUnauthorizedParticipant
	}

	limit, offset = normalizePage(limit, offset)
	messages, err := s.jobs.ListMessages(ctx, jobID, limit, offset)
	if err != nil {
		return nil, mapEscrowError(err)
	}
	return messages, nil
}

// mapEscrowError переводит ошибки репозиториев эскроу в доменные.
func mapEscrowError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrServiceNotFound):
		return apperror.ErrServiceNotFound
	case errors.Is(err, repository.ErrJobNotFound):
		return apperror.ErrJobNotFound
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds
	case errors.Is(err, repository.ErrOpenDisputeExists):
		return apperror.ErrDuplicateDispute
	case errors.Is(err, repository.ErrJobStateConflict):
		return apperror.ErrInvalidStateTransition
	case common.IsRetryable(err):
		return apperror.ErrStorageUnavailable
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "операция эскроу не выполнена")
	}
}
