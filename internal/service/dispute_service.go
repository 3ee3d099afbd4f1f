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

// DisputeRepo описывает хранилище споров.
type DisputeRepo interface {
	Create(ctx context.Context, d *models.Dispute) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Dispute, error)
	GetOpenByJobID(ctx context.Context, jobID uuid.UUID) (*models.Dispute, error)
	ListByUser(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error)
	ListOpen(ctx context.Context, limit, offset int) ([]models.Dispute, error)
	Resolve(ctx context.Context, disputeID, resolverID uuid.UUID, outcome, notes string) (*models.Dispute, *models.Job, error)
}

// DisputeService управляет спорами: открытие участником контракта,
// арбитраж с выплатой или возвратом средств.
type DisputeService struct {
	disputes      DisputeRepo
	jobs          JobRepo
	retryAttempts int
}

// NewDisputeService создаёт сервис споров.
func NewDisputeService(disputes DisputeRepo, jobs JobRepo, retryAttempts int) *DisputeService {
	return &DisputeService{
		disputes:      disputes,
		jobs:          jobs,
		retryAttempts: retryAttempts,
	}
}

// Raise открывает спор по работе. Спор может открыть только участник
// контракта и только пока работа в статусе in_progress. Замороженные
// средства блокируются от выплаты до решения арбитра.
func (s *DisputeService) Raise(ctx context.Context, userID, jobID uuid.UUID, reason string) (*models.Dispute, error) {
	if err := validation.ValidateLength("причина спора", reason, validation.MinDisputeReasonLength, validation.MaxDisputeReasonLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	if !job.IsParticipant(userID) {
		return nil, apperror.ErrUnauthorizedParticipant
	}
	if job.Status != models.JobStatusInProgress {
		return nil, apperror.ErrInvalidStateTransition
	}

	d := &models.Dispute{JobID: jobID, InitiatorID: userID, Reason: reason}
	err = common.WithRetry(ctx, s.retryAttempts, func() error {
		return s.disputes.Create(ctx, d)
	})
	if err != nil {
		return nil, mapDisputeError(err)
	}
	return d, nil
}

// Resolve закрывает спор решением арбитра. Исход release выплачивает
// исполнителю, refund возвращает средства заказчику; повторное решение
// того же спора отклоняется.
func (s *DisputeService) Resolve(ctx context.Context, resolverID uuid.UUID, role string, disputeID uuid.UUID, outcome, notes string) (*models.Dispute, *models.Job, error) {
	if !models.IsArbiter(role) {
		return nil, nil, apperror.ErrForbidden
	}
	if outcome != models.DisputeOutcomeRelease && outcome != models.DisputeOutcomeRefund {
		return nil, nil, apperror.New(apperror.ErrCodeValidation, "исход спора должен быть release или refund")
	}
	if err := validation.ValidateNonEmpty("решение арбитра", notes); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var (
		d   *models.Dispute
		job *models.Job
	)
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		d, job, err = s.disputes.Resolve(ctx, disputeID, resolverID, outcome, notes)
		return err
	})
	if err != nil {
		return nil, nil, mapDisputeError(err)
	}
	return d, job, nil
}

// GetDispute возвращает спор его стороне или арбитру.
func (s *DisputeService) GetDispute(ctx context.Context, userID uuid.UUID, role string, disputeID uuid.UUID) (*models.Dispute, error) {
	d, err := s.disputes.GetByID(ctx, disputeID)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	if models.IsArbiter(role) || d.InitiatorID == userID {
		return d, nil
	}

	job, err := s.jobs.GetByID(ctx, d.JobID)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	if !job.IsParticipant(userID) {
		return nil, apperror.ErrUnauthorizedParticipant
	}
	return d, nil
}

// GetOpenForJob возвращает незакрытый спор по работе её участнику или
// арбитру.
func (s *DisputeService) GetOpenForJob(ctx context.Context, userID uuid.UUID, role string, jobID uuid.UUID) (*models.Dispute, error) {
	job, err := s.jobs.GetByID(ctx, jobID)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	if !job.IsParticipant(userID) && !models.IsArbiter(role) {
		return nil, apperror.ErrUnauthorizedParticipant
	}

	d, err := s.disputes.GetOpenByJobID(ctx, jobID)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	return d, nil
}

// ListMy возвращает споры, в которых пользователь участвует.
func (s *DisputeService) ListMy(ctx context.Context, userID uuid.UUID, limit, offset int) ([]models.Dispute, error) {
	limit, offset = normalizePage(limit, offset)
	disputes, err := s.disputes.ListByUser(ctx, userID, limit, offset)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	return disputes, nil
}

// ListOpen возвращает очередь незакрытых споров для арбитража.
func (s *DisputeService) ListOpen(ctx context.Context, role string, limit, offset int) ([]models.Dispute, error) {
	if !models.IsArbiter(role) {
		return nil, apperror.ErrForbidden
	}

	limit, offset = normalizePage(limit, offset)
	disputes, err := s.disputes.ListOpen(ctx, limit, offset)
	if err != nil {
		return nil, mapDisputeError(err)
	}
	return disputes, nil
}

// mapDisputeError переводит ошибки репозитория споров в доменные.
func mapDisputeError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrJobNotFound):
		return apperror.ErrJobNotFound
	case errors.Is(err, repository.ErrDisputeNotFound):
		return apperror.ErrDisputeNotFound
	case errors.Is(err, repository.ErrOpenDisputeExists):
		return apperror.ErrDuplicateDispute
	case errors.Is(err, repository.ErrDisputeAlreadyResolved):
		return apperror.ErrDisputeAlreadyResolved
	case errors.Is(err, repository.ErrJobStateConflict):
		return apperror.ErrInvalidStateTransition
	case common.IsRetryable(err):
		return apperror.ErrStorageUnavailable
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "операция со спором не выполнена")
	}
}
