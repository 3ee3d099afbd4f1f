package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
	"github.com/skhokho/linkup-backend/internal/repository/common"
	"github.com/skhokho/linkup-backend/internal/validation"
)

// Лимиты постраничной выдачи.
const (
	DefaultPageSize = 50
	MaxPageSize     = 100
)

// WalletRepo описывает операции хранилища кошельков.
type WalletRepo interface {
	Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error)
	Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error)
	Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*models.TransferResult, error)
	ConvertReputation(ctx context.Context, userID uuid.UUID, points int, rate int64) (*models.Transaction, error)
	GetWallet(ctx context.Context, userID uuid.UUID) (*models.WalletInfo, error)
	ListTransactions(ctx context.Context, userID uuid.UUID, txType string, limit, offset int) ([]models.Transaction, error)
	Reconcile(ctx context.Context, userID uuid.UUID) (*repository.ReconcileReport, error)
}

// WalletService реализует операции леджера поверх репозитория:
// валидация входа, повтор транзиентных сбоев, перевод ошибок хранилища
// в доменные ошибки.
type WalletService struct {
	repo           WalletRepo
	retryAttempts  int
	reputationRate int64
}

// NewWalletService создаёт сервис кошельков.
func NewWalletService(repo WalletRepo, retryAttempts int, reputationRate int64) *WalletService {
	return &WalletService{
		repo:           repo,
		retryAttempts:  retryAttempts,
		reputationRate: reputationRate,
	}
}

// Deposit пополняет баланс пользователя.
func (s *WalletService) Deposit(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var t *models.Transaction
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		t, err = s.repo.Deposit(ctx, userID, amount, description)
		return err
	})
	if err != nil {
		return nil, mapWalletError(err)
	}
	return t, nil
}

// Withdraw списывает средства с баланса пользователя.
func (s *WalletService) Withdraw(ctx context.Context, userID uuid.UUID, amount decimal.Decimal, description string) (*models.Transaction, error) {
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var t *models.Transaction
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		t, err = s.repo.Withdraw(ctx, userID, amount, description)
		return err
	})
	if err != nil {
		return nil, mapWalletError(err)
	}
	return t, nil
}

// Transfer переводит средства между пользователями.
func (s *WalletService) Transfer(ctx context.Context, fromID, toID uuid.UUID, amount decimal.Decimal, description string) (*models.TransferResult, error) {
	if fromID == toID {
		return nil, apperror.ErrSelfTransfer
	}
	if err := validation.ValidateAmount(amount); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	var result *models.TransferResult
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		result, err = s.repo.Transfer(ctx, fromID, toID, amount, description)
		return err
	})
	if err != nil {
		return nil, mapWalletError(err)
	}
	return result, nil
}

// ConvertReputation обменивает пункты репутации на кредиты кошелька.
func (s *WalletService) ConvertReputation(ctx context.Context, userID uuid.UUID, points int) (*models.Transaction, error) {
	if points <= 0 {
		return nil, apperror.New(apperror.ErrCodeValidation, "количество пунктов должно быть положительным")
	}

	var t *models.Transaction
	err := common.WithRetry(ctx, s.retryAttempts, func() error {
		var err error
		t, err = s.repo.ConvertReputation(ctx, userID, points, s.reputationRate)
		return err
	})
	if err != nil {
		return nil, mapWalletError(err)
	}
	return t, nil
}

// GetWallet возвращает текущий баланс и репутацию.
func (s *WalletService) GetWallet(ctx context.Context, userID uuid.UUID) (*models.WalletInfo, error) {
	info, err := s.repo.GetWallet(ctx, userID)
	if err != nil {
		return nil, mapWalletError(err)
	}
	return info, nil
}

// ListTransactions возвращает страницу истории транзакций, опционально
// отфильтрованную по типу операции.
func (s *WalletService) ListTransactions(ctx context.Context, userID uuid.UUID, txType string, limit, offset int) ([]models.Transaction, error) {
	if txType != "" {
		if _, ok := models.ValidTransactionTypes[txType]; !ok {
			return nil, apperror.New(apperror.ErrCodeValidation, "неизвестный тип транзакции")
		}
	}

	limit, offset = normalizePage(limit, offset)
	transactions, err := s.repo.ListTransactions(ctx, userID, txType, limit, offset)
	if err != nil {
		return nil, mapWalletError(err)
	}
	return transactions, nil
}

// Reconcile сверяет баланс пользователя с суммой журнала.
func (s *WalletService) Reconcile(ctx context.Context, userID uuid.UUID) (*repository.ReconcileReport, error) {
	report, err := s.repo.Reconcile(ctx, userID)
	if err != nil {
		return nil, mapWalletError(err)
	}
	return report, nil
}

// normalizePage приводит параметры пагинации к допустимому диапазону.
func normalizePage(limit, offset int) (int, int) {
	if limit <= 0 {
		limit = DefaultPageSize
	}
	if limit > MaxPageSize {
		limit = MaxPageSize
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}

// mapWalletError переводит ошибки репозитория кошельков в доменные.
func mapWalletError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrUserNotFound):
		return apperror.ErrUserNotFound
	case errors.Is(err, repository.ErrInsufficientFunds):
		return apperror.ErrInsufficientFunds
	case errors.Is(err, repository.ErrInsufficientReputation):
		return apperror.ErrInsufficientReputation
	case errors.Is(err, repository.ErrSelfTransfer):
		return apperror.ErrSelfTransfer
	case common.IsRetryable(err):
		return apperror.ErrStorageUnavailable
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "операция кошелька не выполнена")
	}
}
