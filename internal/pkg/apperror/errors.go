package apperror

import (
	"errors"
	"fmt"
	"net/http"
)

type ErrorCode string

const (
	ErrCodeNotFound          ErrorCode = "NOT_FOUND"
	ErrCodeUnauthorized      ErrorCode = "UNAUTHORIZED"
	ErrCodeForbidden         ErrorCode = "FORBIDDEN"
	ErrCodeBadRequest        ErrorCode = "BAD_REQUEST"
	ErrCodeConflict          ErrorCode = "CONFLICT"
	ErrCodeInternal          ErrorCode = "INTERNAL_ERROR"
	ErrCodeValidation        ErrorCode = "VALIDATION_ERROR"
	ErrCodeInsufficientFunds ErrorCode = "INSUFFICIENT_FUNDS"
	ErrCodeInvalidTransition ErrorCode = "INVALID_STATE_TRANSITION"
	ErrCodeStorage           ErrorCode = "STORAGE_UNAVAILABLE"
)

type AppError struct {
	Code       ErrorCode
	Message    string
	HTTPStatus int
	Cause      error
}

func (e *AppError) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s (caused by: %v)", e.Code, e.Message, e.Cause)
	}
	return fmt.Sprintf("%s: %s", e.Code, e.Message)
}

func (e *AppError) Unwrap() error {
	return e.Cause
}

func New(code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
	}
}

func Wrap(err error, code ErrorCode, message string) *AppError {
	return &AppError{
		Code:       code,
		Message:    message,
		HTTPStatus: codeToHTTPStatus(code),
		Cause:      err,
	}
}

func codeToHTTPStatus(code ErrorCode) int {
	switch code {
	case ErrCodeNotFound:
		return http.StatusNotFound
	case ErrCodeUnauthorized:
		return http.StatusUnauthorized
	case ErrCodeForbidden:
		return http.StatusForbidden
	case ErrCodeBadRequest, ErrCodeValidation:
		return http.StatusBadRequest
	case ErrCodeConflict, ErrCodeInvalidTransition:
		return http.StatusConflict
	case ErrCodeInsufficientFunds:
		return http.StatusPaymentRequired
	case ErrCodeStorage:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func IsNotFound(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeNotFound
}

func IsForbidden(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeForbidden
}

func IsValidation(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && appErr.Code == ErrCodeValidation
}

func IsConflict(err error) bool {
	var appErr *AppError
	return errors.As(err, &appErr) && (appErr.Code == ErrCodeConflict || appErr.Code == ErrCodeInvalidTransition)
}

// Доменные ошибки движка эскроу. Каждая многошаговая операция либо
// завершается целиком, либо возвращает одну из них без побочных эффектов.
var (
	ErrUserNotFound       = New(ErrCodeNotFound, "пользователь не найден")
	ErrServiceNotFound    = New(ErrCodeNotFound, "услуга не найдена")
	ErrJobNotFound        = New(ErrCodeNotFound, "работа не найдена")
	ErrDisputeNotFound    = New(ErrCodeNotFound, "спор не найден")
	ErrUnauthorized       = New(ErrCodeUnauthorized, "требуется авторизация")
	ErrForbidden          = New(ErrCodeForbidden, "недостаточно прав")
	ErrInvalidCredentials = New(ErrCodeUnauthorized, "неверные учетные данные")

	ErrInsufficientFunds      = New(ErrCodeInsufficientFunds, "недостаточно средств на балансе")
	ErrInsufficientReputation = New(ErrCodeValidation, "недостаточно пунктов репутации")
	ErrSelfTransfer           = New(ErrCodeValidation, "нельзя перевести средства самому себе")
	ErrSelfHire               = New(ErrCodeValidation, "нельзя нанять самого себя")

	ErrInvalidStateTransition  = New(ErrCodeInvalidTransition, "недопустимый переход статуса работы")
	ErrUnauthorizedParticipant = New(ErrCodeForbidden, "вы не участник этой работы")
	ErrDuplicateDispute        = New(ErrCodeConflict, "по этой работе уже открыт спор")
	ErrDisputeAlreadyResolved  = New(ErrCodeConflict, "спор уже закрыт")
	ErrDuplicateReview         = New(ErrCodeConflict, "вы уже оставили отзыв на эту работу")
	ErrJobNotCompleted         = New(ErrCodeValidation, "отзыв можно оставить только после завершения работы")

	ErrStorageUnavailable = New(ErrCodeStorage, "хранилище временно недоступно, повторите попытку")
)
