package common

import (
	"errors"

	"github.com/lib/pq"
)

// Общие ошибки для всех репозиториев
var (
	ErrNotFound      = errors.New("entity not found")
	ErrAlreadyExists = errors.New("entity already exists")
	ErrInvalidInput  = errors.New("invalid input")
)

// Коды ошибок PostgreSQL, важные для движка:
// 40001 - serialization_failure, 40P01 - deadlock_detected,
// 23505 - unique_violation.
const (
	pgSerializationFailure = "40001"
	pgDeadlockDetected     = "40P01"
	pgUniqueViolation      = "23505"
)

// IsRetryable сообщает, имеет ли смысл повторить операцию.
// Повторяются только транзиентные сбои хранилища; доменные ошибки
// всегда доходят до вызывающего с первого раза.
func IsRetryable(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == pgSerializationFailure || pqErr.Code == pgDeadlockDetected
	}
	return false
}

// IsUniqueViolation сообщает, нарушено ли ограничение уникальности.
func IsUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == pgUniqueViolation
}
