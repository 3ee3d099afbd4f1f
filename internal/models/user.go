package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Роли пользователей. Арбитраж споров доступен admin и moderator.
const (
	RoleUser      = "user"
	RoleModerator = "moderator"
	RoleAdmin     = "admin"
)

// IsArbiter сообщает, может ли роль разрешать споры.
func IsArbiter(role string) bool {
	return role == RoleAdmin || role == RoleModerator
}

// User описывает сущность пользователя платформы с кошельком.
// Поля balance и reputation изменяются только через WalletRepository.
type User struct {
	ID           uuid.UUID       `db:"id" json:"id"`
	Email        string          `db:"email" json:"email"`
	Username     string          `db:"username" json:"username"`
	PasswordHash string          `db:"password_hash" json:"-"`
	Role         string          `db:"role" json:"role"`
	Balance      decimal.Decimal `db:"balance" json:"balance"`
	Reputation   int             `db:"reputation" json:"reputation"`
	IsActive     bool            `db:"is_active" json:"is_active"`
	LastLoginAt  *time.Time      `db:"last_login_at" json:"last_login_at,omitempty"`
	CreatedAt    time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt    time.Time       `db:"updated_at" json:"updated_at"`
}

// Session представляет сохранённую сессию пользователя.
type Session struct {
	ID           uuid.UUID `db:"id" json:"id"`
	UserID       uuid.UUID `db:"user_id" json:"user_id"`
	RefreshToken string    `db:"refresh_token" json:"refresh_token"`
	UserAgent    *string   `db:"user_agent" json:"user_agent,omitempty"`
	IPAddress    *string   `db:"ip_address" json:"ip_address,omitempty"`
	ExpiresAt    time.Time `db:"expires_at" json:"expires_at"`
	CreatedAt    time.Time `db:"created_at" json:"created_at"`
}

// WalletInfo возвращается операцией получения баланса: текущий баланс
// и репутация пользователя на момент последней зафиксированной мутации.
type WalletInfo struct {
	UserID     uuid.UUID       `db:"id" json:"user_id"`
	Balance    decimal.Decimal `db:"balance" json:"balance"`
	Reputation int             `db:"reputation" json:"reputation"`
}
