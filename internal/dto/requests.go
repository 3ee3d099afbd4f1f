package dto

import "github.com/shopspring/decimal"

// RegisterRequest - запрос регистрации.
type RegisterRequest struct {
	Email    string `json:"email" binding:"required"`
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// LoginRequest - запрос входа.
type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

// RefreshRequest - запрос обновления пары токенов.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token" binding:"required"`
}

// AmountRequest - запрос денежной операции над собственным кошельком.
type AmountRequest struct {
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// TransferRequest - запрос перевода средств другому пользователю.
type TransferRequest struct {
	RecipientID string          `json:"recipient_id" binding:"required"`
	Amount      decimal.Decimal `json:"amount" binding:"required"`
	Description string          `json:"description"`
}

// ConvertReputationRequest - запрос конвертации репутации в кредиты.
type ConvertReputationRequest struct {
	Points int `json:"points" binding:"required"`
}

// CreateServiceRequest - запрос публикации услуги.
type CreateServiceRequest struct {
	Name        string          `json:"name" binding:"required"`
	Category    *string         `json:"category"`
	Description *string         `json:"description"`
	Price       decimal.Decimal `json:"price" binding:"required"`
	Latitude    *float64        `json:"latitude"`
	Longitude   *float64        `json:"longitude"`
}

// RaiseDisputeRequest - запрос открытия спора по работе.
type RaiseDisputeRequest struct {
	Reason string `json:"reason" binding:"required"`
}

// ResolveDisputeRequest - решение арбитра по спору.
type ResolveDisputeRequest struct {
	Outcome string `json:"outcome" binding:"required"`
	Notes   string `json:"notes" binding:"required"`
}

// CreateReviewRequest - запрос отзыва о второй стороне работы.
type CreateReviewRequest struct {
	Rating  int    `json:"rating" binding:"required"`
	Comment string `json:"comment"`
}

// SendMessageRequest - сообщение в чат работы.
type SendMessageRequest struct {
	Message string `json:"message" binding:"required"`
}
