package dto

import (
	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/service"
)

// ErrorResponse - стандартный формат ошибки API.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

// SuccessResponse - стандартный формат успешного ответа с сообщением.
type SuccessResponse struct {
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
}

// AuthResponse - ответ на регистрацию, вход и обновление токенов.
type AuthResponse struct {
	User   *models.User       `json:"user,omitempty"`
	Tokens *service.TokenPair `json:"tokens"`
}

// ProfileResponse - публичный профиль с агрегатами репутации.
type ProfileResponse struct {
	*models.User
	Rating *service.UserRating `json:"rating,omitempty"`
}
