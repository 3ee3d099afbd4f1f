package service

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/crypto/bcrypt"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
	"github.com/skhokho/linkup-backend/internal/repository/common"
	"github.com/skhokho/linkup-backend/internal/validation"
)

// UserRepo описывает хранилище пользователей и их сессий.
type UserRepo interface {
	Create(ctx context.Context, user *models.User) error
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.User, error)
	UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error
	CreateSession(ctx context.Context, session *models.Session) error
	GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error)
	DeleteSession(ctx context.Context, refreshToken string) error
}

// SessionMeta содержит метаданные клиента для сохранения сессии.
type SessionMeta struct {
	UserAgent string
	IPAddress string
}

// AuthService отвечает за регистрацию, вход и ротацию refresh-токенов.
type AuthService struct {
	users  UserRepo
	tokens *TokenManager
}

// NewAuthService создаёт сервис аутентификации.
func NewAuthService(users UserRepo, tokens *TokenManager) *AuthService {
	return &AuthService{users: users, tokens: tokens}
}

// Register создаёт нового пользователя с нулевым кошельком и выдаёт
// пару токенов. Роль всегда user: арбитров назначают вручную.
func (s *AuthService) Register(ctx context.Context, email, username, password string, meta SessionMeta) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))
	username = strings.TrimSpace(username)

	if err := validation.ValidateEmail(email); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidateUsername(username); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if err := validation.ValidatePassword(password); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обработать пароль")
	}

	user := &models.User{
		Email:        email,
		Username:     username,
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}
	if err := s.users.Create(ctx, user); err != nil {
		if common.IsUniqueViolation(err) {
			return nil, nil, apperror.New(apperror.ErrCodeConflict, "email или имя пользователя уже заняты")
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось создать пользователя")
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Login проверяет учётные данные и выдаёт пару токенов.
func (s *AuthService) Login(ctx context.Context, email, password string, meta SessionMeta) (*models.User, *TokenPair, error) {
	email = strings.ToLower(strings.TrimSpace(email))

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, nil, apperror.ErrInvalidCredentials
		}
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выполнить вход")
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return nil, nil, apperror.ErrInvalidCredentials
	}
	if !user.IsActive {
		return nil, nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись заблокирована")
	}

	if err := s.users.UpdateLastLoginAt(ctx, user.ID); err != nil {
		return nil, nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выполнить вход")
	}

	pair, err := s.issueSession(ctx, user, meta)
	if err != nil {
		return nil, nil, err
	}
	return user, pair, nil
}

// Refresh ротирует refresh-токен: старая сессия удаляется, выдаётся
// новая пара токенов.
func (s *AuthService) Refresh(ctx context.Context, refreshToken string, meta SessionMeta) (*TokenPair, error) {
	if _, err := s.tokens.ParseRefresh(refreshToken); err != nil {
		return nil, apperror.ErrUnauthorized
	}

	session, err := s.users.GetSessionByToken(ctx, refreshToken)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUnauthorized
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить сессию")
	}
	if time.Now().After(session.ExpiresAt) {
		_ = s.users.DeleteSession(ctx, refreshToken)
		return nil, apperror.ErrUnauthorized
	}

	user, err := s.users.GetByID(ctx, session.UserID)
	if err != nil {
		return nil, apperror.ErrUnauthorized
	}
	if !user.IsActive {
		return nil, apperror.New(apperror.ErrCodeForbidden, "учётная запись заблокирована")
	}

	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось обновить сессию")
	}

	return s.issueSession(ctx, user, meta)
}

// Logout завершает сессию по refresh-токену.
func (s *AuthService) Logout(ctx context.Context, refreshToken string) error {
	if err := s.users.DeleteSession(ctx, refreshToken); err != nil {
		return apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось завершить сессию")
	}
	return nil
}

// GetProfile возвращает пользователя по идентификатору.
func (s *AuthService) GetProfile(ctx context.Context, userID uuid.UUID) (*models.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil, apperror.ErrUserNotFound
		}
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось получить профиль")
	}
	return user, nil
}

// issueSession выпускает пару токенов и сохраняет refresh-сессию.
func (s *AuthService) issueSession(ctx context.Context, user *models.User, meta SessionMeta) (*TokenPair, error) {
	pair, _, refreshExp, err := s.tokens.GeneratePair(user)
	if err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось выпустить токены")
	}

	session := &models.Session{
		UserID:       user.ID,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    refreshExp,
	}
	if meta.UserAgent != "" {
		session.UserAgent = &meta.UserAgent
	}
	if meta.IPAddress != "" {
		session.IPAddress = &meta.IPAddress
	}
	if err := s.users.CreateSession(ctx, session); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeInternal, "не удалось сохранить сессию")
	}
	return pair, nil
}
