package service

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/crypto/bcrypt"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
)

type mockUserRepo struct {
	mock.Mock
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	args := m.Called(ctx, user)
	if args.Error(0) == nil {
		user.ID = uuid.New()
	}
	return args.Error(0)
}

func (m *mockUserRepo) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	args := m.Called(ctx, email)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	args := m.Called(ctx, username)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) GetByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.User), args.Error(1)
}

func (m *mockUserRepo) UpdateLastLoginAt(ctx context.Context, userID uuid.UUID) error {
	args := m.Called(ctx, userID)
	return args.Error(0)
}

func (m *mockUserRepo) CreateSession(ctx context.Context, session *models.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

func (m *mockUserRepo) GetSessionByToken(ctx context.Context, refreshToken string) (*models.Session, error) {
	args := m.Called(ctx, refreshToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*models.Session), args.Error(1)
}

func (m *mockUserRepo) DeleteSession(ctx context.Context, refreshToken string) error {
	args := m.Called(ctx, refreshToken)
	return args.Error(0)
}

func newTestTokenManager() *TokenManager {
	return NewTokenManager("access-secret", "refresh-secret", 15*time.Minute, 720*time.Hour)
}

func TestAuthService_Register_Success(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(nil)
	users.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	user, pair, err := svc.Register(ctx, "Alice@Example.COM", "alice", "Password1", SessionMeta{})
	assert.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email)
	assert.Equal(t, models.RoleUser, user.Role)
	assert.True(t, user.IsActive)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)
}

func TestAuthService_Register_WeakPassword(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	_, _, err := svc.Register(ctx, "alice@example.com", "alice", "password", SessionMeta{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заглавную")
	users.AssertNotCalled(t, "Create")
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	users.On("Create", ctx, mock.AnythingOfType("*models.User")).Return(&pq.Error{Code: "23505"})

	_, _, err := svc.Register(ctx, "alice@example.com", "alice", "Password1", SessionMeta{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "уже заняты")
}

func TestAuthService_Login_Success(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.MinCost)
	user := &models.User{
		ID:           uuid.New(),
		Email:        "alice@example.com",
		PasswordHash: string(hash),
		Role:         models.RoleUser,
		IsActive:     true,
	}

	users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)
	users.On("UpdateLastLoginAt", ctx, user.ID).Return(nil)
	users.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	got, pair, err := svc.Login(ctx, "Alice@Example.com ", "Password1", SessionMeta{UserAgent: "test", IPAddress: "127.0.0.1"})
	assert.NoError(t, err)
	assert.Equal(t, user.ID, got.ID)
	assert.NotEmpty(t, pair.AccessToken)
}

func TestAuthService_Login_WrongPassword(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.MinCost)
	user := &models.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: string(hash), IsActive: true}
	users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)

	_, _, err := svc.Login(ctx, "alice@example.com", "WrongPass1", SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_UnknownEmail(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	users.On("GetByEmail", ctx, "ghost@example.com").Return(nil, repository.ErrUserNotFound)

	_, _, err := svc.Login(ctx, "ghost@example.com", "Password1", SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrInvalidCredentials)
}

func TestAuthService_Login_InactiveUser(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	hash, _ := bcrypt.GenerateFromPassword([]byte("Password1"), bcrypt.MinCost)
	user := &models.User{ID: uuid.New(), Email: "alice@example.com", PasswordHash: string(hash), IsActive: false}
	users.On("GetByEmail", ctx, "alice@example.com").Return(user, nil)

	_, _, err := svc.Login(ctx, "alice@example.com", "Password1", SessionMeta{})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "заблокирована")
}

func TestAuthService_Refresh_RotatesSession(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newTestTokenManager()
	svc := NewAuthService(users, tokens)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleUser, IsActive: true}
	pair, _, refreshExp, err := tokens.GeneratePair(user)
	assert.NoError(t, err)

	session := &models.Session{UserID: user.ID, RefreshToken: pair.RefreshToken, ExpiresAt: refreshExp}
	users.On("GetSessionByToken", ctx, pair.RefreshToken).Return(session, nil)
	users.On("GetByID", ctx, user.ID).Return(user, nil)
	users.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)
	users.On("CreateSession", ctx, mock.AnythingOfType("*models.Session")).Return(nil)

	newPair, err := svc.Refresh(ctx, pair.RefreshToken, SessionMeta{})
	assert.NoError(t, err)
	assert.NotEqual(t, pair.RefreshToken, newPair.RefreshToken)
	users.AssertCalled(t, "DeleteSession", ctx, pair.RefreshToken)
}

func TestAuthService_Refresh_InvalidToken(t *testing.T) {
	users := new(mockUserRepo)
	svc := NewAuthService(users, newTestTokenManager())
	ctx := context.Background()

	_, err := svc.Refresh(ctx, "not-a-jwt", SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
	users.AssertNotCalled(t, "GetSessionByToken")
}

func TestAuthService_Refresh_ExpiredSession(t *testing.T) {
	users := new(mockUserRepo)
	tokens := newTestTokenManager()
	svc := NewAuthService(users, tokens)
	ctx := context.Background()

	user := &models.User{ID: uuid.New(), Role: models.RoleUser, IsActive: true}
	pair, _, _, err := tokens.GeneratePair(user)
	assert.NoError(t, err)

	session := &models.Session{UserID: user.ID, RefreshToken: pair.RefreshToken, ExpiresAt: time.Now().Add(-time.Hour)}
	users.On("GetSessionByToken", ctx, pair.RefreshToken).Return(session, nil)
	users.On("DeleteSession", ctx, pair.RefreshToken).Return(nil)

	_, err = svc.Refresh(ctx, pair.RefreshToken, SessionMeta{})
	assert.ErrorIs(t, err, apperror.ErrUnauthorized)
}
