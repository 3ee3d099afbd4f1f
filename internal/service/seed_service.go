package service

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
	"golang.org/x/crypto/bcrypt"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/repository"
)

// SeedService наполняет dev-окружение демо-данными: пользователи с
// балансом, арбитр и несколько услуг в каталоге. Повторный запуск
// ничего не делает.
type SeedService struct {
	users   UserRepo
	wallets WalletRepo
	catalog CatalogRepo
	log     *logrus.Logger
}

// NewSeedService создаёт сервис демо-данных.
func NewSeedService(users UserRepo, wallets WalletRepo, catalog CatalogRepo, log *logrus.Logger) *SeedService {
	return &SeedService{users: users, wallets: wallets, catalog: catalog, log: log}
}

type seedUser struct {
	email    string
	username string
	role     string
	balance  decimal.Decimal
}

type seedService struct {
	provider string // email владельца
	name     string
	category string
	price    decimal.Decimal
}

// Seed создаёт демо-данные, если их ещё нет.
func (s *SeedService) Seed(ctx context.Context) error {
	const demoPassword = "Demo1234"

	seedUsers := []seedUser{
		{email: "alice@linkup.dev", username: "alice", role: models.RoleUser, balance: decimal.NewFromInt(1000)},
		{email: "bob@linkup.dev", username: "bob", role: models.RoleUser, balance: decimal.NewFromInt(500)},
		{email: "carol@linkup.dev", username: "carol", role: models.RoleUser, balance: decimal.NewFromInt(250)},
		{email: "arbiter@linkup.dev", username: "arbiter", role: models.RoleModerator, balance: decimal.Zero},
	}

	seedServices := []seedService{
		{provider: "bob@linkup.dev", name: "Сборка мебели", category: "home", price: decimal.NewFromInt(120)},
		{provider: "bob@linkup.dev", name: "Мелкий ремонт", category: "home", price: decimal.NewFromInt(80)},
		{provider: "carol@linkup.dev", name: "Репетитор по математике", category: "education", price: decimal.NewFromInt(60)},
	}

	if _, err := s.users.GetByEmail(ctx, seedUsers[0].email); err == nil {
		s.log.Debug("seed: демо-данные уже существуют, пропускаем")
		return nil
	} else if !errors.Is(err, repository.ErrUserNotFound) {
		return err
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(demoPassword), bcrypt.DefaultCost)
	if err != nil {
		return err
	}

	byEmail := make(map[string]*models.User, len(seedUsers))
	for _, su := range seedUsers {
		user := &models.User{
			Email:        su.email,
			Username:     su.username,
			PasswordHash: string(hash),
			Role:         su.role,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return err
		}
		byEmail[su.email] = user

		if su.balance.IsPositive() {
			if _, err := s.wallets.Deposit(ctx, user.ID, su.balance, "Стартовый демо-баланс"); err != nil {
				return err
			}
		}
	}

	for _, ss := range seedServices {
		owner := byEmail[ss.provider]
		category := ss.category
		svc := &models.Service{
			ProviderID: owner.ID,
			Name:       ss.name,
			Category:   &category,
			Price:      ss.price,
		}
		if err := s.catalog.Create(ctx, svc); err != nil {
			return err
		}
	}

	s.log.WithField("users", len(seedUsers)).Info("seed: демо-данные созданы")
	return nil
}
