package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/repository/common"
)

var ErrServiceNotFound = errors.New("service not found")

const serviceColumns = `id, provider_id, name, category, description, price, latitude, longitude, is_active, created_at`

// CatalogRepository отвечает за каталог услуг.
type CatalogRepository struct {
	db *sqlx.DB
}

// NewCatalogRepository создаёт экземпляр репозитория.
func NewCatalogRepository(db *sqlx.DB) *CatalogRepository {
	return &CatalogRepository{db: db}
}

// Create регистрирует новую услугу исполнителя.
func (r *CatalogRepository) Create(ctx context.Context, svc *models.Service) error {
	query := `
		INSERT INTO services (provider_id, name, category, description, price, latitude, longitude)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id, is_active, created_at
	`
	if err := r.db.QueryRowxContext(ctx, query,
		svc.ProviderID, svc.Name, svc.Category, svc.Description, svc.Price, svc.Latitude, svc.Longitude,
	).Scan(&svc.ID, &svc.IsActive, &svc.CreatedAt); err != nil {
		return fmt.Errorf("catalog repository: create %w", err)
	}
	return nil
}

// GetByID возвращает услугу по идентификатору.
func (r *CatalogRepository) GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	return common.GetByID[models.Service](ctx, r.db, "services", id, ErrServiceNotFound)
}

// List возвращает активные услуги, опционально по категории.
func (r *CatalogRepository) List(ctx context.Context, category string, limit, offset int) ([]models.Service, error) {
	var services []models.Service
	if category != "" {
		query := `
			SELECT ` + serviceColumns + ` FROM services
			WHERE is_active AND category = $1
			ORDER BY created_at DESC LIMIT $2 OFFSET $3
		`
		if err := r.db.SelectContext(ctx, &services, query, category, limit, offset); err != nil {
			return nil, fmt.Errorf("catalog repository: list by category %w", err)
		}
		return services, nil
	}

	query := `
		SELECT ` + serviceColumns + ` FROM services
		WHERE is_active
		ORDER BY created_at DESC LIMIT $1 OFFSET $2
	`
	if err := r.db.SelectContext(ctx, &services, query, limit, offset); err != nil {
		return nil, fmt.Errorf("catalog repository: list %w", err)
	}
	return services, nil
}

// ListByProvider возвращает услуги конкретного исполнителя.
func (r *CatalogRepository) ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.Service, error) {
	var services []models.Service
	query := `
		SELECT ` + serviceColumns + ` FROM services
		WHERE provider_id = $1
		ORDER BY created_at DESC LIMIT $2 OFFSET $3
	`
	if err := r.db.SelectContext(ctx, &services, query, providerID, limit, offset); err != nil {
		return nil, fmt.Errorf("catalog repository: list by provider %w", err)
	}
	return services, nil
}

// Deactivate снимает услугу с публикации.
func (r *CatalogRepository) Deactivate(ctx context.Context, id uuid.UUID) error {
	res, err := r.db.ExecContext(ctx, `UPDATE services SET is_active = FALSE WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("catalog repository: deactivate %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrServiceNotFound
	}
	return nil
}
