package service

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/pkg/apperror"
	"github.com/skhokho/linkup-backend/internal/repository"
	"github.com/skhokho/linkup-backend/internal/validation"
)

// CatalogRepo описывает хранилище каталога услуг.
type CatalogRepo interface {
	Create(ctx context.Context, svc *models.Service) error
	GetByID(ctx context.Context, id uuid.UUID) (*models.Service, error)
	List(ctx context.Context, category string, limit, offset int) ([]models.Service, error)
	ListByProvider(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.Service, error)
	Deactivate(ctx context.Context, id uuid.UUID) error
}

// CreateServiceInput содержит данные новой услуги.
type CreateServiceInput struct {
	Name        string
	Category    *string
	Description *string
	Price       decimal.Decimal
	Latitude    *float64
	Longitude   *float64
}

// CatalogService управляет каталогом услуг исполнителей.
type CatalogService struct {
	catalog CatalogRepo
}

// NewCatalogService создаёт сервис каталога.
func NewCatalogService(catalog CatalogRepo) *CatalogService {
	return &CatalogService{catalog: catalog}
}

// CreateService публикует новую услугу исполнителя.
func (s *CatalogService) CreateService(ctx context.Context, providerID uuid.UUID, input CreateServiceInput) (*models.Service, error) {
	if err := validation.ValidateLength("название услуги", input.Name, validation.MinServiceNameLength, validation.MaxServiceNameLength); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}
	if input.Category != nil {
		if err := validation.ValidateLength("категория", *input.Category, 1, validation.MaxCategoryLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if input.Description != nil {
		if err := validation.ValidateLength("описание", *input.Description, 0, validation.MaxDescriptionLength); err != nil {
			return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
		}
	}
	if err := validation.ValidateAmount(input.Price); err != nil {
		return nil, apperror.Wrap(err, apperror.ErrCodeValidation, err.Error())
	}

	svc := &models.Service{
		ProviderID:  providerID,
		Name:        input.Name,
		Category:    input.Category,
		Description: input.Description,
		Price:       input.Price,
		Latitude:    input.Latitude,
		Longitude:   input.Longitude,
	}
	if err := s.catalog.Create(ctx, svc); err != nil {
		return nil, mapCatalogError(err)
	}
	return svc, nil
}

// GetService возвращает услугу по идентификатору.
func (s *CatalogService) GetService(ctx context.Context, id uuid.UUID) (*models.Service, error) {
	svc, err := s.catalog.GetByID(ctx, id)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return svc, nil
}

// ListServices возвращает активные услуги, опционально по категории.
func (s *CatalogService) ListServices(ctx context.Context, category string, limit, offset int) ([]models.Service, error) {
	limit, offset = normalizePage(limit, offset)
	services, err := s.catalog.List(ctx, category, limit, offset)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return services, nil
}

// ListMyServices возвращает услуги исполнителя, включая снятые.
func (s *CatalogService) ListMyServices(ctx context.Context, providerID uuid.UUID, limit, offset int) ([]models.Service, error) {
	limit, offset = normalizePage(limit, offset)
	services, err := s.catalog.ListByProvider(ctx, providerID, limit, offset)
	if err != nil {
		return nil, mapCatalogError(err)
	}
	return services, nil
}

// DeactivateService снимает услугу с публикации. Снять может только
// её владелец; существующие работы по услуге продолжают жить.
func (s *CatalogService) DeactivateService(ctx context.Context, providerID, serviceID uuid.UUID) error {
	svc, err := s.catalog.GetByID(ctx, serviceID)
	if err != nil {
		return mapCatalogError(err)
	}
	if svc.ProviderID != providerID {
		return apperror.ErrForbidden
	}
	if err := s.catalog.Deactivate(ctx, serviceID); err != nil {
		return mapCatalogError(err)
	}
	return nil
}

// mapCatalogError переводит ошибки репозитория каталога в доменные.
func mapCatalogError(err error) error {
	var appErr *apperror.AppError
	switch {
	case err == nil:
		return nil
	case errors.As(err, &appErr):
		return err
	case errors.Is(err, repository.ErrServiceNotFound):
		return apperror.ErrServiceNotFound
	default:
		return apperror.Wrap(err, apperror.ErrCodeInternal, "операция с каталогом не выполнена")
	}
}
