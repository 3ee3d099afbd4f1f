package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skhokho/linkup-backend/internal/dto"
	"github.com/skhokho/linkup-backend/internal/http/handlers/common"
	"github.com/skhokho/linkup-backend/internal/service"
)

// CatalogHandler обслуживает каталог услуг.
type CatalogHandler struct {
	catalog *service.CatalogService
}

// NewCatalogHandler создаёт новый хэндлер.
func NewCatalogHandler(catalog *service.CatalogService) *CatalogHandler {
	return &CatalogHandler{catalog: catalog}
}

// ListServices GET /services
func (h *CatalogHandler) ListServices(c *gin.Context) {
	limit, offset := common.GetPagination(c)
	category := c.Query("category")

	services, err := h.catalog.ListServices(c.Request.Context(), category, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

// GetService GET /services/:id
func (h *CatalogHandler) GetService(c *gin.Context) {
	serviceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	svc, err := h.catalog.GetService(c.Request.Context(), serviceID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, svc)
}

// CreateService POST /services
func (h *CatalogHandler) CreateService(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.CreateServiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "название и цена обязательны")
		return
	}

	svc, err := h.catalog.CreateService(c.Request.Context(), userID, service.CreateServiceInput{
		Name:        req.Name,
		Category:    req.Category,
		Description: req.Description,
		Price:       req.Price,
		Latitude:    req.Latitude,
		Longitude:   req.Longitude,
	})
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusCreated, svc)
}

// ListMyServices GET /services/my
func (h *CatalogHandler) ListMyServices(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	services, err := h.catalog.ListMyServices(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

// DeactivateService DELETE /services/:id
func (h *CatalogHandler) DeactivateService(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	serviceID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	if err := h.catalog.DeactivateService(c.Request.Context(), userID, serviceID); err != nil {
		common.RespondAppError(c, err)
		return
	}

	common.RespondSuccess(c, http.StatusOK, "услуга снята с публикации", nil)
}
