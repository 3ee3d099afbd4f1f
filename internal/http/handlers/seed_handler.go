package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/skhokho/linkup-backend/internal/http/handlers/common"
	"github.com/skhokho/linkup-backend/internal/service"
)

// SeedHandler наполняет dev-окружение демо-данными.
// Маршрут доступен только в development.
type SeedHandler struct {
	seed *service.SeedService
}

// NewSeedHandler создаёт новый хэндлер.
func NewSeedHandler(seed *service.SeedService) *SeedHandler {
	return &SeedHandler{seed: seed}
}

// Seed обрабатывает POST /seed.
func (h *SeedHandler) Seed(c *gin.Context) {
	if err := h.seed.Seed(c.Request.Context()); err != nil {
		common.RespondError(c, http.StatusInternalServerError, "не удалось создать демо-данные: "+err.Error())
		return
	}
	common.RespondSuccess(c, http.StatusOK, "демо-данные готовы", nil)
}
