package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skhokho/linkup-backend/internal/dto"
	"github.com/skhokho/linkup-backend/internal/http/handlers/common"
	"github.com/skhokho/linkup-backend/internal/models"
	"github.com/skhokho/linkup-backend/internal/service"
	"github.com/skhokho/linkup-backend/internal/ws"
)

// JobHandler обслуживает жизненный цикл работ: найм, подтверждение
// выполнения, чат. Стороны контракта получают события через WebSocket.
type JobHandler struct {
	escrow *service.EscrowService
	hub    *ws.Hub
}

// NewJobHandler создаёт новый хэндлер.
func NewJobHandler(escrow *service.EscrowService, hub *ws.Hub) *JobHandler {
	return &JobHandler{escrow: escrow, hub: hub}
}

func (h *JobHandler) notifyParticipants(job *models.Job, event string) {
	if h.hub == nil {
		return
	}
	_ = h.hub.NotifyUsers([]uuid.UUID{job.CustomerID, job.ProviderID}, event, job)
}

// Hire POST /services/:id/hire
func (h *JobHandler) Hire(c *gin.Context) {
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

	job, err := h.escrow.Hire(c.Request.Context(), userID, serviceID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.notifyParticipants(job, ws.EventJobHired)
	c.JSON(http.StatusCreated, job)
}

// Complete POST /jobs/:id/complete
func (h *JobHandler) Complete(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.escrow.Complete(c.Request.Context(), userID, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.notifyParticipants(job, ws.EventJobCompleted)
	c.JSON(http.StatusOK, job)
}

// GetJob GET /jobs/:id
func (h *JobHandler) GetJob(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.escrow.GetJob(c.Request.Context(), userID, role, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, job)
}

// ListMyJobs GET /jobs/my
func (h *JobHandler) ListMyJobs(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	jobs, err := h.escrow.ListJobs(c.Request.Context(), userID, c.Query("status"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"jobs": jobs})
}

// SendMessage POST /jobs/:id/messages
func (h *JobHandler) SendMessage(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.SendMessageRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сообщение обязательно")
		return
	}

	msg, err := h.escrow.SendMessage(c.Request.Context(), userID, jobID, req.Message)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if h.hub != nil {
		job, jobErr := h.escrow.GetJob(c.Request.Context(), userID, "", jobID)
		if jobErr == nil {
			recipient := job.ProviderID
			if userID == job.ProviderID {
				recipient = job.CustomerID
			}
			_ = h.hub.NotifyUsers([]uuid.UUID{recipient}, ws.EventJobChatMessage, msg)
		}
	}

	c.JSON(http.StatusCreated, msg)
}

// ListMessages GET /jobs/:id/messages
func (h *JobHandler) ListMessages(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	messages, err := h.escrow.ListMessages(c.Request.Context(), userID, role, jobID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"messages": messages})
}
