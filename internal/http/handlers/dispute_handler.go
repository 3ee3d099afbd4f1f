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

// DisputeHandler обслуживает споры и арбитраж.
type DisputeHandler struct {
	disputes *service.DisputeService
	escrow   *service.EscrowService
	hub      *ws.Hub
}

// NewDisputeHandler создаёт новый хэндлер.
func NewDisputeHandler(disputes *service.DisputeService, escrow *service.EscrowService, hub *ws.Hub) *DisputeHandler {
	return &DisputeHandler{disputes: disputes, escrow: escrow, hub: hub}
}

func (h *DisputeHandler) notifyParticipants(job *models.Job, event string, data any) {
	if h.hub == nil || job == nil {
		return
	}
	_ = h.hub.NotifyUsers([]uuid.UUID{job.CustomerID, job.ProviderID}, event, data)
}

// Raise POST /jobs/:id/dispute
func (h *DisputeHandler) Raise(c *gin.Context) {
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

	var req dto.RaiseDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "причина спора обязательна")
		return
	}

	d, err := h.disputes.Raise(c.Request.Context(), userID, jobID, req.Reason)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	if job, jobErr := h.escrow.GetJob(c.Request.Context(), userID, models.RoleAdmin, jobID); jobErr == nil {
		h.notifyParticipants(job, ws.EventJobDisputed, d)
	}

	c.JSON(http.StatusCreated, d)
}

// GetJobDispute GET /jobs/:id/dispute
func (h *DisputeHandler) GetJobDispute(c *gin.Context) {
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

	d, err := h.disputes.GetOpenForJob(c.Request.Context(), userID, role, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// GetDispute GET /disputes/:id
func (h *DisputeHandler) GetDispute(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	d, err := h.disputes.GetDispute(c.Request.Context(), userID, role, disputeID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, d)
}

// ListMyDisputes GET /disputes
func (h *DisputeHandler) ListMyDisputes(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListMy(c.Request.Context(), userID, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// ListOpenDisputes GET /admin/disputes
func (h *DisputeHandler) ListOpenDisputes(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	disputes, err := h.disputes.ListOpen(c.Request.Context(), role, limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"disputes": disputes})
}

// Resolve POST /admin/disputes/:id/resolve
func (h *DisputeHandler) Resolve(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}
	role, _ := common.CurrentUserRole(c)

	disputeID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	var req dto.ResolveDisputeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "исход и решение обязательны")
		return
	}

	d, job, err := h.disputes.Resolve(c.Request.Context(), userID, role, disputeID, req.Outcome, req.Notes)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.notifyParticipants(job, ws.EventJobResolved, gin.H{"dispute": d, "job": job})
	c.JSON(http.StatusOK, gin.H{"dispute": d, "job": job})
}

// ForceRelease POST /admin/jobs/:id/release
func (h *DisputeHandler) ForceRelease(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.escrow.ForceRelease(c.Request.Context(), role, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.notifyParticipants(job, ws.EventJobResolved, job)
	c.JSON(http.StatusOK, job)
}

// ForceRefund POST /admin/jobs/:id/refund
func (h *DisputeHandler) ForceRefund(c *gin.Context) {
	role, err := common.CurrentUserRole(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	jobID, err := common.ParseUUIDParam(c, "id")
	if err != nil {
		common.RespondBadRequest(c, err.Error())
		return
	}

	job, err := h.escrow.ForceRefund(c.Request.Context(), role, jobID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	h.notifyParticipants(job, ws.EventJobResolved, job)
	c.JSON(http.StatusOK, job)
}
