package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/skhokho/linkup-backend/internal/dto"
	"github.com/skhokho/linkup-backend/internal/http/handlers/common"
	"github.com/skhokho/linkup-backend/internal/service"
)

// WalletHandler обслуживает операции кошелька.
type WalletHandler struct {
	wallets *service.WalletService
}

// NewWalletHandler создаёт новый хэндлер.
func NewWalletHandler(wallets *service.WalletService) *WalletHandler {
	return &WalletHandler{wallets: wallets}
}

// GetWallet GET /wallet
func (h *WalletHandler) GetWallet(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	info, err := h.wallets.GetWallet(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, info)
}

// Deposit POST /wallet/deposit
func (h *WalletHandler) Deposit(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сумма обязательна")
		return
	}

	transaction, err := h.wallets.Deposit(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Withdraw POST /wallet/withdraw
func (h *WalletHandler) Withdraw(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.AmountRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "сумма обязательна")
		return
	}

	transaction, err := h.wallets.Withdraw(c.Request.Context(), userID, req.Amount, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// Transfer POST /wallet/transfer
func (h *WalletHandler) Transfer(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.TransferRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "получатель и сумма обязательны")
		return
	}

	recipientID, err := uuid.Parse(req.RecipientID)
	if err != nil {
		common.RespondBadRequest(c, "неверный recipient_id")
		return
	}

	result, err := h.wallets.Transfer(c.Request.Context(), userID, recipientID, req.Amount, req.Description)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, result)
}

// ConvertReputation POST /wallet/reputation/convert
func (h *WalletHandler) ConvertReputation(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	var req dto.ConvertReputationRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		common.RespondBadRequest(c, "количество пунктов обязательно")
		return
	}

	transaction, err := h.wallets.ConvertReputation(c.Request.Context(), userID, req.Points)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, transaction)
}

// ListTransactions GET /wallet/transactions
func (h *WalletHandler) ListTransactions(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	limit, offset := common.GetPagination(c)

	transactions, err := h.wallets.ListTransactions(c.Request.Context(), userID, c.Query("type"), limit, offset)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{"transactions": transactions})
}

// Reconcile GET /wallet/reconcile
func (h *WalletHandler) Reconcile(c *gin.Context) {
	userID, err := common.CurrentUserID(c)
	if err != nil {
		common.RespondUnauthorized(c, err.Error())
		return
	}

	report, err := h.wallets.Reconcile(c.Request.Context(), userID)
	if err != nil {
		common.RespondAppError(c, err)
		return
	}

	c.JSON(http.StatusOK, gin.H{
		"report":     report,
		"consistent": report.Consistent(),
	})
}
