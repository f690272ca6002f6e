package handler

import (
	"errors"
	"net/http"

	"readyaimgo-dashboard/internal/util"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
)

// WalletHandler serves the housing wallet read and redemption endpoints.
type WalletHandler struct {
	Coordinator *wallet.Coordinator
}

func NewWalletHandler(co *wallet.Coordinator) *WalletHandler {
	return &WalletHandler{Coordinator: co}
}

// GetHousingWallet returns {credits, value, description} for a client.
func (h *WalletHandler) GetHousingWallet(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "clientId is required")
		return
	}

	summary, err := h.Coordinator.HousingWallet(c.Request.Context(), clientID)
	if err != nil {
		if errors.Is(err, wallet.ErrNotFound) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "client not found")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load housing wallet")
		}
		return
	}

	util.Success(c, util.Response{
		"credits":     summary.Credits,
		"value":       summary.Value,
		"description": summary.Description,
	})
}

type redeemReq struct {
	ClientID    string `json:"clientId" binding:"required"`
	Credits     int64  `json:"credits" binding:"required"`
	Description string `json:"description" binding:"max=255"`
}

// Redeem debits housing wallet credits.
func (h *WalletHandler) Redeem(c *gin.Context) {
	var req redeemReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing required fields: clientId, credits")
		return
	}

	result, err := h.Coordinator.Redeem(c.Request.Context(), req.ClientID, req.Credits, req.Description)
	if err != nil {
		switch {
		case errors.Is(err, wallet.ErrInvalidCredits):
			util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "credits must be a positive integer")
		case errors.Is(err, wallet.ErrNotFound):
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "client not found")
		case errors.Is(err, wallet.ErrInsufficientBalance):
			util.Error(c, http.StatusBadRequest, util.CodeInsufficient, "insufficient housing wallet credits")
		default:
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to process redemption")
		}
		return
	}

	util.Success(c, util.Response{
		"success":    true,
		"message":    "Housing credits redeemed successfully",
		"newBalance": result.NewBalance,
		"redeemed":   result.Redeemed,
	})
}
