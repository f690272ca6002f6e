package handler

import (
	"log"
	"net/http"
	"time"

	"readyaimgo-dashboard/internal/ledger"
	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// BeamCoinHandler proxies the external BEAM Coin ledger and keeps the local
// cached balance roughly in sync. The cache is advisory: it is only served
// when the ledger itself is unreachable.
type BeamCoinHandler struct {
	DB     *gorm.DB
	Ledger *ledger.Client
}

func NewBeamCoinHandler(db *gorm.DB, lc *ledger.Client) *BeamCoinHandler {
	return &BeamCoinHandler{DB: db, Ledger: lc}
}

// GetBalance returns the live ledger balance, refreshing the local cache.
// When the ledger is down it falls back to the cached balance.
func (h *BeamCoinHandler) GetBalance(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "clientId is required")
		return
	}

	balance, err := h.Ledger.Balance(c.Request.Context(), clientID)
	if err != nil {
		log.Printf("beam ledger balance fetch failed for %s: %v", clientID, err)

		// serve the cached balance when the ledger is unavailable
		var client models.Client
		if dbErr := h.DB.Where("uid = ?", clientID).First(&client).Error; dbErr == nil {
			util.Success(c, util.Response{
				"balance": client.BeamCoinBalance,
				"uid":     clientID,
				"cached":  true,
				"error":   "Ledger unavailable, showing cached balance",
			})
			return
		}

		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to fetch BEAM Coin balance")
		return
	}

	now := time.Now()
	if err := h.DB.Model(&models.Client{}).
		Where("uid = ?", clientID).
		Updates(map[string]interface{}{
			"beam_coin_balance":      balance,
			"beam_coin_last_updated": &now,
		}).Error; err != nil {
		log.Printf("beam balance cache update failed for %s: %v", clientID, err)
	}

	util.Success(c, util.Response{
		"balance":     balance,
		"uid":         clientID,
		"lastUpdated": now.UTC().Format(time.RFC3339),
	})
}

// ListLedgerTransactions proxies the ledger history for a client.
func (h *BeamCoinHandler) ListLedgerTransactions(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "clientId is required")
		return
	}

	txns, err := h.Ledger.Transactions(c.Request.Context(), clientID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to fetch BEAM Coin transactions")
		return
	}

	util.Success(c, util.Response{
		"transactions": txns,
	})
}

type createLedgerTxnReq struct {
	ClientID    string  `json:"clientId" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=earn spend"`
	Amount      float64 `json:"amount" binding:"required,gt=0"`
	Description string  `json:"description" binding:"required,max=255"`
}

// CreateLedgerTransaction posts an earn/spend record to the ledger, then
// best-effort refreshes the cached balance (spends floor at zero).
func (h *BeamCoinHandler) CreateLedgerTransaction(c *gin.Context) {
	var req createLedgerTxnReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing required fields: clientId, type, amount, description")
		return
	}

	result, err := h.Ledger.AddTransaction(c.Request.Context(), ledger.Transaction{
		UID:         req.ClientID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
	})
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to record BEAM Coin transaction")
		return
	}

	h.updateCachedBalance(c, req.ClientID, req.Type, req.Amount)

	util.Success(c, util.Response{
		"success":     true,
		"message":     "BEAM Coin transaction recorded",
		"transaction": result,
	})
}

// updateCachedBalance adjusts the local mirror after a ledger write. Cache
// failures are logged and ignored.
func (h *BeamCoinHandler) updateCachedBalance(c *gin.Context, clientID, txnType string, amount float64) {
	var client models.Client
	if err := h.DB.Where("uid = ?", clientID).First(&client).Error; err != nil {
		if err != gorm.ErrRecordNotFound {
			log.Printf("beam cache lookup failed for %s: %v", clientID, err)
		}
		return
	}

	newBalance := client.BeamCoinBalance + amount
	if txnType == ledger.TypeSpend {
		newBalance = client.BeamCoinBalance - amount
		if newBalance < 0 {
			newBalance = 0
		}
	}

	now := time.Now()
	if err := h.DB.Model(&client).Updates(map[string]interface{}{
		"beam_coin_balance":      newBalance,
		"beam_coin_last_updated": &now,
	}).Error; err != nil {
		log.Printf("beam cache update failed for %s: %v", clientID, err)
	}
}
