package handler

import (
	"net/http"
	"time"

	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/util"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionHandler serves the local audit-record endpoints.
type TransactionHandler struct {
	DB          *gorm.DB
	Coordinator *wallet.Coordinator
}

func NewTransactionHandler(db *gorm.DB, co *wallet.Coordinator) *TransactionHandler {
	return &TransactionHandler{DB: db, Coordinator: co}
}

type transactionResp struct {
	ID          string    `json:"id"`
	ClientID    string    `json:"clientId"`
	Type        string    `json:"type"`
	Amount      float64   `json:"amount"`
	Description string    `json:"description"`
	Timestamp   time.Time `json:"timestamp"`
}

func toTransactionResp(t *models.Transaction) transactionResp {
	return transactionResp{
		ID:          t.RefID,
		ClientID:    t.ClientUID,
		Type:        t.Type,
		Amount:      t.Amount,
		Description: t.Description,
		Timestamp:   t.Timestamp,
	}
}

// ListTransactions returns a client's audit records, most recent first.
func (h *TransactionHandler) ListTransactions(c *gin.Context) {
	clientID := c.Query("clientId")
	if clientID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "clientId is required")
		return
	}

	txns, err := h.Coordinator.Transactions(c.Request.Context(), clientID)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list transactions")
		return
	}

	out := make([]transactionResp, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResp(&txns[i]))
	}
	util.Success(c, util.Response{
		"transactions": out,
	})
}

type createTransactionReq struct {
	ClientID    string  `json:"clientId" binding:"required"`
	Type        string  `json:"type" binding:"required,oneof=payment redemption credit"`
	Amount      float64 `json:"amount" binding:"required"`
	Description string  `json:"description" binding:"required,max=255"`
}

// CreateTransaction appends a manual audit record.
func (h *TransactionHandler) CreateTransaction(c *gin.Context) {
	var req createTransactionReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "missing required fields")
		return
	}

	txn := models.Transaction{
		RefID:       uuid.NewString(),
		ClientUID:   req.ClientID,
		Type:        req.Type,
		Amount:      req.Amount,
		Description: req.Description,
		Timestamp:   time.Now(),
	}
	if err := h.DB.Create(&txn).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create transaction")
		return
	}

	util.Success(c, util.Response{
		"transaction": toTransactionResp(&txn),
	})
}
