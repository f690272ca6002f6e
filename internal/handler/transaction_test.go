package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newTxnRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	h := NewTransactionHandler(db, wallet.NewCoordinator(db, nil))
	r.GET("/api/transactions", h.ListTransactions)
	r.POST("/api/transactions", h.CreateTransaction)
	return r
}

func TestCreateAndListTransactions(t *testing.T) {
	db := newTestDB(t)
	r := newTxnRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"clientId":"client-1","type":"credit","amount":25.5,"description":"manual credit"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("create status = %d: %s", w.Code, w.Body.String())
	}

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 1 {
		t.Fatalf("transaction count = %d, want 1", count)
	}

	w = httptest.NewRecorder()
	req = httptest.NewRequest(http.MethodGet, "/api/transactions?clientId=client-1", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("list status = %d", w.Code)
	}
	data := dataOf(t, w)
	txns, ok := data["transactions"].([]interface{})
	if !ok || len(txns) != 1 {
		t.Fatalf("transactions = %v, want one entry", data["transactions"])
	}
	first := txns[0].(map[string]interface{})
	if first["type"] != "credit" || first["amount"].(float64) != 25.5 {
		t.Errorf("transaction = %v", first)
	}
}

func TestCreateTransactionRejectsBadType(t *testing.T) {
	db := newTestDB(t)
	r := newTxnRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/transactions",
		strings.NewReader(`{"clientId":"client-1","type":"refund","amount":5,"description":"x"}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestListTransactionsRequiresClientID(t *testing.T) {
	db := newTestDB(t)
	r := newTxnRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/transactions", nil)
	r.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}
