package handler

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"readyaimgo-dashboard/internal/util"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

func newWalletRouter(db *gorm.DB) *gin.Engine {
	r := gin.New()
	h := NewWalletHandler(wallet.NewCoordinator(db, nil))
	r.GET("/api/housing-wallet", h.GetHousingWallet)
	r.POST("/api/housing-wallet-redeem", h.Redeem)
	return r
}

func TestRedeemEndpointSuccess(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "client-1", creditsOf(300))
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/housing-wallet-redeem",
		strings.NewReader(`{"clientId":"client-1","credits":100}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200: %s", w.Code, w.Body.String())
	}
	data := dataOf(t, w)
	if data["success"] != true {
		t.Errorf("success = %v, want true", data["success"])
	}
	if data["newBalance"].(float64) != 200 {
		t.Errorf("newBalance = %v, want 200", data["newBalance"])
	}
	if data["redeemed"].(float64) != 100 {
		t.Errorf("redeemed = %v, want 100", data["redeemed"])
	}
}

func TestRedeemEndpointInsufficient(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "client-1", creditsOf(50))
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/housing-wallet-redeem",
		strings.NewReader(`{"clientId":"client-1","credits":100}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
	body := decodeEnvelope(t, w)
	if int(body["code"].(float64)) != util.CodeInsufficient {
		t.Errorf("code = %v, want %d", body["code"], util.CodeInsufficient)
	}
}

func TestRedeemEndpointUnknownClient(t *testing.T) {
	db := newTestDB(t)
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/housing-wallet-redeem",
		strings.NewReader(`{"clientId":"nobody","credits":100}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}

func TestRedeemEndpointBadBody(t *testing.T) {
	db := newTestDB(t)
	r := newWalletRouter(db)

	for _, body := range []string{
		`{}`,
		`{"clientId":"client-1"}`,
		`{"credits":100}`,
		`not json`,
	} {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/housing-wallet-redeem", strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
		r.ServeHTTP(w, req)

		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
	}
}

func TestRedeemEndpointNegativeCredits(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "client-1", creditsOf(300))
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/housing-wallet-redeem",
		strings.NewReader(`{"clientId":"client-1","credits":-10}`))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetHousingWallet(t *testing.T) {
	db := newTestDB(t)
	seedClient(t, db, "client-1", creditsOf(300))
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/housing-wallet?clientId=client-1", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", w.Code)
	}
	data := dataOf(t, w)
	if data["credits"].(float64) != 300 {
		t.Errorf("credits = %v, want 300", data["credits"])
	}
	if data["value"].(float64) != 450.0 {
		t.Errorf("value = %v, want 450.0", data["value"])
	}
	if data["description"] == "" {
		t.Error("description is empty")
	}
}

func TestGetHousingWalletMissingParam(t *testing.T) {
	db := newTestDB(t)
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/housing-wallet", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", w.Code)
	}
}

func TestGetHousingWalletUnknownClient(t *testing.T) {
	db := newTestDB(t)
	r := newWalletRouter(db)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/api/housing-wallet?clientId=nobody", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusNotFound {
		t.Fatalf("status = %d, want 404", w.Code)
	}
}
