package handler

import (
	"encoding/csv"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"time"

	"readyaimgo-dashboard/internal/ledger"
	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/xuri/excelize/v2"
	"gorm.io/gorm"
)

// AdminHandler serves the reporting endpoints. Listings prefer the ledger
// admin API and fall back to the local store when it is unreachable, same as
// the dashboard always has; exports read the local store, which is the
// authoritative audit trail.
type AdminHandler struct {
	DB       *gorm.DB
	Ledger   *ledger.Client
	PageSize int
}

func NewAdminHandler(db *gorm.DB, lc *ledger.Client, pageSize int) *AdminHandler {
	if pageSize <= 0 {
		pageSize = 100
	}
	return &AdminHandler{DB: db, Ledger: lc, PageSize: pageSize}
}

type adminClientResp struct {
	UID                  string  `json:"uid"`
	Name                 string  `json:"name"`
	Email                string  `json:"email"`
	PlanType             string  `json:"planType"`
	BeamCoinBalance      float64 `json:"beamCoinBalance"`
	HousingWalletBalance int64   `json:"housingWalletBalance"`
	LastActive           string  `json:"lastActive,omitempty"`
}

// ListClients returns all client accounts.
func (h *AdminHandler) ListClients(c *gin.Context) {
	if remote, err := h.Ledger.AdminClients(c.Request.Context()); err == nil && len(remote) > 0 {
		out := make([]adminClientResp, 0, len(remote))
		for _, rc := range remote {
			out = append(out, adminClientResp{
				UID:                  rc.UID,
				Name:                 rc.Name,
				Email:                rc.Email,
				PlanType:             rc.PlanType,
				BeamCoinBalance:      rc.BeamCoinBalance,
				HousingWalletBalance: int64(rc.HousingWalletBalance),
				LastActive:           rc.LastActive,
			})
		}
		util.Success(c, util.Response{"clients": out, "source": "ledger"})
		return
	} else if err != nil {
		log.Printf("ledger admin clients unavailable, falling back to local store: %v", err)
	}

	clients, err := h.localClients()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list clients")
		return
	}
	util.Success(c, util.Response{"clients": clients, "source": "local"})
}

func (h *AdminHandler) localClients() ([]adminClientResp, error) {
	var clients []models.Client
	if err := h.DB.Order("created_at DESC").Find(&clients).Error; err != nil {
		return nil, err
	}

	out := make([]adminClientResp, 0, len(clients))
	for _, cl := range clients {
		var housing int64
		if cl.HousingWalletBalance != nil {
			housing = *cl.HousingWalletBalance
		}
		resp := adminClientResp{
			UID:                  cl.UID,
			Name:                 cl.Name,
			Email:                cl.Email,
			PlanType:             cl.PlanType,
			BeamCoinBalance:      cl.BeamCoinBalance,
			HousingWalletBalance: housing,
		}
		if cl.BeamCoinLastUpdated != nil {
			resp.LastActive = cl.BeamCoinLastUpdated.UTC().Format(time.RFC3339)
		}
		out = append(out, resp)
	}
	return out, nil
}

// ListTransactions returns the most recent audit records across all clients.
func (h *AdminHandler) ListTransactions(c *gin.Context) {
	limit, _ := strconv.Atoi(c.Query("limit"))
	if limit <= 0 || limit > 1000 {
		limit = h.PageSize
	}

	if remote, err := h.Ledger.AdminTransactions(c.Request.Context(), limit); err == nil && len(remote) > 0 {
		util.Success(c, util.Response{"transactions": remote, "source": "ledger"})
		return
	} else if err != nil {
		log.Printf("ledger admin transactions unavailable, falling back to local store: %v", err)
	}

	var txns []models.Transaction
	if err := h.DB.Order("timestamp DESC").Limit(limit).Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to list transactions")
		return
	}

	out := make([]transactionResp, 0, len(txns))
	for i := range txns {
		out = append(out, toTransactionResp(&txns[i]))
	}
	util.Success(c, util.Response{"transactions": out, "source": "local"})
}

type monthActivityRow struct {
	Month string
	Earn  float64
	Spend float64
}

// Stats returns the overview KPIs.
func (h *AdminHandler) Stats(c *gin.Context) {
	if remote, err := h.Ledger.AdminStats(c.Request.Context()); err == nil {
		util.Success(c, util.Response{
			"totalBeamCoins":        remote.TotalBeamCoins,
			"totalClients":          remote.TotalClients,
			"totalUsdSubscriptions": remote.TotalUSDSubscriptions,
			"monthlyActivity":       remote.MonthlyActivity,
			"source":                "ledger",
		})
		return
	} else {
		log.Printf("ledger admin stats unavailable, computing locally: %v", err)
	}

	var totalBeamCoins float64
	if err := h.DB.Model(&models.Client{}).
		Select("COALESCE(SUM(beam_coin_balance), 0)").
		Scan(&totalBeamCoins).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute stats")
		return
	}

	var totalClients int64
	if err := h.DB.Model(&models.Client{}).Count(&totalClients).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute stats")
		return
	}

	var totalUSD float64
	if err := h.DB.Model(&models.Transaction{}).
		Where("type = ?", models.TxnPayment).
		Select("COALESCE(SUM(amount), 0)").
		Scan(&totalUSD).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute stats")
		return
	}

	// last 12 months of earn (payments + credits) vs spend (redemptions)
	var monthly []monthActivityRow
	if err := h.DB.Model(&models.Transaction{}).
		Select(`strftime('%Y-%m', timestamp) AS month,
			COALESCE(SUM(CASE WHEN type IN (?, ?) THEN amount ELSE 0 END), 0) AS earn,
			COALESCE(SUM(CASE WHEN type = ? THEN amount ELSE 0 END), 0) AS spend`,
			models.TxnPayment, models.TxnCredit, models.TxnRedemption).
		Group("month").
		Order("month DESC").
		Limit(12).
		Scan(&monthly).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to compute stats")
		return
	}

	activity := make([]ledger.MonthActivity, 0, len(monthly))
	for _, m := range monthly {
		activity = append(activity, ledger.MonthActivity{Month: m.Month, Earn: m.Earn, Spend: m.Spend})
	}

	util.Success(c, util.Response{
		"totalBeamCoins":        totalBeamCoins,
		"totalClients":          totalClients,
		"totalUsdSubscriptions": totalUSD,
		"monthlyActivity":       activity,
		"source":                "local",
	})
}

// ExportTransactionsCSV downloads the audit trail as CSV.
func (h *AdminHandler) ExportTransactionsCSV(c *gin.Context) {
	var txns []models.Transaction
	if err := h.DB.Order("timestamp DESC").Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.csv\"",
		time.Now().Format("20060102")))

	// UTF-8 BOM so Excel opens the file correctly
	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"UID", "Type", "Amount", "Description", "Timestamp"})
	for _, t := range txns {
		writer.Write([]string{
			t.ClientUID,
			t.Type,
			strconv.FormatFloat(t.Amount, 'f', 2, 64),
			t.Description,
			t.Timestamp.UTC().Format(time.RFC3339),
		})
	}
}

// ExportClientsCSV downloads all client accounts as CSV.
func (h *AdminHandler) ExportClientsCSV(c *gin.Context) {
	clients, err := h.localClients()
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load clients")
		return
	}

	c.Header("Content-Type", "text/csv; charset=utf-8")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"clients_%s.csv\"",
		time.Now().Format("20060102")))

	c.Writer.Write([]byte{0xEF, 0xBB, 0xBF})

	writer := csv.NewWriter(c.Writer)
	defer writer.Flush()

	writer.Write([]string{"UID", "Name", "Email", "Plan", "BEAM Balance", "Housing Wallet", "Last Active"})
	for _, cl := range clients {
		plan := cl.PlanType
		if plan == "" {
			plan = "None"
		}
		writer.Write([]string{
			cl.UID,
			cl.Name,
			cl.Email,
			plan,
			strconv.FormatFloat(cl.BeamCoinBalance, 'f', 2, 64),
			strconv.FormatInt(cl.HousingWalletBalance, 10),
			cl.LastActive,
		})
	}
}

// ExportTransactionsXLSX downloads the audit trail as a spreadsheet.
func (h *AdminHandler) ExportTransactionsXLSX(c *gin.Context) {
	var txns []models.Transaction
	if err := h.DB.Order("timestamp DESC").Find(&txns).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load transactions")
		return
	}

	f := excelize.NewFile()
	sheetName := "Transactions"
	index, err := f.NewSheet(sheetName)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create sheet")
		return
	}
	f.SetActiveSheet(index)
	// drop the default sheet excelize opens with
	f.DeleteSheet("Sheet1")

	headers := []string{"UID", "Type", "Amount", "Description", "Timestamp"}
	for i, hd := range headers {
		cell := fmt.Sprintf("%c1", 'A'+i)
		f.SetCellValue(sheetName, cell, hd)
	}

	for idx, t := range txns {
		row := idx + 2
		f.SetCellValue(sheetName, fmt.Sprintf("A%d", row), t.ClientUID)
		f.SetCellValue(sheetName, fmt.Sprintf("B%d", row), t.Type)
		f.SetCellValue(sheetName, fmt.Sprintf("C%d", row), t.Amount)
		f.SetCellValue(sheetName, fmt.Sprintf("D%d", row), t.Description)
		f.SetCellValue(sheetName, fmt.Sprintf("E%d", row), t.Timestamp.UTC().Format(time.RFC3339))
	}

	f.SetColWidth(sheetName, "A", "A", 38)
	f.SetColWidth(sheetName, "B", "B", 12)
	f.SetColWidth(sheetName, "C", "C", 12)
	f.SetColWidth(sheetName, "D", "D", 40)
	f.SetColWidth(sheetName, "E", "E", 22)

	c.Header("Content-Type", "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet")
	c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"transactions_%s.xlsx\"",
		time.Now().Format("20060102")))

	if err := f.Write(c.Writer); err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to export")
	}
}
