package router

import (
	"readyaimgo-dashboard/internal/billing"
	"readyaimgo-dashboard/internal/config"
	"readyaimgo-dashboard/internal/handler"
	"readyaimgo-dashboard/internal/ledger"
	"readyaimgo-dashboard/internal/middleware"
	"readyaimgo-dashboard/internal/notify"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// SetupRouter configures the Gin engine and wires every handler to its
// collaborators (ledger client, Stripe handle, Slack notifier, coordinator).
func SetupRouter(cfg *config.Config, db *gorm.DB) *gin.Engine {
	if cfg.Server.Mode != "" {
		gin.SetMode(cfg.Server.Mode)
	}
	r := gin.New()
	r.Use(gin.Logger(), gin.Recovery())

	ledgerClient := ledger.New(cfg.Ledger)
	stripeSvc := billing.New(cfg.Stripe)
	notifier := notify.New(cfg.Slack.WebhookURL)
	coordinator := wallet.NewCoordinator(db, ledgerClient)

	// ====== API ======
	api := r.Group("/api")

	jwtSecret := cfg.JWT.Secret
	jwtIssuer := cfg.JWT.Issuer

	authHandler := handler.NewAuthHandler(db, jwtSecret, jwtIssuer, cfg.JWT.ExpireHours, notifier)
	api.POST("/auth/register", authHandler.Register)
	api.POST("/auth/login", authHandler.Login)

	billingHandler := handler.NewBillingHandler(db, stripeSvc, notifier, cfg.Server.AppURL)
	// Stripe calls this with its own signature scheme, not a session token
	api.POST("/stripe/webhook", billingHandler.Webhook)

	protected := api.Group("")
	protected.Use(middleware.AuthMiddleware(jwtSecret, jwtIssuer, db))

	protected.GET("/me", handler.GetMe)

	walletHandler := handler.NewWalletHandler(coordinator)
	protected.GET("/housing-wallet", walletHandler.GetHousingWallet)
	protected.POST("/housing-wallet-redeem", walletHandler.Redeem)

	txnHandler := handler.NewTransactionHandler(db, coordinator)
	protected.GET("/transactions", txnHandler.ListTransactions)
	protected.POST("/transactions", txnHandler.CreateTransaction)

	beamHandler := handler.NewBeamCoinHandler(db, ledgerClient)
	protected.GET("/beam-coin", beamHandler.GetBalance)
	protected.GET("/beam-coin/transactions", beamHandler.ListLedgerTransactions)
	protected.POST("/beam-coin/transactions", beamHandler.CreateLedgerTransaction)

	protected.GET("/stripe/subscription", billingHandler.GetSubscription)
	protected.POST("/stripe/checkout", billingHandler.CreateCheckout)
	protected.POST("/stripe/portal", billingHandler.CreatePortal)

	notifyHandler := handler.NewNotifyHandler(notifier)
	protected.POST("/slack/notify", notifyHandler.Notify)

	admin := protected.Group("/admin")
	admin.Use(middleware.RequireAdmin())

	adminHandler := handler.NewAdminHandler(db, ledgerClient, cfg.App.PageSize)
	admin.GET("/clients", adminHandler.ListClients)
	admin.GET("/transactions", adminHandler.ListTransactions)
	admin.GET("/stats", adminHandler.Stats)
	admin.GET("/export/transactions.csv", adminHandler.ExportTransactionsCSV)
	admin.GET("/export/clients.csv", adminHandler.ExportClientsCSV)
	admin.GET("/export/transactions.xlsx", adminHandler.ExportTransactionsXLSX)

	return r
}
