package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log"
	"net/http"
	"time"

	"readyaimgo-dashboard/internal/billing"
	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/notify"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	stripe "github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
)

// BillingHandler serves subscription state, checkout/portal session creation
// and the Stripe webhook.
type BillingHandler struct {
	DB       *gorm.DB
	Stripe   *billing.Service
	Notifier *notify.Notifier
	AppURL   string
}

func NewBillingHandler(db *gorm.DB, svc *billing.Service, notifier *notify.Notifier, appURL string) *BillingHandler {
	if appURL == "" {
		appURL = "http://localhost:8080"
	}
	return &BillingHandler{DB: db, Stripe: svc, Notifier: notifier, AppURL: appURL}
}

// GetSubscription returns the active subscription summary for a customer.
func (h *BillingHandler) GetSubscription(c *gin.Context) {
	customerID := c.Query("customerId")
	if customerID == "" {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "customerId is required")
		return
	}

	sub, err := h.Stripe.ActiveSubscription(customerID)
	if err != nil {
		if errors.Is(err, billing.ErrNoSubscription) {
			util.Error(c, http.StatusNotFound, util.CodeNotFound, "no active subscription")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to fetch subscription")
		}
		return
	}

	util.Success(c, util.Response{
		"planName":         sub.PlanName,
		"renewalDate":      sub.RenewalDate.Format(time.RFC3339),
		"amount":           sub.Amount,
		"status":           sub.Status,
		"stripeCustomerId": sub.StripeCustomerID,
	})
}

type checkoutReq struct {
	ClientID string `json:"clientId" binding:"required"`
	Email    string `json:"email" binding:"required,email"`
}

// CreateCheckout creates a subscription checkout session. The resolved
// Stripe customer id is persisted on the client row so webhook events can be
// attributed later.
func (h *BillingHandler) CreateCheckout(c *gin.Context) {
	var req checkoutReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "clientId and email are required")
		return
	}

	customerID, err := h.Stripe.EnsureCustomer(req.ClientID, req.Email)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to resolve Stripe customer")
		return
	}

	if err := h.DB.Model(&models.Client{}).
		Where("uid = ?", req.ClientID).
		Update("stripe_customer_id", customerID).Error; err != nil {
		log.Printf("stripe customer id save failed for %s: %v", req.ClientID, err)
	}

	url, err := h.Stripe.CheckoutURL(req.ClientID, req.Email, customerID, h.AppURL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create checkout session")
		return
	}

	util.Success(c, util.Response{"url": url})
}

type portalReq struct {
	CustomerID string `json:"customerId" binding:"required"`
}

// CreatePortal creates a billing-portal session.
func (h *BillingHandler) CreatePortal(c *gin.Context) {
	var req portalReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "customerId is required")
		return
	}

	url, err := h.Stripe.PortalURL(req.CustomerID, h.AppURL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create portal session")
		return
	}

	util.Success(c, util.Response{"url": url})
}

// Webhook handles signature-verified Stripe events.
func (h *BillingHandler) Webhook(c *gin.Context) {
	payload, err := io.ReadAll(io.LimitReader(c.Request.Body, 1<<20))
	if err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "failed to read payload")
		return
	}

	event, err := h.Stripe.VerifyWebhook(payload, c.GetHeader("Stripe-Signature"))
	if err != nil {
		log.Printf("stripe webhook verification failed: %v", err)
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "webhook verification failed")
		return
	}

	switch event.Type {
	case "customer.subscription.created", "customer.subscription.updated":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err == nil {
			h.handleSubscriptionUpdate(c.Request.Context(), &sub)
		}
	case "customer.subscription.deleted":
		var sub stripe.Subscription
		if err := json.Unmarshal(event.Data.Raw, &sub); err == nil {
			h.handleSubscriptionDeleted(&sub)
		}
	case "invoice.payment_succeeded":
		var invoice stripe.Invoice
		if err := json.Unmarshal(event.Data.Raw, &invoice); err == nil {
			h.handlePaymentSucceeded(c.Request.Context(), &invoice)
		}
	}

	c.JSON(http.StatusOK, gin.H{"received": true})
}

func (h *BillingHandler) handleSubscriptionUpdate(ctx context.Context, sub *stripe.Subscription) {
	if sub.Customer == nil {
		return
	}

	var client models.Client
	if err := h.DB.Where("stripe_customer_id = ?", sub.Customer.ID).First(&client).Error; err != nil {
		return
	}

	newPlan := "Standard"
	if sub.Items != nil && len(sub.Items.Data) > 0 && sub.Items.Data[0].Price != nil && sub.Items.Data[0].Price.Nickname != "" {
		newPlan = sub.Items.Data[0].Price.Nickname
	}

	oldPlan := client.PlanType
	if err := h.DB.Model(&client).Update("plan_type", newPlan).Error; err != nil {
		log.Printf("plan update failed for %s: %v", client.UID, err)
		return
	}

	if oldPlan == "free" && newPlan != "free" {
		if err := h.Notifier.Upgrade(ctx, client.Email, client.Name, newPlan); err != nil {
			log.Printf("slack upgrade notice failed for %s: %v", client.Email, err)
		}
	}
}

func (h *BillingHandler) handleSubscriptionDeleted(sub *stripe.Subscription) {
	if sub.Customer == nil {
		return
	}
	if err := h.DB.Model(&models.Client{}).
		Where("stripe_customer_id = ?", sub.Customer.ID).
		Update("plan_type", "").Error; err != nil {
		log.Printf("plan clear failed for customer %s: %v", sub.Customer.ID, err)
	}
}

func (h *BillingHandler) handlePaymentSucceeded(ctx context.Context, invoice *stripe.Invoice) {
	if invoice.Customer == nil {
		return
	}

	var client models.Client
	if err := h.DB.Where("stripe_customer_id = ?", invoice.Customer.ID).First(&client).Error; err != nil {
		return
	}

	amount := float64(invoice.AmountPaid) / 100
	description := "Subscription payment - " + invoice.Number

	txn := models.Transaction{
		RefID:       uuid.NewString(),
		ClientUID:   client.UID,
		Type:        models.TxnPayment,
		Amount:      amount,
		Description: description,
		Timestamp:   time.Now(),
	}
	if err := h.DB.Create(&txn).Error; err != nil {
		log.Printf("payment record failed for %s: %v", client.UID, err)
	}

	if err := h.Notifier.Payment(ctx, client.Email, amount, description); err != nil {
		log.Printf("slack payment notice failed for %s: %v", client.Email, err)
	}
}
