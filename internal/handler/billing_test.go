package handler

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"

	"readyaimgo-dashboard/internal/billing"
	"readyaimgo-dashboard/internal/config"
	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/notify"

	stripe "github.com/stripe/stripe-go/v81"
	"gorm.io/gorm"
)

func newBillingHandler(db *gorm.DB, notifier *notify.Notifier) *BillingHandler {
	if notifier == nil {
		notifier = notify.New("")
	}
	return NewBillingHandler(db, billing.New(config.StripeConfig{}), notifier, "")
}

func seedStripeClient(t *testing.T, db *gorm.DB, uid, customerID, plan string) *models.Client {
	t.Helper()
	client := seedClient(t, db, uid, creditsOf(300))
	if err := db.Model(client).Updates(map[string]interface{}{
		"stripe_customer_id": customerID,
		"plan_type":          plan,
	}).Error; err != nil {
		t.Fatalf("seed stripe client: %v", err)
	}
	return client
}

func subscriptionFor(customerID, nickname string) *stripe.Subscription {
	sub := &stripe.Subscription{Customer: &stripe.Customer{ID: customerID}}
	if nickname != "" {
		sub.Items = &stripe.SubscriptionItemList{
			Data: []*stripe.SubscriptionItem{{Price: &stripe.Price{Nickname: nickname}}},
		}
	}
	return sub
}

func planOf(t *testing.T, db *gorm.DB, uid string) string {
	t.Helper()
	var client models.Client
	if err := db.Where("uid = ?", uid).First(&client).Error; err != nil {
		t.Fatalf("load client: %v", err)
	}
	return client.PlanType
}

func TestWebhookSubscriptionUpdateSetsPlan(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "free")

	h := newBillingHandler(db, nil)
	h.handleSubscriptionUpdate(context.Background(), subscriptionFor("cus_123", "Pro"))

	if got := planOf(t, db, "client-1"); got != "Pro" {
		t.Errorf("planType = %q, want Pro", got)
	}
}

func TestWebhookSubscriptionUpdateDefaultsToStandard(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "free")

	h := newBillingHandler(db, nil)
	// a subscription event without line items still picks a plan
	h.handleSubscriptionUpdate(context.Background(), subscriptionFor("cus_123", ""))

	if got := planOf(t, db, "client-1"); got != "Standard" {
		t.Errorf("planType = %q, want Standard", got)
	}
}

func TestWebhookSubscriptionUpdateUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "free")

	h := newBillingHandler(db, nil)
	h.handleSubscriptionUpdate(context.Background(), subscriptionFor("cus_unknown", "Pro"))
	h.handleSubscriptionUpdate(context.Background(), &stripe.Subscription{})

	if got := planOf(t, db, "client-1"); got != "free" {
		t.Errorf("planType = %q, want untouched free", got)
	}
}

func TestWebhookUpgradeNoticeOnlyFromFree(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "free")

	var posts int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&posts, 1)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	h := newBillingHandler(db, notify.New(srv.URL))

	// free -> Pro announces the upgrade
	h.handleSubscriptionUpdate(context.Background(), subscriptionFor("cus_123", "Pro"))
	if got := atomic.LoadInt32(&posts); got != 1 {
		t.Fatalf("slack posts after first upgrade = %d, want 1", got)
	}

	// Pro -> Enterprise is a plan change, not an upgrade from free
	h.handleSubscriptionUpdate(context.Background(), subscriptionFor("cus_123", "Enterprise"))
	if got := atomic.LoadInt32(&posts); got != 1 {
		t.Errorf("slack posts after second update = %d, want still 1", got)
	}
	if got := planOf(t, db, "client-1"); got != "Enterprise" {
		t.Errorf("planType = %q, want Enterprise", got)
	}
}

func TestWebhookSubscriptionDeletedClearsPlan(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "Pro")

	h := newBillingHandler(db, nil)
	h.handleSubscriptionDeleted(subscriptionFor("cus_123", ""))

	if got := planOf(t, db, "client-1"); got != "" {
		t.Errorf("planType = %q, want cleared", got)
	}
}

func TestWebhookPaymentAppendsTransaction(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "Pro")

	h := newBillingHandler(db, nil)
	h.handlePaymentSucceeded(context.Background(), &stripe.Invoice{
		Customer:   &stripe.Customer{ID: "cus_123"},
		AmountPaid: 2999,
		Number:     "INV-1001",
	})

	var txn models.Transaction
	if err := db.Where("client_uid = ?", "client-1").First(&txn).Error; err != nil {
		t.Fatalf("load transaction: %v", err)
	}
	if txn.Type != models.TxnPayment {
		t.Errorf("Type = %q, want %q", txn.Type, models.TxnPayment)
	}
	if txn.Amount != 29.99 {
		t.Errorf("Amount = %v, want 29.99", txn.Amount)
	}
	if txn.Description != "Subscription payment - INV-1001" {
		t.Errorf("Description = %q", txn.Description)
	}
	if txn.RefID == "" {
		t.Error("RefID is empty")
	}
}

func TestWebhookPaymentUnknownCustomer(t *testing.T) {
	db := newTestDB(t)
	seedStripeClient(t, db, "client-1", "cus_123", "Pro")

	h := newBillingHandler(db, nil)
	h.handlePaymentSucceeded(context.Background(), &stripe.Invoice{
		Customer:   &stripe.Customer{ID: "cus_unknown"},
		AmountPaid: 2999,
	})
	h.handlePaymentSucceeded(context.Background(), &stripe.Invoice{AmountPaid: 2999})

	var count int64
	db.Model(&models.Transaction{}).Count(&count)
	if count != 0 {
		t.Errorf("transaction count = %d, want 0", count)
	}
}
