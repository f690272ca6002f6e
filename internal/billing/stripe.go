// Package billing wraps the Stripe API behind an explicitly-lifetimed
// handle. The underlying client is built lazily on first use so a missing
// secret key fails the first billing call, not process start.
package billing

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"readyaimgo-dashboard/internal/config"

	stripe "github.com/stripe/stripe-go/v81"
	"github.com/stripe/stripe-go/v81/client"
	"github.com/stripe/stripe-go/v81/webhook"
)

// ErrNoSubscription means the customer has no active subscription.
var ErrNoSubscription = errors.New("no active subscription")

// Subscription is the dashboard-facing subscription summary.
type Subscription struct {
	PlanName         string    `json:"planName"`
	RenewalDate      time.Time `json:"renewalDate"`
	Amount           float64   `json:"amount"`
	Status           string    `json:"status"`
	StripeCustomerID string    `json:"stripeCustomerId"`
}

// Service is the process-wide Stripe handle. Construct once with New and
// pass it where needed.
type Service struct {
	cfg config.StripeConfig

	once sync.Once
	api  *client.API
	err  error
}

func New(cfg config.StripeConfig) *Service {
	return &Service{cfg: cfg}
}

// API returns the lazily-built Stripe client, failing fast on first use if
// the secret key is missing.
func (s *Service) API() (*client.API, error) {
	s.once.Do(func() {
		if s.cfg.SecretKey == "" {
			s.err = errors.New("stripe secret key is not configured")
			return
		}
		s.api = &client.API{}
		s.api.Init(s.cfg.SecretKey, nil)
	})
	return s.api, s.err
}

// PriceID returns the configured subscription price.
func (s *Service) PriceID() string {
	if s.cfg.PriceID != "" {
		return s.cfg.PriceID
	}
	return "price_test_default"
}

// ActiveSubscription returns the customer's active subscription summary.
func (s *Service) ActiveSubscription(customerID string) (*Subscription, error) {
	api, err := s.API()
	if err != nil {
		return nil, err
	}

	params := &stripe.SubscriptionListParams{
		Customer: stripe.String(customerID),
		Status:   stripe.String(string(stripe.SubscriptionStatusActive)),
	}
	params.Limit = stripe.Int64(1)

	iter := api.Subscriptions.List(params)
	if !iter.Next() {
		if err := iter.Err(); err != nil {
			return nil, fmt.Errorf("list subscriptions: %w", err)
		}
		return nil, ErrNoSubscription
	}
	sub := iter.Subscription()

	var price *stripe.Price
	if len(sub.Items.Data) > 0 {
		price = sub.Items.Data[0].Price
	}

	out := &Subscription{
		PlanName:         "Standard Plan",
		RenewalDate:      time.Unix(sub.CurrentPeriodEnd, 0).UTC(),
		Status:           string(sub.Status),
		StripeCustomerID: customerID,
	}
	if price != nil {
		if price.Nickname != "" {
			out.PlanName = price.Nickname
		} else if price.Product != nil && price.Product.ID != "" {
			out.PlanName = price.Product.ID
		}
		out.Amount = float64(price.UnitAmount) / 100
	}
	return out, nil
}

// EnsureCustomer finds the Stripe customer for an email, creating one tagged
// with the client uid when none exists.
func (s *Service) EnsureCustomer(clientUID, email string) (string, error) {
	api, err := s.API()
	if err != nil {
		return "", err
	}

	listParams := &stripe.CustomerListParams{Email: stripe.String(email)}
	listParams.Limit = stripe.Int64(1)
	iter := api.Customers.List(listParams)
	if iter.Next() {
		return iter.Customer().ID, nil
	}
	if err := iter.Err(); err != nil {
		return "", fmt.Errorf("list customers: %w", err)
	}

	createParams := &stripe.CustomerParams{Email: stripe.String(email)}
	createParams.AddMetadata("client_uid", clientUID)
	cust, err := api.Customers.New(createParams)
	if err != nil {
		return "", fmt.Errorf("create customer: %w", err)
	}
	return cust.ID, nil
}

// CheckoutURL creates a subscription checkout session and returns its URL.
func (s *Service) CheckoutURL(clientUID, email, customerID, appURL string) (string, error) {
	api, err := s.API()
	if err != nil {
		return "", err
	}

	params := &stripe.CheckoutSessionParams{
		Customer:           stripe.String(customerID),
		PaymentMethodTypes: stripe.StringSlice([]string{"card"}),
		LineItems: []*stripe.CheckoutSessionLineItemParams{
			{
				Price:    stripe.String(s.PriceID()),
				Quantity: stripe.Int64(1),
			},
		},
		Mode:       stripe.String(string(stripe.CheckoutSessionModeSubscription)),
		SuccessURL: stripe.String(appURL + "/dashboard?session_id={CHECKOUT_SESSION_ID}"),
		CancelURL:  stripe.String(appURL + "/dashboard?canceled=true"),
	}
	params.AddMetadata("client_uid", clientUID)
	params.AddMetadata("email", email)

	session, err := api.CheckoutSessions.New(params)
	if err != nil {
		return "", fmt.Errorf("create checkout session: %w", err)
	}
	return session.URL, nil
}

// PortalURL creates a billing-portal session and returns its URL.
func (s *Service) PortalURL(customerID, appURL string) (string, error) {
	api, err := s.API()
	if err != nil {
		return "", err
	}

	session, err := api.BillingPortalSessions.New(&stripe.BillingPortalSessionParams{
		Customer:  stripe.String(customerID),
		ReturnURL: stripe.String(appURL + "/dashboard"),
	})
	if err != nil {
		return "", fmt.Errorf("create portal session: %w", err)
	}
	return session.URL, nil
}

// VerifyWebhook checks the Stripe signature and parses the event payload.
func (s *Service) VerifyWebhook(payload []byte, sigHeader string) (stripe.Event, error) {
	if s.cfg.WebhookSecret == "" {
		return stripe.Event{}, errors.New("stripe webhook secret is not configured")
	}
	return webhook.ConstructEvent(payload, sigHeader, s.cfg.WebhookSecret)
}
