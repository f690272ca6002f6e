// Package notify sends Slack notifications for account and billing events.
// Every send is best-effort: callers log failures and move on.
package notify

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"
)

// Event names accepted by the notify endpoint.
const (
	EventSignup  = "signup"
	EventPayment = "payment"
	EventUpgrade = "upgrade"
)

// Notifier posts messages to a Slack incoming webhook. A Notifier with an
// empty URL is valid and silently skips every send.
type Notifier struct {
	webhookURL string
}

func New(webhookURL string) *Notifier {
	return &Notifier{webhookURL: webhookURL}
}

// Configured reports whether a webhook URL is set.
func (n *Notifier) Configured() bool {
	return n != nil && n.webhookURL != ""
}

// Signup announces a new client account.
func (n *Notifier) Signup(ctx context.Context, email, name, planType string) error {
	return n.send(ctx, signupMessage(email, name, planType))
}

// Payment announces a received payment.
func (n *Notifier) Payment(ctx context.Context, email string, amount float64, description string) error {
	return n.send(ctx, paymentMessage(email, amount, description))
}

// Upgrade announces a plan change.
func (n *Notifier) Upgrade(ctx context.Context, email, name, planType string) error {
	return n.send(ctx, upgradeMessage(email, name, planType))
}

func (n *Notifier) send(ctx context.Context, text string) error {
	if !n.Configured() {
		return nil
	}
	return slack.PostWebhookContext(ctx, n.webhookURL, &slack.WebhookMessage{Text: text})
}

func signupMessage(email, name, planType string) string {
	return fmt.Sprintf(":tada: *New Client Signup*\n*Name:* %s\n*Email:* %s\n*Plan:* %s",
		orNA(name), email, orDefault(planType, "free"))
}

func paymentMessage(email string, amount float64, description string) string {
	return fmt.Sprintf(":credit_card: *Payment Received*\n*Email:* %s\n*Amount:* $%.2f\n*Description:* %s",
		email, amount, orDefault(description, "Subscription payment"))
}

func upgradeMessage(email, name, planType string) string {
	return fmt.Sprintf(":arrow_up: *Plan Upgrade*\n*Email:* %s\n*Name:* %s\n*New Plan:* %s",
		email, orNA(name), orNA(planType))
}

func orNA(s string) string {
	return orDefault(s, "N/A")
}

func orDefault(s, def string) string {
	if s == "" {
		return def
	}
	return s
}
