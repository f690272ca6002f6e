package notify

import (
	"context"
	"strings"
	"testing"
)

func TestUnconfiguredNotifierSkips(t *testing.T) {
	n := New("")
	if n.Configured() {
		t.Error("empty webhook URL should not be configured")
	}
	if err := n.Signup(context.Background(), "a@example.com", "Ada", "free"); err != nil {
		t.Errorf("unconfigured send should be a no-op, got %v", err)
	}
}

func TestSignupMessage(t *testing.T) {
	msg := signupMessage("ada@example.com", "Ada", "")
	if !strings.Contains(msg, "New Client Signup") {
		t.Errorf("message = %q", msg)
	}
	if !strings.Contains(msg, "ada@example.com") {
		t.Errorf("message missing email: %q", msg)
	}
	if !strings.Contains(msg, "*Plan:* free") {
		t.Errorf("empty plan should default to free: %q", msg)
	}
}

func TestPaymentMessage(t *testing.T) {
	msg := paymentMessage("ada@example.com", 29.99, "")
	if !strings.Contains(msg, "$29.99") {
		t.Errorf("message missing amount: %q", msg)
	}
	if !strings.Contains(msg, "Subscription payment") {
		t.Errorf("empty description should use default: %q", msg)
	}
}

func TestUpgradeMessage(t *testing.T) {
	msg := upgradeMessage("ada@example.com", "", "Pro")
	if !strings.Contains(msg, "*New Plan:* Pro") {
		t.Errorf("message = %q", msg)
	}
	if !strings.Contains(msg, "*Name:* N/A") {
		t.Errorf("empty name should render N/A: %q", msg)
	}
}
