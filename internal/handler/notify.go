package handler

import (
	"net/http"

	"readyaimgo-dashboard/internal/notify"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// NotifyHandler exposes the Slack notification endpoint.
type NotifyHandler struct {
	Notifier *notify.Notifier
}

func NewNotifyHandler(n *notify.Notifier) *NotifyHandler {
	return &NotifyHandler{Notifier: n}
}

type notifyReq struct {
	Event       string  `json:"event" binding:"required,oneof=signup payment upgrade"`
	Email       string  `json:"email" binding:"required,email"`
	Name        string  `json:"name"`
	PlanType    string  `json:"planType"`
	Amount      float64 `json:"amount"`
	Description string  `json:"description"`
}

// Notify posts a signup/payment/upgrade message to Slack. When no webhook is
// configured the call succeeds with skipped=true rather than failing.
func (h *NotifyHandler) Notify(c *gin.Context) {
	var req notifyReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "event and email are required")
		return
	}

	if !h.Notifier.Configured() {
		util.Success(c, util.Response{"success": true, "skipped": true})
		return
	}

	ctx := c.Request.Context()
	var err error
	switch req.Event {
	case notify.EventSignup:
		err = h.Notifier.Signup(ctx, req.Email, req.Name, req.PlanType)
	case notify.EventPayment:
		err = h.Notifier.Payment(ctx, req.Email, req.Amount, req.Description)
	case notify.EventUpgrade:
		err = h.Notifier.Upgrade(ctx, req.Email, req.Name, req.PlanType)
	}
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to send notification")
		return
	}

	util.Success(c, util.Response{"success": true})
}
