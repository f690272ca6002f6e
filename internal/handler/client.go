package handler

import (
	"net/http"

	"readyaimgo-dashboard/internal/middleware"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
)

// GetMe returns the authenticated client (requires AuthMiddleware).
func GetMe(c *gin.Context) {
	client := middleware.CurrentClient(c)
	if client == nil {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
		return
	}

	util.Success(c, util.Response{
		"client": gin.H{
			"uid":              client.UID,
			"name":             client.Name,
			"email":            client.Email,
			"planType":         client.PlanType,
			"beamCoinBalance":  client.BeamCoinBalance,
			"stripeCustomerId": client.StripeCustomerID,
			"createdAt":        client.CreatedAt,
		},
	})
}
