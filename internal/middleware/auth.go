package middleware

import (
	"net/http"
	"strings"
	"time"

	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// AuthMiddleware validates the JWT and puts the current client in the
// context under "currentClient".
func AuthMiddleware(jwtSecret, jwtIssuer string, db *gorm.DB) gin.HandlerFunc {
	return func(c *gin.Context) {
		var tokenStr string

		// 1) Header: Authorization: Bearer xxx
		authHeader := c.GetHeader("Authorization")
		if authHeader != "" {
			parts := strings.SplitN(authHeader, " ", 2)
			if len(parts) == 2 && strings.EqualFold(parts[0], "Bearer") {
				tokenStr = parts[1]
			}
		}

		// 2) URL query ?token=xxx (for downloads where headers are awkward)
		if tokenStr == "" {
			tokenStr = c.Query("token")
		}

		// 3) Cookie rag_token
		if tokenStr == "" {
			if cookie, err := c.Cookie("rag_token"); err == nil {
				tokenStr = cookie
			}
		}

		if tokenStr == "" {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "authentication required")
			c.Abort()
			return
		}

		claims, err := util.ParseToken(jwtSecret, jwtIssuer, tokenStr)
		if err != nil || claims.ExpiresAt == nil || claims.ExpiresAt.Before(time.Now()) {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "session expired, please sign in again")
			c.Abort()
			return
		}

		var client models.Client
		if err := db.Where("uid = ?", claims.ClientUID).First(&client).Error; err != nil {
			if err == gorm.ErrRecordNotFound {
				util.Error(c, http.StatusUnauthorized, util.CodeAuth, "unknown client")
			} else {
				util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load client")
			}
			c.Abort()
			return
		}

		c.Set("currentClient", &client)
		c.Next()
	}
}

// RequireAdmin rejects requests whose authenticated client is not an admin.
// Must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		v, ok := c.Get("currentClient")
		client, _ := v.(*models.Client)
		if !ok || client == nil || !client.Admin {
			util.Error(c, http.StatusForbidden, util.CodeAuth, "admin access required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// CurrentClient pulls the authenticated client out of the gin context.
func CurrentClient(c *gin.Context) *models.Client {
	v, ok := c.Get("currentClient")
	if !ok {
		return nil
	}
	client, _ := v.(*models.Client)
	return client
}
