package handler

import (
	"context"
	"log"
	"net/http"
	"strings"
	"time"

	"readyaimgo-dashboard/internal/models"
	"readyaimgo-dashboard/internal/notify"
	"readyaimgo-dashboard/internal/util"
	"readyaimgo-dashboard/internal/wallet"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// AuthHandler serves register/login.
type AuthHandler struct {
	DB        *gorm.DB
	JWTSecret string
	JWTIssuer string
	TokenTTL  time.Duration
	Notifier  *notify.Notifier
}

func NewAuthHandler(db *gorm.DB, jwtSecret, jwtIssuer string, ttlHours int, notifier *notify.Notifier) *AuthHandler {
	if ttlHours <= 0 {
		ttlHours = 24
	}
	return &AuthHandler{
		DB:        db,
		JWTSecret: jwtSecret,
		JWTIssuer: jwtIssuer,
		TokenTTL:  time.Duration(ttlHours) * time.Hour,
		Notifier:  notifier,
	}
}

type registerReq struct {
	Name     string `json:"name" binding:"max=64"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

// Register creates a client account with the starting housing wallet grant
// and signs the caller in.
func (h *AuthHandler) Register(c *gin.Context) {
	var req registerReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if !isStrongPassword(req.Password) {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "password must be 8-32 characters with upper, lower and digit")
		return
	}

	var count int64
	if err := h.DB.Model(&models.Client{}).
		Where("email = ?", req.Email).
		Count(&count).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to check account")
		return
	}
	if count > 0 {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "email already registered")
		return
	}

	hash, err := util.HashPassword(req.Password)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to hash password")
		return
	}

	grant := int64(wallet.StartingCredits)
	client := models.Client{
		UID:                  uuid.NewString(),
		Name:                 req.Name,
		Email:                req.Email,
		PasswordHash:         hash,
		PlanType:             "free",
		HousingWalletBalance: &grant,
	}
	if err := h.DB.Create(&client).Error; err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to create account")
		return
	}

	// best-effort signup notice
	go func(email, name, plan string) {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := h.Notifier.Signup(ctx, email, name, plan); err != nil {
			log.Printf("slack signup notice failed for %s: %v", email, err)
		}
	}(client.Email, client.Name, client.PlanType)

	token, err := util.GenerateToken(h.JWTSecret, h.JWTIssuer, client.UID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to issue token")
		return
	}

	util.Success(c, util.Response{
		"token":  token,
		"client": clientView(&client),
	})
}

// password policy: 8-32 chars with upper, lower and digit
func isStrongPassword(pwd string) bool {
	if len(pwd) < 8 || len(pwd) > 32 {
		return false
	}
	var hasUpper, hasLower, hasDigit bool
	for _, ch := range pwd {
		switch {
		case ch >= 'A' && ch <= 'Z':
			hasUpper = true
		case ch >= 'a' && ch <= 'z':
			hasLower = true
		case ch >= '0' && ch <= '9':
			hasDigit = true
		}
	}
	return hasUpper && hasLower && hasDigit
}

type loginReq struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginReq
	if err := c.ShouldBindJSON(&req); err != nil {
		util.Error(c, http.StatusBadRequest, util.CodeInvalidParam, "invalid request body")
		return
	}

	req.Email = strings.ToLower(strings.TrimSpace(req.Email))

	var client models.Client
	if err := h.DB.Where("email = ?", req.Email).First(&client).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		} else {
			util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to load account")
		}
		return
	}

	if !util.CheckPassword(req.Password, client.PasswordHash) {
		util.Error(c, http.StatusUnauthorized, util.CodeAuth, "invalid email or password")
		return
	}

	token, err := util.GenerateToken(h.JWTSecret, h.JWTIssuer, client.UID, h.TokenTTL)
	if err != nil {
		util.Error(c, http.StatusInternalServerError, util.CodeServerErr, "failed to issue token")
		return
	}

	util.Success(c, util.Response{
		"token":  token,
		"client": clientView(&client),
	})
}

func clientView(cl *models.Client) gin.H {
	return gin.H{
		"uid":       cl.UID,
		"name":      cl.Name,
		"email":     cl.Email,
		"planType":  cl.PlanType,
		"createdAt": cl.CreatedAt,
	}
}
