package handler

import (
	"bytes"
	"encoding/json"
	"net/http"
	"time"

	"royaltriangle/internal/middleware"
	"royaltriangle/internal/service"

	"github.com/gin-gonic/gin"
)

// CookieConfig describes the session cookie written on login.
type CookieConfig struct {
	Name   string
	Secure bool
}

type AuthHandler struct {
	svc    AuthService
	cookie CookieConfig
}

func NewAuthHandler(svc AuthService, cookie CookieConfig) *AuthHandler {
	return &AuthHandler{svc: svc, cookie: cookie}
}

// ReferrerID accepts the referrer as a JSON number or string.
type ReferrerID string

func (r *ReferrerID) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*r = ""
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*r = ReferrerID(s)
		return nil
	}
	var n json.Number
	if err := json.Unmarshal(b, &n); err != nil {
		return err
	}
	*r = ReferrerID(n.String())
	return nil
}

type RegisterRequest struct {
	Username      string     `json:"username" binding:"required,min=3,max=64"`
	Password      string     `json:"password" binding:"required,min=6"`
	WalletAddress string     `json:"walletAddress" binding:"required"`
	PlanType      string     `json:"planType" binding:"required"`
	ReferrerID    ReferrerID `json:"referrerId"`
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	reg, err := h.svc.Register(c.Request.Context(), service.RegisterInput{
		Username:      req.Username,
		Password:      req.Password,
		WalletAddress: req.WalletAddress,
		PlanType:      req.PlanType,
		ReferrerID:    string(req.ReferrerID),
	})
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusCreated, gin.H{
		"success": true,
		"message": "Registration successful",
		"deposit": reg.Deposit,
	})
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		bindError(c, err)
		return
	}
	res, err := h.svc.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		respondError(c, err)
		return
	}
	h.setCookie(c, res.Token, res.ExpiresAt)
	c.JSON(http.StatusOK, gin.H{
		"success": true,
		"user": gin.H{
			"id":       res.User.ID,
			"username": res.User.Username,
			"isAdmin":  res.User.IsAdmin,
			"plan":     res.User.Plan,
		},
		"expiresAt": res.ExpiresAt,
	})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	h.setCookie(c, "", time.Time{})
	c.JSON(http.StatusOK, gin.H{"success": true})
}

func (h *AuthHandler) Session(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"user": middleware.GetPrincipal(c)})
}

// setCookie writes the session cookie; an empty token expires it.
func (h *AuthHandler) setCookie(c *gin.Context, token string, expires time.Time) {
	maxAge := -1
	if token != "" {
		maxAge = int(time.Until(expires).Seconds())
		if maxAge < 1 {
			maxAge = 1
		}
	}
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.cookie.Name, token, maxAge, "/", "", h.cookie.Secure, true)
}
