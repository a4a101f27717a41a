package handlers

import (
	"crypto/subtle"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/api/middleware"
	"github.com/OldStager01/throughput-autoscaler/internal/auth"
)

// AuthHandler logs in the single configured operator
type AuthHandler struct {
	authService  *auth.Service
	username     string
	passwordHash string
}

func NewAuthHandler(authService *auth.Service, username, passwordHash string) *AuthHandler {
	return &AuthHandler{
		authService:  authService,
		username:     username,
		passwordHash: passwordHash,
	}
}

type LoginRequest struct {
	Username string `json:"username" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type LoginResponse struct {
	Token     string `json:"token"`
	ExpiresIn int    `json:"expires_in"`
	Username  string `json:"username"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	if h.passwordHash == "" {
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": "login is disabled"})
		return
	}

	var req LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body"})
		return
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(h.username)) == 1
	passOK := auth.CheckPassword(req.Password, h.passwordHash)
	if !userOK || !passOK {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid credentials"})
		return
	}

	token, err := h.authService.GenerateToken(h.username)
	if err != nil {
		c.JSON(http.StatusInternalServerError, gin.H{"error": "failed to generate token"})
		return
	}

	maxAge := int(h.authService.Duration().Seconds())

	c.SetSameSite(http.SameSiteStrictMode)
	c.SetCookie(middleware.AuthCookie, token, maxAge, "/", "", true, true)

	c.JSON(http.StatusOK, LoginResponse{
		Token:     token,
		ExpiresIn: maxAge,
		Username:  h.username,
	})
}
