package middleware

import (
	"errors"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/OldStager01/throughput-autoscaler/internal/auth"
)

const (
	AuthorizationHeader = "Authorization"
	BearerPrefix        = "Bearer "
	AuthCookie          = "auth_token"
	UsernameKey         = "username"
)

// JWTAuth accepts a bearer token, falling back to the login cookie
func JWTAuth(authService *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, ok := bearerToken(c)
		if !ok {
			return
		}

		claims, err := authService.ValidateToken(token)
		if err != nil {
			message := "invalid token"
			if errors.Is(err, auth.ErrExpiredToken) {
				message = "token expired"
			}

			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": message,
			})
			return
		}

		c.Set(UsernameKey, claims.Username)

		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	header := c.GetHeader(AuthorizationHeader)
	if header == "" {
		if cookie, err := c.Cookie(AuthCookie); err == nil && cookie != "" {
			return cookie, true
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "missing authorization header",
		})
		return "", false
	}

	if !strings.HasPrefix(header, BearerPrefix) {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
			"error": "invalid authorization header format",
		})
		return "", false
	}

	return strings.TrimPrefix(header, BearerPrefix), true
}

func GetUsername(c *gin.Context) string {
	username, exists := c.Get(UsernameKey)
	if !exists {
		return ""
	}
	return username.(string)
}
