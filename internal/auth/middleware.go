package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

// CookieName is the cookie the panel login form sets
const CookieName = "mealdesk_token"

// ContextClaims is the gin context key holding *Claims
const ContextClaims = "claims"

func tokenFrom(c *gin.Context) string {
	if h := c.GetHeader("Authorization"); h != "" {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	if cookie, err := c.Cookie(CookieName); err == nil {
		return cookie
	}
	return ""
}

// Middleware handles JWT authentication for the JSON API
func Middleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := tokenFrom(c)
		if raw == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		claims, err := ParseToken(secret, raw)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		c.Set(ContextClaims, claims)
		c.Next()
	}
}

// RequireLogin guards the HTML pages; visitors without a valid token are sent
// to loginPath.
func RequireLogin(secret []byte, loginPath string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := ParseToken(secret, tokenFrom(c))
		if err != nil {
			c.Redirect(http.StatusSeeOther, loginPath)
			c.Abort()
			return
		}
		c.Set(ContextClaims, claims)
		c.Next()
	}
}
