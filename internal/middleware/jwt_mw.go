package middleware

import (
	"net/http"
	"strings"

	"payment_ledger/internal/utils"

	"github.com/gin-gonic/gin"
)

const AuthAccountKey = "authAccount"

// JWTAuthMiddleware creates a middleware for JWT authentication.
// It resolves the account identity before any ledger operation runs, so the
// core only ever sees already-authenticated account ids.
func JWTAuthMiddleware(jwtUtil *utils.JWTUtil) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || strings.ToLower(parts[0]) != "bearer" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			return
		}

		tokenString := parts[1]
		claims, err := jwtUtil.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			return
		}

		c.Set(AuthAccountKey, claims.AccountID)

		c.Next()
	}
}
