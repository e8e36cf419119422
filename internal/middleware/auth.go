package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"project-tracker/internal/auth"
)

// TierKey is the gin context key holding the caller's auth.Tier.
const TierKey = "tier"

// JWTAuthMiddleware validates JWT token in Authorization header
func JWTAuthMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		if parts := strings.Split(c.GetHeader("Authorization"), " "); len(parts) == 2 && parts[0] == "Bearer" {
			tokenString = parts[1]
		}
		// Browsers can't set headers on WebSocket upgrades.
		if tokenString == "" {
			tokenString = c.Query("token")
		}
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Authorization token is required",
			})
			return
		}

		claims, err := auth.ValidateToken(tokenString)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"error": "Invalid or expired token",
			})
			return
		}

		c.Set(TierKey, claims.Tier)
		c.Next()
	}
}

// RequireTier rejects callers below min. It must run after JWTAuthMiddleware.
func RequireTier(min auth.Tier) gin.HandlerFunc {
	return func(c *gin.Context) {
		tier, _ := c.Get(TierKey)
		t, _ := tier.(auth.Tier)
		if !t.AtLeast(min) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"error": "Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}

// CallerTier returns the tier stored by JWTAuthMiddleware.
func CallerTier(c *gin.Context) auth.Tier {
	tier, _ := c.Get(TierKey)
	t, _ := tier.(auth.Tier)
	return t
}
