package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// RequireRole restricts access to tokens carrying one of the given roles.
// It MUST be used AFTER RequireAuth. "admin" is always allowed.
func RequireRole(allowedRoles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		userRole, exists := c.Get("user_role")
		if !exists {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Role context missing"})
			return
		}

		roleStr, _ := userRole.(string)
		if roleStr == "admin" {
			c.Next()
			return
		}
		for _, role := range allowedRoles {
			if roleStr == role {
				c.Next()
				return
			}
		}

		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
			"error": "Forbidden: token lacks a role allowed to change the library",
		})
	}
}
