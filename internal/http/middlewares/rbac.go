package middlewares

import (
	"net/http"

	"github.com/geocoder89/userhub/internal/domain/user"
	"github.com/gin-gonic/gin"
)

// RequireRole gates a route on an exact role. Must run after RequireAuth.
func (m *AuthMiddleware) RequireRole(required user.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, ok := RoleFromContext(c)

		if !ok || role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{
				"message": "Unauthorized: No token provided",
			})
			return
		}
		if !user.CanAccess(role, required) {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{
				"message": "Forbidden: Insufficient permissions",
			})
			return
		}
		c.Next()
	}
}
