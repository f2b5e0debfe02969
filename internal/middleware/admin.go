package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// AdminRequired checks that the authenticated principal is an administrator.
// Non-admins get the same 401 as anonymous callers.
func AdminRequired() gin.HandlerFunc {
	return func(c *gin.Context) {
		p := GetPrincipal(c)
		if p == nil || !p.IsAdmin {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized - Admin access required"})
			return
		}
		c.Next()
	}
}
