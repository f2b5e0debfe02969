package middleware

import (
	"net/http"

	"royaltriangle/internal/auth"
	"royaltriangle/pkg/logger"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

const principalKey = "principal"

// Authenticator is the session check shared by every protected route.
type Authenticator interface {
	Authenticate(r *http.Request) (*auth.Principal, error)
}

// SessionRequired resolves the session cookie and stores the principal in the
// context. Rejected sessions get 401, lookup failures 500.
func SessionRequired(authn Authenticator) gin.HandlerFunc {
	return func(c *gin.Context) {
		p, err := authn.Authenticate(c.Request)
		if err != nil {
			if auth.IsRejection(err) {
				c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
				return
			}
			logger.Logger().Error("session lookup failed", zap.Error(err), zap.String("path", c.FullPath()))
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
			return
		}
		c.Set(principalKey, p)
		c.Next()
	}
}

// GetPrincipal returns the authenticated caller, or nil outside SessionRequired.
func GetPrincipal(c *gin.Context) *auth.Principal {
	v, ok := c.Get(principalKey)
	if !ok {
		return nil
	}
	p, _ := v.(*auth.Principal)
	return p
}

// GetUserID returns the authenticated user ID (must be used after SessionRequired).
func GetUserID(c *gin.Context) uint {
	if p := GetPrincipal(c); p != nil {
		return p.ID
	}
	return 0
}
