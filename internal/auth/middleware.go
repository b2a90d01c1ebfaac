package auth

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
)

const authorizationHeader = "Authorization"
const bearerPrefix = "Bearer "

// UserLookup resolves a token subject to a stored user.
type UserLookup interface {
	LookupIdentity(ctx context.Context, email string) (Identity, error)
}

// RequireAccessToken verifies the bearer token, loads the user it names and
// injects the identity into the request context. RBAC checks live in internal/rbac.
func RequireAccessToken(m *Manager, users UserLookup) gin.HandlerFunc {
	return func(c *gin.Context) {
		if m == nil || users == nil {
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"detail": "authentication is not configured"})
			return
		}

		raw := strings.TrimSpace(c.GetHeader(authorizationHeader))
		if raw == "" || !strings.HasPrefix(raw, bearerPrefix) {
			unauthorized(c, "Not authenticated")
			return
		}
		tok := strings.TrimPrefix(raw, bearerPrefix)

		claims, err := m.Verify(tok, time.Now())
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}

		id, err := users.LookupIdentity(c.Request.Context(), claims.Subject)
		if err != nil {
			unauthorized(c, "Could not validate credentials")
			return
		}
		if !id.IsActive {
			c.AbortWithStatusJSON(http.StatusBadRequest, gin.H{"detail": "Inactive user"})
			return
		}

		c.Request = c.Request.WithContext(WithIdentity(c.Request.Context(), id))

		c.Set("user_id", id.UserID)
		c.Set("email", id.Email)
		c.Set("role", id.Role)

		c.Next()
	}
}

func unauthorized(c *gin.Context, detail string) {
	c.Header("WWW-Authenticate", "Bearer")
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": detail})
}
