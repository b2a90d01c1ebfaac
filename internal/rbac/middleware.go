package rbac

import (
	"net/http"

	"speakai-platform/internal/auth"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole admits callers whose stored role is one of allowed.
// Super Admin is always admitted; roles outside the known set never are.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	permitted := make(map[string]bool, len(allowed))
	for _, r := range allowed {
		permitted[r] = true
	}

	return func(c *gin.Context) {
		id, err := auth.FromContext(c.Request.Context())
		if err != nil || id.Role == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"detail": "Not authenticated"})
			return
		}
		switch {
		case IsSuperAdmin(id.Role):
		case IsKnownRole(id.Role) && permitted[id.Role]:
		default:
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"detail": "Insufficient permissions"})
			return
		}
		c.Next()
	}
}
