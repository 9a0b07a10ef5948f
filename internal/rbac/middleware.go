package rbac

import (
	"net/http"

	"identity-gateway/internal/token"

	"github.com/gin-gonic/gin"
)

// RequireAnyRole allows access if the caller's claim set carries any of the
// provided role claims. This is a pure presence check on the claims the
// access gate already verified; no store lookup happens here.
func RequireAnyRole(allowed ...string) gin.HandlerFunc {
	allowedSet := make(map[string]struct{}, len(allowed))
	for _, r := range allowed {
		allowedSet[r] = struct{}{}
	}

	return func(c *gin.Context) {
		roles, err := token.Roles(c.Request.Context())
		if err != nil || len(roles) == 0 {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "role required"})
			return
		}

		for _, r := range roles {
			if _, ok := allowedSet[r]; ok {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}
