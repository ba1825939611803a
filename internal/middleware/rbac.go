package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/models"
	appErrors "github.com/campushare/campushare-api/pkg/errors"
)

// RequireRoles blocks requests whose authenticated role is not listed.
// It must run after JWT.
func RequireRoles(roles ...models.UserRole) gin.HandlerFunc {
	allowed := make(map[models.UserRole]struct{}, len(roles))
	for _, r := range roles {
		allowed[r] = struct{}{}
	}
	return func(c *gin.Context) {
		claims, ok := c.Value(ContextUserKey).(*models.JWTClaims)
		if !ok {
			abortWith(c, appErrors.ErrUnauthorized)
			return
		}
		if _, ok := allowed[claims.Role]; !ok {
			abortWith(c, appErrors.ErrForbidden)
			return
		}
		c.Next()
	}
}
