package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/campushare/campushare-api/internal/middleware"
	"github.com/campushare/campushare-api/internal/models"
)

// claimsFromContext returns the authenticated caller set by the JWT
// middleware, or nil on unauthenticated routes. Services treat nil claims as
// an unauthorized actor, so handlers pass the value through without checking.
func claimsFromContext(c *gin.Context) *models.JWTClaims {
	claims, _ := c.Value(middleware.ContextUserKey).(*models.JWTClaims)
	return claims
}
