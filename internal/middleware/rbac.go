package middleware

import (
	"context"
	"database/sql"
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/crescendo-labs/music-school-api/internal/models"
	appErrors "github.com/crescendo-labs/music-school-api/pkg/errors"
	"github.com/crescendo-labs/music-school-api/pkg/response"
)

// RoleLookup resolves the stored role for an authenticated email.
type RoleLookup interface {
	RoleByEmail(ctx context.Context, email string) (models.UserRole, error)
}

// RequireRole enforces role-based access after the auth gate. The role is
// read from the store rather than the token so role changes apply to
// sessions that are already live.
func RequireRole(roles RoleLookup, allowed ...models.UserRole) gin.HandlerFunc {
	allowedRoles := make(map[models.UserRole]struct{}, len(allowed))
	for _, r := range allowed {
		allowedRoles[r] = struct{}{}
	}

	return func(c *gin.Context) {
		claimsValue, exists := c.Get(ContextUserKey)
		if !exists {
			response.Error(c, appErrors.ErrUnauthorized)
			c.Abort()
			return
		}
		claims := claimsValue.(*models.JWTClaims)

		role, err := roles.RoleByEmail(c.Request.Context(), claims.Email)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				response.Error(c, appErrors.ErrForbidden)
				c.Abort()
				return
			}
			response.Error(c, appErrors.Wrap(err, appErrors.ErrUpstream.Code, appErrors.ErrUpstream.Status, "failed to resolve role"))
			c.Abort()
			return
		}

		if _, ok := allowedRoles[role]; !ok {
			response.Error(c, appErrors.ErrForbidden)
			c.Abort()
			return
		}

		c.Next()
	}
}
