package middlewares

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"

	"mach-lagbe/apperrors"
	"mach-lagbe/models"
)

const IdentityKey = "identity"

// SessionResolver turns a bearer token into an identity.
type SessionResolver interface {
	ResolveSession(ctx context.Context, token string) (*models.Identity, error)
}

// BearerToken extracts the token from the Authorization header.
func BearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if len(header) < 7 || !strings.EqualFold(header[:7], "Bearer ") {
		return ""
	}
	return strings.TrimSpace(header[7:])
}

// AuthMiddleware requires a valid session and stores the identity on the
// context. Any failure to resolve the token is a 401.
func AuthMiddleware(sessions SessionResolver) gin.HandlerFunc {
	return func(c *gin.Context) {
		id, err := sessions.ResolveSession(c.Request.Context(), BearerToken(c))
		if err != nil {
			RespondError(c, err)
			return
		}
		c.Set(IdentityKey, id)
		c.Next()
	}
}

// RequireAdmin rejects non-admin identities. It must run after AuthMiddleware.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := CurrentIdentity(c)
		if id == nil {
			RespondError(c, apperrors.Unauthenticated("Please authenticate"))
			return
		}
		if !id.IsAdmin() {
			RespondError(c, apperrors.Forbidden("Admin access required"))
			return
		}
		c.Next()
	}
}

// CurrentIdentity returns the identity set by AuthMiddleware, or nil.
func CurrentIdentity(c *gin.Context) *models.Identity {
	v, ok := c.Get(IdentityKey)
	if !ok {
		return nil
	}
	id, _ := v.(*models.Identity)
	return id
}
