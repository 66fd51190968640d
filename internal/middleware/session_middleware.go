package middleware

import (
	"context"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog/log"

	"github.com/LokalDeals/lokaldeals_api/internal/models"
	"github.com/LokalDeals/lokaldeals_api/internal/utils"
)

// revocationChecker abstracts the signout denylist.
type revocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// SessionMiddleware authenticates requests with a Bearer session token.
type SessionMiddleware struct {
	sessions revocationChecker
}

// NewSessionMiddleware constructs a SessionMiddleware.
func NewSessionMiddleware(sessions revocationChecker) *SessionMiddleware {
	return &SessionMiddleware{sessions: sessions}
}

// Handle returns a Gin middleware function that enforces a valid session.
func (m *SessionMiddleware) Handle() gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Error(c, 401, "UNAUTHORIZED", "Missing authorization header")
			c.Abort()
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || parts[0] != "Bearer" {
			utils.Error(c, 401, "UNAUTHORIZED", "Invalid authorization header")
			c.Abort()
			return
		}

		claims, err := utils.ValidateJWT(parts[1])
		if err != nil {
			utils.Error(c, 401, "INVALID_TOKEN", "Invalid or expired token")
			c.Abort()
			return
		}

		if m.sessions != nil {
			revoked, err := m.sessions.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				// The denylist is unreadable; do not accept a token that
				// may have been signed out.
				log.Error().Err(err).Msg("session revocation check failed")
				utils.Error(c, 401, "INVALID_TOKEN", "Could not verify session")
				c.Abort()
				return
			}
			if revoked {
				utils.Error(c, 401, "INVALID_TOKEN", "Session has been signed out")
				c.Abort()
				return
			}
		}

		c.Set("user_id", claims.UserID)
		c.Set("email", claims.Email)
		c.Set("role", claims.Role)
		c.Set("claims", claims)
		c.Next()
	}
}

// RequireAdmin returns a middleware that rejects non-admin sessions. It must
// run after Handle.
func (m *SessionMiddleware) RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		if c.GetString("role") != models.RoleAdmin {
			utils.Error(c, 403, "FORBIDDEN", "Moderation capability required")
			c.Abort()
			return
		}
		c.Next()
	}
}

// GetClaims returns the session claims from context, or nil when the request
// is unauthenticated.
func GetClaims(c *gin.Context) *utils.SessionClaims {
	v, _ := c.Get("claims")
	if v == nil {
		return nil
	}
	return v.(*utils.SessionClaims)
}
