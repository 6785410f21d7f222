package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/godesk-io/godesk-ce/internal/auth"
)

const actorKey = "actor_id"

// AuthMiddleware resolves the calling user from a bearer token. It only
// establishes identity; authorization happens in the service layer against
// the live user row.
type AuthMiddleware struct {
	jwtManager *auth.JWTManager
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(jwtManager *auth.JWTManager) *AuthMiddleware {
	return &AuthMiddleware{jwtManager: jwtManager}
}

// RequireAuth rejects requests without a valid token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			unauthorized(c, "missing authorization token")
			return
		}
		claims, err := m.jwtManager.ValidateToken(token)
		if err != nil {
			unauthorized(c, "invalid or expired token")
			return
		}
		c.Set(actorKey, claims.UserID)
		c.Next()
	}
}

// ActorID returns the authenticated user id from the request context.
func ActorID(c *gin.Context) (int64, bool) {
	v, ok := c.Get(actorKey)
	if !ok {
		return 0, false
	}
	id, ok := v.(int64)
	return id, ok
}

func extractToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if strings.HasPrefix(header, "Bearer ") {
		return strings.TrimPrefix(header, "Bearer ")
	}
	return ""
}

func unauthorized(c *gin.Context, msg string) {
	c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": msg})
}
