package http

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/NickM101/project-management-app/internal/server/auth"
	"github.com/NickM101/project-management-app/internal/server/models"
)

const identityKey = "identity"

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header; empty string when absent or malformed.
func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	const prefix = "Bearer "
	if !strings.HasPrefix(header, prefix) {
		return ""
	}
	return strings.TrimSpace(header[len(prefix):])
}

// authenticate validates the bearer token and stores the caller Identity in
// the request context. Requests without a valid token are rejected here;
// role evaluation happens separately in requireRoles.
func (s *Server) authenticate() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		identity, err := s.auth.ValidateToken(token)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}
		c.Set(identityKey, identity)
		c.Next()
	}
}

// identityFrom returns the authenticated Identity stored by authenticate,
// or nil for anonymous requests.
func identityFrom(c *gin.Context) *auth.Identity {
	v, ok := c.Get(identityKey)
	if !ok {
		return nil
	}
	identity, ok := v.(*auth.Identity)
	if !ok {
		return nil
	}
	return identity
}

// requireRoles evaluates the declared role set against the caller using the
// pure policy function. An empty declaration admits any caller.
func requireRoles(declared ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := auth.Authorize(declared, identityFrom(c)); err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient permissions"})
			return
		}
		c.Next()
	}
}
