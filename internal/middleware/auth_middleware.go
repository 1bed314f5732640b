package middleware

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/yourusername/marketplace-api/internal/domain/entity"
	"github.com/yourusername/marketplace-api/pkg/auth"
	"github.com/yourusername/marketplace-api/pkg/auth/manager"
)

// Context keys set by RequireAuth for downstream handlers.
const (
	ContextPrincipal   = "principal"
	ContextRole        = "role"
	ContextPrincipalID = "principal_id"
)

// AuthMiddleware gates requests on a valid access token and an existing
// account.
type AuthMiddleware struct {
	jwtService   *auth.JWTService
	tokenManager *manager.TokenManager
	resolver     manager.PrincipalResolver
}

// NewAuthMiddleware creates the middleware.
func NewAuthMiddleware(jwtService *auth.JWTService, tokenManager *manager.TokenManager, resolver manager.PrincipalResolver) *AuthMiddleware {
	return &AuthMiddleware{
		jwtService:   jwtService,
		tokenManager: tokenManager,
		resolver:     resolver,
	}
}

// RequireAuth extracts the bearer token (role-scoped cookie, then
// Authorization header), verifies it and resolves the principal. The signed
// role claim is the sole source of truth; the cookie name only picks where
// to look. Every verification failure maps to 401 without detail, including
// a deleted account still holding a valid token.
func (m *AuthMiddleware) RequireAuth(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		token, err := m.tokenManager.GetAccessToken(c.Request, role)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}

		claims, err := m.jwtService.ParseAccessToken(token)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token", "error_type": "token_invalid"})
			c.Abort()
			return
		}

		principal, err := m.resolver.GetPrincipal(claims.Role, claims.UserID)
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "account_not_found"})
			c.Abort()
			return
		}

		c.Set(ContextPrincipal, principal)
		c.Set(ContextRole, claims.Role)
		c.Set(ContextPrincipalID, claims.UserID)

		c.Next()
	}
}

// RequireRole fails with 403 unless the authenticated role matches. Must be
// applied after RequireAuth.
func (m *AuthMiddleware) RequireRole(role entity.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		value, exists := c.Get(ContextRole)
		if !exists {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Unauthorized", "error_type": "token_missing"})
			c.Abort()
			return
		}

		if value.(entity.Role) != role {
			c.JSON(http.StatusForbidden, gin.H{"error": "Access denied: " + role.String() + " only", "error_type": "forbidden"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// PrincipalFromContext returns the resolved principal set by RequireAuth.
func PrincipalFromContext(c *gin.Context) (entity.Principal, bool) {
	value, exists := c.Get(ContextPrincipal)
	if !exists {
		return nil, false
	}
	principal, ok := value.(entity.Principal)
	return principal, ok
}
