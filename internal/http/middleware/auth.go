package middleware

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/charchit19/auth-mindsparkle/internal/domain"
	"github.com/charchit19/auth-mindsparkle/internal/repository"
	"github.com/charchit19/auth-mindsparkle/internal/token"
)

const principalKey = "principal"

// Auth resolves the acting principal from the Authorization header and
// enforces capability requirements before an operation runs.
type Auth struct {
	Tokens   *token.Service
	Accounts repository.AccountRepository
}

// RequireAuth ensures the request carries a valid session token and attaches
// the resolved principal to the request context. Self-service handlers act
// on this principal only, never on a client-supplied id.
func (m *Auth) RequireAuth(c *gin.Context) {
	header := c.GetHeader("Authorization")
	if header == "" {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Not authorized, no token."})
		return
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Not authorized, no token."})
		return
	}

	claims, err := m.Tokens.Verify(parts[1], token.PurposeSession)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Not authorized, token failed."})
		return
	}

	principal, err := m.Accounts.GetByID(c.Request.Context(), claims.AccountID)
	if err != nil {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Not authorized, token failed."})
		return
	}

	// The hash never travels with the principal view.
	principal.PasswordHash = ""
	c.Set(principalKey, principal)
	c.Next()
}

// RequireAdmin enforces the Admin capability. It must run after RequireAuth.
func (m *Auth) RequireAdmin(c *gin.Context) {
	principal, ok := GetPrincipal(c)
	if !ok {
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated", "error_description": "Not authorized, no token."})
		return
	}
	if !principal.IsAdmin {
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden", "error_description": "Admin privileges required."})
		return
	}
	c.Next()
}

// GetPrincipal exposes the resolved principal to handlers.
func GetPrincipal(c *gin.Context) (domain.Account, bool) {
	value, ok := c.Get(principalKey)
	if !ok {
		return domain.Account{}, false
	}
	principal, ok := value.(domain.Account)
	return principal, ok
}
