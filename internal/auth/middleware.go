package auth

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"onduty/internal/onduty"
)

const claimsKey = "claims"

// RequireAuth enforces bearer JWT tokens signed with HS256 and stores the
// parsed claims on the context.
func RequireAuth(signingKey, issuer string) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		claims, err := Parse(tokenStr, signingKey, issuer)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
			return
		}
		c.Set(claimsKey, claims)
		c.Next()
	}
}

// RequireRole rejects callers whose token carries a different role. It must
// run after RequireAuth.
func RequireRole(role onduty.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		ident, ok := IdentityFrom(c)
		if !ok || ident.Role != role {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "insufficient role"})
			return
		}
		c.Next()
	}
}

// IdentityFrom extracts the authenticated identity placed by RequireAuth.
func IdentityFrom(c *gin.Context) (onduty.Identity, bool) {
	claimsAny, ok := c.Get(claimsKey)
	if !ok {
		return onduty.Identity{}, false
	}
	claims, ok := claimsAny.(Claims)
	if !ok {
		return onduty.Identity{}, false
	}
	return claims.Identity(), true
}
