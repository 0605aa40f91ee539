package auth

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
)

const claimsKey = "claims"

// Verifier turns a bearer token into claims.
type Verifier interface {
	Verify(ctx context.Context, token string) (Claims, error)
}

// Required enforces bearer tokens accepted by any of the verifiers.
func Required(verifiers ...Verifier) gin.HandlerFunc {
	return func(c *gin.Context) {
		authz := c.GetHeader("Authorization")
		if authz == "" || !strings.HasPrefix(strings.ToLower(authz), "bearer ") {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing bearer token"})
			return
		}
		tokenStr := strings.TrimSpace(authz[len("bearer "):])
		for _, v := range verifiers {
			if v == nil {
				continue
			}
			claims, err := v.Verify(c.Request.Context(), tokenStr)
			if err == nil {
				c.Set(claimsKey, claims)
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid token"})
	}
}

// RequireRole rejects callers whose role is not listed. Admins pass every
// role check.
func RequireRole(roles ...string) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := FromContext(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthenticated"})
			return
		}
		if claims.Role == RoleAdmin {
			c.Next()
			return
		}
		for _, r := range roles {
			if claims.Role == r {
				c.Next()
				return
			}
		}
		c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
	}
}

// FromContext returns the claims set by Required.
func FromContext(c *gin.Context) (Claims, bool) {
	v, ok := c.Get(claimsKey)
	if !ok {
		return Claims{}, false
	}
	claims, ok := v.(Claims)
	return claims, ok
}

// Actor is the identity recorded in the fee ledger for this request.
func Actor(c *gin.Context) string {
	claims, ok := FromContext(c)
	if !ok || claims.Subject == "" {
		return "unknown"
	}
	return claims.Subject
}
