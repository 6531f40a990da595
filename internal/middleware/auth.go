package middleware

import (
	"context"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"coursemarket/internal/security"
)

const (
	ContextAccessToken  = "access_token"
	ContextAccessClaims = "access_claims"
	ContextCurrentUser  = "current_user"
)

// RevocationChecker reports whether a token id has been logged out.
type RevocationChecker interface {
	IsRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Auth verifies the bearer token and stores its claims in the context.
// revocations may be nil.
func Auth(tokens *security.TokenIssuer, revocations RevocationChecker) gin.HandlerFunc {
	return func(c *gin.Context) {
		// The scheme is case-insensitive (RFC 6750).
		scheme, tokenStr, _ := strings.Cut(strings.TrimSpace(c.GetHeader("Authorization")), " ")
		tokenStr = strings.TrimSpace(tokenStr)
		if !strings.EqualFold(scheme, "Bearer") || tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "missing_token"})
			return
		}

		claims, err := tokens.Verify(tokenStr)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid_token"})
			return
		}

		if revocations != nil {
			revoked, err := revocations.IsRevoked(c.Request.Context(), claims.ID)
			if err != nil {
				c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
				return
			}
			if revoked {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "invalid_token"})
				return
			}
		}

		c.Set(ContextAccessToken, tokenStr)
		c.Set(ContextAccessClaims, *claims)

		c.Next()
	}
}

func Claims(c *gin.Context) (security.AccessClaims, bool) {
	val, exists := c.Get(ContextAccessClaims)
	if !exists {
		return security.AccessClaims{}, false
	}
	claims, ok := val.(security.AccessClaims)
	return claims, ok
}
