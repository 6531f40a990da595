package middleware

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"coursemarket/internal/models"
	"coursemarket/internal/repository"
)

// RequireRoles loads the caller's stored record on every request, so a role
// change takes effect without a new token. Must run after Auth.
func RequireRoles(users *repository.UserRepository, roles ...models.UserRole) gin.HandlerFunc {
	roleSet := make(map[models.UserRole]struct{}, len(roles))
	for _, role := range roles {
		roleSet[role] = struct{}{}
	}

	return func(c *gin.Context) {
		claims, ok := Claims(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		user, err := users.GetByID(c.Request.Context(), claims.UserID)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
				return
			}
			c.AbortWithStatusJSON(http.StatusInternalServerError, gin.H{"error": "internal_error"})
			return
		}

		if _, ok := roleSet[user.Role]; !ok {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "forbidden"})
			return
		}

		c.Set(ContextCurrentUser, user)
		c.Next()
	}
}

func RequireAdmin(users *repository.UserRepository) gin.HandlerFunc {
	return RequireRoles(users, models.UserRoleAdmin)
}

func CurrentUser(c *gin.Context) (models.User, bool) {
	val, exists := c.Get(ContextCurrentUser)
	if !exists {
		return models.User{}, false
	}
	user, ok := val.(models.User)
	return user, ok
}
