package middleware

import (
	"net/http"

	"chorequest/pkg/auth"
	"chorequest/pkg/logger"
	"go.uber.org/zap"

	"github.com/gin-gonic/gin"
)

// ParentOnly guards routes that mutate quests/rewards or review completions.
// The role claim comes from the identity provider and is trusted.
func ParentOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		log := logger.Logger()

		user, ok := auth.UserFromContext(c)
		if !ok {
			log.Error("auth user data not found in context")
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		if user.Role != auth.RoleParent {
			log.Info("unauthorized access attempt to parent endpoint",
				zap.String("user_id", user.ID.String()))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "parent access required"})
			return
		}

		c.Next()
	}
}
