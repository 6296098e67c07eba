package auth

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/joy095/spaces/config"
	"github.com/joy095/spaces/logger"
	"github.com/joy095/spaces/utils/jwt_parse"
)

// AuthMiddleware validates the bearer token and requires its subject to be a
// user UUID.
func AuthMiddleware(secret []byte) gin.HandlerFunc {
	parse := jwt_parse.ParseJWTToken(secret)
	return func(c *gin.Context) {
		parse(c)
		if c.IsAborted() {
			return
		}
		if _, err := uuid.Parse(c.GetString("sub")); err != nil {
			logger.WarnLogger.Warnf("Token subject %q is not a user id", c.GetString("sub"))
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			return
		}
	}
}

// AdminMiddleware allows only callers whose token email is on the configured
// admin allowlist. It must run after AuthMiddleware.
func AdminMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		email := c.GetString("email")
		if !cfg.IsAdmin(email) {
			logger.WarnLogger.Warnf("Admin access denied for user %s", c.GetString("sub"))
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "Admin access required"})
			return
		}
		c.Next()
	}
}
