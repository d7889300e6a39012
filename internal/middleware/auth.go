package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/config"
	"clinic-scheduling-server/internal/models"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

const callerKey = "caller"

// AuthMiddleware verifies the bearer access token and stores the caller in
// the request context.
func AuthMiddleware(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			utils.Unauthorized(c, "Authorization header required")
			c.Abort()
			return
		}

		parts := strings.Fields(authHeader)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
			utils.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := utils.ValidateToken(parts[1], cfg.JWTSecret)
		if err != nil {
			utils.Unauthorized(c, "Invalid token: "+err.Error())
			c.Abort()
			return
		}
		if claims.UserID == "" || !claims.Role.Valid() {
			utils.Unauthorized(c, "Invalid token: missing identity")
			c.Abort()
			return
		}

		c.Set(callerKey, scheduling.Caller{
			UserID:         claims.UserID,
			Role:           claims.Role,
			OrganizationID: claims.OrganizationID,
		})
		c.Next()
	}
}

// RoleAuthMiddleware rejects callers whose role is not listed. It must run
// after AuthMiddleware.
func RoleAuthMiddleware(allowedRoles ...models.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		caller, ok := CallerFromContext(c)
		if !ok {
			utils.InternalServerError(c, "Caller not found in context. AuthMiddleware might be missing.")
			c.Abort()
			return
		}

		for _, allowed := range allowedRoles {
			if caller.Role == allowed {
				c.Next()
				return
			}
		}
		utils.Forbidden(c, "You do not have permission to access this resource.")
		c.Abort()
	}
}

// CallerFromContext returns the authenticated caller set by AuthMiddleware.
func CallerFromContext(c *gin.Context) (scheduling.Caller, bool) {
	v, exists := c.Get(callerKey)
	if !exists {
		return scheduling.Caller{}, false
	}
	caller, ok := v.(scheduling.Caller)
	return caller, ok
}

// SetCaller stores caller on the context. Used by AuthMiddleware and tests.
func SetCaller(c *gin.Context, caller scheduling.Caller) {
	c.Set(callerKey, caller)
}
