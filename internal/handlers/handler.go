package handlers

import (
	"github.com/gin-gonic/gin"

	"clinic-scheduling-server/internal/middleware"
	"clinic-scheduling-server/internal/scheduling"
	"clinic-scheduling-server/internal/utils"
)

// caller returns the authenticated caller or writes a 401.
func caller(c *gin.Context) (scheduling.Caller, bool) {
	who, ok := middleware.CallerFromContext(c)
	if !ok {
		utils.Unauthorized(c, "User not authenticated")
		return scheduling.Caller{}, false
	}
	return who, true
}
