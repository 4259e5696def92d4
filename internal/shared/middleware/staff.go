package middleware

import (
	"github.com/gin-gonic/gin"

	"library-backend/internal/shared/response"
)

// StaffOnly rejects non-staff callers. Must run after AuthMiddleware.
func StaffOnly() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !IsStaff(c) {
			response.ErrorResponse(c, 403, "FORBIDDEN", "staff access required")
			c.Abort()
			return
		}
		c.Next()
	}
}
