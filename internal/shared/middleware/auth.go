package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"library-backend/internal/shared/response"
	"library-backend/pkg/jwt"
)

const (
	ContextUserID  = "userID"
	ContextIsStaff = "isStaff"
)

// AuthMiddleware validates the bearer token and puts the caller's
// identity into the gin context.
func AuthMiddleware(jwtManager *jwt.Manager) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			response.ErrorResponse(c, 401, "UNAUTHORIZED", "missing authorization header")
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			response.ErrorResponse(c, 401, "UNAUTHORIZED", "invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := jwtManager.ValidateToken(parts[1])
		if err != nil || claims.Type != "access" {
			response.ErrorResponse(c, 401, "UNAUTHORIZED", "invalid token")
			c.Abort()
			return
		}

		userID, err := uuid.Parse(claims.UserID)
		if err != nil {
			response.ErrorResponse(c, 401, "UNAUTHORIZED", "invalid user ID in token")
			c.Abort()
			return
		}

		c.Set(ContextUserID, userID)
		c.Set(ContextIsStaff, claims.IsStaff)

		c.Next()
	}
}

// UserID reads the authenticated user from the context. The boolean is
// false on routes that bypassed AuthMiddleware.
func UserID(c *gin.Context) (uuid.UUID, bool) {
	value, exists := c.Get(ContextUserID)
	if !exists {
		return uuid.Nil, false
	}
	id, ok := value.(uuid.UUID)
	return id, ok
}

// IsStaff reports whether the authenticated caller is a staff user.
func IsStaff(c *gin.Context) bool {
	return c.GetBool(ContextIsStaff)
}
