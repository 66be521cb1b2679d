package httpapi

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/dmitrijs2005/assetvault/internal/server/auth"
)

// userIDKey is the gin context key carrying the authenticated caller.
const userIDKey = "user_id"

// extractToken pulls the bearer credential from the Authorization header.
func extractToken(c *gin.Context) string {
	parts := strings.Fields(c.GetHeader("Authorization"))
	if len(parts) == 2 && strings.EqualFold(parts[0], "bearer") {
		return parts[1]
	}
	return ""
}

// authMiddleware verifies the bearer token and injects the caller's user id
// into the request context. Requests without a valid identity never reach a
// handler.
func (s *Server) authMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenStr := extractToken(c)
		if tokenStr == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "authorization token is required"})
			return
		}

		userID, err := auth.GetUserIDFromToken(tokenStr, s.jwtSecret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// callerID returns the authenticated user id for the request.
func callerID(c *gin.Context) string {
	return c.GetString(userIDKey)
}
