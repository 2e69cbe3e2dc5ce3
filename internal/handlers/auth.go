package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
)

// UserIDHeader is set by the auth gateway once the caller's token is verified.
const UserIDHeader = "X-User-ID"

const userIDKey = "user_id"

// Identity stores the caller id from UserIDHeader in the context. Requests
// without the header continue anonymously; a malformed header is rejected.
func Identity() gin.HandlerFunc {
	return func(c *gin.Context) {
		raw := c.GetHeader(UserIDHeader)
		if raw == "" {
			c.Next()
			return
		}

		userID, ok := parsePositiveID(raw)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "Invalid user identity",
				Code:    "UNAUTHORIZED",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// RequireUser rejects anonymous requests.
func RequireUser() gin.HandlerFunc {
	return func(c *gin.Context) {
		if _, ok := currentUserID(c); !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, ErrorResponse{
				Message: "User not authenticated",
				Code:    "UNAUTHORIZED",
			})
			return
		}
		c.Next()
	}
}

func currentUserID(c *gin.Context) (uint, bool) {
	value, exists := c.Get(userIDKey)
	if !exists {
		return 0, false
	}
	userID, ok := value.(uint)
	return userID, ok
}

// optionalUserID returns nil for anonymous callers.
func optionalUserID(c *gin.Context) *uint {
	if userID, ok := currentUserID(c); ok {
		return &userID
	}
	return nil
}
