// Package middleware provides gin middleware for the API.
package middleware

import (
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/ncobase/taskflow/pkg/jwt"
	"github.com/ncobase/taskflow/pkg/resp"
)

// UserIDKey is the gin context key holding the authenticated user id.
const UserIDKey = "user_id"

// Auth validates the bearer token and stores the user id on the context.
// Websocket clients cannot set headers, so a token query parameter is
// accepted as a fallback.
func Auth(jtm *jwt.TokenManager) gin.HandlerFunc {
	return func(c *gin.Context) {
		token := bearerToken(c)
		if token == "" {
			token = c.Query("token")
		}
		if token == "" {
			resp.Fail(c.Writer, resp.UnAuthorized("authentication required"))
			c.Abort()
			return
		}

		claims, err := jtm.DecodeToken(token)
		if err != nil {
			resp.Fail(c.Writer, resp.UnAuthorized("invalid or expired token"))
			c.Abort()
			return
		}

		userID := jwt.GetUserIDFromToken(claims)
		if userID == "" {
			resp.Fail(c.Writer, resp.UnAuthorized("invalid or expired token"))
			c.Abort()
			return
		}

		c.Set(UserIDKey, userID)
		c.Next()
	}
}

func bearerToken(c *gin.Context) string {
	header := c.GetHeader("Authorization")
	if header == "" {
		return ""
	}
	parts := strings.SplitN(header, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "Bearer") {
		return ""
	}
	return strings.TrimSpace(parts[1])
}

// UserID returns the authenticated user id from the context.
func UserID(c *gin.Context) string {
	return c.GetString(UserIDKey)
}
