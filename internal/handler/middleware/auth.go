package middleware

import (
	"net/http"
	"strings"

	"github.com/wb-go/wbf/ginext"

	"github.com/prodpix/prodpix/internal/dto"
)

const userIDKey = "user_id"

// UserScopeMiddleware binds every request to the account named in the
// X-User-ID header. Credential verification happens upstream at the
// gateway; here the header is only required to be present.
func UserScopeMiddleware() ginext.HandlerFunc {
	return func(c *ginext.Context) {
		userID := strings.TrimSpace(c.GetHeader("X-User-ID"))
		if userID == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, dto.ErrorResponse{
				Error:   "unauthorized",
				Message: "X-User-ID header is required",
			})
			return
		}

		c.Set(userIDKey, userID)
		c.Next()
	}
}

// UserID reads the account bound by UserScopeMiddleware.
func UserID(c *ginext.Context) string {
	return c.GetString(userIDKey)
}
