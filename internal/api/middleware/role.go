package middleware

import (
	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
)

// RequireRole 要求当前用户拥有任一角色，需挂在 Auth 之后
func RequireRole(roles ...model.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, ok := CurrentUser(c)
		if !ok {
			response.Unauthorized(c)
			c.Abort()
			return
		}
		if !claims.HasRole(roles...) {
			response.Forbidden(c)
			c.Abort()
			return
		}
		c.Next()
	}
}
