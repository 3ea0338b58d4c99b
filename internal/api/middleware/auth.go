package middleware

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/pkg/jwt"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
	"github.com/qs3c/notemeet_server/internal/pkg/session"
	"github.com/qs3c/notemeet_server/internal/service"
)

const (
	UserIDKey       = "userID"
	ClaimsKey       = "session"
	TokenExpiresKey = "tokenExpires"
)

// UserLoader 按 ID 读取当前用户记录
type UserLoader interface {
	CurrentUser(ctx context.Context, userID int64) (*model.User, error)
}

// Auth 认证中间件
// token 只用来确认身份，会话声明总是根据当前用户记录重新构造
func Auth(jwtSecret string, users UserLoader) gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString, ok := bearerToken(c)
		if !ok {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		claims, err := jwt.ParseToken(tokenString, jwtSecret)
		if err != nil {
			response.Unauthorized(c)
			c.Abort()
			return
		}

		user, err := users.CurrentUser(c.Request.Context(), claims.UserID)
		if err != nil {
			// 只有用户记录不存在才算认证失败，存储故障按 500 处理
			if errors.Is(err, service.ErrUserNotFound) {
				response.Unauthorized(c)
			} else {
				response.ServerError(c, err)
			}
			c.Abort()
			return
		}

		c.Set(UserIDKey, user.ID)
		c.Set(ClaimsKey, session.FromUser(user))
		if claims.ExpiresAt != nil {
			c.Set(TokenExpiresKey, claims.ExpiresAt.Time)
		}
		c.Next()
	}
}

func bearerToken(c *gin.Context) (string, bool) {
	authHeader := c.GetHeader("Authorization")
	if authHeader == "" {
		return "", false
	}
	tokenString := strings.TrimPrefix(authHeader, "Bearer ")
	if tokenString == authHeader || tokenString == "" {
		return "", false
	}
	return tokenString, true
}

// CurrentUser 从上下文获取会话声明
func CurrentUser(c *gin.Context) (session.Claims, bool) {
	v, exists := c.Get(ClaimsKey)
	if !exists {
		return session.Claims{}, false
	}
	claims, ok := v.(session.Claims)
	return claims, ok
}

// GetUserID 从上下文获取用户 ID
func GetUserID(c *gin.Context) (int64, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return 0, false
	}
	id, ok := userID.(int64)
	return id, ok
}

// TokenExpires 当前 token 的过期时间
func TokenExpires(c *gin.Context) (time.Time, bool) {
	v, exists := c.Get(TokenExpiresKey)
	if !exists {
		return time.Time{}, false
	}
	t, ok := v.(time.Time)
	return t, ok
}
