package dto

import "github.com/qs3c/notemeet_server/internal/pkg/session"

// RegisterRequest 注册请求
type RegisterRequest struct {
	Name     string `json:"name" binding:"required,min=1,max=100"`
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required,min=6,max=72"`
}

// RegisterResponse 注册响应
type RegisterResponse struct {
	UserID int64 `json:"id"`
}

// LoginRequest 登录请求，开启两步验证的用户第二次提交时带上 Code
type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
	Code     string `json:"code,omitempty" binding:"omitempty,len=6,numeric"`
}

// LoginResponse 登录响应
// TwoFactor 为 true 时 Token 和 User 为空，验证码已发送到邮箱
type LoginResponse struct {
	TwoFactor bool            `json:"twoFactor,omitempty"`
	Token     string          `json:"token,omitempty"`
	User      *session.Claims `json:"user,omitempty"`
}

// SessionResponse 当前会话
type SessionResponse struct {
	User    session.Claims `json:"user"`
	Expires string         `json:"expires"`
}

// TwoFactorRequest 开关两步验证
type TwoFactorRequest struct {
	Enabled *bool `json:"enabled" binding:"required"`
}
