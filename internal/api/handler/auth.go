package handler

import (
	"errors"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/api/middleware"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/oauth"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
	"github.com/qs3c/notemeet_server/internal/service"
)

type AuthHandler struct {
	authService *service.AuthService
	successURI  string
}

// NewAuthHandler successURI 非空时 GitHub 登录成功后重定向到前端
func NewAuthHandler(authService *service.AuthService, successURI string) *AuthHandler {
	return &AuthHandler{
		authService: authService,
		successURI:  successURI,
	}
}

// Register 用户注册
// POST /api/auth/register
func (h *AuthHandler) Register(c *gin.Context) {
	var req dto.RegisterRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Register(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrEmailExists):
			response.Conflict(c, "Email already in use")
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Created(c, resp)
}

// Login 用户登录
// POST /api/auth/login
func (h *AuthHandler) Login(c *gin.Context) {
	var req dto.LoginRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	resp, err := h.authService.Login(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrInvalidCredentials):
			response.AuthError(c, "Invalid credentials")
		case errors.Is(err, service.ErrInvalidCode):
			response.AuthError(c, "Invalid code")
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Success(c, resp)
}

// GithubAuth 跳转 GitHub 授权页
// GET /api/auth/github?callbackUrl=/dashboard
func (h *AuthHandler) GithubAuth(c *gin.Context) {
	authURL, err := h.authService.GithubAuthURL(c.Request.Context(), safeReturnTo(c.Query("callbackUrl")))
	if err != nil {
		response.ServerError(c, err)
		return
	}

	c.Redirect(http.StatusTemporaryRedirect, authURL)
}

// GithubCallback GitHub 授权回调
// GET /api/auth/github/callback?code=...&state=...
func (h *AuthHandler) GithubCallback(c *gin.Context) {
	code := c.Query("code")
	state := c.Query("state")
	if code == "" || state == "" {
		response.BadRequest(c, "Missing code or state")
		return
	}

	resp, returnTo, err := h.authService.GithubCallback(c.Request.Context(), code, state)
	if err != nil {
		switch {
		case errors.Is(err, oauth.ErrInvalidState):
			response.BadRequest(c, "Invalid state")
		case errors.Is(err, service.ErrAccountNotLinked):
			response.Conflict(c, "Email already registered with another sign-in method")
		default:
			response.ServerError(c, err)
		}
		return
	}

	if h.successURI == "" {
		response.Success(c, resp)
		return
	}

	// token 放在 fragment 中，不会出现在服务端访问日志里
	fragment := url.Values{"token": {resp.Token}}
	if returnTo != "" {
		fragment.Set("callbackUrl", returnTo)
	}
	c.Redirect(http.StatusFound, h.successURI+"#"+fragment.Encode())
}

// Session 当前会话
// GET /api/auth/session
func (h *AuthHandler) Session(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	resp := dto.SessionResponse{User: claims}
	if expires, ok := middleware.TokenExpires(c); ok {
		resp.Expires = expires.UTC().Format(time.RFC3339)
	}
	response.Success(c, resp)
}

// safeReturnTo 只接受站内相对路径
func safeReturnTo(raw string) string {
	if !strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "//") || strings.Contains(raw, `\`) {
		return ""
	}
	return raw
}
