package response

import (
	"log/slog"
	"net/http"

	"github.com/gin-gonic/gin"
)

// 默认错误消息
const (
	MsgBadRequest   = "Bad request"
	MsgUnauthorized = "Unauthorized"
	MsgForbidden    = "Forbidden"
	MsgNotFound     = "Not found"
	MsgConflict     = "Conflict"
	MsgServerError  = "Internal server error"
)

// ErrorBody 统一错误响应结构
type ErrorBody struct {
	Error string `json:"error"`
}

// Success 200，直接返回数据（允许 nil，序列化为 null）
func Success(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, data)
}

// Created 201
func Created(c *gin.Context, data interface{}) {
	c.JSON(http.StatusCreated, data)
}

// Error 错误响应
func Error(c *gin.Context, status int, message string) {
	c.JSON(status, ErrorBody{Error: message})
}

// BadRequest 参数错误
func BadRequest(c *gin.Context, message string) {
	if message == "" {
		message = MsgBadRequest
	}
	Error(c, http.StatusBadRequest, message)
}

// Unauthorized 未认证，响应体固定
func Unauthorized(c *gin.Context) {
	Error(c, http.StatusUnauthorized, MsgUnauthorized)
}

// AuthError 认证失败，带具体原因（如密码错误）
func AuthError(c *gin.Context, message string) {
	if message == "" {
		message = MsgUnauthorized
	}
	Error(c, http.StatusUnauthorized, message)
}

// Forbidden 权限不足
func Forbidden(c *gin.Context) {
	Error(c, http.StatusForbidden, MsgForbidden)
}

// NotFound 资源不存在
func NotFound(c *gin.Context, message string) {
	if message == "" {
		message = MsgNotFound
	}
	Error(c, http.StatusNotFound, message)
}

// Conflict 资源冲突
func Conflict(c *gin.Context, message string) {
	if message == "" {
		message = MsgConflict
	}
	Error(c, http.StatusConflict, message)
}

// ServerError 服务器错误，原因只写日志不返回给调用方
func ServerError(c *gin.Context, err error) {
	if err != nil {
		_ = c.Error(err)
		slog.ErrorContext(c.Request.Context(), "request failed",
			slog.String("method", c.Request.Method),
			slog.String("path", c.FullPath()),
			slog.Any("error", err),
		)
	}
	Error(c, http.StatusInternalServerError, MsgServerError)
}
