package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/api/middleware"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
	"github.com/qs3c/notemeet_server/internal/service"
)

type UserHandler struct {
	authService *service.AuthService
}

func NewUserHandler(authService *service.AuthService) *UserHandler {
	return &UserHandler{
		authService: authService,
	}
}

// SetTwoFactor 开关两步验证
// PUT /api/users/me/two-factor
func (h *UserHandler) SetTwoFactor(c *gin.Context) {
	userID, ok := middleware.GetUserID(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	var req dto.TwoFactorRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	claims, err := h.authService.SetTwoFactor(c.Request.Context(), userID, *req.Enabled)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrOAuthTwoFactor):
			response.BadRequest(c, "Two-factor authentication is not available for OAuth accounts")
		case errors.Is(err, service.ErrUserNotFound):
			response.Unauthorized(c)
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Success(c, claims)
}
