package handler

import (
	"errors"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/api/middleware"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
	"github.com/qs3c/notemeet_server/internal/service"
)

type SubscriptionHandler struct {
	entitlementService  *service.EntitlementService
	subscriptionService *service.SubscriptionService
}

func NewSubscriptionHandler(
	entitlementService *service.EntitlementService,
	subscriptionService *service.SubscriptionService,
) *SubscriptionHandler {
	return &SubscriptionHandler{
		entitlementService:  entitlementService,
		subscriptionService: subscriptionService,
	}
}

// Me 当前用户的有效订阅和汇总额度
// GET /api/users/subscriptions/me
func (h *SubscriptionHandler) Me(c *gin.Context) {
	claims, ok := middleware.CurrentUser(c)
	if !ok {
		response.Unauthorized(c)
		return
	}

	result, err := h.entitlementService.GetUserTotalLimits(c.Request.Context(), claims.UserID)
	if err != nil {
		response.ServerError(c, err)
		return
	}

	response.Success(c, result)
}

// Grant 为用户开通订阅
// POST /api/admin/subscriptions
func (h *SubscriptionHandler) Grant(c *gin.Context) {
	var req dto.GrantSubscriptionRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	sub, err := h.subscriptionService.Grant(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrUserNotFound):
			response.NotFound(c, "User not found")
		case errors.Is(err, service.ErrPlanNotFound):
			response.NotFound(c, "Plan not found")
		case errors.Is(err, service.ErrInvalidWindow):
			response.BadRequest(c, err.Error())
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Created(c, sub)
}

// Cancel 取消订阅
// DELETE /api/admin/subscriptions/:id
func (h *SubscriptionHandler) Cancel(c *gin.Context) {
	sub, err := h.subscriptionService.Cancel(c.Request.Context(), c.Param("id"))
	if err != nil {
		switch {
		case errors.Is(err, service.ErrSubscriptionNotFound):
			response.NotFound(c, "Subscription not found")
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Success(c, sub)
}
