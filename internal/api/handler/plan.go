package handler

import (
	"errors"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/response"
	"github.com/qs3c/notemeet_server/internal/service"
)

type PlanHandler struct {
	planService *service.PlanService
}

func NewPlanHandler(planService *service.PlanService) *PlanHandler {
	return &PlanHandler{
		planService: planService,
	}
}

// List 全部套餐
// GET /api/plan
func (h *PlanHandler) List(c *gin.Context) {
	plans, err := h.planService.List(c.Request.Context())
	if err != nil {
		response.ServerError(c, err)
		return
	}

	response.Success(c, plans)
}

// Get 单个套餐，不存在时返回 null
// GET /api/plan/:id
func (h *PlanHandler) Get(c *gin.Context) {
	id, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		response.Success(c, nil)
		return
	}

	plan, err := h.planService.Get(c.Request.Context(), id)
	if err != nil {
		response.ServerError(c, err)
		return
	}
	if plan == nil {
		response.Success(c, nil)
		return
	}

	response.Success(c, plan)
}

// Create 创建套餐
// POST /api/plan
func (h *PlanHandler) Create(c *gin.Context) {
	var req dto.CreatePlanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.BadRequest(c, err.Error())
		return
	}

	plan, err := h.planService.Create(c.Request.Context(), &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrPlanExists):
			response.Conflict(c, "Plan name already in use")
		default:
			response.ServerError(c, err)
		}
		return
	}

	response.Created(c, plan)
}
