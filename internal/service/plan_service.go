package service

import (
	"context"
	"errors"

	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/repository"
)

var ErrPlanExists = errors.New("plan name already in use")

type PlanService struct {
	planRepo *repository.PlanRepository
}

func NewPlanService(planRepo *repository.PlanRepository) *PlanService {
	return &PlanService{planRepo: planRepo}
}

// List 返回全部套餐，不做过滤
func (s *PlanService) List(ctx context.Context) ([]model.Plan, error) {
	return s.planRepo.List(ctx)
}

// Get 查询单个套餐，不存在时返回 nil, nil
func (s *PlanService) Get(ctx context.Context, id int64) (*model.Plan, error) {
	if id <= 0 {
		return nil, nil
	}
	plan, err := s.planRepo.GetByID(ctx, id)
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return plan, nil
}

// Create 创建套餐
func (s *PlanService) Create(ctx context.Context, req *dto.CreatePlanRequest) (*model.Plan, error) {
	exists, err := s.planRepo.ExistsByName(ctx, req.Name)
	if err != nil {
		return nil, err
	}
	if exists {
		return nil, ErrPlanExists
	}

	plan := &model.Plan{
		Name:                    req.Name,
		Description:             req.Description,
		PriceCents:              req.PriceCents,
		Currency:                req.Currency,
		Interval:                req.Interval,
		MaxMeetings:             req.MaxMeetings,
		MaxTranscriptionMinutes: req.MaxTranscriptionMinutes,
		MaxAISummaries:          req.MaxAISummaries,
		IsActive:                true,
	}
	if plan.Currency == "" {
		plan.Currency = "USD"
	}
	if plan.Interval == "" {
		plan.Interval = "month"
	}
	if req.IsActive != nil {
		plan.IsActive = *req.IsActive
	}

	if err := s.planRepo.Create(ctx, plan); err != nil {
		return nil, err
	}
	return plan, nil
}
