package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/repository"
)

var (
	ErrPlanNotFound         = errors.New("plan not found")
	ErrSubscriptionNotFound = errors.New("subscription not found")
	ErrInvalidWindow        = errors.New("expires_at must be after started_at")
)

// SubscriptionService 管理员开通、取消订阅以及过期清理
type SubscriptionService struct {
	subRepo  *repository.SubscriptionRepository
	userRepo *repository.UserRepository
	planRepo *repository.PlanRepository
	now      func() time.Time
}

// SetClock 替换时钟，仅测试使用
func (s *SubscriptionService) SetClock(now func() time.Time) {
	s.now = now
}

func NewSubscriptionService(
	subRepo *repository.SubscriptionRepository,
	userRepo *repository.UserRepository,
	planRepo *repository.PlanRepository,
) *SubscriptionService {
	return &SubscriptionService{
		subRepo:  subRepo,
		userRepo: userRepo,
		planRepo: planRepo,
		now:      time.Now,
	}
}

// Grant 为用户开通订阅，并设为用户当前订阅
func (s *SubscriptionService) Grant(ctx context.Context, req *dto.GrantSubscriptionRequest) (*model.UserSubscription, error) {
	if _, err := s.userRepo.GetByID(ctx, req.UserID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	plan, err := s.planRepo.GetByID(ctx, req.PlanID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrPlanNotFound
		}
		return nil, err
	}

	startedAt := s.now().UTC()
	if req.StartedAt != nil {
		startedAt = req.StartedAt.UTC()
	}
	var expiresAt *time.Time
	if req.ExpiresAt != nil {
		t := req.ExpiresAt.UTC()
		if !t.After(startedAt) {
			return nil, ErrInvalidWindow
		}
		expiresAt = &t
	}

	sub := &model.UserSubscription{
		UserID:    req.UserID,
		PlanID:    plan.ID,
		Status:    model.SubscriptionStatusActive,
		StartedAt: startedAt,
		ExpiresAt: expiresAt,
	}
	if err := s.subRepo.CreateCurrent(ctx, sub); err != nil {
		return nil, fmt.Errorf("create subscription: %w", err)
	}

	sub.Plan = plan
	return sub, nil
}

// Cancel 取消订阅，是用户当前订阅时一并清空
func (s *SubscriptionService) Cancel(ctx context.Context, id string) (*model.UserSubscription, error) {
	sub, err := s.subRepo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrSubscriptionNotFound
		}
		return nil, err
	}

	if err := s.subRepo.Cancel(ctx, id); err != nil {
		return nil, err
	}
	sub.Status = model.SubscriptionStatusCancelled
	return sub, nil
}

// ListLapsed 列出已到期但仍为 active 的订阅
func (s *SubscriptionService) ListLapsed(ctx context.Context) ([]model.UserSubscription, error) {
	return s.subRepo.ListLapsed(ctx, s.now().UTC())
}

// ExpireLapsed 将到期订阅标记为 expired，返回处理条数
func (s *SubscriptionService) ExpireLapsed(ctx context.Context) (int64, error) {
	return s.subRepo.ExpireLapsed(ctx, s.now().UTC())
}
