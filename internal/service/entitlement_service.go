package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/qs3c/notemeet_server/config"
	"github.com/qs3c/notemeet_server/internal/model"
	"github.com/qs3c/notemeet_server/internal/model/dto"
	"github.com/qs3c/notemeet_server/internal/pkg/metrics"
	"github.com/qs3c/notemeet_server/internal/repository"
)

var ErrInvalidUserID = errors.New("invalid user id")

// EntitlementService 汇总用户有效订阅的额度
//
// 汇总规则：各项额度对所有有效订阅的套餐求和，任一套餐该项为 -1 时结果为 -1（不限）。
// 没有有效订阅时返回配置中的默认额度。
type EntitlementService struct {
	subRepo   *repository.SubscriptionRepository
	usageRepo *repository.UsageRepository
	defaults  map[string]int64
	metrics   *metrics.Metrics
	now       func() time.Time
}

type EntitlementOption func(*EntitlementService)

// WithClock 替换时钟
func WithClock(now func() time.Time) EntitlementOption {
	return func(s *EntitlementService) {
		s.now = now
	}
}

// WithMetrics 记录解析结果
func WithMetrics(m *metrics.Metrics) EntitlementOption {
	return func(s *EntitlementService) {
		s.metrics = m
	}
}

func NewEntitlementService(
	subRepo *repository.SubscriptionRepository,
	usageRepo *repository.UsageRepository,
	cfg *config.Config,
	opts ...EntitlementOption,
) *EntitlementService {
	s := &EntitlementService{
		subRepo:   subRepo,
		usageRepo: usageRepo,
		defaults:  cfg.Entitlement.DefaultLimits,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUserTotalLimits 返回用户当前有效订阅及汇总后的额度和本月用量
func (s *EntitlementService) GetUserTotalLimits(ctx context.Context, userID int64) (*dto.EntitlementResult, error) {
	if userID <= 0 {
		return nil, ErrInvalidUserID
	}

	now := s.now().UTC()

	all, err := s.subRepo.ListByUser(ctx, userID)
	if err != nil {
		s.metrics.ObserveEntitlement("error")
		return nil, fmt.Errorf("list subscriptions: %w", err)
	}

	active := make([]model.UserSubscription, 0, len(all))
	plans := make([]*model.Plan, 0, len(all))
	for i := range all {
		sub := all[i]
		if !sub.IsActiveAt(now) || sub.Plan == nil {
			continue
		}
		active = append(active, sub)
		plans = append(plans, sub.Plan)
	}

	from, to := monthWindow(now)
	used, err := s.usageRepo.SumByMetric(ctx, userID, from, to)
	if err != nil {
		s.metrics.ObserveEntitlement("error")
		return nil, fmt.Errorf("sum usage: %w", err)
	}

	var limits map[string]int64
	if len(plans) == 0 {
		limits = DefaultLimits(s.defaults)
		s.metrics.ObserveEntitlement("empty")
	} else {
		limits = SumLimits(plans)
		s.metrics.ObserveEntitlement("ok")
	}

	return &dto.EntitlementResult{
		Subscriptions: active,
		Limits:        limits,
		Usage:         fillLimitKeys(used),
	}, nil
}

// SumLimits 对套餐额度逐项求和，任一为不限则该项不限
func SumLimits(plans []*model.Plan) map[string]int64 {
	total := fillLimitKeys(nil)
	for _, p := range plans {
		for name, v := range p.Limits() {
			if total[name] == model.Unlimited {
				continue
			}
			if v < 0 {
				total[name] = model.Unlimited
				continue
			}
			total[name] += v
		}
	}
	return total
}

// DefaultLimits 无有效订阅时的额度，未配置的项为 0
func DefaultLimits(configured map[string]int64) map[string]int64 {
	limits := fillLimitKeys(nil)
	for _, name := range model.LimitNames {
		if v, ok := configured[name]; ok {
			limits[name] = v
		}
	}
	return limits
}

// fillLimitKeys 保证每个额度名都存在
func fillLimitKeys(m map[string]int64) map[string]int64 {
	out := make(map[string]int64, len(model.LimitNames))
	for _, name := range model.LimitNames {
		out[name] = m[name]
	}
	return out
}

// monthWindow 返回 t 所在自然月（UTC）的起止时间
func monthWindow(t time.Time) (time.Time, time.Time) {
	t = t.UTC()
	from := time.Date(t.Year(), t.Month(), 1, 0, 0, 0, 0, time.UTC)
	return from, from.AddDate(0, 1, 0)
}
