package dto

import (
	"time"

	"github.com/qs3c/notemeet_server/internal/model"
)

// EntitlementResult 用户当前有效订阅及汇总额度，不落库
type EntitlementResult struct {
	Subscriptions []model.UserSubscription `json:"subscriptions"`
	Limits        map[string]int64         `json:"limits"`
	Usage         map[string]int64         `json:"usage"`
}

// GrantSubscriptionRequest 管理员为用户开通订阅
type GrantSubscriptionRequest struct {
	UserID    int64      `json:"user_id" binding:"required,gt=0"`
	PlanID    int64      `json:"plan_id" binding:"required,gt=0"`
	StartedAt *time.Time `json:"started_at"`
	ExpiresAt *time.Time `json:"expires_at"`
}
