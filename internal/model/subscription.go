package model

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	SubscriptionStatusActive    = "active"
	SubscriptionStatusCancelled = "cancelled"
	SubscriptionStatusExpired   = "expired"
)

type UserSubscription struct {
	ID        string     `gorm:"primaryKey;size:36" json:"id"`
	UserID    int64      `gorm:"not null;index" json:"user_id"`
	PlanID    int64      `gorm:"not null;index" json:"plan_id"`
	Plan      *Plan      `gorm:"foreignKey:PlanID" json:"plan,omitempty"`
	Status    string     `gorm:"size:20;not null;default:active;index" json:"status"`
	StartedAt time.Time  `gorm:"not null" json:"started_at"`
	ExpiresAt *time.Time `gorm:"index" json:"expires_at,omitempty"` // nil 表示长期有效
	CreatedAt time.Time  `json:"created_at"`
}

func (UserSubscription) TableName() string {
	return "user_subscriptions"
}

// BeforeCreate 未指定 ID 时生成 UUID
func (s *UserSubscription) BeforeCreate(tx *gorm.DB) error {
	if s.ID == "" {
		s.ID = uuid.NewString()
	}
	return nil
}

// IsActiveAt 判断订阅在 t 时刻是否生效：状态为 active 且 t 落在 [StartedAt, ExpiresAt) 内
func (s *UserSubscription) IsActiveAt(t time.Time) bool {
	if s.Status != SubscriptionStatusActive {
		return false
	}
	if t.Before(s.StartedAt) {
		return false
	}
	if s.ExpiresAt != nil && !t.Before(*s.ExpiresAt) {
		return false
	}
	return true
}
