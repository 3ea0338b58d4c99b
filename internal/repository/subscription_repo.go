package repository

import (
	"context"
	"time"

	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
)

type SubscriptionRepository struct {
	db *gorm.DB
}

func NewSubscriptionRepository(db *gorm.DB) *SubscriptionRepository {
	return &SubscriptionRepository{db: db}
}

func (r *SubscriptionRepository) Create(ctx context.Context, sub *model.UserSubscription) error {
	return r.db.WithContext(ctx).Create(sub).Error
}

// CreateCurrent 创建订阅并设为用户当前订阅，两步在同一事务内
func (r *SubscriptionRepository) CreateCurrent(ctx context.Context, sub *model.UserSubscription) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Create(sub).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("id = ?", sub.UserID).
			Update("subscription_id", sub.ID).Error
	})
}

func (r *SubscriptionRepository) GetByID(ctx context.Context, id string) (*model.UserSubscription, error) {
	var sub model.UserSubscription
	err := r.db.WithContext(ctx).Preload("Plan").Where("id = ?", id).First(&sub).Error
	if err != nil {
		return nil, err
	}
	return &sub, nil
}

// ListByUser 返回用户的全部订阅（含套餐），按开始时间升序
func (r *SubscriptionRepository) ListByUser(ctx context.Context, userID int64) ([]model.UserSubscription, error) {
	subs := make([]model.UserSubscription, 0)
	err := r.db.WithContext(ctx).Preload("Plan").
		Where("user_id = ?", userID).
		Order("started_at ASC, created_at ASC").
		Find(&subs).Error
	return subs, err
}

func (r *SubscriptionRepository) UpdateStatus(ctx context.Context, id, status string) error {
	return r.db.WithContext(ctx).Model(&model.UserSubscription{}).Where("id = ?", id).
		Update("status", status).Error
}

// Cancel 标记订阅为 cancelled，并清空以它为当前订阅的用户
func (r *SubscriptionRepository) Cancel(ctx context.Context, id string) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Model(&model.UserSubscription{}).Where("id = ?", id).
			Update("status", model.SubscriptionStatusCancelled).Error; err != nil {
			return err
		}
		return tx.Model(&model.User{}).Where("subscription_id = ?", id).
			Update("subscription_id", nil).Error
	})
}

// ListLapsed 返回状态仍为 active 但已过期的订阅
func (r *SubscriptionRepository) ListLapsed(ctx context.Context, now time.Time) ([]model.UserSubscription, error) {
	subs := make([]model.UserSubscription, 0)
	err := r.db.WithContext(ctx).
		Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", model.SubscriptionStatusActive, now).
		Find(&subs).Error
	return subs, err
}

// ExpireLapsed 将已过期的 active 订阅标记为 expired 并清空对应用户的当前订阅，返回影响行数
func (r *SubscriptionRepository) ExpireLapsed(ctx context.Context, now time.Time) (int64, error) {
	var n int64
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var ids []string
		if err := tx.Model(&model.UserSubscription{}).
			Where("status = ? AND expires_at IS NOT NULL AND expires_at <= ?", model.SubscriptionStatusActive, now).
			Pluck("id", &ids).Error; err != nil {
			return err
		}
		if len(ids) == 0 {
			return nil
		}

		res := tx.Model(&model.UserSubscription{}).Where("id IN ?", ids).
			Update("status", model.SubscriptionStatusExpired)
		if res.Error != nil {
			return res.Error
		}
		n = res.RowsAffected

		return tx.Model(&model.User{}).Where("subscription_id IN ?", ids).
			Update("subscription_id", nil).Error
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}
