package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"

	"github.com/qs3c/notemeet_server/internal/model"
)

// TestPassword 测试用户的明文密码
const TestPassword = "correct-horse"

var (
	seq          atomic.Int64
	passwordHash string
)

func init() {
	h, err := bcrypt.GenerateFromPassword([]byte(TestPassword), bcrypt.MinCost)
	if err != nil {
		panic(err)
	}
	passwordHash = string(h)
}

// TestUser 创建测试用户
func TestUser(t *testing.T, db *gorm.DB, opts ...func(*model.User)) *model.User {
	t.Helper()

	n := seq.Add(1)
	email := fmt.Sprintf("user_%d_%d@example.com", n, time.Now().UnixNano())
	hash := passwordHash
	user := &model.User{
		Name:         fmt.Sprintf("Test User %d", n),
		Email:        &email,
		PasswordHash: &hash,
		Role:         model.RoleUser,
	}

	for _, opt := range opts {
		opt(user)
	}

	if err := db.Create(user).Error; err != nil {
		t.Fatalf("Failed to create test user: %v", err)
	}

	return user
}

// WithEmail 设置邮箱
func WithEmail(email string) func(*model.User) {
	return func(u *model.User) {
		u.Email = &email
	}
}

// WithRole 设置角色
func WithRole(role model.Role) func(*model.User) {
	return func(u *model.User) {
		u.Role = role
	}
}

// WithTwoFactor 开启两步验证
func WithTwoFactor() func(*model.User) {
	return func(u *model.User) {
		u.IsTwoFactorEnabled = true
	}
}

// WithOAuth 设置为 OAuth 账号（无密码）
func WithOAuth(githubID string) func(*model.User) {
	return func(u *model.User) {
		u.IsOAuth = true
		u.GithubID = &githubID
		u.PasswordHash = nil
	}
}

// TestPlan 创建测试套餐
func TestPlan(t *testing.T, db *gorm.DB, meetings, minutes, summaries int64, opts ...func(*model.Plan)) *model.Plan {
	t.Helper()

	plan := &model.Plan{
		Name:                    fmt.Sprintf("plan_%d", seq.Add(1)),
		PriceCents:              1900,
		Currency:                "USD",
		Interval:                "month",
		MaxMeetings:             meetings,
		MaxTranscriptionMinutes: minutes,
		MaxAISummaries:          summaries,
		IsActive:                true,
	}

	for _, opt := range opts {
		opt(plan)
	}

	if err := db.Create(plan).Error; err != nil {
		t.Fatalf("Failed to create test plan: %v", err)
	}

	return plan
}

// WithPlanName 设置套餐名
func WithPlanName(name string) func(*model.Plan) {
	return func(p *model.Plan) {
		p.Name = name
	}
}

// TestSubscription 创建测试订阅，默认 active、一小时前开始、长期有效
func TestSubscription(t *testing.T, db *gorm.DB, userID, planID int64, opts ...func(*model.UserSubscription)) *model.UserSubscription {
	t.Helper()

	sub := &model.UserSubscription{
		UserID:    userID,
		PlanID:    planID,
		Status:    model.SubscriptionStatusActive,
		StartedAt: time.Now().UTC().Add(-time.Hour),
	}

	for _, opt := range opts {
		opt(sub)
	}

	if err := db.Create(sub).Error; err != nil {
		t.Fatalf("Failed to create test subscription: %v", err)
	}

	return sub
}

// WithStatus 设置订阅状态
func WithStatus(status string) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.Status = status
	}
}

// WithWindow 设置订阅有效期
func WithWindow(startedAt time.Time, expiresAt *time.Time) func(*model.UserSubscription) {
	return func(s *model.UserSubscription) {
		s.StartedAt = startedAt.UTC()
		if expiresAt != nil {
			e := expiresAt.UTC()
			s.ExpiresAt = &e
		} else {
			s.ExpiresAt = nil
		}
	}
}

// TestUsage 写入一条用量记录
func TestUsage(t *testing.T, db *gorm.DB, userID int64, metric string, amount int64, at time.Time) *model.UsageRecord {
	t.Helper()

	rec := &model.UsageRecord{
		UserID:     userID,
		Metric:     metric,
		Amount:     amount,
		RecordedAt: at.UTC(),
	}

	if err := db.Create(rec).Error; err != nil {
		t.Fatalf("Failed to create test usage record: %v", err)
	}

	return rec
}
