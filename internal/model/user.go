package model

import (
	"time"
)

// Role 用户角色
type Role string

const (
	RoleUser  Role = "USER"
	RoleAdmin Role = "ADMIN"
)

// Valid 判断角色取值是否合法
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

type User struct {
	ID                 int64      `gorm:"primaryKey" json:"id"`
	Name               string     `gorm:"size:100" json:"name"`
	Email              *string    `gorm:"size:191;uniqueIndex" json:"email,omitempty"`
	PasswordHash       *string    `gorm:"size:255" json:"-"`
	Image              string     `gorm:"size:500" json:"image"`
	GithubID           *string    `gorm:"column:github_id;size:50;uniqueIndex" json:"-"`
	Role               Role       `gorm:"size:20;not null;default:USER" json:"role"`
	IsTwoFactorEnabled bool       `gorm:"default:false" json:"is_two_factor_enabled"`
	IsOAuth            bool       `gorm:"column:is_oauth;default:false" json:"is_oauth"`
	SubscriptionID     *string    `gorm:"size:36;index" json:"subscription_id,omitempty"`
	EmailVerifiedAt    *time.Time `json:"email_verified_at,omitempty"`
	CreatedAt          time.Time  `json:"created_at"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

func (User) TableName() string {
	return "users"
}
