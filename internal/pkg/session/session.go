// Package session 定义认证后随请求传递的用户声明。
//
// Claims 是值类型，由认证中间件根据当前用户记录构造后放入请求上下文，
// 下游的权限判断只读取它，不直接解析 token。
package session

import (
	"github.com/qs3c/notemeet_server/internal/model"
)

// Claims 当前会话用户的声明
type Claims struct {
	UserID             int64      `json:"id"`
	Name               string     `json:"name"`
	Email              string     `json:"email,omitempty"`
	Image              string     `json:"image,omitempty"`
	Role               model.Role `json:"role"`
	IsTwoFactorEnabled bool       `json:"isTwoFactorEnabled"`
	IsOAuth            bool       `json:"isOAuth"`
	SubscriptionID     string     `json:"subscriptionId"`
}

// FromUser 根据用户记录构造声明，角色缺失或非法时按 USER 处理
func FromUser(user *model.User) Claims {
	c := Claims{
		UserID:             user.ID,
		Name:               user.Name,
		Image:              user.Image,
		Role:               user.Role,
		IsTwoFactorEnabled: user.IsTwoFactorEnabled,
		IsOAuth:            user.IsOAuth,
	}
	if !c.Role.Valid() {
		c.Role = model.RoleUser
	}
	if user.Email != nil {
		c.Email = *user.Email
	}
	if user.SubscriptionID != nil {
		c.SubscriptionID = *user.SubscriptionID
	}
	return c
}

// IsAdmin 是否管理员
func (c Claims) IsAdmin() bool {
	return c.Role == model.RoleAdmin
}

// HasRole 是否拥有任一指定角色
func (c Claims) HasRole(roles ...model.Role) bool {
	for _, r := range roles {
		if c.Role == r {
			return true
		}
	}
	return false
}
