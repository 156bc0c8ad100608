package models

import (
	"time"
)

// User 用户模型
type User struct {
	ID        string     `gorm:"type:varchar(50);primaryKey" json:"id"`
	Username  string     `gorm:"type:varchar(100)" json:"username"`
	Email     string     `gorm:"type:varchar(100)" json:"email"`
	CreatedAt time.Time  `json:"createdAt"`
	Avatar    string     `gorm:"type:varchar(255)" json:"avatar"`
	LastLogin *time.Time `json:"last_login,omitempty"`
}

// GetDisplayName 返回用于邮件展示的身份，优先昵称，其次邮箱
func (u *User) GetDisplayName() string {
	if u.Username != "" {
		return u.Username
	}
	if u.Email != "" {
		return u.Email
	}
	return "某位协作者"
}
