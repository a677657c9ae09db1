package model

import (
	"time"

	"gorm.io/gorm"
)

// User 用户表
type User struct {
	ID        uint           `gorm:"primaryKey" json:"id"`
	Email     string         `gorm:"type:varchar(100);uniqueIndex;not null" json:"email"`
	Nickname  string         `gorm:"type:varchar(50)" json:"nickname"`
	Password  string         `gorm:"type:varchar(100);not null" json:"-"` // 登录密码 (bcrypt)
	Status    int8           `gorm:"default:1" json:"status"`             // 1:正常 0:禁用
	LastLogin *time.Time     `json:"last_login"`
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (User) TableName() string {
	return "users"
}

// DisplayName 对外展示的名称，昵称为空时退化为邮箱前缀
func (u *User) DisplayName() string {
	if u.Nickname != "" {
		return u.Nickname
	}
	for i := 0; i < len(u.Email); i++ {
		if u.Email[i] == '@' {
			return u.Email[:i]
		}
	}
	return u.Email
}
