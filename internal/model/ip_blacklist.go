package model

import (
	"time"
)

// IPBlacklist IP黑名单
// 盲盒揭晓接口是公开无鉴权的，黑名单用于封禁刷码扫描行为。
type IPBlacklist struct {
	ID        uint      `gorm:"primaryKey" json:"id"`
	IP        string    `gorm:"type:varchar(45);uniqueIndex;not null" json:"ip"` // 支持IPv6
	Reason    string    `gorm:"type:varchar(200)" json:"reason"`                 // 拉黑原因
	CreatedAt time.Time `json:"created_at"`
}

func (IPBlacklist) TableName() string {
	return "ip_blacklist"
}

// IsIPBlacklisted 检查IP是否在黑名单中
func IsIPBlacklisted(ip string) bool {
	var count int64
	GetDB().Model(&IPBlacklist{}).Where("ip = ?", ip).Count(&count)
	return count > 0
}
