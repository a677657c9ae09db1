package model

import (
	"time"
)

// SystemConfig 系统配置表
type SystemConfig struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	Key         string    `gorm:"type:varchar(50);uniqueIndex;not null" json:"key"`
	Value       string    `gorm:"type:text" json:"value"`
	Description string    `gorm:"type:varchar(200)" json:"description"`
	UpdatedAt   time.Time `json:"updated_at"`
}

func (SystemConfig) TableName() string {
	return "system_configs"
}

// 系统配置键名常量
const (
	ConfigKeySiteName         = "site_name"          // 网站名称
	ConfigKeyShareBaseURL     = "share_base_url"     // 分享链接域名，空则使用请求来源
	ConfigKeyChainExpireHours = "chain_expire_hours" // 星链默认有效期(小时)，0表示永不过期
	ConfigKeyMaxChainWishes   = "max_chain_wishes"   // 单条星链最多包含的心愿数
)

// GetConfigValue 读取系统配置，缺省时返回fallback
func GetConfigValue(key, fallback string) string {
	var cfg SystemConfig
	if err := GetDB().Where("`key` = ?", key).First(&cfg).Error; err != nil || cfg.Value == "" {
		return fallback
	}
	return cfg.Value
}
