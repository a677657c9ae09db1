package model

import (
	"database/sql/driver"
	"encoding/json"
	"time"

	"gorm.io/gorm"
)

// 心愿分类
const (
	CategoryGift       = "gift"       // 礼物
	CategoryExperience = "experience" // 体验
	CategoryMoment     = "moment"     // 时刻
)

// 心愿优先级
const (
	PriorityLow    = "low"
	PriorityMedium = "medium"
	PriorityHigh   = "high"
)

// StringList 有序字符串列表，JSON方式存储
type StringList []string

// Scan 实现 sql.Scanner 接口
func (l *StringList) Scan(value interface{}) error {
	if value == nil {
		*l = nil
		return nil
	}
	bytes, ok := value.([]byte)
	if !ok {
		if s, ok := value.(string); ok {
			bytes = []byte(s)
		} else {
			*l = nil
			return nil
		}
	}
	if len(bytes) == 0 {
		*l = nil
		return nil
	}
	return json.Unmarshal(bytes, l)
}

// Value 实现 driver.Valuer 接口
func (l StringList) Value() (driver.Value, error) {
	if l == nil {
		return json.Marshal([]string{})
	}
	return json.Marshal(l)
}

// Wish 心愿表
type Wish struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	UserID         uint           `gorm:"not null;index" json:"user_id"`
	Title          string         `gorm:"type:varchar(200);not null" json:"title"`
	Description    string         `gorm:"type:text" json:"description"`
	Category       string         `gorm:"type:varchar(20);default:'gift'" json:"category"`    // gift/experience/moment
	Priority       string         `gorm:"type:varchar(10);default:'medium'" json:"priority"`  // low/medium/high
	Tags           StringList     `gorm:"type:json" json:"tags"`
	EstimatedPrice string         `gorm:"type:varchar(100)" json:"estimated_price"` // 自由文本，不参与计算
	Notes          string         `gorm:"type:text" json:"notes"`
	CreatedAt      time.Time      `gorm:"index" json:"created_at"`
	UpdatedAt      time.Time      `json:"updated_at"`
	DeletedAt      gorm.DeletedAt `gorm:"index" json:"-"`
}

func (Wish) TableName() string {
	return "wishes"
}

// WishQuery 心愿列表查询参数
type WishQuery struct {
	Category string `form:"category"`
	Priority string `form:"priority"`
	Keyword  string `form:"keyword"`
	SortKey  string `form:"sort"`
}
