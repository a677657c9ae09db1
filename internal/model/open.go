package model

import (
	"time"
)

// BlindBoxOpen 盲盒开启日志
// 只追加，每次成功揭晓写一行；心愿被删除后记录仍可读。
type BlindBoxOpen struct {
	ID                uint      `gorm:"primaryKey" json:"id"`
	ChainID           uint      `gorm:"not null;index" json:"chain_id"`
	WishID            uint      `gorm:"not null" json:"wish_id"` // 被揭晓的心愿
	OpenerFingerprint string    `gorm:"type:varchar(64);index" json:"opener_fingerprint"`
	UserAgent         string    `gorm:"type:varchar(500)" json:"user_agent"`
	ClientIP          string    `gorm:"type:varchar(50)" json:"client_ip"`
	CreatedAt         time.Time `gorm:"index" json:"created_at"`
}

func (BlindBoxOpen) TableName() string {
	return "blind_box_opens"
}

// UserOpenedWish 收到方的心愿收藏
// 以 (user_fingerprint, wish_id, chain_id) 作为自然唯一键，
// 匿名指纹之后绑定账号时只补写 user_id，不会产生重复行。
type UserOpenedWish struct {
	ID              uint      `gorm:"primaryKey" json:"id"`
	UserFingerprint string    `gorm:"type:varchar(64);not null;uniqueIndex:uk_fp_wish_chain" json:"user_fingerprint"`
	UserID          *uint     `gorm:"index" json:"user_id"` // 认证后补写
	WishID          uint      `gorm:"not null;uniqueIndex:uk_fp_wish_chain" json:"wish_id"`
	ChainID         uint      `gorm:"not null;uniqueIndex:uk_fp_wish_chain" json:"chain_id"`
	Wish            *Wish     `gorm:"foreignKey:WishID" json:"wish,omitempty"`
	CreatorName     string    `gorm:"type:varchar(100)" json:"creator_name"`
	OpenedAt        time.Time `json:"opened_at"`
	IsFavorite      bool      `gorm:"default:false" json:"is_favorite"`
	Notes           string    `gorm:"type:text" json:"notes"`
	CreatedAt       time.Time `json:"created_at"`
	UpdatedAt       time.Time `json:"updated_at"`
}

func (UserOpenedWish) TableName() string {
	return "user_opened_wishes"
}
