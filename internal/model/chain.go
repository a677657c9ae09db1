package model

import (
	"time"
)

// StarChain 星链表
// 一条星链把创建者选中的若干心愿打包成一个可分享的揭晓链接。
// is_opened 是全系统唯一的单向状态转换：未开启 -> 已开启，终态。
type StarChain struct {
	ID                uint       `gorm:"primaryKey" json:"id"`
	CreatorID         uint       `gorm:"not null;index" json:"creator_id"`
	Creator           *User      `gorm:"foreignKey:CreatorID" json:"creator,omitempty"`
	Name              string     `gorm:"type:varchar(100)" json:"name"`
	Description       string     `gorm:"type:text" json:"description"`
	ShareCode         string     `gorm:"type:varchar(16);uniqueIndex;not null" json:"share_code"`
	ExpiresAt         *time.Time `json:"expires_at"` // 空表示永不过期
	IsActive          bool       `gorm:"default:true" json:"is_active"`
	IsOpened          bool       `gorm:"default:false;index" json:"is_opened"`
	OpenedAt          *time.Time `json:"opened_at"`
	OpenerFingerprint string     `gorm:"type:varchar(64)" json:"opener_fingerprint"`
	TotalOpens        int        `gorm:"default:0" json:"total_opens"`
	CreatedAt         time.Time  `json:"created_at"`
}

func (StarChain) TableName() string {
	return "star_chains"
}

// StarChainWish 星链-心愿关联表
// 成员集合在建链时写入，之后不可增删。
type StarChainWish struct {
	ID      uint `gorm:"primaryKey" json:"id"`
	ChainID uint `gorm:"not null;uniqueIndex:uk_chain_wish" json:"chain_id"`
	WishID  uint `gorm:"not null;uniqueIndex:uk_chain_wish" json:"wish_id"`
}

func (StarChainWish) TableName() string {
	return "star_chain_wishes"
}

// ChainStatusCounts 星链状态统计（纯派生值，不落库）
type ChainStatusCounts struct {
	All      int64 `json:"all"`
	Opened   int64 `json:"opened"`
	Unopened int64 `json:"unopened"`
}
