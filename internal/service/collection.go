package service

import (
	"errors"
	"time"

	"starwish/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CollectionService 心愿收藏服务
// 管理收到方（开盒人）的已揭晓心愿，匿名指纹身份与账号身份都支持。
type CollectionService struct{}

var collectionService *CollectionService

// GetCollectionService 获取收藏服务
func GetCollectionService() *CollectionService {
	if collectionService == nil {
		collectionService = &CollectionService{}
	}
	return collectionService
}

// RecordOpenedWish 记录一次揭晓到的心愿
// 自然唯一键(fingerprint, wish_id, chain_id)保证重复写入幂等。
func (s *CollectionService) RecordOpenedWish(fingerprint string, userID *uint, wish *model.Wish, chain *model.StarChain, creatorName string, openedAt time.Time) error {
	entry := model.UserOpenedWish{
		UserFingerprint: fingerprint,
		UserID:          userID,
		WishID:          wish.ID,
		ChainID:         chain.ID,
		CreatorName:     creatorName,
		OpenedAt:        openedAt,
	}
	return model.GetDB().Clauses(clause.OnConflict{DoNothing: true}).Create(&entry).Error
}

// ListOpened 已揭晓心愿列表
// 未登录按指纹查；登录后同时带上账号名下的历史记录。
func (s *CollectionService) ListOpened(fingerprint string, userID *uint) ([]model.UserOpenedWish, error) {
	// Unscoped预加载：创建者删掉心愿后，收到方的记录依然完整可读
	db := model.GetDB().Preload("Wish", func(db *gorm.DB) *gorm.DB { return db.Unscoped() })
	if userID != nil && fingerprint != "" {
		db = db.Where("user_fingerprint = ? OR user_id = ?", fingerprint, *userID)
	} else if userID != nil {
		db = db.Where("user_id = ?", *userID)
	} else {
		if fingerprint == "" {
			return []model.UserOpenedWish{}, nil
		}
		db = db.Where("user_fingerprint = ?", fingerprint)
	}

	var entries []model.UserOpenedWish
	if err := db.Order("opened_at DESC, id DESC").Find(&entries).Error; err != nil {
		return nil, err
	}
	return entries, nil
}

// UpdateEntryRequest 更新收藏条目请求
type UpdateEntryRequest struct {
	IsFavorite *bool   `json:"is_favorite"`
	Notes      *string `json:"notes"`
}

// UpdateEntry 更新收藏条目（收藏标记/备注），只能改自己名下的
func (s *CollectionService) UpdateEntry(fingerprint string, userID *uint, entryID uint, req *UpdateEntryRequest) (*model.UserOpenedWish, error) {
	var entry model.UserOpenedWish
	db := model.GetDB().Where("id = ?", entryID)
	if userID != nil && fingerprint != "" {
		db = db.Where("user_fingerprint = ? OR user_id = ?", fingerprint, *userID)
	} else if userID != nil {
		db = db.Where("user_id = ?", *userID)
	} else {
		db = db.Where("user_fingerprint = ?", fingerprint)
	}
	if err := db.First(&entry).Error; err != nil {
		return nil, errors.New("记录不存在")
	}

	updates := map[string]interface{}{}
	if req.IsFavorite != nil {
		updates["is_favorite"] = *req.IsFavorite
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}
	if len(updates) > 0 {
		if err := model.GetDB().Model(&entry).Updates(updates).Error; err != nil {
			return nil, errors.New("更新失败")
		}
	}

	model.GetDB().Preload("Wish", func(db *gorm.DB) *gorm.DB { return db.Unscoped() }).First(&entry, entry.ID)
	return &entry, nil
}

// MigrateFingerprint 匿名指纹绑定到账号
// 注册/登录后把指纹名下还没归属的记录补写user_id。
// 重复调用是幂等的：已归属的行不再匹配WHERE条件。
func (s *CollectionService) MigrateFingerprint(fingerprint string, userID uint) (int64, error) {
	if fingerprint == "" {
		return 0, nil
	}
	result := model.GetDB().Model(&model.UserOpenedWish{}).
		Where("user_fingerprint = ? AND user_id IS NULL", fingerprint).
		Update("user_id", userID)
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}

// CountOpened 已揭晓心愿数
func (s *CollectionService) CountOpened(fingerprint string, userID *uint) (int64, error) {
	db := model.GetDB().Model(&model.UserOpenedWish{})
	if userID != nil && fingerprint != "" {
		db = db.Where("user_fingerprint = ? OR user_id = ?", fingerprint, *userID)
	} else if userID != nil {
		db = db.Where("user_id = ?", *userID)
	} else if fingerprint != "" {
		db = db.Where("user_fingerprint = ?", fingerprint)
	} else {
		return 0, nil
	}
	var n int64
	if err := db.Count(&n).Error; err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, err
	}
	return n, nil
}
