package service

import (
	"errors"
	"fmt"
	"log"
	"strconv"
	"time"

	"starwish/config"
	"starwish/internal/model"
	"starwish/internal/util"
)

// ChainService 星链服务
type ChainService struct{}

var chainService *ChainService

// GetChainService 获取星链服务
func GetChainService() *ChainService {
	if chainService == nil {
		chainService = &ChainService{}
	}
	return chainService
}

// CreateChainRequest 创建星链请求
type CreateChainRequest struct {
	WishIDs     []uint `json:"wish_ids"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ExpireHours int    `json:"expire_hours"` // 0使用默认，-1永不过期
}

// ChainDetail 星链详情（带成员心愿）
type ChainDetail struct {
	Chain  *model.StarChain `json:"chain"`
	Wishes []model.Wish     `json:"wishes"`
}

func (s *ChainService) codeLength() int {
	if c := config.Get(); c != nil && c.Chain.CodeLength > 0 {
		return c.Chain.CodeLength
	}
	return 8
}

func (s *ChainService) maxWishes() int {
	fallback := 20
	if c := config.Get(); c != nil && c.Chain.MaxWishes > 0 {
		fallback = c.Chain.MaxWishes
	}
	v := model.GetConfigValue(model.ConfigKeyMaxChainWishes, strconv.Itoa(fallback))
	if n, err := strconv.Atoi(v); err == nil && n > 0 {
		return n
	}
	return fallback
}

func (s *ChainService) defaultExpireHours() int {
	fallback := 0
	if c := config.Get(); c != nil {
		fallback = c.Chain.DefaultExpireHours
	}
	v := model.GetConfigValue(model.ConfigKeyChainExpireHours, strconv.Itoa(fallback))
	if n, err := strconv.Atoi(v); err == nil {
		return n
	}
	return fallback
}

// CreateChain 创建星链
// 创建者取自当前登录用户，心愿必须全部属于该用户。
func (s *ChainService) CreateChain(userID uint, req *CreateChainRequest) (*model.StarChain, error) {
	if len(req.WishIDs) == 0 {
		return nil, errors.New("请至少选择一个心愿")
	}
	if max := s.maxWishes(); len(req.WishIDs) > max {
		return nil, fmt.Errorf("一条星链最多包含%d个心愿", max)
	}

	// 归属校验 + 去重
	seen := make(map[uint]struct{}, len(req.WishIDs))
	ids := make([]uint, 0, len(req.WishIDs))
	for _, id := range req.WishIDs {
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}

	var count int64
	if err := model.GetDB().Model(&model.Wish{}).Where("id IN ? AND user_id = ?", ids, userID).Count(&count).Error; err != nil {
		return nil, errors.New("心愿校验失败")
	}
	if count != int64(len(ids)) {
		return nil, errors.New("包含不存在或不属于你的心愿")
	}

	var expiresAt *time.Time
	hours := req.ExpireHours
	if hours == 0 {
		hours = s.defaultExpireHours()
	}
	if hours > 0 {
		t := time.Now().Add(time.Duration(hours) * time.Hour)
		expiresAt = &t
	}

	chain := model.StarChain{
		CreatorID:   userID,
		Name:        req.Name,
		Description: req.Description,
		ExpiresAt:   expiresAt,
		IsActive:    true,
	}

	// 分享码冲突时重新生成
	var lastErr error
	for attempt := 0; attempt < 5; attempt++ {
		chain.ShareCode = util.GenerateShareCode(s.codeLength())
		if err := model.GetDB().Create(&chain).Error; err != nil {
			chain.ID = 0
			lastErr = err
			continue
		}
		lastErr = nil
		break
	}
	if lastErr != nil {
		log.Printf("创建星链失败: %v", lastErr)
		return nil, errors.New("星链创建失败")
	}

	// 写入成员关系，失败则回删星链保持一致
	members := make([]model.StarChainWish, 0, len(ids))
	for _, wishID := range ids {
		members = append(members, model.StarChainWish{
			ChainID: chain.ID,
			WishID:  wishID,
		})
	}
	if err := model.GetDB().Create(&members).Error; err != nil {
		model.GetDB().Unscoped().Delete(&model.StarChainWish{}, "chain_id = ?", chain.ID)
		model.GetDB().Unscoped().Delete(&chain)
		log.Printf("写入星链成员失败 chain=%d: %v", chain.ID, err)
		return nil, errors.New("星链创建失败")
	}

	return &chain, nil
}

// ListChains 用户的星链列表
func (s *ChainService) ListChains(userID uint) ([]model.StarChain, *model.ChainStatusCounts, error) {
	var chains []model.StarChain
	if err := model.GetDB().Where("creator_id = ?", userID).Order("created_at DESC, id DESC").Find(&chains).Error; err != nil {
		return nil, nil, err
	}

	counts := &model.ChainStatusCounts{All: int64(len(chains))}
	for i := range chains {
		if chains[i].IsOpened {
			counts.Opened++
		} else {
			counts.Unopened++
		}
	}
	return chains, counts, nil
}

// GetChain 星链详情（校验归属，带存活心愿）
func (s *ChainService) GetChain(userID, chainID uint) (*ChainDetail, error) {
	var chain model.StarChain
	if err := model.GetDB().Where("id = ? AND creator_id = ?", chainID, userID).First(&chain).Error; err != nil {
		return nil, errors.New("星链不存在")
	}

	wishes, err := s.liveWishes(chain.ID)
	if err != nil {
		return nil, err
	}
	return &ChainDetail{Chain: &chain, Wishes: wishes}, nil
}

// liveWishes 星链里还存活的心愿（已软删除的不展示、不参与揭晓）
func (s *ChainService) liveWishes(chainID uint) ([]model.Wish, error) {
	var wishes []model.Wish
	err := model.GetDB().
		Joins("JOIN star_chain_wishes ON star_chain_wishes.wish_id = wishes.id").
		Where("star_chain_wishes.chain_id = ?", chainID).
		Order("star_chain_wishes.id ASC").
		Find(&wishes).Error
	if err != nil {
		return nil, err
	}
	return wishes, nil
}

// DeactivateChain 停用星链，分享链接随即失效
func (s *ChainService) DeactivateChain(userID, chainID uint) error {
	result := model.GetDB().Model(&model.StarChain{}).
		Where("id = ? AND creator_id = ? AND is_active = ?", chainID, userID, true).
		Update("is_active", false)
	if result.Error != nil {
		return errors.New("操作失败")
	}
	if result.RowsAffected == 0 {
		var chain model.StarChain
		if err := model.GetDB().Where("id = ? AND creator_id = ?", chainID, userID).First(&chain).Error; err != nil {
			return errors.New("星链不存在")
		}
		// 已经是停用状态，幂等处理
		return nil
	}

	var chain model.StarChain
	if err := model.GetDB().First(&chain, chainID).Error; err == nil {
		GetEventHub().Publish(ChainEvent{
			Type:      "deactivated",
			CreatorID: chain.CreatorID,
			ChainID:   chain.ID,
			ShareCode: chain.ShareCode,
			Timestamp: time.Now(),
		})
	}
	return nil
}

// ShareURL 分享链接
func (s *ChainService) ShareURL(chain *model.StarChain) string {
	base := model.GetConfigValue(model.ConfigKeyShareBaseURL, "")
	if base == "" {
		if c := config.Get(); c != nil && c.Server.BaseURL != "" {
			base = c.Server.BaseURL
		} else {
			base = "http://localhost:6098"
		}
	}
	return fmt.Sprintf("%s/?box=%s", base, chain.ShareCode)
}
