package service

import (
	"errors"
	"log"
	"math/rand"
	"sync"
	"time"

	"starwish/internal/model"
	"starwish/internal/util"

	"gorm.io/gorm"
)

// 揭晓相关的业务错误，handler按错误种类映射响应码
var (
	ErrChainNotFound = errors.New("星链不存在")
	ErrChainInactive = errors.New("星链已停用")
	ErrChainExpired  = errors.New("星链已过期")
	ErrChainEmpty    = errors.New("星链里没有可揭晓的心愿")
	ErrAlreadyOpened = errors.New("盲盒已被开启")
)

// BlindBoxService 盲盒揭晓服务
type BlindBoxService struct {
	mu  sync.Mutex
	rng *rand.Rand
}

var blindBoxService *BlindBoxService

// GetBlindBoxService 获取盲盒服务
func GetBlindBoxService() *BlindBoxService {
	if blindBoxService == nil {
		blindBoxService = &BlindBoxService{
			rng: rand.New(rand.NewSource(util.CryptoSeed())),
		}
	}
	return blindBoxService
}

// SetRandSource 替换随机源，测试用
func (s *BlindBoxService) SetRandSource(src rand.Source) {
	s.mu.Lock()
	s.rng = rand.New(src)
	s.mu.Unlock()
}

func (s *BlindBoxService) pick(n int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.rng.Intn(n)
}

// BoxInfo 分享页展示的盲盒信息（不暴露心愿内容）
type BoxInfo struct {
	ShareCode   string     `json:"share_code"`
	Name        string     `json:"name"`
	Description string     `json:"description"`
	CreatorName string     `json:"creator_name"`
	WishCount   int        `json:"wish_count"`
	IsOpened    bool       `json:"is_opened"`
	OpenedAt    *time.Time `json:"opened_at,omitempty"`
	ExpiresAt   *time.Time `json:"expires_at,omitempty"`
}

// RevealResult 揭晓结果
type RevealResult struct {
	Wish        *model.Wish `json:"wish"`
	CreatorName string      `json:"creator_name"`
	ChainName   string      `json:"chain_name"`
	OpenedAt    time.Time   `json:"opened_at"`
}

// OpenContext 揭晓请求的来访信息
type OpenContext struct {
	Fingerprint string
	UserID      *uint
	UserAgent   string
	ClientIP    string
}

// findByCode 按分享码取星链并校验可用性
func (s *BlindBoxService) findByCode(shareCode string) (*model.StarChain, error) {
	if !util.IsValidShareCode(shareCode) {
		return nil, ErrChainNotFound
	}
	var chain model.StarChain
	if err := model.GetDB().Preload("Creator").Where("share_code = ?", shareCode).First(&chain).Error; err != nil {
		return nil, ErrChainNotFound
	}
	if !chain.IsActive {
		return &chain, ErrChainInactive
	}
	if chain.ExpiresAt != nil && time.Now().After(*chain.ExpiresAt) {
		return &chain, ErrChainExpired
	}
	return &chain, nil
}

// Resolve 分享码换盲盒信息
// 已开启的盲盒仍可访问，展示已开启状态；停用/过期返回对应错误。
func (s *BlindBoxService) Resolve(shareCode string) (*BoxInfo, error) {
	chain, err := s.findByCode(shareCode)
	if err != nil {
		return nil, err
	}

	wishes, err := GetChainService().liveWishes(chain.ID)
	if err != nil {
		return nil, err
	}
	// 心愿全被删掉的未开启星链无从揭晓，视为不可用
	if len(wishes) == 0 && !chain.IsOpened {
		return nil, ErrChainEmpty
	}

	creatorName := ""
	if chain.Creator != nil {
		creatorName = chain.Creator.DisplayName()
	}

	return &BoxInfo{
		ShareCode:   chain.ShareCode,
		Name:        chain.Name,
		Description: chain.Description,
		CreatorName: creatorName,
		WishCount:   len(wishes),
		IsOpened:    chain.IsOpened,
		OpenedAt:    chain.OpenedAt,
		ExpiresAt:   chain.ExpiresAt,
	}, nil
}

// Open 揭晓盲盒
// 每条星链只能被开启一次。并发请求靠条件更新收口：
// UPDATE ... WHERE id = ? AND is_opened = 0，RowsAffected为0即已被别人抢先。
func (s *BlindBoxService) Open(shareCode string, oc *OpenContext) (*RevealResult, error) {
	chain, err := s.findByCode(shareCode)
	if err != nil {
		return nil, err
	}
	if chain.IsOpened {
		return nil, ErrAlreadyOpened
	}

	wishes, err := GetChainService().liveWishes(chain.ID)
	if err != nil {
		return nil, err
	}
	if len(wishes) == 0 {
		return nil, ErrChainEmpty
	}

	// 等概率抽取
	wish := wishes[s.pick(len(wishes))]

	now := time.Now()
	result := model.GetDB().Model(&model.StarChain{}).
		Where("id = ? AND is_opened = ?", chain.ID, false).
		Updates(map[string]interface{}{
			"is_opened":          true,
			"opened_at":          now,
			"opener_fingerprint": oc.Fingerprint,
			"total_opens":        gorm.Expr("total_opens + 1"),
		})
	if result.Error != nil {
		log.Printf("盲盒开启失败 chain=%d: %v", chain.ID, result.Error)
		return nil, errors.New("开启失败，请重试")
	}
	if result.RowsAffected == 0 {
		return nil, ErrAlreadyOpened
	}

	creatorName := ""
	if chain.Creator != nil {
		creatorName = chain.Creator.DisplayName()
	}

	// 开启日志与收藏写入尽力而为，失败不回滚揭晓结果
	openLog := model.BlindBoxOpen{
		ChainID:           chain.ID,
		WishID:            wish.ID,
		OpenerFingerprint: oc.Fingerprint,
		UserAgent:         util.TruncateString(oc.UserAgent, 500),
		ClientIP:          oc.ClientIP,
	}
	if err := model.GetDB().Create(&openLog).Error; err != nil {
		log.Printf("写入开启日志失败 chain=%d: %v", chain.ID, err)
	}

	if oc.Fingerprint != "" {
		if err := GetCollectionService().RecordOpenedWish(oc.Fingerprint, oc.UserID, &wish, chain, creatorName, now); err != nil {
			log.Printf("写入心愿收藏失败 chain=%d fp=%s: %v", chain.ID, util.TruncateString(oc.Fingerprint, 8), err)
		}
	}

	GetEventHub().Publish(ChainEvent{
		Type:      "opened",
		CreatorID: chain.CreatorID,
		ChainID:   chain.ID,
		ShareCode: chain.ShareCode,
		Timestamp: now,
	})

	return &RevealResult{
		Wish:        &wish,
		CreatorName: creatorName,
		ChainName:   chain.Name,
		OpenedAt:    now,
	}, nil
}
