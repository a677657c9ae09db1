package service

import (
	"errors"
	"sort"
	"strings"
	"sync"

	"starwish/internal/model"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"
	"gorm.io/gorm"
)

// WishService 心愿服务
type WishService struct{}

var wishService *WishService

// GetWishService 获取心愿服务
func GetWishService() *WishService {
	if wishService == nil {
		wishService = &WishService{}
	}
	return wishService
}

// CreateWishRequest 创建心愿请求
type CreateWishRequest struct {
	Title          string   `json:"title"`
	Description    string   `json:"description"`
	Category       string   `json:"category"`
	Priority       string   `json:"priority"`
	Tags           []string `json:"tags"`
	EstimatedPrice string   `json:"estimated_price"`
	Notes          string   `json:"notes"`
}

// UpdateWishRequest 更新心愿请求（部分更新，nil字段不动）
type UpdateWishRequest struct {
	Title          *string   `json:"title"`
	Description    *string   `json:"description"`
	Category       *string   `json:"category"`
	Priority       *string   `json:"priority"`
	Tags           *[]string `json:"tags"`
	EstimatedPrice *string   `json:"estimated_price"`
	Notes          *string   `json:"notes"`
}

// CreateWish 创建心愿
func (s *WishService) CreateWish(userID uint, req *CreateWishRequest) (*model.Wish, error) {
	title := strings.TrimSpace(req.Title)
	if title == "" {
		return nil, errors.New("心愿标题不能为空")
	}

	category := req.Category
	if category == "" {
		category = model.CategoryGift
	}
	priority := req.Priority
	if priority == "" {
		priority = model.PriorityMedium
	}

	wish := model.Wish{
		UserID:         userID,
		Title:          title,
		Description:    req.Description,
		Category:       category,
		Priority:       priority,
		Tags:           model.StringList(req.Tags),
		EstimatedPrice: req.EstimatedPrice,
		Notes:          req.Notes,
	}

	if err := model.GetDB().Create(&wish).Error; err != nil {
		return nil, errors.New("心愿创建失败")
	}
	return &wish, nil
}

// ListWishes 心愿列表（按归属用户过滤，新建在前）
func (s *WishService) ListWishes(userID uint) ([]model.Wish, error) {
	var wishes []model.Wish
	if err := model.GetDB().Where("user_id = ?", userID).Order("created_at DESC, id DESC").Find(&wishes).Error; err != nil {
		return nil, err
	}
	return wishes, nil
}

// GetWish 获取单条心愿
func (s *WishService) GetWish(userID, wishID uint) (*model.Wish, error) {
	var wish model.Wish
	if err := model.GetDB().Where("id = ? AND user_id = ?", wishID, userID).First(&wish).Error; err != nil {
		return nil, errors.New("心愿不存在")
	}
	return &wish, nil
}

// UpdateWish 部分更新心愿
func (s *WishService) UpdateWish(userID, wishID uint, req *UpdateWishRequest) (*model.Wish, error) {
	var wish model.Wish
	if err := model.GetDB().Where("id = ? AND user_id = ?", wishID, userID).First(&wish).Error; err != nil {
		return nil, errors.New("心愿不存在")
	}

	updates := map[string]interface{}{}
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return nil, errors.New("心愿标题不能为空")
		}
		updates["title"] = title
	}
	if req.Description != nil {
		updates["description"] = *req.Description
	}
	if req.Category != nil {
		updates["category"] = *req.Category
	}
	if req.Priority != nil {
		updates["priority"] = *req.Priority
	}
	if req.Tags != nil {
		updates["tags"] = model.StringList(*req.Tags)
	}
	if req.EstimatedPrice != nil {
		updates["estimated_price"] = *req.EstimatedPrice
	}
	if req.Notes != nil {
		updates["notes"] = *req.Notes
	}

	if len(updates) > 0 {
		if err := model.GetDB().Model(&wish).Updates(updates).Error; err != nil {
			return nil, errors.New("心愿更新失败")
		}
	}

	// 重新加载
	model.GetDB().First(&wish, wish.ID)
	return &wish, nil
}

// DeleteWish 删除心愿（软删除）
// 第二次删除同一id返回gorm.ErrRecordNotFound，调用方按"不存在"处理即可。
// 已开启星链的历史记录（开启日志、对方收藏）不受影响。
func (s *WishService) DeleteWish(userID, wishID uint) error {
	var wish model.Wish
	if err := model.GetDB().Where("id = ? AND user_id = ?", wishID, userID).First(&wish).Error; err != nil {
		return gorm.ErrRecordNotFound
	}

	if err := model.GetDB().Delete(&wish).Error; err != nil {
		return errors.New("删除失败")
	}

	// 未开启的星链里也不再展示这条心愿（关联行保留，揭晓时按存活心愿过滤）
	return nil
}

// ============ 过滤/排序/搜索视图 ============

// 优先级排序权重 low < medium < high
var priorityRank = map[string]int{
	model.PriorityLow:    0,
	model.PriorityMedium: 1,
	model.PriorityHigh:   2,
}

var (
	titleCollator     *collate.Collator
	titleCollatorOnce sync.Once
)

// getTitleCollator 标题排序用的collator，按中文习惯比较
func getTitleCollator() *collate.Collator {
	titleCollatorOnce.Do(func() {
		titleCollator = collate.New(language.Chinese)
	})
	return titleCollator
}

// wishMatchesKeyword 关键词匹配：标题/描述/标签/备注任一字段命中即可，不区分大小写
func wishMatchesKeyword(w *model.Wish, keyword string) bool {
	if keyword == "" {
		return true
	}
	kw := strings.ToLower(keyword)
	if strings.Contains(strings.ToLower(w.Title), kw) {
		return true
	}
	if strings.Contains(strings.ToLower(w.Description), kw) {
		return true
	}
	for _, tag := range w.Tags {
		if strings.Contains(strings.ToLower(tag), kw) {
			return true
		}
	}
	return strings.Contains(strings.ToLower(w.Notes), kw)
}

// FilterWishes 过滤/排序/搜索
// 纯投影：输出永远是输入的子集，不落库，入参变化时重算。
// 排序键: newest(默认)/oldest/priority_desc/priority_asc/title_asc/title_desc
func (s *WishService) FilterWishes(wishes []model.Wish, category, priority, keyword, sortKey string) []model.Wish {
	result := make([]model.Wish, 0, len(wishes))
	for i := range wishes {
		w := &wishes[i]
		if category != "" && w.Category != category {
			continue
		}
		if priority != "" && w.Priority != priority {
			continue
		}
		if !wishMatchesKeyword(w, keyword) {
			continue
		}
		result = append(result, *w)
	}

	switch sortKey {
	case "oldest":
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.Before(result[j].CreatedAt)
		})
	case "priority_desc":
		sort.SliceStable(result, func(i, j int) bool {
			return priorityRank[result[i].Priority] > priorityRank[result[j].Priority]
		})
	case "priority_asc":
		sort.SliceStable(result, func(i, j int) bool {
			return priorityRank[result[i].Priority] < priorityRank[result[j].Priority]
		})
	case "title_asc":
		col := getTitleCollator()
		sort.SliceStable(result, func(i, j int) bool {
			return col.CompareString(result[i].Title, result[j].Title) < 0
		})
	case "title_desc":
		col := getTitleCollator()
		sort.SliceStable(result, func(i, j int) bool {
			return col.CompareString(result[i].Title, result[j].Title) > 0
		})
	default: // newest
		sort.SliceStable(result, func(i, j int) bool {
			return result[i].CreatedAt.After(result[j].CreatedAt)
		})
	}

	return result
}
