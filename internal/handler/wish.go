package handler

import (
	"errors"
	"strconv"

	"starwish/config"
	"starwish/internal/model"
	"starwish/internal/service"
	"starwish/internal/util"

	"github.com/gin-gonic/gin"
	"gorm.io/gorm"
)

// WishHandler 心愿处理器
type WishHandler struct {
	cfg *config.Config
}

// NewWishHandler 创建心愿处理器
func NewWishHandler(cfg *config.Config) *WishHandler {
	return &WishHandler{cfg: cfg}
}

// Create 创建心愿
func (h *WishHandler) Create(c *gin.Context) {
	var req service.CreateWishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}
	if req.Category != "" && !util.IsValidCategory(req.Category) {
		util.ValidationError(c, "不支持的心愿分类")
		return
	}
	if req.Priority != "" && !util.IsValidPriority(req.Priority) {
		util.ValidationError(c, "不支持的优先级")
		return
	}

	wish, err := service.GetWishService().CreateWish(c.GetUint("user_id"), &req)
	if err != nil {
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "创建成功", wish)
}

// List 心愿列表，支持过滤/排序/搜索
func (h *WishHandler) List(c *gin.Context) {
	var query model.WishQuery
	if err := c.ShouldBindQuery(&query); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	wishes, err := service.GetWishService().ListWishes(c.GetUint("user_id"))
	if err != nil {
		util.ServerError(c, "查询失败")
		return
	}

	total := len(wishes)
	filtered := service.GetWishService().FilterWishes(wishes, query.Category, query.Priority, query.Keyword, query.SortKey)
	util.Success(c, gin.H{
		"wishes": filtered,
		"total":  total,
		"count":  len(filtered),
	})
}

// Get 心愿详情
func (h *WishHandler) Get(c *gin.Context) {
	wishID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	wish, err := service.GetWishService().GetWish(c.GetUint("user_id"), uint(wishID))
	if err != nil {
		util.NotFound(c, "心愿不存在")
		return
	}
	util.Success(c, wish)
}

// Update 更新心愿
func (h *WishHandler) Update(c *gin.Context) {
	wishID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	var req service.UpdateWishRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}
	if req.Category != nil && !util.IsValidCategory(*req.Category) {
		util.ValidationError(c, "不支持的心愿分类")
		return
	}
	if req.Priority != nil && !util.IsValidPriority(*req.Priority) {
		util.ValidationError(c, "不支持的优先级")
		return
	}

	wish, err := service.GetWishService().UpdateWish(c.GetUint("user_id"), uint(wishID), &req)
	if err != nil {
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "更新成功", wish)
}

// Delete 删除心愿
func (h *WishHandler) Delete(c *gin.Context) {
	wishID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	if err := service.GetWishService().DeleteWish(c.GetUint("user_id"), uint(wishID)); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			util.NotFound(c, "心愿不存在")
			return
		}
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "删除成功", nil)
}
