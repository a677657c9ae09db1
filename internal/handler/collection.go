package handler

import (
	"strconv"

	"starwish/config"
	"starwish/internal/service"
	"starwish/internal/util"

	"github.com/gin-gonic/gin"
)

// CollectionHandler 已揭晓心愿处理器
// 身份可以是匿名指纹，也可以是已登录用户（OptionalUserAuth注入）。
type CollectionHandler struct {
	cfg *config.Config
}

// NewCollectionHandler 创建收藏处理器
func NewCollectionHandler(cfg *config.Config) *CollectionHandler {
	return &CollectionHandler{cfg: cfg}
}

// List 已揭晓心愿列表
func (h *CollectionHandler) List(c *gin.Context) {
	entries, err := service.GetCollectionService().ListOpened(clientFingerprint(c), optionalUserID(c))
	if err != nil {
		util.ServerError(c, "查询失败")
		return
	}
	util.Success(c, gin.H{
		"entries": entries,
		"total":   len(entries),
	})
}

// Update 更新收藏标记/备注
func (h *CollectionHandler) Update(c *gin.Context) {
	entryID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	var req service.UpdateEntryRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	entry, err := service.GetCollectionService().UpdateEntry(clientFingerprint(c), optionalUserID(c), uint(entryID), &req)
	if err != nil {
		util.NotFound(c, "记录不存在")
		return
	}
	util.SuccessWithMsg(c, "更新成功", entry)
}

// Migrate 匿名指纹绑定当前账号（需登录）
func (h *CollectionHandler) Migrate(c *gin.Context) {
	var req struct {
		Fingerprint string `json:"fingerprint"`
	}
	// body可选，不带时用请求头/推导指纹
	_ = c.ShouldBindJSON(&req)

	fp := req.Fingerprint
	if fp == "" {
		fp = clientFingerprint(c)
	}

	migrated, err := service.GetCollectionService().MigrateFingerprint(util.TruncateString(fp, 64), c.GetUint("user_id"))
	if err != nil {
		util.ServerError(c, "迁移失败")
		return
	}
	util.SuccessWithMsg(c, "迁移完成", gin.H{"migrated": migrated})
}
