package handler

import (
	"io"
	"strconv"
	"time"

	"starwish/config"
	"starwish/internal/service"
	"starwish/internal/util"

	"github.com/gin-gonic/gin"
)

// ChainHandler 星链处理器
type ChainHandler struct {
	cfg *config.Config
}

// NewChainHandler 创建星链处理器
func NewChainHandler(cfg *config.Config) *ChainHandler {
	return &ChainHandler{cfg: cfg}
}

// Create 创建星链
func (h *ChainHandler) Create(c *gin.Context) {
	var req service.CreateChainRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	chain, err := service.GetChainService().CreateChain(c.GetUint("user_id"), &req)
	if err != nil {
		util.Error(c, err.Error())
		return
	}

	util.SuccessWithMsg(c, "星链创建成功", gin.H{
		"chain":     chain,
		"share_url": service.GetChainService().ShareURL(chain),
	})
}

// List 星链列表（带状态统计）
func (h *ChainHandler) List(c *gin.Context) {
	chains, counts, err := service.GetChainService().ListChains(c.GetUint("user_id"))
	if err != nil {
		util.ServerError(c, "查询失败")
		return
	}

	// 按状态筛选: all/opened/unopened
	status := c.DefaultQuery("status", "all")
	items := chains
	if status == "opened" || status == "unopened" {
		wantOpened := status == "opened"
		items = items[:0:0]
		for i := range chains {
			if chains[i].IsOpened == wantOpened {
				items = append(items, chains[i])
			}
		}
	}

	util.Success(c, gin.H{
		"chains": items,
		"counts": counts,
	})
}

// Get 星链详情
func (h *ChainHandler) Get(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	detail, err := service.GetChainService().GetChain(c.GetUint("user_id"), uint(chainID))
	if err != nil {
		util.NotFound(c, "星链不存在")
		return
	}

	util.Success(c, gin.H{
		"chain":     detail.Chain,
		"wishes":    detail.Wishes,
		"share_url": service.GetChainService().ShareURL(detail.Chain),
	})
}

// Deactivate 停用星链
func (h *ChainHandler) Deactivate(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	if err := service.GetChainService().DeactivateChain(c.GetUint("user_id"), uint(chainID)); err != nil {
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "已停用", nil)
}

// QRCode 分享链接二维码
func (h *ChainHandler) QRCode(c *gin.Context) {
	chainID, err := strconv.ParseUint(c.Param("id"), 10, 64)
	if err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	detail, err := service.GetChainService().GetChain(c.GetUint("user_id"), uint(chainID))
	if err != nil {
		util.NotFound(c, "星链不存在")
		return
	}

	size := 256
	if s, err := strconv.Atoi(c.DefaultQuery("size", "256")); err == nil && s >= 64 && s <= 1024 {
		size = s
	}

	shareURL := service.GetChainService().ShareURL(detail.Chain)
	dataURL, err := util.GenerateQRCode(shareURL, size)
	if err != nil {
		util.ServerError(c, "二维码生成失败")
		return
	}

	util.Success(c, gin.H{
		"share_url": shareURL,
		"qrcode":    dataURL,
	})
}

// Events 星链状态事件流 (SSE)
// 创建者页面订阅这条流，名下任意星链被开盒或停用时立即收到通知。
func (h *ChainHandler) Events(c *gin.Context) {
	events, cancel := service.GetEventHub().Subscribe(c.GetUint("user_id"))
	defer cancel()

	c.Writer.Header().Set("Content-Type", "text/event-stream")
	c.Writer.Header().Set("Cache-Control", "no-cache")
	c.Writer.Header().Set("Connection", "keep-alive")

	// 心跳保活，客户端断开即退出
	heartbeat := time.NewTicker(25 * time.Second)
	defer heartbeat.Stop()

	c.Stream(func(w io.Writer) bool {
		select {
		case ev, ok := <-events:
			if !ok {
				return false
			}
			c.SSEvent(ev.Type, ev)
			return true
		case <-heartbeat.C:
			c.SSEvent("ping", gin.H{"ts": time.Now().Unix()})
			return true
		case <-c.Request.Context().Done():
			return false
		}
	})
}
