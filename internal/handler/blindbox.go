package handler

import (
	"errors"

	"starwish/config"
	"starwish/internal/middleware"
	"starwish/internal/service"
	"starwish/internal/util"

	"github.com/gin-gonic/gin"
)

// BlindBoxHandler 盲盒揭晓处理器（公开接口，无需登录）
type BlindBoxHandler struct {
	cfg *config.Config
}

// NewBlindBoxHandler 创建盲盒处理器
func NewBlindBoxHandler(cfg *config.Config) *BlindBoxHandler {
	return &BlindBoxHandler{cfg: cfg}
}

// boxError 揭晓类错误统一映射响应码
// 不存在/停用/过期/空链对外统一为"不可用"，不泄露链路状态细节。
func boxError(c *gin.Context, shareCode string, err error) {
	switch {
	case errors.Is(err, service.ErrAlreadyOpened):
		middleware.SetAPILogContext(c, util.CodeBoxOpened, err.Error(), shareCode)
		util.ErrorWithCode(c, util.CodeBoxOpened, "手慢了，这个盲盒已经被打开啦")
	case errors.Is(err, service.ErrChainNotFound),
		errors.Is(err, service.ErrChainInactive),
		errors.Is(err, service.ErrChainExpired),
		errors.Is(err, service.ErrChainEmpty):
		middleware.SetAPILogContext(c, util.CodeBoxUnavailable, err.Error(), shareCode)
		util.ErrorWithCode(c, util.CodeBoxUnavailable, "这个盲盒不存在或已失效")
	default:
		middleware.SetAPILogContext(c, util.CodeServerError, err.Error(), shareCode)
		util.ServerError(c, "服务暂时不可用")
	}
}

// Info 盲盒信息（分享页落地数据，不含心愿内容）
func (h *BlindBoxHandler) Info(c *gin.Context) {
	shareCode := c.Param("code")

	info, err := service.GetBlindBoxService().Resolve(shareCode)
	if err != nil {
		boxError(c, shareCode, err)
		return
	}

	middleware.SetAPILogContext(c, util.CodeSuccess, "", shareCode)
	util.Success(c, info)
}

// Open 揭晓盲盒
func (h *BlindBoxHandler) Open(c *gin.Context) {
	shareCode := c.Param("code")

	oc := &service.OpenContext{
		Fingerprint: clientFingerprint(c),
		UserID:      optionalUserID(c),
		UserAgent:   c.GetHeader("User-Agent"),
		ClientIP:    util.GetClientIP(c.Request),
	}

	result, err := service.GetBlindBoxService().Open(shareCode, oc)
	if err != nil {
		boxError(c, shareCode, err)
		return
	}

	middleware.SetAPILogContext(c, util.CodeSuccess, "揭晓成功", shareCode)
	util.SuccessWithMsg(c, "揭晓成功", result)
}
