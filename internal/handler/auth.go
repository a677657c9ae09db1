package handler

import (
	"log"

	"starwish/config"
	"starwish/internal/middleware"
	"starwish/internal/service"
	"starwish/internal/util"

	"github.com/gin-gonic/gin"
)

// AuthHandler 用户认证处理器
type AuthHandler struct {
	cfg *config.Config
}

// NewAuthHandler 创建认证处理器
func NewAuthHandler(cfg *config.Config) *AuthHandler {
	return &AuthHandler{cfg: cfg}
}

// clientFingerprint 取来访者指纹
// 前端会在 X-Client-Fingerprint 带上本地计算的指纹，
// 没带时退化为服务端按 UA/语言/IP 推导的指纹。
func clientFingerprint(c *gin.Context) string {
	if fp := c.GetHeader("X-Client-Fingerprint"); fp != "" {
		return util.TruncateString(fp, 64)
	}
	return util.ServerFingerprint(c.GetHeader("User-Agent"), c.GetHeader("Accept-Language"), util.GetClientIP(c.Request))
}

// Register 注册
func (h *AuthHandler) Register(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
		Nickname string `json:"nickname"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	user, err := service.GetUserService().Register(req.Email, req.Password, req.Nickname)
	if err != nil {
		util.Error(c, err.Error())
		return
	}

	token, err := service.GetUserService().GenerateToken(user)
	if err != nil {
		util.ServerError(c, "Token生成失败")
		return
	}

	// 注册即绑定匿名指纹名下的揭晓记录
	if fp := clientFingerprint(c); fp != "" {
		go func(fp string, uid uint) {
			if n, err := service.GetCollectionService().MigrateFingerprint(fp, uid); err != nil {
				log.Printf("指纹迁移失败 user=%d: %v", uid, err)
			} else if n > 0 {
				log.Printf("指纹迁移完成 user=%d rows=%d", uid, n)
			}
		}(fp, user.ID)
	}

	middleware.SetAPILogContext(c, util.CodeSuccess, "注册成功", "")
	util.SuccessWithMsg(c, "注册成功", gin.H{
		"token": token,
		"user":  user,
	})
}

// Login 登录
func (h *AuthHandler) Login(c *gin.Context) {
	var req struct {
		Email    string `json:"email" binding:"required"`
		Password string `json:"password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	user, err := service.GetUserService().Login(req.Email, req.Password)
	if err != nil {
		util.Error(c, err.Error())
		return
	}

	token, err := service.GetUserService().GenerateToken(user)
	if err != nil {
		util.ServerError(c, "Token生成失败")
		return
	}

	if fp := clientFingerprint(c); fp != "" {
		go func(fp string, uid uint) {
			if _, err := service.GetCollectionService().MigrateFingerprint(fp, uid); err != nil {
				log.Printf("指纹迁移失败 user=%d: %v", uid, err)
			}
		}(fp, user.ID)
	}

	middleware.SetAPILogContext(c, util.CodeSuccess, "登录成功", "")
	util.SuccessWithMsg(c, "登录成功", gin.H{
		"token": token,
		"user":  user,
	})
}

// Profile 当前用户信息
func (h *AuthHandler) Profile(c *gin.Context) {
	user := currentUser(c)
	if user == nil {
		util.Unauthorized(c, "请先登录")
		return
	}
	util.Success(c, user)
}

// UpdateProfile 更新昵称
func (h *AuthHandler) UpdateProfile(c *gin.Context) {
	var req struct {
		Nickname string `json:"nickname" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	user, err := service.GetUserService().UpdateProfile(c.GetUint("user_id"), req.Nickname)
	if err != nil {
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "更新成功", user)
}

// ChangePassword 修改密码
func (h *AuthHandler) ChangePassword(c *gin.Context) {
	var req struct {
		OldPassword string `json:"old_password" binding:"required"`
		NewPassword string `json:"new_password" binding:"required"`
	}
	if err := c.ShouldBindJSON(&req); err != nil {
		util.ValidationError(c, "参数错误")
		return
	}

	if err := service.GetUserService().ChangePassword(c.GetUint("user_id"), req.OldPassword, req.NewPassword); err != nil {
		util.Error(c, err.Error())
		return
	}
	util.SuccessWithMsg(c, "密码修改成功", nil)
}
