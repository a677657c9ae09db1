package handler

import (
	"starwish/internal/model"

	"github.com/gin-gonic/gin"
)

// currentUser 中间件注入的当前用户，未登录返回nil
func currentUser(c *gin.Context) *model.User {
	v, ok := c.Get("user")
	if !ok {
		return nil
	}
	user, ok := v.(*model.User)
	if !ok {
		return nil
	}
	return user
}

// optionalUserID 可选登录场景下的用户ID
func optionalUserID(c *gin.Context) *uint {
	if user := currentUser(c); user != nil {
		id := user.ID
		return &id
	}
	return nil
}
