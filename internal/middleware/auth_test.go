package middleware

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMaskSensitiveDataJSON(t *testing.T) {
	// 登录请求体里的明文密码不落日志
	masked := maskSensitiveData(`{"email":"a@b.com","password":"hunter2"}`)
	assert.NotContains(t, masked, "hunter2")
	assert.Contains(t, masked, `"password":"***"`)
	assert.Contains(t, masked, "a@b.com")

	// 改密接口的新旧密码都要盖掉
	masked = maskSensitiveData(`{"old_password":"old123","new_password":"new456"}`)
	assert.NotContains(t, masked, "old123")
	assert.NotContains(t, masked, "new456")

	// 带空格的JSON也能命中
	masked = maskSensitiveData(`{"fingerprint" : "abcdef0123456789"}`)
	assert.NotContains(t, masked, "abcdef0123456789")
}

func TestMaskSensitiveDataQuery(t *testing.T) {
	masked := maskSensitiveData("box=a1b2c3d4&token=eyJhbGciOiJIUzI1NiJ9.xx.yy")
	assert.NotContains(t, masked, "eyJhbGciOiJIUzI1NiJ9")
	assert.Contains(t, masked, "box=a1b2c3d4")
	assert.Contains(t, masked, "token=***")
}

func TestMaskSensitiveDataPassThrough(t *testing.T) {
	body := `{"title":"星空投影灯","category":"gift"}`
	assert.Equal(t, body, maskSensitiveData(body))
}
