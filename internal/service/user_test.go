package service

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegisterAndLogin(t *testing.T) {
	setupTestDB(t)
	svc := GetUserService()

	user, err := svc.Register("Alice@Example.com", "secret123", "小星")
	require.NoError(t, err)
	assert.Equal(t, "alice@example.com", user.Email) // 邮箱归一化为小写
	assert.Equal(t, "小星", user.Nickname)
	assert.NotEqual(t, "secret123", user.Password) // 存的是bcrypt散列

	// 重复注册
	_, err = svc.Register("alice@example.com", "secret123", "")
	assert.Error(t, err)

	// 正确密码
	logged, err := svc.Login("alice@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotNil(t, logged.LastLogin)

	// 错误密码
	_, err = svc.Login("alice@example.com", "wrong")
	assert.Error(t, err)

	// 不存在的账号
	_, err = svc.Login("nobody@example.com", "secret123")
	assert.Error(t, err)
}

func TestRegisterValidation(t *testing.T) {
	setupTestDB(t)
	svc := GetUserService()

	_, err := svc.Register("not-an-email", "secret123", "")
	assert.Error(t, err)

	_, err = svc.Register("alice@example.com", "123", "")
	assert.Error(t, err)
}

func TestGenerateToken(t *testing.T) {
	setupTestDB(t)
	svc := GetUserService()

	user, err := svc.Register("alice@example.com", "secret123", "")
	require.NoError(t, err)

	token, err := svc.GenerateToken(user)
	require.NoError(t, err)
	assert.NotEmpty(t, token)
}

func TestChangePassword(t *testing.T) {
	setupTestDB(t)
	svc := GetUserService()

	user, err := svc.Register("alice@example.com", "secret123", "")
	require.NoError(t, err)

	// 原密码错
	assert.Error(t, svc.ChangePassword(user.ID, "wrong", "newsecret"))

	require.NoError(t, svc.ChangePassword(user.ID, "secret123", "newsecret"))

	_, err = svc.Login("alice@example.com", "newsecret")
	assert.NoError(t, err)
	_, err = svc.Login("alice@example.com", "secret123")
	assert.Error(t, err)
}
