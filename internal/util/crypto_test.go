package util

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashAndCheckPassword(t *testing.T) {
	hash, err := HashPassword("secret123")
	require.NoError(t, err)
	assert.NotEqual(t, "secret123", hash)

	assert.True(t, CheckPassword("secret123", hash))
	assert.False(t, CheckPassword("wrong", hash))
}

func TestGenerateShareCode(t *testing.T) {
	code := GenerateShareCode(8)
	assert.Len(t, code, 8)
	for _, r := range code {
		assert.Contains(t, shareCodeAlphabet, string(r))
	}

	// 易混淆字符不出现
	for _, bad := range []string{"0", "1", "o", "O", "l", "I", "i"} {
		assert.NotContains(t, shareCodeAlphabet, bad)
	}

	// 连续生成不重复（碰撞概率可忽略）
	seen := map[string]bool{}
	for i := 0; i < 100; i++ {
		c := GenerateShareCode(8)
		assert.False(t, seen[c], "重复分享码: %s", c)
		seen[c] = true
	}
}

func TestServerFingerprint(t *testing.T) {
	fp1 := ServerFingerprint("Mozilla/5.0", "zh-CN", "1.2.3.4")
	fp2 := ServerFingerprint("Mozilla/5.0", "zh-CN", "1.2.3.4")
	fp3 := ServerFingerprint("Mozilla/5.0", "en-US", "1.2.3.4")

	assert.Equal(t, fp1, fp2) // 相同输入稳定
	assert.NotEqual(t, fp1, fp3)
	assert.Len(t, fp1, 32)
	assert.Equal(t, strings.ToLower(fp1), fp1)
}

func TestIsValidShareCode(t *testing.T) {
	assert.True(t, IsValidShareCode("aB3kM9xQ"))
	// 长度跟随配置，6到16位都认
	assert.True(t, IsValidShareCode("aB3kM9"))
	assert.True(t, IsValidShareCode("aB3kM9xQaB3kM9xQ"))
	assert.False(t, IsValidShareCode(""))
	assert.False(t, IsValidShareCode("short"))
	assert.False(t, IsValidShareCode("aB3kM9xQaB3kM9xQ7"))
	assert.False(t, IsValidShareCode("../../ab"))
	assert.False(t, IsValidShareCode("abc def1"))
}

func TestGeneratedCodesPassValidation(t *testing.T) {
	for _, n := range []int{6, 8, 12, 16} {
		code := GenerateShareCode(n)
		assert.True(t, IsValidShareCode(code), "长度%d的分享码应通过校验: %s", n, code)
	}
}

func TestGenerateQRCode(t *testing.T) {
	dataURL, err := GenerateQRCode("https://example.com/?box=aB3kM9xQ", 256)
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(dataURL, "data:image/png;base64,"))
	assert.Greater(t, len(dataURL), 100)
}
