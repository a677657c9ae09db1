package util

import (
	"crypto/rand"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"
	"strings"

	"golang.org/x/crypto/bcrypt"
)

// HashPassword 密码加密
func HashPassword(password string) (string, error) {
	bytes, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	return string(bytes), err
}

// CheckPassword 验证密码
func CheckPassword(password, hash string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password))
	return err == nil
}

// 分享码字母表，去掉易混淆的 0/O/1/l/I
const shareCodeAlphabet = "23456789abcdefghjkmnpqrstuvwxyzABCDEFGHJKLMNPQRSTUVWXYZ"

// GenerateShareCode 生成分享码
// crypto/rand取随机字节后映射到字母表，分享码是公开令牌，不要求不可预测之外的性质
func GenerateShareCode(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	var sb strings.Builder
	sb.Grow(length)
	for _, b := range bytes {
		sb.WriteByte(shareCodeAlphabet[int(b)%len(shareCodeAlphabet)])
	}
	return sb.String()
}

// GenerateRandomHex 生成随机十六进制字符串
func GenerateRandomHex(length int) string {
	bytes := make([]byte, length)
	rand.Read(bytes)
	return hex.EncodeToString(bytes)
}

// ServerFingerprint 服务端兜底指纹
// 浏览器端正常会上报自己计算的指纹（UA/语言/分辨率/时区/canvas签名），
// 缺失时用服务端可见的信号推一个：同一浏览器+设备组合下重放稳定。
func ServerFingerprint(userAgent, acceptLanguage, clientIP string) string {
	h := sha256.New()
	h.Write([]byte(userAgent))
	h.Write([]byte{0})
	h.Write([]byte(acceptLanguage))
	h.Write([]byte{0})
	h.Write([]byte(clientIP))
	return hex.EncodeToString(h.Sum(nil))[:32]
}

// CryptoSeed 从crypto/rand取一个int64种子，用于初始化math/rand源
func CryptoSeed() int64 {
	var b [8]byte
	rand.Read(b[:])
	return int64(binary.LittleEndian.Uint64(b[:]) & 0x7fffffffffffffff)
}
