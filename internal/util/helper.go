package util

import (
	"net/http"
	"strings"
)

// GetClientIP 获取客户端IP
func GetClientIP(r *http.Request) string {
	// 优先从X-Forwarded-For获取
	xff := r.Header.Get("X-Forwarded-For")
	if xff != "" {
		ips := strings.Split(xff, ",")
		if len(ips) > 0 {
			return strings.TrimSpace(ips[0])
		}
	}

	// 从X-Real-IP获取
	xri := r.Header.Get("X-Real-IP")
	if xri != "" {
		return xri
	}

	// 从RemoteAddr获取
	ip := r.RemoteAddr
	if idx := strings.LastIndex(ip, ":"); idx != -1 {
		ip = ip[:idx]
	}
	return ip
}

// IsValidCategory 检查心愿分类是否有效
func IsValidCategory(category string) bool {
	return category == "gift" || category == "experience" || category == "moment"
}

// IsValidPriority 检查心愿优先级是否有效
func IsValidPriority(priority string) bool {
	return priority == "low" || priority == "medium" || priority == "high"
}

// IsValidShareCode 检查分享码格式（字母数字，长度与库表 varchar(16) 和可配置的 chain.code_length 对齐）
func IsValidShareCode(code string) bool {
	if len(code) < 6 || len(code) > 16 {
		return false
	}
	for i := 0; i < len(code); i++ {
		c := code[i]
		if (c >= '0' && c <= '9') || (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') {
			continue
		}
		return false
	}
	return true
}

// TruncateString 截断字符串
func TruncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
