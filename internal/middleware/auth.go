package middleware

import (
	"bytes"
	"io"
	"net/http"
	"regexp"
	"strings"
	"sync"
	"time"

	"starwish/config"
	"starwish/internal/model"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// ============ 限流器实现 ============

// RateLimiter 基于令牌桶的限流器，按客户端IP分桶
type RateLimiter struct {
	mu          sync.RWMutex
	buckets     map[string]*tokenBucket
	rate        float64       // 每秒生成的令牌数
	capacity    int           // 桶容量
	cleanupTick time.Duration // 清理间隔
}

// tokenBucket 令牌桶
type tokenBucket struct {
	tokens     float64
	lastUpdate time.Time
}

// NewRateLimiter 创建限流器
// rate: 每秒允许的请求数, capacity: 突发容量
func NewRateLimiter(rate float64, capacity int) *RateLimiter {
	rl := &RateLimiter{
		buckets:     make(map[string]*tokenBucket),
		rate:        rate,
		capacity:    capacity,
		cleanupTick: 5 * time.Minute,
	}
	// 启动定期清理过期桶
	go rl.cleanup()
	return rl
}

// Allow 检查是否允许请求
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	bucket, exists := rl.buckets[key]

	if !exists {
		rl.buckets[key] = &tokenBucket{
			tokens:     float64(rl.capacity) - 1,
			lastUpdate: now,
		}
		return true
	}

	// 计算经过的时间，添加令牌
	elapsed := now.Sub(bucket.lastUpdate).Seconds()
	bucket.tokens += elapsed * rl.rate
	if bucket.tokens > float64(rl.capacity) {
		bucket.tokens = float64(rl.capacity)
	}
	bucket.lastUpdate = now

	if bucket.tokens >= 1 {
		bucket.tokens--
		return true
	}
	return false
}

// cleanup 定期清理过期的桶
func (rl *RateLimiter) cleanup() {
	ticker := time.NewTicker(rl.cleanupTick)
	defer ticker.Stop()

	for range ticker.C {
		rl.mu.Lock()
		now := time.Now()
		for key, bucket := range rl.buckets {
			// 清理10分钟未使用的桶
			if now.Sub(bucket.lastUpdate) > 10*time.Minute {
				delete(rl.buckets, key)
			}
		}
		rl.mu.Unlock()
	}
}

// 全局限流器实例（默认值，可通过InitRateLimiters重新配置）
var (
	apiRateLimiter  *RateLimiter
	openRateLimiter *RateLimiter
)

func init() {
	// 设置默认值
	apiRateLimiter = NewRateLimiter(20, 50)
	openRateLimiter = NewRateLimiter(2, 5)
}

// InitRateLimiters 根据配置初始化限流器
// 揭晓接口是公开的，限流比常规API更严
func InitRateLimiters(apiRate float64, apiBurst int, openRate float64, openBurst int) {
	apiRateLimiter = NewRateLimiter(apiRate, apiBurst)
	openRateLimiter = NewRateLimiter(openRate, openBurst)
}

// ============ IP黑名单缓存 ============

// IPBlacklistCache IP黑名单缓存
type IPBlacklistCache struct {
	mu         sync.RWMutex
	cache      map[string]bool
	lastUpdate time.Time
	ttl        time.Duration
}

var ipBlacklistCache *IPBlacklistCache

func init() {
	ipBlacklistCache = &IPBlacklistCache{
		cache: make(map[string]bool),
		ttl:   30 * time.Second, // 默认缓存30秒
	}
}

// SetIPBlacklistCacheTTL 设置IP黑名单缓存TTL
func SetIPBlacklistCacheTTL(seconds int) {
	if ipBlacklistCache != nil {
		ipBlacklistCache.mu.Lock()
		ipBlacklistCache.ttl = time.Duration(seconds) * time.Second
		ipBlacklistCache.mu.Unlock()
	}
}

// IsBlacklisted 检查IP是否在黑名单（带缓存）
func (c *IPBlacklistCache) IsBlacklisted(ip string) bool {
	c.mu.RLock()
	// 检查缓存是否过期
	if time.Since(c.lastUpdate) > c.ttl {
		c.mu.RUnlock()
		c.refresh()
		c.mu.RLock()
	}
	result, exists := c.cache[ip]
	c.mu.RUnlock()

	if exists {
		return result
	}
	// 不在缓存中，查数据库
	return model.IsIPBlacklisted(ip)
}

// refresh 刷新缓存
func (c *IPBlacklistCache) refresh() {
	c.mu.Lock()
	defer c.mu.Unlock()

	// 双重检查
	if time.Since(c.lastUpdate) <= c.ttl {
		return
	}

	var blacklist []model.IPBlacklist
	model.GetDB().Find(&blacklist)

	newCache := make(map[string]bool)
	for _, item := range blacklist {
		newCache[item.IP] = true
	}
	c.cache = newCache
	c.lastUpdate = time.Now()
}

// IPBlacklistCheck IP黑名单检查中间件（带缓存）
func IPBlacklistCheck() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if ipBlacklistCache.IsBlacklisted(clientIP) {
			c.JSON(http.StatusForbidden, gin.H{
				"code": -1,
				"msg":  "IP已被禁止访问",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ============ 用户认证 ============

// parseUserToken 解析Bearer Token并加载用户
// EventSource无法自定义请求头，SSE订阅走 ?token= 传递
func parseUserToken(c *gin.Context, secret string) (*model.User, bool) {
	var tokenString string
	if authHeader := c.GetHeader("Authorization"); authHeader != "" {
		tokenString = strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return nil, false
		}
	} else if q := c.Query("token"); q != "" {
		tokenString = q
	} else {
		return nil, false
	}

	token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
		return []byte(secret), nil
	})
	if err != nil || !token.Valid {
		return nil, false
	}

	claims, ok := token.Claims.(jwt.MapClaims)
	if !ok {
		return nil, false
	}
	tokenType, _ := claims["type"].(string)
	if tokenType != "user" {
		return nil, false
	}
	idValue, ok := claims["user_id"].(float64)
	if !ok {
		return nil, false
	}

	var user model.User
	if err := model.GetDB().Where("id = ? AND status = 1", uint(idValue)).First(&user).Error; err != nil {
		return nil, false
	}
	return &user, true
}

// UserAuth 用户认证中间件
func UserAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		user, ok := parseUserToken(c, cfg.JWT.Secret)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{
				"code": -401,
				"msg":  "未登录或登录已过期",
			})
			c.Abort()
			return
		}

		c.Set("user_id", user.ID)
		c.Set("user", user)
		c.Next()
	}
}

// OptionalUserAuth 可选认证中间件
// 收藏页匿名指纹也能访问，带了有效Token则同时按账号聚合
func OptionalUserAuth(cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		if user, ok := parseUserToken(c, cfg.JWT.Secret); ok {
			c.Set("user_id", user.ID)
			c.Set("user", user)
		}
		c.Next()
	}
}

// CORS 跨域中间件（带可配置的域名白名单）
func CORS() gin.HandlerFunc {
	return CORSWithConfig(nil)
}

// CORSWithConfig 带配置的CORS中间件
func CORSWithConfig(allowedOrigins []string) gin.HandlerFunc {
	return func(c *gin.Context) {
		origin := c.GetHeader("Origin")

		// 如果配置了白名单，则检查来源
		if len(allowedOrigins) > 0 {
			allowed := false
			for _, ao := range allowedOrigins {
				if ao == "*" || ao == origin {
					allowed = true
					break
				}
				// 支持通配符域名 *.example.com
				if strings.HasPrefix(ao, "*.") {
					suffix := ao[1:] // .example.com
					if strings.HasSuffix(origin, suffix) {
						allowed = true
						break
					}
				}
			}
			if allowed {
				c.Header("Access-Control-Allow-Origin", origin)
				c.Header("Vary", "Origin")
			}
		} else {
			// 未配置白名单时允许所有来源（开发模式）
			c.Header("Access-Control-Allow-Origin", "*")
		}

		c.Header("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		c.Header("Access-Control-Allow-Headers", "Origin, Content-Type, Authorization, X-Requested-With, X-Client-Fingerprint")
		c.Header("Access-Control-Allow-Credentials", "true")
		c.Header("Access-Control-Max-Age", "86400")

		if c.Request.Method == "OPTIONS" {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}

		c.Next()
	}
}

// RateLimit API限流中间件
func RateLimit() gin.HandlerFunc {
	return RateLimitWithConfig(apiRateLimiter)
}

// OpenRateLimit 揭晓接口限流中间件（更严格）
func OpenRateLimit() gin.HandlerFunc {
	return RateLimitWithConfig(openRateLimiter)
}

// RateLimitWithConfig 带配置的限流中间件
func RateLimitWithConfig(limiter *RateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		clientIP := c.ClientIP()
		if !limiter.Allow(clientIP) {
			c.JSON(http.StatusTooManyRequests, gin.H{
				"code": -429,
				"msg":  "请求过于频繁，请稍后再试",
			})
			c.Abort()
			return
		}
		c.Next()
	}
}

// ============ API日志 ============

// APILogger API调用日志中间件
func APILogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()

		// 读取请求体
		var requestBody string
		if c.Request.Body != nil {
			bodyBytes, _ := io.ReadAll(c.Request.Body)
			// 恢复请求体以供后续处理
			c.Request.Body = io.NopCloser(bytes.NewBuffer(bodyBytes))
			requestBody = maskSensitiveData(string(bodyBytes))
		}

		// 获取URL参数
		if c.Request.URL.RawQuery != "" {
			queryParams := maskSensitiveData(c.Request.URL.RawQuery)
			if requestBody != "" {
				requestBody = requestBody + "&" + queryParams
			} else {
				requestBody = queryParams
			}
		}

		c.Next()

		// 获取响应信息
		responseCode, _ := c.Get("api_response_code")
		responseMsg, _ := c.Get("api_response_msg")
		shareCode, _ := c.Get("api_share_code")

		// 计算耗时
		duration := time.Since(startTime).Milliseconds()

		entry := model.APILog{
			Endpoint:    c.Request.URL.Path,
			Method:      c.Request.Method,
			ClientIP:    c.ClientIP(),
			Referer:     c.GetHeader("Referer"),
			UserAgent:   c.GetHeader("User-Agent"),
			RequestBody: truncateString(requestBody, 2000),
			Duration:    duration,
		}

		if code, ok := responseCode.(int); ok {
			entry.ResponseCode = code
		}
		if msg, ok := responseMsg.(string); ok {
			entry.ResponseMsg = truncateString(msg, 500)
		}
		if sc, ok := shareCode.(string); ok {
			entry.ShareCode = sc
		}
		if uid, ok := c.Get("user_id"); ok {
			if id, ok := uid.(uint); ok {
				entry.UserID = id
			}
		}

		// 异步写入数据库
		go func() {
			model.GetDB().Create(&entry)
		}()
	}
}

// SetAPILogContext 设置API日志上下文 (在handler中调用)
func SetAPILogContext(c *gin.Context, code int, msg string, shareCode string) {
	c.Set("api_response_code", code)
	c.Set("api_response_msg", msg)
	c.Set("api_share_code", shareCode)
}

// 敏感字段脱敏：JSON请求体的 "key":"value" 与查询串的 key=value 两种形态
var (
	sensitiveJSONPattern  = regexp.MustCompile(`"([A-Za-z0-9_]*(?:password|fingerprint|token)[A-Za-z0-9_]*)"\s*:\s*"[^"]*"`)
	sensitiveQueryPattern = regexp.MustCompile(`([A-Za-z0-9_]*(?:password|fingerprint|token)[A-Za-z0-9_]*)=[^&]*`)
)

// maskSensitiveData 脱敏处理敏感数据
func maskSensitiveData(data string) string {
	data = sensitiveJSONPattern.ReplaceAllString(data, `"$1":"***"`)
	data = sensitiveQueryPattern.ReplaceAllString(data, "$1=***")
	return data
}

// truncateString 截断字符串
func truncateString(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}
