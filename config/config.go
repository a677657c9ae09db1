package config

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/viper"
)

type Config struct {
	Server   ServerConfig   `mapstructure:"server"`
	Database DatabaseConfig `mapstructure:"database"`
	JWT      JWTConfig      `mapstructure:"jwt"`
	Security SecurityConfig `mapstructure:"security"`
	Chain    ChainConfig    `mapstructure:"chain"`
	Log      LogConfig      `mapstructure:"log"`
}

type ServerConfig struct {
	Host    string `mapstructure:"host"`
	Port    int    `mapstructure:"port"`
	BaseURL string `mapstructure:"base_url"` // 对外访问地址，用于拼接分享链接
}

type DatabaseConfig struct {
	Host            string `mapstructure:"host"`
	Port            int    `mapstructure:"port"`
	User            string `mapstructure:"user"`
	Password        string `mapstructure:"password"`
	DBName          string `mapstructure:"dbname"`
	MaxOpenConns    int    `mapstructure:"max_open_conns"`    // 最大打开连接数
	MaxIdleConns    int    `mapstructure:"max_idle_conns"`    // 最大空闲连接数
	ConnMaxLifetime int    `mapstructure:"conn_max_lifetime"` // 连接最大生命周期(分钟)
}

type JWTConfig struct {
	Secret     string `mapstructure:"secret"`
	ExpireHour int    `mapstructure:"expire_hour"` // Token过期时间(小时)
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	// 限流配置
	RateLimitAPI       float64 `mapstructure:"rate_limit_api"`        // API每秒请求数
	RateLimitAPIBurst  int     `mapstructure:"rate_limit_api_burst"`  // API突发容量
	RateLimitOpen      float64 `mapstructure:"rate_limit_open"`       // 揭晓接口每秒请求数
	RateLimitOpenBurst int     `mapstructure:"rate_limit_open_burst"` // 揭晓接口突发容量
	// CORS配置
	CORSAllowOrigins []string `mapstructure:"cors_allow_origins"` // 允许的来源域名
	// IP黑名单缓存
	IPBlacklistCacheTTL int `mapstructure:"ip_blacklist_cache_ttl"` // IP黑名单缓存时间(秒)
}

// ChainConfig 星链配置
type ChainConfig struct {
	CodeLength         int `mapstructure:"code_length"`          // 分享码长度
	DefaultExpireHours int `mapstructure:"default_expire_hours"` // 默认有效期(小时)，0表示永不过期
	MaxWishes          int `mapstructure:"max_wishes"`           // 单条星链最多包含的心愿数
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`        // 日志级别: debug, info, warn, error
	APILogDays int    `mapstructure:"api_log_days"` // API日志保留天数
}

var cfg *Config

// getExeDir 获取可执行文件所在目录
func getExeDir() string {
	exe, err := os.Executable()
	if err != nil {
		return "."
	}
	return filepath.Dir(exe)
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")

	exeDir := getExeDir()

	// 按优先级添加配置路径
	viper.AddConfigPath(exeDir)          // 可执行文件所在目录 (开发/部署环境)
	viper.AddConfigPath(".")             // 当前工作目录
	viper.AddConfigPath("./config")      // 当前目录下的config目录
	viper.AddConfigPath("/etc/starwish") // 系统配置目录 (生产环境)

	// 设置默认值
	setDefaults()

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			// 配置文件不存在，创建默认配置
			if err := createDefaultConfig(); err != nil {
				return nil, fmt.Errorf("failed to create default config: %w", err)
			}
			if err := viper.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config: %w", err)
			}
		} else {
			return nil, fmt.Errorf("failed to read config: %w", err)
		}
	}

	cfg = &Config{}
	if err := viper.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}

	return cfg, nil
}

func Get() *Config {
	return cfg
}

func setDefaults() {
	// Server
	viper.SetDefault("server.host", "0.0.0.0")
	viper.SetDefault("server.port", 6098)
	viper.SetDefault("server.base_url", "http://localhost:6098")

	// Database
	viper.SetDefault("database.host", "127.0.0.1")
	viper.SetDefault("database.port", 3306)
	viper.SetDefault("database.user", "starwish")
	viper.SetDefault("database.password", "starwish123")
	viper.SetDefault("database.dbname", "starwish")
	viper.SetDefault("database.max_open_conns", 50)
	viper.SetDefault("database.max_idle_conns", 10)
	viper.SetDefault("database.conn_max_lifetime", 60) // 60分钟

	// JWT
	viper.SetDefault("jwt.secret", "change-this-secret-key-in-production")
	viper.SetDefault("jwt.expire_hour", 168) // 7天

	// Security
	viper.SetDefault("security.rate_limit_api", 20)
	viper.SetDefault("security.rate_limit_api_burst", 50)
	viper.SetDefault("security.rate_limit_open", 2)
	viper.SetDefault("security.rate_limit_open_burst", 5)
	viper.SetDefault("security.cors_allow_origins", []string{})
	viper.SetDefault("security.ip_blacklist_cache_ttl", 30)

	// Chain
	viper.SetDefault("chain.code_length", 8)
	viper.SetDefault("chain.default_expire_hours", 0)
	viper.SetDefault("chain.max_wishes", 20)

	// Log
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.api_log_days", 30)
}

func createDefaultConfig() error {
	configContent := `# StarWish 配置文件
# 站点名称、分享域名等运行期配置在数据库 system_configs 表中管理

server:
  host: "0.0.0.0"
  port: 6098
  base_url: "http://localhost:6098"

database:
  host: "127.0.0.1"
  port: 3306
  user: "starwish"
  password: "starwish123"
  dbname: "starwish"
  max_open_conns: 50
  max_idle_conns: 10
  conn_max_lifetime: 60

jwt:
  secret: "change-this-secret-key-in-production"
  expire_hour: 168

security:
  rate_limit_api: 20
  rate_limit_api_burst: 50
  rate_limit_open: 2
  rate_limit_open_burst: 5
  cors_allow_origins: []
  ip_blacklist_cache_ttl: 30

chain:
  code_length: 8
  default_expire_hours: 0
  max_wishes: 20

log:
  level: "info"
  api_log_days: 30
`

	// 在可执行文件所在目录创建配置文件
	configPath := filepath.Join(getExeDir(), "config.yaml")
	return os.WriteFile(configPath, []byte(configContent), 0644)
}

func (c *DatabaseConfig) DSN() string {
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?charset=utf8mb4&parseTime=True&loc=Local",
		c.User, c.Password, c.Host, c.Port, c.DBName)
}
