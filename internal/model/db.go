package model

import (
	"fmt"
	"log"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var DB *gorm.DB

// DBConfig 数据库连接池配置
type DBConfig struct {
	MaxOpenConns    int           // 最大打开连接数
	MaxIdleConns    int           // 最大空闲连接数
	ConnMaxLifetime time.Duration // 连接最大生命周期
	ConnMaxIdleTime time.Duration // 空闲连接最大生命周期
}

// DefaultDBConfig 默认数据库配置
var DefaultDBConfig = DBConfig{
	MaxOpenConns:    50,
	MaxIdleConns:    10,
	ConnMaxLifetime: time.Hour,
	ConnMaxIdleTime: 10 * time.Minute,
}

// InitDB 初始化数据库连接
func InitDB(dsn string) error {
	return InitDBWithConfig(dsn, DefaultDBConfig)
}

// InitDBWithConfig 使用自定义配置初始化数据库连接
func InitDBWithConfig(dsn string, cfg DBConfig) error {
	var err error
	DB, err = gorm.Open(mysql.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Warn),
	})
	if err != nil {
		return fmt.Errorf("failed to connect database: %w", err)
	}

	// 配置连接池
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}

	sqlDB.SetMaxOpenConns(cfg.MaxOpenConns)
	sqlDB.SetMaxIdleConns(cfg.MaxIdleConns)
	sqlDB.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	sqlDB.SetConnMaxIdleTime(cfg.ConnMaxIdleTime)

	// 验证连接
	if err := sqlDB.Ping(); err != nil {
		return fmt.Errorf("failed to ping database: %w", err)
	}

	// 自动迁移
	if err := AutoMigrateAll(DB); err != nil {
		return fmt.Errorf("failed to migrate database: %w", err)
	}

	// 初始化默认数据
	if err := initDefaultData(); err != nil {
		return fmt.Errorf("failed to init default data: %w", err)
	}

	log.Printf("Database connected (MaxOpen: %d, MaxIdle: %d)", cfg.MaxOpenConns, cfg.MaxIdleConns)
	return nil
}

// AutoMigrateAll 迁移全部表结构（服务启动和测试共用）
func AutoMigrateAll(db *gorm.DB) error {
	return db.AutoMigrate(
		&User{},
		&Wish{},
		&StarChain{},
		&StarChainWish{},
		&BlindBoxOpen{},
		&UserOpenedWish{},
		&SystemConfig{},
		&APILog{},
		&IPBlacklist{},
	)
}

// initDefaultData 初始化默认数据
func initDefaultData() error {
	defaultConfigs := []SystemConfig{
		{Key: ConfigKeySiteName, Value: "StarWish", Description: "网站名称"},
		{Key: ConfigKeyShareBaseURL, Value: "", Description: "分享链接域名，空则使用请求来源"},
		{Key: ConfigKeyChainExpireHours, Value: "0", Description: "星链默认有效期(小时)，0表示永不过期"},
		{Key: ConfigKeyMaxChainWishes, Value: "20", Description: "单条星链最多包含的心愿数"},
	}

	for _, cfg := range defaultConfigs {
		var count int64
		DB.Model(&SystemConfig{}).Where("`key` = ?", cfg.Key).Count(&count)
		if count == 0 {
			DB.Create(&cfg)
		}
	}

	return nil
}

// GetDBStats 获取数据库连接池状态
func GetDBStats() map[string]interface{} {
	if DB == nil {
		return nil
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return nil
	}
	stats := sqlDB.Stats()
	return map[string]interface{}{
		"max_open_connections": stats.MaxOpenConnections,
		"open_connections":     stats.OpenConnections,
		"in_use":               stats.InUse,
		"idle":                 stats.Idle,
		"wait_count":           stats.WaitCount,
		"wait_duration":        stats.WaitDuration.String(),
	}
}

// CheckDBHealth 检查数据库健康状态
func CheckDBHealth() error {
	if DB == nil {
		return fmt.Errorf("database not initialized")
	}
	sqlDB, err := DB.DB()
	if err != nil {
		return fmt.Errorf("failed to get underlying sql.DB: %w", err)
	}
	return sqlDB.Ping()
}

// GetDB 获取数据库实例
func GetDB() *gorm.DB {
	return DB
}
