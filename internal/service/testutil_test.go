package service

import (
	"fmt"
	"sync/atomic"
	"testing"

	"starwish/internal/model"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

var testDBSeq int64

// setupTestDB 每个测试一个独立的内存库
// cache=shared让同一个连接池里的多个连接看到同一份数据，
// busy_timeout避免并发测试里sqlite直接报锁冲突。
func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:svc_test_%d?mode=memory&cache=shared&_busy_timeout=5000", atomic.AddInt64(&testDBSeq, 1))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	// 单连接串行化，避免sqlite共享缓存下的表锁报错
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, model.AutoMigrateAll(db))

	prev := model.DB
	model.DB = db
	t.Cleanup(func() {
		sqlDB, _ := db.DB()
		if sqlDB != nil {
			sqlDB.Close()
		}
		model.DB = prev
	})

	return db
}

// mustCreateUser 建测试用户
func mustCreateUser(t *testing.T, email string) *model.User {
	t.Helper()
	user := &model.User{
		Email:    email,
		Nickname: "",
		Password: "x",
		Status:   1,
	}
	require.NoError(t, model.GetDB().Create(user).Error)
	return user
}

// mustCreateWish 建测试心愿
func mustCreateWish(t *testing.T, userID uint, title, category, priority string) *model.Wish {
	t.Helper()
	wish := &model.Wish{
		UserID:   userID,
		Title:    title,
		Category: category,
		Priority: priority,
	}
	require.NoError(t, model.GetDB().Create(wish).Error)
	return wish
}
