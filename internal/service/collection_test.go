package service

import (
	"testing"
	"time"

	"starwish/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecordOpenedWishIdempotent(t *testing.T) {
	setupTestDB(t)
	user := mustCreateUser(t, "creator@example.com")
	wish := mustCreateWish(t, user.ID, "心愿", model.CategoryGift, model.PriorityMedium)
	chain := &model.StarChain{CreatorID: user.ID, ShareCode: "testcode"}
	require.NoError(t, model.GetDB().Create(chain).Error)

	svc := GetCollectionService()
	now := time.Now()
	require.NoError(t, svc.RecordOpenedWish("fp1", nil, wish, chain, "creator", now))
	// 重复写入不报错、不产生重复行
	require.NoError(t, svc.RecordOpenedWish("fp1", nil, wish, chain, "creator", now))

	var count int64
	model.GetDB().Model(&model.UserOpenedWish{}).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestListOpenedByFingerprint(t *testing.T) {
	setupTestDB(t)
	user := mustCreateUser(t, "creator@example.com")
	w1 := mustCreateWish(t, user.ID, "心愿一", model.CategoryGift, model.PriorityMedium)
	w2 := mustCreateWish(t, user.ID, "心愿二", model.CategoryGift, model.PriorityMedium)
	chain := &model.StarChain{CreatorID: user.ID, ShareCode: "testcode"}
	require.NoError(t, model.GetDB().Create(chain).Error)
	chain2 := &model.StarChain{CreatorID: user.ID, ShareCode: "testcod2"}
	require.NoError(t, model.GetDB().Create(chain2).Error)

	svc := GetCollectionService()
	require.NoError(t, svc.RecordOpenedWish("fp1", nil, w1, chain, "creator", time.Now()))
	require.NoError(t, svc.RecordOpenedWish("fp2", nil, w2, chain2, "creator", time.Now()))

	entries, err := svc.ListOpened("fp1", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	assert.Equal(t, w1.ID, entries[0].WishID)
	require.NotNil(t, entries[0].Wish)
	assert.Equal(t, "心愿一", entries[0].Wish.Title)

	// 空身份什么都看不到
	none, err := svc.ListOpened("", nil)
	require.NoError(t, err)
	assert.Empty(t, none)
}

func TestUpdateEntry(t *testing.T) {
	setupTestDB(t)
	user := mustCreateUser(t, "creator@example.com")
	wish := mustCreateWish(t, user.ID, "心愿", model.CategoryGift, model.PriorityMedium)
	chain := &model.StarChain{CreatorID: user.ID, ShareCode: "testcode"}
	require.NoError(t, model.GetDB().Create(chain).Error)

	svc := GetCollectionService()
	require.NoError(t, svc.RecordOpenedWish("fp1", nil, wish, chain, "creator", time.Now()))
	entries, err := svc.ListOpened("fp1", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)

	fav := true
	notes := "准备下个月实现它"
	updated, err := svc.UpdateEntry("fp1", nil, entries[0].ID, &UpdateEntryRequest{IsFavorite: &fav, Notes: &notes})
	require.NoError(t, err)
	assert.True(t, updated.IsFavorite)
	assert.Equal(t, notes, updated.Notes)

	// 别的指纹改不了
	_, err = svc.UpdateEntry("fp-other", nil, entries[0].ID, &UpdateEntryRequest{IsFavorite: &fav})
	assert.Error(t, err)
}

func TestMigrateFingerprint(t *testing.T) {
	setupTestDB(t)
	creator := mustCreateUser(t, "creator@example.com")
	opener := mustCreateUser(t, "opener@example.com")
	w1 := mustCreateWish(t, creator.ID, "心愿一", model.CategoryGift, model.PriorityMedium)
	w2 := mustCreateWish(t, creator.ID, "心愿二", model.CategoryGift, model.PriorityMedium)
	chain := &model.StarChain{CreatorID: creator.ID, ShareCode: "testcode"}
	require.NoError(t, model.GetDB().Create(chain).Error)
	chain2 := &model.StarChain{CreatorID: creator.ID, ShareCode: "testcod2"}
	require.NoError(t, model.GetDB().Create(chain2).Error)

	svc := GetCollectionService()
	require.NoError(t, svc.RecordOpenedWish("fp-anon", nil, w1, chain, "creator", time.Now()))
	require.NoError(t, svc.RecordOpenedWish("fp-anon", nil, w2, chain2, "creator", time.Now()))

	migrated, err := svc.MigrateFingerprint("fp-anon", opener.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), migrated)

	// 重复迁移幂等，已归属的行不再匹配
	migrated, err = svc.MigrateFingerprint("fp-anon", opener.ID)
	require.NoError(t, err)
	assert.Zero(t, migrated)

	// 登录身份能看到全部历史
	entries, err := svc.ListOpened("", &opener.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 2)

	// 空指纹迁移是no-op
	migrated, err = svc.MigrateFingerprint("", opener.ID)
	require.NoError(t, err)
	assert.Zero(t, migrated)
}

func TestMigrateDoesNotStealOwnedRows(t *testing.T) {
	setupTestDB(t)
	creator := mustCreateUser(t, "creator@example.com")
	first := mustCreateUser(t, "first@example.com")
	second := mustCreateUser(t, "second@example.com")
	wish := mustCreateWish(t, creator.ID, "心愿", model.CategoryGift, model.PriorityMedium)
	chain := &model.StarChain{CreatorID: creator.ID, ShareCode: "testcode"}
	require.NoError(t, model.GetDB().Create(chain).Error)

	svc := GetCollectionService()
	require.NoError(t, svc.RecordOpenedWish("fp-shared", nil, wish, chain, "creator", time.Now()))

	_, err := svc.MigrateFingerprint("fp-shared", first.ID)
	require.NoError(t, err)

	// 已经归属first的行，second迁移不会抢走
	migrated, err := svc.MigrateFingerprint("fp-shared", second.ID)
	require.NoError(t, err)
	assert.Zero(t, migrated)

	var entry model.UserOpenedWish
	require.NoError(t, model.GetDB().Where("user_fingerprint = ?", "fp-shared").First(&entry).Error)
	require.NotNil(t, entry.UserID)
	assert.Equal(t, first.ID, *entry.UserID)
}
