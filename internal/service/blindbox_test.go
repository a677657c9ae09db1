package service

import (
	"encoding/json"
	"math/rand"
	"sync"
	"testing"
	"time"

	"starwish/internal/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupChainWithWishes(t *testing.T, n int) (*model.User, *model.StarChain, []*model.Wish) {
	t.Helper()
	user := mustCreateUser(t, "creator@example.com")
	wishes := make([]*model.Wish, 0, n)
	ids := make([]uint, 0, n)
	titles := []string{"心愿A", "心愿B", "心愿C", "心愿D", "心愿E", "心愿F", "心愿G"}
	for i := 0; i < n; i++ {
		w := mustCreateWish(t, user.ID, titles[i%len(titles)], model.CategoryGift, model.PriorityMedium)
		wishes = append(wishes, w)
		ids = append(ids, w.ID)
	}
	chain, err := GetChainService().CreateChain(user.ID, &CreateChainRequest{WishIDs: ids, Name: "测试盲盒"})
	require.NoError(t, err)
	return user, chain, wishes
}

func testOpenContext(fp string) *OpenContext {
	return &OpenContext{
		Fingerprint: fp,
		UserAgent:   "test-agent",
		ClientIP:    "127.0.0.1",
	}
}

func TestResolve(t *testing.T) {
	setupTestDB(t)
	_, chain, _ := setupChainWithWishes(t, 3)

	info, err := GetBlindBoxService().Resolve(chain.ShareCode)
	require.NoError(t, err)
	assert.Equal(t, chain.ShareCode, info.ShareCode)
	assert.Equal(t, 3, info.WishCount)
	assert.False(t, info.IsOpened)
	assert.Equal(t, "creator", info.CreatorName) // 昵称为空退化为邮箱前缀
}

func TestResolveNotFound(t *testing.T) {
	setupTestDB(t)

	_, err := GetBlindBoxService().Resolve("zzzzzzzz")
	assert.ErrorIs(t, err, ErrChainNotFound)

	// 非法格式直接当不存在
	_, err = GetBlindBoxService().Resolve("../../etc")
	assert.ErrorIs(t, err, ErrChainNotFound)
}

func TestResolveInactiveAndExpired(t *testing.T) {
	setupTestDB(t)
	user, chain, _ := setupChainWithWishes(t, 1)

	require.NoError(t, GetChainService().DeactivateChain(user.ID, chain.ID))
	_, err := GetBlindBoxService().Resolve(chain.ShareCode)
	assert.ErrorIs(t, err, ErrChainInactive)

	// 复活并设置已过期
	past := time.Now().Add(-time.Hour)
	require.NoError(t, model.GetDB().Model(&model.StarChain{}).Where("id = ?", chain.ID).
		Updates(map[string]interface{}{"is_active": true, "expires_at": past}).Error)
	_, err = GetBlindBoxService().Resolve(chain.ShareCode)
	assert.ErrorIs(t, err, ErrChainExpired)
}

func TestOpenRevealsMemberWish(t *testing.T) {
	setupTestDB(t)
	_, chain, wishes := setupChainWithWishes(t, 3)

	result, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp-opener-1"))
	require.NoError(t, err)

	// 揭晓的一定是成员心愿
	memberIDs := map[uint]bool{}
	for _, w := range wishes {
		memberIDs[w.ID] = true
	}
	assert.True(t, memberIDs[result.Wish.ID])
	assert.Equal(t, "creator", result.CreatorName)

	// 状态终态化
	var reloaded model.StarChain
	require.NoError(t, model.GetDB().First(&reloaded, chain.ID).Error)
	assert.True(t, reloaded.IsOpened)
	assert.NotNil(t, reloaded.OpenedAt)
	assert.Equal(t, "fp-opener-1", reloaded.OpenerFingerprint)

	// 开启日志落库
	var openLog model.BlindBoxOpen
	require.NoError(t, model.GetDB().Where("chain_id = ?", chain.ID).First(&openLog).Error)
	assert.Equal(t, result.Wish.ID, openLog.WishID)

	// 收到方收藏落库
	var entry model.UserOpenedWish
	require.NoError(t, model.GetDB().Where("chain_id = ? AND user_fingerprint = ?", chain.ID, "fp-opener-1").First(&entry).Error)
	assert.Equal(t, result.Wish.ID, entry.WishID)
}

func TestOpenTwiceFails(t *testing.T) {
	setupTestDB(t)
	_, chain, _ := setupChainWithWishes(t, 2)

	svc := GetBlindBoxService()
	_, err := svc.Open(chain.ShareCode, testOpenContext("fp-first"))
	require.NoError(t, err)

	_, err = svc.Open(chain.ShareCode, testOpenContext("fp-second"))
	assert.ErrorIs(t, err, ErrAlreadyOpened)
}

func TestOpenConcurrentOnlyOneWins(t *testing.T) {
	setupTestDB(t)
	_, chain, _ := setupChainWithWishes(t, 3)
	svc := GetBlindBoxService()

	const racers = 8
	results := make([]error, racers)
	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < racers; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			<-start
			_, results[i] = svc.Open(chain.ShareCode, testOpenContext("fp-racer"))
		}(i)
	}
	close(start)
	wg.Wait()

	winners := 0
	for _, err := range results {
		if err == nil {
			winners++
		} else {
			assert.ErrorIs(t, err, ErrAlreadyOpened)
		}
	}
	assert.Equal(t, 1, winners)

	// 开启日志只有一条
	var count int64
	model.GetDB().Model(&model.BlindBoxOpen{}).Where("chain_id = ?", chain.ID).Count(&count)
	assert.Equal(t, int64(1), count)
}

func TestOpenEmptyChain(t *testing.T) {
	setupTestDB(t)
	user, chain, wishes := setupChainWithWishes(t, 1)

	// 唯一的心愿被删掉，链变空
	require.NoError(t, GetWishService().DeleteWish(user.ID, wishes[0].ID))

	_, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp"))
	assert.ErrorIs(t, err, ErrChainEmpty)
}

func TestResolveEmptyChain(t *testing.T) {
	setupTestDB(t)
	user, chain, wishes := setupChainWithWishes(t, 1)

	// 心愿全被删掉的未开启星链不可访问
	require.NoError(t, GetWishService().DeleteWish(user.ID, wishes[0].ID))
	_, err := GetBlindBoxService().Resolve(chain.ShareCode)
	assert.ErrorIs(t, err, ErrChainEmpty)
}

func TestResolveOpenedChainAfterWishDeleted(t *testing.T) {
	setupTestDB(t)
	user, chain, _ := setupChainWithWishes(t, 1)

	result, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp"))
	require.NoError(t, err)

	// 已开启的盲盒即使心愿随后被删，仍展示已开启状态
	require.NoError(t, GetWishService().DeleteWish(user.ID, result.Wish.ID))
	info, err := GetBlindBoxService().Resolve(chain.ShareCode)
	require.NoError(t, err)
	assert.True(t, info.IsOpened)
}

func TestOpenEventHidesRevealedWish(t *testing.T) {
	setupTestDB(t)
	user, chain, _ := setupChainWithWishes(t, 3)

	ch, cancel := GetEventHub().Subscribe(user.ID)
	defer cancel()

	result, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp-event"))
	require.NoError(t, err)

	select {
	case ev := <-ch:
		assert.Equal(t, "opened", ev.Type)
		assert.Equal(t, chain.ID, ev.ChainID)
		// 事件只通知状态变化，不泄露抽中的心愿给送愿人
		payload, merr := json.Marshal(ev)
		require.NoError(t, merr)
		assert.NotContains(t, string(payload), result.Wish.Title)
	case <-time.After(time.Second):
		t.Fatal("没有收到开启事件")
	}
}

func TestOpenSkipsDeletedWishes(t *testing.T) {
	setupTestDB(t)
	user, chain, wishes := setupChainWithWishes(t, 3)

	// 删掉前两个，揭晓只能命中剩下的那个
	require.NoError(t, GetWishService().DeleteWish(user.ID, wishes[0].ID))
	require.NoError(t, GetWishService().DeleteWish(user.ID, wishes[1].ID))

	result, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp"))
	require.NoError(t, err)
	assert.Equal(t, wishes[2].ID, result.Wish.ID)
}

func TestDeleteWishAfterOpenKeepsRecords(t *testing.T) {
	setupTestDB(t)
	user, chain, _ := setupChainWithWishes(t, 1)

	result, err := GetBlindBoxService().Open(chain.ShareCode, testOpenContext("fp-keeper"))
	require.NoError(t, err)

	// 揭晓后创建者删除心愿，历史记录仍然在
	require.NoError(t, GetWishService().DeleteWish(user.ID, result.Wish.ID))

	var openLog model.BlindBoxOpen
	require.NoError(t, model.GetDB().Where("chain_id = ?", chain.ID).First(&openLog).Error)
	assert.Equal(t, result.Wish.ID, openLog.WishID)

	// 收到方依然能看到完整心愿内容
	entries, err := GetCollectionService().ListOpened("fp-keeper", nil)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.NotNil(t, entries[0].Wish)
	assert.Equal(t, result.Wish.Title, entries[0].Wish.Title)
}

func TestOpenUniformSelection(t *testing.T) {
	if testing.Short() {
		t.Skip("统计检验在-short下跳过")
	}
	setupTestDB(t)
	user := mustCreateUser(t, "creator@example.com")
	svc := GetBlindBoxService()
	svc.SetRandSource(rand.NewSource(42))
	t.Cleanup(func() { svc.SetRandSource(rand.NewSource(time.Now().UnixNano())) })

	const wishCount = 5
	const trials = 1500

	ids := make([]uint, 0, wishCount)
	for i := 0; i < wishCount; i++ {
		w := mustCreateWish(t, user.ID, "候选心愿", model.CategoryGift, model.PriorityMedium)
		ids = append(ids, w.ID)
	}

	hits := map[uint]int{}
	for trial := 0; trial < trials; trial++ {
		chain, err := GetChainService().CreateChain(user.ID, &CreateChainRequest{WishIDs: ids})
		require.NoError(t, err)
		result, err := svc.Open(chain.ShareCode, testOpenContext("fp-stats"))
		require.NoError(t, err)
		hits[result.Wish.ID]++
	}

	// 卡方检验，自由度4，阈值取p=0.001的18.47
	expected := float64(trials) / float64(wishCount)
	chi2 := 0.0
	for _, id := range ids {
		diff := float64(hits[id]) - expected
		chi2 += diff * diff / expected
	}
	assert.Less(t, chi2, 18.47, "命中分布偏离均匀: %v", hits)

	// 每个候选都被抽中过
	for _, id := range ids {
		assert.Greater(t, hits[id], 0)
	}
}
