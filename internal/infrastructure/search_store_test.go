package infrastructure

import (
	"context"
	"fmt"
	"os"
	"testing"
	"time"

	"adspy/internal/domain"
	"adspy/pkg/logger"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleResult(id string, key domain.SearchKey, status domain.SearchStatus) domain.SearchResult {
	return domain.SearchResult{
		ID:        id,
		Key:       key,
		UserID:    "user-1",
		Params:    domain.SearchParams{Query: "shoes", Platform: domain.PlatformMeta, Limit: 10, Country: "US"},
		Timestamp: time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
		Status:    status,
		MetaAds:   []domain.NormalizedAd{{ID: "a1", Title: "Ad"}},
		TikTokAds: []domain.TikTokAd{},
	}
}

// exercises any domain.SearchStore
func testSearchStoreContract(t *testing.T, store domain.SearchStore, user string) {
	ctx := context.Background()

	t.Run("get missing", func(t *testing.T) {
		_, err := store.Get(ctx, "missing-"+user)
		assert.ErrorIs(t, err, domain.ErrNotFound)
		_, err = store.FindByKey(ctx, domain.SearchKey("missing-"+user))
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("save and lookup", func(t *testing.T) {
		key := domain.SearchKey("key-" + user)
		res := sampleResult("r1-"+user, key, domain.StatusCompleted)
		require.NoError(t, store.Save(ctx, res))

		got, err := store.Get(ctx, res.ID)
		require.NoError(t, err)
		assert.Equal(t, res.ID, got.ID)
		require.Len(t, got.MetaAds, 1)
		assert.Equal(t, "a1", got.MetaAds[0].ID)

		byKey, err := store.FindByKey(ctx, key)
		require.NoError(t, err)
		assert.Equal(t, res.ID, byKey.ID)
	})

	t.Run("failed results are not indexed", func(t *testing.T) {
		key := domain.SearchKey("failed-" + user)
		require.NoError(t, store.Save(ctx, sampleResult("r2-"+user, key, domain.StatusFailed)))
		_, err := store.FindByKey(ctx, key)
		assert.ErrorIs(t, err, domain.ErrNotFound)
	})

	t.Run("history newest first and deduplicated", func(t *testing.T) {
		for i := 0; i < 3; i++ {
			item := domain.SearchHistoryItem{ID: fmt.Sprintf("h%d", i), Query: "q", Timestamp: time.Unix(int64(i), 0).UTC()}
			require.NoError(t, store.AppendHistory(ctx, user, item))
		}
		require.NoError(t, store.AppendHistory(ctx, user, domain.SearchHistoryItem{ID: "h0", Query: "q", Timestamp: time.Unix(0, 0).UTC()}))

		items, err := store.History(ctx, user, 0)
		require.NoError(t, err)
		require.Len(t, items, 3)
		assert.Equal(t, "h0", items[0].ID)
		assert.Equal(t, "h2", items[1].ID)
		assert.Equal(t, "h1", items[2].ID)

		items, err = store.History(ctx, user, 2)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		items, err = store.History(ctx, "nobody-"+user, 5)
		require.NoError(t, err)
		assert.Empty(t, items)
	})
}

func TestMemorySearchStore(t *testing.T) {
	testSearchStoreContract(t, NewMemorySearchStore(10, logger.Discard()), "user-1")
}

func TestMemorySearchStore_HistoryCap(t *testing.T) {
	store := NewMemorySearchStore(2, logger.Discard())
	ctx := context.Background()
	for i := 0; i < 5; i++ {
		require.NoError(t, store.AppendHistory(ctx, "u", domain.SearchHistoryItem{ID: fmt.Sprintf("h%d", i)}))
	}
	items, err := store.History(ctx, "u", 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "h4", items[0].ID)
	assert.Equal(t, "h3", items[1].ID)
}

func TestMemorySearchStore_ReturnsCopies(t *testing.T) {
	store := NewMemorySearchStore(0, logger.Discard())
	ctx := context.Background()
	require.NoError(t, store.AppendHistory(ctx, "u", domain.SearchHistoryItem{ID: "h"}))

	items, _ := store.History(ctx, "u", 0)
	items[0].ID = "mutated"

	items, _ = store.History(ctx, "u", 0)
	assert.Equal(t, "h", items[0].ID)
}

// Runs against a real server when REDIS_ADDR is set.
func TestRedisSearchStore(t *testing.T) {
	addr := os.Getenv("REDIS_ADDR")
	if addr == "" {
		t.Skip("REDIS_ADDR not set")
	}

	client, err := NewRedisClient(context.Background(), addr, os.Getenv("REDIS_PASSWORD"), 0)
	require.NoError(t, err)
	defer client.Close()

	store := NewRedisSearchStore(client, time.Hour, 10, logger.Discard())
	testSearchStoreContract(t, store, "test-"+uuid.NewString())
}
