package cache

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/jonboulle/clockwork"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	appErrors "github.com/ThisIsJeron/fluffyduck-sub000/internal/errors"
	"github.com/ThisIsJeron/fluffyduck-sub000/internal/model"
)

func sampleResult() *model.GenerationResult {
	return &model.GenerationResult{
		ID:         "g-1",
		CampaignID: "c-1",
		Prompt:     "tacos",
		StyleUsed:  "instagram-style",
		Variants: []model.Variant{
			{ID: "v-1", Style: "Modern & Bold", Caption: "Tacos!", Hashtags: []string{"Tacos"}},
			{ID: "v-2", Style: "Warm & Local", Caption: "Hmm", Flagged: true},
		},
		CreatedAt: time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestRedisVariantStore(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisVariantStore(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult()))
	assert.Equal(t, time.Hour, mr.TTL("variants:c-1"))

	got, err := store.Latest(ctx, "c-1")
	require.NoError(t, err)
	assert.Equal(t, sampleResult(), got)

	mr.FastForward(2 * time.Hour)
	_, err = store.Latest(ctx, "c-1")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestRedisVariantStoreDelete(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer rdb.Close()

	store := NewRedisVariantStore(rdb, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult()))
	require.NoError(t, store.Delete(ctx, "c-1"))
	assert.False(t, mr.Exists("variants:c-1"))
}

func TestMemoryVariantStoreExpires(t *testing.T) {
	clock := clockwork.NewFakeClock()
	store := NewMemoryVariantStore(clock, time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult()))

	got, err := store.Latest(ctx, "c-1")
	require.NoError(t, err)
	v, ok := got.Variant("v-2")
	require.True(t, ok)
	assert.True(t, v.Flagged)

	clock.Advance(time.Hour)
	_, err = store.Latest(ctx, "c-1")
	assert.True(t, appErrors.IsNotFound(err))
}

func TestMemoryVariantStoreDelete(t *testing.T) {
	store := NewMemoryVariantStore(clockwork.NewFakeClock(), time.Hour)
	ctx := context.Background()

	require.NoError(t, store.Save(ctx, sampleResult()))
	require.NoError(t, store.Delete(ctx, "c-1"))
	_, err := store.Latest(ctx, "c-1")
	assert.True(t, appErrors.IsNotFound(err))
}
