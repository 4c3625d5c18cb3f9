package cache

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/simaogato/skinledger-backend/internal/domain"
	"github.com/simaogato/skinledger-backend/internal/domain/mocks"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quote(price string) *domain.PriceQuote {
	return &domain.PriceQuote{Price: decimal.RequireFromString(price), Source: domain.SourceSteamMarket}
}

func TestMemoryCache_GetSet(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, 10)

	_, hit, err := c.Get(ctx, "recoil case")
	require.NoError(t, err)
	assert.False(t, hit)

	require.NoError(t, c.Set(ctx, "recoil case", quote("0.35")))

	got, hit, err := c.Get(ctx, "recoil case")
	require.NoError(t, err)
	require.True(t, hit)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("0.35")))
}

func TestMemoryCache_Expiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	c := NewMemoryCache(time.Minute, 10)
	c.now = func() time.Time { return now }

	require.NoError(t, c.Set(ctx, "k", quote("1")))

	now = now.Add(59 * time.Second)
	_, hit, _ := c.Get(ctx, "k")
	assert.True(t, hit)

	now = now.Add(2 * time.Second)
	_, hit, _ = c.Get(ctx, "k")
	assert.False(t, hit)
	assert.Equal(t, 0, c.Len())
}

func TestMemoryCache_EvictsOldest(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, 2)

	require.NoError(t, c.Set(ctx, "a", quote("1")))
	require.NoError(t, c.Set(ctx, "b", quote("2")))
	require.NoError(t, c.Set(ctx, "a", quote("3"))) // Update in place, no eviction
	require.NoError(t, c.Set(ctx, "c", quote("4")))

	assert.Equal(t, 2, c.Len())
	_, hitB, _ := c.Get(ctx, "b")
	_, hitA, _ := c.Get(ctx, "a")
	assert.False(t, hitB, "b was inserted before the refreshed a")
	assert.True(t, hitA)
}

func TestMemoryCache_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	c := NewMemoryCache(time.Minute, 10)
	q := quote("5")
	require.NoError(t, c.Set(ctx, "k", q))

	q.Source = "mutated"
	got, _, _ := c.Get(ctx, "k")
	got.Source = "also mutated"

	again, _, _ := c.Get(ctx, "k")
	assert.Equal(t, domain.SourceSteamMarket, again.Source)
}

func TestCachedQuote_RejectsCorruptPrice(t *testing.T) {
	_, err := cachedQuote{Price: "abc"}.toQuote()
	assert.Error(t, err)
}

func TestKey(t *testing.T) {
	assert.Equal(t, "ak-47 | redline (field-tested)", Key("  AK-47 | Redline (Field-Tested) "))
}

// brokenCache fails every operation
type brokenCache struct{}

func (brokenCache) Get(ctx context.Context, key string) (*domain.PriceQuote, bool, error) {
	return nil, false, errors.New("connection refused")
}

func (brokenCache) Set(ctx context.Context, key string, q *domain.PriceQuote) error {
	return errors.New("connection refused")
}

func TestCachingSource_HitSkipsUpstream(t *testing.T) {
	ctx := context.Background()
	source := new(mocks.PriceSource)
	source.On("FetchPrice", ctx, "Recoil Case").Return(quote("0.35"), nil).Once()

	cs := NewCachingSource(source, NewMemoryCache(time.Minute, 10), nil)

	first, err := cs.FetchPrice(ctx, "Recoil Case")
	require.NoError(t, err)
	second, err := cs.FetchPrice(ctx, "recoil case ")
	require.NoError(t, err)

	assert.True(t, first.Price.Equal(second.Price))
	source.AssertNumberOfCalls(t, "FetchPrice", 1)
}

func TestCachingSource_ErrorsAreNotCached(t *testing.T) {
	ctx := context.Background()
	source := new(mocks.PriceSource)
	source.On("FetchPrice", ctx, "Recoil Case").Return(nil, fmt.Errorf("steam: %w", domain.ErrRateLimited)).Once()
	source.On("FetchPrice", ctx, "Recoil Case").Return(quote("0.35"), nil).Once()

	cs := NewCachingSource(source, NewMemoryCache(time.Minute, 10), nil)

	_, err := cs.FetchPrice(ctx, "Recoil Case")
	assert.ErrorIs(t, err, domain.ErrRateLimited)

	got, err := cs.FetchPrice(ctx, "Recoil Case")
	require.NoError(t, err)
	assert.True(t, got.Price.Equal(decimal.RequireFromString("0.35")))
	source.AssertExpectations(t)
}

func TestCachingSource_BrokenCacheFallsThrough(t *testing.T) {
	ctx := context.Background()
	source := new(mocks.PriceSource)
	source.On("FetchPrice", ctx, "Recoil Case").Return(quote("0.35"), nil).Twice()

	cs := NewCachingSource(source, brokenCache{}, nil)

	for i := 0; i < 2; i++ {
		_, err := cs.FetchPrice(ctx, "Recoil Case")
		require.NoError(t, err)
	}
	source.AssertExpectations(t)
}
