package adstore

import (
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/maltedev/classifieds-dashboard/internal/models"
)

type countingStore struct {
	ads   []models.Ad
	err   error
	calls int
}

func (s *countingStore) List(ctx context.Context, q Query) ([]models.Ad, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []models.Ad
	for i := range s.ads {
		if q.Match(&s.ads[i]) {
			out = append(out, s.ads[i])
		}
	}
	return out, nil
}

func newTestCache(t *testing.T, next Store) (*CachedStore, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewCachedStore(next, client, time.Minute, slog.Default()), mr
}

func testAds() []models.Ad {
	return []models.Ad{
		{ID: "1", Title: "Appartement", Price: models.Float(120000), PropertyType: models.String("Appartement")},
		{ID: "2", Title: "Terrain", PropertyType: models.String("Terrain")},
	}
}

func adIDs(ads []models.Ad) []string {
	ids := make([]string, 0, len(ads))
	for _, ad := range ads {
		ids = append(ids, ad.ID)
	}
	return ids
}

func TestCachedStoreHit(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()

	first, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	second, err := cache.List(ctx, Query{})
	require.NoError(t, err)

	assert.Equal(t, 1, next.calls, "second call must be served from redis")
	assert.Equal(t, adIDs(first), adIDs(second))
	require.NotNil(t, second[0].Price)
	assert.Equal(t, 120000.0, *second[0].Price)
	assert.Nil(t, second[1].Price)
}

func TestCachedStoreKeysByQuery(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()

	all, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	terrains, err := cache.List(ctx, Query{PropertyType: "Terrain"})
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
	assert.Equal(t, []string{"1", "2"}, adIDs(all))
	assert.Equal(t, []string{"2"}, adIDs(terrains))
}

func TestCachedStoreInvalidate(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	require.NoError(t, cache.Invalidate(ctx))
	_, err = cache.List(ctx, Query{})
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedStoreFreshBypassesCache(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	_, err = cache.List(ctx, Query{Fresh: true})
	require.NoError(t, err)
	_, err = cache.List(ctx, Query{})
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls, "fresh load refills the cache for later reads")
}

func TestCachedStoreExpires(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, mr := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	mr.FastForward(2 * time.Minute)
	_, err = cache.List(ctx, Query{})
	require.NoError(t, err)

	assert.Equal(t, 2, next.calls)
}

func TestCachedStoreDoesNotCacheErrors(t *testing.T) {
	next := &countingStore{err: errors.New("supabase down")}
	cache, _ := newTestCache(t, next)
	ctx := context.Background()

	_, err := cache.List(ctx, Query{})
	require.Error(t, err)

	next.err = nil
	next.ads = testAds()
	ads, err := cache.List(ctx, Query{})
	require.NoError(t, err)
	assert.Len(t, ads, 2)
}

func TestCachedStoreFallsBackWhenRedisDown(t *testing.T) {
	next := &countingStore{ads: testAds()}
	cache, mr := newTestCache(t, next)
	mr.Close()

	ads, err := cache.List(context.Background(), Query{})
	require.NoError(t, err)
	assert.Len(t, ads, 2)
	assert.Equal(t, 1, next.calls)
}
