package catalog

import (
	"context"
	"fmt"
	"io"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/forcedotcom/commerce-vercel/pkg/logger"
)

func TestMemoryCacheExpires(t *testing.T) {
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	cache := &memoryCache{now: func() time.Time { return now }}

	_, ok := cache.Get(context.Background())
	assert.False(t, ok)

	cache.Set(context.Background(), []Category{{ID: "a"}}, time.Minute)
	got, ok := cache.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, "a", got[0].ID)

	now = now.Add(time.Minute)
	_, ok = cache.Get(context.Background())
	assert.False(t, ok)
}

type fakeCacheStore struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func (f *fakeCacheStore) Get(_ context.Context, key string) (string, error) {
	if f.getErr != nil {
		return "", f.getErr
	}
	v, ok := f.data[key]
	if !ok {
		return "", goredis.Nil
	}
	return v, nil
}

func (f *fakeCacheStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	switch v := value.(type) {
	case []byte:
		f.data[key] = string(v)
	default:
		f.data[key] = fmt.Sprint(v)
	}
	f.ttl = ttl
	return nil
}

func (f *fakeCacheStore) Del(_ context.Context, keys ...string) error {
	for _, k := range keys {
		delete(f.data, k)
	}
	return nil
}

func (f *fakeCacheStore) CacheKey(name string) string {
	return "sf:cache:" + name
}

func TestRedisCacheRoundTrip(t *testing.T) {
	store := &fakeCacheStore{data: map[string]string{}}
	cache := NewRedisCache(store, "0ZE1", logger.New(logger.Options{Output: io.Discard}))

	_, ok := cache.Get(context.Background())
	assert.False(t, ok)

	cache.Set(context.Background(), []Category{{ID: "a", Name: "Apparel"}}, 5*time.Minute)
	assert.Contains(t, store.data, "sf:cache:categories:0ZE1")
	assert.Equal(t, 5*time.Minute, store.ttl)

	got, ok := cache.Get(context.Background())
	require.True(t, ok)
	assert.Equal(t, "Apparel", got[0].Name)
}

func TestRedisCacheErrorsReadAsMiss(t *testing.T) {
	store := &fakeCacheStore{data: map[string]string{}, getErr: fmt.Errorf("connection refused")}
	cache := NewRedisCache(store, "0ZE1", logger.New(logger.Options{Output: io.Discard}))

	_, ok := cache.Get(context.Background())
	assert.False(t, ok)
}
