package catalog

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/forcedotcom/commerce-vercel/pkg/logger"
	"github.com/forcedotcom/commerce-vercel/pkg/redis"
)

// CategoryCache memoizes the category tree. Writers race and the last one wins.
type CategoryCache interface {
	Get(ctx context.Context) ([]Category, bool)
	Set(ctx context.Context, categories []Category, ttl time.Duration)
}

type memoryCache struct {
	mu        sync.RWMutex
	data      []Category
	expiresAt time.Time
	now       func() time.Time
}

func NewMemoryCache() CategoryCache {
	return &memoryCache{now: time.Now}
}

func (m *memoryCache) Get(context.Context) ([]Category, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.data == nil || !m.now().Before(m.expiresAt) {
		return nil, false
	}
	return append([]Category(nil), m.data...), true
}

func (m *memoryCache) Set(_ context.Context, categories []Category, ttl time.Duration) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data = append([]Category(nil), categories...)
	m.expiresAt = m.now().Add(ttl)
}

type redisCache struct {
	store redis.CacheStore
	key   string
	logg  *logger.Logger
}

// NewRedisCache shares the category tree across instances. Redis errors read as
// a miss and failed writes are logged.
func NewRedisCache(store redis.CacheStore, webstoreID string, logg *logger.Logger) CategoryCache {
	return &redisCache{store: store, key: store.CacheKey("categories:" + webstoreID), logg: logg}
}

func (r *redisCache) Get(ctx context.Context) ([]Category, bool) {
	raw, err := r.store.Get(ctx, r.key)
	if err != nil {
		if !redis.IsNil(err) && r.logg != nil {
			r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "catalog.cache.read_failed")
		}
		return nil, false
	}
	var out []Category
	if err := json.Unmarshal([]byte(raw), &out); err != nil {
		return nil, false
	}
	return out, true
}

func (r *redisCache) Set(ctx context.Context, categories []Category, ttl time.Duration) {
	payload, err := json.Marshal(categories)
	if err != nil {
		return
	}
	if err := r.store.Set(ctx, r.key, payload, ttl); err != nil && r.logg != nil {
		r.logg.Warn(r.logg.WithField(ctx, "error", err.Error()), "catalog.cache.write_failed")
	}
}
