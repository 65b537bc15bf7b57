// Package cache provides a small read-through cache used for list endpoints
// whose rows change only through admin writes.  Values are stored as JSON so
// the Redis and in-process backends are interchangeable.
package cache

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	gocache "github.com/patrickmn/go-cache"
	"github.com/redis/go-redis/v9"

	"github.com/iliyamo/venue-admin/internal/metrics"
)

// RoomsKey caches the full rooms list.
const RoomsKey = "rooms.all"

// Store is a byte-oriented key/value backend with per-key expiry.
type Store interface {
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, val []byte, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

// RedisStore keeps entries in Redis under a common prefix.
type RedisStore struct {
	rdb    *redis.Client
	prefix string
}

func NewRedisStore(rdb *redis.Client, prefix string) *RedisStore {
	return &RedisStore{rdb: rdb, prefix: prefix}
}

func (s *RedisStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *RedisStore) Get(ctx context.Context, key string) ([]byte, bool, error) {
	bs, err := s.rdb.Get(ctx, s.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return bs, true, nil
}

func (s *RedisStore) Set(ctx context.Context, key string, val []byte, ttl time.Duration) error {
	return s.rdb.Set(ctx, s.key(key), val, ttl).Err()
}

func (s *RedisStore) Delete(ctx context.Context, key string) error {
	return s.rdb.Del(ctx, s.key(key)).Err()
}

// MemoryStore is the in-process fallback used when Redis is unavailable.
type MemoryStore struct {
	c *gocache.Cache
}

// NewMemoryStore creates a store whose entries default to ttl and are swept
// every 2*ttl.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{c: gocache.New(ttl, ttl*2)}
}

func (s *MemoryStore) Get(_ context.Context, key string) ([]byte, bool, error) {
	v, ok := s.c.Get(key)
	if !ok {
		return nil, false, nil
	}
	bs, ok := v.([]byte)
	return bs, ok, nil
}

func (s *MemoryStore) Set(_ context.Context, key string, val []byte, ttl time.Duration) error {
	s.c.Set(key, val, ttl)
	return nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.c.Delete(key)
	return nil
}

// Remember returns the cached value for key, or calls fn, caches its result
// for ttl and returns it.  Backend failures fall through to fn so a broken
// cache never fails a read.
func Remember[T any](ctx context.Context, s Store, key string, ttl time.Duration, fn func(context.Context) (T, error)) (T, error) {
	if bs, ok, err := s.Get(ctx, key); err == nil && ok {
		var v T
		if json.Unmarshal(bs, &v) == nil {
			metrics.CacheLookupsTotal.WithLabelValues(key, "hit").Inc()
			return v, nil
		}
	}
	metrics.CacheLookupsTotal.WithLabelValues(key, "miss").Inc()

	v, err := fn(ctx)
	if err != nil {
		return v, err
	}
	if bs, err := json.Marshal(v); err == nil {
		_ = s.Set(ctx, key, bs, ttl)
	}
	return v, nil
}

// Forget drops key.
func Forget(ctx context.Context, s Store, key string) error {
	return s.Delete(ctx, key)
}
