package services

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
)

// Deduper remembers which entry an idempotency key produced so a repeated
// create can be answered without touching the database.
type Deduper interface {
	Lookup(ctx context.Context, key string) (int64, bool, error)
	Remember(ctx context.Context, key string, id int64) error
}

// NopDeduper never remembers anything; the database constraint alone
// deduplicates.
type NopDeduper struct{}

func (NopDeduper) Lookup(context.Context, string) (int64, bool, error) { return 0, false, nil }
func (NopDeduper) Remember(context.Context, string, int64) error       { return nil }

// RedisDeduper keeps key → entry id mappings in Redis with a TTL so every
// server instance shares them.
type RedisDeduper struct {
	client redis.UniversalClient
	prefix string
	ttl    time.Duration
}

func NewRedisDeduper(client redis.UniversalClient, prefix string, ttl time.Duration) *RedisDeduper {
	return &RedisDeduper{client: client, prefix: prefix, ttl: ttl}
}

func (r *RedisDeduper) key(key string) string {
	return r.prefix + key
}

func (r *RedisDeduper) Lookup(ctx context.Context, key string) (int64, bool, error) {
	v, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	id, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}

// Remember records id for key unless the key is already mapped.
func (r *RedisDeduper) Remember(ctx context.Context, key string, id int64) error {
	return r.client.SetNX(ctx, r.key(key), id, r.ttl).Err()
}
