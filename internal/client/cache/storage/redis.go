package storage

import (
	"context"
	"encoding/json"
	"errors"
	"sort"

	"github.com/dmitrijs2005/syncbox/internal/common"
	"github.com/dmitrijs2005/syncbox/internal/timex"
	"github.com/redis/go-redis/v9"
)

// Redis keeps each cache as a sorted set of keys (scored by a global
// counter) next to a hash of encoded entries.
//
//	<prefix>names              set of cache names
//	<prefix>seq                insertion counter
//	<prefix>c:<name>:order     zset key -> seq
//	<prefix>c:<name>:entries   hash key -> JSON entry
type Redis struct {
	rdb    redis.UniversalClient
	prefix string
	clock  timex.Clock
}

func NewRedis(rdb redis.UniversalClient, prefix string, clock timex.Clock) *Redis {
	return &Redis{rdb: rdb, prefix: prefix, clock: clock}
}

func (r *Redis) namesKey() string             { return r.prefix + "names" }
func (r *Redis) seqKey() string               { return r.prefix + "seq" }
func (r *Redis) orderKey(cache string) string { return r.prefix + "c:" + cache + ":order" }
func (r *Redis) entriesKey(cache string) string {
	return r.prefix + "c:" + cache + ":entries"
}

func (r *Redis) Open(ctx context.Context, cache string) error {
	if err := r.rdb.SAdd(ctx, r.namesKey(), cache).Err(); err != nil {
		return common.NewStorageError("cache open", err)
	}
	return nil
}

func (r *Redis) Names(ctx context.Context) ([]string, error) {
	names, err := r.rdb.SMembers(ctx, r.namesKey()).Result()
	if err != nil {
		return nil, common.NewStorageError("cache names", err)
	}
	sort.Strings(names)
	return names, nil
}

func (r *Redis) Drop(ctx context.Context, cache string) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.Del(ctx, r.orderKey(cache), r.entriesKey(cache))
		removed = p.SRem(ctx, r.namesKey(), cache)
		return nil
	})
	if err != nil {
		return false, common.NewStorageError("cache drop", err)
	}
	return removed.Val() > 0, nil
}

func (r *Redis) Get(ctx context.Context, cache, key string) (*Entry, error) {
	raw, err := r.rdb.HGet(ctx, r.entriesKey(cache), key).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, common.ErrorNotFound
		}
		return nil, common.NewStorageError("cache get", err)
	}
	var e Entry
	if err := json.Unmarshal(raw, &e); err != nil {
		return nil, common.NewStorageError("cache get", err)
	}
	return &e, nil
}

func (r *Redis) Put(ctx context.Context, cache string, e *Entry) error {
	if e.StoredAt == 0 {
		e.StoredAt = r.clock.UnixMilli()
	}
	raw, err := json.Marshal(e)
	if err != nil {
		return common.NewStorageError("cache put", err)
	}

	seq, err := r.rdb.Incr(ctx, r.seqKey()).Result()
	if err != nil {
		return common.NewStorageError("cache put", err)
	}

	_, err = r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.SAdd(ctx, r.namesKey(), cache)
		p.ZAdd(ctx, r.orderKey(cache), redis.Z{Score: float64(seq), Member: e.Key})
		p.HSet(ctx, r.entriesKey(cache), e.Key, raw)
		return nil
	})
	if err != nil {
		return common.NewStorageError("cache put", err)
	}
	return nil
}

func (r *Redis) Keys(ctx context.Context, cache string) ([]string, error) {
	keys, err := r.rdb.ZRange(ctx, r.orderKey(cache), 0, -1).Result()
	if err != nil {
		return nil, common.NewStorageError("cache keys", err)
	}
	return keys, nil
}

func (r *Redis) Delete(ctx context.Context, cache, key string) (bool, error) {
	var removed *redis.IntCmd
	_, err := r.rdb.TxPipelined(ctx, func(p redis.Pipeliner) error {
		p.ZRem(ctx, r.orderKey(cache), key)
		removed = p.HDel(ctx, r.entriesKey(cache), key)
		return nil
	})
	if err != nil {
		return false, common.NewStorageError("cache delete", err)
	}
	return removed.Val() > 0, nil
}
