package daemon

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/dmitrijs2005/syncbox/internal/client/cache/storage"
	"github.com/dmitrijs2005/syncbox/internal/client/config"
	"github.com/redis/go-redis/v9"
)

func nopClose() error { return nil }

// newCacheStorage picks the cache backend named in cfg. The sqlite backend
// shares the store's database handle.
func newCacheStorage(ctx context.Context, cfg *config.Config, db *sql.DB) (storage.Storage, func() error, error) {
	switch cfg.CacheBackend {
	case "", config.CacheSQLite:
		return storage.NewSQLite(db, nil), nopClose, nil

	case config.CacheRedis:
		rdb := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, fmt.Errorf("redis ping: %w", err)
		}
		return storage.NewRedis(rdb, cfg.RedisPrefix, nil), rdb.Close, nil

	case config.CacheS3:
		api, err := storage.NewS3Client(ctx, cfg.S3)
		if err != nil {
			return nil, nil, fmt.Errorf("s3 client: %w", err)
		}
		return storage.NewS3(api, cfg.S3.Bucket, cfg.S3.Prefix, nil), nopClose, nil

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.CacheBackend)
	}
}
