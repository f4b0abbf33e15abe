package session

import (
	"context"

	"github.com/goatkit/querypro/internal/config"
)

// OpenStore builds the Store selected by cfg.
func OpenStore(ctx context.Context, cfg *config.SessionConfig) (Store, error) {
	switch cfg.EffectiveStore() {
	case config.StoreSQLite:
		return OpenSQLiteStore(cfg.SQLitePath)
	case config.StoreRedis:
		return NewRedisStore(ctx, RedisOptions{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
			Prefix:   cfg.Redis.Prefix,
		})
	default:
		return NewMemoryStore(), nil
	}
}
