package cache

import (
	"context"
	"crypto/tls"
	"fmt"
	"time"

	"github.com/redis/go-redis/extra/redisotel/v9"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
)

const (
	defaultInvalidationChannel = "registry:cache:invalidate"
	pingTimeout                = 5 * time.Second
)

// InvalidationChannel namespaces the configured channel by environment so
// instances of different deployments sharing one redis never drop each
// other's snapshots.
func InvalidationChannel(cfg *config.Config) string {
	ch := cfg.Redis.InvalidationChannel
	if ch == "" {
		ch = defaultInvalidationChannel
	}
	if cfg.App.Env == "" {
		return ch
	}
	return cfg.App.Env + ":" + ch
}

// NewClient opens the redis client used only for snapshot invalidation. The
// client name shows up in CLIENT LIST as "<app>-cache".
func NewClient(cfg *config.Config) (*redis.Client, error) {
	opts := &redis.Options{
		Addr:       cfg.Redis.Addr,
		Password:   cfg.Redis.Password,
		DB:         cfg.Redis.DB,
		PoolSize:   cfg.Redis.PoolSize,
		ClientName: cfg.App.Name + "-cache",
	}
	if cfg.Redis.EnableTLS {
		opts.TLSConfig = &tls.Config{
			MinVersion: tls.VersionTLS12,
		}
	}

	rdb := redis.NewClient(opts)
	ctx, cancel := context.WithTimeout(context.Background(), pingTimeout)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis %s: %w", cfg.Redis.Addr, err)
	}
	if cfg.Telemetry.Enabled {
		// must run after telemetry setup so the global providers are picked up
		if err := redisotel.InstrumentTracing(rdb); err != nil {
			_ = rdb.Close()
			return nil, err
		}
		if err := redisotel.InstrumentMetrics(rdb); err != nil {
			_ = rdb.Close()
			return nil, err
		}
	}
	return rdb, nil
}

// NewInvalidationBus connects a Broadcaster to reg: local invalidations are
// published and peers' invalidations are applied once Start runs.
func NewInvalidationBus(cfg *config.Config, rdb *redis.Client, reg *Registry, log *zap.Logger) *Broadcaster {
	b := NewBroadcaster(rdb, InvalidationChannel(cfg), reg, log)
	reg.OnInvalidate(b.Hook())
	return b
}
