package cache

import (
	"context"
	"strings"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// Broadcaster fans table invalidations out to other instances over a redis
// channel. Messages are "<origin>|<table>,<table>"; an instance ignores its
// own messages.
type Broadcaster struct {
	rdb     *redis.Client
	channel string
	reg     *Registry
	log     *zap.Logger
	origin  string
}

func NewBroadcaster(rdb *redis.Client, channel string, reg *Registry, log *zap.Logger) *Broadcaster {
	return &Broadcaster{
		rdb:     rdb,
		channel: channel,
		reg:     reg,
		log:     log,
		origin:  uuid.NewString(),
	}
}

func (b *Broadcaster) Publish(ctx context.Context, tables []string) error {
	msg := b.origin + "|" + strings.Join(tables, ",")
	return b.rdb.Publish(ctx, b.channel, msg).Err()
}

// Hook publishes invalidations; wire it with Registry.OnInvalidate.
func (b *Broadcaster) Hook() InvalidateHook {
	return func(ctx context.Context, tables []string) {
		if err := b.Publish(ctx, tables); err != nil {
			b.log.Warn("publish cache invalidation", zap.Strings("tables", tables), zap.Error(err))
		}
	}
}

// Start subscribes and returns once the subscription is live. Messages are
// handled in a goroutine until ctx is done.
func (b *Broadcaster) Start(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return err
	}

	go func() {
		defer sub.Close()
		ch := sub.Channel()
		for {
			select {
			case <-ctx.Done():
				return
			case m, ok := <-ch:
				if !ok {
					return
				}
				b.handle(m.Payload)
			}
		}
	}()
	return nil
}

func (b *Broadcaster) handle(payload string) {
	origin, list, ok := strings.Cut(payload, "|")
	if !ok || origin == b.origin {
		return
	}
	var tables []string
	if list != "" {
		tables = strings.Split(list, ",")
	}
	b.log.Debug("cache invalidated remotely", zap.String("origin", origin), zap.Strings("tables", tables))
	b.reg.InvalidateLocal(tables...)
}
