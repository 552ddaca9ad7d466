package mq

import (
	"context"
	"time"

	"github.com/cenk/backoff"
	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type JSONPublisher interface {
	PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error
}

// EventNotifier publishes registry events to the exchange with routing key
// "<prefix>.<table>.<kind>". Delivery failures are retried with exponential
// backoff and then logged; they never fail the request that caused them.
type EventNotifier struct {
	pub      JSONPublisher
	exchange string
	prefix   string
	log      *zap.Logger

	newBackOff func() backoff.BackOff
}

func NewEventNotifier(pub JSONPublisher, cfg *config.Config, log *zap.Logger) *EventNotifier {
	return &EventNotifier{
		pub:      pub,
		exchange: cfg.RabbitMQ.ExchangeName,
		prefix:   cfg.RabbitMQ.RoutingKeyPrefix,
		log:      log,
		newBackOff: func() backoff.BackOff {
			b := backoff.NewExponentialBackOff()
			b.InitialInterval = 200 * time.Millisecond
			b.MaxInterval = 2 * time.Second
			b.MaxElapsedTime = 10 * time.Second
			return b
		},
	}
}

func (n *EventNotifier) RoutingKey(ev model.Event) string {
	return n.prefix + "." + string(ev.Table) + "." + string(ev.Kind)
}

func (n *EventNotifier) Notify(ctx context.Context, ev model.Event) {
	key := n.RoutingKey(ev)
	// detached so a finished request does not cancel delivery
	pubCtx := context.WithoutCancel(ctx)
	op := func() error {
		return n.pub.PublishJSON(pubCtx, n.exchange, key, ev)
	}
	if err := backoff.Retry(op, n.newBackOff()); err != nil {
		n.log.Error("publish registry event",
			zap.String("event_id", ev.ID.String()),
			zap.String("routing_key", key),
			zap.Error(err))
	}
}
