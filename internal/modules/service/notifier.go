package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

// Notifier receives every status transition, edit submission and approval
// decision. Implementations own delivery and must not block for long.
type Notifier interface {
	Notify(ctx context.Context, ev model.Event)
}

// LogNotifier is used when no broker is configured.
type LogNotifier struct {
	log *zap.Logger
}

func NewLogNotifier(log *zap.Logger) *LogNotifier {
	return &LogNotifier{log: log}
}

func (n *LogNotifier) Notify(_ context.Context, ev model.Event) {
	n.log.Info("registry event",
		zap.String("event_id", ev.ID.String()),
		zap.String("kind", string(ev.Kind)),
		zap.String("table", string(ev.Table)),
		zap.Uint("object_id", ev.ObjectID),
		zap.Uint("actor_id", ev.ActorID),
		zap.String("game", ev.GameName))
}
