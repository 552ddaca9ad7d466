package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/cenk/backoff"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"github.com/Saeraphinx/BadBeatMods-sub000/internal/config"
	"github.com/Saeraphinx/BadBeatMods-sub000/internal/modules/model"
)

type MockPublisher struct {
	mock.Mock
}

func (m *MockPublisher) PublishJSON(ctx context.Context, exchangeName string, routingKey string, body any) error {
	args := m.Called(ctx, exchangeName, routingKey, body)
	return args.Error(0)
}

func newTestNotifier(pub JSONPublisher, log *zap.Logger) *EventNotifier {
	cfg := &config.Config{RabbitMQ: config.RabbitMQCfg{ExchangeName: "registry.events", RoutingKeyPrefix: "registry"}}
	n := NewEventNotifier(pub, cfg, log)
	n.newBackOff = func() backoff.BackOff {
		return backoff.WithMaxRetries(&backoff.ZeroBackOff{}, 2)
	}
	return n
}

func TestEventNotifier_Publishes(t *testing.T) {
	pub := &MockPublisher{}
	n := newTestNotifier(pub, zap.NewNop())
	ev := model.NewEvent(model.EventVerified, model.TableProjects, 4, "BeatSaber", 9)

	pub.On("PublishJSON", mock.Anything, "registry.events", "registry.mods.verified", ev).Return(nil).Once()

	n.Notify(context.Background(), ev)
	pub.AssertExpectations(t)
}

func TestEventNotifier_RetriesThenSucceeds(t *testing.T) {
	pub := &MockPublisher{}
	n := newTestNotifier(pub, zap.NewNop())
	ev := model.NewEvent(model.EventEditSubmitted, model.TableVersions, 4, "BeatSaber", 9)

	pub.On("PublishJSON", mock.Anything, "registry.events", "registry.modVersions.edit_submitted", ev).Return(errors.New("channel closed")).Once()
	pub.On("PublishJSON", mock.Anything, "registry.events", "registry.modVersions.edit_submitted", ev).Return(nil).Once()

	n.Notify(context.Background(), ev)
	pub.AssertNumberOfCalls(t, "PublishJSON", 2)
}

func TestEventNotifier_LogsAfterGivingUp(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)
	pub := &MockPublisher{}
	n := newTestNotifier(pub, zap.New(core))
	ev := model.NewEvent(model.EventRemoved, model.TableProjects, 4, "BeatSaber", 9)

	pub.On("PublishJSON", mock.Anything, mock.Anything, mock.Anything, mock.Anything).Return(errors.New("broker down"))

	n.Notify(context.Background(), ev)
	pub.AssertNumberOfCalls(t, "PublishJSON", 3)
	assert.Equal(t, 1, logs.FilterMessage("publish registry event").Len())
}
