package eventbus_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/felixgeelhaar/canvasbridge/internal/shared/infrastructure/eventbus"
)

type mockConsumer struct {
	eventTypes []string
	events     []*eventbus.CommandEvent
	err        error
}

func (m *mockConsumer) EventTypes() []string {
	return m.eventTypes
}

func (m *mockConsumer) Handle(ctx context.Context, event *eventbus.CommandEvent) error {
	m.events = append(m.events, event)
	return m.err
}

type mockPublisher struct {
	mock.Mock
}

func (m *mockPublisher) Publish(ctx context.Context, routingKey string, payload []byte) error {
	return m.Called(ctx, routingKey, payload).Error(0)
}

func (m *mockPublisher) Close() error {
	return m.Called().Error(0)
}

func TestMatchRoutingKey(t *testing.T) {
	tests := []struct {
		pattern, key string
		want         bool
	}{
		{eventbus.RoutingExecuted, eventbus.RoutingExecuted, true},
		{eventbus.RoutingExecuted, eventbus.RoutingUndone, false},
		{eventbus.RoutingAll, eventbus.RoutingRedone, true},
		{eventbus.RoutingAll, "canvas.command", true},
		{"canvas.#", "canvas.command.failed", true},
		{"canvas.command.*", eventbus.RoutingFailed, true},
		{"canvas.*", eventbus.RoutingFailed, false},
		{"*.command.failed", eventbus.RoutingFailed, true},
		{"#", "anything.at.all", true},
		{"canvas.#.failed", eventbus.RoutingFailed, true},
		{"canvas.#.failed", eventbus.RoutingExecuted, false},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, eventbus.MatchRoutingKey(tt.pattern, tt.key), "%s ~ %s", tt.pattern, tt.key)
	}
}

func TestDecodeEvent(t *testing.T) {
	event := eventbus.NewCommandEvent("", "dfgSetTitle")
	body, err := event.Marshal()
	require.NoError(t, err)

	got, err := eventbus.DecodeEvent(eventbus.RoutingUndone, body)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, got.EventID)
	assert.Equal(t, eventbus.RoutingUndone, got.RoutingKey)

	_, err = eventbus.DecodeEvent(eventbus.RoutingUndone, []byte("{"))
	assert.ErrorContains(t, err, "decode canvas.command.undone event")
}

func TestConsumerRegistry_Dispatch(t *testing.T) {
	registry := eventbus.NewConsumerRegistry(nil)
	executed := &mockConsumer{eventTypes: []string{eventbus.RoutingExecuted}}
	all := &mockConsumer{eventTypes: []string{eventbus.RoutingAll, "canvas.command.*"}}
	failing := &mockConsumer{eventTypes: []string{eventbus.RoutingExecuted}, err: errors.New("consumer error")}
	var funcEvents int
	registry.Register(executed)
	registry.Register(all)
	registry.Register(failing)
	registry.Register(eventbus.ConsumerFunc{
		Types: []string{eventbus.RoutingUndone, eventbus.RoutingAll},
		Fn: func(context.Context, *eventbus.CommandEvent) error {
			funcEvents++
			return nil
		},
	})

	err := registry.Dispatch(context.Background(), eventbus.NewCommandEvent(eventbus.RoutingExecuted, "dfgConnect"))
	assert.EqualError(t, err, "consumer error")
	assert.Len(t, executed.events, 1)
	assert.Len(t, all.events, 1, "overlapping patterns deliver once")
	assert.Len(t, failing.events, 1)
	assert.Equal(t, 1, funcEvents)

	require.NoError(t, registry.Dispatch(context.Background(), eventbus.NewCommandEvent(eventbus.RoutingUndone, "dfgConnect")))
	assert.Len(t, executed.events, 1)
	assert.Len(t, all.events, 2)
	assert.Equal(t, 2, funcEvents)

	assert.Equal(t, 4, registry.Len())
	assert.Equal(t, []string{eventbus.RoutingExecuted, eventbus.RoutingAll, "canvas.command.*", eventbus.RoutingUndone}, registry.Patterns())
}

func TestInProcessEventBus_Publish(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{eventbus.RoutingFailed}}
	bus.RegisterConsumer(consumer)

	event := eventbus.NewCommandEvent(eventbus.RoutingFailed, "dfgAddPort")
	event.ErrorKind = "argument"
	require.NoError(t, eventbus.PublishEvent(context.Background(), bus, event))

	require.Len(t, consumer.events, 1)
	assert.Equal(t, event.EventID, consumer.events[0].EventID)
	assert.Equal(t, "argument", consumer.events[0].ErrorKind)
}

func TestInProcessEventBus_InvalidPayload(t *testing.T) {
	bus := eventbus.NewInProcessEventBus(nil)
	consumer := &mockConsumer{eventTypes: []string{eventbus.RoutingAll}}
	bus.RegisterConsumer(consumer)

	err := bus.Publish(context.Background(), eventbus.RoutingExecuted, []byte("invalid json"))

	require.NoError(t, err)
	assert.Empty(t, consumer.events)
	assert.NoError(t, bus.Close())
}

func TestBreakerPublisher_OpensAfterFailures(t *testing.T) {
	next := &mockPublisher{}
	next.On("Publish", mock.Anything, eventbus.RoutingExecuted, mock.Anything).Return(errors.New("connection reset"))
	next.On("Close").Return(nil)
	p := eventbus.NewBreakerPublisher(next, eventbus.BreakerConfig{FailureThreshold: 2, Timeout: time.Minute}, nil)
	ctx := context.Background()

	assert.EqualError(t, p.Publish(ctx, eventbus.RoutingExecuted, []byte("{}")), "connection reset")
	assert.EqualError(t, p.Publish(ctx, eventbus.RoutingExecuted, []byte("{}")), "connection reset")

	err := p.Publish(ctx, eventbus.RoutingExecuted, []byte("{}"))
	assert.ErrorIs(t, err, eventbus.ErrPublisherUnavailable)
	assert.Equal(t, "open", p.State())
	next.AssertNumberOfCalls(t, "Publish", 2)

	require.NoError(t, p.Close())
}

func TestPublishEvent_PublisherFunc(t *testing.T) {
	var gotKey string
	var gotPayload []byte
	p := eventbus.PublisherFunc(func(_ context.Context, key string, payload []byte) error {
		gotKey, gotPayload = key, payload
		return nil
	})

	event := eventbus.NewCommandEvent(eventbus.RoutingUndone, "dfgConnect")
	require.NoError(t, eventbus.PublishEvent(context.Background(), p, event))
	assert.Equal(t, eventbus.RoutingUndone, gotKey)

	decoded, err := eventbus.DecodeEvent(gotKey, gotPayload)
	require.NoError(t, err)
	assert.Equal(t, event.EventID, decoded.EventID)
	assert.NoError(t, p.Close())

	assert.NoError(t, eventbus.PublishEvent(context.Background(), eventbus.Discard, event))
}
