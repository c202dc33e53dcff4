package service

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"testing"
	"time"

	"literature-search-be/internal/dto"
	"literature-search-be/internal/pkg/logger"
	"literature-search-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type recordingDelivery struct {
	mu   sync.Mutex
	sent []dto.ProgressMessage
}

func (d *recordingDelivery) Send(userID uuid.UUID, eventType string, data interface{}) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.sent = append(d.sent, data.(dto.ProgressMessage))
}

func (d *recordingDelivery) count() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.sent)
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []events.Event
	err    error
}

func (p *recordingPublisher) Publish(_ context.Context, e events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return p.err
}

func (p *recordingPublisher) count() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.events)
}

func newPubSub() *gochannel.GoChannel {
	return gochannel.NewGoChannel(gochannel.Config{}, watermill.NopLogger{})
}

func TestEventRelayDeliversAndForwards(t *testing.T) {
	pubSub := newPubSub()
	delivery := &recordingDelivery{}
	bus := &recordingPublisher{err: errors.New("nats down")}
	relay := NewEventRelayService(pubSub, "topic", delivery, bus, logger.NewNopLogger())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- relay.Consume(ctx) }()

	msg := dto.ProgressMessage{
		UserId: uuid.New(), WorkflowId: uuid.New(), SessionId: "s1",
		Action: "search", Stage: "search-results", OccurredAt: time.Now(),
	}
	raw, err := json.Marshal(msg)
	require.NoError(t, err)

	publisher := NewPublisherService(pubSub, "topic")
	require.Eventually(t, func() bool {
		// gochannel drops messages published before the subscription exists
		if delivery.count() > 0 {
			return true
		}
		_ = publisher.Publish(context.Background(), []byte("not json"))
		_ = publisher.Publish(context.Background(), raw)
		return false
	}, 2*time.Second, 20*time.Millisecond)

	delivery.mu.Lock()
	assert.Equal(t, "s1", delivery.sent[0].SessionId)
	delivery.mu.Unlock()
	require.Eventually(t, func() bool { return bus.count() > 0 }, time.Second, 5*time.Millisecond)
	bus.mu.Lock()
	assert.Equal(t, events.TypeStageCompleted, bus.events[0].EventType())
	bus.mu.Unlock()

	cancel()
	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(2 * time.Second):
		t.Fatal("relay did not stop")
	}
}

func TestEventRelayWithoutBus(t *testing.T) {
	delivery := &recordingDelivery{}
	relay := &eventRelayService{delivery: delivery, logger: logger.NewNopLogger()}

	raw, _ := json.Marshal(dto.ProgressMessage{UserId: uuid.New(), SessionId: "s2"})
	msg := message.NewMessage(watermill.NewUUID(), raw)
	relay.processMessage(context.Background(), msg)

	assert.Equal(t, 1, delivery.count())
	select {
	case <-msg.Acked():
	default:
		t.Fatal("message not acked")
	}
}

func TestEventRelayForwardsWorkflowErrors(t *testing.T) {
	delivery := &recordingDelivery{}
	bus := &recordingPublisher{}
	relay := &eventRelayService{delivery: delivery, publisher: bus, logger: logger.NewNopLogger()}

	raw, _ := json.Marshal(dto.ProgressMessage{
		Type: events.TypeWorkflowError, UserId: uuid.New(), SessionId: "s3",
		Action: "filter", Error: "gateway timeout",
	})
	relay.processMessage(context.Background(), message.NewMessage(watermill.NewUUID(), raw))

	require.Equal(t, 1, bus.count())
	assert.Equal(t, events.TypeWorkflowError, bus.events[0].EventType())
	assert.Equal(t, "gateway timeout", bus.events[0].Payload()["error"])
	assert.Equal(t, "filter", delivery.sent[0].Action)
}
