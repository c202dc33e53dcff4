package service

import (
	"context"
	"encoding/json"

	"literature-search-be/internal/dto"
	"literature-search-be/internal/pkg/logger"
	"literature-search-be/pkg/events"

	"github.com/ThreeDotsLabs/watermill/message"
	"github.com/google/uuid"
)

const relayModule = "EventRelay"

// ProgressDelivery pushes a message to a user's open connections.
type ProgressDelivery interface {
	Send(userID uuid.UUID, eventType string, data interface{})
}

// EventPublisher forwards domain events off-process.
type EventPublisher interface {
	Publish(ctx context.Context, event events.Event) error
}

type IEventRelayService interface {
	// Consume blocks until ctx is done.
	Consume(ctx context.Context) error
}

type eventRelayService struct {
	subscriber message.Subscriber
	topicName  string
	delivery   ProgressDelivery
	publisher  EventPublisher
	logger     logger.ILogger
}

// NewEventRelayService relays stage events to websockets and, when publisher
// is not nil, to the event bus.
func NewEventRelayService(
	subscriber message.Subscriber,
	topicName string,
	delivery ProgressDelivery,
	publisher EventPublisher,
	logger logger.ILogger,
) IEventRelayService {
	return &eventRelayService{
		subscriber: subscriber,
		topicName:  topicName,
		delivery:   delivery,
		publisher:  publisher,
		logger:     logger,
	}
}

func (r *eventRelayService) Consume(ctx context.Context) error {
	messages, err := r.subscriber.Subscribe(ctx, r.topicName)
	if err != nil {
		return err
	}

	r.logger.Info(relayModule, "Relaying stage events", map[string]interface{}{"topic": r.topicName})
	for msg := range messages {
		r.processMessage(ctx, msg)
	}
	return nil
}

func (r *eventRelayService) processMessage(ctx context.Context, msg *message.Message) {
	var payload dto.ProgressMessage
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		r.logger.Error(relayModule, "Failed to unmarshal message", map[string]interface{}{"error": err.Error()})
		msg.Ack() // Ack invalid messages to prevent infinite retry
		return
	}

	if payload.Type == "" {
		payload.Type = events.TypeStageCompleted
	}
	r.delivery.Send(payload.UserId, payload.Type, payload)

	if r.publisher != nil {
		if err := r.publisher.Publish(ctx, toEvent(payload)); err != nil {
			// Progress already reached the browser; the bus copy is best effort.
			r.logger.Warn(relayModule, "Failed to forward event", map[string]interface{}{
				"session_id": payload.SessionId, "error": err.Error(),
			})
		}
	}

	msg.Ack()
}

func toEvent(m dto.ProgressMessage) events.Event {
	if m.Type == events.TypeWorkflowError {
		return events.WorkflowError(m.UserId.String(), m.WorkflowId.String(), m.SessionId, m.Action, m.Error, m.OccurredAt)
	}
	return events.StageCompleted(m.UserId.String(), m.WorkflowId.String(), m.SessionId, m.Action, m.Stage, m.OccurredAt)
}
