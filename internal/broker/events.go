package broker

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"billiard-pos/internal/models"

	"github.com/segmentio/kafka-go"
)

// EventPublisher handles publishing domain events to the reporting stream
type EventPublisher struct {
	producer *Producer
}

// NewEventPublisher creates a new event publisher
func NewEventPublisher(producer *Producer) *EventPublisher {
	return &EventPublisher{producer: producer}
}

// PublishSaleSettled publishes a SaleSettled event
func (ep *EventPublisher) PublishSaleSettled(ctx context.Context, event *models.SaleSettledEvent) error {
	key := fmt.Sprintf("sale-%d", event.SaleID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// PublishTillClosed publishes a TillClosed event
func (ep *EventPublisher) PublishTillClosed(ctx context.Context, event *models.TillClosedEvent) error {
	key := fmt.Sprintf("till-close-%d", event.CloseID)
	return ep.producer.PublishEvent(ctx, key, event)
}

// EventHandler routes incoming reporting-stream events
type EventHandler struct {
	onTillClosed func(context.Context, *models.TillClosedEvent) error
}

// NewEventHandler creates a new event handler
func NewEventHandler() *EventHandler {
	return &EventHandler{}
}

// OnTillClosed registers a handler for TillClosed events
func (eh *EventHandler) OnTillClosed(handler func(context.Context, *models.TillClosedEvent) error) {
	eh.onTillClosed = handler
}

// HandleMessage routes messages to appropriate handlers
func (eh *EventHandler) HandleMessage(ctx context.Context, msg kafka.Message) error {
	var baseEvent models.BaseEvent
	if err := json.Unmarshal(msg.Value, &baseEvent); err != nil {
		return fmt.Errorf("failed to unmarshal base event: %w", err)
	}

	switch baseEvent.EventType {
	case models.EventTypeTillClosed:
		if eh.onTillClosed != nil {
			var event models.TillClosedEvent
			if err := json.Unmarshal(msg.Value, &event); err != nil {
				return fmt.Errorf("failed to unmarshal TillClosed event: %w", err)
			}
			return eh.onTillClosed(ctx, &event)
		}

	case models.EventTypeSaleSettled:
		// Sales share the reporting topic; only till closes drive an
		// outbound report.

	default:
		log.Printf("Unhandled event type: %s", baseEvent.EventType)
	}

	return nil
}
