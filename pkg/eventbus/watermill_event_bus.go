package eventbus

import (
	"context"
	"encoding/json"

	"github.com/ThreeDotsLabs/watermill"
	"github.com/ThreeDotsLabs/watermill/message"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/events"
)

// WatermillBus routes audit events over any Watermill publisher/subscriber
// pair: the in-memory GoChannel in development and tests, Kafka in
// production.
type WatermillBus struct {
	publisher     message.Publisher
	subscriber    message.Subscriber
	subscriptions map[events.EventType]Handler
}

func NewWatermillBus(pub message.Publisher, sub message.Subscriber) *WatermillBus {
	return &WatermillBus{
		publisher:     pub,
		subscriber:    sub,
		subscriptions: make(map[events.EventType]Handler),
	}
}

func (b *WatermillBus) Publish(_ context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	msg := message.NewMessage("msg-"+watermill.NewULID(), payload)
	msg.Metadata.Set(events.WorkflowMetadataKey, key)
	msg.Metadata.Set(events.EventTypeMetadataKey, string(event.GetType()))

	return b.publisher.Publish(events.Topic, msg)
}

func (b *WatermillBus) Handle(eventType events.EventType, handler Handler) {
	b.subscriptions[eventType] = handler
}

func (b *WatermillBus) Subscribe(ctx context.Context) error {
	messages, err := b.subscriber.Subscribe(ctx, events.Topic)
	if err != nil {
		return err
	}

	go func() {
		for msg := range messages {
			eventType := events.EventType(msg.Metadata.Get(events.EventTypeMetadataKey))

			handler, exists := b.subscriptions[eventType]
			if !exists {
				msg.Ack()

				continue
			}

			var event any

			switch eventType {
			case events.BatchAppliedEvent, events.BatchRejectedEvent, events.BatchFailedEvent:
				event = &events.BatchAudit{}
			case events.GraphUndoneEvent, events.GraphRedoneEvent:
				event = &events.HistoryAudit{}
			default:
				msg.Nack()

				continue
			}

			if err := json.Unmarshal(msg.Payload, event); err != nil {
				msg.Nack()

				continue
			}

			if err := handler(ctx, event); err != nil {
				msg.Nack()

				continue
			}

			msg.Ack()
		}
	}()

	return nil
}

func (b *WatermillBus) Close() error {
	if err := b.publisher.Close(); err != nil {
		return err
	}

	return b.subscriber.Close()
}
