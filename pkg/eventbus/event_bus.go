// Package eventbus carries audit events from the mutation engine to
// whatever adapter consumes them. Delivery is best-effort by contract: a
// failing or slow consumer must never affect a transaction that already
// committed, so the engine treats every publisher error as log-and-drop.
package eventbus

import (
	"context"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/events"
)

type Event interface {
	GetType() events.EventType
}

// Publisher is the audit boundary seen by the engine.
type Publisher interface {
	Publish(ctx context.Context, key string, event Event) error
	Close() error
}

// Handler consumes decoded audit events on the subscribe side. The event is
// a *events.BatchAudit or *events.HistoryAudit depending on the event type
// the handler registered for.
type Handler func(ctx context.Context, event any) error

// Bus is a publisher that external adapters can also subscribe through.
type Bus interface {
	Publisher

	Handle(eventType events.EventType, handler Handler)
	Subscribe(ctx context.Context) error
}
