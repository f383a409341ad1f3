package eventbus

import (
	"context"
	"encoding/json"
	"log/slog"
)

// SlogPublisher writes audit events to the structured log instead of a bus.
// Used when a deployment has no audit backend configured; the contract is
// the same, the events just end up in the log stream.
type SlogPublisher struct {
	logger *slog.Logger
}

func NewSlogPublisher(logger *slog.Logger) *SlogPublisher {
	return &SlogPublisher{logger: logger.With("module", "audit")}
}

func (p *SlogPublisher) Publish(ctx context.Context, key string, event Event) error {
	payload, err := json.Marshal(event)
	if err != nil {
		return err
	}

	p.logger.InfoContext(ctx, "audit event",
		"workflow_id", key,
		"event_type", string(event.GetType()),
		"payload", string(payload))

	return nil
}

func (p *SlogPublisher) Close() error {
	return nil
}
