package engine

import (
	"context"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/eventbus"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/events"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// emitBatchAudit publishes one audit event for an apply attempt. The
// publisher sits outside the transaction boundary: errors and panics are
// logged and dropped, never surfaced to the caller whose batch already
// committed or was already rejected.
func (e *Engine) emitBatchAudit(
	ctx context.Context,
	workflowID string,
	batch *models.OperationBatch,
	status events.AuditStatus,
	version int64,
	cause error,
	policy string,
	callerID string,
) {
	if e.audit == nil {
		return
	}

	eventType := events.BatchAppliedEvent

	switch status {
	case events.StatusRejected:
		eventType = events.BatchRejectedEvent
	case events.StatusFailed:
		eventType = events.BatchFailedEvent
	case events.StatusSuccess:
	}

	event := events.BatchAudit{
		BaseEvent:      events.NewBaseEvent(eventType, workflowID),
		OperationCount: len(batch.Ops),
		OperationTypes: batch.Kinds(),
		DiffHash:       batch.DiffHash(),
		Status:         status,
		Version:        version,
		Policy:         policy,
		CallerID:       callerID,
	}
	if cause != nil {
		event.Error = cause.Error()
	}

	e.publish(ctx, workflowID, event)
}

func (e *Engine) emitHistoryAudit(ctx context.Context, eventType events.EventType, workflowID string, version int64) {
	if e.audit == nil {
		return
	}

	e.publish(ctx, workflowID, events.HistoryAudit{
		BaseEvent: events.NewBaseEvent(eventType, workflowID),
		Success:   true,
		Version:   version,
	})
}

func (e *Engine) publish(ctx context.Context, workflowID string, event eventbus.Event) {
	defer func() {
		if r := recover(); r != nil {
			e.logger.ErrorContext(ctx, "audit publisher panicked",
				"workflow_id", workflowID,
				"panic", r)
		}
	}()

	if err := e.audit.Publish(ctx, workflowID, event); err != nil {
		e.logger.WarnContext(ctx, "audit publish failed",
			"workflow_id", workflowID,
			"event_type", string(event.GetType()),
			"error", err)
	}
}
