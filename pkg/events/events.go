// Package events defines the audit event types emitted after every batch
// apply attempt and every undo/redo.
package events

import (
	"time"

	"github.com/google/uuid"
)

type EventType string

// Topic carries every audit event on the bus.
const Topic = "graph.audit"

const EventTypeMetadataKey = "event_type"
const WorkflowMetadataKey = "workflow_id"

const (
	BatchAppliedEvent  EventType = "batch.applied"
	BatchRejectedEvent EventType = "batch.rejected"
	BatchFailedEvent   EventType = "batch.failed"
	GraphUndoneEvent   EventType = "graph.undone"
	GraphRedoneEvent   EventType = "graph.redone"
)

// AuditStatus classifies the outcome of an apply attempt.
type AuditStatus string

const (
	StatusSuccess  AuditStatus = "success"  // Batch committed
	StatusFailed   AuditStatus = "failed"   // Referential or internal failure, zero mutation
	StatusRejected AuditStatus = "rejected" // Policy violation, zero mutation
)

type BaseEvent struct {
	ID         string    `json:"id"`
	Type       EventType `json:"type"`
	Timestamp  time.Time `json:"timestamp"`
	WorkflowID string    `json:"workflow_id"`
}

func NewBaseEvent(eventType EventType, workflowID string) BaseEvent {
	return BaseEvent{
		ID:         uuid.New().String(),
		Type:       eventType,
		Timestamp:  time.Now().UTC(),
		WorkflowID: workflowID,
	}
}

// BatchAudit is emitted once per apply attempt, whatever the outcome. It
// carries a content hash of the batch rather than the batch itself, so the
// audit channel never becomes a second source of graph state.
type BatchAudit struct {
	BaseEvent

	OperationCount int         `json:"operation_count"`
	OperationTypes []string    `json:"operation_types"`
	DiffHash       string      `json:"diff_hash"`
	Status         AuditStatus `json:"status"`
	Error          string      `json:"error,omitempty"`
	Policy         string      `json:"policy,omitempty"`
	Version        int64       `json:"version,omitempty"`
	CallerID       string      `json:"caller_id,omitempty"`
}

func (e BatchAudit) GetType() EventType {
	return e.Type
}

// HistoryAudit is emitted after an undo or redo attempt.
type HistoryAudit struct {
	BaseEvent

	Success bool  `json:"success"`
	Version int64 `json:"version"`
}

func (e HistoryAudit) GetType() EventType {
	return e.Type
}
