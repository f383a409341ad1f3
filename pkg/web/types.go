// Package web exposes the graph-mutation engine over HTTP. It is a thin
// transport: batches come in, results and problem documents go out; all
// semantics live in pkg/engine.
package web

import (
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// ApplyBatchRequest is the body for apply and validate calls. The batch
// fields sit at the top level next to the caller-supplied context.
type ApplyBatchRequest struct {
	SchemaVersion string             `json:"version"                  validate:"required"`
	Ops           []models.Operation `json:"ops"                      validate:"required,min=1"`
	EstimatedCost *float64           `json:"estimated_cost,omitempty"`
	CallerID      string             `json:"caller_id,omitempty"`
}

// Batch extracts the operation batch from the request.
func (r *ApplyBatchRequest) Batch() *models.OperationBatch {
	return &models.OperationBatch{
		SchemaVersion: r.SchemaVersion,
		Ops:           r.Ops,
	}
}

// ApplyBatchResponse reports a committed batch.
type ApplyBatchResponse struct {
	Version        int64 `json:"version"`
	AppliedOpCount int   `json:"applied_op_count"`
}

// HistoryResponse reports an undo or redo attempt. Version is always
// serialized; undoing the first batch legitimately lands on version 0.
type HistoryResponse struct {
	Success bool  `json:"success"`
	Version int64 `json:"version"`
}
