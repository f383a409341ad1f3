// Package applier applies operation batches to workflow graph snapshots and
// computes the inverse batch that restores the pre-apply state.
package applier

import (
	"errors"
	"fmt"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// ReferentialError reports a batch operation that referenced a node or
// connection that does not exist at the point the operation is processed.
// It always means the whole batch was rejected with zero mutation; the
// caller can correct the batch and retry.
type ReferentialError struct {
	OpIndex   int           `json:"op_index"`  // Position of the failing operation in the batch
	Kind      models.OpKind `json:"op"`        // Kind of the failing operation
	Reference string        `json:"reference"` // Node ID or edge the operation referenced
	Reason    string        `json:"reason"`    // What was wrong with the reference
}

func (e *ReferentialError) Error() string {
	return fmt.Sprintf("operation %d (%s) references %q: %s", e.OpIndex, e.Kind, e.Reference, e.Reason)
}

func newReferentialError(index int, op models.Operation, reference, reason string) *ReferentialError {
	return &ReferentialError{
		OpIndex:   index,
		Kind:      op.Kind,
		Reference: reference,
		Reason:    reason,
	}
}

// IsReferential reports whether err is (or wraps) a referential failure.
func IsReferential(err error) bool {
	var target *ReferentialError

	return errors.As(err, &target)
}
