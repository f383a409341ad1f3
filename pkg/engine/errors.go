// Package engine coordinates policy checks, batch application, history and
// audit emission for workflow graph editing. All mutation paths for a given
// workflow are serialized; snapshot reads are lock-free on immutable values.
package engine

import (
	"errors"
	"fmt"
)

// ErrWorkflowNotFound is returned by read paths for an unknown workflow id.
// Mutation paths never return it: applying to an unknown id creates the
// empty version-0 graph instead.
var ErrWorkflowNotFound = errors.New("workflow not found")

// InternalError marks invariant breakage inside the engine: a version
// counter out of step with history, or an inverse batch that failed to
// apply. These are not user-correctable and must propagate distinctly from
// referential and policy failures.
type InternalError struct {
	Op         string
	WorkflowID string
	Err        error
}

func (e *InternalError) Error() string {
	return fmt.Sprintf("internal invariant failure in %s for workflow %s: %v", e.Op, e.WorkflowID, e.Err)
}

func (e *InternalError) Unwrap() error {
	return e.Err
}

// IsInternal reports whether err is (or wraps) an engine invariant failure.
func IsInternal(err error) bool {
	var target *InternalError

	return errors.As(err, &target)
}

func internalf(op, workflowID, format string, args ...any) *InternalError {
	return &InternalError{
		Op:         op,
		WorkflowID: workflowID,
		Err:        fmt.Errorf(format, args...),
	}
}
