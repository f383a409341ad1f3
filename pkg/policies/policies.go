// Package policies implements the pre-commit validation gates evaluated
// against a pending operation batch before any mutation occurs.
package policies

import (
	"errors"
	"fmt"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// Context supplies what a policy may inspect besides the batch itself.
// EstimatedCost is computed by the caller ahead of time (the core performs
// no I/O); nil means no estimate is available and cost gates pass.
type Context struct {
	Snapshot      *models.Snapshot
	EstimatedCost *float64
	CallerID      string
}

// Violation is a structured policy rejection. It maps to a "forbidden, not
// broken" response class: the batch was well-formed but not permitted.
type Violation struct {
	Policy  string         `json:"policy"`
	Code    string         `json:"code"`
	Message string         `json:"message"`
	Details map[string]any `json:"details,omitempty"`
}

func (v *Violation) Error() string {
	return fmt.Sprintf("policy %s rejected batch: %s", v.Policy, v.Message)
}

// IsViolation reports whether err is (or wraps) a policy violation.
func IsViolation(err error) bool {
	var target *Violation

	return errors.As(err, &target)
}

// Policy is one named, independently configured validation gate.
type Policy interface {
	Name() string
	Check(batch *models.OperationBatch, pctx Context) *Violation
}
