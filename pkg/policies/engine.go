package policies

import (
	"log/slog"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// Engine evaluates an ordered list of policies against a pending batch.
// Ordering is caller-supplied at construction and preserved; evaluation is
// fail-fast, so the first violated policy aborts the whole batch.
type Engine struct {
	policies []Policy
	logger   *slog.Logger
}

// NewEngine compiles configs into a runnable engine. Disabled configs are
// skipped; an unknown kind or a malformed body (including an invalid
// parameter regex) is a construction error, not a runtime fallback.
func NewEngine(logger *slog.Logger, configs []Config) (*Engine, error) {
	compiled := make([]Policy, 0, len(configs))

	for _, cfg := range configs {
		policy, err := cfg.build()
		if err != nil {
			return nil, err
		}

		if policy != nil {
			compiled = append(compiled, policy)
		}
	}

	return &Engine{
		policies: compiled,
		logger:   logger.With("module", "policy-engine"),
	}, nil
}

// PolicyNames returns the enabled policies in evaluation order.
func (e *Engine) PolicyNames() []string {
	names := make([]string, len(e.policies))
	for i, policy := range e.policies {
		names[i] = policy.Name()
	}

	return names
}

// Check runs the policies in order and returns the first violation, or nil
// when the batch passes every gate.
func (e *Engine) Check(batch *models.OperationBatch, pctx Context) *Violation {
	for _, policy := range e.policies {
		if violation := policy.Check(batch, pctx); violation != nil {
			e.logger.Debug("policy rejected batch",
				"policy", violation.Policy,
				"code", violation.Code,
				"workflow_id", pctx.Snapshot.WorkflowID)

			return violation
		}
	}

	return nil
}

// CheckAll runs every policy regardless of earlier failures and returns all
// violations in evaluation order. Used by the dry-run validate surface so a
// caller sees everything wrong with a batch at once.
func (e *Engine) CheckAll(batch *models.OperationBatch, pctx Context) []*Violation {
	var violations []*Violation

	for _, policy := range e.policies {
		if violation := policy.Check(batch, pctx); violation != nil {
			violations = append(violations, violation)
		}
	}

	return violations
}
