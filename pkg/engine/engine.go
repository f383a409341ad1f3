package engine

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/applier"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/eventbus"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/events"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/history"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/policies"
)

// ApplyContext carries per-call inputs the caller computed ahead of time.
type ApplyContext struct {
	EstimatedCost *float64
	CallerID      string
}

// ApplyResult reports a committed batch.
type ApplyResult struct {
	Version        int64 `json:"version"`
	AppliedOpCount int   `json:"applied_op_count"`
}

// HistoryResult reports an undo or redo attempt. Success is false when the
// corresponding stack was empty; that is a no-op, not an error.
type HistoryResult struct {
	Success bool  `json:"success"`
	Version int64 `json:"version"`
}

// Engine is the operation-batch graph-mutation core.
type Engine struct {
	store    *Store
	policies *policies.Engine
	applier  *applier.Applier
	history  *history.Manager
	audit    eventbus.Publisher
	logger   *slog.Logger

	locksMu sync.Mutex
	locks   map[string]*sync.Mutex
}

// New assembles an engine. The audit publisher may be nil, in which case no
// events are emitted.
func New(
	logger *slog.Logger,
	store *Store,
	policyEngine *policies.Engine,
	historyManager *history.Manager,
	audit eventbus.Publisher,
) *Engine {
	return &Engine{
		store:    store,
		policies: policyEngine,
		applier:  applier.New(logger),
		history:  historyManager,
		audit:    audit,
		logger:   logger.With("module", "engine"),
		locks:    make(map[string]*sync.Mutex),
	}
}

// lockFor returns the serialization mutex for a workflow, creating it on
// first use. The lock outlives DeleteWorkflow so a concurrent late call
// still serializes correctly against the teardown.
func (e *Engine) lockFor(workflowID string) *sync.Mutex {
	e.locksMu.Lock()
	defer e.locksMu.Unlock()

	lock, ok := e.locks[workflowID]
	if !ok {
		lock = &sync.Mutex{}
		e.locks[workflowID] = lock
	}

	return lock
}

// Apply validates the batch against the policy gates and commits it
// atomically. The returned error is a *policies.Violation, a
// *applier.ReferentialError, a malformed-batch error, or an
// *InternalError; in every error case the published snapshot is untouched.
func (e *Engine) Apply(ctx context.Context, workflowID string, batch *models.OperationBatch, actx ApplyContext) (*ApplyResult, error) {
	lock := e.lockFor(workflowID)
	lock.Lock()
	defer lock.Unlock()

	snapshot := e.store.GetOrCreate(workflowID)

	if err := batch.Validate(); err != nil {
		e.emitBatchAudit(ctx, workflowID, batch, events.StatusFailed, 0, err, "", actx.CallerID)

		return nil, err
	}

	pctx := policies.Context{
		Snapshot:      snapshot,
		EstimatedCost: actx.EstimatedCost,
		CallerID:      actx.CallerID,
	}

	if violation := e.policies.Check(batch, pctx); violation != nil {
		e.emitBatchAudit(ctx, workflowID, batch, events.StatusRejected, 0, violation, violation.Policy, actx.CallerID)

		return nil, violation
	}

	applied, inverse, err := e.applier.Apply(snapshot, batch)
	if err != nil {
		e.emitBatchAudit(ctx, workflowID, batch, events.StatusFailed, 0, err, "", actx.CallerID)

		return nil, err
	}

	if applied.Version != snapshot.Version+1 {
		err := internalf("apply", workflowID, "version moved %d -> %d, want +1", snapshot.Version, applied.Version)
		e.emitBatchAudit(ctx, workflowID, batch, events.StatusFailed, 0, err, "", actx.CallerID)

		return nil, err
	}

	e.store.Put(applied)
	e.history.Record(workflowID, &models.HistoryEntry{
		Batch:       batch,
		Inverse:     inverse,
		VersionFrom: snapshot.Version,
		VersionTo:   applied.Version,
		AppliedAt:   time.Now().UTC(),
	})

	e.emitBatchAudit(ctx, workflowID, batch, events.StatusSuccess, applied.Version, nil, "", actx.CallerID)
	e.logger.InfoContext(ctx, "batch applied",
		"workflow_id", workflowID,
		"version", applied.Version,
		"operations", len(batch.Ops))

	return &ApplyResult{
		Version:        applied.Version,
		AppliedOpCount: len(batch.Ops),
	}, nil
}

// ValidationIssue is one problem found by Validate.
type ValidationIssue struct {
	Source  string         `json:"source"` // "batch", "policy" or "reference"
	Message string         `json:"message"`
	Policy  string         `json:"policy,omitempty"`
	Code    string         `json:"code,omitempty"`
	Details map[string]any `json:"details,omitempty"`
}

// ValidationResult is the outcome of a dry run.
type ValidationResult struct {
	Valid  bool              `json:"valid"`
	Errors []ValidationIssue `json:"errors"`
}

// Validate runs the same checks as Apply without mutating anything, and
// unlike Apply it collects every finding instead of stopping at the first.
// An unknown workflow id validates against the empty graph without creating
// state.
func (e *Engine) Validate(ctx context.Context, workflowID string, batch *models.OperationBatch, actx ApplyContext) *ValidationResult {
	result := &ValidationResult{Valid: true, Errors: []ValidationIssue{}}

	snapshot, ok := e.store.Get(workflowID)
	if !ok {
		snapshot = models.NewSnapshot(workflowID)
	}

	if err := batch.Validate(); err != nil {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationIssue{Source: "batch", Message: err.Error()})

		return result
	}

	pctx := policies.Context{
		Snapshot:      snapshot,
		EstimatedCost: actx.EstimatedCost,
		CallerID:      actx.CallerID,
	}

	for _, violation := range e.policies.CheckAll(batch, pctx) {
		result.Valid = false
		result.Errors = append(result.Errors, ValidationIssue{
			Source:  "policy",
			Message: violation.Message,
			Policy:  violation.Policy,
			Code:    violation.Code,
			Details: violation.Details,
		})
	}

	// Dry-run the applier against the current snapshot; the produced
	// snapshot is discarded.
	if _, _, err := e.applier.Apply(snapshot, batch); err != nil {
		issue := ValidationIssue{Source: "reference", Message: err.Error()}

		var refErr *applier.ReferentialError
		if errors.As(err, &refErr) {
			issue.Details = map[string]any{
				"op_index":  refErr.OpIndex,
				"op":        string(refErr.Kind),
				"reference": refErr.Reference,
			}
		}

		result.Valid = false
		result.Errors = append(result.Errors, issue)
	}

	return result
}

// Undo pops the most recent history entry and replays its inverse batch
// through the applier, bypassing the policy gates: undo only restores a
// state that was valid when it was applied. Returns Success=false on an
// empty stack.
func (e *Engine) Undo(ctx context.Context, workflowID string) (*HistoryResult, error) {
	lock := e.lockFor(workflowID)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := e.history.PopUndo(workflowID)
	if !ok {
		return &HistoryResult{Success: false}, nil
	}

	snapshot, ok := e.store.Get(workflowID)
	if !ok {
		e.history.PushUndo(workflowID, entry)

		return nil, internalf("undo", workflowID, "history exists but snapshot does not")
	}

	if snapshot.Version != entry.VersionTo {
		e.history.PushUndo(workflowID, entry)

		return nil, internalf("undo", workflowID, "snapshot at version %d, history entry expects %d", snapshot.Version, entry.VersionTo)
	}

	restored, _, err := e.applier.Apply(snapshot, entry.Inverse)
	if err != nil {
		e.history.PushUndo(workflowID, entry)

		return nil, internalf("undo", workflowID, "inverse batch failed to apply: %v", err)
	}

	// The applier bumps the version; undo moves it back instead.
	restored.Version = entry.VersionFrom

	e.store.Put(restored)
	e.history.PushRedo(workflowID, entry)
	e.emitHistoryAudit(ctx, events.GraphUndoneEvent, workflowID, restored.Version)

	return &HistoryResult{Success: true, Version: restored.Version}, nil
}

// Redo re-applies the most recently undone batch. Policies are not re-run:
// the batch passed them when it was first applied, and redo restores exactly
// the state undo left behind. Returns Success=false on an empty stack.
func (e *Engine) Redo(ctx context.Context, workflowID string) (*HistoryResult, error) {
	lock := e.lockFor(workflowID)
	lock.Lock()
	defer lock.Unlock()

	entry, ok := e.history.PopRedo(workflowID)
	if !ok {
		return &HistoryResult{Success: false}, nil
	}

	snapshot, ok := e.store.Get(workflowID)
	if !ok {
		e.history.PushRedo(workflowID, entry)

		return nil, internalf("redo", workflowID, "history exists but snapshot does not")
	}

	if snapshot.Version != entry.VersionFrom {
		e.history.PushRedo(workflowID, entry)

		return nil, internalf("redo", workflowID, "snapshot at version %d, history entry expects %d", snapshot.Version, entry.VersionFrom)
	}

	reapplied, _, err := e.applier.Apply(snapshot, entry.Batch)
	if err != nil {
		e.history.PushRedo(workflowID, entry)

		return nil, internalf("redo", workflowID, "recorded batch failed to re-apply: %v", err)
	}

	reapplied.Version = entry.VersionTo

	e.store.Put(reapplied)
	// PushUndo, not Record: the remaining redo entries stay replayable.
	e.history.PushUndo(workflowID, entry)
	e.emitHistoryAudit(ctx, events.GraphRedoneEvent, workflowID, reapplied.Version)

	return &HistoryResult{Success: true, Version: reapplied.Version}, nil
}

// Snapshot returns the current published snapshot for a workflow.
func (e *Engine) Snapshot(workflowID string) (*models.Snapshot, error) {
	snapshot, ok := e.store.Get(workflowID)
	if !ok {
		return nil, ErrWorkflowNotFound
	}

	return snapshot, nil
}

// HistoryDepths reports the undo and redo stack sizes for a workflow.
func (e *Engine) HistoryDepths(workflowID string) (int, int) {
	return e.history.Depths(workflowID)
}

// DeleteWorkflow tears down the snapshot and history for a workflow id.
func (e *Engine) DeleteWorkflow(workflowID string) {
	lock := e.lockFor(workflowID)
	lock.Lock()
	defer lock.Unlock()

	e.store.Delete(workflowID)
	e.history.Drop(workflowID)
}
