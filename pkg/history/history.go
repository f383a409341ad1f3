// Package history keeps per-workflow bounded undo and redo stacks of
// applied operation batches.
package history

import (
	"sync"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// DefaultDepth is the stack depth used when a manager is created with a
// non-positive depth.
const DefaultDepth = 50

// Manager owns the undo/redo stacks for every workflow. Stacks are bounded:
// when a stack exceeds its depth the oldest entry is evicted silently, as a
// capacity trade-off rather than an error the caller sees.
//
// The engine serializes apply/undo/redo per workflow, but distinct
// workflows share the maps below, so the manager carries its own lock.
type Manager struct {
	mu    sync.Mutex
	depth int
	undo  map[string][]*models.HistoryEntry
	redo  map[string][]*models.HistoryEntry
}

// NewManager creates a manager with the given per-workflow stack depth.
func NewManager(depth int) *Manager {
	if depth <= 0 {
		depth = DefaultDepth
	}

	return &Manager{
		depth: depth,
		undo:  make(map[string][]*models.HistoryEntry),
		redo:  make(map[string][]*models.HistoryEntry),
	}
}

// Record stores a freshly applied batch on the undo stack and clears the
// redo stack: once the caller edits past an undone state, the undone future
// is unreachable, matching editor convention.
func (m *Manager) Record(workflowID string, entry *models.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo[workflowID] = push(m.undo[workflowID], entry, m.depth)
	delete(m.redo, workflowID)
}

// PopUndo removes and returns the most recent undo entry.
func (m *Manager) PopUndo(workflowID string) (*models.HistoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, rest, ok := pop(m.undo[workflowID])
	if ok {
		m.undo[workflowID] = rest
	}

	return entry, ok
}

// PopRedo removes and returns the most recent redo entry.
func (m *Manager) PopRedo(workflowID string) (*models.HistoryEntry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, rest, ok := pop(m.redo[workflowID])
	if ok {
		m.redo[workflowID] = rest
	}

	return entry, ok
}

// PushUndo returns an entry to the undo stack without clearing redo; the
// redo path uses it so remaining redo entries stay replayable.
func (m *Manager) PushUndo(workflowID string, entry *models.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.undo[workflowID] = push(m.undo[workflowID], entry, m.depth)
}

// PushRedo stores an undone entry for redo.
func (m *Manager) PushRedo(workflowID string, entry *models.HistoryEntry) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.redo[workflowID] = push(m.redo[workflowID], entry, m.depth)
}

// Depths reports the current undo and redo stack sizes.
func (m *Manager) Depths(workflowID string) (int, int) {
	m.mu.Lock()
	defer m.mu.Unlock()

	return len(m.undo[workflowID]), len(m.redo[workflowID])
}

// Drop discards all history for a workflow. Called on workflow teardown.
func (m *Manager) Drop(workflowID string) {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.undo, workflowID)
	delete(m.redo, workflowID)
}

func push(stack []*models.HistoryEntry, entry *models.HistoryEntry, depth int) []*models.HistoryEntry {
	stack = append(stack, entry)
	if len(stack) > depth {
		stack = stack[len(stack)-depth:]
	}

	return stack
}

func pop(stack []*models.HistoryEntry) (*models.HistoryEntry, []*models.HistoryEntry, bool) {
	if len(stack) == 0 {
		return nil, nil, false
	}

	last := len(stack) - 1

	return stack[last], stack[:last], true
}
