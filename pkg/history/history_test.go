package history

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

func entryAt(version int64) *models.HistoryEntry {
	return &models.HistoryEntry{
		Batch: &models.OperationBatch{
			SchemaVersion: models.BatchSchemaVersion,
			Ops:           []models.Operation{{Kind: models.OpDelete, NodeID: fmt.Sprintf("n-%d", version)}},
		},
		Inverse: &models.OperationBatch{
			SchemaVersion: models.BatchSchemaVersion,
			Ops:           []models.Operation{{Kind: models.OpDelete, NodeID: fmt.Sprintf("n-%d", version)}},
		},
		VersionFrom: version - 1,
		VersionTo:   version,
		AppliedAt:   time.Now().UTC(),
	}
}

func TestManager_RecordAndPop(t *testing.T) {
	t.Parallel()

	m := NewManager(10)
	m.Record("wf-1", entryAt(1))
	m.Record("wf-1", entryAt(2))

	undoDepth, redoDepth := m.Depths("wf-1")
	assert.Equal(t, 2, undoDepth)
	assert.Equal(t, 0, redoDepth)

	entry, ok := m.PopUndo("wf-1")
	require.True(t, ok)
	assert.Equal(t, int64(2), entry.VersionTo)

	entry, ok = m.PopUndo("wf-1")
	require.True(t, ok)
	assert.Equal(t, int64(1), entry.VersionTo)

	_, ok = m.PopUndo("wf-1")
	assert.False(t, ok)
}

func TestManager_EmptyStacksAreNoOps(t *testing.T) {
	t.Parallel()

	m := NewManager(10)

	_, ok := m.PopUndo("never-seen")
	assert.False(t, ok)

	_, ok = m.PopRedo("never-seen")
	assert.False(t, ok)
}

func TestManager_RecordClearsRedo(t *testing.T) {
	t.Parallel()

	m := NewManager(10)
	m.Record("wf-1", entryAt(1))

	undone, ok := m.PopUndo("wf-1")
	require.True(t, ok)
	m.PushRedo("wf-1", undone)

	_, redoDepth := m.Depths("wf-1")
	require.Equal(t, 1, redoDepth)

	// A fresh batch after the undo invalidates the redo branch.
	m.Record("wf-1", entryAt(1))

	_, redoDepth = m.Depths("wf-1")
	assert.Equal(t, 0, redoDepth)
}

func TestManager_PushUndoKeepsRedo(t *testing.T) {
	t.Parallel()

	m := NewManager(10)
	m.PushRedo("wf-1", entryAt(2))

	// The redo path re-records without touching the remaining redo entries.
	m.PushUndo("wf-1", entryAt(1))

	undoDepth, redoDepth := m.Depths("wf-1")
	assert.Equal(t, 1, undoDepth)
	assert.Equal(t, 1, redoDepth)
}

func TestManager_OverflowEvictsOldestSilently(t *testing.T) {
	t.Parallel()

	m := NewManager(3)
	for version := int64(1); version <= 5; version++ {
		m.Record("wf-1", entryAt(version))
	}

	undoDepth, _ := m.Depths("wf-1")
	assert.Equal(t, 3, undoDepth)

	// Newest survives, the two oldest were evicted.
	entry, ok := m.PopUndo("wf-1")
	require.True(t, ok)
	assert.Equal(t, int64(5), entry.VersionTo)

	m.PopUndo("wf-1")
	entry, ok = m.PopUndo("wf-1")
	require.True(t, ok)
	assert.Equal(t, int64(3), entry.VersionTo)

	_, ok = m.PopUndo("wf-1")
	assert.False(t, ok)
}

func TestManager_WorkflowsAreIsolated(t *testing.T) {
	t.Parallel()

	m := NewManager(10)
	m.Record("wf-1", entryAt(1))
	m.Record("wf-2", entryAt(1))

	m.Drop("wf-1")

	_, ok := m.PopUndo("wf-1")
	assert.False(t, ok)

	_, ok = m.PopUndo("wf-2")
	assert.True(t, ok)
}

func TestManager_DefaultDepth(t *testing.T) {
	t.Parallel()

	m := NewManager(0)
	for version := int64(1); version <= DefaultDepth+10; version++ {
		m.Record("wf-1", entryAt(version))
	}

	undoDepth, _ := m.Depths("wf-1")
	assert.Equal(t, DefaultDepth, undoDepth)
}
