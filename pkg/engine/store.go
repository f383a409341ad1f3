package engine

import (
	"sort"
	"sync"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// Store holds the current published snapshot per workflow id. It replaces
// the process-wide keyed singletons of the legacy design with an explicit
// object: created empty on first reference, removed with the workflow.
//
// Values handed out are the immutable published snapshots themselves;
// callers must clone before mutating.
type Store struct {
	mu        sync.RWMutex
	snapshots map[string]*models.Snapshot
}

// NewStore creates an empty snapshot store.
func NewStore() *Store {
	return &Store{snapshots: make(map[string]*models.Snapshot)}
}

// Get returns the published snapshot for a workflow, if one exists.
func (s *Store) Get(workflowID string) (*models.Snapshot, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[workflowID]

	return snapshot, ok
}

// GetOrCreate returns the published snapshot, creating the empty version-0
// graph on first reference.
func (s *Store) GetOrCreate(workflowID string) *models.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()

	if snapshot, ok := s.snapshots[workflowID]; ok {
		return snapshot
	}

	snapshot := models.NewSnapshot(workflowID)
	s.snapshots[workflowID] = snapshot

	return snapshot
}

// Put atomically publishes a new snapshot for its workflow.
func (s *Store) Put(snapshot *models.Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.snapshots[snapshot.WorkflowID] = snapshot
}

// Delete removes a workflow's snapshot.
func (s *Store) Delete(workflowID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.snapshots, workflowID)
}

// WorkflowIDs lists the known workflow ids in stable order.
func (s *Store) WorkflowIDs() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ids := make([]string, 0, len(s.snapshots))
	for id := range s.snapshots {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}
