package models

import "time"

// Snapshot is an immutable, versioned view of one workflow's graph.
//
// Node order is insertion order and is significant for stable diffing.
// A snapshot is never mutated after publication: the applier always clones
// it, mutates the clone and swaps the clone in, so concurrent readers may
// hold a snapshot without locking.
type Snapshot struct {
	WorkflowID  string       `json:"workflow_id"`
	Nodes       []*Node      `json:"nodes"`
	Connections []Connection `json:"connections"`
	Version     int64        `json:"version"`
	UpdatedAt   time.Time    `json:"updated_at"`
}

// NewSnapshot returns the empty version-0 graph for a workflow.
func NewSnapshot(workflowID string) *Snapshot {
	return &Snapshot{
		WorkflowID:  workflowID,
		Nodes:       make([]*Node, 0),
		Connections: make([]Connection, 0),
		Version:     0,
		UpdatedAt:   time.Now().UTC(),
	}
}

// Clone returns a deep copy suitable for use as a mutable working copy.
func (s *Snapshot) Clone() *Snapshot {
	nodes := make([]*Node, len(s.Nodes))
	for i, node := range s.Nodes {
		nodes[i] = node.Clone()
	}

	connections := make([]Connection, len(s.Connections))
	copy(connections, s.Connections)

	return &Snapshot{
		WorkflowID:  s.WorkflowID,
		Nodes:       nodes,
		Connections: connections,
		Version:     s.Version,
		UpdatedAt:   s.UpdatedAt,
	}
}

// NodeByID returns the node with the given identity, if present.
func (s *Snapshot) NodeByID(id string) (*Node, bool) {
	for _, node := range s.Nodes {
		if node.ID == id {
			return node, true
		}
	}

	return nil, false
}

// HasConnection reports whether the exact (from, to, index) edge exists.
func (s *Snapshot) HasConnection(conn Connection) bool {
	for _, existing := range s.Connections {
		if existing == conn {
			return true
		}
	}

	return false
}

// NodeTypeCounts returns the number of nodes per type tag.
func (s *Snapshot) NodeTypeCounts() map[string]int {
	counts := make(map[string]int, len(s.Nodes))
	for _, node := range s.Nodes {
		counts[node.Type]++
	}

	return counts
}
