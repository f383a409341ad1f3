// Package models defines the core domain models for workflow graph editing.
package models

// Position is the placement of a node on the editor canvas.
type Position struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Node is a single step in a workflow graph.
//
// ID is the canonical, immutable identity used by every operation that
// references an existing node. Name is a mutable display attribute and is
// never used for lookup.
type Node struct {
	ID          string         `json:"id"           validate:"required"`
	Name        string         `json:"name"         validate:"required,min=1"`
	Type        string         `json:"type"         validate:"required"`
	TypeVersion int            `json:"type_version"`
	Position    Position       `json:"position"`
	Parameters  map[string]any `json:"parameters,omitempty"`
	Annotation  string         `json:"annotation,omitempty"`
}

// Clone returns a deep copy of the node. Parameter values are copied
// recursively so a mutation of the copy can never leak into a published
// snapshot.
func (n *Node) Clone() *Node {
	clone := *n
	clone.Parameters = CloneParameters(n.Parameters)

	return &clone
}

// CloneParameters deep-copies a parameter map, descending into nested maps
// and slices produced by JSON decoding.
func CloneParameters(params map[string]any) map[string]any {
	if params == nil {
		return nil
	}

	clone := make(map[string]any, len(params))
	for key, value := range params {
		clone[key] = cloneValue(value)
	}

	return clone
}

func cloneValue(value any) any {
	switch typed := value.(type) {
	case map[string]any:
		return CloneParameters(typed)
	case []any:
		items := make([]any, len(typed))
		for i, item := range typed {
			items[i] = cloneValue(item)
		}

		return items
	default:
		return typed
	}
}

// Connection is a directed edge between two nodes. Index selects the source
// node's output port and defaults to 0.
type Connection struct {
	From  string `json:"from"  validate:"required"`
	To    string `json:"to"    validate:"required"`
	Index int    `json:"index"`
}
