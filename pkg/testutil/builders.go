// Package testutil provides test data builders for graph editing tests.
package testutil

import (
	"github.com/google/uuid"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// CreateTestNode creates a node with sensible defaults that overrides can
// adjust.
func CreateTestNode(overrides ...func(*models.Node)) *models.Node {
	node := &models.Node{
		ID:          uuid.New().String(),
		Name:        "Test Node",
		Type:        "log",
		TypeVersion: 1,
		Position:    models.Position{X: 100, Y: 200},
		Parameters:  map[string]any{"message": "test", "level": "info"},
	}

	for _, override := range overrides {
		override(node)
	}

	return node
}

// WithID sets the node identity.
func WithID(id string) func(*models.Node) {
	return func(n *models.Node) {
		n.ID = id
	}
}

// WithType sets the node type tag.
func WithType(nodeType string) func(*models.Node) {
	return func(n *models.Node) {
		n.Type = nodeType
	}
}

// WithParameters sets the node parameter map.
func WithParameters(params map[string]any) func(*models.Node) {
	return func(n *models.Node) {
		n.Parameters = params
	}
}

// AddNodeOp wraps a node in an add_node operation.
func AddNodeOp(node *models.Node) models.Operation {
	return models.Operation{Kind: models.OpAddNode, Node: node}
}

// ConnectOp builds a connect operation on output port 0.
func ConnectOp(from, to string) models.Operation {
	return models.Operation{Kind: models.OpConnect, From: from, To: to}
}

// Batch wraps operations in a current-schema batch.
func Batch(ops ...models.Operation) *models.OperationBatch {
	return &models.OperationBatch{
		SchemaVersion: models.BatchSchemaVersion,
		Ops:           ops,
	}
}
