package applier

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// Applier turns an approved operation batch into a new snapshot.
//
// Apply never mutates its input: it works on a deep clone and only returns
// the clone once every operation has resolved and succeeded, so a failing
// batch leaves the published snapshot untouched.
type Applier struct {
	logger *slog.Logger
}

// New creates an Applier.
func New(logger *slog.Logger) *Applier {
	return &Applier{logger: logger.With("module", "applier")}
}

// Apply processes the batch strictly in order against a working copy of
// snapshot. On success it returns the new snapshot (version bumped by one)
// and the inverse batch that, applied to the new snapshot, restores the old
// one. On failure it returns a *ReferentialError (or a malformed-batch
// error) and both results are nil.
func (a *Applier) Apply(snapshot *models.Snapshot, batch *models.OperationBatch) (*models.Snapshot, *models.OperationBatch, error) {
	if err := batch.Validate(); err != nil {
		return nil, nil, err
	}

	working := snapshot.Clone()

	// Inverse operation groups are prepended so the final inverse batch
	// undoes operations in reverse application order.
	inverseOps := make([]models.Operation, 0, len(batch.Ops))

	for i, op := range batch.Ops {
		group, err := a.applyOp(working, i, op)
		if err != nil {
			a.logger.Debug("batch rejected",
				"workflow_id", snapshot.WorkflowID,
				"op_index", i,
				"op", string(op.Kind),
				"error", err)

			return nil, nil, err
		}

		inverseOps = append(group, inverseOps...)
	}

	working.Version = snapshot.Version + 1
	working.UpdatedAt = time.Now().UTC()

	inverse := &models.OperationBatch{
		SchemaVersion: models.BatchSchemaVersion,
		Ops:           inverseOps,
	}

	return working, inverse, nil
}

// applyOp mutates the working copy and returns the operations that undo the
// mutation, ordered as they must run during undo.
func (a *Applier) applyOp(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	switch op.Kind {
	case models.OpAddNode:
		return a.applyAddNode(working, index, op)
	case models.OpSetParams:
		return a.applySetParams(working, index, op)
	case models.OpConnect:
		return a.applyConnect(working, index, op)
	case models.OpDisconnect:
		return a.applyDisconnect(working, index, op)
	case models.OpDelete:
		return a.applyDelete(working, index, op)
	case models.OpAnnotate:
		return a.applyAnnotate(working, index, op)
	case models.OpClearAnnotation:
		return a.applyClearAnnotation(working, index, op)
	default:
		// Validate catches unknown kinds before we get here.
		return nil, fmt.Errorf("%w: %q", models.ErrUnknownOpKind, op.Kind)
	}
}

func (a *Applier) applyAddNode(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	if _, exists := working.NodeByID(op.Node.ID); exists {
		return nil, newReferentialError(index, op, op.Node.ID, "node already exists")
	}

	working.Nodes = insertNode(working.Nodes, op.Node.Clone(), op.InsertAt)

	return []models.Operation{
		{Kind: models.OpDelete, NodeID: op.Node.ID},
	}, nil
}

func (a *Applier) applySetParams(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	node, exists := working.NodeByID(op.NodeID)
	if !exists {
		return nil, newReferentialError(index, op, op.NodeID, "node not found")
	}

	prior := node.Parameters
	if prior == nil {
		prior = map[string]any{}
	}

	inverse := models.Operation{
		Kind:       models.OpSetParams,
		NodeID:     op.NodeID,
		Parameters: models.CloneParameters(prior),
	}

	node.Parameters = models.CloneParameters(op.Parameters)

	return []models.Operation{inverse}, nil
}

func (a *Applier) applyConnect(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	conn := op.Connection()

	if conn.From == conn.To {
		return nil, newReferentialError(index, op, conn.From, "connection cannot target its own source")
	}

	if _, exists := working.NodeByID(conn.From); !exists {
		return nil, newReferentialError(index, op, conn.From, "source node not found")
	}

	if _, exists := working.NodeByID(conn.To); !exists {
		return nil, newReferentialError(index, op, conn.To, "target node not found")
	}

	if working.HasConnection(conn) {
		return nil, newReferentialError(index, op, edgeRef(conn), "connection already exists")
	}

	working.Connections = append(working.Connections, conn)

	return []models.Operation{
		{Kind: models.OpDisconnect, From: conn.From, To: conn.To, Index: conn.Index},
	}, nil
}

func (a *Applier) applyDisconnect(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	conn := op.Connection()

	if !working.HasConnection(conn) {
		return nil, newReferentialError(index, op, edgeRef(conn), "connection not found")
	}

	working.Connections = removeConnection(working.Connections, conn)

	return []models.Operation{
		{Kind: models.OpConnect, From: conn.From, To: conn.To, Index: conn.Index},
	}, nil
}

func (a *Applier) applyDelete(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	node, exists := working.NodeByID(op.NodeID)
	if !exists {
		return nil, newReferentialError(index, op, op.NodeID, "node not found")
	}

	captured := node.Clone()
	position := nodeIndex(working.Nodes, op.NodeID)

	// Deleting a node also severs every edge touching it; the inverse must
	// restore the node before reconnecting those edges.
	severed := make([]models.Connection, 0)
	kept := make([]models.Connection, 0, len(working.Connections))

	for _, conn := range working.Connections {
		if conn.From == op.NodeID || conn.To == op.NodeID {
			severed = append(severed, conn)
		} else {
			kept = append(kept, conn)
		}
	}

	working.Connections = kept
	working.Nodes = removeNode(working.Nodes, op.NodeID)

	// The inverse restores the node at its original position; node order is
	// part of the snapshot's identity.
	inverse := make([]models.Operation, 0, len(severed)+1)
	inverse = append(inverse, models.Operation{Kind: models.OpAddNode, Node: captured, InsertAt: &position})

	for _, conn := range severed {
		inverse = append(inverse, models.Operation{
			Kind:  models.OpConnect,
			From:  conn.From,
			To:    conn.To,
			Index: conn.Index,
		})
	}

	return inverse, nil
}

func (a *Applier) applyAnnotate(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	node, exists := working.NodeByID(op.NodeID)
	if !exists {
		return nil, newReferentialError(index, op, op.NodeID, "node not found")
	}

	var inverse models.Operation
	if node.Annotation == "" {
		inverse = models.Operation{Kind: models.OpClearAnnotation, NodeID: op.NodeID}
	} else {
		inverse = models.Operation{Kind: models.OpAnnotate, NodeID: op.NodeID, Text: node.Annotation}
	}

	node.Annotation = op.Text

	return []models.Operation{inverse}, nil
}

func (a *Applier) applyClearAnnotation(working *models.Snapshot, index int, op models.Operation) ([]models.Operation, error) {
	node, exists := working.NodeByID(op.NodeID)
	if !exists {
		return nil, newReferentialError(index, op, op.NodeID, "node not found")
	}

	var inverse models.Operation
	if node.Annotation == "" {
		inverse = models.Operation{Kind: models.OpClearAnnotation, NodeID: op.NodeID}
	} else {
		inverse = models.Operation{Kind: models.OpAnnotate, NodeID: op.NodeID, Text: node.Annotation}
	}

	node.Annotation = ""

	return []models.Operation{inverse}, nil
}

// insertNode places node at the requested position, appending when the
// position is absent or past the end.
func insertNode(nodes []*models.Node, node *models.Node, at *int) []*models.Node {
	if at == nil || *at >= len(nodes) {
		return append(nodes, node)
	}

	nodes = append(nodes, nil)
	copy(nodes[*at+1:], nodes[*at:])
	nodes[*at] = node

	return nodes
}

func nodeIndex(nodes []*models.Node, id string) int {
	for i, node := range nodes {
		if node.ID == id {
			return i
		}
	}

	return -1
}

func removeNode(nodes []*models.Node, id string) []*models.Node {
	kept := make([]*models.Node, 0, len(nodes))

	for _, node := range nodes {
		if node.ID != id {
			kept = append(kept, node)
		}
	}

	return kept
}

func removeConnection(connections []models.Connection, target models.Connection) []models.Connection {
	kept := make([]models.Connection, 0, len(connections))

	for _, conn := range connections {
		if conn != target {
			kept = append(kept, conn)
		}
	}

	return kept
}

func edgeRef(conn models.Connection) string {
	return fmt.Sprintf("%s->%s[%d]", conn.From, conn.To, conn.Index)
}
