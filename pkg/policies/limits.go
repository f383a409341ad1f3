package policies

import (
	"fmt"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

type operationLimit struct {
	cfg OperationLimitConfig
}

func (p *operationLimit) Name() string { return string(KindOperationLimit) }

func (p *operationLimit) Check(batch *models.OperationBatch, _ Context) *Violation {
	if p.cfg.MaxOperations > 0 && len(batch.Ops) > p.cfg.MaxOperations {
		return p.violation("too_many_operations", "operations", len(batch.Ops), p.cfg.MaxOperations)
	}

	if adds := batch.CountKind(models.OpAddNode); p.cfg.MaxAddNodes > 0 && adds > p.cfg.MaxAddNodes {
		return p.violation("too_many_add_nodes", "add_node operations", adds, p.cfg.MaxAddNodes)
	}

	if conns := batch.CountKind(models.OpConnect); p.cfg.MaxConnections > 0 && conns > p.cfg.MaxConnections {
		return p.violation("too_many_connects", "connect operations", conns, p.cfg.MaxConnections)
	}

	return nil
}

func (p *operationLimit) violation(code, what string, got, limit int) *Violation {
	return &Violation{
		Policy:  p.Name(),
		Code:    code,
		Message: fmt.Sprintf("batch carries %d %s, limit is %d", got, what, limit),
		Details: map[string]any{"count": got, "limit": limit},
	}
}

type nodeTypeLimit struct {
	cfg NodeTypeLimitConfig
}

func (p *nodeTypeLimit) Name() string { return string(KindNodeTypeLimit) }

// Check compares the projected per-type count (existing nodes plus pending
// adds) against the configured limit. The boundary is inclusive.
func (p *nodeTypeLimit) Check(batch *models.OperationBatch, pctx Context) *Violation {
	projected := pctx.Snapshot.NodeTypeCounts()

	for _, op := range batch.Ops {
		if op.Kind == models.OpAddNode && op.Node != nil {
			projected[op.Node.Type]++
		}
	}

	for nodeType, limit := range p.cfg.Limits {
		if total := projected[nodeType]; total > limit {
			return &Violation{
				Policy:  p.Name(),
				Code:    "node_type_limit_exceeded",
				Message: fmt.Sprintf("workflow would hold %d nodes of type %q, limit is %d", total, nodeType, limit),
				Details: map[string]any{
					"node_type": nodeType,
					"projected": total,
					"limit":     limit,
				},
			}
		}
	}

	return nil
}

type costLimit struct {
	cfg CostLimitConfig
}

func (p *costLimit) Name() string { return string(KindCostLimit) }

func (p *costLimit) Check(_ *models.OperationBatch, pctx Context) *Violation {
	if pctx.EstimatedCost == nil {
		return nil
	}

	if *pctx.EstimatedCost > p.cfg.MaxCost {
		return &Violation{
			Policy:  p.Name(),
			Code:    "cost_limit_exceeded",
			Message: fmt.Sprintf("estimated cost %.2f exceeds limit %.2f", *pctx.EstimatedCost, p.cfg.MaxCost),
			Details: map[string]any{
				"estimated_cost": *pctx.EstimatedCost,
				"limit":          p.cfg.MaxCost,
			},
		}
	}

	return nil
}

type workflowComplexity struct {
	cfg WorkflowComplexityConfig
}

func (p *workflowComplexity) Name() string { return string(KindWorkflowComplexity) }

// Check projects the graph size after the batch: adds increment, deletes
// decrement, connects and disconnects adjust the edge count. Edges severed
// implicitly by node deletion are not subtracted, so the edge projection is
// an upper bound.
func (p *workflowComplexity) Check(batch *models.OperationBatch, pctx Context) *Violation {
	nodes := len(pctx.Snapshot.Nodes)
	connections := len(pctx.Snapshot.Connections)

	for _, op := range batch.Ops {
		switch op.Kind {
		case models.OpAddNode:
			nodes++
		case models.OpDelete:
			nodes--
		case models.OpConnect:
			connections++
		case models.OpDisconnect:
			connections--
		case models.OpSetParams, models.OpAnnotate, models.OpClearAnnotation:
		}
	}

	if p.cfg.MaxNodes > 0 && nodes > p.cfg.MaxNodes {
		return &Violation{
			Policy:  p.Name(),
			Code:    "too_many_nodes",
			Message: fmt.Sprintf("workflow would hold %d nodes, limit is %d", nodes, p.cfg.MaxNodes),
			Details: map[string]any{"projected": nodes, "limit": p.cfg.MaxNodes},
		}
	}

	if p.cfg.MaxConnections > 0 && connections > p.cfg.MaxConnections {
		return &Violation{
			Policy:  p.Name(),
			Code:    "too_many_connections",
			Message: fmt.Sprintf("workflow would hold %d connections, limit is %d", connections, p.cfg.MaxConnections),
			Details: map[string]any{"projected": connections, "limit": p.cfg.MaxConnections},
		}
	}

	return nil
}
