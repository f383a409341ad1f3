package policies

import (
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

func mustEngine(t *testing.T, configs []Config) *Engine {
	t.Helper()

	engine, err := NewEngine(slog.Default(), configs)
	require.NoError(t, err)

	return engine
}

func addNodeOp(id, nodeType string, params map[string]any) models.Operation {
	return models.Operation{
		Kind: models.OpAddNode,
		Node: &models.Node{ID: id, Name: id, Type: nodeType, Parameters: params},
	}
}

func testBatch(ops ...models.Operation) *models.OperationBatch {
	return &models.OperationBatch{SchemaVersion: models.BatchSchemaVersion, Ops: ops}
}

func snapshotWithTypes(counts map[string]int) *models.Snapshot {
	snapshot := models.NewSnapshot("wf-1")

	i := 0

	for nodeType, count := range counts {
		for range count {
			snapshot.Nodes = append(snapshot.Nodes, &models.Node{
				ID:   nodeType + "-" + string(rune('a'+i)),
				Name: nodeType,
				Type: nodeType,
			})
			i++
		}
	}

	return snapshot
}

func TestNewEngine_ConstructionErrors(t *testing.T) {
	t.Parallel()

	logger := slog.Default()

	_, err := NewEngine(logger, []Config{{Kind: "nonsense", Enabled: true}})
	require.ErrorIs(t, err, ErrUnknownPolicyKind)

	_, err = NewEngine(logger, []Config{{Kind: KindNodeWhitelist, Enabled: true}})
	require.ErrorIs(t, err, ErrMissingPolicyBody)

	_, err = NewEngine(logger, []Config{{
		Kind:    KindParameterPolicy,
		Enabled: true,
		ParameterPolicy: &ParameterPolicyConfig{
			Rules: map[string][]ParameterRule{
				"httpCall": {{Parameter: "url", Rule: RulePattern, Pattern: "([unclosed"}},
			},
		},
	}})
	require.Error(t, err)
}

func TestNewEngine_DisabledConfigsSkipped(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{
		{Kind: KindNodeWhitelist, Enabled: false},
		{
			Kind:           KindOperationLimit,
			Enabled:        true,
			OperationLimit: &OperationLimitConfig{MaxOperations: 5},
		},
	})

	assert.Equal(t, []string{"operation_limit"}, engine.PolicyNames())

	// The disabled whitelist must not reject anything.
	violation := engine.Check(
		testBatch(addNodeOp("a", "definitely-not-whitelisted", nil)),
		Context{Snapshot: models.NewSnapshot("wf-1")},
	)
	assert.Nil(t, violation)
}

func TestEngine_FailFastReturnsFirstViolation(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{
		{
			Kind:           KindOperationLimit,
			Enabled:        true,
			OperationLimit: &OperationLimitConfig{MaxOperations: 1},
		},
		{
			Kind:          KindNodeWhitelist,
			Enabled:       true,
			NodeWhitelist: &NodeWhitelistConfig{AllowedTypes: []string{"trigger"}},
		},
	})

	// Both policies would reject; evaluation order decides which wins.
	violation := engine.Check(
		testBatch(addNodeOp("a", "httpCall", nil), addNodeOp("b", "httpCall", nil)),
		Context{Snapshot: models.NewSnapshot("wf-1")},
	)
	require.NotNil(t, violation)
	assert.Equal(t, "operation_limit", violation.Policy)

	violations := engine.CheckAll(
		testBatch(addNodeOp("a", "httpCall", nil), addNodeOp("b", "httpCall", nil)),
		Context{Snapshot: models.NewSnapshot("wf-1")},
	)
	require.Len(t, violations, 2)
	assert.Equal(t, "node_whitelist", violations[1].Policy)
}

func TestNodeWhitelist(t *testing.T) {
	t.Parallel()

	cfg := []Config{{
		Kind:    KindNodeWhitelist,
		Enabled: true,
		NodeWhitelist: &NodeWhitelistConfig{
			AllowedTypes: []string{"trigger", "httpCall"},
		},
	}}
	engine := mustEngine(t, cfg)
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	assert.Nil(t, engine.Check(testBatch(addNodeOp("a", "httpCall", nil)), pctx))

	violation := engine.Check(testBatch(addNodeOp("a", "shellExec", nil)), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "node_whitelist", violation.Policy)
	assert.Equal(t, "type_not_allowed", violation.Code)
	assert.Equal(t, "shellExec", violation.Details["node_type"])

	// allow_unknown waves everything through
	open := mustEngine(t, []Config{{
		Kind:    KindNodeWhitelist,
		Enabled: true,
		NodeWhitelist: &NodeWhitelistConfig{
			AllowedTypes: []string{"trigger"},
			AllowUnknown: true,
		},
	}})
	assert.Nil(t, open.Check(testBatch(addNodeOp("a", "shellExec", nil)), pctx))
}

func TestOperationLimit(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{{
		Kind:    KindOperationLimit,
		Enabled: true,
		OperationLimit: &OperationLimitConfig{
			MaxOperations:  10,
			MaxAddNodes:    2,
			MaxConnections: 1,
		},
	}})
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	ok := testBatch(
		addNodeOp("a", "trigger", nil),
		addNodeOp("b", "httpCall", nil),
		models.Operation{Kind: models.OpConnect, From: "a", To: "b"},
	)
	assert.Nil(t, engine.Check(ok, pctx))

	tooManyAdds := testBatch(
		addNodeOp("a", "trigger", nil),
		addNodeOp("b", "httpCall", nil),
		addNodeOp("c", "httpCall", nil),
	)
	violation := engine.Check(tooManyAdds, pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "too_many_add_nodes", violation.Code)

	tooManyConnects := testBatch(
		models.Operation{Kind: models.OpConnect, From: "a", To: "b"},
		models.Operation{Kind: models.OpConnect, From: "b", To: "c"},
	)
	violation = engine.Check(tooManyConnects, pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "too_many_connects", violation.Code)
}

func TestNodeTypeLimit_InclusiveBoundary(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{{
		Kind:          KindNodeTypeLimit,
		Enabled:       true,
		NodeTypeLimit: &NodeTypeLimitConfig{Limits: map[string]int{"httpCall": 10}},
	}})

	pctx := Context{Snapshot: snapshotWithTypes(map[string]int{"httpCall": 8})}

	// 8 existing + 2 = 10: exactly at the limit, passes.
	twoMore := testBatch(
		addNodeOp("n1", "httpCall", nil),
		addNodeOp("n2", "httpCall", nil),
	)
	assert.Nil(t, engine.Check(twoMore, pctx))

	// 8 existing + 3 = 11: rejected.
	threeMore := testBatch(
		addNodeOp("n1", "httpCall", nil),
		addNodeOp("n2", "httpCall", nil),
		addNodeOp("n3", "httpCall", nil),
	)
	violation := engine.Check(threeMore, pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "node_type_limit", violation.Policy)
	assert.Equal(t, 11, violation.Details["projected"])
}

func TestCostLimit(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{{
		Kind:      KindCostLimit,
		Enabled:   true,
		CostLimit: &CostLimitConfig{MaxCost: 50},
	}})
	batch := testBatch(addNodeOp("a", "httpCall", nil))
	snapshot := models.NewSnapshot("wf-1")

	// No estimate provided: the gate passes.
	assert.Nil(t, engine.Check(batch, Context{Snapshot: snapshot}))

	under := 49.9
	assert.Nil(t, engine.Check(batch, Context{Snapshot: snapshot, EstimatedCost: &under}))

	over := 50.1
	violation := engine.Check(batch, Context{Snapshot: snapshot, EstimatedCost: &over})
	require.NotNil(t, violation)
	assert.Equal(t, "cost_limit_exceeded", violation.Code)
}

func TestWorkflowComplexity_ProjectionCountsDeletes(t *testing.T) {
	t.Parallel()

	engine := mustEngine(t, []Config{{
		Kind:               KindWorkflowComplexity,
		Enabled:            true,
		WorkflowComplexity: &WorkflowComplexityConfig{MaxNodes: 10},
	}})

	pctx := Context{Snapshot: snapshotWithTypes(map[string]int{"httpCall": 10})}

	// At the ceiling already: a plain add is rejected...
	violation := engine.Check(testBatch(addNodeOp("new", "httpCall", nil)), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "too_many_nodes", violation.Code)

	// ...but a delete in the same batch brings the projection back down.
	swap := testBatch(
		models.Operation{Kind: models.OpDelete, NodeID: "httpCall-a"},
		addNodeOp("new", "httpCall", nil),
	)
	assert.Nil(t, engine.Check(swap, pctx))
}
