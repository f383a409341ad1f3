package policies

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

func parameterEngine(t *testing.T, rules map[string][]ParameterRule) *Engine {
	t.Helper()

	return mustEngine(t, []Config{{
		Kind:            KindParameterPolicy,
		Enabled:         true,
		ParameterPolicy: &ParameterPolicyConfig{Rules: rules},
	}})
}

func TestParameterPolicy_Forbidden(t *testing.T) {
	t.Parallel()

	engine := parameterEngine(t, map[string][]ParameterRule{
		"httpCall": {{Parameter: "insecure", Rule: RuleForbidden}},
	})
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	assert.Nil(t, engine.Check(
		testBatch(addNodeOp("a", "httpCall", map[string]any{"url": "https://x"})), pctx))

	violation := engine.Check(
		testBatch(addNodeOp("a", "httpCall", map[string]any{"insecure": true})), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "parameter_policy", violation.Policy)
	assert.Equal(t, "parameter_forbidden", violation.Code)
	assert.Equal(t, "insecure", violation.Details["parameter"])
}

func TestParameterPolicy_Required(t *testing.T) {
	t.Parallel()

	engine := parameterEngine(t, map[string][]ParameterRule{
		"httpCall": {{Parameter: "url", Rule: RuleRequired}},
	})
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	assert.Nil(t, engine.Check(
		testBatch(addNodeOp("a", "httpCall", map[string]any{"url": "https://x"})), pctx))

	violation := engine.Check(testBatch(addNodeOp("a", "httpCall", nil)), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "parameter_required", violation.Code)

	// The rule is scoped to httpCall; other types are untouched.
	assert.Nil(t, engine.Check(testBatch(addNodeOp("a", "log", nil)), pctx))
}

func TestParameterPolicy_Pattern(t *testing.T) {
	t.Parallel()

	engine := parameterEngine(t, map[string][]ParameterRule{
		"httpCall": {{Parameter: "url", Rule: RulePattern, Pattern: `^https://`}},
	})
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	assert.Nil(t, engine.Check(
		testBatch(addNodeOp("a", "httpCall", map[string]any{"url": "https://x"})), pctx))

	// Absent parameter does not trip a pattern rule.
	assert.Nil(t, engine.Check(testBatch(addNodeOp("a", "httpCall", nil)), pctx))

	violation := engine.Check(
		testBatch(addNodeOp("a", "httpCall", map[string]any{"url": "http://plain"})), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "parameter_pattern_mismatch", violation.Code)
}

func TestParameterPolicy_WildcardAppliesToEveryType(t *testing.T) {
	t.Parallel()

	engine := parameterEngine(t, map[string][]ParameterRule{
		"*": {{Parameter: "credentials", Rule: RuleForbidden}},
	})
	pctx := Context{Snapshot: models.NewSnapshot("wf-1")}

	violation := engine.Check(
		testBatch(addNodeOp("a", "anything", map[string]any{"credentials": "hunter2"})), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "parameter_forbidden", violation.Code)
}

func TestParameterPolicy_SetParamsResolvesType(t *testing.T) {
	t.Parallel()

	engine := parameterEngine(t, map[string][]ParameterRule{
		"httpCall": {{Parameter: "url", Rule: RulePattern, Pattern: `^https://`}},
	})

	snapshot := models.NewSnapshot("wf-1")
	snapshot.Nodes = append(snapshot.Nodes, &models.Node{ID: "existing", Name: "E", Type: "httpCall"})
	pctx := Context{Snapshot: snapshot}

	// set_params on a node already in the snapshot
	violation := engine.Check(testBatch(models.Operation{
		Kind:       models.OpSetParams,
		NodeID:     "existing",
		Parameters: map[string]any{"url": "ftp://nope"},
	}), pctx)
	require.NotNil(t, violation)
	assert.Equal(t, "parameter_pattern_mismatch", violation.Code)

	// set_params on a node added earlier in the same batch
	violation = engine.Check(testBatch(
		addNodeOp("fresh", "httpCall", map[string]any{"url": "https://ok"}),
		models.Operation{
			Kind:       models.OpSetParams,
			NodeID:     "fresh",
			Parameters: map[string]any{"url": "ftp://nope"},
		},
	), pctx)
	require.NotNil(t, violation)

	// Unresolvable target is the applier's referential problem, not ours.
	assert.Nil(t, engine.Check(testBatch(models.Operation{
		Kind:       models.OpSetParams,
		NodeID:     "ghost",
		Parameters: map[string]any{"url": "ftp://nope"},
	}), pctx))
}
