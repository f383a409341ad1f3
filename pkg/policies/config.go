package policies

import (
	"errors"
	"fmt"
)

// ConfigKind tags the variant of a policy configuration.
type ConfigKind string

const (
	KindNodeWhitelist      ConfigKind = "node_whitelist"
	KindOperationLimit     ConfigKind = "operation_limit"
	KindNodeTypeLimit      ConfigKind = "node_type_limit"
	KindParameterPolicy    ConfigKind = "parameter_policy"
	KindCostLimit          ConfigKind = "cost_limit"
	KindWorkflowComplexity ConfigKind = "workflow_complexity"
)

// Configuration errors surfaced at engine construction.
var (
	ErrUnknownPolicyKind = errors.New("unknown policy kind")
	ErrMissingPolicyBody = errors.New("policy config body missing for kind")
)

// Config is a tagged policy configuration. Kind selects which body field is
// read; exactly one body must be set. Disabled configs are skipped entirely.
type Config struct {
	Kind    ConfigKind `json:"kind"    validate:"required"`
	Enabled bool       `json:"enabled"`

	NodeWhitelist      *NodeWhitelistConfig      `json:"node_whitelist,omitempty"`
	OperationLimit     *OperationLimitConfig     `json:"operation_limit,omitempty"`
	NodeTypeLimit      *NodeTypeLimitConfig      `json:"node_type_limit,omitempty"`
	ParameterPolicy    *ParameterPolicyConfig    `json:"parameter_policy,omitempty"`
	CostLimit          *CostLimitConfig          `json:"cost_limit,omitempty"`
	WorkflowComplexity *WorkflowComplexityConfig `json:"workflow_complexity,omitempty"`
}

// NodeWhitelistConfig restricts which node types may be added.
type NodeWhitelistConfig struct {
	AllowedTypes []string `json:"allowed_types"`
	AllowUnknown bool     `json:"allow_unknown"`
}

// OperationLimitConfig caps the shape of a single batch. A zero limit means
// unlimited.
type OperationLimitConfig struct {
	MaxOperations  int `json:"max_operations"`
	MaxAddNodes    int `json:"max_add_nodes"`
	MaxConnections int `json:"max_connections"`
}

// NodeTypeLimitConfig caps the cumulative (existing + newly added) node
// count per type. Limits are inclusive: a projected total equal to the
// limit passes.
type NodeTypeLimitConfig struct {
	Limits map[string]int `json:"limits"`
}

// ParameterRuleKind selects what a parameter rule enforces.
type ParameterRuleKind string

const (
	RuleForbidden ParameterRuleKind = "forbidden"
	RuleRequired  ParameterRuleKind = "required"
	RulePattern   ParameterRuleKind = "pattern"
)

// ParameterRule constrains one parameter of a node type.
type ParameterRule struct {
	Parameter string            `json:"parameter" validate:"required"`
	Rule      ParameterRuleKind `json:"rule"      validate:"required"`
	Pattern   string            `json:"pattern,omitempty"`
}

// ParameterPolicyConfig holds parameter rules keyed by exact node type, or
// by the wildcard "*" for rules applied to every type.
type ParameterPolicyConfig struct {
	Rules map[string][]ParameterRule `json:"rules"`
}

// CostLimitConfig caps the externally estimated cost of a batch.
type CostLimitConfig struct {
	MaxCost float64 `json:"max_cost"`
}

// WorkflowComplexityConfig caps the projected size of the graph after the
// batch. Adds increment and deletes decrement the projection; edges severed
// implicitly by node deletion are not counted, which makes the projection an
// upper bound.
type WorkflowComplexityConfig struct {
	MaxNodes       int `json:"max_nodes"`
	MaxConnections int `json:"max_connections"`
}

// build compiles a Config into a runnable Policy. Disabled configs return
// (nil, nil).
func (c Config) build() (Policy, error) {
	if !c.Enabled {
		return nil, nil
	}

	switch c.Kind {
	case KindNodeWhitelist:
		if c.NodeWhitelist == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return newNodeWhitelist(*c.NodeWhitelist), nil
	case KindOperationLimit:
		if c.OperationLimit == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return &operationLimit{cfg: *c.OperationLimit}, nil
	case KindNodeTypeLimit:
		if c.NodeTypeLimit == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return &nodeTypeLimit{cfg: *c.NodeTypeLimit}, nil
	case KindParameterPolicy:
		if c.ParameterPolicy == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return newParameterPolicy(*c.ParameterPolicy)
	case KindCostLimit:
		if c.CostLimit == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return &costLimit{cfg: *c.CostLimit}, nil
	case KindWorkflowComplexity:
		if c.WorkflowComplexity == nil {
			return nil, fmt.Errorf("%w: %s", ErrMissingPolicyBody, c.Kind)
		}

		return &workflowComplexity{cfg: *c.WorkflowComplexity}, nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownPolicyKind, c.Kind)
	}
}
