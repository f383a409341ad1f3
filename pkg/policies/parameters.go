package policies

import (
	"fmt"
	"regexp"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

// ParameterWildcard matches every node type in a parameter rule set.
const ParameterWildcard = "*"

type compiledRule struct {
	ParameterRule

	pattern *regexp.Regexp
}

type parameterPolicy struct {
	rules map[string][]compiledRule
}

func newParameterPolicy(cfg ParameterPolicyConfig) (*parameterPolicy, error) {
	rules := make(map[string][]compiledRule, len(cfg.Rules))

	for nodeType, typeRules := range cfg.Rules {
		compiled := make([]compiledRule, 0, len(typeRules))

		for _, rule := range typeRules {
			entry := compiledRule{ParameterRule: rule}

			if rule.Rule == RulePattern {
				pattern, err := regexp.Compile(rule.Pattern)
				if err != nil {
					return nil, fmt.Errorf("parameter rule for %s/%s: %w", nodeType, rule.Parameter, err)
				}

				entry.pattern = pattern
			}

			compiled = append(compiled, entry)
		}

		rules[nodeType] = compiled
	}

	return &parameterPolicy{rules: rules}, nil
}

func (p *parameterPolicy) Name() string { return string(KindParameterPolicy) }

// Check applies rules to add_node parameter maps and to set_params
// replacements. For set_params the node type is resolved against the
// snapshot or against nodes added earlier in the same batch; an unresolvable
// target is left for the applier's referential check.
func (p *parameterPolicy) Check(batch *models.OperationBatch, pctx Context) *Violation {
	types := make(map[string]string, len(pctx.Snapshot.Nodes))
	for _, node := range pctx.Snapshot.Nodes {
		types[node.ID] = node.Type
	}

	for _, op := range batch.Ops {
		switch op.Kind {
		case models.OpAddNode:
			if op.Node == nil {
				continue
			}

			types[op.Node.ID] = op.Node.Type

			if violation := p.checkParams(op.Node.ID, op.Node.Type, op.Node.Parameters); violation != nil {
				return violation
			}
		case models.OpSetParams:
			nodeType, known := types[op.NodeID]
			if !known {
				continue
			}

			if violation := p.checkParams(op.NodeID, nodeType, op.Parameters); violation != nil {
				return violation
			}
		case models.OpConnect, models.OpDisconnect, models.OpDelete,
			models.OpAnnotate, models.OpClearAnnotation:
		}
	}

	return nil
}

func (p *parameterPolicy) checkParams(nodeID, nodeType string, params map[string]any) *Violation {
	for _, scope := range []string{nodeType, ParameterWildcard} {
		for _, rule := range p.rules[scope] {
			if violation := p.checkRule(rule, nodeID, nodeType, params); violation != nil {
				return violation
			}
		}
	}

	return nil
}

func (p *parameterPolicy) checkRule(rule compiledRule, nodeID, nodeType string, params map[string]any) *Violation {
	value, present := params[rule.Parameter]

	switch rule.Rule {
	case RuleForbidden:
		if present {
			return p.violation("parameter_forbidden", rule, nodeID, nodeType,
				fmt.Sprintf("parameter %q is forbidden on type %q", rule.Parameter, nodeType))
		}
	case RuleRequired:
		if !present {
			return p.violation("parameter_required", rule, nodeID, nodeType,
				fmt.Sprintf("parameter %q is required on type %q", rule.Parameter, nodeType))
		}
	case RulePattern:
		if !present {
			return nil
		}

		if !rule.pattern.MatchString(fmt.Sprintf("%v", value)) {
			return p.violation("parameter_pattern_mismatch", rule, nodeID, nodeType,
				fmt.Sprintf("parameter %q does not match %q", rule.Parameter, rule.Pattern))
		}
	}

	return nil
}

func (p *parameterPolicy) violation(code string, rule compiledRule, nodeID, nodeType, message string) *Violation {
	return &Violation{
		Policy:  p.Name(),
		Code:    code,
		Message: message,
		Details: map[string]any{
			"node_id":   nodeID,
			"node_type": nodeType,
			"parameter": rule.Parameter,
		},
	}
}
