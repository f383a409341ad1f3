package cmd

import (
	"fmt"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/policies"
)

// NewPolicyConfigs resolves a named preset into policy configs. allowedTypes
// only matters for the strict preset, which carries a node whitelist.
func NewPolicyConfigs(preset string, allowedTypes []string) ([]policies.Config, error) {
	switch preset {
	case "default":
		return policies.DefaultPreset(), nil
	case "strict":
		return policies.StrictPreset(allowedTypes), nil
	case "permissive":
		return policies.PermissivePreset(), nil
	default:
		return nil, fmt.Errorf("unknown policy preset: %q", preset)
	}
}
