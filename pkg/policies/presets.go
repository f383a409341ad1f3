package policies

// Named presets. Which preset an environment runs is wired by the binary,
// not by this package.

// DefaultPreset suits interactive editing: generous batch limits plus a
// complexity ceiling that keeps a single workflow renderable.
func DefaultPreset() []Config {
	return []Config{
		{
			Kind:    KindOperationLimit,
			Enabled: true,
			OperationLimit: &OperationLimitConfig{
				MaxOperations:  100,
				MaxAddNodes:    50,
				MaxConnections: 50,
			},
		},
		{
			Kind:    KindWorkflowComplexity,
			Enabled: true,
			WorkflowComplexity: &WorkflowComplexityConfig{
				MaxNodes:       200,
				MaxConnections: 400,
			},
		},
	}
}

// StrictPreset adds a whitelist and tight limits; meant for agent-driven
// callers whose batches are machine generated.
func StrictPreset(allowedTypes []string) []Config {
	return []Config{
		{
			Kind:    KindNodeWhitelist,
			Enabled: true,
			NodeWhitelist: &NodeWhitelistConfig{
				AllowedTypes: allowedTypes,
				AllowUnknown: false,
			},
		},
		{
			Kind:    KindOperationLimit,
			Enabled: true,
			OperationLimit: &OperationLimitConfig{
				MaxOperations:  20,
				MaxAddNodes:    10,
				MaxConnections: 15,
			},
		},
		{
			Kind:      KindCostLimit,
			Enabled:   true,
			CostLimit: &CostLimitConfig{MaxCost: 100},
		},
		{
			Kind:    KindWorkflowComplexity,
			Enabled: true,
			WorkflowComplexity: &WorkflowComplexityConfig{
				MaxNodes:       50,
				MaxConnections: 100,
			},
		},
	}
}

// PermissivePreset disables every gate; useful in tests and local tooling.
func PermissivePreset() []Config {
	return nil
}
