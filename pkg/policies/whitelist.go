package policies

import (
	"fmt"

	"github.com/AlexeyPevz/n8n-ai-sub004/pkg/models"
)

type nodeWhitelist struct {
	allowed      map[string]struct{}
	allowUnknown bool
}

func newNodeWhitelist(cfg NodeWhitelistConfig) *nodeWhitelist {
	allowed := make(map[string]struct{}, len(cfg.AllowedTypes))
	for _, nodeType := range cfg.AllowedTypes {
		allowed[nodeType] = struct{}{}
	}

	return &nodeWhitelist{allowed: allowed, allowUnknown: cfg.AllowUnknown}
}

func (p *nodeWhitelist) Name() string { return string(KindNodeWhitelist) }

func (p *nodeWhitelist) Check(batch *models.OperationBatch, _ Context) *Violation {
	if p.allowUnknown {
		return nil
	}

	for _, op := range batch.Ops {
		if op.Kind != models.OpAddNode || op.Node == nil {
			continue
		}

		if _, ok := p.allowed[op.Node.Type]; !ok {
			return &Violation{
				Policy:  p.Name(),
				Code:    "type_not_allowed",
				Message: fmt.Sprintf("node type %q is not on the whitelist", op.Node.Type),
				Details: map[string]any{
					"node_id":   op.Node.ID,
					"node_type": op.Node.Type,
				},
			}
		}
	}

	return nil
}
