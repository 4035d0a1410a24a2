package wiring

import (
	"github.com/felixgeelhaar/weaver/internal/infrastructure/config"
	infraai "github.com/felixgeelhaar/weaver/pkg/ai"
	domainai "github.com/felixgeelhaar/weaver/pkg/domain/ai"
)

// LoadAIProvider resolves the generator provider for a workspace. The
// workspace AI config wins when present; otherwise environment defaults
// apply. The returned provider is always wrapped for resilience.
func LoadAIProvider(root string) (domainai.Provider, error) {
	cfg, err := config.LoadAIConfig(root)
	if err != nil {
		return nil, err
	}

	providerName := ""
	modelName := ""
	if cfg != nil {
		providerName = cfg.Provider
		modelName = cfg.Model
	}

	base, err := infraai.GetDefaultProvider(providerName, modelName)
	if err != nil {
		return nil, err
	}
	return infraai.NewResilientProvider(base), nil
}
