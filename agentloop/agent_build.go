package agentloop

// scopedProfile narrows a provider profile's tool surface to the subset
// named by an AgentConfig, without touching the underlying registry (other
// agents sharing the same provider profile keep their own view). The core
// registry is untouched; only Tools()/ToolRegistry() are filtered.
type scopedProfile struct {
	ProviderProfile
	scoped *ToolRegistry
}

// ScopeProfileToAgent builds the provider profile an AgentConfig actually
// sees: a clone of the base profile's registry containing only the tool
// names cfg.Tools lists. An empty Tools list leaves the full registry
// exposed (matches a profile with no restriction configured).
func ScopeProfileToAgent(base ProviderProfile, cfg *AgentConfig) ProviderProfile {
	if cfg == nil || len(cfg.Tools) == 0 {
		return base
	}

	full := base.ToolRegistry()
	scoped := NewToolRegistry()
	for _, name := range cfg.Tools {
		if rt := full.Get(name); rt != nil {
			scoped.Register(*rt)
		}
	}

	return &scopedProfile{ProviderProfile: base, scoped: scoped}
}

func (p *scopedProfile) ToolRegistry() *ToolRegistry { return p.scoped }

func (p *scopedProfile) Tools() []ToolDefinition { return p.scoped.Definitions() }
