package agentloop

import "fmt"

// BuildProfile constructs the provider profile matching a resolved model's
// backend. Endpoint and credential overrides are carried by ResolvedModel
// and applied separately when the coordinator builds the session's
// unifiedllm.Client (see ColourResolver.Client); the profile only needs to
// know which provider-aligned tool/prompt family to present.
func BuildProfile(resolved ResolvedModel) (ProviderProfile, error) {
	switch resolved.Backend {
	case "anthropic":
		return NewAnthropicProfile(resolved.ModelID), nil
	case "openai":
		return NewOpenAIProfile(resolved.ModelID), nil
	case "gemini":
		return NewGeminiProfile(resolved.ModelID), nil
	default:
		return nil, NewFatalError(fmt.Sprintf("no profile available for backend %q", resolved.Backend), nil)
	}
}
