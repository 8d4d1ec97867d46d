package unifiedllm

import (
	"fmt"
	"os"
	"regexp"

	"github.com/caarlos0/env/v11"
)

// Colour is an abstract logical LLM identity that resolves at runtime to a
// concrete (model-id, backend, endpoint, credential) tuple. Agents and
// conversations reference a Colour, never a concrete model-id directly, so
// that swapping backends is a configuration change rather than a code one.
type Colour string

const (
	ColourBlu Colour = "blu"
	ColourGrn Colour = "grn"
	ColourRed Colour = "red"
)

// Valid reports whether c is one of the three recognised colours.
func (c Colour) Valid() bool {
	switch c {
	case ColourBlu, ColourGrn, ColourRed:
		return true
	default:
		return false
	}
}

// ColourDefaults holds the compiled-in fallback for one colour, used when no
// environment override is present.
type ColourDefaults struct {
	Model         string
	Backend       string
	Endpoint      string
	CredentialEnv string // name of the environment variable holding the credential
}

// ResolvedModel is the concrete (model-id, backend, endpoint, credential)
// tuple a Colour resolves to.
type ResolvedModel struct {
	Colour     Colour
	ModelID    string
	Backend    string
	Endpoint   string
	Credential string
}

// colourEnvOverrides captures the attings-grammar override for each colour,
// read from the environment via caarlos0/env. An override string has the
// form "model@backend(url)"; any colour whose variable is unset keeps its
// compiled-in default.
type colourEnvOverrides struct {
	Blu string `env:"AGENTCORE_BLU_MODEL"`
	Grn string `env:"AGENTCORE_GRN_MODEL"`
	Red string `env:"AGENTCORE_RED_MODEL"`
}

// attingsPattern parses the "model@backend(url)" grammar: a model
// identifier, an '@'-separated backend name, and a parenthesised endpoint
// URL. The URL segment may be empty (backend default endpoint).
var attingsPattern = regexp.MustCompile(`^([^@]+)@([^(]+)\(([^)]*)\)$`)

// parseAttings parses a "model@backend(url)" override string. It returns an
// error if s does not match the grammar.
func parseAttings(s string) (model, backend, url string, err error) {
	m := attingsPattern.FindStringSubmatch(s)
	if m == nil {
		return "", "", "", fmt.Errorf("malformed attings override %q: expected model@backend(url)", s)
	}
	return m[1], m[2], m[3], nil
}

// providerCredentialEnv maps a catalog provider name to the environment
// variable its adapter reads a credential from. Keeps the compiled-in
// colour defaults from hand-duplicating what the catalog already records
// per model.
var providerCredentialEnv = map[string]string{
	"anthropic": "ANTHROPIC_API_KEY",
	"openai":    "OPENAI_API_KEY",
	"gemini":    "GEMINI_API_KEY",
}

// ColourResolver resolves a Colour to a concrete ResolvedModel, consulting
// environment overrides ahead of compiled-in defaults. It is constructed
// once at startup and is safe for concurrent read-only use thereafter.
type ColourResolver struct {
	defaults map[Colour]ColourDefaults
}

// NewColourResolver builds a resolver from compiled-in per-colour defaults.
func NewColourResolver(defaults map[Colour]ColourDefaults) *ColourResolver {
	return &ColourResolver{defaults: defaults}
}

// defaultColourModels names which catalog entry backs each colour's
// compiled-in default. Kept separate from ColourDefaults so the model
// catalog stays the single source of truth for context window, pricing,
// and provider.
var defaultColourModels = map[Colour]string{
	ColourBlu: "claude-opus-4-6",
	ColourGrn: "gpt-5.2",
	ColourRed: "gemini-3-pro-preview",
}

// DefaultColourResolver returns a resolver seeded from the built-in model
// catalog: each colour's compiled-in default is looked up by ID so the
// catalog (context window, provider, pricing) and the colour scheme never
// drift apart.
func DefaultColourResolver() *ColourResolver {
	defaults := make(map[Colour]ColourDefaults, len(defaultColourModels))
	for colour, modelID := range defaultColourModels {
		info := GetModelInfo(modelID)
		if info == nil {
			// A colour whose catalog entry was removed falls back to a
			// resolver that can still report a clear configuration error
			// rather than panicking at startup.
			continue
		}
		defaults[colour] = ColourDefaults{
			Model:         info.ID,
			Backend:       info.Provider,
			CredentialEnv: providerCredentialEnv[info.Provider],
		}
	}
	return NewColourResolver(defaults)
}

// Resolve returns the concrete model tuple for colour, applying any
// environment override before falling back to the compiled-in default.
// Returns a *ConfigurationError if colour is not one of blu|grn|red, or if
// an override string is present but malformed — both are configuration
// problems, not something a retry can fix.
func (r *ColourResolver) Resolve(colour Colour) (ResolvedModel, error) {
	if !colour.Valid() {
		return ResolvedModel{}, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("unknown model colour %q", colour),
		}}
	}
	def, ok := r.defaults[colour]
	if !ok {
		return ResolvedModel{}, &ConfigurationError{SDKError: SDKError{
			Message: fmt.Sprintf("no defaults registered for colour %q", colour),
		}}
	}

	var overrides colourEnvOverrides
	if err := env.Parse(&overrides); err != nil {
		return ResolvedModel{}, &ConfigurationError{SDKError: SDKError{
			Message: "parsing colour environment overrides", Cause: err,
		}}
	}

	resolved := ResolvedModel{
		Colour:   colour,
		ModelID:  def.Model,
		Backend:  def.Backend,
		Endpoint: def.Endpoint,
	}

	if override := overrideFor(colour, overrides); override != "" {
		model, backend, url, err := parseAttings(override)
		if err != nil {
			return ResolvedModel{}, &ConfigurationError{SDKError: SDKError{
				Message: "resolving colour override", Cause: err,
			}}
		}
		resolved.ModelID = model
		resolved.Backend = backend
		if url != "" {
			resolved.Endpoint = url
		}
	}

	if def.CredentialEnv != "" {
		resolved.Credential = os.Getenv(def.CredentialEnv)
	}

	return resolved, nil
}

func overrideFor(colour Colour, overrides colourEnvOverrides) string {
	switch colour {
	case ColourBlu:
		return overrides.Blu
	case ColourGrn:
		return overrides.Grn
	case ColourRed:
		return overrides.Red
	default:
		return ""
	}
}

// NewClientFromColours builds a Client whose provider adapters are backed
// by the endpoint and credential each given colour resolves to, rather
// than scanning the environment for every backend the way NewClientFromEnv
// does. Colours that resolve to the same backend share one adapter, keyed
// on whichever of them is resolved first.
func NewClientFromColours(resolver *ColourResolver, colours ...Colour) (*Client, error) {
	c := NewClient()
	seen := make(map[string]bool, len(colours))
	for _, colour := range colours {
		resolved, err := resolver.Resolve(colour)
		if err != nil {
			return nil, err
		}
		if seen[resolved.Backend] {
			continue
		}
		seen[resolved.Backend] = true

		var opts []GollmAdapterOption
		opts = append(opts, WithModel(resolved.ModelID))
		if resolved.Endpoint != "" {
			opts = append(opts, WithBaseURL(resolved.Endpoint))
		}

		adapter, err := NewGollmAdapter(resolved.Backend, resolved.Credential, opts...)
		if err != nil {
			return nil, &ConfigurationError{SDKError: SDKError{
				Message: fmt.Sprintf("building adapter for backend %q", resolved.Backend), Cause: err,
			}}
		}
		c.RegisterProvider(resolved.Backend, adapter)
	}
	return c, nil
}
