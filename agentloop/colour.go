package agentloop

import "github.com/opencoder/agentcore/unifiedllm"

// Colour, its three recognised values, and the (model-id, backend,
// endpoint, credential) tuple it resolves to all live in unifiedllm now:
// resolution is a client-construction concern, not an agent-loop one, and
// living there lets the same resolver seed both the provider profile
// (BuildProfile) and the unifiedllm.Client a session actually talks to.
type (
	Colour         = unifiedllm.Colour
	ColourDefaults = unifiedllm.ColourDefaults
	ResolvedModel  = unifiedllm.ResolvedModel
)

const (
	ColourBlu = unifiedllm.ColourBlu
	ColourGrn = unifiedllm.ColourGrn
	ColourRed = unifiedllm.ColourRed
)

// ColourResolver adapts unifiedllm's colour resolution to the agent loop's
// own error taxonomy: a malformed override or unknown colour is always a
// KindFatal CoordinatorError here, never a bare unifiedllm.ConfigurationError,
// so callers can keep using agentloop.IsFatal uniformly.
type ColourResolver struct {
	inner *unifiedllm.ColourResolver
}

// NewColourResolver builds a resolver from compiled-in per-colour defaults.
func NewColourResolver(defaults map[Colour]ColourDefaults) *ColourResolver {
	return &ColourResolver{inner: unifiedllm.NewColourResolver(defaults)}
}

// DefaultColourResolver returns a resolver seeded from the built-in model
// catalog (see unifiedllm.DefaultColourResolver).
func DefaultColourResolver() *ColourResolver {
	return &ColourResolver{inner: unifiedllm.DefaultColourResolver()}
}

// Resolve returns the concrete model tuple for colour.
func (r *ColourResolver) Resolve(colour Colour) (ResolvedModel, error) {
	resolved, err := r.inner.Resolve(colour)
	if err != nil {
		return ResolvedModel{}, NewFatalError("resolving model colour", err)
	}
	return resolved, nil
}

// Client builds a unifiedllm.Client whose registered providers are backed
// by the endpoint and credential the given colours resolve to, instead of
// the default client's blanket environment scan. Sessions built for a
// specific colour talk to this client rather than unifiedllm's process-wide
// default, so a colour override (model, endpoint, or credential) actually
// reaches the wire.
func (r *ColourResolver) Client(colours ...Colour) (*unifiedllm.Client, error) {
	client, err := unifiedllm.NewClientFromColours(r.inner, colours...)
	if err != nil {
		return nil, NewFatalError("building client for resolved colours", err)
	}
	return client, nil
}
