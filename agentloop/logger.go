package agentloop

import "go.uber.org/zap"

// NewProductionLogger builds the zap logger used by the coordinator and
// its sessions. It is constructed once at startup by the embedding
// application and threaded through CoordinatorDeps, SessionDeps and each
// ToolContext (see context.go) — never reached via a package-level global, so tests
// stay hermetic and concurrent coordinators never fight over one sink.
func NewProductionLogger() (*zap.Logger, error) {
	logger, err := zap.NewProduction()
	if err != nil {
		return nil, NewFatalError("constructing logger", err)
	}
	return logger, nil
}

// NewDevelopmentLogger builds a human-readable logger suitable for local
// development and tests.
func NewDevelopmentLogger() (*zap.Logger, error) {
	logger, err := zap.NewDevelopment()
	if err != nil {
		return nil, NewFatalError("constructing logger", err)
	}
	return logger, nil
}
