// Package agentloop implements an interactive coding-agent orchestration
// engine: sessions that pair a large language model with developer tools
// under an enforced iteration budget, an optional planning coordinator
// that fans a task out across scoped subagents, and a task tree exposed
// over a WebSocket wire contract (see the wsproto subpackage).
//
// The agent loop uses the unifiedllm package's low-level Client.Complete()
// method directly, implementing its own turn loop to interleave tool
// execution with truncation, steering, events, loop detection, and
// iteration-budget enforcement.
//
// # Architecture
//
// The package is organized around these core concepts:
//
//   - Session: The central orchestrator holding conversation state,
//     dispatching tool calls, managing events, and enforcing the
//     iteration budget (IterationController) and context-window ceiling.
//   - ProviderProfile: Provider-aligned tool and prompt configuration
//     (OpenAI/codex, Anthropic/Claude Code, Gemini/gemini-cli), selected
//     at runtime from an abstract model Colour rather than a hardcoded
//     model ID.
//   - Coordinator: Runs a planner session that decomposes a request into
//     subtasks, executes each in its own scoped session, and aggregates
//     results into a Visibility task tree.
//   - ExecutionEnvironment: Abstraction for where tools run (local,
//     Docker, Kubernetes, WASM, SSH).
//   - ToolRegistry: Registration and dispatch of tool definitions,
//     including PTY session control (ptyctl) and conversation management.
//   - EventEmitter: Typed event stream for host application integration.
//
// # Quick Start
//
//	profile := agentloop.NewAnthropicProfile("claude-opus-4-6")
//	env := agentloop.NewLocalExecutionEnvironment("/path/to/project")
//	session := agentloop.NewSession(profile, env, nil)
//	defer session.Close()
//
//	if err := session.Submit(ctx, "Create a hello.py file"); err != nil {
//	    log.Fatal(err)
//	}
//
//	for event := range session.Events() {
//	    fmt.Printf("[%s] %v\n", event.Kind, event.Data)
//	}
package agentloop
