package agentloop

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/opencoder/agentcore/unifiedllm"
)

// toolCallFragment accumulates one tool call's argument text across
// however many ToolCallDelta events the backend emits for it.
type toolCallFragment struct {
	id        string
	name      string
	index     int
	arguments strings.Builder
}

// ToolCallAssembler reduces a stream's ToolCallDelta/ToolCallEnd events
// into complete ToolCalls, keyed by (tool_call_id, argument_index) rather
// than the SDK's own StreamAccumulator, which only keys text deltas by
// TextID and treats each ToolCallEnd as already-complete. Some backends
// emit argument JSON in several indexed deltas per call; this type coalesces
// them back into one parseable argument string per call before the turn
// is considered complete.
type ToolCallAssembler struct {
	fragments map[string]*toolCallFragment // keyed by tool_call_id
	order     []string
	finished  map[string]unifiedllm.ToolCall
}

// NewToolCallAssembler creates an empty assembler for one turn.
func NewToolCallAssembler() *ToolCallAssembler {
	return &ToolCallAssembler{
		fragments: make(map[string]*toolCallFragment),
		finished:  make(map[string]unifiedllm.ToolCall),
	}
}

// Process ingests one stream event, extracting tool-call id/index/name and
// any incremental argument text carried in the event's Raw payload.
func (a *ToolCallAssembler) Process(event unifiedllm.StreamEvent) {
	switch event.Type {
	case unifiedllm.ToolCallStart:
		id, index, name := rawToolCallMeta(event)
		if id == "" {
			return
		}
		if _, ok := a.fragments[id]; !ok {
			a.fragments[id] = &toolCallFragment{id: id, name: name, index: index}
			a.order = append(a.order, id)
		}
	case unifiedllm.ToolCallDelta:
		id, index, name := rawToolCallMeta(event)
		if id == "" {
			return
		}
		frag, ok := a.fragments[id]
		if !ok {
			frag = &toolCallFragment{id: id, name: name, index: index}
			a.fragments[id] = frag
			a.order = append(a.order, id)
		}
		if name != "" {
			frag.name = name
		}
		frag.arguments.WriteString(rawArgumentsDelta(event))
	case unifiedllm.ToolCallEnd:
		if event.ToolCall == nil {
			return
		}
		tc := *event.ToolCall
		if frag, ok := a.fragments[tc.ID]; ok && len(tc.Arguments) == 0 && frag.arguments.Len() > 0 {
			tc.Arguments = json.RawMessage(frag.arguments.String())
		}
		a.finished[tc.ID] = tc
		if _, seen := indexOf(a.order, tc.ID); !seen {
			a.order = append(a.order, tc.ID)
		}
	}
}

// ToolCalls returns the assembled tool calls in first-seen order.
func (a *ToolCallAssembler) ToolCalls() []unifiedllm.ToolCall {
	out := make([]unifiedllm.ToolCall, 0, len(a.order))
	for _, id := range a.order {
		if tc, ok := a.finished[id]; ok {
			out = append(out, tc)
			continue
		}
		if frag, ok := a.fragments[id]; ok && frag.arguments.Len() > 0 {
			out = append(out, unifiedllm.ToolCall{
				ID:        frag.id,
				Name:      frag.name,
				Arguments: json.RawMessage(frag.arguments.String()),
			})
		}
	}
	return out
}

func indexOf(s []string, v string) (int, bool) {
	for i, x := range s {
		if x == v {
			return i, true
		}
	}
	return -1, false
}

func rawToolCallMeta(event unifiedllm.StreamEvent) (id string, index int, name string) {
	if event.ToolCall != nil {
		id, name = event.ToolCall.ID, event.ToolCall.Name
	}
	if event.Raw != nil {
		if v, ok := event.Raw["tool_call_id"].(string); ok && v != "" {
			id = v
		}
		if v, ok := event.Raw["index"].(float64); ok {
			index = int(v)
		}
		if v, ok := event.Raw["name"].(string); ok && v != "" {
			name = v
		}
	}
	return id, index, name
}

func rawArgumentsDelta(event unifiedllm.StreamEvent) string {
	if event.Raw != nil {
		if v, ok := event.Raw["arguments_delta"].(string); ok {
			return v
		}
	}
	return event.Delta
}

// xmlToolCallPattern matches the free-form block some backends emit inside
// assistant text instead of a structured tool call:
//   <tool_call name="read_file">{"path": "a.go"}</tool_call>
var xmlToolCallPattern = regexp.MustCompile(`(?s)<tool_call\s+name="([^"]+)"\s*>(.*?)</tool_call>`)

// RewriteXMLToolCalls detects the malformed XML-like tool-call block some
// backends emit in assistant text and rewrites it into structured
// ToolCalls, returning the text with those blocks stripped. rewrote is
// false if no such block was found, in which case text is returned
// unchanged.
func RewriteXMLToolCalls(text string) (cleaned string, calls []unifiedllm.ToolCall, rewrote bool) {
	matches := xmlToolCallPattern.FindAllStringSubmatchIndex(text, -1)
	if len(matches) == 0 {
		return text, nil, false
	}

	var sb strings.Builder
	last := 0
	for i, m := range matches {
		sb.WriteString(text[last:m[0]])
		name := text[m[2]:m[3]]
		argsText := strings.TrimSpace(text[m[4]:m[5]])
		calls = append(calls, unifiedllm.ToolCall{
			ID:        fmt.Sprintf("xml-%d", i),
			Name:      name,
			Arguments: json.RawMessage(argsText),
		})
		last = m[1]
	}
	sb.WriteString(text[last:])
	return strings.TrimSpace(sb.String()), calls, true
}

// RepairArguments re-asks the LLM to rewrite a tool call's arguments after
// schema validation failed, per §4.6: a single bounded-token attempt. It
// returns the original arguments unchanged if the repair call itself
// fails — repair failure is not fatal, the caller surfaces a tool error.
func RepairArguments(ctx context.Context, client *unifiedllm.Client, model, toolName string, schema map[string]interface{}, badArguments json.RawMessage, validationErr error) (json.RawMessage, error) {
	schemaJSON, _ := json.Marshal(schema)
	prompt := fmt.Sprintf(
		"The arguments below were generated for the tool %q but failed schema validation.\n"+
			"Schema:\n%s\n\nInvalid arguments:\n%s\n\nValidation error: %v\n\n"+
			"Reply with ONLY the corrected JSON arguments object, nothing else.",
		toolName, string(schemaJSON), string(badArguments), validationErr,
	)

	maxTokens := 512
	response, err := client.Complete(ctx, unifiedllm.Request{
		Model:     model,
		Messages:  []unifiedllm.Message{unifiedllm.UserMessage(prompt)},
		MaxTokens: &maxTokens,
	})
	if err != nil {
		return badArguments, err
	}

	repaired := strings.TrimSpace(response.Text())
	repaired = strings.TrimPrefix(repaired, "```json")
	repaired = strings.TrimPrefix(repaired, "```")
	repaired = strings.TrimSuffix(repaired, "```")
	repaired = strings.TrimSpace(repaired)

	var probe interface{}
	if err := json.Unmarshal([]byte(repaired), &probe); err != nil {
		return badArguments, fmt.Errorf("repair response was not valid JSON: %w", err)
	}
	return json.RawMessage(repaired), nil
}

// summarizationKeepRecent is the number of trailing turns always preserved
// verbatim across a summarisation pass, regardless of the target ratio.
const summarizationKeepRecent = 6

// SummarizeHistory replaces the oldest percentage of history, starting at
// the first turn, with a single system-turn summary. The last
// summarizationKeepRecent turns are always kept verbatim, and the cut is
// moved back so it never separates an assistant turn's tool calls from the
// tool-results turn that answers them. It calls out to the LLM once via
// client; on failure it returns TruncateHistory's trim without a summary,
// together with the error.
func SummarizeHistory(ctx context.Context, client *unifiedllm.Client, model string, history []Turn, oldestPercent float64) ([]Turn, error) {
	if len(history) <= summarizationKeepRecent {
		return history, nil
	}

	cut := int(float64(len(history)) * oldestPercent)
	if cut <= 0 {
		return history, nil
	}
	if len(history)-cut < summarizationKeepRecent {
		cut = len(history) - summarizationKeepRecent
	}
	cut = protectReferencedToolResults(history, cut)

	oldest := history[:cut]
	rest := history[cut:]

	var transcript strings.Builder
	for _, turn := range oldest {
		fmt.Fprintf(&transcript, "[%s] %s\n", turn.Kind, turn.TextContent())
	}

	prompt := "Summarize the following conversation history concisely, preserving any facts, decisions, " +
		"or file paths a continuing agent would need:\n\n" + transcript.String()

	response, err := client.Complete(ctx, unifiedllm.Request{
		Model:    model,
		Messages: []unifiedllm.Message{unifiedllm.UserMessage(prompt)},
	})
	if err != nil {
		return TruncateHistory(history, cut), err
	}

	summary := NewSystemTurn("[Summary of earlier conversation]\n" + response.Text())
	result := make([]Turn, 0, len(rest)+1)
	result = append(result, summary)
	result = append(result, rest...)
	return result, nil
}

// TruncateHistory drops the oldest cut turns wholesale, the naive fallback
// used when summarisation itself fails.
func TruncateHistory(history []Turn, cut int) []Turn {
	cut = protectReferencedToolResults(history, cut)
	if cut <= 0 {
		return history
	}
	if cut >= len(history) {
		cut = len(history) - summarizationKeepRecent
		if cut < 0 {
			cut = 0
		}
	}
	out := make([]Turn, len(history)-cut)
	copy(out, history[cut:])
	return out
}

// protectReferencedToolResults nudges cut backward, if needed, so it never
// splits an assistant turn's tool calls from their corresponding
// tool-results turn.
func protectReferencedToolResults(history []Turn, cut int) int {
	if cut <= 0 || cut >= len(history) {
		return cut
	}
	// If the turn right before the cut point is an assistant turn with
	// tool calls, and the turn at the cut point is its tool-results turn,
	// move the cut back one to keep the pair together.
	for cut > 0 && history[cut].Kind == TurnToolResults {
		cut--
	}
	return cut
}
