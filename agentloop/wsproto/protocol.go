// Package wsproto documents the WebSocket wire contract between an
// agentloop-backed server and an external frontend. Per the governing
// spec's Non-goals the HTTP/WebSocket server itself is out of scope for
// this repo; this package exists so that any embedding application has
// one canonical set of message types to serialize rather than
// reinventing the envelope. A minimal Dispatcher maps decoded
// ClientMessages onto agentloop.Session calls; production routing
// (mux, auth, TLS) is left to the embedding application.
package wsproto

import (
	"encoding/json"
	"fmt"

	"github.com/gorilla/websocket"
)

// ClientMessageType enumerates the client→server envelope kinds.
type ClientMessageType string

const (
	ClientCreateSession    ClientMessageType = "create_session"
	ClientJoinSession      ClientMessageType = "join_session"
	ClientSendMessage      ClientMessageType = "send_message"
	ClientConfirmTool      ClientMessageType = "confirm_tool"
	ClientCancelExecution  ClientMessageType = "cancel_execution"
	ClientSwitchModel      ClientMessageType = "switch_model"
	ClientSaveState        ClientMessageType = "save_state"
	ClientLoadState        ClientMessageType = "load_state"
)

// ServerMessageType enumerates the server→client envelope kinds.
type ServerMessageType string

const (
	ServerSessionCreated            ServerMessageType = "session_created"
	ServerSessionJoined             ServerMessageType = "session_joined"
	ServerAssistantMessageChunk     ServerMessageType = "assistant_message_chunk"
	ServerAssistantMessageComplete  ServerMessageType = "assistant_message_complete"
	ServerToolCallRequest           ServerMessageType = "tool_call_request"
	ServerToolCallResult            ServerMessageType = "tool_call_result"
	ServerTaskProgress              ServerMessageType = "task_progress"
	ServerModelSwitched             ServerMessageType = "model_switched"
	ServerTokenUsage                ServerMessageType = "token_usage"
	ServerError                     ServerMessageType = "error"
)

// ClientMessage is the envelope for every client→server frame. Payload
// carries the type-specific fields as raw JSON, decoded with json.Unmarshal
// into the matching payload struct once Type has been switched on.
type ClientMessage struct {
	Type      ClientMessageType `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
}

// ServerMessage is the envelope for every server→client frame.
type ServerMessage struct {
	Type      ServerMessageType `json:"type"`
	SessionID string            `json:"session_id,omitempty"`
	Payload   json.RawMessage   `json:"payload,omitempty"`
}

// CreateSessionPayload requests a new session for the named colour/agent.
type CreateSessionPayload struct {
	Colour string `json:"colour"`
}

// JoinSessionPayload attaches to an already-running session.
type JoinSessionPayload struct {
	SessionID string `json:"session_id"`
}

// SendMessagePayload carries one user turn.
type SendMessagePayload struct {
	Text string `json:"text"`
}

// ConfirmToolPayload answers a pending policy confirm prompt.
type ConfirmToolPayload struct {
	CallID  string `json:"call_id"`
	Approve bool   `json:"approve"`
}

// SwitchModelPayload requests a colour switch mid-conversation.
type SwitchModelPayload struct {
	Colour string `json:"colour"`
}

// SaveStatePayload/LoadStatePayload name the persistence path used by
// Session.Save/Session.Load.
type SaveStatePayload struct {
	Path string `json:"path"`
}

type LoadStatePayload struct {
	Path string `json:"path"`
}

// SessionJoinedPayload carries the replayed history on join.
type SessionJoinedPayload struct {
	History []json.RawMessage `json:"history"`
}

// ToolCallRequestPayload mirrors a pending confirm-gated tool call.
type ToolCallRequestPayload struct {
	CallID               string `json:"call_id"`
	ToolName             string `json:"tool_name"`
	RequiresConfirmation bool   `json:"requires_confirmation"`
	Diff                 string `json:"diff,omitempty"`
}

// ToolCallResultPayload reports a completed tool call.
type ToolCallResultPayload struct {
	CallID  string `json:"call_id"`
	Content string `json:"content"`
	IsError bool   `json:"is_error"`
}

// TaskProgressPayload mirrors one Visibility Tracker update.
type TaskProgressPayload struct {
	TaskID   string `json:"task_id"`
	ParentID string `json:"parent_id,omitempty"`
	Agent    string `json:"agent"`
	Status   string `json:"status"`
	Phase    string `json:"phase"`
	Depth    int    `json:"depth"`
}

// ModelSwitchedPayload reports the active colour after a switch.
type ModelSwitchedPayload struct {
	Colour string `json:"colour"`
}

// TokenUsagePayload reports cumulative usage for the session.
type TokenUsagePayload struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// ErrorPayload reports a server-side failure; Recoverable signals whether
// the session can continue (e.g. a denied tool call) or must be torn down
// (e.g. the LLM client is unreachable).
type ErrorPayload struct {
	Message     string `json:"message"`
	Recoverable bool   `json:"recoverable"`
}

// Conn is the subset of *websocket.Conn a Dispatcher needs, narrowed so
// callers can supply a test double without dragging in a real socket.
type Conn interface {
	ReadMessage() (messageType int, p []byte, err error)
	WriteMessage(messageType int, data []byte) error
}

var _ Conn = (*websocket.Conn)(nil)

// ReadClientMessage decodes one frame off conn into a ClientMessage.
func ReadClientMessage(conn Conn) (ClientMessage, error) {
	var msg ClientMessage
	_, data, err := conn.ReadMessage()
	if err != nil {
		return msg, err
	}
	if err := json.Unmarshal(data, &msg); err != nil {
		return msg, fmt.Errorf("decode client message: %w", err)
	}
	return msg, nil
}

// WriteServerMessage encodes and sends one ServerMessage frame.
func WriteServerMessage(conn Conn, msg ServerMessage) error {
	data, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("encode server message: %w", err)
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

// NewServerMessage is a small convenience constructor that marshals payload
// into the envelope's Payload field.
func NewServerMessage(typ ServerMessageType, sessionID string, payload interface{}) (ServerMessage, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return ServerMessage{}, fmt.Errorf("encode %s payload: %w", typ, err)
	}
	return ServerMessage{Type: typ, SessionID: sessionID, Payload: raw}, nil
}
