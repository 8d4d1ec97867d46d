package wsproto

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/opencoder/agentcore/agentloop"
)

// SessionStore resolves a session ID to a running *agentloop.Session. The
// embedding application owns session lifetime and registration; Dispatcher
// only looks sessions up.
type SessionStore interface {
	Get(sessionID string) (*agentloop.Session, bool)
	Put(sessionID string, session *agentloop.Session)
}

// Dispatcher maps decoded ClientMessages onto Session calls and writes back
// the matching ServerMessage frames. It does not own the socket's read
// loop; callers feed it one ClientMessage at a time, typically from inside
// their own ReadClientMessage loop, so they retain control over auth and
// connection teardown.
type Dispatcher struct {
	Sessions SessionStore
}

// NewDispatcher creates a Dispatcher backed by the given SessionStore.
func NewDispatcher(store SessionStore) *Dispatcher {
	return &Dispatcher{Sessions: store}
}

// Handle processes one ClientMessage against conn, writing the appropriate
// ServerMessage reply (or an ErrorPayload on failure).
func (d *Dispatcher) Handle(ctx context.Context, conn Conn, msg ClientMessage) error {
	switch msg.Type {
	case ClientSendMessage:
		return d.handleSendMessage(ctx, conn, msg)
	case ClientSwitchModel:
		return d.handleSwitchModel(conn, msg)
	case ClientSaveState:
		return d.handleSaveState(conn, msg)
	case ClientLoadState:
		return d.handleLoadState(conn, msg)
	case ClientCancelExecution:
		return d.handleCancel(conn, msg)
	default:
		return d.writeError(conn, msg.SessionID, fmt.Sprintf("unsupported message type: %s", msg.Type), true)
	}
}

func (d *Dispatcher) handleSendMessage(ctx context.Context, conn Conn, msg ClientMessage) error {
	var payload SendMessagePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return d.writeError(conn, msg.SessionID, "malformed send_message payload", true)
	}
	session, ok := d.Sessions.Get(msg.SessionID)
	if !ok {
		return d.writeError(conn, msg.SessionID, "unknown session", false)
	}
	if err := session.Submit(ctx, payload.Text); err != nil {
		return d.writeError(conn, msg.SessionID, err.Error(), true)
	}
	return nil
}

func (d *Dispatcher) handleSwitchModel(conn Conn, msg ClientMessage) error {
	var payload SwitchModelPayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return d.writeError(conn, msg.SessionID, "malformed switch_model payload", true)
	}
	session, ok := d.Sessions.Get(msg.SessionID)
	if !ok {
		return d.writeError(conn, msg.SessionID, "unknown session", false)
	}
	session.SwitchColour(agentloop.Colour(payload.Colour))
	reply, err := NewServerMessage(ServerModelSwitched, msg.SessionID, ModelSwitchedPayload{Colour: payload.Colour})
	if err != nil {
		return err
	}
	return WriteServerMessage(conn, reply)
}

func (d *Dispatcher) handleSaveState(conn Conn, msg ClientMessage) error {
	var payload SaveStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return d.writeError(conn, msg.SessionID, "malformed save_state payload", true)
	}
	session, ok := d.Sessions.Get(msg.SessionID)
	if !ok {
		return d.writeError(conn, msg.SessionID, "unknown session", false)
	}
	if err := session.Save(payload.Path); err != nil {
		return d.writeError(conn, msg.SessionID, err.Error(), true)
	}
	return nil
}

func (d *Dispatcher) handleLoadState(conn Conn, msg ClientMessage) error {
	var payload LoadStatePayload
	if err := json.Unmarshal(msg.Payload, &payload); err != nil {
		return d.writeError(conn, msg.SessionID, "malformed load_state payload", true)
	}
	session, ok := d.Sessions.Get(msg.SessionID)
	if !ok {
		return d.writeError(conn, msg.SessionID, "unknown session", false)
	}
	if err := session.Load(payload.Path); err != nil {
		return d.writeError(conn, msg.SessionID, err.Error(), true)
	}
	return nil
}

func (d *Dispatcher) handleCancel(conn Conn, msg ClientMessage) error {
	session, ok := d.Sessions.Get(msg.SessionID)
	if !ok {
		return d.writeError(conn, msg.SessionID, "unknown session", false)
	}
	session.Abort()
	return nil
}

func (d *Dispatcher) writeError(conn Conn, sessionID, message string, recoverable bool) error {
	reply, err := NewServerMessage(ServerError, sessionID, ErrorPayload{Message: message, Recoverable: recoverable})
	if err != nil {
		return err
	}
	return WriteServerMessage(conn, reply)
}
