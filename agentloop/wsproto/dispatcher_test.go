package wsproto

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/opencoder/agentcore/agentloop"
)

// memStore is an in-memory SessionStore test double.
type memStore struct {
	sessions map[string]*agentloop.Session
}

func newMemStore() *memStore { return &memStore{sessions: map[string]*agentloop.Session{}} }

func (m *memStore) Get(id string) (*agentloop.Session, bool) {
	s, ok := m.sessions[id]
	return s, ok
}

func (m *memStore) Put(id string, s *agentloop.Session) { m.sessions[id] = s }

func newDispatcherTestSession() *agentloop.Session {
	env := agentloop.NewLocalExecutionEnvironment(".")
	profile := agentloop.NewAnthropicProfile("claude-opus-4-6")
	return agentloop.NewSession(profile, env, nil)
}

func TestDispatcherHandleUnknownSessionWritesError(t *testing.T) {
	d := NewDispatcher(newMemStore())
	conn := &fakeConn{}

	payload, _ := json.Marshal(SwitchModelPayload{Colour: "grn"})
	msg := ClientMessage{Type: ClientSwitchModel, SessionID: "missing", Payload: payload}

	require.NoError(t, d.Handle(context.Background(), conn, msg))
	require.Len(t, conn.Sent, 1)

	var reply ServerMessage
	require.NoError(t, json.Unmarshal(conn.Sent[0], &reply))
	assert.Equal(t, ServerError, reply.Type)

	var errPayload ErrorPayload
	require.NoError(t, json.Unmarshal(reply.Payload, &errPayload))
	assert.False(t, errPayload.Recoverable)
}

func TestDispatcherHandleSwitchModelSucceeds(t *testing.T) {
	store := newMemStore()
	session := newDispatcherTestSession()
	store.Put("s1", session)
	d := NewDispatcher(store)
	conn := &fakeConn{}

	payload, _ := json.Marshal(SwitchModelPayload{Colour: "grn"})
	msg := ClientMessage{Type: ClientSwitchModel, SessionID: "s1", Payload: payload}

	require.NoError(t, d.Handle(context.Background(), conn, msg))
	require.Len(t, conn.Sent, 1)

	var reply ServerMessage
	require.NoError(t, json.Unmarshal(conn.Sent[0], &reply))
	assert.Equal(t, ServerModelSwitched, reply.Type)
	assert.Equal(t, agentloop.ColourGrn, session.CurrentColour())
}

func TestDispatcherHandleUnsupportedTypeWritesError(t *testing.T) {
	d := NewDispatcher(newMemStore())
	conn := &fakeConn{}

	msg := ClientMessage{Type: ClientConfirmTool, SessionID: "s1"}
	require.NoError(t, d.Handle(context.Background(), conn, msg))

	var reply ServerMessage
	require.NoError(t, json.Unmarshal(conn.Sent[0], &reply))
	assert.Equal(t, ServerError, reply.Type)
}

func TestDispatcherHandleSaveStateMalformedPayload(t *testing.T) {
	store := newMemStore()
	store.Put("s1", newDispatcherTestSession())
	d := NewDispatcher(store)
	conn := &fakeConn{}

	msg := ClientMessage{Type: ClientSaveState, SessionID: "s1", Payload: json.RawMessage(`{not json`)}
	require.NoError(t, d.Handle(context.Background(), conn, msg))

	var reply ServerMessage
	require.NoError(t, json.Unmarshal(conn.Sent[0], &reply))
	assert.Equal(t, ServerError, reply.Type)
}
