package wsproto

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeConn is an in-memory Conn double: WriteMessage appends frames to Sent,
// ReadMessage pops frames off Queued in order.
type fakeConn struct {
	Sent   [][]byte
	Queued [][]byte
}

func (f *fakeConn) ReadMessage() (int, []byte, error) {
	if len(f.Queued) == 0 {
		return 0, nil, errors.New("no more queued frames")
	}
	next := f.Queued[0]
	f.Queued = f.Queued[1:]
	return websocket.TextMessage, next, nil
}

func (f *fakeConn) WriteMessage(_ int, data []byte) error {
	f.Sent = append(f.Sent, data)
	return nil
}

func TestReadClientMessageDecodesEnvelope(t *testing.T) {
	payload, _ := json.Marshal(SendMessagePayload{Text: "hello"})
	frame, _ := json.Marshal(ClientMessage{Type: ClientSendMessage, SessionID: "s1", Payload: payload})
	conn := &fakeConn{Queued: [][]byte{frame}}

	msg, err := ReadClientMessage(conn)
	require.NoError(t, err)
	assert.Equal(t, ClientSendMessage, msg.Type)
	assert.Equal(t, "s1", msg.SessionID)

	var decoded SendMessagePayload
	require.NoError(t, json.Unmarshal(msg.Payload, &decoded))
	assert.Equal(t, "hello", decoded.Text)
}

func TestReadClientMessageRejectsMalformedJSON(t *testing.T) {
	conn := &fakeConn{Queued: [][]byte{[]byte("{not json")}}
	_, err := ReadClientMessage(conn)
	assert.Error(t, err)
}

func TestWriteServerMessageRoundTrips(t *testing.T) {
	conn := &fakeConn{}
	msg, err := NewServerMessage(ServerTokenUsage, "s1", TokenUsagePayload{PromptTokens: 1, CompletionTokens: 2, TotalTokens: 3})
	require.NoError(t, err)
	require.NoError(t, WriteServerMessage(conn, msg))

	require.Len(t, conn.Sent, 1)
	var decoded ServerMessage
	require.NoError(t, json.Unmarshal(conn.Sent[0], &decoded))
	assert.Equal(t, ServerTokenUsage, decoded.Type)

	var usage TokenUsagePayload
	require.NoError(t, json.Unmarshal(decoded.Payload, &usage))
	assert.Equal(t, 3, usage.TotalTokens)
}
