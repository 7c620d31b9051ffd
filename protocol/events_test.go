package protocol

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewEnvelope(t *testing.T) {
	env, err := NewEnvelope(EventSendMessage, SendMessagePayload{Room: "general", Message: "hi"})
	require.NoError(t, err)

	frame, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"send_message","data":{"room":"general","message":"hi"}}`, string(frame))
}

func TestNewEnvelopeWithoutPayload(t *testing.T) {
	env, err := NewEnvelope(EventConnect, nil)
	require.NoError(t, err)

	frame, err := json.Marshal(env)
	require.NoError(t, err)
	assert.JSONEq(t, `{"event":"connect"}`, string(frame))
}

func TestParseEnvelopeServerPayloads(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"event":"user_joined","data":{"username":"alice","active_users":[{"username":"alice","sid":"a1"},{"username":"bob","sid":"b2"}]}}`))
	require.NoError(t, err)
	assert.Equal(t, EventUserJoined, env.Event)

	var ev PresenceEvent
	require.NoError(t, json.Unmarshal(env.Data, &ev))
	assert.Equal(t, "alice", ev.Username)
	assert.Equal(t, []string{"alice", "bob"}, ev.Names())
}

func TestParseEnvelopeRejectsGarbage(t *testing.T) {
	_, err := ParseEnvelope([]byte("not json"))
	assert.Error(t, err)
}
