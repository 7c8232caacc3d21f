package event

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrameWrapsPayload(t *testing.T) {
	ev := ToRoom(MessageRevoked, "C1", map[string]string{"message_id": "42"})
	assert.True(t, ev.Room)

	var frame struct {
		Event string            `json:"event"`
		Data  map[string]string `json:"data"`
	}
	require.NoError(t, json.Unmarshal(ev.Frame(), &frame))
	assert.Equal(t, MessageRevoked, frame.Event)
	assert.Equal(t, "42", frame.Data["message_id"])
}

func TestToUsersWithEvict(t *testing.T) {
	ev := ToUsers(ConversationRemoved, "C1", nil, "U1").WithEvict("U1")
	assert.False(t, ev.Room)
	assert.Equal(t, []string{"U1"}, ev.UserIds)
	assert.Equal(t, []string{"U1"}, ev.Evict)
	assert.JSONEq(t, `{}`, string(ev.Payload))
}
