package chat

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/protocol"
)

func TestDispatchTableCoversInboundEvents(t *testing.T) {
	h := newHarness(t)
	for _, ev := range []string{
		protocol.EventConnect, protocol.EventDisconnect, protocol.EventMessage,
		protocol.EventUserJoined, protocol.EventUserLeft, protocol.EventRoomJoined,
		protocol.EventRoomLeft, protocol.EventUserTyping, protocol.EventUserStopTyping,
		protocol.EventError,
	} {
		assert.Contains(t, h.c.dispatch, ev)
	}
}

func TestConnectAndDisconnect(t *testing.T) {
	h := newHarness(t)

	h.event(protocol.EventConnect, nil)
	assert.Equal(t, []emitted{{Event: protocol.EventJoinRoom, Payload: roomPayload("general")}}, h.tr.sent())

	h.event(protocol.EventDisconnect, nil)
	assert.Equal(t, []string{"Connected to chat server", "Disconnected from chat server"}, h.notifications())
}

func TestInboundMessage(t *testing.T) {
	h := newHarness(t)
	var played []string
	h.doc.Attach(func(p page.Patch) {
		if p.Op == page.OpPlay {
			played = append(played, p.Value)
		}
	})

	h.event(protocol.EventMessage, protocol.Message{ID: 1, Content: "<script>alert(1)</script>", Username: "bob", Timestamp: "12:00:00"})

	ids := h.doc.Children(page.MessagesContainer)
	require.Len(t, ids, 1)
	out := h.doc.OuterHTML(ids[0])
	assert.Contains(t, out, "&lt;script&gt;alert(1)&lt;/script&gt;")
	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "12:00:00")
	assert.Equal(t, []string{"/tone.wav"}, played)

	gen, _ := h.doc.FindByAttr(page.RoomsList, page.RoomAttr, "general")
	assert.Contains(t, h.doc.InnerHTML(gen), "1 msgs")

	h.clk.Add(time.Minute)
	h.sync()
	assert.Len(t, h.doc.Children(page.MessagesContainer), 1, "server messages stay")
}

func TestPresence(t *testing.T) {
	h := newHarness(t)

	h.event(protocol.EventUserJoined, protocol.PresenceEvent{
		Username:    "bob",
		ActiveUsers: []protocol.ActiveUser{{Username: "alice", SID: "1"}, {Username: "bob", SID: "2"}},
	})
	assert.Len(t, h.doc.Children(page.ActiveUsers), 2)

	h.event(protocol.EventUserJoined, protocol.PresenceEvent{
		Username:    "alice",
		ActiveUsers: []protocol.ActiveUser{{Username: "alice"}, {Username: "bob"}},
	})
	h.event(protocol.EventUserLeft, protocol.PresenceEvent{
		Username:    "bob",
		ActiveUsers: []protocol.ActiveUser{{Username: "alice"}},
	})

	assert.Len(t, h.doc.Children(page.ActiveUsers), 1)
	assert.Equal(t, []string{"bob joined the chat", "bob left the chat"}, h.notifications())
}

func TestRoomAcks(t *testing.T) {
	h := newHarness(t)
	h.c.loop.Call(h.c.view.ShowLoading)

	h.event(protocol.EventRoomJoined, protocol.RoomJoinedEvent{Room: "general", Username: "alice", ActiveUsers: []string{"alice", "bob", "carol"}})
	assert.Equal(t, "Users in room: 3", h.doc.Text(page.RoomUsers))
	assert.Empty(t, h.doc.InnerHTML(page.MessagesContainer))

	h.event(protocol.EventRoomLeft, protocol.RoomEvent{Room: "random", Username: "alice"})
	assert.Equal(t, []string{"Joined room: general", "Left room: random"}, h.notifications())
}

func TestTypingIndicatorScenario(t *testing.T) {
	h := newHarness(t)

	h.event(protocol.EventUserTyping, protocol.RoomEvent{Room: "general", Username: "Alice"})
	assert.Equal(t, "Alice", h.doc.Text(page.TypingUsers))
	assert.False(t, h.doc.HasClass(page.TypingIndicator, "hidden"))

	h.clk.Add(1200 * time.Millisecond)
	h.event(protocol.EventUserStopTyping, protocol.RoomEvent{Room: "general", Username: "Alice"})
	assert.True(t, h.doc.HasClass(page.TypingIndicator, "hidden"))
}

func TestTypingSetOrderAndLocalUser(t *testing.T) {
	h := newHarness(t)

	h.event(protocol.EventUserTyping, protocol.RoomEvent{Username: "carol"})
	h.event(protocol.EventUserTyping, protocol.RoomEvent{Username: "alice"})
	h.event(protocol.EventUserTyping, protocol.RoomEvent{Username: "bob"})
	h.event(protocol.EventUserTyping, protocol.RoomEvent{Username: "carol"})

	assert.Equal(t, "carol, bob", h.doc.Text(page.TypingUsers))
	assert.True(t, h.onLoop(func() bool { return len(h.c.session.Typing()) == 2 }))

	h.event("user_stopped_typing", protocol.RoomEvent{Username: "carol"})
	assert.Equal(t, "bob", h.doc.Text(page.TypingUsers))
}

func TestErrorEvent(t *testing.T) {
	h := newHarness(t)

	h.event(protocol.EventError, protocol.ErrorEvent{Message: "boom"})
	h.c.HandleEvent(protocol.EventError, json.RawMessage(`"plain string"`))
	h.sync()

	assert.Equal(t, []string{"Connection error occurred", "Connection error occurred"}, h.notifications())
	assert.Empty(t, h.tr.sent(), "no retry from the controller")
}

func TestUnknownAndBadEventsAreIgnored(t *testing.T) {
	h := newHarness(t)

	h.c.HandleEvent("server_restart", json.RawMessage(`{}`))
	h.c.HandleEvent(protocol.EventMessage, json.RawMessage(`{not json`))
	h.c.HandleEvent(protocol.EventUserJoined, json.RawMessage(`[1,2]`))
	h.sync()

	assert.Empty(t, h.doc.Children(page.MessagesContainer))
	assert.Empty(t, h.notifications())
}
