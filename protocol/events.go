package protocol

import "encoding/json"

// Outbound events, emitted by the client.
const (
	EventJoinRoom    = "join_room"
	EventLeaveRoom   = "leave_room"
	EventSendMessage = "send_message"
	EventTyping      = "typing"
	EventStopTyping  = "stop_typing"
)

// Inbound events. Connect, disconnect and error are also raised locally by the
// transport when the connection changes state.
const (
	EventConnect        = "connect"
	EventDisconnect     = "disconnect"
	EventMessage        = "message"
	EventUserJoined     = "user_joined"
	EventUserLeft       = "user_left"
	EventRoomJoined     = "room_joined"
	EventRoomLeft       = "room_left"
	EventUserTyping     = "user_typing"
	EventUserStopTyping = "user_stop_typing"
	EventError          = "error"
)

// Envelope wraps every frame exchanged over the socket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// NewEnvelope marshals payload into an envelope for event.
func NewEnvelope(event string, payload any) (Envelope, error) {
	env := Envelope{Event: event}
	if payload == nil {
		return env, nil
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return env, err
	}
	env.Data = data
	return env, nil
}

// ParseEnvelope decodes a raw frame.
func ParseEnvelope(frame []byte) (Envelope, error) {
	var env Envelope
	err := json.Unmarshal(frame, &env)
	return env, err
}

// RoomPayload carries the room name for join, leave and typing signals.
type RoomPayload struct {
	Room string `json:"room"`
}

// SendMessagePayload is emitted when the local user sends text to a room.
type SendMessagePayload struct {
	Room    string `json:"room"`
	Message string `json:"message"`
}

// Message is a chat message delivered by the server.
type Message struct {
	ID        int64  `json:"id,omitempty"`
	Content   string `json:"content"`
	Timestamp string `json:"timestamp"`
	Username  string `json:"username"`
	RoomID    int64  `json:"room_id,omitempty"`
}

// ActiveUser is one entry of the server-wide presence list.
type ActiveUser struct {
	Username string `json:"username"`
	SID      string `json:"sid,omitempty"`
}

// PresenceEvent is delivered for user_joined and user_left.
type PresenceEvent struct {
	Username    string       `json:"username"`
	ActiveUsers []ActiveUser `json:"active_users"`
}

// Names returns the usernames of the active users in order.
func (p PresenceEvent) Names() []string {
	names := make([]string, 0, len(p.ActiveUsers))
	for _, u := range p.ActiveUsers {
		names = append(names, u.Username)
	}
	return names
}

// RoomJoinedEvent acknowledges a join; ActiveUsers lists the users in the room.
type RoomJoinedEvent struct {
	Room        string   `json:"room"`
	Username    string   `json:"username"`
	ActiveUsers []string `json:"active_users"`
}

// RoomEvent is delivered for room_left, user_typing and user_stop_typing.
type RoomEvent struct {
	Room     string `json:"room"`
	Username string `json:"username"`
}

// ErrorEvent is delivered when the server or the transport reports a failure.
type ErrorEvent struct {
	Message string `json:"message"`
}
