package chat

import (
	"encoding/json"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/protocol"
	"github.com/gosuda/aniverse-chat/render"
)

// handlers maps every inbound event name to its effect on the page.
func (c *Client) handlers() map[string]func(json.RawMessage) error {
	m := map[string]func(json.RawMessage) error{
		protocol.EventConnect:        c.onConnect,
		protocol.EventDisconnect:     c.onDisconnect,
		protocol.EventMessage:        c.onMessage,
		protocol.EventUserJoined:     c.onUserJoined,
		protocol.EventUserLeft:       c.onUserLeft,
		protocol.EventRoomJoined:     c.onRoomJoined,
		protocol.EventRoomLeft:       c.onRoomLeft,
		protocol.EventUserTyping:     c.onUserTyping,
		protocol.EventUserStopTyping: c.onUserStopTyping,
		protocol.EventError:          c.onError,
	}
	// Some servers spell the stop event in the past tense.
	m["user_stopped_typing"] = c.onUserStopTyping
	return m
}

// Dispatch runs the handler registered for event. It must be called on the
// loop; unknown events and bad payloads are logged and dropped.
func (c *Client) Dispatch(event string, data json.RawMessage) {
	h, ok := c.dispatch[event]
	if !ok {
		log.Debug().Str("event", event).Msg("[chat] unhandled event")
		return
	}
	if err := h(data); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("[chat] bad event payload")
	}
}

func decode[T any](data json.RawMessage) (T, error) {
	var v T
	if len(data) == 0 {
		return v, nil
	}
	if err := json.Unmarshal(data, &v); err != nil {
		return v, fmt.Errorf("decode payload: %w", err)
	}
	return v, nil
}

func (c *Client) onConnect(json.RawMessage) error {
	log.Info().Msgf("[chat] connected as %s", c.session.Username())
	c.view.Notify("Connected to chat server", render.Success)
	c.emit(protocol.EventJoinRoom, protocol.RoomPayload{Room: c.session.Room()})
	return nil
}

func (c *Client) onDisconnect(json.RawMessage) error {
	log.Info().Msg("[chat] disconnected")
	c.view.Notify("Disconnected from chat server", render.Error)
	return nil
}

func (c *Client) onMessage(data json.RawMessage) error {
	m, err := decode[protocol.Message](data)
	if err != nil {
		return err
	}
	c.view.AppendMessage(render.Message{
		Content:   m.Content,
		Username:  m.Username,
		Timestamp: m.Timestamp,
	})
	c.view.BumpRoomCount(c.session.Room())
	c.view.PlayTone()
	return nil
}

func (c *Client) onUserJoined(data json.RawMessage) error {
	ev, err := decode[protocol.PresenceEvent](data)
	if err != nil {
		return err
	}
	c.view.UpdateActiveUsers(ev.Names())
	if ev.Username != c.session.Username() {
		c.view.Notify(ev.Username+" joined the chat", render.Info)
	}
	return nil
}

func (c *Client) onUserLeft(data json.RawMessage) error {
	ev, err := decode[protocol.PresenceEvent](data)
	if err != nil {
		return err
	}
	c.view.UpdateActiveUsers(ev.Names())
	if ev.Username != c.session.Username() {
		c.view.Notify(ev.Username+" left the chat", render.Info)
	}
	return nil
}

func (c *Client) onRoomJoined(data json.RawMessage) error {
	ev, err := decode[protocol.RoomJoinedEvent](data)
	if err != nil {
		return err
	}
	c.view.UpdateRoomUsers(len(ev.ActiveUsers))
	c.view.Notify("Joined room: "+ev.Room, render.Success)
	c.view.ClearLoading()
	return nil
}

func (c *Client) onRoomLeft(data json.RawMessage) error {
	ev, err := decode[protocol.RoomEvent](data)
	if err != nil {
		return err
	}
	c.view.Notify("Left room: "+ev.Room, render.Info)
	return nil
}

func (c *Client) onUserTyping(data json.RawMessage) error {
	ev, err := decode[protocol.RoomEvent](data)
	if err != nil {
		return err
	}
	if c.session.AddTyping(ev.Username) {
		c.view.UpdateTyping(c.session.Typing())
	}
	return nil
}

func (c *Client) onUserStopTyping(data json.RawMessage) error {
	ev, err := decode[protocol.RoomEvent](data)
	if err != nil {
		return err
	}
	if c.session.RemoveTyping(ev.Username) {
		c.view.UpdateTyping(c.session.Typing())
	}
	return nil
}

func (c *Client) onError(data json.RawMessage) error {
	ev, err := decode[protocol.ErrorEvent](data)
	if err != nil {
		// The notification is shown even when the payload is not an object.
		log.Debug().Err(err).Msg("[chat] error payload")
	}
	log.Warn().Str("message", ev.Message).Msg("[chat] connection error")
	c.view.Notify("Connection error occurred", render.Error)
	return nil
}
