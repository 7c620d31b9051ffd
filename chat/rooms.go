package chat

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/protocol"
	"github.com/gosuda/aniverse-chat/render"
	"github.com/gosuda/aniverse-chat/rooms"
)

const createFailed = "Failed to create room"

func (c *Client) createRoom() {
	if c.session.Creating() {
		return
	}
	raw, _ := c.doc.Value(page.NewRoomInput)
	name, err := rooms.Validate(raw)
	switch {
	case errors.Is(err, rooms.ErrEmptyName):
		c.rejectRoomName("Please enter a room name")
		return
	case errors.Is(err, rooms.ErrNameTooShort):
		c.rejectRoomName(fmt.Sprintf("Room name must be at least %d characters", rooms.MinNameLength))
		return
	case err != nil:
		c.rejectRoomName(createFailed)
		return
	}

	c.session.SetCreating(true)
	prev := c.view.ButtonBusy(page.CreateRoomButton)
	ctx := c.ctx
	go func() {
		resp, err := c.rooms.CreateRoom(ctx, name)
		c.loop.Enqueue(func() { c.finishCreate(name, prev, resp, err) })
	}()
}

func (c *Client) rejectRoomName(msg string) {
	c.view.Notify(msg, render.Error)
	c.doc.AddClass(page.NewRoomInput, "error")
}

func (c *Client) finishCreate(name, button string, resp *rooms.CreateResponse, err error) {
	defer func() {
		c.view.ButtonRestore(page.CreateRoomButton, button)
		c.session.SetCreating(false)
	}()

	if err != nil || resp == nil {
		log.Warn().Err(err).Str("room", name).Msg("[chat] create room failed")
		c.rejectRoomName(createFailed)
		return
	}
	if !resp.Success {
		msg := render.PlainText(resp.Message)
		if msg == "" {
			msg = createFailed
		}
		c.rejectRoomName(msg)
		return
	}

	room := resp.Name
	if room == "" {
		room = name
	}
	log.Info().Msgf("[chat] created room %s (id=%d)", room, resp.RoomID)
	c.view.AddRoom(room)
	c.doc.SetValue(page.NewRoomInput, "")
	c.doc.RemoveClass(page.NewRoomInput, "error", "success")
	c.switchRoom(room)
	c.view.Notify(`Room "`+room+`" created successfully`, render.Success)
}

// switchRoom leaves the current room and joins room in one step.
func (c *Client) switchRoom(room string) {
	old := c.session.Room()
	if room == "" || room == old {
		return
	}
	c.view.ShowLoading()
	c.emit(protocol.EventLeaveRoom, protocol.RoomPayload{Room: old})
	c.session.SetRoom(room)
	c.view.UpdateCurrentRoom(room)
	c.emit(protocol.EventJoinRoom, protocol.RoomPayload{Room: room})
	c.view.SelectRoom(room)
	c.session.ClearTyping()
	c.view.UpdateTyping(nil)
}
