package chat

import (
	"strconv"
	"strings"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/protocol"
	"github.com/gosuda/aniverse-chat/render"
)

// UI event types forwarded by the page.
const (
	UIClick    = "click"
	UIKeypress = "keypress"
	UIKeydown  = "keydown"
	UIInput    = "input"
	UIFocus    = "focus"
	UIBlur     = "blur"
)

const maxInputRows = 6

// UIEvent is a DOM event reported by an attached page. Value carries the
// target's value for inputs, Room the data-room of a clicked room entry and
// Active the focused element id when the event fired.
type UIEvent struct {
	Type   string `json:"type"`
	Target string `json:"target,omitempty"`
	Key    string `json:"key,omitempty"`
	Shift  bool   `json:"shift,omitempty"`
	Ctrl   bool   `json:"ctrl,omitempty"`
	Meta   bool   `json:"meta,omitempty"`
	Value  string `json:"value,omitempty"`
	Room   string `json:"room,omitempty"`
	Active string `json:"active,omitempty"`
}

// carriesValue reports whether ev holds the current value of a text field.
// Focus and click events are sent without one.
func carriesValue(ev UIEvent) bool {
	if ev.Target != page.MessageInput && ev.Target != page.NewRoomInput {
		return false
	}
	switch ev.Type {
	case UIInput, UIKeypress, UIBlur:
		return true
	}
	return false
}

func (c *Client) route(ev UIEvent) {
	if carriesValue(ev) {
		c.doc.SyncValue(ev.Target, ev.Value)
	}

	switch ev.Type {
	case UIClick:
		c.onClick(ev)
	case UIKeypress:
		if ev.Key != "Enter" {
			return
		}
		switch ev.Target {
		case page.NewRoomInput:
			c.createRoom()
		case page.MessageInput:
			if !ev.Shift {
				c.sendMessage()
			}
		}
	case UIInput:
		switch ev.Target {
		case page.NewRoomInput:
			c.styleRoomName(ev.Value)
		case page.MessageInput:
			c.onMessageInput(ev.Value)
		}
	case UIFocus:
		c.doc.SyncFocus(ev.Target)
	case UIBlur:
		if c.doc.Active() == ev.Target {
			c.doc.SyncFocus("")
		}
		if ev.Target == page.MessageInput {
			c.emit(protocol.EventStopTyping, protocol.RoomPayload{Room: c.session.Room()})
		}
	case UIKeydown:
		c.doc.SyncFocus(ev.Active)
		c.onShortcut(ev)
	default:
		log.Debug().Str("type", ev.Type).Msg("[chat] ignoring ui event")
	}
}

func (c *Client) onClick(ev UIEvent) {
	switch ev.Target {
	case page.CreateRoomButton:
		c.createRoom()
		return
	case page.SendButton:
		c.sendMessage()
		return
	}
	room := ev.Room
	if room == "" && c.doc.HasClass(ev.Target, page.RoomItemClass) {
		room, _ = c.doc.Attr(ev.Target, page.RoomAttr)
	}
	if room != "" {
		c.switchRoom(room)
	}
}

func (c *Client) onShortcut(ev UIEvent) {
	switch {
	case (ev.Ctrl || ev.Meta) && ev.Key == "k":
		c.doc.Focus(page.MessageInput)
	case ev.Key == "Escape" && c.doc.Active() == page.MessageInput:
		c.doc.SetValue(page.MessageInput, "")
		c.resize("")
		c.doc.Blur(page.MessageInput)
	}
}

func (c *Client) styleRoomName(value string) {
	if strings.TrimSpace(value) != "" {
		c.doc.RemoveClass(page.NewRoomInput, "error")
		c.doc.AddClass(page.NewRoomInput, "success")
		return
	}
	c.doc.RemoveClass(page.NewRoomInput, "success")
}

func (c *Client) onMessageInput(value string) {
	c.resize(value)
	room := c.session.Room()
	c.emit(protocol.EventTyping, protocol.RoomPayload{Room: room})
	c.session.armDebounce(func(seq uint64) *clock.Timer {
		return c.loop.Timer(TypingDebounce, func() {
			if !c.session.debounceCurrent(seq) {
				return
			}
			c.session.debounce = nil
			c.emit(protocol.EventStopTyping, protocol.RoomPayload{Room: room})
		})
	})
	c.saveDraft(value)
}

func (c *Client) sendMessage() {
	value, _ := c.doc.Value(page.MessageInput)
	content := strings.TrimSpace(value)
	if content == "" {
		return
	}
	room := c.session.Room()
	c.view.AppendMessage(render.Message{
		Content:   content,
		Username:  c.session.Username(),
		Timestamp: c.loop.Now().Format("15:04:05"),
		Temp:      true,
	})
	c.emit(protocol.EventSendMessage, protocol.SendMessagePayload{Room: room, Message: content})

	c.doc.SetValue(page.MessageInput, "")
	c.resize("")
	c.emit(protocol.EventStopTyping, protocol.RoomPayload{Room: room})
	c.session.cancelDebounce()
	c.clearDraft()
}

// resize sets the textarea rows to the line count of value.
func (c *Client) resize(value string) {
	rows := min(max(strings.Count(value, "\n")+1, 1), maxInputRows)
	want := strconv.Itoa(rows)
	if cur, ok := c.doc.Attr(page.MessageInput, "rows"); ok && cur == want {
		return
	}
	c.doc.SetAttr(page.MessageInput, "rows", want)
}
