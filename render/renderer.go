package render

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/gosuda/aniverse-chat/page"
)

const (
	TempMessageTTL  = 2 * time.Second
	NotificationTTL = 3 * time.Second
)

// Scheduler runs fn once after d on the caller's event loop.
type Scheduler interface {
	After(d time.Duration, fn func())
}

// Message is one chat line to display. Temp marks a local optimistic echo.
type Message struct {
	Content   string
	Username  string
	Timestamp string
	Temp      bool
}

// Renderer turns chat events into document mutations. It must only be used
// from the event loop that owns the document.
type Renderer struct {
	doc     *page.Document
	sched   Scheduler
	self    string
	toneURL string
	counts  map[string]int
}

// New returns a renderer for the local user self. toneURL is played on
// incoming messages; an empty URL disables the tone.
func New(doc *page.Document, sched Scheduler, self, toneURL string) *Renderer {
	return &Renderer{
		doc:     doc,
		sched:   sched,
		self:    self,
		toneURL: toneURL,
		counts:  make(map[string]int),
	}
}

func newID(prefix string) string {
	return prefix + "-" + uuid.NewString()
}

// AppendMessage adds m to the message list and scrolls to it. Temp messages
// are removed after TempMessageTTL whether or not the server echoed them.
func (r *Renderer) AppendMessage(m Message) (string, bool) {
	id := newID("msg")
	own := m.Username == r.self

	align, bubble, stamp := "justify-start", "bg-white/10 text-white", "text-gray-400"
	if own {
		align, bubble, stamp = "justify-end", "bg-purple-600 text-white", "text-purple-200"
	}
	bubbleClass := "max-w-xs lg:max-w-md px-4 py-2 rounded-lg message-bubble " + bubble
	if m.Temp {
		bubbleClass += " opacity-70"
	}

	inner := h.Div(h.Class("flex "+align),
		h.Div(h.Class(bubbleClass),
			g.If(!own, h.Div(h.Class("text-xs text-gray-400 mb-1"), g.Text(m.Username))),
			h.Div(h.Class("text-sm"), g.Text(m.Content)),
			h.Div(h.Class("text-xs "+stamp+" mt-1 message-timestamp"), g.Text(m.Timestamp)),
		),
	)
	el := &page.Element{
		Tag:     "div",
		ID:      id,
		Classes: []string{"message-item", "animate-fade-in"},
		HTML:    renderString(inner),
	}
	if !r.doc.Append(page.MessagesContainer, el) {
		return "", false
	}
	r.ScrollToBottom()

	if m.Temp {
		r.sched.After(TempMessageTTL, func() { r.doc.Remove(id) })
	}
	return id, true
}

// ScrollToBottom scrolls the message list to its last entry.
func (r *Renderer) ScrollToBottom() {
	r.doc.ScrollToEnd(page.MessagesContainer)
}

const loadingMarkup = `<div class="text-center text-gray-400"><div class="loading"></div> Loading messages...</div>`

// ShowLoading replaces the message list with a loading placeholder.
func (r *Renderer) ShowLoading() {
	r.doc.SetHTML(page.MessagesContainer, loadingMarkup)
}

// ClearLoading drops the placeholder if nothing replaced it yet.
func (r *Renderer) ClearLoading() {
	if r.doc.InnerHTML(page.MessagesContainer) == loadingMarkup {
		r.doc.SetHTML(page.MessagesContainer, "")
	}
}

// UpdateActiveUsers replaces the presence panel with one entry per user.
func (r *Renderer) UpdateActiveUsers(users []string) {
	if !r.doc.Has(page.ActiveUsers) {
		return
	}
	entries := make([]*page.Element, 0, len(users))
	for _, u := range users {
		entries = append(entries, &page.Element{
			Tag:     "div",
			ID:      newID("user"),
			Classes: []string{"flex", "items-center", "space-x-2", "p-2", "rounded-lg", "animate-slide-in"},
			HTML: renderString(g.Group{
				h.Div(h.Class("w-2 h-2 bg-green-400 rounded-full animate-pulse online-indicator")),
				h.Span(h.Class("text-white text-sm"), g.Text(u)),
			}),
		})
	}
	r.doc.ReplaceChildren(page.ActiveUsers, entries)
}

// UpdateRoomUsers shows how many users are in the current room.
func (r *Renderer) UpdateRoomUsers(n int) {
	r.doc.SetText(page.RoomUsers, fmt.Sprintf("Users in room: %d", n))
}

// UpdateTyping shows who is typing, or hides the indicator for an empty list.
func (r *Renderer) UpdateTyping(users []string) {
	if !r.doc.Has(page.TypingIndicator) || !r.doc.Has(page.TypingUsers) {
		return
	}
	if len(users) == 0 {
		r.doc.AddClass(page.TypingIndicator, "hidden")
		return
	}
	r.doc.SetText(page.TypingUsers, strings.Join(users, ", "))
	r.doc.RemoveClass(page.TypingIndicator, "hidden")
	r.doc.AddClass(page.TypingIndicator, "animate-fade-in")
}

// UpdateCurrentRoom sets the room label.
func (r *Renderer) UpdateCurrentRoom(room string) {
	r.doc.SetText(page.CurrentRoom, "# "+room)
}

// PlayTone plays the incoming message cue. Best effort.
func (r *Renderer) PlayTone() {
	if r.toneURL == "" {
		return
	}
	r.doc.Play(r.toneURL)
}

// ButtonBusy disables id and swaps its content for a spinner. It returns the
// previous content for ButtonRestore.
func (r *Renderer) ButtonBusy(id string) string {
	prev := r.doc.InnerHTML(id)
	r.doc.SetHTML(id, `<div class="loading"></div>`)
	r.doc.SetDisabled(id, true)
	return prev
}

// ButtonRestore re-enables id with its original content.
func (r *Renderer) ButtonRestore(id, content string) {
	r.doc.SetHTML(id, content)
	r.doc.SetDisabled(id, false)
}

func renderString(n g.Node) string {
	var b strings.Builder
	_ = n.Render(&b)
	return b.String()
}
