package render

import (
	"fmt"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"

	"github.com/gosuda/aniverse-chat/page"
)

var activeRoomClasses = []string{"bg-purple-600", "active"}

// AddRoom appends an entry for name to the room list unless one exists.
// It reports whether an entry was added.
func (r *Renderer) AddRoom(name string) bool {
	if _, ok := r.doc.FindByAttr(page.RoomsList, page.RoomAttr, name); ok {
		return false
	}
	el := &page.Element{
		Tag:     "div",
		ID:      newID("room"),
		Classes: []string{page.RoomItemClass, "cursor-pointer", "p-2", "rounded-lg", "hover:bg-white/10", "transition-colors", "duration-300", "animate-slide-in"},
		Attrs:   map[string]string{page.RoomAttr: name},
		HTML:    roomEntry(name, r.counts[name]),
	}
	return r.doc.Append(page.RoomsList, el)
}

func roomEntry(name string, count int) string {
	return renderString(h.Div(h.Class("flex items-center justify-between"),
		h.Span(h.Class("text-white text-sm"), g.Text("# "+name)),
		h.Span(h.Class("text-gray-400 text-xs room-count"), g.Text(FormatCount(count)+" msgs")),
	))
}

// SelectRoom moves the active highlight to the entry for name.
func (r *Renderer) SelectRoom(name string) {
	for _, id := range r.doc.Children(page.RoomsList) {
		if r.doc.HasClass(id, "active") {
			r.doc.RemoveClass(id, activeRoomClasses...)
		}
	}
	if id, ok := r.doc.FindByAttr(page.RoomsList, page.RoomAttr, name); ok {
		r.doc.AddClass(id, activeRoomClasses...)
	}
}

// BumpRoomCount increments the message counter of name and refreshes its badge.
func (r *Renderer) BumpRoomCount(name string) int {
	r.counts[name]++
	n := r.counts[name]
	if id, ok := r.doc.FindByAttr(page.RoomsList, page.RoomAttr, name); ok {
		r.doc.SetHTML(id, roomEntry(name, n))
	}
	return n
}

// FormatCount compacts n for the room badge: 999, 1.2k, 3.4m.
func FormatCount(n int) string {
	switch {
	case n < 1000:
		return fmt.Sprint(n)
	case n < 1_000_000:
		return fmt.Sprintf("%.1fk", float64(n)/1000)
	default:
		return fmt.Sprintf("%.1fm", float64(n)/1_000_000)
	}
}
