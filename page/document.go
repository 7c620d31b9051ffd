// Package page holds the chat page as a headless document. The controller
// mutates it from its event loop; every mutation is published as a Patch so an
// attached browser tab can mirror the state.
package page

import (
	"slices"
	"sort"
	"strings"
	"sync"

	g "maragu.dev/gomponents"
	h "maragu.dev/gomponents/html"
)

// Element ids and classes the controller depends on.
const (
	Body              = "body"
	MessagesContainer = "messagesContainer"
	MessageInput      = "messageInput"
	SendButton        = "sendBtn"
	RoomsList         = "roomsList"
	NewRoomInput      = "newRoomName"
	CreateRoomButton  = "createRoomBtn"
	CurrentRoom       = "currentRoom"
	ActiveUsers       = "activeUsers"
	RoomUsers         = "roomUsers"
	TypingIndicator   = "typingIndicator"
	TypingUsers       = "typingUsers"

	RoomItemClass = "room-item"
	RoomAttr      = "data-room"
)

// Element is one node of the page.
type Element struct {
	Tag     string
	ID      string
	Classes []string
	Attrs   map[string]string
	// HTML is the inner markup, used when the element has no children.
	HTML     string
	Text     string
	Children []*Element
	Value    string
	Disabled bool
}

// Document is the page state. All methods are safe for concurrent use and
// report false when the target element does not exist.
type Document struct {
	mu     sync.RWMutex
	roots  []*Element
	index  map[string]*Element
	parent map[string]*Element
	active string

	subs    map[int]func(Patch)
	nextSub int
}

// New returns a document holding only the body.
func New() *Document {
	d := &Document{
		index:  make(map[string]*Element),
		parent: make(map[string]*Element),
		subs:   make(map[int]func(Patch)),
	}
	d.Register(&Element{Tag: "body", ID: Body})
	return d
}

// Register adds a top-level element and its children. It reports false when
// an element with the same id already exists.
func (d *Document) Register(el *Element) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.index[el.ID]; ok {
		return false
	}
	d.roots = append(d.roots, el)
	d.indexTree(el, nil)
	return true
}

func (d *Document) indexTree(el, parent *Element) {
	d.index[el.ID] = el
	if parent != nil {
		d.parent[el.ID] = parent
	}
	for _, c := range el.Children {
		d.indexTree(c, el)
	}
}

func (d *Document) unindexTree(el *Element) {
	delete(d.index, el.ID)
	delete(d.parent, el.ID)
	if d.active == el.ID {
		d.active = ""
	}
	for _, c := range el.Children {
		d.unindexTree(c)
	}
}

// Has reports whether id is present.
func (d *Document) Has(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	_, ok := d.index[id]
	return ok
}

// Attach subscribes fn and returns a snapshot taken atomically with the
// subscription: fn receives exactly the patches made after the snapshot.
func (d *Document) Attach(fn func(Patch)) ([]Patch, func()) {
	d.mu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	snap := d.snapshotLocked()
	d.mu.Unlock()
	return snap, func() {
		d.mu.Lock()
		delete(d.subs, id)
		d.mu.Unlock()
	}
}

// mutate runs fn under the write lock and publishes the patches it returns.
func (d *Document) mutate(fn func() []Patch) bool {
	d.mu.Lock()
	patches := fn()
	subs := make([]func(Patch), 0, len(d.subs))
	for _, s := range d.subs {
		subs = append(subs, s)
	}
	d.mu.Unlock()
	if patches == nil {
		return false
	}
	for _, p := range patches {
		for _, s := range subs {
			s(p)
		}
	}
	return true
}

// SetText replaces the content of id with escaped text.
func (d *Document) SetText(id, text string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		d.dropChildren(el)
		el.Text = text
		el.HTML = renderString(g.Text(text))
		return []Patch{{Op: OpInner, Target: id, HTML: el.HTML}}
	})
}

// SetHTML replaces the content of id with trusted markup.
func (d *Document) SetHTML(id, markup string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		d.dropChildren(el)
		el.Text = ""
		el.HTML = markup
		return []Patch{{Op: OpInner, Target: id, HTML: markup}}
	})
}

// Append adds child as the last child of id.
func (d *Document) Append(id string, child *Element) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		if _, dup := d.index[child.ID]; dup {
			return nil
		}
		if len(el.Children) == 0 && el.HTML != "" {
			// Mixed content is not tracked; children replace prior markup.
			el.HTML, el.Text = "", ""
			el.Children = append(el.Children, child)
			d.indexTree(child, el)
			return []Patch{{Op: OpInner, Target: id, HTML: outerHTML(child)}}
		}
		el.Children = append(el.Children, child)
		d.indexTree(child, el)
		return []Patch{{Op: OpAppend, Target: id, HTML: outerHTML(child)}}
	})
}

// ReplaceChildren swaps all children of id for children.
func (d *Document) ReplaceChildren(id string, children []*Element) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		d.dropChildren(el)
		el.HTML, el.Text = "", ""
		var b strings.Builder
		for _, c := range children {
			if _, dup := d.index[c.ID]; dup {
				continue
			}
			el.Children = append(el.Children, c)
			d.indexTree(c, el)
			b.WriteString(outerHTML(c))
		}
		return []Patch{{Op: OpInner, Target: id, HTML: b.String()}}
	})
}

func (d *Document) dropChildren(el *Element) {
	for _, c := range el.Children {
		d.unindexTree(c)
	}
	el.Children = nil
}

// Remove detaches id from its parent. Top-level elements cannot be removed.
func (d *Document) Remove(id string) bool {
	return d.mutate(func() []Patch {
		parent, ok := d.parent[id]
		if !ok {
			return nil
		}
		el := d.index[id]
		parent.Children = slices.DeleteFunc(parent.Children, func(c *Element) bool { return c.ID == id })
		d.unindexTree(el)
		return []Patch{{Op: OpRemove, Target: id}}
	})
}

// AddClass adds the missing classes to id.
func (d *Document) AddClass(id string, classes ...string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		for _, c := range classes {
			if !slices.Contains(el.Classes, c) {
				el.Classes = append(el.Classes, c)
			}
		}
		return []Patch{{Op: OpClass, Target: id, Add: classes}}
	})
}

// RemoveClass removes classes from id.
func (d *Document) RemoveClass(id string, classes ...string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		el.Classes = slices.DeleteFunc(el.Classes, func(c string) bool { return slices.Contains(classes, c) })
		return []Patch{{Op: OpClass, Target: id, Remove: classes}}
	})
}

// HasClass reports whether id carries class.
func (d *Document) HasClass(id, class string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	return ok && slices.Contains(el.Classes, class)
}

// SetAttr sets attribute name on id.
func (d *Document) SetAttr(id, name, value string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		if el.Attrs == nil {
			el.Attrs = make(map[string]string)
		}
		el.Attrs[name] = value
		return []Patch{{Op: OpAttr, Target: id, Name: name, Value: value}}
	})
}

// Attr returns attribute name of id.
func (d *Document) Attr(id, name string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	if !ok {
		return "", false
	}
	v, ok := el.Attrs[name]
	return v, ok
}

// SetValue sets the value of an input and pushes it to the page.
func (d *Document) SetValue(id, value string) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		el.Value = value
		return []Patch{{Op: OpValue, Target: id, Value: value}}
	})
}

// SyncValue records a value typed in the page without echoing it back.
func (d *Document) SyncValue(id, value string) bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, ok := d.index[id]
	if ok {
		el.Value = value
	}
	return ok
}

// Value returns the current value of an input.
func (d *Document) Value(id string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	if !ok {
		return "", false
	}
	return el.Value, true
}

// SetDisabled toggles the disabled property of id.
func (d *Document) SetDisabled(id string, disabled bool) bool {
	return d.mutate(func() []Patch {
		el, ok := d.index[id]
		if !ok {
			return nil
		}
		el.Disabled = disabled
		return []Patch{{Op: OpProp, Target: id, Name: "disabled", On: disabled}}
	})
}

// Disabled reports the disabled property of id.
func (d *Document) Disabled(id string) bool {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	return ok && el.Disabled
}

// Focus moves focus to id.
func (d *Document) Focus(id string) bool {
	return d.mutate(func() []Patch {
		if _, ok := d.index[id]; !ok {
			return nil
		}
		d.active = id
		return []Patch{{Op: OpFocus, Target: id}}
	})
}

// Blur removes focus from id.
func (d *Document) Blur(id string) bool {
	return d.mutate(func() []Patch {
		if _, ok := d.index[id]; !ok {
			return nil
		}
		if d.active == id {
			d.active = ""
		}
		return []Patch{{Op: OpBlur, Target: id}}
	})
}

// SyncFocus records the element focused in the page; "" means none.
func (d *Document) SyncFocus(id string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if _, ok := d.index[id]; ok || id == "" {
		d.active = id
	}
}

// Active returns the focused element id, or "".
func (d *Document) Active() string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return d.active
}

// ScrollToEnd scrolls id to its last child.
func (d *Document) ScrollToEnd(id string) bool {
	return d.mutate(func() []Patch {
		if _, ok := d.index[id]; !ok {
			return nil
		}
		return []Patch{{Op: OpScroll, Target: id}}
	})
}

// Play asks the page to play the audio at src.
func (d *Document) Play(src string) {
	d.mutate(func() []Patch {
		return []Patch{{Op: OpPlay, Value: src}}
	})
}

// Text returns the text last set on id with SetText.
func (d *Document) Text(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	if el, ok := d.index[id]; ok {
		return el.Text
	}
	return ""
}

// InnerHTML returns the rendered content of id.
func (d *Document) InnerHTML(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	if !ok {
		return ""
	}
	return innerHTML(el)
}

// OuterHTML returns the rendered element id, or "" when absent.
func (d *Document) OuterHTML(id string) string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	if !ok {
		return ""
	}
	return outerHTML(el)
}

// Children returns the ids of the children of id.
func (d *Document) Children(id string) []string {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[id]
	if !ok {
		return nil
	}
	ids := make([]string, 0, len(el.Children))
	for _, c := range el.Children {
		ids = append(ids, c.ID)
	}
	return ids
}

// FindByAttr returns the id of the first child of parent whose attribute
// name equals value.
func (d *Document) FindByAttr(parent, name, value string) (string, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()
	el, ok := d.index[parent]
	if !ok {
		return "", false
	}
	for _, c := range el.Children {
		if v, ok := c.Attrs[name]; ok && v == value {
			return c.ID, true
		}
	}
	return "", false
}

// snapshotLocked returns patches that rebuild the whole document in a fresh
// page.
func (d *Document) snapshotLocked() []Patch {
	out := make([]Patch, 0, len(d.roots)+4)
	for _, el := range d.roots {
		if el.ID == Body {
			out = append(out, Patch{Op: OpClasses, Target: Body, Value: strings.Join(el.Classes, " ")})
			for _, c := range el.Children {
				out = append(out, Patch{Op: OpAppend, Target: Body, HTML: outerHTML(c)})
			}
			continue
		}
		out = append(out, Patch{Op: OpOuter, Target: el.ID, HTML: outerHTML(el)})
	}
	if d.active != "" {
		out = append(out, Patch{Op: OpFocus, Target: d.active})
	}
	return out
}

func innerHTML(el *Element) string {
	if len(el.Children) == 0 {
		return el.HTML
	}
	var b strings.Builder
	for _, c := range el.Children {
		b.WriteString(outerHTML(c))
	}
	return b.String()
}

func outerHTML(el *Element) string {
	return renderString(elementNode(el))
}

func elementNode(el *Element) g.Node {
	nodes := []g.Node{h.ID(el.ID)}
	if len(el.Classes) > 0 {
		nodes = append(nodes, h.Class(strings.Join(el.Classes, " ")))
	}
	keys := make([]string, 0, len(el.Attrs))
	for k := range el.Attrs {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		nodes = append(nodes, g.Attr(k, el.Attrs[k]))
	}
	if el.Disabled {
		nodes = append(nodes, h.Disabled())
	}
	switch el.Tag {
	case "input":
		nodes = append(nodes, h.Value(el.Value))
	case "textarea":
		nodes = append(nodes, g.Text(el.Value))
	default:
		nodes = append(nodes, g.Raw(innerHTML(el)))
	}
	tag := el.Tag
	if tag == "" {
		tag = "div"
	}
	return g.El(tag, nodes...)
}

func renderString(n g.Node) string {
	var b strings.Builder
	_ = n.Render(&b)
	return b.String()
}
