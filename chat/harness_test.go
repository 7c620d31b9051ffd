package chat

import (
	"context"
	"encoding/json"
	"sync"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/protocol"
	"github.com/gosuda/aniverse-chat/rooms"
)

type emitted struct {
	Event   string
	Payload any
}

type fakeTransport struct {
	mu      sync.Mutex
	emits   []emitted
	handler func(string, json.RawMessage)
}

func (f *fakeTransport) Emit(event string, payload any) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = append(f.emits, emitted{Event: event, Payload: payload})
	return nil
}

func (f *fakeTransport) OnEvent(fn func(string, json.RawMessage)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.handler = fn
}

func (f *fakeTransport) Run(ctx context.Context) error {
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeTransport) sent() []emitted {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]emitted(nil), f.emits...)
}

func (f *fakeTransport) events() []string {
	var out []string
	for _, e := range f.sent() {
		out = append(out, e.Event)
	}
	return out
}

func (f *fakeTransport) reset() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.emits = nil
}

type fakeCreator struct {
	mu    sync.Mutex
	calls []string
	resp  *rooms.CreateResponse
	err   error
	gate  chan struct{}
}

func (f *fakeCreator) CreateRoom(ctx context.Context, name string) (*rooms.CreateResponse, error) {
	f.mu.Lock()
	f.calls = append(f.calls, name)
	gate, resp, err := f.gate, f.resp, f.err
	f.mu.Unlock()
	if gate != nil {
		select {
		case <-gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	return resp, err
}

func (f *fakeCreator) requests() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type memDrafts struct {
	mu   sync.Mutex
	text string
}

func (m *memDrafts) Load() (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.text, nil
}

func (m *memDrafts) Save(text string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.text = text
	return nil
}

func (m *memDrafts) Clear() error { return m.Save("") }

func (m *memDrafts) get() string {
	text, _ := m.Load()
	return text
}

type harness struct {
	t      *testing.T
	c      *Client
	doc    *page.Document
	clk    *clock.Mock
	tr     *fakeTransport
	rc     *fakeCreator
	drafts *memDrafts
}

func testDocument() *page.Document {
	doc := page.New()
	for _, el := range []*page.Element{
		{Tag: "div", ID: page.MessagesContainer},
		{Tag: "textarea", ID: page.MessageInput, Attrs: map[string]string{"rows": "1"}},
		{Tag: "button", ID: page.SendButton, HTML: "Send"},
		{Tag: "div", ID: page.RoomsList},
		{Tag: "input", ID: page.NewRoomInput},
		{Tag: "button", ID: page.CreateRoomButton, HTML: "Create"},
		{Tag: "h2", ID: page.CurrentRoom},
		{Tag: "div", ID: page.ActiveUsers},
		{Tag: "span", ID: page.RoomUsers},
		{Tag: "div", ID: page.TypingIndicator, Classes: []string{"hidden"}},
		{Tag: "span", ID: page.TypingUsers},
	} {
		doc.Register(el)
	}
	return doc
}

func newHarness(t *testing.T, opts ...func(*Config, *Deps)) *harness {
	t.Helper()
	h := &harness{
		t:      t,
		doc:    testDocument(),
		clk:    clock.NewMock(),
		tr:     &fakeTransport{},
		rc:     &fakeCreator{},
		drafts: &memDrafts{},
	}
	cfg := Config{Username: "alice", Rooms: []string{"general", "random"}, ToneURL: "/tone.wav", Clock: h.clk}
	deps := Deps{Doc: h.doc, Transport: h.tr, Rooms: h.rc, Drafts: h.drafts}
	for _, o := range opts {
		o(&cfg, &deps)
	}
	c, err := New(cfg, deps)
	require.NoError(t, err)
	h.c = c

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(func() {
		cancel()
		<-c.Done()
	})
	c.Start(ctx)
	return h
}

// sync waits until everything queued so far has run on the loop.
func (h *harness) sync() {
	h.t.Helper()
	require.True(h.t, h.c.loop.Call(func() {}))
}

func (h *harness) ui(ev UIEvent) {
	h.t.Helper()
	h.c.HandleUI(ev)
	h.sync()
}

func (h *harness) event(name string, payload any) {
	h.t.Helper()
	data, err := json.Marshal(payload)
	require.NoError(h.t, err)
	h.c.HandleEvent(name, data)
	h.sync()
}

func (h *harness) typeMessage(text string) {
	h.ui(UIEvent{Type: UIInput, Target: page.MessageInput, Value: text})
}

func (h *harness) typeRoomName(text string) {
	h.ui(UIEvent{Type: UIInput, Target: page.NewRoomInput, Value: text})
}

// onLoop evaluates cond on the loop goroutine.
func (h *harness) onLoop(cond func() bool) bool {
	var ok bool
	h.c.loop.Call(func() { ok = cond() })
	return ok
}

func (h *harness) eventually(cond func() bool, msg string) {
	h.t.Helper()
	require.Eventually(h.t, func() bool { return h.onLoop(cond) }, time.Second, 5*time.Millisecond, msg)
}

func (h *harness) notifications() []string {
	var out []string
	for _, id := range h.doc.Children(page.Body) {
		if h.doc.HasClass(id, "notification") {
			out = append(out, h.doc.Text(id))
		}
	}
	return out
}

func (h *harness) roomEntries(name string) int {
	n := 0
	for _, id := range h.doc.Children(page.RoomsList) {
		if v, _ := h.doc.Attr(id, page.RoomAttr); v == name {
			n++
		}
	}
	return n
}

func roomPayload(room string) protocol.RoomPayload {
	return protocol.RoomPayload{Room: room}
}
