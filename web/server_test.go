package web

import (
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/gosuda/aniverse-chat/chat"
	"github.com/gosuda/aniverse-chat/page"
)

type sink struct {
	mu     sync.Mutex
	events []chat.UIEvent
}

func (s *sink) HandleUI(ev chat.UIEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func (s *sink) got() []chat.UIEvent {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]chat.UIEvent(nil), s.events...)
}

func newTestServer(t *testing.T) (*Server, *page.Document, *sink, *httptest.Server) {
	t.Helper()
	doc := NewDocument()
	sk := &sink{}
	s := NewServer("test", doc, sk)
	srv := httptest.NewServer(s)
	t.Cleanup(func() {
		s.Close()
		srv.Close()
	})
	return s, doc, sk, srv
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	require.NoError(t, err)
	defer resp.Body.Close()
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, string(body)
}

func TestDocumentHasPageElements(t *testing.T) {
	doc := NewDocument()
	for _, id := range []string{
		page.MessagesContainer, page.MessageInput, page.SendButton, page.RoomsList,
		page.NewRoomInput, page.CreateRoomButton, page.CurrentRoom, page.ActiveUsers,
		page.RoomUsers, page.TypingIndicator, page.TypingUsers,
	} {
		assert.True(t, doc.Has(id), id)
	}
	assert.True(t, doc.HasClass(page.TypingIndicator, "hidden"))
}

func TestIndexRendersDocument(t *testing.T) {
	_, doc, _, srv := newTestServer(t)
	doc.SetText(page.CurrentRoom, "# <general>")

	resp, body := get(t, srv.URL+"/")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Contains(t, resp.Header.Get("Content-Type"), "text/html")
	assert.Contains(t, body, `id="messagesContainer"`)
	assert.Contains(t, body, `id="sendBtn"`)
	assert.Contains(t, body, "# &lt;general&gt;")
	assert.NotContains(t, body, "# <general>")
}

func TestToneAndHealth(t *testing.T) {
	_, _, _, srv := newTestServer(t)

	resp, body := get(t, srv.URL+"/tone.wav")
	assert.Equal(t, "audio/wav", resp.Header.Get("Content-Type"))
	assert.True(t, strings.HasPrefix(body, "RIFF"))

	resp, body = get(t, srv.URL+"/healthz")
	assert.Equal(t, http.StatusOK, resp.StatusCode)
	assert.Equal(t, "ok", body)
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	return conn
}

func TestSocketSnapshotThenPatches(t *testing.T) {
	_, doc, sk, srv := newTestServer(t)
	doc.SetText(page.CurrentRoom, "# general")
	conn := dial(t, srv)

	var snap []page.Patch
	require.NoError(t, conn.ReadJSON(&snap))
	assert.Contains(t, snap, page.Patch{Op: page.OpOuter, Target: page.CurrentRoom, HTML: doc.OuterHTML(page.CurrentRoom)})

	doc.SetText(page.RoomUsers, "Users in room: 2")
	var p page.Patch
	require.NoError(t, conn.ReadJSON(&p))
	assert.Equal(t, page.Patch{Op: page.OpInner, Target: page.RoomUsers, HTML: "Users in room: 2"}, p)

	require.NoError(t, conn.WriteJSON(chat.UIEvent{Type: chat.UIInput, Target: page.MessageInput, Value: "hey"}))
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte("{broken")))
	require.NoError(t, conn.WriteJSON(chat.UIEvent{Type: chat.UIClick, Target: page.SendButton}))

	require.Eventually(t, func() bool { return len(sk.got()) == 2 }, 2*time.Second, 10*time.Millisecond)
	assert.Equal(t, chat.UIEvent{Type: chat.UIInput, Target: page.MessageInput, Value: "hey"}, sk.got()[0])
	assert.Equal(t, page.SendButton, sk.got()[1].Target)
}

func TestCloseDisconnectsTabs(t *testing.T) {
	s, _, _, srv := newTestServer(t)
	conn := dial(t, srv)

	var snap []page.Patch
	require.NoError(t, conn.ReadJSON(&snap))

	s.Close()
	_, _, err := conn.ReadMessage()
	assert.Error(t, err)
}
