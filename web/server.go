// Package web serves the chat page to local browser tabs. Tabs render the
// document state sent over /ws and report their DOM events back.
package web

import (
	"encoding/json"
	"html/template"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/chat"
	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/render"
)

const (
	writeWait   = 10 * time.Second
	patchBuffer = 256
)

// EventSink receives DOM events from attached tabs.
type EventSink interface {
	HandleUI(ev chat.UIEvent)
}

type Server struct {
	name   string
	doc    *page.Document
	sink   EventSink
	router chi.Router

	mu    sync.Mutex
	conns map[*tab]struct{}
	wg    sync.WaitGroup
}

func NewServer(name string, doc *page.Document, sink EventSink) *Server {
	s := &Server{
		name:  name,
		doc:   doc,
		sink:  sink,
		conns: make(map[*tab]struct{}),
	}
	r := chi.NewRouter()
	r.Get("/", s.serveIndex)
	r.Get("/ws", s.serveWS)
	r.Get("/tone.wav", serveTone)
	r.Get("/healthz", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = w.Write([]byte("ok"))
	})
	s.router = r
	return s
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.router.ServeHTTP(w, r)
}

func (s *Server) serveIndex(w http.ResponseWriter, r *http.Request) {
	els := make(map[string]template.HTML)
	for _, id := range []string{
		page.CurrentRoom, page.RoomUsers, page.RoomsList, page.NewRoomInput, page.CreateRoomButton,
		page.ActiveUsers, page.MessagesContainer, page.TypingIndicator, page.MessageInput, page.SendButton,
	} {
		// Markup comes from the document, which escapes all text it holds.
		els[id] = template.HTML(s.doc.OuterHTML(id))
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	if err := indexTmpl.Execute(w, struct {
		Name string
		El   map[string]template.HTML
	}{Name: s.name, El: els}); err != nil {
		log.Debug().Err(err).Msg("[web] render index")
	}
}

func serveTone(w http.ResponseWriter, r *http.Request) {
	wav := render.Tone()
	w.Header().Set("Content-Type", "audio/wav")
	w.Header().Set("Content-Length", strconv.Itoa(len(wav)))
	w.Header().Set("Cache-Control", "public, max-age=86400")
	_, _ = w.Write(wav)
}

// tab is one attached browser tab.
type tab struct {
	conn *websocket.Conn
	send chan page.Patch
	once sync.Once
	gone chan struct{}
}

// push queues p for the tab. A tab that cannot keep up is disconnected and
// resynchronizes from a fresh snapshot when it reconnects.
func (t *tab) push(p page.Patch) {
	select {
	case t.send <- p:
	default:
		t.close()
	}
}

func (t *tab) close() {
	t.once.Do(func() { close(t.gone) })
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	t := &tab{conn: conn, send: make(chan page.Patch, patchBuffer), gone: make(chan struct{})}
	snapshot, detach := s.doc.Attach(t.push)

	s.mu.Lock()
	s.conns[t] = struct{}{}
	s.mu.Unlock()
	log.Debug().Str("remote", r.RemoteAddr).Msg("[web] tab attached")

	s.wg.Add(2)
	go func() {
		defer s.wg.Done()
		defer func() {
			detach()
			t.close()
			s.mu.Lock()
			delete(s.conns, t)
			s.mu.Unlock()
			log.Debug().Str("remote", r.RemoteAddr).Msg("[web] tab detached")
		}()
		s.readEvents(t)
	}()
	go func() {
		defer s.wg.Done()
		s.writePatches(t, snapshot)
	}()
}

func (s *Server) readEvents(t *tab) {
	t.conn.SetReadLimit(1 << 16)
	for {
		_, frame, err := t.conn.ReadMessage()
		if err != nil {
			return
		}
		var ev chat.UIEvent
		if err := json.Unmarshal(frame, &ev); err != nil {
			log.Debug().Err(err).Msg("[web] bad ui event")
			continue
		}
		s.sink.HandleUI(ev)
	}
}

func (s *Server) writePatches(t *tab, snapshot []page.Patch) {
	defer func() { _ = t.conn.Close() }()

	_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
	if err := t.conn.WriteJSON(snapshot); err != nil {
		return
	}
	for {
		select {
		case p := <-t.send:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := t.conn.WriteJSON(p); err != nil {
				return
			}
		case <-t.gone:
			_ = t.conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = t.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseGoingAway, ""))
			return
		}
	}
}

// Close disconnects every tab and waits for their goroutines.
func (s *Server) Close() {
	s.mu.Lock()
	tabs := make([]*tab, 0, len(s.conns))
	for t := range s.conns {
		tabs = append(tabs, t)
	}
	s.mu.Unlock()
	for _, t := range tabs {
		t.close()
	}
	s.wg.Wait()
}
