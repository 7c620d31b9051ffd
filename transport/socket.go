// Package transport is the websocket link to the chat server. Frames are JSON
// envelopes; connection state changes are reported to the event handler as
// connect, disconnect and error events.
package transport

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/protocol"
)

const (
	writeWait     = 10 * time.Second
	pongWait      = 60 * time.Second
	pingInterval  = 30 * time.Second
	maxFrameSize  = 1 << 20
	defaultBuffer = 64

	minBackoff = 500 * time.Millisecond
	maxBackoff = 10 * time.Second
)

var ErrClosed = errors.New("transport: closed")

type Config struct {
	URL string

	// Cookie is sent on every handshake. With a Jar it seeds the jar for the
	// socket host, so cookies the server sets later are sent along with it.
	Cookie    string
	Jar       http.CookieJar
	Reconnect bool

	// Buffer bounds the outbound queue; the oldest frame is dropped when full.
	Buffer int
}

// Socket is a reconnecting websocket client.
type Socket struct {
	url       string
	header    http.Header
	dialer    *websocket.Dialer
	reconnect bool

	out    chan []byte
	closed atomic.Bool

	mu      sync.RWMutex
	handler func(event string, data json.RawMessage)
}

func New(cfg Config) (*Socket, error) {
	u, err := url.Parse(cfg.URL)
	if err != nil {
		return nil, fmt.Errorf("parse socket url: %w", err)
	}
	if u.Scheme != "ws" && u.Scheme != "wss" {
		return nil, fmt.Errorf("socket url must be ws or wss: %q", cfg.URL)
	}
	header := http.Header{}
	dialer := *websocket.DefaultDialer
	dialer.Jar = cfg.Jar
	switch {
	case cfg.Cookie == "":
	case cfg.Jar != nil:
		// the dialer replaces jar cookies with an explicit Cookie header
		cookies, err := http.ParseCookie(cfg.Cookie)
		if err != nil {
			return nil, fmt.Errorf("parse cookie: %w", err)
		}
		cfg.Jar.SetCookies(cookieURL(u), cookies)
	default:
		header.Set("Cookie", cfg.Cookie)
	}
	buffer := cfg.Buffer
	if buffer <= 0 {
		buffer = defaultBuffer
	}
	return &Socket{
		url:       u.String(),
		header:    header,
		dialer:    &dialer,
		reconnect: cfg.Reconnect,
		out:       make(chan []byte, buffer),
	}, nil
}

// cookieURL is the http(s) form of a socket URL, which is what cookie jars
// match against.
func cookieURL(u *url.URL) *url.URL {
	c := *u
	c.Scheme = "http"
	if u.Scheme == "wss" {
		c.Scheme = "https"
	}
	return &c
}

// OnEvent sets the handler for inbound and connection events. It is called
// from the socket goroutines.
func (s *Socket) OnEvent(fn func(event string, data json.RawMessage)) {
	s.mu.Lock()
	s.handler = fn
	s.mu.Unlock()
}

// Emit queues an event for delivery. It does not wait for the connection.
func (s *Socket) Emit(event string, payload any) error {
	if s.closed.Load() {
		return ErrClosed
	}
	env, err := protocol.NewEnvelope(event, payload)
	if err != nil {
		return err
	}
	frame, err := json.Marshal(env)
	if err != nil {
		return fmt.Errorf("marshal envelope: %w", err)
	}
	s.push(frame)
	return nil
}

func (s *Socket) push(frame []byte) {
	for {
		select {
		case s.out <- frame:
			return
		default:
		}
		select {
		case dropped := <-s.out:
			log.Debug().Int("bytes", len(dropped)).Msg("[transport] outbound queue full, dropping oldest")
		default:
		}
	}
}

func (s *Socket) report(event string, payload any) {
	s.mu.RLock()
	fn := s.handler
	s.mu.RUnlock()
	if fn == nil {
		return
	}
	var data json.RawMessage
	if payload != nil {
		data, _ = json.Marshal(payload)
	}
	fn(event, data)
}

// Run dials and serves the connection until ctx is done. Without reconnect
// it returns after the first dial failure or disconnect.
func (s *Socket) Run(ctx context.Context) error {
	defer s.closed.Store(true)

	backoff := minBackoff
	for {
		conn, _, err := s.dialer.DialContext(ctx, s.url, s.header)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			log.Warn().Err(err).Msgf("[transport] dial %s failed", s.url)
			s.report(protocol.EventError, protocol.ErrorEvent{Message: err.Error()})
			if !s.reconnect {
				return fmt.Errorf("dial %s: %w", s.url, err)
			}
		} else {
			backoff = minBackoff
			log.Info().Msgf("[transport] connected to %s", s.url)
			s.report(protocol.EventConnect, nil)
			err = s.serve(ctx, conn)
			log.Info().Err(err).Msg("[transport] disconnected")
			s.report(protocol.EventDisconnect, nil)
			if ctx.Err() != nil {
				return ctx.Err()
			}
			if !s.reconnect {
				return err
			}
		}

		select {
		case <-time.After(backoff):
		case <-ctx.Done():
			return ctx.Err()
		}
		backoff = min(backoff*2, maxBackoff)
	}
}

func (s *Socket) serve(ctx context.Context, conn *websocket.Conn) error {
	stop := make(chan struct{})
	readErr := make(chan error, 1)
	writeErr := make(chan error, 1)
	go func() { readErr <- s.readLoop(conn) }()
	go func() { writeErr <- s.writeLoop(conn, stop) }()

	var err error
	select {
	case err = <-readErr:
		close(stop)
		<-writeErr
		_ = conn.Close()
	case err = <-writeErr:
		_ = conn.Close()
		<-readErr
	case <-ctx.Done():
		err = ctx.Err()
		close(stop)
		<-writeErr
		_ = conn.Close()
		<-readErr
	}
	return err
}

func (s *Socket) readLoop(conn *websocket.Conn) error {
	conn.SetReadLimit(maxFrameSize)
	_ = conn.SetReadDeadline(time.Now().Add(pongWait))
	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(pongWait))
	})
	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return fmt.Errorf("read: %w", err)
		}
		env, err := protocol.ParseEnvelope(frame)
		if err != nil {
			log.Debug().Err(err).Msg("[transport] dropping malformed frame")
			continue
		}
		s.report(env.Event, env.Data)
	}
}

func (s *Socket) writeLoop(conn *websocket.Conn, stop <-chan struct{}) error {
	ticker := time.NewTicker(pingInterval)
	defer ticker.Stop()
	for {
		select {
		case frame := <-s.out:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
				return fmt.Errorf("write: %w", err)
			}
		case <-ticker.C:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return fmt.Errorf("ping: %w", err)
			}
		case <-stop:
			_ = conn.SetWriteDeadline(time.Now().Add(writeWait))
			_ = conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return nil
		}
	}
}
