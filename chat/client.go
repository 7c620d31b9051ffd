// Package chat is the page controller. A Client owns the session state and
// runs every UI event, transport event, timer and HTTP continuation on a
// single Loop.
package chat

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/aniverse-chat/page"
	"github.com/gosuda/aniverse-chat/render"
	"github.com/gosuda/aniverse-chat/rooms"
)

const (
	LoadingStateDuration = time.Second
	TypingDebounce       = 1000 * time.Millisecond
)

// Transport is the bidirectional event channel to the chat server.
type Transport interface {
	Emit(event string, payload any) error
	OnEvent(fn func(event string, data json.RawMessage))
	Run(ctx context.Context) error
}

type RoomCreator interface {
	CreateRoom(ctx context.Context, name string) (*rooms.CreateResponse, error)
}

type DraftStore interface {
	Load() (string, error)
	Save(text string) error
	Clear() error
}

type Config struct {
	Username string

	// Room is the room joined on connect; DefaultRoom when empty.
	Room string

	// Rooms seeds the room list.
	Rooms   []string
	ToneURL string
	Clock   clock.Clock
}

// Deps are the collaborators of a Client. Drafts may be nil.
type Deps struct {
	Doc       *page.Document
	Transport Transport
	Rooms     RoomCreator
	Drafts    DraftStore
}

type Client struct {
	loop      *Loop
	doc       *page.Document
	view      *render.Renderer
	session   *Session
	transport Transport
	rooms     RoomCreator
	drafts    DraftStore
	seed      []string

	dispatch map[string]func(json.RawMessage) error

	ctx    context.Context
	cancel context.CancelFunc
}

func New(cfg Config, deps Deps) (*Client, error) {
	if cfg.Username == "" {
		return nil, errors.New("chat: username is required")
	}
	if deps.Doc == nil || deps.Transport == nil || deps.Rooms == nil {
		return nil, errors.New("chat: missing dependency")
	}
	loop := NewLoop(cfg.Clock)
	ctx, cancel := context.WithCancel(context.Background())
	c := &Client{
		loop:      loop,
		doc:       deps.Doc,
		view:      render.New(deps.Doc, loop, cfg.Username, cfg.ToneURL),
		session:   NewSession(cfg.Username, cfg.Room),
		transport: deps.Transport,
		rooms:     deps.Rooms,
		drafts:    deps.Drafts,
		seed:      cfg.Rooms,
		ctx:       ctx,
		cancel:    cancel,
	}
	c.dispatch = c.handlers()
	return c, nil
}

// Start runs the loop, bootstraps the page and starts the transport. It
// returns once the bootstrap has run.
func (c *Client) Start(ctx context.Context) {
	go c.loop.Run()
	go func() {
		select {
		case <-ctx.Done():
			c.Close()
		case <-c.loop.Done():
		}
	}()

	c.loop.Call(c.bootstrap)

	c.transport.OnEvent(c.HandleEvent)
	go func() {
		if err := c.transport.Run(c.ctx); err != nil && !errors.Is(err, context.Canceled) {
			log.Error().Err(err).Msg("[chat] transport stopped")
		}
	}()
}

func (c *Client) bootstrap() {
	if c.doc.AddClass(page.Body, "loading-state") {
		c.loop.After(LoadingStateDuration, func() {
			c.doc.RemoveClass(page.Body, "loading-state")
		})
	}
	c.view.ScrollToBottom()

	room := c.session.Room()
	c.view.UpdateCurrentRoom(room)
	for _, r := range c.seed {
		if r != "" {
			c.view.AddRoom(r)
		}
	}
	c.view.AddRoom(room)
	c.view.SelectRoom(room)

	c.restoreDraft()
	log.Info().Msgf("[chat] session ready user=%s room=%s", c.session.Username(), room)
}

// HandleEvent queues an inbound transport event for the dispatch table.
func (c *Client) HandleEvent(event string, data json.RawMessage) {
	c.loop.Enqueue(func() { c.Dispatch(event, data) })
}

// HandleUI queues a page event for the input router.
func (c *Client) HandleUI(ev UIEvent) {
	c.loop.Enqueue(func() { c.route(ev) })
}

func (c *Client) emit(event string, payload any) {
	if err := c.transport.Emit(event, payload); err != nil {
		log.Warn().Err(err).Str("event", event).Msg("[chat] emit failed")
	}
}

// Close stops the loop and the transport. Pending timers are dropped.
func (c *Client) Close() {
	c.cancel()
	c.loop.Close()
}

func (c *Client) Done() <-chan struct{} {
	return c.loop.Done()
}
