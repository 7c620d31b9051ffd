package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"gosuda.org/portal/portal/core/cryptoops"
	"gosuda.org/portal/sdk"

	"github.com/gosuda/aniverse-chat/chat"
	"github.com/gosuda/aniverse-chat/draft"
	"github.com/gosuda/aniverse-chat/rooms"
	"github.com/gosuda/aniverse-chat/transport"
	"github.com/gosuda/aniverse-chat/web"
)

type options struct {
	serverURL string
	wsURL     string
	username  string
	cookie    string
	room      string
	rooms     []string
	dataPath  string
	port      int
	relayURLs []string
	name      string
	credKey   string
	reconnect bool
	logLevel  string
	logFormat string
}

func newRootCmd() *cobra.Command {
	opts := &options{}
	cmd := &cobra.Command{
		Use:          "aniverse-chat",
		Short:        "AniVerse chat client with a local browser UI",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), opts)
		},
	}

	flags := cmd.PersistentFlags()
	flags.StringVar(&opts.serverURL, "server-url", envOr("CHAT_SERVER_URL", "http://localhost:5000"), "chat server base URL (env CHAT_SERVER_URL)")
	flags.StringVar(&opts.wsURL, "ws-url", os.Getenv("CHAT_WS_URL"), "socket URL; derived from --server-url when empty (env CHAT_WS_URL)")
	flags.StringVar(&opts.username, "username", os.Getenv("CHAT_USERNAME"), "display name of the local user (env CHAT_USERNAME)")
	flags.StringVar(&opts.cookie, "cookie", os.Getenv("CHAT_COOKIE"), "session cookie forwarded to the server (env CHAT_COOKIE)")
	flags.StringVar(&opts.room, "room", chat.DefaultRoom, "room joined on connect")
	flags.StringSliceVar(&opts.rooms, "rooms", []string{chat.DefaultRoom}, "rooms listed in the sidebar; repeat or comma-separated")
	flags.StringVar(&opts.dataPath, "data-path", "", "optional directory to persist the message draft via PebbleDB")
	flags.IntVar(&opts.port, "port", 8091, "local UI HTTP port (negative to disable)")
	flags.StringSliceVar(&opts.relayURLs, "relay-url", splitList(os.Getenv("RELAY")), "relayserver base URL(s) to publish the UI through (env RELAY)")
	flags.StringVar(&opts.name, "name", "aniverse-chat", "display name of the UI on the relay")
	flags.StringVar(&opts.credKey, "cred-key", "", "optional relay credential key (base64 encoded)")
	flags.BoolVar(&opts.reconnect, "reconnect", true, "redial the chat server when the connection drops")
	flags.StringVar(&opts.logLevel, "log-level", "info", "log level (debug, info, warn, error)")
	flags.StringVar(&opts.logFormat, "log-format", "console", "log output format (console or json)")
	return cmd
}

func main() {
	if err := godotenv.Load(); err != nil && !errors.Is(err, os.ErrNotExist) {
		log.Warn().Err(err).Msg("[chat] load .env")
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		log.Fatal().Err(err).Msg("execute chat command")
	}
}

func runChat(ctx context.Context, opts *options) error {
	if err := setupLogging(opts.logLevel, opts.logFormat); err != nil {
		return err
	}
	if opts.username == "" {
		return errors.New("--username (or CHAT_USERNAME) is required")
	}
	wsURL := opts.wsURL
	if wsURL == "" {
		derived, err := deriveSocketURL(opts.serverURL)
		if err != nil {
			return err
		}
		wsURL = derived
	}

	jar, err := newJar(opts.serverURL, opts.cookie)
	if err != nil {
		return err
	}
	roomsClient, err := rooms.NewClient(opts.serverURL, &http.Client{Timeout: 10 * time.Second, Jar: jar})
	if err != nil {
		return fmt.Errorf("rooms client: %w", err)
	}
	socket, err := transport.New(socketConfig(opts, wsURL, jar))
	if err != nil {
		return fmt.Errorf("transport: %w", err)
	}

	drafts, err := draft.Open(opts.dataPath)
	if err != nil {
		return fmt.Errorf("open draft store: %w", err)
	}
	defer func() {
		if err := drafts.Close(); err != nil {
			log.Warn().Err(err).Msg("[chat] draft store close error")
		}
	}()

	doc := web.NewDocument()
	client, err := chat.New(chat.Config{
		Username: opts.username,
		Room:     opts.room,
		Rooms:    opts.rooms,
		ToneURL:  "tone.wav",
	}, chat.Deps{Doc: doc, Transport: socket, Rooms: roomsClient, Drafts: drafts})
	if err != nil {
		return err
	}
	handler := web.NewServer(opts.name, doc, client)

	log.Info().Msgf("[chat] connecting to %s as %s", wsURL, opts.username)
	client.Start(ctx)

	relays, err := serveRelays(ctx, opts, handler)
	if err != nil {
		client.Close()
		return err
	}

	var httpSrv *http.Server
	if opts.port >= 0 {
		httpSrv = &http.Server{Addr: fmt.Sprintf(":%d", opts.port), Handler: handler, ReadHeaderTimeout: 5 * time.Second, IdleTimeout: 60 * time.Second}
		log.Info().Msgf("[chat] serving UI at http://127.0.0.1:%d", opts.port)
		go func() {
			if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
				log.Warn().Err(err).Msg("[chat] local http stopped")
			}
		}()
	}
	if httpSrv == nil && relays.len() == 0 {
		log.Warn().Msg("[chat] UI is not served; enable --port or --relay-url")
	}

	<-ctx.Done()
	relays.close()
	if httpSrv != nil {
		sctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := httpSrv.Shutdown(sctx); err != nil && err != context.Canceled {
			log.Error().Err(err).Msg("[chat] http server shutdown error")
		}
	}
	handler.Close()
	client.Close()
	<-client.Done()
	log.Info().Msg("[chat] shutdown complete")
	return nil
}

type relaySet struct {
	clients   []*sdk.RDClient
	listeners []net.Listener
}

func (r *relaySet) close() {
	if r == nil {
		return
	}
	for _, ln := range r.listeners {
		_ = ln.Close()
	}
	for _, c := range r.clients {
		_ = c.Close()
	}
}

func (r *relaySet) len() int {
	if r == nil {
		return 0
	}
	return len(r.listeners)
}

// socketConfig shares jar with the rooms client so cookies set on HTTP
// replies reach the next handshake.
func socketConfig(opts *options, wsURL string, jar http.CookieJar) transport.Config {
	return transport.Config{URL: wsURL, Cookie: opts.cookie, Jar: jar, Reconnect: opts.reconnect}
}

// serveRelays publishes handler through every configured relay.
func serveRelays(ctx context.Context, opts *options, handler http.Handler) (*relaySet, error) {
	var urls []string
	for _, raw := range opts.relayURLs {
		urls = append(urls, splitList(raw)...)
	}
	if len(urls) == 0 {
		return nil, nil
	}

	cred := sdk.NewCredential()
	if opts.credKey != "" {
		key, err := base64.StdEncoding.DecodeString(opts.credKey)
		if err != nil {
			return nil, fmt.Errorf("decode cred key: %w", err)
		}
		c, err := cryptoops.NewCredentialFromPrivateKey(key)
		if err != nil {
			return nil, fmt.Errorf("new credential from private key: %w", err)
		}
		cred = c
	}

	set := &relaySet{}
	for _, u := range urls {
		client, err := sdk.NewClient(func(c *sdk.RDClientConfig) { c.BootstrapServers = []string{u} })
		if err != nil {
			log.Error().Err(err).Str("url", u).Msg("[chat] new relay client failed")
			continue
		}
		set.clients = append(set.clients, client)
		ln, err := client.Listen(cred, opts.name, []string{"http/1.1"})
		if err != nil {
			set.close()
			return nil, fmt.Errorf("listen (%s): %w", u, err)
		}
		set.listeners = append(set.listeners, ln)
	}

	for i, ln := range set.listeners {
		go func() {
			if err := http.Serve(ln, handler); err != nil && err != http.ErrServerClosed && ctx.Err() == nil {
				log.Error().Err(err).Int("listener", i).Msg("[chat] relay http error")
			}
		}()
	}
	log.Info().Msgf("[chat] published on %d relay(s) as %s", len(set.listeners), opts.name)
	return set, nil
}

// deriveSocketURL maps http(s)://host/base to ws(s)://host/base/ws.
func deriveSocketURL(serverURL string) (string, error) {
	u, err := url.Parse(serverURL)
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("server url must be http or https: %q", serverURL)
	}
	return u.JoinPath("ws").String(), nil
}

// newJar returns a cookie jar seeded with the session cookie for serverURL.
func newJar(serverURL, cookie string) (http.CookieJar, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	if cookie == "" {
		return jar, nil
	}
	u, err := url.Parse(serverURL)
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	cookies, err := http.ParseCookie(cookie)
	if err != nil {
		return nil, fmt.Errorf("parse cookie: %w", err)
	}
	jar.SetCookies(u, cookies)
	return jar, nil
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
