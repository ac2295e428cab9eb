// Package notify carries settings change notifications from the settings
// panel to a running curation session over a websocket.
package notify

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/glabrego/deploytidy/internal/settings"
)

const (
	Path         = "/settings"
	writeTimeout = 5 * time.Second
)

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		origin := r.Header.Get("Origin")
		if origin == "" {
			return true
		}
		u, err := url.Parse(origin)
		if err != nil {
			return false
		}
		host := strings.ToLower(strings.TrimSpace(r.Host))
		return host == strings.ToLower(strings.TrimSpace(u.Host))
	},
}

// Endpoint returns the websocket URL served at addr.
func Endpoint(addr string) string {
	return (&url.URL{Scheme: "ws", Host: addr, Path: Path}).String()
}

// Handler accepts settingsChanged messages and passes each partial record to
// OnChange. Anything else is logged and dropped.
type Handler struct {
	OnChange func(partial map[string]any)
	Log      zerolog.Logger
}

func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		h.Log.Warn().Err(err).Msg("reject notification connection")
		return
	}
	defer conn.Close()

	for {
		kind, data, err := conn.ReadMessage()
		if err != nil {
			if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				h.Log.Debug().Err(err).Msg("notification connection closed")
			}
			return
		}
		if kind != websocket.TextMessage {
			continue
		}
		msg, err := settings.DecodeMessage(data)
		if err != nil {
			h.Log.Warn().Err(err).Msg("drop notification")
			continue
		}
		if h.OnChange != nil {
			h.OnChange(msg.Settings)
		}
	}
}

// Server listens for notifications on one address.
type Server struct {
	httpServer *http.Server
}

func NewServer(addr string, handler *Handler) *Server {
	mux := http.NewServeMux()
	mux.Handle(Path, handler)
	return &Server{httpServer: &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: writeTimeout}}
}

// Run blocks and serves until Shutdown. A clean shutdown returns nil.
func (s *Server) Run() error {
	if err := s.httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return fmt.Errorf("serve notifications: %w", err)
	}
	return nil
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.httpServer.Shutdown(ctx)
}

// Client sends one notification per connection.
type Client struct {
	URL    string
	Dialer *websocket.Dialer
}

func NewClient(addr string) *Client {
	return &Client{URL: Endpoint(addr), Dialer: websocket.DefaultDialer}
}

func (c *Client) Notify(ctx context.Context, partial map[string]any) error {
	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	conn, _, err := dialer.DialContext(ctx, c.URL, nil)
	if err != nil {
		return fmt.Errorf("dial notification endpoint: %w", err)
	}
	defer conn.Close()

	_ = conn.SetWriteDeadline(time.Now().Add(writeTimeout))
	if err := conn.WriteJSON(settings.NewChangeMessage(partial)); err != nil {
		return fmt.Errorf("send settings change: %w", err)
	}
	closing := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
	if err := conn.WriteMessage(websocket.CloseMessage, closing); err != nil {
		return fmt.Errorf("close notification connection: %w", err)
	}
	return nil
}
