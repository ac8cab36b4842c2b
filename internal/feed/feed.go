package feed

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/muurk/lmsadmin/internal/api"
	"github.com/muurk/lmsadmin/internal/logging"
	"github.com/muurk/lmsadmin/internal/session"
	"github.com/muurk/lmsadmin/internal/version"
)

const (
	// ActivityPath streams user activity log entries
	ActivityPath = "/ws/activities/"

	// SchedulePath streams schedule changes
	SchedulePath = "/ws/schedules/"

	// Time allowed to write a control frame to the peer
	writeWait = 10 * time.Second

	// Time allowed to read the next message or pong from the peer
	pongWait = 60 * time.Second

	// Send pings to peer with this period (must be less than pongWait)
	pingPeriod = (pongWait * 9) / 10

	// Time allowed for the peer to answer our close frame
	closeWait = time.Second

	// Maximum message size allowed from peer
	maxMessageSize = 64 << 10

	// Events buffered before the reader blocks on a slow consumer
	eventBuffer = 32
)

// ErrNotAuthenticated is returned when there is no access token to stream with.
var ErrNotAuthenticated = errors.New("not logged in")

// StreamURL derives the websocket URL for path from an http(s) base URL.
// The access token travels as the token query parameter.
func StreamURL(baseURL, path, token string) (string, error) {
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return "", fmt.Errorf("invalid base URL %q: %w", baseURL, err)
	}
	switch u.Scheme {
	case "http", "ws":
		u.Scheme = "ws"
	case "https", "wss":
		u.Scheme = "wss"
	default:
		return "", fmt.Errorf("invalid base URL %q: scheme must be http or https", baseURL)
	}
	u.Path = strings.TrimRight(u.Path, "/") + path
	q := url.Values{}
	if token != "" {
		q.Set("token", token)
	}
	u.RawQuery = q.Encode()
	return u.String(), nil
}

// Client opens event streams against one backend.
type Client struct {
	BaseURL string
	Store   session.Store
	Dialer  *websocket.Dialer
}

// New creates a stream client that authenticates with store's access token.
func New(baseURL string, store session.Store) *Client {
	return &Client{
		BaseURL: baseURL,
		Store:   store,
		Dialer: &websocket.Dialer{
			Proxy:            http.ProxyFromEnvironment,
			HandshakeTimeout: 15 * time.Second,
		},
	}
}

// Activities subscribes to the live activity log.
func (c *Client) Activities(ctx context.Context) (*Subscription[api.Activity], error) {
	return Subscribe[api.Activity](ctx, c, ActivityPath)
}

// Schedules subscribes to schedule changes.
func (c *Client) Schedules(ctx context.Context) (*Subscription[api.Record], error) {
	return Subscribe[api.Record](ctx, c, SchedulePath)
}

// Subscription delivers decoded events until its context ends, the peer
// closes the stream or Close is called.
type Subscription[T any] struct {
	conn   *websocket.Conn
	events chan T
	cancel context.CancelFunc
	done   chan struct{}

	mu  sync.Mutex
	err error
}

// Subscribe dials path and starts decoding messages as T. The dial happens
// before Subscribe returns, so handshake failures are reported directly.
func Subscribe[T any](ctx context.Context, c *Client, path string) (*Subscription[T], error) {
	token := ""
	if c.Store != nil {
		token = c.Store.Get().AccessToken
	}
	if token == "" {
		return nil, ErrNotAuthenticated
	}

	target, err := StreamURL(c.BaseURL, path, token)
	if err != nil {
		return nil, err
	}

	dialer := c.Dialer
	if dialer == nil {
		dialer = websocket.DefaultDialer
	}
	header := http.Header{}
	header.Set("User-Agent", version.UserAgent())

	conn, resp, err := dialer.DialContext(ctx, target, header)
	if err != nil {
		if resp != nil {
			return nil, fmt.Errorf("stream %s rejected: %s", path, resp.Status)
		}
		return nil, fmt.Errorf("failed to connect to %s: %w", path, err)
	}
	logging.Info("event stream connected", zap.String("path", path))

	ctx, cancel := context.WithCancel(ctx)
	s := &Subscription[T]{
		conn:   conn,
		events: make(chan T, eventBuffer),
		cancel: cancel,
		done:   make(chan struct{}),
	}
	go s.run(ctx, path)
	return s, nil
}

// Events returns the event channel. It is closed when the stream ends.
func (s *Subscription[T]) Events() <-chan T {
	return s.events
}

// Done is closed once the stream has shut down.
func (s *Subscription[T]) Done() <-chan struct{} {
	return s.done
}

// Err returns why the stream ended. It is nil for a clean shutdown.
func (s *Subscription[T]) Err() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.err
}

// Close sends a close frame, waits for the reader to stop and returns Err.
func (s *Subscription[T]) Close() error {
	s.cancel()
	<-s.done
	return s.Err()
}

func (s *Subscription[T]) run(ctx context.Context, path string) {
	defer close(s.done)
	defer close(s.events)
	defer s.conn.Close()

	s.conn.SetReadLimit(maxMessageSize)
	_ = s.conn.SetReadDeadline(time.Now().Add(pongWait))
	s.conn.SetPongHandler(func(string) error {
		return s.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	var wg sync.WaitGroup
	wg.Add(1)
	go func() {
		defer wg.Done()
		s.keepalive(ctx)
	}()

	err := s.read(ctx)

	s.cancel()
	wg.Wait()

	if err != nil {
		logging.Warn("event stream ended", zap.String("path", path), zap.Error(err))
	} else {
		logging.Info("event stream closed", zap.String("path", path))
	}
	s.mu.Lock()
	s.err = err
	s.mu.Unlock()
}

// keepalive pings the peer and sends the close frame once ctx ends.
func (s *Subscription[T]) keepalive(ctx context.Context) {
	ticker := time.NewTicker(pingPeriod)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			logging.LogFeedMessage("sent", websocket.PingMessage, nil)
			if err := s.conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(writeWait)); err != nil {
				return
			}
		case <-ctx.Done():
			msg := websocket.FormatCloseMessage(websocket.CloseNormalClosure, "")
			logging.LogFeedMessage("sent", websocket.CloseMessage, msg)
			_ = s.conn.WriteControl(websocket.CloseMessage, msg, time.Now().Add(writeWait))
			// Unblock the reader if the peer never echoes the close.
			_ = s.conn.SetReadDeadline(time.Now().Add(closeWait))
			return
		}
	}
}

// read decodes messages until the connection ends. A shutdown we asked for
// or a normal close from the peer is reported as nil.
func (s *Subscription[T]) read(ctx context.Context) error {
	for {
		msgType, data, err := s.conn.ReadMessage()
		if err != nil {
			if ctx.Err() != nil || websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				return nil
			}
			return err
		}
		logging.LogFeedMessage("received", msgType, data)

		if msgType != websocket.TextMessage && msgType != websocket.BinaryMessage {
			continue
		}

		var event T
		if err := Decode(data, &event); err != nil {
			logging.Warn("discarding undecodable stream message", zap.Error(err))
			continue
		}

		select {
		case s.events <- event:
		case <-ctx.Done():
			return nil
		}
	}
}

// envelopeKeys are the wrapper keys an event payload may be nested under.
var envelopeKeys = []string{"data", "activity", "message", "payload"}

// Decode unmarshals an event, unwrapping a {"type": ..., "data": {...}}
// style envelope when present.
func Decode(data []byte, out any) error {
	var env map[string]json.RawMessage
	if err := json.Unmarshal(data, &env); err == nil {
		for _, key := range envelopeKeys {
			inner, ok := env[key]
			if ok && len(inner) > 0 && inner[0] == '{' {
				return json.Unmarshal(inner, out)
			}
		}
	}
	return json.Unmarshal(data, out)
}
