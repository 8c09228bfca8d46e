package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"maps"
	"net/http"
	"net/url"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/ganot/livetodo/internal/realtime"
	"github.com/gorilla/websocket"
)

// ErrNotConnected is returned when a presence message is sent while the
// socket is down.
var ErrNotConnected = errors.New("socket not connected")

const pongWriteTimeout = 10 * time.Second

// Subscription removes the handler it was returned for.
type Subscription interface {
	Unsubscribe()
}

type subscription struct {
	once   sync.Once
	cancel func()
}

func (s *subscription) Unsubscribe() {
	s.once.Do(s.cancel)
}

// SubscriptionGroup unsubscribes several subscriptions at once.
type SubscriptionGroup []Subscription

func (g SubscriptionGroup) Unsubscribe() {
	for _, s := range g {
		s.Unsubscribe()
	}
}

// SocketOptions tunes reconnection.
type SocketOptions struct {
	MinBackoff time.Duration
	MaxBackoff time.Duration
	// ReadTimeout is how long the channel may stay silent, pings included,
	// before it is treated as lost. The server pings well inside the default.
	ReadTimeout time.Duration
	Logger      *slog.Logger
}

// Socket is the client end of the realtime channel. Frames are dispatched to
// subscribers one at a time, in arrival order, on the goroutine running Run.
type Socket struct {
	url    string
	dialer *websocket.Dialer
	opts   SocketOptions

	mu           sync.Mutex
	handlers     map[string]map[uint64]func(json.RawMessage)
	disconnected map[uint64]func(error)
	nextID       uint64
	conn         *websocket.Conn
	userID       string

	writeMu sync.Mutex
}

// NewSocket creates a socket for the server at baseURL (http or ws scheme).
func NewSocket(baseURL string, opts SocketOptions) (*Socket, error) {
	wsURL, err := websocketURL(baseURL)
	if err != nil {
		return nil, err
	}
	if opts.MinBackoff <= 0 {
		opts.MinBackoff = 500 * time.Millisecond
	}
	if opts.MaxBackoff < opts.MinBackoff {
		opts.MaxBackoff = 10 * time.Second
	}
	if opts.ReadTimeout <= 0 {
		opts.ReadTimeout = 75 * time.Second
	}
	return &Socket{
		url:          wsURL,
		dialer:       websocket.DefaultDialer,
		opts:         opts,
		handlers:     make(map[string]map[uint64]func(json.RawMessage)),
		disconnected: make(map[uint64]func(error)),
	}, nil
}

func websocketURL(base string) (string, error) {
	u, err := url.Parse(strings.TrimRight(base, "/"))
	if err != nil {
		return "", fmt.Errorf("parse server url: %w", err)
	}
	switch u.Scheme {
	case "http":
		u.Scheme = "ws"
	case "https":
		u.Scheme = "wss"
	case "ws", "wss":
	default:
		return "", fmt.Errorf("unsupported server url scheme %q", u.Scheme)
	}
	u.Path = strings.TrimRight(u.Path, "/") + "/ws"
	return u.String(), nil
}

// Run connects and dispatches frames until ctx is cancelled, reconnecting
// with exponential backoff after every failure.
func (s *Socket) Run(ctx context.Context) error {
	delay := s.opts.MinBackoff
	for {
		connected, err := s.runOnce(ctx)
		if ctx.Err() != nil {
			return ctx.Err()
		}
		if connected {
			delay = s.opts.MinBackoff
		}
		s.logDebug("socket down, retrying", "error", err, "retry_in", delay)

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
		delay = min(delay*2, s.opts.MaxBackoff)
	}
}

func (s *Socket) runOnce(ctx context.Context) (bool, error) {
	conn, _, err := s.dialer.DialContext(ctx, s.url, http.Header{})
	if err != nil {
		return false, err
	}
	stop := context.AfterFunc(ctx, func() { _ = conn.Close() })
	defer stop()

	s.mu.Lock()
	s.conn = conn
	s.mu.Unlock()

	err = s.readLoop(conn)

	s.mu.Lock()
	s.conn = nil
	s.userID = ""
	s.mu.Unlock()
	_ = conn.Close()

	s.mu.Lock()
	fns := make([]func(error), 0, len(s.disconnected))
	for _, id := range sortedKeys(s.disconnected) {
		fns = append(fns, s.disconnected[id])
	}
	s.mu.Unlock()
	for _, fn := range fns {
		fn(err)
	}
	return true, err
}

func (s *Socket) readLoop(conn *websocket.Conn) error {
	extend := func() error {
		return conn.SetReadDeadline(time.Now().Add(s.opts.ReadTimeout))
	}
	if err := extend(); err != nil {
		return err
	}
	conn.SetPingHandler(func(appData string) error {
		if err := extend(); err != nil {
			return err
		}
		err := conn.WriteControl(websocket.PongMessage, []byte(appData), time.Now().Add(pongWriteTimeout))
		if errors.Is(err, websocket.ErrCloseSent) {
			return nil
		}
		return err
	})

	for {
		_, frame, err := conn.ReadMessage()
		if err != nil {
			return err
		}
		if err := extend(); err != nil {
			return err
		}
		env, err := realtime.Decode(frame)
		if err != nil {
			s.logDebug("ignoring malformed frame", "error", err)
			continue
		}
		if env.Event == realtime.EventHello {
			var hello realtime.Hello
			if err := json.Unmarshal(env.Data, &hello); err != nil {
				return fmt.Errorf("decode hello: %w", err)
			}
			s.mu.Lock()
			s.userID = hello.UserID
			s.mu.Unlock()
		}
		s.dispatch(env.Event, env.Data)
	}
}

// Connected reports whether the channel is up and identified.
func (s *Socket) Connected() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn != nil && s.userID != ""
}

// UserID returns the editor identity the server assigned to the current
// connection, or "" while disconnected.
func (s *Socket) UserID() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID
}

// StartEdit tells peers the local user began editing todoID.
func (s *Socket) StartEdit(todoID string) error {
	return s.send(realtime.EventStartEdit, realtime.EditRequest{TodoID: todoID})
}

// EndEdit tells peers the local user stopped editing todoID.
func (s *Socket) EndEdit(todoID string) error {
	return s.send(realtime.EventEndEdit, realtime.EditRequest{TodoID: todoID})
}

// EditChange shares the local user's uncommitted text for todoID.
func (s *Socket) EditChange(todoID, text string) error {
	return s.send(realtime.EventEditChange, realtime.EditRequest{TodoID: todoID, Text: text})
}

func (s *Socket) send(event string, data any) error {
	frame, err := realtime.Encode(event, data)
	if err != nil {
		return err
	}
	s.mu.Lock()
	conn := s.conn
	s.mu.Unlock()
	if conn == nil {
		return ErrNotConnected
	}

	s.writeMu.Lock()
	defer s.writeMu.Unlock()
	if err := conn.WriteMessage(websocket.TextMessage, frame); err != nil {
		return fmt.Errorf("send %s: %w", event, err)
	}
	return nil
}

// OnConnect runs fn with the assigned identity each time a connection is
// established.
func (s *Socket) OnConnect(fn func(userID string)) Subscription {
	return s.subscribe(realtime.EventHello, func(raw json.RawMessage) {
		var hello realtime.Hello
		if s.decode(realtime.EventHello, raw, &hello) {
			fn(hello.UserID)
		}
	})
}

// OnDisconnect runs fn each time an established connection is lost.
func (s *Socket) OnDisconnect(fn func(err error)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	s.disconnected[id] = fn

	return &subscription{cancel: func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.disconnected, id)
	}}
}

func (s *Socket) OnCreated(fn func(todo.Item)) Subscription {
	return s.subscribe(todo.EventCreated, func(raw json.RawMessage) {
		var item todo.Item
		if s.decode(todo.EventCreated, raw, &item) {
			fn(item)
		}
	})
}

func (s *Socket) OnUpdated(fn func(todo.Item)) Subscription {
	return s.subscribe(todo.EventUpdated, func(raw json.RawMessage) {
		var item todo.Item
		if s.decode(todo.EventUpdated, raw, &item) {
			fn(item)
		}
	})
}

func (s *Socket) OnDeleted(fn func(id string)) Subscription {
	return s.subscribe(todo.EventDeleted, func(raw json.RawMessage) {
		var payload todo.DeletedPayload
		if s.decode(todo.EventDeleted, raw, &payload) {
			fn(payload.ID)
		}
	})
}

func (s *Socket) OnBulkUpdated(fn func([]todo.Item)) Subscription {
	return s.subscribe(todo.EventBulkUpdated, func(raw json.RawMessage) {
		var items []todo.Item
		if s.decode(todo.EventBulkUpdated, raw, &items) {
			fn(items)
		}
	})
}

func (s *Socket) OnBulkDeleted(fn func(todo.BulkDeleteKind)) Subscription {
	return s.subscribe(todo.EventBulkDeleted, func(raw json.RawMessage) {
		var payload todo.BulkDeletedPayload
		if s.decode(todo.EventBulkDeleted, raw, &payload) {
			fn(payload.Type)
		}
	})
}

func (s *Socket) OnEditStart(fn func(realtime.EditPresence)) Subscription {
	return s.subscribe(realtime.EventTodoEditStart, func(raw json.RawMessage) {
		var p realtime.EditPresence
		if s.decode(realtime.EventTodoEditStart, raw, &p) {
			fn(p)
		}
	})
}

func (s *Socket) OnEditEnd(fn func(realtime.EditPresence)) Subscription {
	return s.subscribe(realtime.EventTodoEditEnd, func(raw json.RawMessage) {
		var p realtime.EditPresence
		if s.decode(realtime.EventTodoEditEnd, raw, &p) {
			fn(p)
		}
	})
}

func (s *Socket) OnEditChange(fn func(realtime.EditChange)) Subscription {
	return s.subscribe(realtime.EventTodoEditChange, func(raw json.RawMessage) {
		var c realtime.EditChange
		if s.decode(realtime.EventTodoEditChange, raw, &c) {
			fn(c)
		}
	})
}

func (s *Socket) subscribe(event string, fn func(json.RawMessage)) Subscription {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	id := s.nextID
	if s.handlers[event] == nil {
		s.handlers[event] = make(map[uint64]func(json.RawMessage))
	}
	s.handlers[event][id] = fn

	return &subscription{cancel: func() {
		s.mu.Lock()
		defer s.mu.Unlock()
		delete(s.handlers[event], id)
	}}
}

func (s *Socket) dispatch(event string, data json.RawMessage) {
	s.mu.Lock()
	ids := sortedKeys(s.handlers[event])
	s.mu.Unlock()

	// Subscription order; a handler removed by an earlier one is skipped.
	for _, id := range ids {
		s.mu.Lock()
		fn := s.handlers[event][id]
		s.mu.Unlock()
		if fn != nil {
			fn(data)
		}
	}
}

func (s *Socket) decode(event string, raw json.RawMessage, dst any) bool {
	if err := json.Unmarshal(raw, dst); err != nil {
		s.logDebug("ignoring undecodable payload", "event", event, "error", err)
		return false
	}
	return true
}

func (s *Socket) logDebug(msg string, args ...any) {
	if s.opts.Logger != nil {
		s.opts.Logger.Debug(msg, args...)
	}
}

func sortedKeys[T any](m map[uint64]T) []uint64 {
	ids := slices.Collect(maps.Keys(m))
	slices.Sort(ids)
	return ids
}
