package realtime

import (
	"encoding/json"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/google/uuid"
)

// Options tunes the broadcaster.
type Options struct {
	// SendBuffer is the number of frames queued per connection before it is dropped.
	SendBuffer int
	// WriteTimeout bounds a single frame write.
	WriteTimeout time.Duration
	// PongWait is how long a connection may stay silent before it is closed.
	PongWait time.Duration
	// MaxMessageSize caps inbound frames.
	MaxMessageSize int64
	// ReleaseOnDisconnect relays todoEditEnd for every edit a departing connection left open.
	ReleaseOnDisconnect bool
}

// DefaultOptions returns the options used when none are configured.
func DefaultOptions() Options {
	return Options{
		SendBuffer:          64,
		WriteTimeout:        10 * time.Second,
		PongWait:            60 * time.Second,
		MaxMessageSize:      8 * 1024,
		ReleaseOnDisconnect: true,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SendBuffer <= 0 {
		o.SendBuffer = d.SendBuffer
	}
	if o.WriteTimeout <= 0 {
		o.WriteTimeout = d.WriteTimeout
	}
	if o.PongWait <= 0 {
		o.PongWait = d.PongWait
	}
	if o.MaxMessageSize <= 0 {
		o.MaxMessageSize = d.MaxMessageSize
	}
	return o
}

// pingPeriod must be shorter than PongWait.
func (o Options) pingPeriod() time.Duration {
	return o.PongWait * 9 / 10
}

// Hub is the registry of connected clients. It broadcasts domain events to
// every client and relays presence messages to every client but the sender.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*Client
	opts    Options
	logger  *slog.Logger
}

// NewHub creates an empty registry. logger may be nil.
func NewHub(opts Options, logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[string]*Client),
		opts:    opts.withDefaults(),
		logger:  logger,
	}
}

// Register assigns c a fresh editor identity, adds it to the registry and
// queues its hello frame. The identity is returned.
func (h *Hub) Register(c *Client) string {
	h.mu.Lock()
	id := uuid.NewString()
	for h.clients[id] != nil {
		id = uuid.NewString()
	}
	c.id = id
	c.send = make(chan []byte, h.opts.SendBuffer)
	c.editing = make(map[string]struct{})
	h.clients[id] = c
	if hello, err := Encode(EventHello, Hello{UserID: id}); err == nil {
		c.send <- hello
	}
	count := len(h.clients)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("client connected", "client_id", id, "clients", count)
	}
	return id
}

// Unregister removes c and closes its send queue. When configured, open edits
// held by c are released to the remaining clients.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if current, ok := h.clients[c.id]; !ok || current != c {
		h.mu.Unlock()
		return
	}
	delete(h.clients, c.id)
	close(c.send)
	var released []string
	if h.opts.ReleaseOnDisconnect {
		for todoID := range c.editing {
			released = append(released, todoID)
		}
		sort.Strings(released)
	}
	c.editing = nil
	count := len(h.clients)
	h.mu.Unlock()

	if h.logger != nil {
		h.logger.Info("client disconnected", "client_id", c.id, "clients", count, "released_edits", len(released))
	}
	for _, todoID := range released {
		h.relay(c.id, EventTodoEditEnd, EditPresence{TodoID: todoID, UserID: c.id})
	}
}

// Broadcast queues frame for every client except the one identified by
// excluding (empty excludes nobody). Clients whose queue is full are dropped.
func (h *Hub) Broadcast(frame []byte, excluding string) {
	var slow []*Client

	h.mu.RLock()
	for id, c := range h.clients {
		if id == excluding {
			continue
		}
		select {
		case c.send <- frame:
		default:
			slow = append(slow, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range slow {
		if h.logger != nil {
			h.logger.Warn("dropping slow client", "client_id", c.id)
		}
		h.Unregister(c)
	}
}

// Publish broadcasts a committed domain event to every client. It implements
// todo.Publisher and never blocks on a receiver.
func (h *Hub) Publish(event todo.Event) {
	frame, err := Encode(event.Name(), event.Payload())
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode event", "event", event.Name(), "error", err)
		}
		return
	}
	h.Broadcast(frame, "")
}

// Count returns the number of connected clients.
func (h *Hub) Count() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// handlePresence relays a client's presence frame to everyone else.
func (h *Hub) handlePresence(c *Client, env Envelope) {
	var req EditRequest
	if len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, &req); err != nil {
			if h.logger != nil {
				h.logger.Debug("ignoring malformed presence frame", "client_id", c.id, "event", env.Event, "error", err)
			}
			return
		}
	}
	if req.TodoID == "" {
		return
	}

	switch env.Event {
	case EventStartEdit:
		h.trackEdit(c, req.TodoID, true)
		if h.logger != nil {
			h.logger.Info("client started editing", "client_id", c.id, "todo_id", req.TodoID)
		}
		h.relay(c.id, EventTodoEditStart, EditPresence{TodoID: req.TodoID, UserID: c.id})
	case EventEndEdit:
		h.trackEdit(c, req.TodoID, false)
		if h.logger != nil {
			h.logger.Info("client ended editing", "client_id", c.id, "todo_id", req.TodoID)
		}
		h.relay(c.id, EventTodoEditEnd, EditPresence{TodoID: req.TodoID, UserID: c.id})
	case EventEditChange:
		h.relay(c.id, EventTodoEditChange, EditChange{TodoID: req.TodoID, Text: req.Text, UserID: c.id})
	default:
		if h.logger != nil {
			h.logger.Debug("ignoring unknown client event", "client_id", c.id, "event", env.Event)
		}
	}
}

func (h *Hub) trackEdit(c *Client, todoID string, editing bool) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if c.editing == nil {
		return
	}
	if editing {
		c.editing[todoID] = struct{}{}
	} else {
		delete(c.editing, todoID)
	}
}

func (h *Hub) relay(senderID, event string, data any) {
	frame, err := Encode(event, data)
	if err != nil {
		if h.logger != nil {
			h.logger.Error("failed to encode presence", "event", event, "error", err)
		}
		return
	}
	h.Broadcast(frame, senderID)
}
