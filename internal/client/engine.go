package client

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"strings"
	"sync"

	"github.com/ganot/livetodo/internal/domain/todo"
)

// TodoAPI is the server surface the engine reads from and mutates through.
type TodoAPI interface {
	List(ctx context.Context, filter todo.Filter) ([]todo.Item, error)
	Create(ctx context.Context, text string, priority todo.Priority) (*todo.Item, error)
	Update(ctx context.Context, id string, patch Patch) (*todo.Item, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
	ClearAll(ctx context.Context) error
	ToggleAll(ctx context.Context) ([]todo.Item, error)
	Stats(ctx context.Context) (todo.Stats, error)
}

// EventSource delivers domain events and connection changes in arrival order.
type EventSource interface {
	OnCreated(fn func(todo.Item)) Subscription
	OnUpdated(fn func(todo.Item)) Subscription
	OnDeleted(fn func(id string)) Subscription
	OnBulkUpdated(fn func([]todo.Item)) Subscription
	OnBulkDeleted(fn func(todo.BulkDeleteKind)) Subscription
	OnConnect(fn func(userID string)) Subscription
	OnDisconnect(fn func(err error)) Subscription
}

// Engine keeps a filter-scoped cache of items consistent with the server by
// applying domain events by identity. It never mutates the cache on behalf
// of a local action; the resulting event does that.
type Engine struct {
	api    TodoAPI
	logger *slog.Logger

	mu        sync.Mutex
	ctx       context.Context
	filter    todo.Filter
	cache     []todo.Item
	stats     todo.Stats
	err       error
	busy      int
	connected bool

	// loadSeq identifies the newest load; older results are discarded.
	loadSeq int
	loading int
	// replay holds items seen while a load is in flight, reapplied on top of
	// its result.
	replay []replayed

	changes listeners
}

type replayed struct {
	item    todo.Item
	deleted bool
}

// NewEngine creates an engine showing every item. logger may be nil.
func NewEngine(api TodoAPI, logger *slog.Logger) *Engine {
	return &Engine{
		api:    api,
		logger: logger,
		ctx:    context.Background(),
		filter: todo.FilterAll,
		cache:  []todo.Item{},
	}
}

// Bind subscribes the engine to src. Events are handled on the caller's
// dispatch goroutine, with ctx bounding the requests they trigger.
func (e *Engine) Bind(ctx context.Context, src EventSource) Subscription {
	e.mu.Lock()
	e.ctx = ctx
	e.mu.Unlock()

	return SubscriptionGroup{
		src.OnCreated(e.HandleCreated),
		src.OnUpdated(e.HandleUpdated),
		src.OnDeleted(e.HandleDeleted),
		src.OnBulkUpdated(func([]todo.Item) { e.reload() }),
		src.OnBulkDeleted(func(todo.BulkDeleteKind) { e.reload() }),
		src.OnConnect(func(string) {
			e.setConnected(true)
			// No replay exists for the gap, so resynchronize.
			e.reload()
		}),
		src.OnDisconnect(func(error) { e.setConnected(false) }),
	}
}

// OnChange runs fn after every state change.
func (e *Engine) OnChange(fn func()) Subscription {
	return e.changes.add(fn)
}

// View returns the cached items matching the filter, newest first.
func (e *Engine) View() []todo.Item {
	e.mu.Lock()
	defer e.mu.Unlock()
	return todo.Project(e.cache, e.filter)
}

// Item returns the cached item with id.
func (e *Engine) Item(id string) (todo.Item, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	if i := indexOf(e.cache, id); i >= 0 {
		return e.cache[i], true
	}
	return todo.Item{}, false
}

func (e *Engine) Stats() todo.Stats {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.stats
}

func (e *Engine) Filter() todo.Filter {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.filter
}

// Loading reports whether a load or an action is in flight.
func (e *Engine) Loading() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.busy > 0 || e.loading > 0
}

// Err returns the last user-facing failure, cleared by the next attempt.
func (e *Engine) Err() error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.err
}

// Connected reports whether the realtime channel is up.
func (e *Engine) Connected() bool {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.connected
}

// Load replaces the cache with the server's items for the current filter and
// refreshes stats.
func (e *Engine) Load(ctx context.Context) error {
	e.mu.Lock()
	filter := e.filter
	e.mu.Unlock()
	return e.load(ctx, filter)
}

// SetFilter switches the filter and resynchronizes from the server.
func (e *Engine) SetFilter(ctx context.Context, filter todo.Filter) error {
	e.mu.Lock()
	e.filter = filter
	e.mu.Unlock()
	return e.load(ctx, filter)
}

func (e *Engine) load(ctx context.Context, filter todo.Filter) error {
	e.mu.Lock()
	e.loadSeq++
	seq := e.loadSeq
	e.loading++
	e.err = nil
	e.mu.Unlock()
	e.notify()

	items, err := e.api.List(ctx, filter)
	if err != nil {
		err = fmt.Errorf("failed to load todos: %w", err)
	}
	var stats todo.Stats
	var statsErr error
	if err == nil {
		// Stats failures keep the previous summary.
		if stats, statsErr = e.api.Stats(ctx); statsErr != nil {
			e.logWarn("stats refresh failed", "error", statsErr)
		}
	}

	e.mu.Lock()
	e.loading--
	current := seq == e.loadSeq && filter == e.filter
	switch {
	case !current:
		// A newer load owns the cache and the error state.
	case err != nil:
		e.err = err
	default:
		e.cache = slices.Clone(items)
		if statsErr == nil {
			e.stats = stats
		}
		for _, r := range e.replay {
			if r.deleted {
				e.removeLocked(r.item.ID)
			} else {
				e.upsertLocked(r.item)
			}
		}
	}
	if e.loading == 0 {
		e.replay = nil
	}
	e.mu.Unlock()
	e.notify()

	if err != nil {
		e.logWarn("load failed", "filter", filter, "error", err)
	}
	return err
}

func (e *Engine) reload() {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()
	_ = e.Load(ctx)
}

// HandleCreated inserts item if it matches the filter and is not cached yet.
func (e *Engine) HandleCreated(item todo.Item) {
	e.mu.Lock()
	if e.filter.Matches(item) && indexOf(e.cache, item.ID) < 0 {
		e.cache = append([]todo.Item{item}, e.cache...)
	}
	e.remember(replayed{item: item})
	e.mu.Unlock()
	e.refreshStats()
}

// HandleUpdated replaces, inserts or removes item depending on whether it
// matches the filter after the update.
func (e *Engine) HandleUpdated(item todo.Item) {
	e.mu.Lock()
	e.upsertLocked(item)
	e.remember(replayed{item: item})
	e.mu.Unlock()
	e.refreshStats()
}

// HandleDeleted removes id from the cache.
func (e *Engine) HandleDeleted(id string) {
	e.mu.Lock()
	e.removeLocked(id)
	e.remember(replayed{item: todo.Item{ID: id}, deleted: true})
	e.mu.Unlock()
	e.refreshStats()
}

func (e *Engine) upsertLocked(item todo.Item) {
	i := indexOf(e.cache, item.ID)
	switch {
	case !e.filter.Matches(item):
		if i >= 0 {
			e.cache = slices.Delete(e.cache, i, i+1)
		}
	case i >= 0:
		e.cache[i] = item
	default:
		e.cache = append([]todo.Item{item}, e.cache...)
	}
}

func (e *Engine) removeLocked(id string) {
	if i := indexOf(e.cache, id); i >= 0 {
		e.cache = slices.Delete(e.cache, i, i+1)
	}
}

func (e *Engine) remember(r replayed) {
	if e.loading > 0 {
		e.replay = append(e.replay, r)
	}
}

// refreshStats fetches stats from the server. A failure keeps the previous
// summary.
func (e *Engine) refreshStats() {
	e.mu.Lock()
	ctx := e.ctx
	e.mu.Unlock()

	stats, err := e.api.Stats(ctx)
	if err != nil {
		e.logWarn("stats refresh failed", "error", err)
	} else {
		e.mu.Lock()
		e.stats = stats
		e.mu.Unlock()
	}
	e.notify()
}

func (e *Engine) setConnected(connected bool) {
	e.mu.Lock()
	e.connected = connected
	e.mu.Unlock()
	e.notify()
}

// Add creates an item. Blank text is ignored.
func (e *Engine) Add(ctx context.Context, text string, priority todo.Priority) error {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if priority == "" {
		priority = todo.PriorityMedium
	}
	return e.act("add todo", func() error {
		_, err := e.api.Create(ctx, text, priority)
		return err
	})
}

// Toggle flips the completion state of a cached item. Unknown ids are ignored.
func (e *Engine) Toggle(ctx context.Context, id string) error {
	item, ok := e.Item(id)
	if !ok {
		return nil
	}
	completed := !item.Completed
	return e.act("toggle todo", func() error {
		_, err := e.api.Update(ctx, id, Patch{Completed: &completed})
		return err
	})
}

// Edit changes the text and/or priority of an item. Blank text is ignored.
func (e *Engine) Edit(ctx context.Context, id string, text *string, priority *todo.Priority) error {
	patch := Patch{Priority: priority}
	if text != nil {
		trimmed := strings.TrimSpace(*text)
		if trimmed == "" {
			return nil
		}
		patch.Text = &trimmed
	}
	if patch.Text == nil && patch.Priority == nil {
		return nil
	}
	return e.act("update todo", func() error {
		_, err := e.api.Update(ctx, id, patch)
		return err
	})
}

func (e *Engine) Remove(ctx context.Context, id string) error {
	return e.act("delete todo", func() error {
		return e.api.Delete(ctx, id)
	})
}

func (e *Engine) ClearCompleted(ctx context.Context) error {
	return e.act("clear completed todos", func() error {
		return e.api.ClearCompleted(ctx)
	})
}

func (e *Engine) ClearAll(ctx context.Context) error {
	return e.act("clear all todos", func() error {
		return e.api.ClearAll(ctx)
	})
}

func (e *Engine) ToggleAll(ctx context.Context) error {
	return e.act("toggle all todos", func() error {
		_, err := e.api.ToggleAll(ctx)
		return err
	})
}

// act runs a server call, recording a failure for display. The cache is left
// alone either way.
func (e *Engine) act(what string, call func() error) error {
	e.mu.Lock()
	e.busy++
	e.err = nil
	e.mu.Unlock()
	e.notify()

	err := call()

	e.mu.Lock()
	e.busy--
	if err != nil {
		err = fmt.Errorf("failed to %s: %w", what, err)
		e.err = err
	}
	e.mu.Unlock()
	e.notify()

	if err != nil {
		e.logWarn("action failed", "error", err)
	}
	return err
}

func (e *Engine) notify() {
	e.changes.notify()
}

func (e *Engine) logWarn(msg string, args ...any) {
	if e.logger != nil {
		e.logger.Warn(msg, args...)
	}
}

func indexOf(items []todo.Item, id string) int {
	return slices.IndexFunc(items, func(it todo.Item) bool { return it.ID == id })
}
