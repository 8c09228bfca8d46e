package transport

import (
	"context"
	"log/slog"
	"net/http"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
)

// TodoService is the mutation and query surface behind the REST routes.
type TodoService interface {
	Create(ctx context.Context, req todo.CreateRequest) (*todo.Item, error)
	List(ctx context.Context, filter todo.Filter) ([]todo.Item, error)
	Get(ctx context.Context, id string) (*todo.Item, error)
	Update(ctx context.Context, req todo.UpdateRequest) (*todo.Item, error)
	Delete(ctx context.Context, id string) error
	ClearCompleted(ctx context.Context) error
	ClearAll(ctx context.Context) error
	ToggleAll(ctx context.Context) ([]todo.Item, error)
	Stats(ctx context.Context) (todo.Stats, error)
}

// Options wires the optional surfaces mounted next to the REST routes.
type Options struct {
	Logger *slog.Logger
	// Realtime serves the websocket upgrade at /ws when set.
	Realtime http.Handler
	// MCP serves the Model Context Protocol endpoint at /mcp when set.
	MCP http.Handler
}

// Server wires HTTP handlers.
type Server struct {
	todos  TodoService
	logger *slog.Logger
}

// NewServer creates an HTTP server router with middleware.
func NewServer(todos TodoService, opts Options) *chi.Mux {
	r := chi.NewRouter()

	r.Use(middleware.Recoverer)
	if opts.Logger != nil {
		r.Use(AccessLog(opts.Logger))
	}

	srv := &Server{todos: todos, logger: opts.Logger}

	r.Get("/health", srv.handleHealth)

	r.Route("/todos", func(r chi.Router) {
		r.Post("/", srv.handleCreate)
		r.Get("/", srv.handleList)
		r.Patch("/", srv.handleToggleAll)
		r.Delete("/", srv.handleClear)
		r.Get("/stats", srv.handleStats)
		r.Get("/{id}", srv.handleGet)
		r.Patch("/{id}", srv.handleUpdate)
		r.Delete("/{id}", srv.handleDelete)
	})

	if opts.Realtime != nil {
		r.Handle("/ws", opts.Realtime)
	}
	if opts.MCP != nil {
		r.Handle("/mcp", opts.MCP)
	}

	return r
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}
