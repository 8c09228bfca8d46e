package mcp

import (
	"context"
	"log/slog"

	"github.com/ganot/livetodo/internal/domain/todo"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// TodoService defines the todo operations needed by MCP.
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

// Config contains server configuration.
type Config struct {
	Todos   TodoService
	Version string
	Logger  *slog.Logger
}

// NewServer creates and configures an MCP server with all tools and middleware.
func NewServer(cfg Config) *sdkmcp.Server {
	version := cfg.Version
	if version == "" {
		version = "0.1.0"
	}
	server := sdkmcp.NewServer(&sdkmcp.Implementation{
		Name:    "livetodo",
		Version: version,
	}, &sdkmcp.ServerOptions{
		Instructions: serverInstructions,
		Logger:       cfg.Logger,
	})

	registerDocResources(server)

	server.AddReceivingMiddleware(trafficLoggingMiddleware(cfg.Logger, "inbound"))
	server.AddSendingMiddleware(trafficLoggingMiddleware(cfg.Logger, "outbound"))

	registerTools(server, cfg.Todos)

	return server
}
