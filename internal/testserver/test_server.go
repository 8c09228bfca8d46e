package testserver

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/ganot/livetodo/internal/mcp"
	"github.com/ganot/livetodo/internal/realtime"
	"github.com/ganot/livetodo/internal/sqlite"
	"github.com/ganot/livetodo/internal/transport"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

// TestServer runs the full server stack on an in-memory store.
type TestServer struct {
	Server  *httptest.Server
	DB      *sqlite.DB
	Hub     *realtime.Hub
	Service *todo.Service
}

// New starts a server whose store is private to the calling test.
func New(t *testing.T) *TestServer {
	t.Helper()
	return NewWithOptions(t, realtime.DefaultOptions())
}

// NewWithOptions starts a server with the given broadcaster options.
func NewWithOptions(t *testing.T, opts realtime.Options) *TestServer {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := sqlite.New(dsn)
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())

	hub := realtime.NewHub(opts, nil)
	svc := todo.NewService(sqlite.NewTodoRepository(db), hub, nil)

	mcpServer := mcp.NewServer(mcp.Config{Todos: svc})
	mcpHandler := sdkmcp.NewStreamableHTTPHandler(
		func(*http.Request) *sdkmcp.Server { return mcpServer },
		nil,
	)

	server := httptest.NewServer(transport.NewServer(svc, transport.Options{
		Realtime: hub.Handler(nil),
		MCP:      mcpHandler,
	}))

	t.Cleanup(func() {
		server.Close()
		_ = db.Close()
	})

	return &TestServer{
		Server:  server,
		DB:      db,
		Hub:     hub,
		Service: svc,
	}
}

// URL returns the server's base http URL.
func (ts *TestServer) URL() string {
	return ts.Server.URL
}
