package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/require"
)

type todoStub struct {
	createFn         func(context.Context, todo.CreateRequest) (*todo.Item, error)
	listFn           func(context.Context, todo.Filter) ([]todo.Item, error)
	getFn            func(context.Context, string) (*todo.Item, error)
	updateFn         func(context.Context, todo.UpdateRequest) (*todo.Item, error)
	deleteFn         func(context.Context, string) error
	clearCompletedFn func(context.Context) error
	clearAllFn       func(context.Context) error
	toggleAllFn      func(context.Context) ([]todo.Item, error)
	statsFn          func(context.Context) (todo.Stats, error)
}

func (s todoStub) Create(ctx context.Context, req todo.CreateRequest) (*todo.Item, error) {
	return s.createFn(ctx, req)
}
func (s todoStub) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	return s.listFn(ctx, filter)
}
func (s todoStub) Get(ctx context.Context, id string) (*todo.Item, error) {
	return s.getFn(ctx, id)
}
func (s todoStub) Update(ctx context.Context, req todo.UpdateRequest) (*todo.Item, error) {
	return s.updateFn(ctx, req)
}
func (s todoStub) Delete(ctx context.Context, id string) error {
	return s.deleteFn(ctx, id)
}
func (s todoStub) ClearCompleted(ctx context.Context) error {
	return s.clearCompletedFn(ctx)
}
func (s todoStub) ClearAll(ctx context.Context) error {
	return s.clearAllFn(ctx)
}
func (s todoStub) ToggleAll(ctx context.Context) ([]todo.Item, error) {
	return s.toggleAllFn(ctx)
}
func (s todoStub) Stats(ctx context.Context) (todo.Stats, error) {
	return s.statsFn(ctx)
}

var stubTime = time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)

func stubItem(id, text string) *todo.Item {
	return &todo.Item{ID: id, Text: text, Priority: todo.PriorityMedium, CreatedAt: stubTime, UpdatedAt: stubTime}
}

func connect(t *testing.T, svc TodoService) *sdkmcp.ClientSession {
	t.Helper()
	return connectWith(t, Config{Todos: svc})
}

func connectWith(t *testing.T, cfg Config) *sdkmcp.ClientSession {
	t.Helper()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	t.Cleanup(cancel)

	server := NewServer(cfg)
	serverTransport, clientTransport := sdkmcp.NewInMemoryTransports()
	serverSession, err := server.Connect(ctx, serverTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = serverSession.Close() })

	client := sdkmcp.NewClient(&sdkmcp.Implementation{Name: "test-client", Version: "1.0.0"}, nil)
	session, err := client.Connect(ctx, clientTransport, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = session.Close() })
	return session
}

func callTool(t *testing.T, session *sdkmcp.ClientSession, name string, args map[string]any) *sdkmcp.CallToolResult {
	t.Helper()
	if args == nil {
		args = map[string]any{}
	}
	result, err := session.CallTool(context.Background(), &sdkmcp.CallToolParams{Name: name, Arguments: args})
	require.NoError(t, err, "CallTool %s failed", name)
	return result
}

func resultText(t *testing.T, result *sdkmcp.CallToolResult) string {
	t.Helper()
	for _, content := range result.Content {
		if text, ok := content.(*sdkmcp.TextContent); ok {
			return text.Text
		}
	}
	t.Fatal("tool returned no text content")
	return ""
}

func TestServer_ListsTools(t *testing.T) {
	session := connect(t, todoStub{})

	res, err := session.ListTools(context.Background(), nil)
	require.NoError(t, err)

	var names []string
	for _, tool := range res.Tools {
		names = append(names, tool.Name)
	}
	require.ElementsMatch(t, []string{
		"create_todo", "list_todos", "get_todo", "update_todo",
		"delete_todo", "clear_todos", "toggle_all_todos", "todo_stats",
	}, names)
}

func TestServer_CreateTodo(t *testing.T) {
	var got todo.CreateRequest
	session := connect(t, todoStub{
		createFn: func(_ context.Context, req todo.CreateRequest) (*todo.Item, error) {
			got = req
			return stubItem("t1", req.Text), nil
		},
	})

	result := callTool(t, session, "create_todo", map[string]any{"text": "Buy milk", "priority": "high"})
	require.False(t, result.IsError)
	require.Equal(t, todo.CreateRequest{Text: "Buy milk", Priority: todo.PriorityHigh}, got)

	var resp TodoResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Equal(t, "t1", resp.ID)
	require.Equal(t, "2024-03-01T12:00:00Z", resp.CreatedAt)
}

func TestServer_ListTodosFilter(t *testing.T) {
	var got todo.Filter
	session := connect(t, todoStub{
		listFn: func(_ context.Context, f todo.Filter) ([]todo.Item, error) {
			got = f
			return []todo.Item{*stubItem("t1", "a")}, nil
		},
	})

	result := callTool(t, session, "list_todos", map[string]any{"filter": "active"})
	require.False(t, result.IsError)
	require.Equal(t, todo.FilterActive, got)

	var resp ListTodosResponse
	require.NoError(t, json.Unmarshal([]byte(resultText(t, result)), &resp))
	require.Len(t, resp.Todos, 1)

	result = callTool(t, session, "list_todos", map[string]any{"filter": "someday"})
	require.True(t, result.IsError)
}

func TestServer_UpdateTodoNotFound(t *testing.T) {
	var got todo.UpdateRequest
	session := connect(t, todoStub{
		updateFn: func(_ context.Context, req todo.UpdateRequest) (*todo.Item, error) {
			got = req
			return nil, todo.ErrNotFound
		},
	})

	result := callTool(t, session, "update_todo", map[string]any{"id": "missing", "completed": true})
	require.True(t, result.IsError)
	require.Equal(t, "missing", got.ID)
	require.NotNil(t, got.Completed)
	require.True(t, *got.Completed)
	require.Nil(t, got.Text)
	require.Contains(t, resultText(t, result), "TODO_NOT_FOUND")
}

func TestServer_ClearTodos(t *testing.T) {
	var calls []string
	session := connect(t, todoStub{
		clearCompletedFn: func(context.Context) error { calls = append(calls, "completed"); return nil },
		clearAllFn:       func(context.Context) error { calls = append(calls, "all"); return nil },
	})

	require.False(t, callTool(t, session, "clear_todos", nil).IsError)
	require.False(t, callTool(t, session, "clear_todos", map[string]any{"type": "all"}).IsError)
	require.True(t, callTool(t, session, "clear_todos", map[string]any{"type": "some"}).IsError)
	require.Equal(t, []string{"completed", "all"}, calls)
}

func TestServer_ToggleAllAndStats(t *testing.T) {
	session := connect(t, todoStub{
		toggleAllFn: func(context.Context) ([]todo.Item, error) {
			return []todo.Item{}, nil
		},
		statsFn: func(context.Context) (todo.Stats, error) {
			return todo.Stats{Total: 3, Completed: 1, Active: 2}, nil
		},
	})

	toggled := callTool(t, session, "toggle_all_todos", nil)
	require.False(t, toggled.IsError)
	require.JSONEq(t, `{"todos":[]}`, resultText(t, toggled))

	stats := callTool(t, session, "todo_stats", nil)
	require.False(t, stats.IsError)
	require.JSONEq(t, `{"total":3,"completed":1,"active":2}`, resultText(t, stats))
}

func TestMapError(t *testing.T) {
	require.Nil(t, MapError(nil))
	require.Nil(t, MapError(errors.New("disk on fire")))
	require.Equal(t, "TODO_NOT_FOUND", MapError(todo.ErrNotFound).Code)

	_, err := todo.ParseFilter("nope")
	apiErr := MapError(err)
	require.NotNil(t, apiErr)
	require.Equal(t, "INVALID_INPUT", apiErr.Code)
	require.Contains(t, apiErr.Details, "filter")
}
