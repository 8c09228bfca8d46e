package mcp

import (
	"context"

	"github.com/ganot/livetodo/internal/domain/todo"
	sdkmcp "github.com/modelcontextprotocol/go-sdk/mcp"
)

// registerTools adds the todo tools. Every mutating tool goes through the
// service, so agent edits are broadcast to live clients.
func registerTools(server *sdkmcp.Server, todos TodoService) {
	h := &toolHandlers{todos: todos}

	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "create_todo",
		Description: "Create a todo item",
	}, h.createTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "list_todos",
		Description: "List todo items newest first, optionally filtered by completion state",
	}, h.listTodos)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "get_todo",
		Description: "Get a single todo item by id",
	}, h.getTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "update_todo",
		Description: "Change the text, completion state or priority of a todo item",
	}, h.updateTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "delete_todo",
		Description: "Delete a todo item",
	}, h.deleteTodo)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "clear_todos",
		Description: "Delete every completed todo item, or every item with type=all",
	}, h.clearTodos)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "toggle_all_todos",
		Description: "Mark every item completed, or every item active when all are already completed",
	}, h.toggleAll)
	sdkmcp.AddTool(server, &sdkmcp.Tool{
		Name:        "todo_stats",
		Description: "Count total, completed and active todo items",
	}, h.stats)
}

type toolHandlers struct {
	todos TodoService
}

func (h *toolHandlers) createTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in CreateTodoParams) (*sdkmcp.CallToolResult, TodoResponse, error) {
	item, err := h.todos.Create(ctx, todo.CreateRequest{Text: in.Text, Priority: todo.Priority(in.Priority)})
	if err != nil {
		return nil, TodoResponse{}, toolError(err)
	}
	return nil, toTodoResponse(*item), nil
}

func (h *toolHandlers) listTodos(ctx context.Context, _ *sdkmcp.CallToolRequest, in ListTodosParams) (*sdkmcp.CallToolResult, ListTodosResponse, error) {
	filter, err := todo.ParseFilter(in.Filter)
	if err != nil {
		return nil, ListTodosResponse{}, toolError(err)
	}
	items, err := h.todos.List(ctx, filter)
	if err != nil {
		return nil, ListTodosResponse{}, toolError(err)
	}
	return nil, toListResponse(items), nil
}

func (h *toolHandlers) getTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in GetTodoParams) (*sdkmcp.CallToolResult, TodoResponse, error) {
	item, err := h.todos.Get(ctx, in.ID)
	if err != nil {
		return nil, TodoResponse{}, toolError(err)
	}
	return nil, toTodoResponse(*item), nil
}

func (h *toolHandlers) updateTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in UpdateTodoParams) (*sdkmcp.CallToolResult, TodoResponse, error) {
	req := todo.UpdateRequest{ID: in.ID, Text: in.Text, Completed: in.Completed}
	if in.Priority != nil {
		p := todo.Priority(*in.Priority)
		req.Priority = &p
	}
	item, err := h.todos.Update(ctx, req)
	if err != nil {
		return nil, TodoResponse{}, toolError(err)
	}
	return nil, toTodoResponse(*item), nil
}

func (h *toolHandlers) deleteTodo(ctx context.Context, _ *sdkmcp.CallToolRequest, in DeleteTodoParams) (*sdkmcp.CallToolResult, DeleteTodoResponse, error) {
	if err := h.todos.Delete(ctx, in.ID); err != nil {
		return nil, DeleteTodoResponse{}, toolError(err)
	}
	return nil, DeleteTodoResponse{ID: in.ID, Deleted: true}, nil
}

func (h *toolHandlers) clearTodos(ctx context.Context, _ *sdkmcp.CallToolRequest, in ClearTodosParams) (*sdkmcp.CallToolResult, ClearTodosResponse, error) {
	var err error
	kind := todo.BulkDeleteKind(in.Type)
	switch kind {
	case "", todo.BulkDeletedCompleted:
		kind = todo.BulkDeletedCompleted
		err = h.todos.ClearCompleted(ctx)
	case todo.BulkDeletedAll:
		err = h.todos.ClearAll(ctx)
	default:
		err = &todo.ValidationError{Fields: map[string]string{"type": "must be one of completed, all"}}
	}
	if err != nil {
		return nil, ClearTodosResponse{}, toolError(err)
	}
	return nil, ClearTodosResponse{Type: string(kind)}, nil
}

func (h *toolHandlers) toggleAll(ctx context.Context, _ *sdkmcp.CallToolRequest, _ ToggleAllParams) (*sdkmcp.CallToolResult, ListTodosResponse, error) {
	items, err := h.todos.ToggleAll(ctx)
	if err != nil {
		return nil, ListTodosResponse{}, toolError(err)
	}
	return nil, toListResponse(items), nil
}

func (h *toolHandlers) stats(ctx context.Context, _ *sdkmcp.CallToolRequest, _ StatsParams) (*sdkmcp.CallToolResult, StatsResponse, error) {
	stats, err := h.todos.Stats(ctx)
	if err != nil {
		return nil, StatsResponse{}, toolError(err)
	}
	return nil, StatsResponse{Total: stats.Total, Completed: stats.Completed, Active: stats.Active}, nil
}
