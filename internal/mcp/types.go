package mcp

import (
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
)

type CreateTodoParams struct {
	Text     string `json:"text" jsonschema:"todo text, 1 to 500 characters after trimming"`
	Priority string `json:"priority,omitempty" jsonschema:"high, medium or low (default medium)"`
}

type ListTodosParams struct {
	Filter string `json:"filter,omitempty" jsonschema:"all, active or completed (default all)"`
}

type GetTodoParams struct {
	ID string `json:"id" jsonschema:"todo id"`
}

type UpdateTodoParams struct {
	ID        string  `json:"id" jsonschema:"todo id"`
	Text      *string `json:"text,omitempty" jsonschema:"replacement text"`
	Completed *bool   `json:"completed,omitempty" jsonschema:"new completion state"`
	Priority  *string `json:"priority,omitempty" jsonschema:"high, medium or low"`
}

type DeleteTodoParams struct {
	ID string `json:"id" jsonschema:"todo id"`
}

type ClearTodosParams struct {
	Type string `json:"type,omitempty" jsonschema:"completed (default) or all"`
}

type ToggleAllParams struct{}

type StatsParams struct{}

// TodoResponse is the tool view of a todo item.
type TodoResponse struct {
	ID        string `json:"id"`
	Text      string `json:"text"`
	Completed bool   `json:"completed"`
	Priority  string `json:"priority"`
	CreatedAt string `json:"createdAt"`
	UpdatedAt string `json:"updatedAt"`
}

type ListTodosResponse struct {
	Todos []TodoResponse `json:"todos"`
}

type DeleteTodoResponse struct {
	ID      string `json:"id"`
	Deleted bool   `json:"deleted"`
}

type ClearTodosResponse struct {
	Type string `json:"type"`
}

type StatsResponse struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Active    int `json:"active"`
}

func toTodoResponse(item todo.Item) TodoResponse {
	return TodoResponse{
		ID:        item.ID,
		Text:      item.Text,
		Completed: item.Completed,
		Priority:  string(item.Priority),
		CreatedAt: item.CreatedAt.UTC().Format(time.RFC3339Nano),
		UpdatedAt: item.UpdatedAt.UTC().Format(time.RFC3339Nano),
	}
}

func toListResponse(items []todo.Item) ListTodosResponse {
	out := ListTodosResponse{Todos: make([]TodoResponse, 0, len(items))}
	for _, item := range items {
		out.Todos = append(out.Todos, toTodoResponse(item))
	}
	return out
}
