package transport

import (
	"bytes"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/ganot/livetodo/internal/sqlite"
	"github.com/stretchr/testify/require"
)

type recordingPublisher struct {
	mu     sync.Mutex
	events []todo.Event
}

func (p *recordingPublisher) Publish(e todo.Event) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
}

func (p *recordingPublisher) names() []string {
	p.mu.Lock()
	defer p.mu.Unlock()
	out := make([]string, 0, len(p.events))
	for _, e := range p.events {
		out = append(out, e.Name())
	}
	return out
}

func newTestServer(t *testing.T) (*httptest.Server, *recordingPublisher) {
	t.Helper()

	db, err := sqlite.New(":memory:")
	require.NoError(t, err)
	require.NoError(t, db.RunMigrations())
	t.Cleanup(func() { db.Close() })

	pub := &recordingPublisher{}
	svc := todo.NewService(sqlite.NewTodoRepository(db), pub, nil)
	server := httptest.NewServer(NewServer(svc, Options{}))
	t.Cleanup(server.Close)
	return server, pub
}

func doJSON(t *testing.T, method, url, body string) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != "" {
		reader = bytes.NewBufferString(body)
	}
	req, err := http.NewRequest(method, url, reader)
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	data, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	return resp, data
}

func createTodo(t *testing.T, baseURL, body string) todo.Item {
	t.Helper()
	resp, data := doJSON(t, http.MethodPost, baseURL+"/todos", body)
	require.Equal(t, http.StatusCreated, resp.StatusCode, string(data))
	var item todo.Item
	require.NoError(t, json.Unmarshal(data, &item))
	return item
}

func TestHTTPServer_Health(t *testing.T) {
	server, _ := newTestServer(t)

	resp, err := http.Get(server.URL + "/health")
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestHTTPServer_CreateTrimsAndDefaults(t *testing.T) {
	server, pub := newTestServer(t)

	item := createTodo(t, server.URL, `{"text":"  Buy milk  "}`)
	require.NotEmpty(t, item.ID)
	require.Equal(t, "Buy milk", item.Text)
	require.Equal(t, todo.PriorityMedium, item.Priority)
	require.False(t, item.Completed)
	require.Equal(t, []string{todo.EventCreated}, pub.names())
}

func TestHTTPServer_CreateValidation(t *testing.T) {
	server, pub := newTestServer(t)

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"empty text", `{"text":"   "}`, "text"},
		{"bad priority", `{"text":"x","priority":"urgent"}`, "priority"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, data := doJSON(t, http.MethodPost, server.URL+"/todos", tt.body)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			var body ErrorResponse
			require.NoError(t, json.Unmarshal(data, &body))
			require.Contains(t, body.Fields, tt.field)
		})
	}

	resp, _ := doJSON(t, http.MethodPost, server.URL+"/todos", `{"text":"x","owner":"me"}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)
	require.Empty(t, pub.names())
}

func TestHTTPServer_ListFilterAndStats(t *testing.T) {
	server, _ := newTestServer(t)

	first := createTodo(t, server.URL, `{"text":"first"}`)
	createTodo(t, server.URL, `{"text":"second","priority":"high"}`)
	resp, _ := doJSON(t, http.MethodPatch, server.URL+"/todos/"+first.ID, `{"completed":true}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/todos?filter=active", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var active []todo.Item
	require.NoError(t, json.Unmarshal(data, &active))
	require.Len(t, active, 1)
	require.Equal(t, "second", active[0].Text)

	resp, data = doJSON(t, http.MethodGet, server.URL+"/todos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var all []todo.Item
	require.NoError(t, json.Unmarshal(data, &all))
	require.Len(t, all, 2)
	require.Equal(t, "second", all[0].Text, "newest first")

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/todos?filter=someday", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, data = doJSON(t, http.MethodGet, server.URL+"/todos/stats", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `{"total":2,"completed":1,"active":1}`, string(data))
}

func TestHTTPServer_EmptyListIsArray(t *testing.T) {
	server, _ := newTestServer(t)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/todos?filter=completed", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(data))
}

func TestHTTPServer_GetUpdateDelete(t *testing.T) {
	server, pub := newTestServer(t)
	item := createTodo(t, server.URL, `{"text":"Walk dog","priority":"low"}`)

	resp, data := doJSON(t, http.MethodGet, server.URL+"/todos/"+item.ID, "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var got todo.Item
	require.NoError(t, json.Unmarshal(data, &got))
	require.Equal(t, item.ID, got.ID)

	resp, data = doJSON(t, http.MethodPatch, server.URL+"/todos/"+item.ID, `{"text":" Walk the dog ","priority":"high"}`)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var updated todo.Item
	require.NoError(t, json.Unmarshal(data, &updated))
	require.Equal(t, "Walk the dog", updated.Text)
	require.Equal(t, todo.PriorityHigh, updated.Priority)
	require.True(t, updated.CreatedAt.Equal(item.CreatedAt))
	require.True(t, updated.UpdatedAt.After(item.UpdatedAt))

	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/todos/"+item.ID, `{"done":true}`)
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/todos/"+item.ID, "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodGet, server.URL+"/todos/"+item.ID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodPatch, server.URL+"/todos/"+item.ID, `{"completed":true}`)
	require.Equal(t, http.StatusNotFound, resp.StatusCode)
	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/todos/"+item.ID, "")
	require.Equal(t, http.StatusNotFound, resp.StatusCode)

	require.Equal(t, []string{todo.EventCreated, todo.EventUpdated, todo.EventDeleted}, pub.names())
}

func TestHTTPServer_ClearAndToggleAll(t *testing.T) {
	server, pub := newTestServer(t)
	a := createTodo(t, server.URL, `{"text":"a"}`)
	createTodo(t, server.URL, `{"text":"b"}`)
	doJSON(t, http.MethodPatch, server.URL+"/todos/"+a.ID, `{"completed":true}`)

	resp, data := doJSON(t, http.MethodPatch, server.URL+"/todos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	var toggled []todo.Item
	require.NoError(t, json.Unmarshal(data, &toggled))
	require.Len(t, toggled, 2)
	for _, item := range toggled {
		require.True(t, item.Completed)
	}

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/todos?type=bogus", "")
	require.Equal(t, http.StatusBadRequest, resp.StatusCode)

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/todos", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp, data = doJSON(t, http.MethodGet, server.URL+"/todos", "")
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.JSONEq(t, `[]`, string(data))

	resp, _ = doJSON(t, http.MethodDelete, server.URL+"/todos?type=all", "")
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	require.Equal(t, []string{
		todo.EventCreated,
		todo.EventCreated,
		todo.EventUpdated,
		todo.EventBulkUpdated,
		todo.EventBulkDeleted,
		todo.EventBulkDeleted,
	}, pub.names())
}

func TestHTTPServer_MountsOptionalSurfaces(t *testing.T) {
	mounted := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	})
	server := httptest.NewServer(NewServer(nil, Options{Realtime: mounted, MCP: mounted}))
	t.Cleanup(server.Close)

	for _, path := range []string{"/ws", "/mcp"} {
		resp, err := http.Get(server.URL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusTeapot, resp.StatusCode, path)
	}
}
