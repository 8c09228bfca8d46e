package client

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"sort"
	"strings"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
)

// ErrTransient wraps failures to reach the server. The request may or may not
// have been applied.
var ErrTransient = errors.New("server unreachable")

// APIError is a non-2xx response from the server.
type APIError struct {
	Status  int
	Message string
	Fields  map[string]string
}

func (e *APIError) Error() string {
	if len(e.Fields) == 0 {
		return fmt.Sprintf("%d: %s", e.Status, e.Message)
	}
	keys := make([]string, 0, len(e.Fields))
	for k := range e.Fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	parts := make([]string, 0, len(keys))
	for _, k := range keys {
		parts = append(parts, k+": "+e.Fields[k])
	}
	return fmt.Sprintf("%d: %s (%s)", e.Status, e.Message, strings.Join(parts, "; "))
}

// Is lets callers test responses against the domain sentinels.
func (e *APIError) Is(target error) bool {
	switch target {
	case todo.ErrNotFound:
		return e.Status == http.StatusNotFound
	case todo.ErrInvalidInput:
		return e.Status == http.StatusBadRequest
	}
	return false
}

// Patch is a partial update. Nil fields are left unchanged.
type Patch struct {
	Text      *string        `json:"text,omitempty"`
	Completed *bool          `json:"completed,omitempty"`
	Priority  *todo.Priority `json:"priority,omitempty"`
}

// API is a typed HTTP client for the todo routes.
type API struct {
	baseURL string
	http    *http.Client
}

// NewAPI creates a client for the server at baseURL. httpClient may be nil.
func NewAPI(baseURL string, httpClient *http.Client) *API {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	return &API{baseURL: strings.TrimRight(baseURL, "/"), http: httpClient}
}

// BaseURL returns the server address the client talks to.
func (a *API) BaseURL() string {
	return a.baseURL
}

func (a *API) List(ctx context.Context, filter todo.Filter) ([]todo.Item, error) {
	path := "/todos"
	if filter != "" {
		path += "?filter=" + url.QueryEscape(string(filter))
	}
	var items []todo.Item
	if err := a.do(ctx, http.MethodGet, path, nil, &items); err != nil {
		return nil, err
	}
	if items == nil {
		items = []todo.Item{}
	}
	return items, nil
}

func (a *API) Create(ctx context.Context, text string, priority todo.Priority) (*todo.Item, error) {
	body := struct {
		Text     string        `json:"text"`
		Priority todo.Priority `json:"priority,omitempty"`
	}{Text: text, Priority: priority}

	var item todo.Item
	if err := a.do(ctx, http.MethodPost, "/todos", body, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) Get(ctx context.Context, id string) (*todo.Item, error) {
	var item todo.Item
	if err := a.do(ctx, http.MethodGet, "/todos/"+url.PathEscape(id), nil, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) Update(ctx context.Context, id string, patch Patch) (*todo.Item, error) {
	var item todo.Item
	if err := a.do(ctx, http.MethodPatch, "/todos/"+url.PathEscape(id), patch, &item); err != nil {
		return nil, err
	}
	return &item, nil
}

func (a *API) Delete(ctx context.Context, id string) error {
	return a.do(ctx, http.MethodDelete, "/todos/"+url.PathEscape(id), nil, nil)
}

func (a *API) ClearCompleted(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/todos?type=completed", nil, nil)
}

func (a *API) ClearAll(ctx context.Context) error {
	return a.do(ctx, http.MethodDelete, "/todos?type=all", nil, nil)
}

func (a *API) ToggleAll(ctx context.Context) ([]todo.Item, error) {
	var items []todo.Item
	if err := a.do(ctx, http.MethodPatch, "/todos", nil, &items); err != nil {
		return nil, err
	}
	return items, nil
}

func (a *API) Stats(ctx context.Context) (todo.Stats, error) {
	var stats todo.Stats
	if err := a.do(ctx, http.MethodGet, "/todos/stats", nil, &stats); err != nil {
		return todo.Stats{}, err
	}
	return stats, nil
}

func (a *API) do(ctx context.Context, method, path string, in, out any) error {
	var body io.Reader
	if in != nil {
		data, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, a.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("build request: %w", err)
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.http.Do(req)
	if err != nil {
		return fmt.Errorf("%w: %s %s: %v", ErrTransient, method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return decodeAPIError(resp)
	}
	if out == nil || resp.StatusCode == http.StatusNoContent {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("%w: decode %s %s: %v", ErrTransient, method, path, err)
	}
	return nil
}

func decodeAPIError(resp *http.Response) error {
	apiErr := &APIError{Status: resp.StatusCode, Message: http.StatusText(resp.StatusCode)}
	var body struct {
		Error  string            `json:"error"`
		Fields map[string]string `json:"fields"`
	}
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(&body); err == nil {
		if body.Error != "" {
			apiErr.Message = body.Error
		}
		apiErr.Fields = body.Fields
	}
	return apiErr
}
