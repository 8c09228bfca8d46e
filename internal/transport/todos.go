package transport

import (
	"net/http"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/go-chi/chi/v5"
)

type createBody struct {
	Text     string        `json:"text"`
	Priority todo.Priority `json:"priority"`
}

type updateBody struct {
	Text      *string        `json:"text"`
	Completed *bool          `json:"completed"`
	Priority  *todo.Priority `json:"priority"`
}

func (s *Server) handleCreate(w http.ResponseWriter, r *http.Request) {
	var body createBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.todos.Create(r.Context(), todo.CreateRequest{Text: body.Text, Priority: body.Priority})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, item)
}

func (s *Server) handleList(w http.ResponseWriter, r *http.Request) {
	filter, err := todo.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}

	items, err := s.todos.List(r.Context(), filter)
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}

func (s *Server) handleStats(w http.ResponseWriter, r *http.Request) {
	stats, err := s.todos.Stats(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}

func (s *Server) handleGet(w http.ResponseWriter, r *http.Request) {
	item, err := s.todos.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleUpdate(w http.ResponseWriter, r *http.Request) {
	var body updateBody
	if err := decodeBody(w, r, &body); err != nil {
		s.writeError(w, r, err)
		return
	}

	item, err := s.todos.Update(r.Context(), todo.UpdateRequest{
		ID:        chi.URLParam(r, "id"),
		Text:      body.Text,
		Completed: body.Completed,
		Priority:  body.Priority,
	})
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, item)
}

func (s *Server) handleDelete(w http.ResponseWriter, r *http.Request) {
	if err := s.todos.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// handleClear removes completed items, or every item with ?type=all.
func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	var err error
	switch kind := todo.BulkDeleteKind(r.URL.Query().Get("type")); kind {
	case "", todo.BulkDeletedCompleted:
		err = s.todos.ClearCompleted(r.Context())
	case todo.BulkDeletedAll:
		err = s.todos.ClearAll(r.Context())
	default:
		err = &todo.ValidationError{Fields: map[string]string{"type": "must be one of completed, all"}}
	}
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleAll(w http.ResponseWriter, r *http.Request) {
	items, err := s.todos.ToggleAll(r.Context())
	if err != nil {
		s.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, items)
}
