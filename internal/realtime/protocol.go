package realtime

import (
	"encoding/json"
	"fmt"
)

// Client → server presence events.
const (
	EventStartEdit  = "startEdit"
	EventEndEdit    = "endEdit"
	EventEditChange = "editChange"
)

// Server → client events that are not domain events.
const (
	EventHello          = "hello"
	EventTodoEditStart  = "todoEditStart"
	EventTodoEditEnd    = "todoEditEnd"
	EventTodoEditChange = "todoEditChange"
)

// Envelope is the JSON frame exchanged over the websocket.
type Envelope struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// EditRequest is the data of startEdit, endEdit and editChange.
type EditRequest struct {
	TodoID string `json:"todoId"`
	Text   string `json:"text,omitempty"`
}

// EditPresence is the data of todoEditStart and todoEditEnd.
type EditPresence struct {
	TodoID string `json:"todoId"`
	UserID string `json:"userId"`
}

// EditChange is the data of todoEditChange.
type EditChange struct {
	TodoID string `json:"todoId"`
	Text   string `json:"text"`
	UserID string `json:"userId"`
}

// Hello tells a connection its server-assigned identity.
type Hello struct {
	UserID string `json:"userId"`
}

// Encode marshals an event and its data into a frame.
func Encode(event string, data any) ([]byte, error) {
	raw, err := json.Marshal(data)
	if err != nil {
		return nil, fmt.Errorf("encode %s: %w", event, err)
	}
	return json.Marshal(Envelope{Event: event, Data: raw})
}

// Decode parses a frame.
func Decode(frame []byte) (Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(frame, &env); err != nil {
		return Envelope{}, fmt.Errorf("decode frame: %w", err)
	}
	if env.Event == "" {
		return Envelope{}, fmt.Errorf("decode frame: missing event name")
	}
	return env, nil
}
