package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ganot/livetodo/internal/domain/todo"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/require"
)

type wsPeer struct {
	conn *websocket.Conn
	id   string
}

func dialPeer(t *testing.T, srv *httptest.Server) *wsPeer {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http")
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })

	env := readEnvelope(t, conn)
	require.Equal(t, EventHello, env.Event)
	var hello Hello
	require.NoError(t, json.Unmarshal(env.Data, &hello))
	require.NotEmpty(t, hello.UserID)
	return &wsPeer{conn: conn, id: hello.UserID}
}

func readEnvelope(t *testing.T, conn *websocket.Conn) Envelope {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)
	env, err := Decode(frame)
	require.NoError(t, err)
	return env
}

func requireSilent(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, frame, err := conn.ReadMessage()
	require.Error(t, err, "unexpected frame: %s", frame)
}

func sendFrame(t *testing.T, conn *websocket.Conn, event string, data any) {
	t.Helper()
	frame, err := Encode(event, data)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, frame))
}

func waitForClients(t *testing.T, h *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return h.Count() == n }, 2*time.Second, 10*time.Millisecond)
}

func newTestServer(t *testing.T, opts Options) (*Hub, *httptest.Server) {
	t.Helper()
	h := NewHub(opts, nil)
	srv := httptest.NewServer(h.Handler(nil))
	t.Cleanup(srv.Close)
	return h, srv
}

func TestHandler_DomainEventReachesAllConnections(t *testing.T) {
	h, srv := newTestServer(t, DefaultOptions())
	p1 := dialPeer(t, srv)
	p2 := dialPeer(t, srv)
	require.NotEqual(t, p1.id, p2.id)
	waitForClients(t, h, 2)

	h.Publish(todo.Updated{Item: todo.Item{ID: "t1", Text: "Walk dog", Completed: true, Priority: todo.PriorityLow}})

	for _, p := range []*wsPeer{p1, p2} {
		env := readEnvelope(t, p.conn)
		require.Equal(t, todo.EventUpdated, env.Event)
		var item todo.Item
		require.NoError(t, json.Unmarshal(env.Data, &item))
		require.Equal(t, "t1", item.ID)
		require.True(t, item.Completed)
	}
}

func TestHandler_StartEditRelayedToOthersOnly(t *testing.T) {
	h, srv := newTestServer(t, DefaultOptions())
	p1 := dialPeer(t, srv)
	p2 := dialPeer(t, srv)
	waitForClients(t, h, 2)

	sendFrame(t, p1.conn, EventStartEdit, EditRequest{TodoID: "X"})

	env := readEnvelope(t, p2.conn)
	require.Equal(t, EventTodoEditStart, env.Event)
	var presence EditPresence
	require.NoError(t, json.Unmarshal(env.Data, &presence))
	require.Equal(t, EditPresence{TodoID: "X", UserID: p1.id}, presence)

	requireSilent(t, p1.conn)
}

func TestHandler_DisconnectReleasesEdits(t *testing.T) {
	h, srv := newTestServer(t, DefaultOptions())
	p1 := dialPeer(t, srv)
	p2 := dialPeer(t, srv)
	waitForClients(t, h, 2)

	sendFrame(t, p1.conn, EventStartEdit, EditRequest{TodoID: "X"})
	require.Equal(t, EventTodoEditStart, readEnvelope(t, p2.conn).Event)

	require.NoError(t, p1.conn.Close())

	env := readEnvelope(t, p2.conn)
	require.Equal(t, EventTodoEditEnd, env.Event)
	var presence EditPresence
	require.NoError(t, json.Unmarshal(env.Data, &presence))
	require.Equal(t, EditPresence{TodoID: "X", UserID: p1.id}, presence)
	waitForClients(t, h, 1)
}

func TestOriginChecker(t *testing.T) {
	check := originChecker([]string{"http://localhost:5173", " http://Example.com/ "})

	tests := []struct {
		origin string
		want   bool
	}{
		{"", true},
		{"http://localhost:5173", true},
		{"http://example.com", true},
		{"http://localhost:3000", false},
		{"https://example.com", false},
	}
	for _, tt := range tests {
		t.Run(tt.origin, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/ws", nil)
			if tt.origin != "" {
				r.Header.Set("Origin", tt.origin)
			}
			require.Equal(t, tt.want, check(r))
		})
	}

	require.True(t, originChecker(nil)(func() *http.Request {
		r := httptest.NewRequest(http.MethodGet, "/ws", nil)
		r.Header.Set("Origin", "http://anything.test")
		return r
	}()))
}
