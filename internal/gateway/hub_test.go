package gateway

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type event struct {
	conn, name, data string
}

type recordingHandler struct {
	mu     sync.Mutex
	events []event
	gone   []string
}

func (r *recordingHandler) HandleEvent(_ context.Context, connID, name string, data json.RawMessage) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, event{connID, name, string(data)})
}

func (r *recordingHandler) Disconnected(connID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.gone = append(r.gone, connID)
}

func (r *recordingHandler) snapshot() ([]event, []string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]event(nil), r.events...), append([]string(nil), r.gone...)
}

type harness struct {
	hub     *Hub
	handler *recordingHandler
	srv     *httptest.Server
}

func newHarness(t *testing.T, opts ...Option) *harness {
	t.Helper()
	h := &harness{hub: NewHub(opts...), handler: &recordingHandler{}}
	h.hub.SetHandler(h.handler)
	h.srv = httptest.NewServer(h.hub)
	t.Cleanup(func() {
		h.hub.Close()
		h.srv.Close()
	})
	return h
}

// dial connects and returns the socket with the id the hub gave it.
func (h *harness) dial(t *testing.T) (*websocket.Conn, string) {
	t.Helper()
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")
	ws, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { _ = ws.Close() })

	before, _ := h.handler.snapshot()
	require.NoError(t, ws.WriteJSON(Frame{Event: "hello"}))
	var id string
	require.Eventually(t, func() bool {
		evs, _ := h.handler.snapshot()
		if len(evs) <= len(before) {
			return false
		}
		id = evs[len(evs)-1].conn
		return true
	}, time.Second, 5*time.Millisecond)
	return ws, id
}

func readFrame(t *testing.T, ws *websocket.Conn) Frame {
	t.Helper()
	require.NoError(t, ws.SetReadDeadline(time.Now().Add(2*time.Second)))
	var f Frame
	require.NoError(t, ws.ReadJSON(&f))
	return f
}

func TestHub_EventsReachHandler(t *testing.T) {
	h := newHarness(t)
	ws, id := h.dial(t)

	require.NoError(t, ws.WriteJSON(map[string]any{"event": "found word", "data": "appeal"}))
	require.Eventually(t, func() bool {
		evs, _ := h.handler.snapshot()
		return len(evs) == 2
	}, time.Second, 5*time.Millisecond)

	evs, _ := h.handler.snapshot()
	assert.Equal(t, event{id, "found word", `"appeal"`}, evs[1])
}

func TestHub_MalformedFrame(t *testing.T) {
	h := newHarness(t)
	ws, _ := h.dial(t)

	require.NoError(t, ws.WriteMessage(websocket.TextMessage, []byte("{nope")))
	f := readFrame(t, ws)
	assert.Equal(t, "error", f.Event)
	assert.JSONEq(t, `"malformed frame"`, string(f.Data))
}

func TestHub_Rooms(t *testing.T) {
	h := newHarness(t)
	a, aid := h.dial(t)
	b, bid := h.dial(t)
	c, cid := h.dial(t)

	h.hub.Join(aid, "game-1")
	h.hub.Join(bid, "game-1")
	h.hub.Join(cid, "game-2")
	room, ok := h.hub.Room(bid)
	require.True(t, ok)
	assert.Equal(t, "game-1", room)

	h.hub.EmitToSession("game-1", "current countdown", 5)
	for _, ws := range []*websocket.Conn{a, b} {
		f := readFrame(t, ws)
		assert.Equal(t, "current countdown", f.Event)
		assert.JSONEq(t, "5", string(f.Data))
	}

	h.hub.EmitToOthers(aid, "opponent unselected all", nil)
	f := readFrame(t, b)
	assert.Equal(t, "opponent unselected all", f.Event)
	assert.Empty(t, f.Data)

	// c only ever sees its own room.
	h.hub.EmitToSession("game-2", "current countdown", 1)
	f = readFrame(t, c)
	assert.JSONEq(t, "1", string(f.Data))

	h.hub.Leave(bid)
	_, ok = h.hub.Room(bid)
	assert.False(t, ok)
	h.hub.EmitToSession("game-1", "current countdown", 4)
	h.hub.Emit(bid, "direct", map[string]string{"to": "b"})

	f = readFrame(t, a)
	assert.JSONEq(t, "4", string(f.Data))
	f = readFrame(t, b)
	assert.Equal(t, "direct", f.Event, "b left the room before the countdown")
}

func TestHub_Disconnect(t *testing.T) {
	h := newHarness(t)
	ws, id := h.dial(t)
	h.hub.Join(id, "game-1")

	require.NoError(t, ws.Close())
	require.Eventually(t, func() bool {
		_, gone := h.handler.snapshot()
		return len(gone) == 1
	}, 2*time.Second, 5*time.Millisecond)

	_, gone := h.handler.snapshot()
	assert.Equal(t, []string{id}, gone)
	_, ok := h.hub.Room(id)
	assert.False(t, ok)

	// Emitting to a departed connection is a no-op.
	h.hub.Emit(id, "late", 1)
	h.hub.EmitToSession("game-1", "late", 1)
}

func TestHub_AllowedOrigins(t *testing.T) {
	h := newHarness(t, WithAllowedOrigins("https://crossword.example"))
	url := "ws" + strings.TrimPrefix(h.srv.URL, "http")

	hdr := map[string][]string{"Origin": {"https://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial(url, hdr)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, 403, resp.StatusCode)

	hdr = map[string][]string{"Origin": {"https://crossword.example"}}
	ws, _, err := websocket.DefaultDialer.Dial(url, hdr)
	require.NoError(t, err)
	_ = ws.Close()
}
