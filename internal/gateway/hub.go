// internal/gateway/hub.go
//
// WebSocket transport for multiplayer games.
//
// Every connection gets an id, a buffered send queue and its own write
// goroutine. Connections can sit in at most one room (a game session).
// Frames in both directions are JSON: {"event": "...", "data": ...}.
//
// Emit methods never block on the network: a client whose queue is full is
// disconnected. This lets callers emit while holding their own locks.

package gateway

import (
	"context"
	"encoding/json"
	"net/http"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"
)

const (
	writeWait      = 10 * time.Second
	pongWait       = 60 * time.Second
	pingPeriod     = (pongWait * 9) / 10
	maxMessageSize = 8 << 10
	sendQueue      = 64
)

// Frame is one message on the wire.
type Frame struct {
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data,omitempty"`
}

// Handler receives client events. HandleEvent runs on the connection's read
// goroutine, so events from one connection are handled in order.
type Handler interface {
	HandleEvent(ctx context.Context, connID, event string, data json.RawMessage)
	Disconnected(connID string)
}

type client struct {
	id   string
	conn *websocket.Conn
	send chan []byte
	once sync.Once
}

func (c *client) kick() {
	c.once.Do(func() { _ = c.conn.Close() })
}

// Hub tracks connections and rooms.
type Hub struct {
	mu      sync.RWMutex
	clients map[string]*client
	rooms   map[string]map[string]*client
	roomOf  map[string]string
	handler Handler

	upgrader websocket.Upgrader
}

// Option configures a Hub.
type Option func(*Hub)

// WithAllowedOrigins restricts upgrades to the given origins. Empty allows all.
func WithAllowedOrigins(origins ...string) Option {
	return func(h *Hub) {
		if len(origins) == 0 {
			return
		}
		h.upgrader.CheckOrigin = func(r *http.Request) bool {
			o := r.Header.Get("Origin")
			return o == "" || slices.Contains(origins, o)
		}
	}
}

// NewHub returns a hub with no handler; set one before serving.
func NewHub(opts ...Option) *Hub {
	h := &Hub{
		clients: make(map[string]*client),
		rooms:   make(map[string]map[string]*client),
		roomOf:  make(map[string]string),
		upgrader: websocket.Upgrader{
			ReadBufferSize:  1024,
			WriteBufferSize: 1024,
			CheckOrigin:     func(*http.Request) bool { return true },
		},
	}
	for _, o := range opts {
		o(h)
	}
	return h
}

// SetHandler installs the event handler.
func (h *Hub) SetHandler(hd Handler) {
	h.mu.Lock()
	h.handler = hd
	h.mu.Unlock()
}

// ServeHTTP upgrades the request and serves the connection until it closes.
func (h *Hub) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	conn, err := h.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Warn().Err(err).Msg("websocket upgrade failed")
		return
	}
	id, err := uuid.NewV7()
	if err != nil {
		_ = conn.Close()
		log.Error().Err(err).Msg("connection id")
		return
	}
	c := &client{id: id.String(), conn: conn, send: make(chan []byte, sendQueue)}

	h.mu.Lock()
	h.clients[c.id] = c
	h.mu.Unlock()
	log.Debug().Str("conn", c.id).Str("remote", r.RemoteAddr).Msg("client connected")

	go h.writePump(c)
	h.readPump(r.Context(), c)

	h.unregister(c)
	if hd := h.currentHandler(); hd != nil {
		hd.Disconnected(c.id)
	}
	log.Debug().Str("conn", c.id).Msg("client disconnected")
}

func (h *Hub) currentHandler() Handler {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return h.handler
}

func (h *Hub) readPump(ctx context.Context, c *client) {
	defer c.kick()
	c.conn.SetReadLimit(maxMessageSize)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		_, msg, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Debug().Err(err).Str("conn", c.id).Msg("read")
			}
			return
		}
		var f Frame
		if err := json.Unmarshal(msg, &f); err != nil || f.Event == "" {
			h.Emit(c.id, "error", "malformed frame")
			continue
		}
		if hd := h.currentHandler(); hd != nil {
			hd.HandleEvent(ctx, c.id, f.Event, f.Data)
		}
	}
}

func (h *Hub) writePump(c *client) {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.kick()
	}()
	for {
		select {
		case msg, ok := <-c.send:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				_ = c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			_ = c.conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (h *Hub) unregister(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[c.id]; !ok {
		return
	}
	h.leaveLocked(c.id)
	delete(h.clients, c.id)
	close(c.send)
}

// Join moves connID into room.
func (h *Hub) Join(connID, room string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	c, ok := h.clients[connID]
	if !ok {
		return
	}
	h.leaveLocked(connID)
	members := h.rooms[room]
	if members == nil {
		members = make(map[string]*client)
		h.rooms[room] = members
	}
	members[connID] = c
	h.roomOf[connID] = room
}

// Leave takes connID out of its room.
func (h *Hub) Leave(connID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.leaveLocked(connID)
}

func (h *Hub) leaveLocked(connID string) {
	room, ok := h.roomOf[connID]
	if !ok {
		return
	}
	delete(h.roomOf, connID)
	delete(h.rooms[room], connID)
	if len(h.rooms[room]) == 0 {
		delete(h.rooms, room)
	}
}

// Room returns the room connID is in.
func (h *Hub) Room(connID string) (string, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, ok := h.roomOf[connID]
	return room, ok
}

// EmitToSession sends the event to every connection in room.
func (h *Hub) EmitToSession(room, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.rooms[room] {
		h.deliver(c, msg)
	}
}

// EmitToOthers sends the event to everyone in connID's room except connID.
func (h *Hub) EmitToOthers(connID, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	room, in := h.roomOf[connID]
	if !in {
		return
	}
	for id, c := range h.rooms[room] {
		if id != connID {
			h.deliver(c, msg)
		}
	}
}

// Emit sends the event to a single connection.
func (h *Hub) Emit(connID, event string, payload any) {
	msg, ok := encode(event, payload)
	if !ok {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()
	if c, ok := h.clients[connID]; ok {
		h.deliver(c, msg)
	}
}

// deliver queues msg; callers hold h.mu.
func (h *Hub) deliver(c *client, msg []byte) {
	select {
	case c.send <- msg:
	default:
		log.Warn().Str("conn", c.id).Msg("send queue full, dropping client")
		c.kick()
	}
}

func encode(event string, payload any) ([]byte, bool) {
	f := Frame{Event: event}
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			log.Error().Err(err).Str("event", event).Msg("encode payload")
			return nil, false
		}
		f.Data = data
	}
	msg, err := json.Marshal(f)
	if err != nil {
		log.Error().Err(err).Str("event", event).Msg("encode frame")
		return nil, false
	}
	return msg, true
}

// Close disconnects every client.
func (h *Hub) Close() {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, c := range h.clients {
		c.kick()
	}
}
