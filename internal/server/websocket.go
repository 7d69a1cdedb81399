package server

import (
	"encoding/json"
	"log"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"
)

const sendBufferSize = 64

// client is one websocket connection. Messages queued on send are
// written by a dedicated pump so concurrent handlers never interleave
// writes on the socket. Broadcasts can race connection teardown, so the
// send channel is only touched under mu and never after closed is set.
type client struct {
	conn *websocket.Conn

	mu     sync.Mutex
	closed bool
	send   chan []byte
}

// hub is the room registry: which connections receive a game's
// broadcasts. It is owned by the Server and passed by handle, never a
// package-level singleton. A connection belongs to at most one room;
// subscribing moves it out of its previous room.
type hub struct {
	mu    sync.Mutex
	rooms map[string]map[*client]struct{}
	room  map[*client]string
}

func newHub() *hub {
	return &hub{
		rooms: make(map[string]map[*client]struct{}),
		room:  make(map[*client]string),
	}
}

func (h *hub) Subscribe(c *client, gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if prev, ok := h.room[c]; ok {
		if prev == gameID {
			return
		}
		h.dropLocked(c, prev)
	}
	group := h.rooms[gameID]
	if group == nil {
		group = make(map[*client]struct{})
		h.rooms[gameID] = group
	}
	group[c] = struct{}{}
	h.room[c] = gameID
}

func (h *hub) Unsubscribe(c *client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if gameID, ok := h.room[c]; ok {
		h.dropLocked(c, gameID)
	}
}

func (h *hub) dropLocked(c *client, gameID string) {
	delete(h.room, c)
	group := h.rooms[gameID]
	if group == nil {
		return
	}
	delete(group, c)
	if len(group) == 0 {
		delete(h.rooms, gameID)
	}
}

// DropRoom dissolves a room after its game is deleted. Connections stay
// open but receive nothing further for that game.
func (h *hub) DropRoom(gameID string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for c := range h.rooms[gameID] {
		delete(h.room, c)
	}
	delete(h.rooms, gameID)
}

func (h *hub) Members(gameID string) []*client {
	h.mu.Lock()
	defer h.mu.Unlock()
	group := h.rooms[gameID]
	members := make([]*client, 0, len(group))
	for c := range group {
		members = append(members, c)
	}
	return members
}

// Broadcast marshals the payload once and queues it to every member of
// the room, the sender included. Slow consumers get the message dropped
// rather than stalling the room.
func (h *hub) Broadcast(gameID string, payload any) {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("broadcast marshal failed game_id=%s error=%v", gameID, err)
		return
	}
	for _, member := range h.Members(gameID) {
		member.enqueue(data)
	}
}

func (c *client) enqueue(data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	select {
	case c.send <- data:
	default:
		log.Printf("send buffer full, dropping message remote=%s", c.conn.RemoteAddr())
	}
}

// shutdown closes the send channel exactly once; later enqueues become
// no-ops instead of sends on a closed channel.
func (c *client) shutdown() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.send)
}

func (c *client) writePump() {
	defer c.conn.Close()
	for data := range c.send {
		if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
			return
		}
	}
	_ = c.conn.WriteMessage(websocket.CloseMessage, websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// serveWS upgrades the connection and runs its read loop. Events from
// one connection are handled serially here; handlers on different
// connections interleave freely, so everything they touch goes through
// the fact store or a mutex-guarded registry.
func (s *Server) serveWS(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	c := &client{
		conn: conn,
		send: make(chan []byte, sendBufferSize),
	}
	log.Printf("ws connected remote=%s", r.RemoteAddr)
	go c.writePump()

	defer func() {
		s.handleDisconnect(c)
		s.hub.Unsubscribe(c)
		c.shutdown()
	}()
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("ws read error remote=%s error=%v", r.RemoteAddr, err)
			}
			return
		}
		s.dispatchEvent(c, data)
	}
}
