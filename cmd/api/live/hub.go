package live

import (
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

const writeWait = 2 * time.Second

// Pending counts per connection. A full queue drops its oldest count.
const sendBuffer = 4

const EventActiveLoans = "active_loans"

type ActiveLoansEvent struct {
	Type  string    `json:"type"`
	Count int       `json:"count"`
	At    time.Time `json:"at"`
}

// client is one websocket connection. Only its write pump writes to ws.
type client struct {
	ws   *websocket.Conn
	send chan int
}

// Hub keeps the websocket connections of each user and pushes their active
// loan count. mu guards the registry only, never a socket write.
type Hub struct {
	mu       sync.Mutex
	users    map[uuid.UUID]map[*websocket.Conn]*client
	upgrader websocket.Upgrader
}

type Stats struct {
	Users       int `json:"users"`
	Connections int `json:"connections"`
}

/*
Creates a hub accepting websocket handshakes from allowedOrigins.
With no origins given only same-host pages may connect.
*/
func NewHub(allowedOrigins ...string) *Hub {
	h := &Hub{
		users: make(map[uuid.UUID]map[*websocket.Conn]*client),
	}
	h.upgrader = websocket.Upgrader{
		ReadBufferSize:  1024,
		WriteBufferSize: 1024,
		CheckOrigin:     originChecker(allowedOrigins),
	}
	return h
}

/* Registers ws for userID with the current count queued first, so no update can overtake it. */
func (h *Hub) Add(userID uuid.UUID, ws *websocket.Conn, count int) {
	c := &client{ws: ws, send: make(chan int, sendBuffer)}
	c.send <- count

	h.mu.Lock()
	conns, ok := h.users[userID]
	if !ok {
		conns = make(map[*websocket.Conn]*client)
		h.users[userID] = conns
	}
	conns[ws] = c
	h.mu.Unlock()

	go h.writePump(userID, c)
}

func (h *Hub) Remove(userID uuid.UUID, ws *websocket.Conn) {
	h.mu.Lock()
	conns := h.users[userID]
	c, ok := conns[ws]
	if ok {
		delete(conns, ws)
		if len(conns) == 0 {
			delete(h.users, userID)
		}
		close(c.send)
	}
	h.mu.Unlock()

	_ = ws.Close()
}

// ActiveLoansChanged queues count for every connection of userID and never
// waits on a socket.
func (h *Hub) ActiveLoansChanged(userID uuid.UUID, count int) {
	h.mu.Lock()
	defer h.mu.Unlock()

	for _, c := range h.users[userID] {
		c.push(count)
	}
}

func (h *Hub) Stats() Stats {
	h.mu.Lock()
	defer h.mu.Unlock()
	s := Stats{Users: len(h.users)}
	for _, conns := range h.users {
		s.Connections += len(conns)
	}
	return s
}

// push must run under the hub lock, which makes it the only sender.
func (c *client) push(count int) {
	select {
	case c.send <- count:
		return
	default:
	}
	//a newer count supersedes the oldest pending one:
	select {
	case <-c.send:
	default:
	}
	select {
	case c.send <- count:
	default:
	}
}

func (h *Hub) writePump(userID uuid.UUID, c *client) {
	for count := range c.send {
		if err := writeEvent(c.ws, count); err != nil {
			log.Printf("[ws] dropping connection of user %s: %v", userID, err)
			h.Remove(userID, c.ws)
			return
		}
	}
}

func writeEvent(ws *websocket.Conn, count int) error {
	b, err := json.Marshal(ActiveLoansEvent{Type: EventActiveLoans, Count: count, At: time.Now().UTC()})
	if err != nil {
		return err
	}
	_ = ws.SetWriteDeadline(time.Now().Add(writeWait))
	return ws.WriteMessage(websocket.TextMessage, b)
}
