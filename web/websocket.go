package web

import (
	"context"
	"encoding/json"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/websocket"
)

// RevealHub tracks who is watching which seed and fans status out to them.
type RevealHub struct {
	Clients map[string]map[*Client]bool

	Register   chan *Client
	Unregister chan *Client
	Broadcast  chan *Action

	done chan struct{}

	mu     sync.Mutex
	counts map[string]int
}

// Action is a message for every client watching Seed.
type Action struct {
	Seed string
	J    []byte
}

type Viewers struct {
	Type  string `json:"type"`
	Seed  string `json:"seed"`
	Count int    `json:"count"`
}

// Command is what a browser sends back: "next" or "mute".
type Command struct {
	Type  string `json:"type"`
	Muted bool   `json:"muted,omitempty"`
}

type Client struct {
	Hub *RevealHub

	Id      string
	Seed    string
	Session string

	Conn *websocket.Conn

	Outgoing chan []byte
}

func NewRevealHub() *RevealHub {
	return &RevealHub{
		Clients:    make(map[string]map[*Client]bool),
		Register:   make(chan *Client),
		Unregister: make(chan *Client),
		Broadcast:  make(chan *Action, 16),
		done:       make(chan struct{}),
		counts:     make(map[string]int),
	}
}

func NewClient(hub *RevealHub, conn *websocket.Conn, seed, session string) *Client {
	return &Client{
		Hub:      hub,
		Id:       uuid.NewString(),
		Seed:     seed,
		Session:  session,
		Conn:     conn,
		Outgoing: make(chan []byte, 256),
	}
}

// Run owns Clients until ctx ends. Outgoing channels of clients still
// registered at that point are left open; their connections are closing.
func (h *RevealHub) Run(ctx context.Context) {
	defer close(h.done)
	for {
		select {
		case <-ctx.Done():
			return
		case c := <-h.Register:
			if h.Clients[c.Seed] == nil {
				h.Clients[c.Seed] = make(map[*Client]bool)
			}
			h.Clients[c.Seed][c] = true
			h.announce(c.Seed)
		case c := <-h.Unregister:
			if _, ok := h.Clients[c.Seed][c]; ok {
				delete(h.Clients[c.Seed], c)
				if len(h.Clients[c.Seed]) == 0 {
					delete(h.Clients, c.Seed)
				}
				h.announce(c.Seed)
				close(c.Outgoing)
			}
		case a := <-h.Broadcast:
			h.send(a.Seed, a.J)
		}
	}
}

// Join registers c. It reports false if the hub has stopped.
func (h *RevealHub) Join(c *Client) bool {
	select {
	case h.Register <- c:
		return true
	case <-h.done:
		return false
	}
}

// Leave unregisters c, which closes its Outgoing. It reports false if the
// hub had already stopped and Outgoing was left open.
func (h *RevealHub) Leave(c *Client) bool {
	select {
	case h.Unregister <- c:
		return true
	case <-h.done:
		return false
	}
}

// Publish queues j for every client watching seed.
func (h *RevealHub) Publish(seed string, j []byte) {
	select {
	case h.Broadcast <- &Action{Seed: seed, J: j}:
	case <-h.done:
	}
}

// Viewers reports how many clients are watching seed.
func (h *RevealHub) Viewers(seed string) int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.counts[seed]
}

func (h *RevealHub) announce(seed string) {
	n := len(h.Clients[seed])
	h.mu.Lock()
	if n == 0 {
		delete(h.counts, seed)
	} else {
		h.counts[seed] = n
	}
	h.mu.Unlock()

	j, err := json.Marshal(Viewers{Type: "viewers", Seed: seed, Count: n})
	if err != nil {
		log.Printf("web: marshal viewers: %v", err)
		return
	}
	h.send(seed, j)
}

func (h *RevealHub) send(seed string, j []byte) {
	for c := range h.Clients[seed] {
		select {
		case c.Outgoing <- j:
		default:
			// slow reader; drop status rather than stall the hub
		}
	}
}

const (
	writeWait  = 10 * time.Second
	pongWait   = 60 * time.Second
	pingPeriod = pongWait * 9 / 10
)

// WritePump copies Outgoing to the connection until Outgoing is closed.
func (c *Client) WritePump() {
	ticker := time.NewTicker(pingPeriod)
	defer func() {
		ticker.Stop()
		c.Conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.Outgoing:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if !ok {
				c.Conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.Conn.WriteMessage(websocket.TextMessage, msg); err != nil {
				return
			}
		case <-ticker.C:
			c.Conn.SetWriteDeadline(time.Now().Add(writeWait))
			if err := c.Conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

// ReadPump hands each Command to handle until the connection drops.
func (c *Client) ReadPump(handle func(Command)) {
	c.Conn.SetReadDeadline(time.Now().Add(pongWait))
	c.Conn.SetPongHandler(func(string) error {
		c.Conn.SetReadDeadline(time.Now().Add(pongWait))
		return nil
	})

	for {
		var cmd Command
		if err := c.Conn.ReadJSON(&cmd); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				log.Printf("web: client %s: %v", c.Id, err)
			}
			return
		}
		handle(cmd)
	}
}
