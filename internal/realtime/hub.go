// Package realtime pushes lot availability changes to websocket clients.
package realtime

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Swati9798/Vehicle-Parking/internal/service"
)

const writeWait = 5 * time.Second

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// Update is the message sent to clients after a lot's counts change.
type Update struct {
	Kind      string    `json:"kind"`
	LotID     uint64    `json:"lot_id"`
	Available int       `json:"available_spots"`
	Occupied  int       `json:"occupied_spots"`
	At        time.Time `json:"at"`
}

// Hub tracks connected clients and fans updates out to all of them.
type Hub struct {
	clients    map[*websocket.Conn]bool
	register   chan *websocket.Conn
	unregister chan *websocket.Conn
	broadcast  chan []byte
	mutex      sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*websocket.Conn]bool),
		register:   make(chan *websocket.Conn),
		unregister: make(chan *websocket.Conn),
		broadcast:  make(chan []byte, 64),
	}
}

// Run serves registrations and broadcasts until ctx is cancelled, then
// closes every client.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.mutex.Lock()
			for c := range h.clients {
				_ = c.Close()
				delete(h.clients, c)
			}
			h.mutex.Unlock()
			return

		case c := <-h.register:
			h.mutex.Lock()
			h.clients[c] = true
			n := len(h.clients)
			h.mutex.Unlock()
			log.Printf("realtime: client connected, total %d", n)

		case c := <-h.unregister:
			h.mutex.Lock()
			if _, ok := h.clients[c]; ok {
				delete(h.clients, c)
				_ = c.Close()
			}
			n := len(h.clients)
			h.mutex.Unlock()
			log.Printf("realtime: client disconnected, total %d", n)

		case msg := <-h.broadcast:
			h.mutex.Lock()
			for c := range h.clients {
				_ = c.SetWriteDeadline(time.Now().Add(writeWait))
				if err := c.WriteMessage(websocket.TextMessage, msg); err != nil {
					log.Printf("realtime: write failed: %v", err)
					_ = c.Close()
					delete(h.clients, c)
				}
			}
			h.mutex.Unlock()
		}
	}
}

// Clients returns the number of connected clients.
func (h *Hub) Clients() int {
	h.mutex.RLock()
	defer h.mutex.RUnlock()
	return len(h.clients)
}

// OnChange is a service.ChangeHook.  Updates are dropped when the
// broadcast buffer is full so a slow client never blocks a request.
func (h *Hub) OnChange(_ context.Context, ch service.Change) {
	msg, err := json.Marshal(Update{Kind: ch.Kind, LotID: ch.LotID, Available: ch.Available, Occupied: ch.Occupied, At: ch.At})
	if err != nil {
		log.Printf("realtime: marshal update: %v", err)
		return
	}
	select {
	case h.broadcast <- msg:
	default:
		log.Println("realtime: broadcast buffer full, dropping update")
	}
}

// ServeWS upgrades the request and keeps reading until the client goes
// away.  Incoming messages are ignored.
func (h *Hub) ServeWS(w http.ResponseWriter, r *http.Request) error {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		return err
	}
	h.register <- conn

	go func() {
		defer func() { h.unregister <- conn }()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					log.Printf("realtime: read error: %v", err)
				}
				return
			}
		}
	}()
	return nil
}
