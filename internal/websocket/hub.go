// internal/websocket/hub.go
package websocket

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/jishi00/Home-Security-Monitoring-Hub/internal/data"
)

// Hub owns the set of attached live viewers and fans broadcast messages out
// to all of them. Attach/detach/broadcast are serialized through the Run
// loop; delivery to one viewer never blocks or fails another.
type Hub struct {
	clients    map[*Client]bool
	broadcast  chan []byte  // Serialized messages to fan out
	register   chan *Client // Channel for attaching viewers
	unregister chan *Client // Channel for detaching viewers
	done       chan struct{}
	mu         sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		broadcast:  make(chan []byte),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		done:       make(chan struct{}),
		clients:    make(map[*Client]bool),
	}
}

// Run processes attach/detach/broadcast requests until Stop is called.
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.add(client)
		case client := <-h.unregister:
			h.remove(client)
		case message := <-h.broadcast:
			h.dispatch(message)
		case <-h.done:
			return
		}
	}
}

// Stop terminates the Run loop and detaches every remaining viewer.
func (h *Hub) Stop() {
	close(h.done)

	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		close(client.Send)
		delete(h.clients, client)
	}
}

// RegisterClient attaches a new viewer to the hub.
func (h *Hub) RegisterClient(client *Client) {
	select {
	case h.register <- client:
	case <-h.done:
	}
}

// UnregisterClient detaches a viewer. Detaching an unknown or already
// removed client is a no-op.
func (h *Hub) UnregisterClient(client *Client) {
	select {
	case h.unregister <- client:
	case <-h.done:
	}
}

// ClientCount reports the number of currently attached viewers.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// BroadcastEvent pushes a stored event to every attached viewer. The message
// is marshalled once; a viewer whose send buffer is full or closed is pruned
// instead of blocking the caller. Never returns an error: delivery is
// fire-and-forget from the triggering side.
func (h *Hub) BroadcastEvent(event data.EventMessage) {
	messageBytes, err := json.Marshal(map[string]interface{}{"type": "event", "event": event})
	if err != nil {
		log.Printf("Error marshalling event for broadcast: %v", err)
		return
	}
	select {
	case h.broadcast <- messageBytes:
	case <-h.done:
	}
}

func (h *Hub) add(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = true
	log.Printf("Viewer attached: %s (%d connected)", client.name, len(h.clients))
}

func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if _, ok := h.clients[client]; ok {
		delete(h.clients, client)
		close(client.Send)
		log.Printf("Viewer detached: %s (%d connected)", client.name, len(h.clients))
	}
}

func (h *Hub) dispatch(message []byte) {
	h.mu.Lock()
	defer h.mu.Unlock()
	for client := range h.clients {
		select {
		case client.Send <- message:
		default:
			// Viewer is gone or hopelessly behind; drop it rather than
			// stall the remaining viewers.
			log.Printf("Viewer %s send buffer full or closed, removing.", client.name)
			close(client.Send)
			delete(h.clients, client)
		}
	}
}
