// Package websocket provides WebSocket connection management and message
// broadcasting to the connected display surfaces.
package websocket

import (
	"log"
	"sync"

	"github.com/google/uuid"
)

// Hub maintains the set of connected display surfaces and broadcasts
// invalidation messages to them.
type Hub struct {
	// Connected surfaces
	surfaces map[*Surface]bool

	// Outbound messages to all surfaces
	broadcast chan []byte

	// Register requests from surfaces
	register chan *Surface

	// Unregister requests from surfaces
	unregister chan *Surface

	mu sync.RWMutex
}

// NewHub creates a new WebSocket hub.
func NewHub() *Hub {
	return &Hub{
		surfaces:   make(map[*Surface]bool),
		broadcast:  make(chan []byte, 256),
		register:   make(chan *Surface),
		unregister: make(chan *Surface),
	}
}

// Run starts the hub's main event loop.
// This should be called in a goroutine.
func (h *Hub) Run() {
	for {
		select {
		case surface := <-h.register:
			h.mu.Lock()
			h.surfaces[surface] = true
			total := len(h.surfaces)
			h.mu.Unlock()
			log.Printf("Surface %s (%s) connected (total: %d)", surface.id, surface.kind, total)

		case surface := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.surfaces[surface]; ok {
				delete(h.surfaces, surface)
				surface.closeSend()
			}
			total := len(h.surfaces)
			h.mu.Unlock()
			log.Printf("Surface %s disconnected (total: %d)", surface.id, total)

		case message := <-h.broadcast:
			h.mu.Lock()
			for surface := range h.surfaces {
				if !surface.TrySend(message) {
					// Surface send buffer full; drop the connection. A
					// torn-down view must not receive stale deliveries.
					surface.closeSend()
					delete(h.surfaces, surface)
				}
			}
			h.mu.Unlock()
		}
	}
}

// Broadcast sends a message to all connected surfaces.
func (h *Hub) Broadcast(message []byte) {
	select {
	case h.broadcast <- message:
	default:
		log.Println("Broadcast channel full, dropping message")
	}
}

// Register adds a surface to the hub.
func (h *Hub) Register(surface *Surface) {
	h.register <- surface
}

// Unregister removes a surface from the hub.
func (h *Hub) Unregister(surface *Surface) {
	h.unregister <- surface
}

// SurfaceCount returns the number of connected surfaces.
func (h *Hub) SurfaceCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.surfaces)
}

// Surface represents one connected display surface (app screen or widget
// host process).
type Surface struct {
	id   string
	kind string

	mu     sync.Mutex
	send   chan []byte
	closed bool
}

// NewSurface creates a surface connection record. kind is a free-form
// label the surface reports on connect ("app", "widget", ...).
func NewSurface(kind string) *Surface {
	if kind == "" {
		kind = "unknown"
	}
	return &Surface{
		id:   uuid.NewString(),
		kind: kind,
		send: make(chan []byte, 256),
	}
}

// Send returns the surface's outbound channel for the write pump to drain.
func (s *Surface) Send() <-chan []byte {
	return s.send
}

// TrySend queues a message without blocking. It reports false when the
// surface has already been torn down or its buffer is full, so a reply to
// a surface the hub dropped mid-read is silently discarded instead of
// panicking on the closed channel.
func (s *Surface) TrySend(message []byte) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return false
	}
	select {
	case s.send <- message:
		return true
	default:
		return false
	}
}

// closeSend tears down the outbound channel exactly once. Only the hub
// calls this; after it returns every TrySend reports false.
func (s *Surface) closeSend() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.closed {
		s.closed = true
		close(s.send)
	}
}
