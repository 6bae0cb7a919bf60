package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/orgportal/chancellery/internal/models"
)

// Event types pushed to subscribed clients
const (
	EventStatusChanged = "status_changed"
	EventSigned        = "signed"
	EventRejected      = "signature_rejected"
	EventCreated       = "created"
	EventDeleted       = "deleted"
)

// DocumentEvent is the message broadcast on every document lifecycle change.
// The approval queue UI refreshes off these instead of polling.
type DocumentEvent struct {
	Event      string      `json:"event"`
	Kind       models.Kind `json:"kind"`
	DocumentID int64       `json:"documentId"`
	StatusCode string      `json:"statusCode,omitempty"`
	Actor      string      `json:"actor,omitempty"`
}

// Hub maintains the set of subscribed clients and fans document events out
// to all of them.
type Hub struct {
	clients map[string]*Client

	register   chan *Client
	unregister chan *Client

	mu sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		register:   make(chan *Client),
		unregister: make(chan *Client),
		clients:    make(map[string]*Client),
	}
}

// Run starts the hub's main loop
func (h *Hub) Run() {
	for {
		select {
		case client := <-h.register:
			h.mu.Lock()
			if old, ok := h.clients[client.id]; ok {
				close(old.send)
			}
			h.clients[client.id] = client
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client.id]; ok {
				delete(h.clients, client.id)
				close(client.send)
			}
			h.mu.Unlock()
		}
	}
}

// Publish broadcasts a document event to every subscribed client. Slow or
// dead clients are skipped rather than blocking the caller.
func (h *Hub) Publish(event DocumentEvent) {
	msg, err := json.Marshal(event)
	if err != nil {
		log.Printf("Error marshaling event: %v", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, client := range h.clients {
		select {
		case client.send <- msg:
		default:
			// Buffer full or client dead
		}
	}
}
