package websocket

import (
	"encoding/json"
	"sync"
	"time"
)

const (
	EventCreated   = "document.created"
	EventUpdated   = "document.updated"
	EventDeleted   = "document.deleted"
	EventStatus    = "document.status"
	EventSent      = "document.sent"
	EventPayment   = "document.payment"
	EventConverted = "document.converted"
)

// DocumentEvent is pushed to every open connection of the document's owner.
type DocumentEvent struct {
	Type       string    `json:"type"`
	DocumentID string    `json:"document_id"`
	Number     string    `json:"number,omitempty"`
	Status     string    `json:"status,omitempty"`
	Total      string    `json:"total,omitempty"`
	Currency   string    `json:"currency,omitempty"`
	At         time.Time `json:"at"`
}

type Hub struct {
	mu      sync.RWMutex
	clients map[string]map[*Client]struct{}
}

func NewHub() *Hub {
	return &Hub{
		clients: make(map[string]map[*Client]struct{}),
	}
}

func (h *Hub) Register(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		h.clients[userID] = make(map[*Client]struct{})
	}
	h.clients[userID][client] = struct{}{}
}

func (h *Hub) Unregister(userID string, client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.clients[userID] == nil {
		return
	}
	delete(h.clients[userID], client)
	if len(h.clients[userID]) == 0 {
		delete(h.clients, userID)
	}
}

func (h *Hub) connections(userID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients[userID])
}

// BroadcastDocument drops the event for clients whose send buffer is full.
func (h *Hub) BroadcastDocument(userID string, event DocumentEvent) {
	if h == nil {
		return
	}
	if event.At.IsZero() {
		event.At = time.Now().UTC()
	}
	payload, _ := json.Marshal(event)
	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.clients[userID] {
		select {
		case client.send <- payload:
		default:
		}
	}
}
