// Package websocket pushes state-change events to connected browser tabs so
// every station sees the shared basket and audit log move in real time.
package websocket

import (
	"encoding/json"
	"log/slog"
	"sync"
)

// Event is one real-time notification broadcast to all clients.
type Event struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// Event types pushed to clients.
const (
	EventBasketUpdated  = "basket_updated"
	EventAuditAppended  = "audit_appended"
	EventPrintCompleted = "print_completed"
	EventBackupStatus   = "backup_status"
)

// BasketUpdated reports the basket's new line and label counts after any
// mutation.
func BasketUpdated(items, totalLabels int) Event {
	return Event{
		Type:    EventBasketUpdated,
		Payload: map[string]any{"items": items, "totalLabels": totalLabels},
	}
}

func AuditAppended(entries int) Event {
	return Event{
		Type:    EventAuditAppended,
		Payload: map[string]any{"entries": entries},
	}
}

func PrintCompleted(sessionID string, labels int) Event {
	return Event{
		Type:    EventPrintCompleted,
		Payload: map[string]any{"printSessionId": sessionID, "labels": labels},
	}
}

func BackupStatus(status, filename string) Event {
	return Event{
		Type:    EventBackupStatus,
		Payload: map[string]any{"status": status, "filename": filename},
	}
}

// Hub tracks connected clients and fans events out to them.
type Hub struct {
	mu      sync.RWMutex
	clients map[*Client]struct{}
	logger  *slog.Logger
}

func NewHub(logger *slog.Logger) *Hub {
	return &Hub{
		clients: make(map[*Client]struct{}),
		logger:  logger.With("component", "websocket"),
	}
}

func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	h.clients[c] = struct{}{}
	h.mu.Unlock()
}

// Unregister drops a client and closes its send channel.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if _, ok := h.clients[c]; ok {
		delete(h.clients, c)
		close(c.send)
	}
	h.mu.Unlock()
}

// Broadcast delivers an event to every connected client. Slow clients have
// the event dropped rather than blocking the sender.
func (h *Hub) Broadcast(ev Event) {
	data, err := json.Marshal(ev)
	if err != nil {
		h.logger.Error("marshal event", "type", ev.Type, "error", err)
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()

	for c := range h.clients {
		select {
		case c.send <- data:
		default:
		}
	}
}

func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
