package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"project-tracker/internal/log"
)

// EventType names a change of the task collection.
type EventType string

const (
	EventTasksLoaded EventType = "tasks_loaded"
	EventTaskSaved   EventType = "task_saved"
	EventTaskDeleted EventType = "task_deleted"
	EventSyncFailed  EventType = "sync_failed"
)

// Event is the message pushed to every connected dashboard.
type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data,omitempty"`
	At   time.Time `json:"at"`
}

// Encode stamps the event when unset and marshals it.
func (e Event) Encode() ([]byte, error) {
	if e.At.IsZero() {
		e.At = time.Now().UTC()
	}
	return json.Marshal(e)
}

// Client is a connected dashboard. The network connection is owned by the ws
// handler.
type Client interface {
	Send(message []byte) bool
	Close()
}

// Hub fans events out to the connected clients.
type Hub struct {
	mu      sync.RWMutex
	clients map[Client]struct{}
	logger  log.Logger
}

// NewHub returns an empty Hub.
func NewHub(logger log.Logger) *Hub {
	if logger == nil {
		logger = log.Noop
	}
	return &Hub{
		clients: make(map[Client]struct{}),
		logger:  logger.WithValues(log.Kv{"svc": "realtime.Hub"}),
	}
}

// Register adds a client.
func (h *Hub) Register(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.clients[client] = struct{}{}
}

// Unregister removes a client.
func (h *Hub) Unregister(client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.clients, client)
}

// Len returns the number of connected clients.
func (h *Hub) Len() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}

// Publish sends the event to every client. Clients whose write fails are
// dropped and closed.
func (h *Hub) Publish(ev Event) {
	msg, err := ev.Encode()
	if err != nil {
		h.logger.Errorf("could not encode %s event: %s", ev.Type, err)
		return
	}

	h.mu.RLock()
	var dead []Client
	for c := range h.clients {
		if !c.Send(msg) {
			dead = append(dead, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range dead {
		h.Unregister(c)
		c.Close()
	}
}
