package hub

import (
	"encoding/json"
	"log"
	"sync"
)

// Topics.
const (
	TopicPublic = "public"
)

// Event types.
const (
	EventGameCreated = "game.created"
	EventGameUpdated = "game.updated"
	EventGameDeleted = "game.deleted"
)

// Event represents a real-time event to be sent to clients.
type Event struct {
	Type    string `json:"type"`
	Payload any    `json:"payload"`
}

// Client represents a single subscriber connection.
// The websocket handler drains it and writes each message to the socket.
type Client chan []byte

// Hub fans events out to the clients subscribed to a topic.
type Hub struct {
	topics map[string]map[Client]bool
	mu     sync.RWMutex
}

// NewHub creates a new Hub.
func NewHub() *Hub {
	return &Hub{
		topics: make(map[string]map[Client]bool),
	}
}

// UserTopic is the topic carrying events about one user's records.
func UserTopic(userID string) string {
	return "user:" + userID
}

// Subscribe adds a new client to a topic.
func (h *Hub) Subscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, ok := h.topics[topic]; !ok {
		h.topics[topic] = make(map[Client]bool)
	}
	h.topics[topic][client] = true
}

// Unsubscribe removes a client from a topic and closes it.
func (h *Hub) Unsubscribe(topic string, client Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if clients, ok := h.topics[topic]; ok {
		if _, ok := clients[client]; ok {
			delete(clients, client)
			close(client) // Signals the websocket writer to stop.
			if len(clients) == 0 {
				delete(h.topics, topic)
			}
		}
	}
}

// Subscribers reports how many clients listen on topic.
func (h *Hub) Subscribers(topic string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.topics[topic])
}

// Broadcast sends an event to all clients of a topic. A nil Hub drops events.
func (h *Hub) Broadcast(topic string, event Event) {
	if h == nil {
		return
	}
	h.mu.RLock()
	defer h.mu.RUnlock()

	clients, ok := h.topics[topic]
	if !ok {
		return
	}
	messageBytes, err := json.Marshal(event)
	if err != nil {
		log.Printf("hub: marshal %s event: %v", event.Type, err)
		return
	}

	for client := range clients {
		// Slow clients are skipped rather than blocking the publisher.
		select {
		case client <- messageBytes:
		default:
		}
	}
}
