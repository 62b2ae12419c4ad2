package websocket

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
)

type subscription struct {
	client   *Client
	battleID uuid.UUID
}

// Hub fans battle events out to subscribed clients and targeted pushes out
// to a user's connections. It implements the service layer's EventPublisher.
type Hub struct {
	clients       map[*Client]bool
	battleClients map[uuid.UUID]map[*Client]bool
	userClients   map[uuid.UUID]map[*Client]bool
	register      chan *Client
	unregister    chan *Client
	subscribe     chan *subscription
	unsubscribe   chan *subscription
	stop          chan struct{}
	done          chan struct{}
	stopped       bool
	mu            sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:       make(map[*Client]bool),
		battleClients: make(map[uuid.UUID]map[*Client]bool),
		userClients:   make(map[uuid.UUID]map[*Client]bool),
		register:      make(chan *Client),
		unregister:    make(chan *Client),
		subscribe:     make(chan *subscription),
		unsubscribe:   make(chan *subscription),
		stop:          make(chan struct{}),
		done:          make(chan struct{}),
	}
}

func (h *Hub) Run() {
	defer close(h.done)

	for {
		select {
		case <-h.stop:
			h.mu.Lock()
			h.stopped = true
			for client := range h.clients {
				client.Close()
			}
			h.clients = make(map[*Client]bool)
			h.battleClients = make(map[uuid.UUID]map[*Client]bool)
			h.userClients = make(map[uuid.UUID]map[*Client]bool)
			h.mu.Unlock()
			return

		case client := <-h.register:
			h.mu.Lock()
			if !h.stopped {
				h.clients[client] = true
				if h.userClients[client.userID] == nil {
					h.userClients[client.userID] = make(map[*Client]bool)
				}
				h.userClients[client.userID][client] = true
			}
			h.mu.Unlock()

		case client := <-h.unregister:
			h.mu.Lock()
			if !h.stopped {
				if _, ok := h.clients[client]; ok {
					delete(h.clients, client)
					for battleID := range client.battles {
						delete(h.battleClients[battleID], client)
					}
					delete(h.userClients[client.userID], client)
					client.Close()
				}
			}
			h.mu.Unlock()

		case sub := <-h.subscribe:
			h.mu.Lock()
			if !h.stopped {
				if h.battleClients[sub.battleID] == nil {
					h.battleClients[sub.battleID] = make(map[*Client]bool)
				}
				h.battleClients[sub.battleID][sub.client] = true
				sub.client.battles[sub.battleID] = true
			}
			h.mu.Unlock()

			if msg, err := NewMessage(MessageTypeSubscribed, SubscribedPayload{BattleID: sub.battleID.String()}); err == nil {
				if data, err := json.Marshal(msg); err == nil {
					sub.client.trySend(data)
				}
			}

		case sub := <-h.unsubscribe:
			h.mu.Lock()
			if !h.stopped {
				delete(h.battleClients[sub.battleID], sub.client)
				delete(sub.client.battles, sub.battleID)
			}
			h.mu.Unlock()
		}
	}
}

// Stop shuts the hub down and waits for Run to exit.
func (h *Hub) Stop() {
	close(h.stop)
	<-h.done
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

// battleEnvelope is the frame pushed for battle and user events.
type battleEnvelope struct {
	Event     string      `json:"event"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

// PublishBattleEvent broadcasts a committed battle transition to every
// client watching the battle.
func (h *Hub) PublishBattleEvent(battleID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(battleEnvelope{
		Event:     eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.battleClients[battleID] {
		client.trySend(data)
	}
}

// PushToUser delivers an event to all of one user's connections.
func (h *Hub) PushToUser(userID uuid.UUID, eventType string, payload interface{}) {
	data, err := json.Marshal(battleEnvelope{
		Event:     eventType,
		Payload:   payload,
		Timestamp: time.Now().UnixMilli(),
	})
	if err != nil {
		return
	}

	h.mu.RLock()
	defer h.mu.RUnlock()
	for client := range h.userClients[userID] {
		client.trySend(data)
	}
}
