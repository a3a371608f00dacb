package websocket

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/thriftshop/storefront/pkg/logger"
)

// Event types pushed to shoppers.
const (
	EventCartUpdated  = "cart.updated"
	EventStockChanged = "stock.changed"
)

// Event is one message on a shopper's stream.
type Event struct {
	Type      string `json:"type"`
	ProductID uint   `json:"product_id,omitempty"`
	Quantity  int    `json:"quantity,omitempty"` // remaining stock for stock.changed
}

// Client is one open connection. A shopper may hold several.
type Client struct {
	Hub    *Hub
	Conn   *Conn
	UserID uint
	Send   chan []byte
}

func NewClient(hub *Hub, conn *Conn, userID uint) *Client {
	return &Client{Hub: hub, Conn: conn, UserID: userID, Send: make(chan []byte, 64)}
}

type delivery struct {
	userIDs []uint
	payload []byte
}

// Hub fans events out to every connection of the addressed users.
type Hub struct {
	clients map[uint][]*Client

	register   chan *Client
	unregister chan *Client
	deliver    chan delivery

	mu sync.RWMutex
}

func NewHub() *Hub {
	return &Hub{
		clients:    make(map[uint][]*Client),
		register:   make(chan *Client, 256),
		unregister: make(chan *Client, 256),
		deliver:    make(chan delivery, 1024),
	}
}

// Run processes registrations and deliveries until ctx is done.
func (h *Hub) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			h.closeAll()
			return

		case client := <-h.register:
			h.mu.Lock()
			h.clients[client.UserID] = append(h.clients[client.UserID], client)
			sessions := len(h.clients[client.UserID])
			h.mu.Unlock()
			logger.Info("WebSocket client registered", map[string]interface{}{
				"user_id":        client.UserID,
				"total_sessions": sessions,
			})

		case client := <-h.unregister:
			h.remove(client)

		case d := <-h.deliver:
			h.mu.RLock()
			var slow []*Client
			for _, userID := range d.userIDs {
				for _, client := range h.clients[userID] {
					select {
					case client.Send <- d.payload:
					default:
						slow = append(slow, client)
					}
				}
			}
			h.mu.RUnlock()
			for _, client := range slow {
				logger.Warn("Client send buffer full, disconnecting", map[string]interface{}{
					"user_id": client.UserID,
				})
				h.remove(client)
			}
		}
	}
}

// remove drops client and closes its Send channel exactly once.
func (h *Hub) remove(client *Client) {
	h.mu.Lock()
	defer h.mu.Unlock()

	list := h.clients[client.UserID]
	kept := list[:0:0]
	found := false
	for _, c := range list {
		if c == client {
			found = true
			continue
		}
		kept = append(kept, c)
	}
	if !found {
		return
	}
	if len(kept) == 0 {
		delete(h.clients, client.UserID)
	} else {
		h.clients[client.UserID] = kept
	}
	close(client.Send)

	logger.Info("WebSocket client unregistered", map[string]interface{}{
		"user_id":            client.UserID,
		"remaining_sessions": len(kept),
	})
}

func (h *Hub) closeAll() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, list := range h.clients {
		for _, c := range list {
			close(c.Send)
		}
		delete(h.clients, userID)
	}
}

func (h *Hub) Register(client *Client) {
	h.register <- client
}

func (h *Hub) Unregister(client *Client) {
	h.unregister <- client
}

// Publish queues event for every connection of the given users. Events are
// dropped when the hub is saturated; clients resync on their next request.
func (h *Hub) Publish(event Event, userIDs ...uint) {
	if len(userIDs) == 0 {
		return
	}
	data, err := json.Marshal(event)
	if err != nil {
		logger.Error("Failed to marshal event", err)
		return
	}

	select {
	case h.deliver <- delivery{userIDs: userIDs, payload: data}:
	default:
		logger.Warn("Event channel full, event dropped", map[string]interface{}{
			"type":  event.Type,
			"users": len(userIDs),
		})
	}
}

func (h *Hub) PublishCartUpdated(userID uint) {
	h.Publish(Event{Type: EventCartUpdated}, userID)
}

func (h *Hub) PublishStockChanged(productID uint, remaining int, userIDs []uint) {
	h.Publish(Event{Type: EventStockChanged, ProductID: productID, Quantity: remaining}, userIDs...)
}

func (h *Hub) IsUserOnline(userID uint) bool {
	h.mu.RLock()
	defer h.mu.RUnlock()
	_, ok := h.clients[userID]
	return ok
}
