package websocket

import (
	"sync"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

// Notification types pushed to dashboards
const (
	NotificationTypeConnected        = "connected"
	NotificationTypeContactSubmitted = "contact_submitted"
	NotificationTypeWalletTransfer   = "wallet_transfer"
	NotificationTypeDonationUpdated  = "donation_updated"
)

// Notification represents a message sent over WebSocket
type Notification struct {
	Type    string      `json:"type"`
	Message string      `json:"message"`
	Data    interface{} `json:"data,omitempty"`
	UserID  string      `json:"userID,omitempty"`
}

// Client represents a connected WebSocket client
type Client struct {
	UserID   string
	UserType string
	Conn     *websocket.Conn
	send     chan Notification
}

type delivery struct {
	notification Notification
	userID       string
	userType     string
}

func (d delivery) matches(c *Client) bool {
	if d.userID != "" && c.UserID != d.userID {
		return false
	}
	if d.userType != "" && c.UserType != d.userType {
		return false
	}
	return true
}

// Hub maintains the set of active clients and broadcasts messages
type Hub struct {
	clients    map[*Client]bool
	register   chan *Client
	unregister chan *Client
	deliveries chan delivery
	stopped    chan struct{}
	mu         sync.RWMutex
}

// NewHub creates a new Hub instance
func NewHub() *Hub {
	return &Hub{
		clients:    make(map[*Client]bool),
		register:   make(chan *Client),
		unregister: make(chan *Client),
		deliveries: make(chan delivery, 64),
		stopped:    make(chan struct{}),
	}
}

// Run starts the hub's event loop and returns once stop is closed
func (h *Hub) Run(stop <-chan struct{}) {
	for {
		select {
		case <-stop:
			close(h.stopped)
			h.mu.Lock()
			for client := range h.clients {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
			return
		case client := <-h.register:
			h.mu.Lock()
			h.clients[client] = true
			h.mu.Unlock()
		case client := <-h.unregister:
			h.mu.Lock()
			if _, ok := h.clients[client]; ok {
				delete(h.clients, client)
				close(client.send)
			}
			h.mu.Unlock()
		case d := <-h.deliveries:
			h.mu.Lock()
			for client := range h.clients {
				if !d.matches(client) {
					continue
				}
				select {
				case client.send <- d.notification:
				default:
					// slow consumer
					zap.L().Warn("dropping websocket client with full buffer", zap.String("userId", client.UserID))
					delete(h.clients, client)
					close(client.send)
				}
			}
			h.mu.Unlock()
		}
	}
}

// BroadcastToType queues a notification for every client of userType
func (h *Hub) BroadcastToType(userType string, notification Notification) {
	h.enqueue(delivery{notification: notification, userType: userType})
}

// SendToUser queues a notification for the connections of one user
func (h *Hub) SendToUser(userID string, notification Notification) {
	h.enqueue(delivery{notification: notification, userID: userID})
}

func (h *Hub) enqueue(d delivery) {
	select {
	case h.deliveries <- d:
	default:
		zap.L().Warn("websocket hub queue full, notification dropped", zap.String("type", d.notification.Type))
	}
}

// ClientCount returns the number of registered connections
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.clients)
}
