package realtime

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat.
	PingInterval = 30
	PongWait     = 60
)

// Notification is the payload pushed to clients on swap lifecycle events.
type Notification struct {
	Type      string    `json:"type"` // new-request | request-accepted | request-rejected
	Message   string    `json:"message"`
	Timestamp time.Time `json:"timestamp"`
}

// Publisher publishes a user-addressed event to Redis for cross-instance delivery.
type Publisher interface {
	PublishUserEvent(userID uuid.UUID, payload []byte) error
}

// Subscriber subscribes to a user's channel and invokes handler for incoming events.
type Subscriber interface {
	SubscribeUser(userID uuid.UUID, handler func(payload []byte)) (cancel func(), err error)
}

// Hub maintains user_id -> set of live connections and delivers notifications
// to whichever of a user's devices are connected. It replaces the ambient
// registration map with injected, lifecycle-scoped state: created at startup,
// connections unregister on disconnect, Close drops everything on shutdown.
//
// With a Publisher/Subscriber pair the hub fans out through Redis so a user
// connected to another instance still receives the event; without them it
// delivers locally only.
type Hub struct {
	users  map[uuid.UUID]map[string]*Client
	subs   map[uuid.UUID]func() // cancel Redis subscription per user
	mu     sync.RWMutex
	logger *zap.Logger
	pub    Publisher
	sub    Subscriber
}

// NewHub creates a notification hub. pub and sub may be nil for single-instance mode.
func NewHub(logger *zap.Logger, pub Publisher, sub Subscriber) *Hub {
	return &Hub{
		users:  make(map[uuid.UUID]map[string]*Client),
		subs:   make(map[uuid.UUID]func()),
		logger: logger,
		pub:    pub,
		sub:    sub,
	}
}

// Register adds a connection under its user and ensures the user's Redis
// subscription exists. The subscription check is tied to the subs map, not to
// the first connection, so a failed subscribe is retried on the next Register
// instead of leaving the user silently cut off from fan-out.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.users[c.UserID] == nil {
		h.users[c.UserID] = make(map[string]*Client)
	}
	if h.sub != nil && h.subs[c.UserID] == nil {
		cancel, err := h.sub.SubscribeUser(c.UserID, func(payload []byte) {
			h.deliverLocal(c.UserID, payload)
		})
		if err == nil {
			h.subs[c.UserID] = cancel
		} else {
			h.logger.Warn("user subscription failed", zap.Error(err), zap.String("user_id", c.UserID.String()))
		}
	}
	h.users[c.UserID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client registered", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// Unregister removes a connection. Cancels the user's Redis subscription when
// the last connection for that user goes away.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.users[c.UserID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.users, c.UserID)
			if cancel, ok := h.subs[c.UserID]; ok {
				cancel()
				delete(h.subs, c.UserID)
			}
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client unregistered", zap.String("client_id", c.ID), zap.String("user_id", c.UserID.String()))
}

// NotifyUser pushes a notification to all of the user's connections.
// Fire-and-forget: an offline user or a full send buffer drops the event, and
// no error ever reaches the caller.
func (h *Hub) NotifyUser(userID uuid.UUID, event, message string) {
	payload, err := json.Marshal(Notification{Type: event, Message: message, Timestamp: time.Now()})
	if err != nil {
		return
	}
	if h.pub != nil {
		// Publish only: the subscription callback delivers to local clients
		// once, on every instance, so nobody receives the event twice. The
		// publish runs off the caller's goroutine so a slow Redis cannot
		// hold up the mutation response it was triggered from.
		go func() {
			if err := h.pub.PublishUserEvent(userID, payload); err != nil {
				h.logger.Warn("notification publish failed", zap.Error(err), zap.String("user_id", userID.String()))
			}
		}()
		return
	}
	h.deliverLocal(userID, payload)
}

func (h *Hub) deliverLocal(userID uuid.UUID, payload []byte) {
	msg := WSMessage{Event: "notification", Data: payload}

	h.mu.RLock()
	clients := h.users[userID]
	targets := make([]*Client, 0, len(clients))
	for _, c := range clients {
		targets = append(targets, c)
	}
	h.mu.RUnlock()

	for _, c := range targets {
		c.enqueue(msg)
	}
}

// ConnectionCount returns the number of live connections for a user.
func (h *Hub) ConnectionCount(userID uuid.UUID) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	return len(h.users[userID])
}

// Close cancels all Redis subscriptions and forgets every connection. Called
// on server shutdown; clients are closed by their own pumps.
func (h *Hub) Close() {
	h.mu.Lock()
	defer h.mu.Unlock()
	for userID, cancel := range h.subs {
		cancel()
		delete(h.subs, userID)
	}
	h.users = make(map[uuid.UUID]map[string]*Client)
}
