package controller

import (
	"context"
	"net/http"
	"runtime/debug"
	"sync"
	"time"

	"github.com/gorilla/websocket"
	"go.uber.org/zap"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 4096,
	CheckOrigin: func(r *http.Request) bool {
		// TODO: In production, restrict to specific origins
		return true
	},
}

// ClientMessage represents messages sent by WebSocket clients.
type ClientMessage struct {
	Action string `json:"action"` // "subscribe" or "unsubscribe"
	Key    string `json:"key"`    // Canonical account key, or "*" for all accounts
}

// ServerMessage represents messages sent to WebSocket clients.
type ServerMessage struct {
	Type    string      `json:"type"`    // "account.updated", "subscribed", "unsubscribed", "error"
	Payload interface{} `json:"payload"` // Event-specific data
}

// clientSubscriptions tracks which account keys a client is subscribed to.
type clientSubscriptions struct {
	mu   sync.RWMutex
	keys map[string]bool
}

// NewClientSubscriptions creates a new clientSubscriptions tracker.
// Exported for testing.
func NewClientSubscriptions() *clientSubscriptions {
	return &clientSubscriptions{
		keys: make(map[string]bool),
	}
}

// Subscribe adds an account key to the subscription list.
// Exported for testing.
func (cs *clientSubscriptions) Subscribe(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	cs.keys[key] = true
}

// Unsubscribe removes an account key from the subscription list.
// Exported for testing.
func (cs *clientSubscriptions) Unsubscribe(key string) {
	cs.mu.Lock()
	defer cs.mu.Unlock()
	delete(cs.keys, key)
}

// IsSubscribed checks if an account key is subscribed. Wildcard (*) matches all keys.
// Exported for testing.
func (cs *clientSubscriptions) IsSubscribed(key string) bool {
	cs.mu.RLock()
	defer cs.mu.RUnlock()
	if cs.keys["*"] {
		return true
	}
	return cs.keys[key]
}

// HandleWebSocket upgrades the HTTP connection to WebSocket and streams
// account change signals from the engine's subscriber hub.
//
// Protocol:
// Client sends: {"action": "subscribe", "key": "0x..."}  // One account
// Client sends: {"action": "subscribe", "key": "*"}      // All accounts
// Client sends: {"action": "unsubscribe", "key": "0x..."}
//
// Server sends:
// - {"type": "account.updated", "payload": {"key": "0x..."}}
// - {"type": "subscribed", "payload": {"key": "0x..."}}
// - {"type": "unsubscribed", "payload": {"key": "0x..."}}
// - {"type": "error", "payload": {"message": "..."}}
//
// IMPORTANT: All goroutines have panic recovery to prevent crashes.
func (c *Controller) HandleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		c.App.Logger.Error("Failed to upgrade WebSocket connection", zap.Error(err))
		return
	}
	defer func(conn *websocket.Conn) {
		if err := conn.Close(); err != nil {
			c.App.Logger.Error("Failed to close WebSocket connection", zap.Error(err))
		}
	}(conn)

	c.App.Logger.Info("WebSocket client connected", zap.String("remote_addr", r.RemoteAddr))

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	subs := NewClientSubscriptions()
	send := make(chan ServerMessage, 256)

	// Feeders write to send; the writer drains it. They use separate
	// WaitGroups so shutdown can stop every feeder before send closes.
	var feeders, writers sync.WaitGroup

	// Forward engine change signals matching this client's subscriptions.
	feeders.Add(1)
	go func() {
		defer feeders.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in change feed goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.forwardChanges(ctx, send, subs)
	}()

	// Keep-alive pings.
	feeders.Add(1)
	go func() {
		defer feeders.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in ping ticker goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.sendPings(ctx, conn)
	}()

	// Message writer.
	writers.Add(1)
	go func() {
		defer writers.Done()
		defer func() {
			if rec := recover(); rec != nil {
				c.App.Logger.Error("Panic in message writer goroutine",
					zap.Any("panic", rec),
					zap.String("stack", string(debug.Stack())),
					zap.String("remote_addr", r.RemoteAddr))
				cancel()
			}
		}()
		c.writeMessages(conn, send)
	}()

	// Read messages from the client (subscriptions and close detection).
	// This blocks until the connection closes.
	c.readClientMessages(ctx, conn, cancel, subs, send)

	// Stop every feeder before closing send; closing while a feeder is
	// still selecting on it would panic. The writer then drains and exits.
	cancel()
	feeders.Wait()
	close(send)
	writers.Wait()

	c.App.Logger.Info("WebSocket client disconnected", zap.String("remote_addr", r.RemoteAddr))
}

// forwardChanges subscribes to the engine's local change feed and forwards
// keys the client cares about. Signals are best-effort: a client that falls
// behind misses updates rather than stalling the commit pipeline.
func (c *Controller) forwardChanges(ctx context.Context, send chan<- ServerMessage, subs *clientSubscriptions) {
	changes, cancel := c.App.Engine.Subscribe()
	defer cancel()

	for {
		select {
		case <-ctx.Done():
			return
		case key, ok := <-changes:
			if !ok {
				return
			}
			if !subs.IsSubscribed(key) {
				continue
			}
			select {
			case send <- ServerMessage{Type: "account.updated", Payload: map[string]string{"key": key}}:
			case <-ctx.Done():
				return
			}
		}
	}
}

// sendPings sends periodic WebSocket ping frames to keep the connection alive.
func (c *Controller) sendPings(ctx context.Context, conn *websocket.Conn) {
	ticker := time.NewTicker(30 * time.Second)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := conn.WriteControl(websocket.PingMessage, []byte{}, time.Now().Add(10*time.Second)); err != nil {
				c.App.Logger.Error("Failed to send ping", zap.Error(err))
				return
			}
		}
	}
}

// writeMessages writes messages from the send channel to the WebSocket connection.
func (c *Controller) writeMessages(conn *websocket.Conn, send <-chan ServerMessage) {
	for msg := range send {
		if err := conn.WriteJSON(msg); err != nil {
			c.App.Logger.Error("Failed to write WebSocket message", zap.Error(err))
			return
		}
	}
}

// readClientMessages reads messages from the WebSocket connection.
// Handles subscription/unsubscription requests and detects connection closure.
func (c *Controller) readClientMessages(ctx context.Context, conn *websocket.Conn, cancel context.CancelFunc, subs *clientSubscriptions, send chan<- ServerMessage) {
	if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
		c.App.Logger.Error("Failed to set read deadline", zap.Error(err))
		return
	}

	conn.SetPongHandler(func(string) error {
		return conn.SetReadDeadline(time.Now().Add(60 * time.Second))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			var msg ClientMessage
			err := conn.ReadJSON(&msg)
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
					c.App.Logger.Error("WebSocket read error", zap.Error(err))
				}
				cancel()
				return
			}

			if err := conn.SetReadDeadline(time.Now().Add(60 * time.Second)); err != nil {
				c.App.Logger.Error("Failed to reset read deadline", zap.Error(err))
				return
			}

			switch msg.Action {
			case "subscribe":
				if msg.Key == "" {
					send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "key is required"}}
					continue
				}
				subs.Subscribe(msg.Key)
				c.App.Logger.Debug("Client subscribed", zap.String("key", msg.Key))
				send <- ServerMessage{Type: "subscribed", Payload: map[string]string{"key": msg.Key}}

			case "unsubscribe":
				if msg.Key == "" {
					send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "key is required"}}
					continue
				}
				subs.Unsubscribe(msg.Key)
				c.App.Logger.Debug("Client unsubscribed", zap.String("key", msg.Key))
				send <- ServerMessage{Type: "unsubscribed", Payload: map[string]string{"key": msg.Key}}

			default:
				send <- ServerMessage{Type: "error", Payload: map[string]string{"message": "unknown action: " + msg.Action}}
			}
		}
	}
}
