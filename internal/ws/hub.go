// Package ws pushes game session events to connected browser tabs over
// WebSocket.
package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/coder/websocket"
	"github.com/yclau/chemladder/internal/game"
)

const writeTimeout = 5 * time.Second

// Hub manages active WebSocket connections for players and fans game events
// out to them. It implements game.Notifier; delivery is best-effort and never
// blocks the engine.
type Hub struct {
	mu     sync.RWMutex
	active map[string]map[string]*websocket.Conn
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{
		active: make(map[string]map[string]*websocket.Conn),
	}
}

// Register adds a new WebSocket connection for a player/tab.
func (h *Hub) Register(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if _, exists := h.active[userID]; !exists {
		h.active[userID] = make(map[string]*websocket.Conn)
	}

	if existing, exists := h.active[userID][sessionID]; exists && existing != conn {
		_ = existing.Close(websocket.StatusNormalClosure, "connection replaced")
	}

	h.active[userID][sessionID] = conn
	slog.Info("Game event connection registered", "user_id", userID, "session_id", sessionID)
}

// Unregister removes a WebSocket connection for a player/tab.
func (h *Hub) Unregister(userID, sessionID string, conn *websocket.Conn) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if conns, ok := h.active[userID]; ok {
		if current, exists := conns[sessionID]; exists && current == conn {
			delete(conns, sessionID)
			if len(conns) == 0 {
				delete(h.active, userID)
			}
			slog.Info("Game event connection unregistered", "user_id", userID, "session_id", sessionID)
		}
	}
}

// CloseAll forcefully terminates all active connections for a player.
func (h *Hub) CloseAll(userID string) {
	h.mu.Lock()
	defer h.mu.Unlock()

	conns, ok := h.active[userID]
	if !ok {
		return
	}

	for sid, conn := range conns {
		_ = conn.Close(websocket.StatusNormalClosure, "connection closed")
		slog.Info("Game event connection closed", "user_id", userID, "session_id", sid)
	}
	delete(h.active, userID)
}

// Notify implements game.Notifier: it serializes the event once and writes it
// to every connection the player has open. Writes happen off the caller's
// goroutine so a slow client can never stall the game engine.
func (h *Hub) Notify(userID string, ev game.Event) {
	h.mu.RLock()
	conns := make([]*websocket.Conn, 0, len(h.active[userID]))
	for _, conn := range h.active[userID] {
		conns = append(conns, conn)
	}
	h.mu.RUnlock()

	if len(conns) == 0 {
		return
	}

	payload, err := json.Marshal(ev)
	if err != nil {
		slog.Error("Failed to marshal game event", "error", err, "user_id", userID, "type", ev.Type)
		return
	}

	go func() {
		for _, conn := range conns {
			ctx, cancel := context.WithTimeout(context.Background(), writeTimeout)
			if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
				slog.Debug("Failed to write game event", "error", err, "user_id", userID, "type", ev.Type)
			}
			cancel()
		}
	}()
}
