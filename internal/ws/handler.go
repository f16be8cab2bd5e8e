package ws

import (
	"context"
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/coder/websocket"
	"github.com/yclau/chemladder/internal/game"
	"github.com/yclau/chemladder/internal/identity"
)

// Handler upgrades /ws/game requests and keeps the connection registered in
// the hub until the client goes away. The server only pushes; the read loop
// exists to answer pings and to notice disconnects.
type Handler struct {
	hub           *Hub
	games         *game.Manager
	allowedOrigin string
	isDev         bool
}

// NewHandler creates a new WebSocket game-event handler.
func NewHandler(hub *Hub, games *game.Manager, allowedOrigin string, isDev bool) *Handler {
	return &Handler{
		hub:           hub,
		games:         games,
		allowedOrigin: allowedOrigin,
		isDev:         isDev,
	}
}

// ServeHTTP implements http.Handler for WebSocket upgrade.
func (h *Handler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	sessionID := identity.SessionIDFromContext(r.Context())
	slog.Info("Game event connection request", "user_id", userID, "session_id", sessionID, "ip", identity.IPFromRequest(r))

	if !h.checkOrigin(r) {
		http.Error(w, "origin not allowed", http.StatusForbidden)
		return
	}

	conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		OriginPatterns: []string{"*"},
	})
	if err != nil {
		slog.Error("Failed to accept WebSocket", "error", err, "user_id", userID)
		return
	}
	defer func() {
		if closeErr := conn.Close(websocket.StatusNormalClosure, "connection ended"); closeErr != nil {
			slog.Debug("Failed to close websocket", "error", closeErr, "user_id", userID)
		}
	}()

	h.hub.Register(userID, sessionID, conn)
	defer h.hub.Unregister(userID, sessionID, conn)

	ctx, cancel := context.WithCancel(r.Context())
	defer cancel()

	// Replay the current state so a reconnecting tab catches up immediately.
	if session, ok := h.games.Get(userID); ok {
		snap := session.Snapshot()
		h.hub.Notify(userID, game.Event{Type: game.EventState, SessionID: session.ID, State: &snap})
	}

	h.readLoop(ctx, conn, userID)
	slog.Info("Game event connection ended", "user_id", userID)
}

func (h *Handler) checkOrigin(r *http.Request) bool {
	if h.isDev {
		return true
	}
	origin := r.Header.Get("Origin")
	if origin == "" || h.allowedOrigin == "*" {
		return true
	}
	if origin == h.allowedOrigin {
		return true
	}
	slog.Warn("WebSocket origin rejected", "origin", origin, "allowed", h.allowedOrigin)
	return false
}

type wsMessage struct {
	Type string `json:"type"`
}

func (h *Handler) readLoop(ctx context.Context, conn *websocket.Conn, userID string) {
	for {
		_, message, err := conn.Read(ctx)
		if err != nil {
			if websocket.CloseStatus(err) != -1 {
				slog.Debug("WebSocket closed by client", "user_id", userID)
			} else {
				slog.Debug("WebSocket read error", "error", err, "user_id", userID)
			}
			return
		}

		var msg wsMessage
		if err := json.Unmarshal(message, &msg); err != nil {
			continue
		}

		if msg.Type == "ping" {
			pong, _ := json.Marshal(map[string]string{"type": "pong"})
			if err := conn.Write(ctx, websocket.MessageText, pong); err != nil {
				slog.Debug("Failed to send pong", "error", err, "user_id", userID)
				return
			}
		}
	}
}
