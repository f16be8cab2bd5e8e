package api

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/yclau/chemladder/internal/config"
	"github.com/yclau/chemladder/internal/domain"
	"github.com/yclau/chemladder/internal/game"
	"github.com/yclau/chemladder/internal/identity"
)

// GameHandler handles the ladder-game endpoints.
type GameHandler struct {
	*Handler
	games *game.Manager
	cfg   *config.Config
}

// NewGameHandler creates a new game handler.
func NewGameHandler(base *Handler, games *game.Manager, cfg *config.Config) *GameHandler {
	return &GameHandler{Handler: base, games: games, cfg: cfg}
}

// RegisterRoutes registers the game routes.
func (h *GameHandler) RegisterRoutes(r chi.Router) {
	r.Route("/api", func(r chi.Router) {
		r.Get("/me", h.GetMe)
		r.Get("/config", h.GetConfig)
		r.Route("/game", func(r chi.Router) {
			r.Post("/", h.Start)
			r.Get("/", h.Get)
			r.Post("/select", h.Select)
			r.Post("/lock", h.Lock)
			r.Post("/continue", h.Continue)
			r.Post("/cashout", h.CashOut)
			r.Post("/lifeline", h.UseLifeline)
		})
		r.Get("/attempts", h.ListAttempts)
		r.Get("/wallet", h.GetWallet)
	})
}

// GetMe returns the current player's identity and token balance.
func (h *GameHandler) GetMe(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	player, err := h.repo.GetPlayer(r.Context(), userID)
	if err != nil || player == nil {
		Error(w, http.StatusUnauthorized, "player not found")
		return
	}

	balance, err := h.repo.Balance(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read token balance", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to read balance")
		return
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"user_id":  player.UserID,
		"username": player.Username,
		"balance":  balance,
	})
}

// GetConfig returns the game ruleset for the frontend: the reward ladder,
// milestone levels and timing parameters.
func (h *GameHandler) GetConfig(w http.ResponseWriter, r *http.Request) {
	ladder := h.games.Ladder()

	levels := make([]map[string]interface{}, 0, ladder.Size())
	for lvl := 1; lvl <= ladder.Size(); lvl++ {
		levels = append(levels, map[string]interface{}{
			"level":      lvl,
			"reward":     ladder.RewardFor(lvl),
			"safe_haven": ladder.IsSafeHaven(lvl),
		})
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"ladder":                 levels,
		"timed_from_level":       h.cfg.Game.TimedFromLevel,
		"question_clock_seconds": int(h.cfg.Game.QuestionClock.Seconds()),
	})
}

// Start opens a new game session for the player.
func (h *GameHandler) Start(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	session, err := h.games.Start(r.Context(), userID)
	if err != nil {
		if errors.Is(err, game.ErrSessionActive) {
			Error(w, http.StatusConflict, "game_already_active")
			return
		}
		slog.Error("Failed to start game session", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to start game")
		return
	}

	if err := h.repo.UpdateLastSeen(r.Context(), userID, time.Now()); err != nil {
		slog.Warn("Failed to update last seen", "error", err, "user_id", userID)
	}

	JSON(w, http.StatusCreated, session.Snapshot())
}

// Get returns the player's current session view.
func (h *GameHandler) Get(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}
	JSON(w, http.StatusOK, session.Snapshot())
}

type selectRequest struct {
	Option string `json:"option"`
}

// Select records the tentative answer for the current question.
func (h *GameHandler) Select(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var req selectRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	session.Select(domain.Option(req.Option))
	JSON(w, http.StatusOK, session.Snapshot())
}

// Lock commits the selected answer.
func (h *GameHandler) Lock(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	session.Lock()
	JSON(w, http.StatusOK, session.Snapshot())
}

// Continue advances to the next level.
func (h *GameHandler) Continue(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	session.Continue()
	JSON(w, http.StatusOK, session.Snapshot())
}

// CashOut ends the session voluntarily.
func (h *GameHandler) CashOut(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	session.CashOut()
	JSON(w, http.StatusOK, session.Snapshot())
}

type lifelineRequest struct {
	Kind string `json:"kind"`
}

// UseLifeline invokes a lifeline and returns its advisory payload together
// with the updated state. A refused lifeline is not an error: applied is
// false and the state is unchanged.
func (h *GameHandler) UseLifeline(w http.ResponseWriter, r *http.Request) {
	session, ok := h.currentSession(w, r)
	if !ok {
		return
	}

	var req lifelineRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	result, applied := session.UseLifeline(game.LifelineKind(req.Kind))

	resp := map[string]interface{}{
		"applied": applied,
		"state":   session.Snapshot(),
	}
	if applied {
		resp["result"] = result
	}
	JSON(w, http.StatusOK, resp)
}

// ListAttempts returns the player's recent attempt history.
func (h *GameHandler) ListAttempts(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	attempts, err := h.repo.ListAttempts(r.Context(), userID, 20)
	if err != nil {
		slog.Error("Failed to list attempts", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list attempts")
		return
	}
	if attempts == nil {
		attempts = []domain.Attempt{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{"attempts": attempts})
}

// GetWallet returns the player's token balance and recent ledger entries.
func (h *GameHandler) GetWallet(w http.ResponseWriter, r *http.Request) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	balance, err := h.repo.Balance(r.Context(), userID)
	if err != nil {
		slog.Error("Failed to read token balance", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to read balance")
		return
	}

	credits, err := h.repo.ListCredits(r.Context(), userID, 10)
	if err != nil {
		slog.Error("Failed to list credits", "error", err, "user_id", userID)
		Error(w, http.StatusInternalServerError, "failed to list credits")
		return
	}
	if credits == nil {
		credits = []domain.Credit{}
	}

	JSON(w, http.StatusOK, map[string]interface{}{
		"balance": balance,
		"credits": credits,
	})
}

func (h *GameHandler) currentSession(w http.ResponseWriter, r *http.Request) (*game.Session, bool) {
	userID := identity.UserIDFromContext(r.Context())
	if userID == "" {
		Error(w, http.StatusUnauthorized, "unauthorized")
		return nil, false
	}

	session, ok := h.games.Get(userID)
	if !ok {
		Error(w, http.StatusNotFound, "no_active_game")
		return nil, false
	}
	return session, true
}
