package game

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/yclau/chemladder/internal/config"
)

var (
	// ErrSessionActive is returned when a player starts a game while an
	// unfinished one exists; the old session must settle first.
	ErrSessionActive = errors.New("an unfinished game is already in progress")
	// ErrNoSession is returned when a player has no session at all.
	ErrNoSession = errors.New("no active game session")
)

// Manager owns the active sessions, one per player at most.
type Manager struct {
	mu       sync.RWMutex
	sessions map[string]*Session

	cfg      config.GameConfig
	ladder   *Ladder
	source   QuestionSource
	settler  Settler
	notifier Notifier
}

// NewManager creates a session manager. A nil notifier discards events.
func NewManager(cfg config.GameConfig, ladder *Ladder, source QuestionSource, settler Settler, notifier Notifier) *Manager {
	if notifier == nil {
		notifier = NopNotifier{}
	}
	return &Manager{
		sessions: make(map[string]*Session),
		cfg:      cfg,
		ladder:   ladder,
		source:   source,
		settler:  settler,
		notifier: notifier,
	}
}

// Ladder returns the shared reward table.
func (m *Manager) Ladder() *Ladder {
	return m.ladder
}

// Start draws a fresh question sequence and opens a new session for the
// player. Refused while an unfinished session exists; a settled one is
// replaced.
func (m *Manager) Start(ctx context.Context, userID string) (*Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if existing, ok := m.sessions[userID]; ok && !existing.Settled() {
		return nil, ErrSessionActive
	}

	questions, err := m.source.Draw(ctx, m.ladder.Size())
	if err != nil {
		return nil, fmt.Errorf("draw questions: %w", err)
	}
	if len(questions) < m.ladder.Size() {
		return nil, fmt.Errorf("question bank too small: need %d, got %d", m.ladder.Size(), len(questions))
	}

	session := newSession(userID, questions, m.ladder, m.cfg, m.settler, m.notifier)
	m.sessions[userID] = session
	slog.Info("Game session started", "user_id", userID, "session_id", session.ID)

	session.begin()
	return session, nil
}

// Get returns the player's current session, settled or not.
func (m *Manager) Get(userID string) (*Session, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	session, ok := m.sessions[userID]
	return session, ok
}

// Remove evicts the player's session if it is the given one. Used by the
// reaper once a settled session has outlived its usefulness.
func (m *Manager) Remove(userID string, session *Session) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if current, ok := m.sessions[userID]; ok && current == session {
		delete(m.sessions, userID)
	}
}

// snapshotSessions returns the current sessions without holding the lock
// during the sweep.
func (m *Manager) snapshotSessions() map[string]*Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make(map[string]*Session, len(m.sessions))
	for userID, session := range m.sessions {
		out[userID] = session
	}
	return out
}
