// Package settle persists finished game sessions: the attempt summary goes to
// the history store and any positive payout is credited to the token ledger.
// Submission is queued and asynchronous; the game engine never waits on it,
// and persistence failures are logged and swallowed, never retried.
package settle

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/yclau/chemladder/internal/domain"
	"github.com/yclau/chemladder/internal/game"
	"github.com/yclau/chemladder/internal/shared"
	"github.com/yclau/chemladder/internal/store"
)

const (
	persistTimeout = 10 * time.Second
	maxRetries     = 3
	baseRetryDelay = 50 * time.Millisecond
)

// Submitter implements game.Settler with a buffered queue and a single
// worker goroutine.
type Submitter struct {
	repo   store.Repository
	logger *slog.Logger

	mu     sync.Mutex
	queue  chan game.Outcome
	closed bool
	wg     sync.WaitGroup
}

// NewSubmitter creates a settlement submitter with the given queue capacity
// and starts its worker.
func NewSubmitter(repo store.Repository, queueSize int, logger *slog.Logger) *Submitter {
	if queueSize <= 0 {
		queueSize = 64
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &Submitter{
		repo:   repo,
		logger: logger,
		queue:  make(chan game.Outcome, queueSize),
	}

	s.wg.Add(1)
	go s.worker()
	return s
}

// Settle enqueues an outcome for persistence. Never blocks: if the queue is
// full or the submitter is closed, the outcome is dropped with a log line.
// The session's terminal state is already visible to the player either way.
func (s *Submitter) Settle(outcome game.Outcome) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.closed {
		s.logger.Error("Settlement dropped: submitter closed",
			"user_id", outcome.UserID, "session_id", outcome.SessionID)
		return
	}

	select {
	case s.queue <- outcome:
	default:
		s.logger.Error("Settlement dropped: queue full",
			"user_id", outcome.UserID, "session_id", outcome.SessionID)
	}
}

// Close stops accepting outcomes and waits for the queue to drain.
func (s *Submitter) Close() {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.closed = true
	close(s.queue)
	s.mu.Unlock()

	s.wg.Wait()
}

func (s *Submitter) worker() {
	defer s.wg.Done()
	for outcome := range s.queue {
		s.persist(outcome)
	}
}

// persist writes the attempt summary and, for a positive reward, the ledger
// credit. Each write failure is logged independently; neither blocks the
// other nor reaches the player.
func (s *Submitter) persist(outcome game.Outcome) {
	ctx, cancel := context.WithTimeout(context.Background(), persistTimeout)
	defer cancel()

	attempt := &domain.Attempt{
		UserID:         outcome.UserID,
		Answers:        outcome.Answers,
		CorrectCount:   outcome.CorrectCount,
		TotalQuestions: outcome.TotalQuestions,
		Percentage:     outcome.Percentage,
		Topics:         outcome.Topics,
		LevelReached:   outcome.LevelReached,
		FinalReward:    outcome.FinalReward,
		TerminalReason: outcome.Reason,
		Win:            outcome.Win,
		CreatedAt:      outcome.EndedAt,
	}
	if err := s.withRetry(ctx, func() error { return s.repo.SaveAttempt(ctx, attempt) }); err != nil {
		s.logger.Error("Failed to save attempt history",
			"error", err,
			"user_id", outcome.UserID,
			"session_id", outcome.SessionID)
	}

	if outcome.FinalReward > 0 {
		credit := &domain.Credit{
			UserID:    outcome.UserID,
			Amount:    outcome.FinalReward,
			ReasonTag: "ladder_game:" + string(outcome.Reason),
			Level:     outcome.LevelReached,
			CreatedAt: outcome.EndedAt,
		}
		if err := s.withRetry(ctx, func() error { return s.repo.CreditTokens(ctx, credit) }); err != nil {
			s.logger.Error("Failed to credit token ledger",
				"error", err,
				"user_id", outcome.UserID,
				"session_id", outcome.SessionID,
				"amount", outcome.FinalReward)
		}
	}

	s.logger.Info("Game session settled",
		"user_id", outcome.UserID,
		"session_id", outcome.SessionID,
		"reason", outcome.Reason,
		"level", outcome.LevelReached,
		"reward", outcome.FinalReward)
}

// withRetry reruns a write that failed on SQLite lock contention, backing off
// exponentially. Any other error is returned as-is.
func (s *Submitter) withRetry(ctx context.Context, fn func() error) error {
	var err error
	for i := 0; i < maxRetries; i++ {
		err = fn()
		if err == nil || !shared.IsSQLiteConflictError(err) {
			return err
		}
		if i < maxRetries-1 {
			delay := baseRetryDelay * time.Duration(1<<i)
			s.logger.Debug("Database locked during settlement, retrying",
				"attempt", i+1, "delay", delay)
			select {
			case <-time.After(delay):
			case <-ctx.Done():
				return err
			}
		}
	}
	return err
}
