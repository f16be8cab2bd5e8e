// Package store provides data persistence interfaces and implementations.
package store

import (
	"context"
	"time"

	"github.com/yclau/chemladder/internal/domain"
)

// Repository defines the interface for persisting players, attempt history,
// the token ledger and the question bank.
type Repository interface {
	// GetPlayer retrieves a player by their user ID.
	GetPlayer(ctx context.Context, userID string) (*domain.Player, error)

	// UpsertPlayer creates or updates a player record.
	UpsertPlayer(ctx context.Context, player *domain.Player) error

	// UpdateLastSeen updates the last_seen_at timestamp for a player.
	UpdateLastSeen(ctx context.Context, userID string, lastSeen time.Time) error

	// SaveAttempt appends a finished session summary to the attempt history.
	SaveAttempt(ctx context.Context, attempt *domain.Attempt) error

	// ListAttempts retrieves up to limit recent attempts for a player,
	// newest first.
	ListAttempts(ctx context.Context, userID string, limit int) ([]domain.Attempt, error)

	// CreditTokens appends a credit entry to the token ledger.
	CreditTokens(ctx context.Context, credit *domain.Credit) error

	// Balance returns the sum of all ledger entries for a player.
	Balance(ctx context.Context, userID string) (int64, error)

	// ListCredits retrieves up to limit recent ledger entries for a player,
	// newest first.
	ListCredits(ctx context.Context, userID string, limit int) ([]domain.Credit, error)

	// CountQuestions returns the number of questions in the bank.
	CountQuestions(ctx context.Context) (int64, error)

	// InsertQuestion adds a question to the bank.
	InsertQuestion(ctx context.Context, q *domain.Question) error

	// RandomQuestions draws n distinct questions from the bank in random order.
	RandomQuestions(ctx context.Context, n int) ([]domain.Question, error)

	// Ping verifies database connectivity and returns an error if the database is unreachable.
	Ping(ctx context.Context) error

	// Close closes the database connection.
	Close() error
}
