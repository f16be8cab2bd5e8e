package game

import (
	"context"
	"time"

	"github.com/yclau/chemladder/internal/domain"
)

// Outcome is the settlement summary of a finished session: everything the
// attempt-history sink and the token ledger need, computed exactly once at
// the terminal transition.
type Outcome struct {
	SessionID      string
	UserID         string
	Answers        []domain.AnsweredQuestion
	CorrectCount   int
	TotalQuestions int
	Percentage     float64
	Topics         []string
	LevelReached   int
	FinalReward    int64
	Reason         domain.TerminalReason
	Win            bool
	EndedAt        time.Time
}

// Settler accepts a session outcome for persistence. Settle must not block
// the caller; persistence failures are the implementation's to log and
// swallow, never to surface back to the session.
type Settler interface {
	Settle(outcome Outcome)
}

// QuestionSource supplies the ordered question sequence for a new session.
type QuestionSource interface {
	Draw(ctx context.Context, n int) ([]domain.Question, error)
}
