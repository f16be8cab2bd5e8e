package domain

import (
	"time"
)

// TerminalReason enumerates why a ladder-game session ended.
type TerminalReason string

// The four ways a session can reach its terminal state.
const (
	ReasonWin         TerminalReason = "win"
	ReasonWrongAnswer TerminalReason = "wrong_answer"
	ReasonTimeUp      TerminalReason = "time_up"
	ReasonCashOut     TerminalReason = "cash_out"
)

// AnsweredQuestion records a single locked-in answer for the attempt history.
type AnsweredQuestion struct {
	Level      int    `json:"level"`
	QuestionID string `json:"question_id"`
	Topic      string `json:"topic"`
	Chosen     Option `json:"chosen"`
	Correct    Option `json:"correct"`
	WasCorrect bool   `json:"was_correct"`
}

// Attempt is the summary of one finished ladder-game session, as accepted by
// the attempt-history sink.
type Attempt struct {
	ID             int64              `json:"id"`
	UserID         string             `json:"user_id"`
	Answers        []AnsweredQuestion `json:"answers"`
	CorrectCount   int                `json:"correct_count"`
	TotalQuestions int                `json:"total_questions"`
	Percentage     float64            `json:"percentage"`
	Topics         []string           `json:"topics"`
	LevelReached   int                `json:"level_reached"`
	FinalReward    int64              `json:"final_reward"`
	TerminalReason TerminalReason     `json:"terminal_reason"`
	Win            bool               `json:"win"`
	CreatedAt      time.Time          `json:"created_at"`
}

// Credit is a single token-ledger entry crediting a player.
type Credit struct {
	ID        int64     `json:"id"`
	UserID    string    `json:"user_id"`
	Amount    int64     `json:"amount"`
	ReasonTag string    `json:"reason_tag"`
	Level     int       `json:"level"`
	CreatedAt time.Time `json:"created_at"`
}
