package game

import (
	"time"

	"github.com/yclau/chemladder/internal/domain"
)

// EventType identifies a session event pushed to connected clients.
type EventType string

// Session event types.
const (
	// EventState is a full redacted snapshot, sent after every accepted mutation.
	EventState EventType = "state"
	// EventClock announces the countdown deadline for a timed level.
	EventClock EventType = "clock"
	// EventReveal announces the outcome of a locked answer.
	EventReveal EventType = "reveal"
	// EventSettled announces the terminal reason and final reward.
	EventSettled EventType = "settled"
)

// RevealInfo is the payload of an EventReveal.
type RevealInfo struct {
	Level       int            `json:"level"`
	Chosen      domain.Option  `json:"chosen"`
	Correct     domain.Option  `json:"correct"`
	WasCorrect  bool           `json:"was_correct"`
	Banked      int64          `json:"banked"`
	Explanation string         `json:"explanation,omitempty"`
}

// SettledInfo is the payload of an EventSettled.
type SettledInfo struct {
	Reason      domain.TerminalReason `json:"reason"`
	Level       int                   `json:"level"`
	FinalReward int64                 `json:"final_reward"`
	Win         bool                  `json:"win"`
}

// Event is a single session event.
type Event struct {
	Type      EventType    `json:"type"`
	SessionID string       `json:"session_id"`
	State     *Snapshot    `json:"state,omitempty"`
	ClockEnds *time.Time   `json:"clock_ends,omitempty"`
	Reveal    *RevealInfo  `json:"reveal,omitempty"`
	Settled   *SettledInfo `json:"settled,omitempty"`
}

// Notifier delivers session events to a player's connected clients.
// Implementations must not block; delivery is best-effort.
type Notifier interface {
	Notify(userID string, ev Event)
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(string, Event) {}
