package game

import (
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/yclau/chemladder/internal/config"
	"github.com/yclau/chemladder/internal/domain"
)

// Phase is the externally visible state of a session's state machine.
type Phase string

// Session phases. Playing and Locked are per-question; Cleared and Checkpoint
// pause the session between questions awaiting an explicit continue or
// cash-out; Over is terminal.
const (
	PhasePlaying    Phase = "playing"
	PhaseLocked     Phase = "locked"
	PhaseCleared    Phase = "cleared"
	PhaseCheckpoint Phase = "checkpoint"
	PhaseOver       Phase = "over"
)

// QuestionView is the redacted client-facing shape of the current question.
// It never carries the correct label or the explanation.
type QuestionView struct {
	ID      string                   `json:"id"`
	Topic   string                   `json:"topic"`
	Stem    string                   `json:"stem"`
	Choices map[domain.Option]string `json:"choices"`
}

// Snapshot is the full redacted view of a session, safe to hand to clients.
type Snapshot struct {
	SessionID     string                `json:"session_id"`
	Level         int                   `json:"level"`
	TotalLevels   int                   `json:"total_levels"`
	Phase         Phase                 `json:"phase"`
	Question      *QuestionView         `json:"question,omitempty"`
	Hidden        []domain.Option       `json:"hidden,omitempty"`
	Selected      domain.Option         `json:"selected,omitempty"`
	Locked        domain.Option         `json:"locked,omitempty"`
	Banked        int64                 `json:"banked"`
	LifelinesUsed map[LifelineKind]bool `json:"lifelines_used"`
	SafeHaven     bool                  `json:"safe_haven"`
	Timed         bool                  `json:"timed"`
	ClockEndsAt   *time.Time            `json:"clock_ends_at,omitempty"`
	Reveal        *RevealInfo           `json:"reveal,omitempty"`
	Terminal      domain.TerminalReason `json:"terminal,omitempty"`
	FinalReward   *int64                `json:"final_reward,omitempty"`
}

// Session is a single play-through of the ladder. It is owned by exactly one
// player and mutated only through its methods; every invalid operation is a
// silent no-op, matching the UI contract that disabled controls may still
// race a stale request in.
//
// The epoch counter guards the two timer-driven callbacks (question clock,
// reveal delay): it is bumped on every level change and on the terminal
// transition, so a countdown scheduled against level k can never resolve
// against level k+1 or against a finished session.
type Session struct {
	// ID is the unique session identifier.
	ID string

	userID string

	mu        sync.Mutex
	cfg       config.GameConfig
	ladder    *Ladder
	questions []domain.Question

	level    int
	phase    Phase
	selected domain.Option
	locked   domain.Option
	hidden   map[domain.Option]bool
	used     map[LifelineKind]bool
	answers  []domain.AnsweredQuestion
	banked   int64

	terminal    domain.TerminalReason
	finalReward int64
	settled     atomic.Bool

	epoch       int
	clockEndsAt *time.Time
	clockTimer  *time.Timer
	revealTimer *time.Timer

	lastActivity time.Time
	lastReveal   *RevealInfo

	settler  Settler
	notifier Notifier
}

func newSession(userID string, questions []domain.Question, ladder *Ladder, cfg config.GameConfig, settler Settler, notifier Notifier) *Session {
	return &Session{
		ID:           uuid.NewString(),
		userID:       userID,
		cfg:          cfg,
		ladder:       ladder,
		questions:    questions,
		level:        1,
		phase:        PhasePlaying,
		hidden:       make(map[domain.Option]bool),
		used:         make(map[LifelineKind]bool),
		lastActivity: time.Now(),
		settler:      settler,
		notifier:     notifier,
	}
}

// begin arms the first level's clock and announces the initial state.
func (s *Session) begin() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.startClockLocked()
	s.notifyStateLocked()
}

// UserID returns the owning player's ID.
func (s *Session) UserID() string {
	return s.userID
}

// Select sets the tentative answer for the current question. Last write wins;
// hidden options cannot be selected. No-op outside an unlocked Playing phase.
func (s *Session) Select(opt domain.Option) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || s.phase != PhasePlaying || s.locked != "" {
		return
	}
	if !opt.Valid() || s.hidden[opt] {
		return
	}

	s.selected = opt
	s.touchLocked()
	s.notifyStateLocked()
}

// Lock irrevocably commits the selected answer for the current level and
// schedules the reveal after the configured settle delay. No-op unless
// exactly one option is selected and nothing is locked yet.
func (s *Session) Lock() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || s.phase != PhasePlaying || s.selected == "" || s.locked != "" {
		return
	}

	s.locked = s.selected
	s.phase = PhaseLocked
	s.stopClockLocked()

	q := s.currentQuestionLocked()
	s.answers = append(s.answers, domain.AnsweredQuestion{
		Level:      s.level,
		QuestionID: q.ID,
		Topic:      q.Topic,
		Chosen:     s.locked,
		Correct:    q.Correct,
		WasCorrect: s.locked == q.Correct,
	})

	s.touchLocked()
	s.notifyStateLocked()

	epoch := s.epoch
	s.revealTimer = time.AfterFunc(s.cfg.RevealDelay, func() {
		s.reveal(epoch)
	})
}

// reveal evaluates the locked answer once the settle delay elapses.
func (s *Session) reveal(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || epoch != s.epoch || s.phase != PhaseLocked {
		return
	}
	s.revealTimer = nil

	q := s.currentQuestionLocked()
	correct := s.locked == q.Correct

	info := &RevealInfo{
		Level:       s.level,
		Chosen:      s.locked,
		Correct:     q.Correct,
		WasCorrect:  correct,
		Explanation: q.Explanation,
	}

	if !correct {
		info.Banked = s.banked
		s.lastReveal = info
		s.notifier.Notify(s.userID, Event{Type: EventReveal, SessionID: s.ID, Reveal: info})
		s.terminalizeLocked(domain.ReasonWrongAnswer)
		return
	}

	s.banked = s.ladder.RewardFor(s.level)
	info.Banked = s.banked
	s.lastReveal = info
	s.notifier.Notify(s.userID, Event{Type: EventReveal, SessionID: s.ID, Reveal: info})

	switch {
	case s.level == s.ladder.Size():
		s.terminalizeLocked(domain.ReasonWin)
	case s.ladder.IsSafeHaven(s.level):
		s.phase = PhaseCheckpoint
		s.notifyStateLocked()
	default:
		s.phase = PhaseCleared
		s.notifyStateLocked()
	}
}

// Continue advances to the next level after a cleared question or milestone
// checkpoint. Resets per-question state and restarts the clock if the new
// level is timed.
func (s *Session) Continue() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || (s.phase != PhaseCleared && s.phase != PhaseCheckpoint) {
		return
	}

	s.selected = ""
	s.locked = ""
	s.hidden = make(map[domain.Option]bool)
	s.lastReveal = nil
	s.level++
	s.epoch++
	s.phase = PhasePlaying

	s.touchLocked()
	s.startClockLocked()
	s.notifyStateLocked()
}

// CashOut ends the session voluntarily. Valid from a cleared question, a
// milestone checkpoint, or at any point before an answer is locked. The
// payout follows the cash-out table, not the banked amount.
func (s *Session) CashOut() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" {
		return
	}
	allowed := (s.phase == PhasePlaying && s.locked == "") ||
		s.phase == PhaseCleared || s.phase == PhaseCheckpoint
	if !allowed {
		return
	}

	s.terminalizeLocked(domain.ReasonCashOut)
}

// timeExpired is the question clock callback: an automatic fail at the
// current level, unless an answer was locked first or the clock is stale.
func (s *Session) timeExpired(epoch int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || epoch != s.epoch || s.locked != "" {
		return
	}

	s.terminalizeLocked(domain.ReasonTimeUp)
}

// UseLifeline invokes a lifeline and returns its advisory payload. A spent
// lifeline, an unknown kind, or an inapplicable phase all silently refuse.
func (s *Session) UseLifeline(kind LifelineKind) (LifelineResult, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.terminal != "" || !kind.Valid() || s.used[kind] {
		return LifelineResult{}, false
	}

	q := s.currentQuestionLocked()
	result := LifelineResult{Kind: kind}

	switch kind {
	case LifelineEliminateTwo:
		if s.phase != PhasePlaying || s.locked != "" {
			return LifelineResult{}, false
		}
		eliminated := pickTwoIncorrect(q)
		for _, opt := range eliminated {
			s.hidden[opt] = true
		}
		if s.hidden[s.selected] {
			s.selected = ""
		}
		result.Eliminated = eliminated

	case LifelineProbabilityHint:
		if s.phase != PhasePlaying && s.phase != PhaseLocked {
			return LifelineResult{}, false
		}
		result.Probabilities = hintProbabilities(q)

	case LifelinePhoneAFriend:
		if s.phase != PhasePlaying && s.phase != PhaseLocked {
			return LifelineResult{}, false
		}
		result.Explanation = q.Explanation
	}

	s.used[kind] = true
	s.touchLocked()
	s.notifyStateLocked()
	return result, true
}

// Snapshot returns the redacted client view of the session.
func (s *Session) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// Settled reports whether the session has reached its terminal state and
// dispatched settlement.
func (s *Session) Settled() bool {
	return s.settled.Load()
}

// Terminal returns the terminal reason, if any.
func (s *Session) Terminal() (domain.TerminalReason, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.terminal, s.terminal != ""
}

// FinalReward returns the settled payout; zero until terminal.
func (s *Session) FinalReward() int64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.finalReward
}

// LastActivity returns the time of the last accepted mutation.
func (s *Session) LastActivity() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastActivity
}

// terminalizeLocked performs the write-once terminal transition and hands the
// outcome to the settler. The settled flag is committed before anything is
// queued, so concurrent terminal paths (cash-out, wrong answer, clock expiry)
// settle at most once.
func (s *Session) terminalizeLocked(reason domain.TerminalReason) {
	if s.terminal != "" {
		return
	}

	s.terminal = reason
	s.phase = PhaseOver
	s.epoch++
	s.stopClockLocked()
	if s.revealTimer != nil {
		s.revealTimer.Stop()
		s.revealTimer = nil
	}

	if reason == domain.ReasonWin {
		s.finalReward = winReward(s.ladder, s.level)
	} else {
		s.finalReward = cashOutOrFailReward(s.level)
	}

	if !s.settled.CompareAndSwap(false, true) {
		return
	}

	outcome := s.outcomeLocked()
	s.notifier.Notify(s.userID, Event{
		Type:      EventSettled,
		SessionID: s.ID,
		Settled: &SettledInfo{
			Reason:      reason,
			Level:       s.level,
			FinalReward: s.finalReward,
			Win:         reason == domain.ReasonWin,
		},
	})
	s.notifyStateLocked()
	s.settler.Settle(outcome)
}

func (s *Session) outcomeLocked() Outcome {
	correct := 0
	seen := make(map[string]bool)
	var topics []string
	for _, a := range s.answers {
		if a.WasCorrect {
			correct++
		}
		if a.Topic != "" && !seen[a.Topic] {
			seen[a.Topic] = true
			topics = append(topics, a.Topic)
		}
	}

	percentage := 0.0
	if len(s.answers) > 0 {
		percentage = float64(correct) / float64(len(s.answers)) * 100
	}

	answers := make([]domain.AnsweredQuestion, len(s.answers))
	copy(answers, s.answers)

	return Outcome{
		SessionID:      s.ID,
		UserID:         s.userID,
		Answers:        answers,
		CorrectCount:   correct,
		TotalQuestions: len(s.answers),
		Percentage:     percentage,
		Topics:         topics,
		LevelReached:   s.level,
		FinalReward:    s.finalReward,
		Reason:         s.terminal,
		Win:            s.terminal == domain.ReasonWin,
		EndedAt:        time.Now(),
	}
}

// startClockLocked arms the question clock when the current level is timed.
// Any previous clock is fully replaced; the captured epoch keeps a stale
// expiry from firing against a later level.
func (s *Session) startClockLocked() {
	s.stopClockLocked()
	if s.level < s.cfg.TimedFromLevel {
		return
	}

	ends := time.Now().Add(s.cfg.QuestionClock)
	s.clockEndsAt = &ends
	epoch := s.epoch
	s.clockTimer = time.AfterFunc(s.cfg.QuestionClock, func() {
		s.timeExpired(epoch)
	})
	s.notifier.Notify(s.userID, Event{Type: EventClock, SessionID: s.ID, ClockEnds: &ends})
}

func (s *Session) stopClockLocked() {
	if s.clockTimer != nil {
		s.clockTimer.Stop()
		s.clockTimer = nil
	}
	s.clockEndsAt = nil
}

func (s *Session) currentQuestionLocked() *domain.Question {
	return &s.questions[s.level-1]
}

func (s *Session) touchLocked() {
	s.lastActivity = time.Now()
}

func (s *Session) notifyStateLocked() {
	snap := s.snapshotLocked()
	s.notifier.Notify(s.userID, Event{Type: EventState, SessionID: s.ID, State: &snap})
}

func (s *Session) snapshotLocked() Snapshot {
	snap := Snapshot{
		SessionID:     s.ID,
		Level:         s.level,
		TotalLevels:   s.ladder.Size(),
		Phase:         s.phase,
		Selected:      s.selected,
		Locked:        s.locked,
		Banked:        s.banked,
		LifelinesUsed: make(map[LifelineKind]bool, len(LifelineKinds)),
		SafeHaven:     s.ladder.IsSafeHaven(s.level),
		Timed:         s.level >= s.cfg.TimedFromLevel,
		Reveal:        s.lastReveal,
		Terminal:      s.terminal,
	}

	for _, kind := range LifelineKinds {
		snap.LifelinesUsed[kind] = s.used[kind]
	}

	for _, opt := range domain.Options {
		if s.hidden[opt] {
			snap.Hidden = append(snap.Hidden, opt)
		}
	}

	if s.clockEndsAt != nil {
		ends := *s.clockEndsAt
		snap.ClockEndsAt = &ends
	}

	if s.terminal != "" {
		reward := s.finalReward
		snap.FinalReward = &reward
	} else {
		q := s.currentQuestionLocked()
		choices := make(map[domain.Option]string, len(q.Choices))
		for opt, text := range q.Choices {
			choices[opt] = text
		}
		snap.Question = &QuestionView{ID: q.ID, Topic: q.Topic, Stem: q.Stem, Choices: choices}
	}

	return snap
}
