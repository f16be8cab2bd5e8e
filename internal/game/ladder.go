// Package game implements the escalating-stakes ladder quiz: a fixed sequence
// of twenty questions of increasing token value, three single-use lifelines,
// a countdown clock on the top levels, and a once-only settlement that writes
// the attempt history and credits the token ledger.
package game

// ladderRewards is the token value of each level, 1-indexed via RewardFor.
// Values are strictly increasing; the final level pays 100 tokens.
var ladderRewards = []int64{
	1, 2, 3, 4, 5,
	7, 9, 11, 14, 17,
	21, 26, 31, 37, 42,
	50, 60, 72, 85, 100,
}

// safeHavenLevels are the milestone checkpoints of the ladder.
var safeHavenLevels = []int{5, 10, 15, 17}

// Ladder is the static per-level reward table. It is immutable and shared by
// all sessions.
type Ladder struct {
	rewards    []int64
	safeHavens map[int]bool
}

// NewLadder returns the production reward ladder.
func NewLadder() *Ladder {
	havens := make(map[int]bool, len(safeHavenLevels))
	for _, lvl := range safeHavenLevels {
		havens[lvl] = true
	}
	return &Ladder{rewards: ladderRewards, safeHavens: havens}
}

// Size returns the number of levels on the ladder.
func (l *Ladder) Size() int {
	return len(l.rewards)
}

// RewardFor returns the token value of clearing the given level.
// Levels outside [1, Size] pay nothing.
func (l *Ladder) RewardFor(level int) int64 {
	if level < 1 || level > len(l.rewards) {
		return 0
	}
	return l.rewards[level-1]
}

// IsSafeHaven reports whether the given level is a milestone checkpoint.
func (l *Ladder) IsSafeHaven(level int) bool {
	return l.safeHavens[level]
}
