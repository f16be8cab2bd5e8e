package game

import (
	"testing"
)

func TestCashOutOrFailReward(t *testing.T) {
	tests := []struct {
		level int
		want  int64
	}{
		{1, 0},
		{3, 0},
		{4, 0},
		{5, 0}, // level 5 matches no bracket; pays 0 despite being a safe haven
		{6, 5},
		{10, 5},
		{11, 14},
		{14, 14},
		{15, 42},
		{17, 42},
		{18, 60},
		{20, 60},
	}

	for _, tt := range tests {
		if got := cashOutOrFailReward(tt.level); got != tt.want {
			t.Errorf("Expected cashOutOrFailReward(%d) == %d, got %d", tt.level, tt.want, got)
		}
	}
}

func TestWinRewardMatchesLadder(t *testing.T) {
	ladder := NewLadder()

	if got := winReward(ladder, 20); got != 100 {
		t.Errorf("Expected win reward 100, got %d", got)
	}
}

func TestFailRewardBelowBankedAtHavenBoundaries(t *testing.T) {
	ladder := NewLadder()

	// The fail table is a coarser safety net than the ladder: failing just
	// past the 10 and 17 havens pays less than the amount banked there.
	if fail, banked := cashOutOrFailReward(12), ladder.RewardFor(10); fail >= banked {
		t.Errorf("Expected fail payout %d below banked %d after haven 10", fail, banked)
	}
	if fail, banked := cashOutOrFailReward(18), ladder.RewardFor(17); fail > banked {
		t.Errorf("Expected fail payout %d at most banked %d after haven 17", fail, banked)
	}
}
