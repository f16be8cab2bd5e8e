package game

import (
	"testing"
)

func TestLadderRewardsStrictlyIncreasing(t *testing.T) {
	ladder := NewLadder()

	prev := int64(0)
	for level := 1; level <= ladder.Size(); level++ {
		reward := ladder.RewardFor(level)
		if reward <= prev {
			t.Errorf("Expected reward for level %d to exceed %d, got %d", level, prev, reward)
		}
		prev = reward
	}
}

func TestLadderSizeAndTopReward(t *testing.T) {
	ladder := NewLadder()

	if ladder.Size() != 20 {
		t.Errorf("Expected 20 levels, got %d", ladder.Size())
	}
	if got := ladder.RewardFor(20); got != 100 {
		t.Errorf("Expected top reward 100, got %d", got)
	}
}

func TestLadderRewardForOutOfRange(t *testing.T) {
	ladder := NewLadder()

	if got := ladder.RewardFor(0); got != 0 {
		t.Errorf("Expected 0 for level 0, got %d", got)
	}
	if got := ladder.RewardFor(21); got != 0 {
		t.Errorf("Expected 0 for level 21, got %d", got)
	}
}

func TestLadderSafeHavens(t *testing.T) {
	ladder := NewLadder()

	havens := map[int]bool{5: true, 10: true, 15: true, 17: true}
	for level := 1; level <= ladder.Size(); level++ {
		if got := ladder.IsSafeHaven(level); got != havens[level] {
			t.Errorf("Expected IsSafeHaven(%d) == %v, got %v", level, havens[level], got)
		}
	}
}
