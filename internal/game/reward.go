package game

// cashOutOrFailReward returns the payout for a session that ends anywhere
// other than a full win, keyed by the level the player was ON when it ended
// (not the last cleared level). This is a separate, coarser table from the
// ladder values banked mid-game; the two are deliberately kept independent
// and must not be derived from one another.
//
// Level 5 matches no bracket and pays 0 even though level 5 is a safe haven,
// and the 6-10 and 15-17 brackets pay less than the amounts banked at the
// 10 and 17 havens. This mirrors the shipped ruleset; raised with product,
// keep as-is until the payout table is revised.
func cashOutOrFailReward(level int) int64 {
	switch {
	case level < 5:
		return 0
	case level >= 6 && level <= 10:
		return 5
	case level >= 11 && level <= 14:
		return 14
	case level >= 15 && level <= 17:
		return 42
	case level >= 18 && level <= 20:
		return 60
	}
	return 0
}

// winReward returns the payout for clearing the final level.
func winReward(ladder *Ladder, finalLevel int) int64 {
	return ladder.RewardFor(finalLevel)
}
