package game

import (
	"math/rand/v2"

	"github.com/yclau/chemladder/internal/domain"
)

// LifelineKind identifies one of the three single-use aids.
type LifelineKind string

// The three lifelines. Each is independent and usable at most once per
// session; using one never affects another's availability.
const (
	LifelineEliminateTwo    LifelineKind = "eliminate_two"
	LifelineProbabilityHint LifelineKind = "probability_hint"
	LifelinePhoneAFriend    LifelineKind = "phone_a_friend"
)

// LifelineKinds lists all lifelines in display order.
var LifelineKinds = []LifelineKind{LifelineEliminateTwo, LifelineProbabilityHint, LifelinePhoneAFriend}

// Valid reports whether k names a known lifeline.
func (k LifelineKind) Valid() bool {
	switch k {
	case LifelineEliminateTwo, LifelineProbabilityHint, LifelinePhoneAFriend:
		return true
	}
	return false
}

// LifelineResult carries the advisory payload of a used lifeline back to the
// caller. Only the field matching the kind is populated.
type LifelineResult struct {
	Kind          LifelineKind          `json:"kind"`
	Eliminated    []domain.Option       `json:"eliminated,omitempty"`
	Probabilities map[domain.Option]int `json:"probabilities,omitempty"`
	Explanation   string                `json:"explanation,omitempty"`
}

// pickTwoIncorrect selects two of the question's three incorrect options at
// random. The correct option is never a candidate.
func pickTwoIncorrect(q *domain.Question) []domain.Option {
	wrong := q.IncorrectOptions()
	rand.Shuffle(len(wrong), func(i, j int) {
		wrong[i], wrong[j] = wrong[j], wrong[i]
	})
	return wrong[:2]
}

// hintProbabilities produces a weighted likelihood display over the four
// options, biased toward the correct one without giving it away. Percentages
// sum to 100.
func hintProbabilities(q *domain.Question) map[domain.Option]int {
	probs := make(map[domain.Option]int, len(domain.Options))

	correctShare := 38 + rand.IntN(27) // 38-64%
	probs[q.Correct] = correctShare

	remaining := 100 - correctShare
	wrong := q.IncorrectOptions()
	for i, opt := range wrong {
		if i == len(wrong)-1 {
			probs[opt] = remaining
			break
		}
		share := rand.IntN(remaining + 1)
		probs[opt] = share
		remaining -= share
	}
	return probs
}
