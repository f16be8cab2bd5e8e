// Package domain contains core domain types for the ChemLadder application.
package domain

// Option labels one of a question's four answer choices.
type Option string

// The four answer labels every question carries.
const (
	OptionA Option = "A"
	OptionB Option = "B"
	OptionC Option = "C"
	OptionD Option = "D"
)

// Options lists the answer labels in display order.
var Options = []Option{OptionA, OptionB, OptionC, OptionD}

// Valid reports whether o is one of the four answer labels.
func (o Option) Valid() bool {
	switch o {
	case OptionA, OptionB, OptionC, OptionD:
		return true
	}
	return false
}

// Question is a single multiple-choice chemistry question. The engine treats
// questions as read-only: they are drawn once at session start and never
// mutated.
type Question struct {
	ID          string            `json:"id"`
	Topic       string            `json:"topic"`
	Stem        string            `json:"stem"`
	Choices     map[Option]string `json:"choices"`
	Correct     Option            `json:"-"`
	Explanation string            `json:"-"`
}

// IncorrectOptions returns the three labels that are not the correct answer.
func (q *Question) IncorrectOptions() []Option {
	wrong := make([]Option, 0, 3)
	for _, opt := range Options {
		if opt != q.Correct {
			wrong = append(wrong, opt)
		}
	}
	return wrong
}
