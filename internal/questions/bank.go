// Package questions supplies the question sequences drawn at game start,
// backed by the chemistry question bank in the store.
package questions

import (
	"context"
	"fmt"

	"github.com/yclau/chemladder/internal/domain"
	"github.com/yclau/chemladder/internal/store"
)

// Bank draws questions from the persistent question bank.
type Bank struct {
	repo store.Repository
}

// NewBank creates a store-backed question source.
func NewBank(repo store.Repository) *Bank {
	return &Bank{repo: repo}
}

// Draw returns n distinct questions in random order. Questions with a
// malformed correct label are rejected rather than silently breaking a
// session mid-game.
func (b *Bank) Draw(ctx context.Context, n int) ([]domain.Question, error) {
	questions, err := b.repo.RandomQuestions(ctx, n)
	if err != nil {
		return nil, fmt.Errorf("draw from question bank: %w", err)
	}

	for i := range questions {
		if !questions[i].Correct.Valid() {
			return nil, fmt.Errorf("question %s has invalid correct label %q",
				questions[i].ID, questions[i].Correct)
		}
	}
	return questions, nil
}
