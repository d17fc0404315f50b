package memory

import (
	"context"
	"strings"
)

// WordCountScorer is the demo fallback essay scorer used when no scoring
// service is configured: twenty points per word, capped at 100.
type WordCountScorer struct{}

func NewWordCountScorer() *WordCountScorer {
	return &WordCountScorer{}
}

func (s *WordCountScorer) Score(_ context.Context, _, answer string) (int, error) {
	score := 20 * len(strings.Fields(answer))
	if score > 100 {
		score = 100
	}
	return score, nil
}
