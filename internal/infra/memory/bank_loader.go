package memory

import (
	"context"

	"battle-quiz-service/internal/domain"
)

// StaticBankLoader serves a fixed quiz bank (useful for tests/demos).
type StaticBankLoader struct {
	bank domain.QuizBank
}

func NewStaticBankLoader(bank domain.QuizBank) *StaticBankLoader {
	return &StaticBankLoader{bank: bank}
}

func (l *StaticBankLoader) LoadBank(_ context.Context) (domain.QuizBank, error) {
	return l.bank, nil
}
