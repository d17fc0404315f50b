package memory

import (
	"context"
	"sync"

	"battle-quiz-service/internal/domain"
)

// AnswerLog is an append-only in-memory answer log.
type AnswerLog struct {
	mu      sync.Mutex
	entries []domain.AnswerLogEntry
}

func NewAnswerLog() *AnswerLog {
	return &AnswerLog{}
}

func (l *AnswerLog) Append(_ context.Context, entry domain.AnswerLogEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.entries = append(l.entries, entry)
	return nil
}

// Entries snapshots the log for assertions in tests.
func (l *AnswerLog) Entries() []domain.AnswerLogEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	return append([]domain.AnswerLogEntry(nil), l.entries...)
}
