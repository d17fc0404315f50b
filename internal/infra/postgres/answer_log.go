package postgres

import (
	"context"
	"fmt"

	"battle-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// AnswerLog persists one quiz_logs row per evaluated submission.
type AnswerLog struct {
	pool *pgxpool.Pool
}

func NewAnswerLog(pool *pgxpool.Pool) *AnswerLog {
	return &AnswerLog{pool: pool}
}

func (l *AnswerLog) Append(ctx context.Context, entry domain.AnswerLogEntry) error {
	_, err := l.pool.Exec(ctx,
		`INSERT INTO quiz_logs (member_id, quiz_id, user_answer, is_correct, created_at) VALUES ($1, $2, $3, $4, $5)`,
		entry.MemberID, entry.QuizID, entry.Answer, entry.Correct, entry.CreatedAt)
	if err != nil {
		return fmt.Errorf("append answer log: %w", err)
	}
	return nil
}
