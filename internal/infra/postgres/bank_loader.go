package postgres

import (
	"context"
	"fmt"

	"battle-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
	"golang.org/x/sync/errgroup"
)

// BankLoader draws the content for a new game from Postgres: a random set of
// five multiple-choice, three short-answer, and one essay quiz.
type BankLoader struct {
	pool *pgxpool.Pool
}

func NewBankLoader(pool *pgxpool.Pool) *BankLoader {
	return &BankLoader{pool: pool}
}

func (l *BankLoader) LoadBank(ctx context.Context) (domain.QuizBank, error) {
	var bank domain.QuizBank

	eg, ctx := errgroup.WithContext(ctx)
	eg.Go(func() error {
		items, err := l.drawQuizzes(ctx, domain.KindMultipleChoice, 5)
		if err != nil {
			return err
		}
		bank.MultipleChoice = items
		return nil
	})
	eg.Go(func() error {
		items, err := l.drawQuizzes(ctx, domain.KindShortAnswer, 3)
		if err != nil {
			return err
		}
		bank.ShortAnswer = items
		return nil
	})
	eg.Go(func() error {
		items, err := l.drawQuizzes(ctx, domain.KindEssay, 1)
		if err != nil {
			return err
		}
		if len(items) > 0 {
			bank.Essay = items[0]
		}
		return nil
	})
	if err := eg.Wait(); err != nil {
		return domain.QuizBank{}, err
	}

	if len(bank.MultipleChoice) != 5 || len(bank.ShortAnswer) != 3 || bank.Essay.QuizID == 0 {
		return domain.QuizBank{}, fmt.Errorf("%w: need 5 multiple-choice, 3 short-answer, 1 essay", domain.ErrBankIncomplete)
	}
	return bank, nil
}

func (l *BankLoader) drawQuizzes(ctx context.Context, kind domain.QuizKind, limit int) ([]domain.QuizItem, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT quiz_id, question, COALESCE(answer, '') FROM quizzes WHERE kind=$1 ORDER BY random() LIMIT $2`,
		string(kind), limit)
	if err != nil {
		return nil, fmt.Errorf("draw %s quizzes: %w", kind, err)
	}
	defer rows.Close()

	var items []domain.QuizItem
	for rows.Next() {
		item := domain.QuizItem{Kind: kind}
		if err := rows.Scan(&item.QuizID, &item.Question, &item.Answer); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("draw %s quizzes: %w", kind, err)
	}

	if kind == domain.KindMultipleChoice {
		for i := range items {
			options, err := l.loadOptions(ctx, items[i].QuizID)
			if err != nil {
				return nil, err
			}
			items[i].Options = options
		}
	}
	return items, nil
}

func (l *BankLoader) loadOptions(ctx context.Context, quizID int64) ([]domain.QuizOption, error) {
	rows, err := l.pool.Query(ctx,
		`SELECT option_number, content, is_correct FROM quiz_options WHERE quiz_id=$1 ORDER BY option_number`,
		quizID)
	if err != nil {
		return nil, fmt.Errorf("load options for quiz %d: %w", quizID, err)
	}
	defer rows.Close()

	var options []domain.QuizOption
	for rows.Next() {
		var opt domain.QuizOption
		if err := rows.Scan(&opt.Number, &opt.Content, &opt.Correct); err != nil {
			return nil, fmt.Errorf("scan option: %w", err)
		}
		options = append(options, opt)
	}
	return options, rows.Err()
}
