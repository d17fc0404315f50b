package postgres

import (
	"context"
	"errors"
	"fmt"

	"battle-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4"
	"github.com/jackc/pgx/v4/pgxpool"
)

// MemberLedger reads accounts and credits reward points in Postgres.
type MemberLedger struct {
	pool *pgxpool.Pool
}

func NewMemberLedger(pool *pgxpool.Pool) *MemberLedger {
	return &MemberLedger{pool: pool}
}

func (l *MemberLedger) FindByID(ctx context.Context, memberID int64) (domain.Member, error) {
	var member domain.Member
	err := l.pool.QueryRow(ctx,
		`SELECT member_id, nickname, point FROM members WHERE member_id=$1`, memberID).
		Scan(&member.MemberID, &member.Nickname, &member.Point)
	if errors.Is(err, pgx.ErrNoRows) {
		return domain.Member{}, domain.ErrMemberNotFound
	}
	if err != nil {
		return domain.Member{}, fmt.Errorf("find member: %w", err)
	}
	return member, nil
}

func (l *MemberLedger) CreditPoints(ctx context.Context, memberID int64, amount int) error {
	tag, err := l.pool.Exec(ctx,
		`UPDATE members SET point = point + $2 WHERE member_id=$1`, memberID, amount)
	if err != nil {
		return fmt.Errorf("credit points: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}
