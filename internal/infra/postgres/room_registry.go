package postgres

import (
	"context"
	"fmt"

	"battle-quiz-service/internal/domain"
	"github.com/jackc/pgx/v4/pgxpool"
)

// RoomRegistry flips the durable room status in Postgres.
type RoomRegistry struct {
	pool *pgxpool.Pool
}

func NewRoomRegistry(pool *pgxpool.Pool) *RoomRegistry {
	return &RoomRegistry{pool: pool}
}

func (r *RoomRegistry) SetStatus(ctx context.Context, roomID int64, status domain.RoomStatus) error {
	tag, err := r.pool.Exec(ctx,
		`UPDATE rooms SET status=$2 WHERE room_id=$1`, roomID, string(status))
	if err != nil {
		return fmt.Errorf("set room status: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return domain.ErrRoomNotFound
	}
	return nil
}
