package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"time"

	"battle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// GameStore keeps one JSON game record per room under game:{roomId}. The
// record is replaced wholesale on every write; the engine's per-room lock is
// the serialization point, so plain SET/GET suffice here.
type GameStore struct {
	client *redis.Client
	ttl    time.Duration
}

func NewGameStore(client *redis.Client, ttl time.Duration) *GameStore {
	return &GameStore{client: client, ttl: ttl}
}

func (s *GameStore) Get(ctx context.Context, roomID int64) (domain.GameData, error) {
	raw, err := s.client.Get(ctx, s.key(roomID)).Bytes()
	if errors.Is(err, redis.Nil) {
		return domain.GameData{}, domain.ErrGameNotFound
	}
	if err != nil {
		return domain.GameData{}, fmt.Errorf("load game: %w", err)
	}
	var game domain.GameData
	if err := json.Unmarshal(raw, &game); err != nil {
		return domain.GameData{}, fmt.Errorf("unmarshal game: %w", err)
	}
	return game, nil
}

func (s *GameStore) Put(ctx context.Context, game domain.GameData) error {
	raw, err := json.Marshal(game)
	if err != nil {
		return fmt.Errorf("marshal game: %w", err)
	}
	if err := s.client.Set(ctx, s.key(game.RoomID), raw, s.ttl).Err(); err != nil {
		return fmt.Errorf("store game: %w", err)
	}
	return nil
}

func (s *GameStore) Delete(ctx context.Context, roomID int64) error {
	if err := s.client.Del(ctx, s.key(roomID)).Err(); err != nil {
		return fmt.Errorf("delete game: %w", err)
	}
	return nil
}

func (s *GameStore) key(roomID int64) string {
	return "game:data:" + strconv.FormatInt(roomID, 10)
}
