package memory

import (
	"context"
	"sync"

	"battle-quiz-service/internal/domain"
)

// GameStore is an in-memory implementation of app.GameStore, used by tests
// and as the fallback when Redis is not configured.
type GameStore struct {
	mu    sync.RWMutex
	games map[int64]domain.GameData
}

func NewGameStore() *GameStore {
	return &GameStore{games: make(map[int64]domain.GameData)}
}

func (s *GameStore) Get(_ context.Context, roomID int64) (domain.GameData, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	game, ok := s.games[roomID]
	if !ok {
		return domain.GameData{}, domain.ErrGameNotFound
	}
	return game.Clone(), nil
}

func (s *GameStore) Put(_ context.Context, game domain.GameData) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.games[game.RoomID] = game.Clone()
	return nil
}

func (s *GameStore) Delete(_ context.Context, roomID int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.games, roomID)
	return nil
}
