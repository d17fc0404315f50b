package memory

import (
	"context"
	"sync"

	"battle-quiz-service/internal/domain"
)

// RoomRegistry keeps room lifecycle status in memory. In fallback mode it is
// the room store itself, so SetStatus upserts instead of failing on an
// unknown room.
type RoomRegistry struct {
	mu    sync.RWMutex
	rooms map[int64]domain.RoomStatus
}

func NewRoomRegistry() *RoomRegistry {
	return &RoomRegistry{rooms: make(map[int64]domain.RoomStatus)}
}

func (r *RoomRegistry) SetStatus(_ context.Context, roomID int64, status domain.RoomStatus) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.rooms[roomID] = status
	return nil
}

// Status reports the recorded status for assertions in tests.
func (r *RoomRegistry) Status(roomID int64) (domain.RoomStatus, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	status, ok := r.rooms[roomID]
	return status, ok
}
