package memory

import (
	"context"
	"errors"
	"testing"

	"battle-quiz-service/internal/domain"
)

func TestGameStoreRoundTrip(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	game := domain.GameData{
		RoomID:      7,
		AskedMask:   0b101,
		CurrentSlot: 3,
		Members: []domain.MemberStatus{
			{MemberID: 1, Nickname: "Alice", Life: 3},
		},
	}
	if err := store.Put(ctx, game); err != nil {
		t.Fatalf("put: %v", err)
	}

	loaded, err := store.Get(ctx, 7)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if loaded.AskedMask != 0b101 || loaded.CurrentSlot != 3 {
		t.Fatalf("unexpected record %+v", loaded)
	}

	// Mutating the loaded copy must not leak into the store.
	loaded.Members[0].Life = 0
	again, _ := store.Get(ctx, 7)
	if again.Members[0].Life != 3 {
		t.Fatalf("store record mutated through a copy: %+v", again.Members[0])
	}
}

func TestGameStoreNotFoundAndDelete(t *testing.T) {
	ctx := context.Background()
	store := NewGameStore()

	if _, err := store.Get(ctx, 1); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound, got %v", err)
	}

	_ = store.Put(ctx, domain.GameData{RoomID: 1})
	if err := store.Delete(ctx, 1); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := store.Get(ctx, 1); !errors.Is(err, domain.ErrGameNotFound) {
		t.Fatalf("expected ErrGameNotFound after delete, got %v", err)
	}
}
