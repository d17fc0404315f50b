package memory

import (
	"context"
	"testing"
	"time"

	"battle-quiz-service/internal/domain"
)

func TestBrokerDeliversToSubscribers(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker()

	ch, cancel, err := broker.Subscribe(ctx, domain.GameChannel(1))
	if err != nil {
		t.Fatalf("subscribe: %v", err)
	}
	defer cancel()

	msg := domain.EventMessage{Event: domain.EventLifeAttack, RoomID: 1}
	if err := broker.Publish(ctx, domain.GameChannel(1), msg); err != nil {
		t.Fatalf("publish: %v", err)
	}

	select {
	case got := <-ch:
		if got.Event != domain.EventLifeAttack {
			t.Fatalf("unexpected event %+v", got)
		}
	case <-time.After(time.Second):
		t.Fatal("subscriber did not receive event")
	}
}

func TestBrokerChannelsAreIndependent(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker()

	ch, cancel, _ := broker.Subscribe(ctx, domain.GameChannel(1))
	defer cancel()

	_ = broker.Publish(ctx, domain.GameChannel(2), domain.EventMessage{Event: domain.EventGameReward, RoomID: 2})

	select {
	case got := <-ch:
		t.Fatalf("received event for another room: %+v", got)
	case <-time.After(20 * time.Millisecond):
	}
}

func TestBrokerSlowSubscriberDoesNotBlock(t *testing.T) {
	ctx := context.Background()
	broker := NewBroker()

	_, cancel, _ := broker.Subscribe(ctx, domain.GameChannel(1))
	defer cancel()

	// Fill well past the buffer; publish must never block.
	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 100; i++ {
			_ = broker.Publish(ctx, domain.GameChannel(1), domain.EventMessage{Event: domain.EventAnswerResult, RoomID: 1})
		}
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("publish blocked on a slow subscriber")
	}
}
