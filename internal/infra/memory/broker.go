package memory

import (
	"context"
	"sync"

	"battle-quiz-service/internal/domain"
)

// Broker is an in-process publish/subscribe fan-out keyed by channel name.
// It implements app.EventPublisher and the transport's subscriber port.
type Broker struct {
	mu   sync.RWMutex
	subs map[string]map[chan domain.EventMessage]struct{}
}

func NewBroker() *Broker {
	return &Broker{subs: make(map[string]map[chan domain.EventMessage]struct{})}
}

func (b *Broker) Publish(_ context.Context, channel string, msg domain.EventMessage) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	for ch := range b.subs[channel] {
		select {
		case ch <- msg:
		default:
			// Drop the oldest pending event so a slow subscriber never
			// blocks the round.
			select {
			case <-ch:
			default:
			}
			ch <- msg
		}
	}
	return nil
}

func (b *Broker) Subscribe(_ context.Context, channel string) (<-chan domain.EventMessage, func(), error) {
	ch := make(chan domain.EventMessage, 16)

	b.mu.Lock()
	if b.subs[channel] == nil {
		b.subs[channel] = make(map[chan domain.EventMessage]struct{})
	}
	b.subs[channel][ch] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[channel][ch]; ok {
			delete(b.subs[channel], ch)
			close(ch)
		}
		b.mu.Unlock()
	}
	return ch, cancel, nil
}
