package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log"

	"battle-quiz-service/internal/domain"
	"github.com/redis/go-redis/v9"
)

// Publisher broadcasts game events over Redis pub/sub so every server
// instance holding a room's websocket connections sees them.
type Publisher struct {
	client *redis.Client
}

func NewPublisher(client *redis.Client) *Publisher {
	return &Publisher{client: client}
}

func (p *Publisher) Publish(ctx context.Context, channel string, msg domain.EventMessage) error {
	raw, err := json.Marshal(msg)
	if err != nil {
		return fmt.Errorf("marshal event: %w", err)
	}
	if err := p.client.Publish(ctx, channel, raw).Err(); err != nil {
		return fmt.Errorf("publish event: %w", err)
	}
	return nil
}

// Subscribe returns a channel of decoded events for one room channel. The
// caller must invoke the returned cancel function to avoid leaks.
func (p *Publisher) Subscribe(ctx context.Context, channel string) (<-chan domain.EventMessage, func(), error) {
	pubsub := p.client.Subscribe(ctx, channel)
	if _, err := pubsub.Receive(ctx); err != nil {
		_ = pubsub.Close()
		return nil, nil, fmt.Errorf("subscribe %s: %w", channel, err)
	}

	out := make(chan domain.EventMessage, 16)
	go func() {
		defer close(out)
		for raw := range pubsub.Channel() {
			var msg domain.EventMessage
			if err := json.Unmarshal([]byte(raw.Payload), &msg); err != nil {
				log.Printf("drop malformed event on %s: %v", channel, err)
				continue
			}
			out <- msg
		}
	}()

	cancel := func() {
		_ = pubsub.Close()
	}
	return out, cancel, nil
}
