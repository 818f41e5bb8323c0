// Package notify delivers best-effort events such as comment.created over
// Redis pub/sub.
package notify

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// TopicCommentCreated is published after a comment is persisted
const TopicCommentCreated = "comment.created"

// Publisher sends a JSON-serializable payload to a topic
type Publisher interface {
	Publish(ctx context.Context, topic string, payload any) error
}

// RedisPublisher publishes JSON payloads on Redis channels named after the topic
type RedisPublisher struct {
	rdb *redis.Client
}

// NewRedisPublisher creates a publisher. A nil client makes Publish a no-op.
func NewRedisPublisher(rdb *redis.Client) *RedisPublisher {
	return &RedisPublisher{rdb: rdb}
}

// Publish encodes payload as JSON and publishes it on the topic channel
func (p *RedisPublisher) Publish(ctx context.Context, topic string, payload any) error {
	if p.rdb == nil {
		return nil
	}

	body, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode %s payload: %w", topic, err)
	}

	if err := p.rdb.Publish(ctx, topic, body).Err(); err != nil {
		return fmt.Errorf("failed to publish %s: %w", topic, err)
	}
	return nil
}

// Subscribe listens on topic and calls handler with each raw payload until
// ctx is cancelled. The subscription is confirmed before Subscribe returns.
func Subscribe(ctx context.Context, rdb *redis.Client, topic string, handler func(payload []byte)) error {
	if rdb == nil {
		return nil
	}

	sub := rdb.Subscribe(ctx, topic)
	if _, err := sub.Receive(ctx); err != nil {
		_ = sub.Close()
		return fmt.Errorf("failed to subscribe to %s: %w", topic, err)
	}
	ch := sub.Channel()

	go func() {
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				handler([]byte(msg.Payload))
			}
		}
	}()

	return nil
}
