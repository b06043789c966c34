// Package redis provides a redis pub/sub implementation of the queue
// change notification signal, fanning events out across process instances.
// Delivery is best-effort: a missed event is recovered by the next
// scheduled poll of the task store.
package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/hirewire/talent-api/internal/config"
	"github.com/hirewire/talent-api/internal/events"
	"github.com/redis/go-redis/v9"
)

// queueChannel is the pub/sub channel queue events are published on.
const queueChannel = "talent:queue:changed"

// Notifier publishes queue events to a redis channel and lets listeners
// subscribe to them. It implements events.Emitter.
type Notifier struct {
	client *redis.Client
	logger *slog.Logger
}

// NewNotifier connects to redis and verifies the connection.
func NewNotifier(ctx context.Context, cfg config.RedisConfig, logger *slog.Logger) (*Notifier, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &Notifier{
		client: client,
		logger: logger.With("component", "redis_notifier"),
	}, nil
}

// Emit implements events.Emitter. Publish failures are logged, never
// surfaced: the signal only shortens perceived latency before the next
// poll, so losing one is harmless.
func (n *Notifier) Emit(ctx context.Context, event *events.QueueEvent) {
	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Error("failed to marshal queue event", "error", err)
		return
	}
	if err := n.client.Publish(ctx, queueChannel, payload).Err(); err != nil {
		n.logger.Error("failed to publish queue event",
			"event_id", event.ID,
			"action", event.Action,
			"error", err)
	}
}

// Subscribe delivers queue events published by any process instance until
// the context is cancelled. Malformed messages are logged and skipped.
func (n *Notifier) Subscribe(ctx context.Context) (<-chan *events.QueueEvent, error) {
	sub := n.client.Subscribe(ctx, queueChannel)
	if _, err := sub.Receive(ctx); err != nil {
		return nil, fmt.Errorf("failed to subscribe to queue channel: %w", err)
	}

	out := make(chan *events.QueueEvent)
	go func() {
		defer close(out)
		defer func() { _ = sub.Close() }()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-sub.Channel():
				if !ok {
					return
				}
				var event events.QueueEvent
				if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
					n.logger.Warn("dropping malformed queue event", "error", err)
					continue
				}
				select {
				case out <- &event:
				case <-ctx.Done():
					return
				}
			}
		}
	}()
	return out, nil
}

// Close releases the redis connection.
func (n *Notifier) Close() error {
	return n.client.Close()
}
