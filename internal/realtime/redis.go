package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// DefaultRedisChannel is the pub/sub channel events travel on.
const DefaultRedisChannel = "diviso:realtime"

// RedisBridge shares events between instances. Publish goes to Redis only;
// Run feeds every received event (including this instance's own) into the
// local registry, so each event is dispatched exactly once per instance.
type RedisBridge struct {
	rdb      *redis.Client
	registry *Registry
	channel  string
	logger   *slog.Logger
}

// NewRedisBridge creates a bridge over rdb feeding registry.
func NewRedisBridge(rdb *redis.Client, registry *Registry, logger *slog.Logger) *RedisBridge {
	if logger == nil {
		logger = slog.Default()
	}
	return &RedisBridge{
		rdb:      rdb,
		registry: registry,
		channel:  DefaultRedisChannel,
		logger:   logger,
	}
}

// Publish sends ev to every instance.
func (b *RedisBridge) Publish(ctx context.Context, ev Event) error {
	data, err := json.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode event: %w", err)
	}
	if err := b.rdb.Publish(ctx, b.channel, data).Err(); err != nil {
		return fmt.Errorf("failed to publish event: %w", err)
	}
	return nil
}

// Run subscribes and dispatches until ctx is canceled.
func (b *RedisBridge) Run(ctx context.Context) error {
	sub := b.rdb.Subscribe(ctx, b.channel)
	defer sub.Close()

	// Wait for the subscription to be confirmed before reading messages.
	if _, err := sub.Receive(ctx); err != nil {
		return fmt.Errorf("failed to subscribe to %s: %w", b.channel, err)
	}
	b.logger.Info("realtime bridge subscribed", "channel", b.channel)

	messages := sub.Channel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case msg, ok := <-messages:
			if !ok {
				return nil
			}
			var ev Event
			if err := json.Unmarshal([]byte(msg.Payload), &ev); err != nil {
				b.logger.Warn("dropping malformed realtime event", "error", err)
				continue
			}
			b.registry.Dispatch(ev)
		}
	}
}
