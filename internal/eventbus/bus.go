package eventbus

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

var _ EventBus = (*RedisBus)(nil)

// RedisBus fans session lifecycle events out over a per-workspace pub/sub
// channel, so any orchestrator instance can publish and any API instance
// can stream them to clients.
type RedisBus struct {
	client redis.Cmdable
	logger *slog.Logger
}

func NewRedisBus(client redis.Cmdable, logger *slog.Logger) *RedisBus {
	return &RedisBus{client: client, logger: logger}
}

func (b *RedisBus) Publish(ctx context.Context, workspaceID int64, event Event) error {
	channelKey := WorkspaceChannelKey(workspaceID)
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("failed to marshal event: %w", err)
	}

	return b.client.Publish(ctx, channelKey, data).Err()
}

func (b *RedisBus) Subscribe(ctx context.Context, workspaceID int64) (<-chan Event, error) {
	channelKey := WorkspaceChannelKey(workspaceID)
	client, ok := b.client.(*redis.Client)
	if !ok {
		return nil, fmt.Errorf("invalid redis client type")
	}

	pubSub := client.Subscribe(ctx, channelKey)

	// 订阅随调用方 ctx 结束而关闭，否则 goroutine 会一直挂着
	go func() {
		<-ctx.Done()
		_ = pubSub.Close()
	}()

	return pump(ctx, pubSub.Channel(), b.logger), nil
}

// pump decodes raw pub/sub messages into events. The send races the caller's
// ctx so a consumer that already went away never strands the goroutine
// parked on an unbuffered send.
func pump(ctx context.Context, msgs <-chan *redis.Message, logger *slog.Logger) <-chan Event {
	ch := make(chan Event)

	go func() {
		defer close(ch)

		for msg := range msgs {
			var event Event
			if err := json.Unmarshal([]byte(msg.Payload), &event); err != nil {
				logger.Error("failed to unmarshal event", "error", err)
				continue
			}
			select {
			case ch <- event:
			case <-ctx.Done():
				return
			}
		}
	}()

	return ch
}
