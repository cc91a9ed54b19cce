package eventbus

import "context"

type EventBus interface {
	Publish(ctx context.Context, workspaceID int64, event Event) error
	Subscribe(ctx context.Context, workspaceID int64) (<-chan Event, error)
}
