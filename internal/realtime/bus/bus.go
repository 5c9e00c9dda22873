package bus

import (
	"context"

	"github.com/yungbote/coursecast-backend/internal/realtime"
)

// Bus fans realtime messages out across instances.
type Bus interface {
	Publish(ctx context.Context, msg realtime.Message) error
	StartForwarder(ctx context.Context, onMsg func(m realtime.Message)) error
	Close() error
}
