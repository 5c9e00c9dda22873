package bus

import (
	"context"

	"github.com/yungbote/coursecast-backend/internal/platform/logger"
	"github.com/yungbote/coursecast-backend/internal/realtime"
)

// Emitter publishes through the bus when one is configured so every instance's
// forwarder delivers locally; otherwise it broadcasts on the local hub directly.
type Emitter struct {
	log *logger.Logger
	hub *realtime.Hub
	bus Bus
}

func NewEmitter(log *logger.Logger, hub *realtime.Hub, b Bus) *Emitter {
	return &Emitter{log: log.With("component", "RealtimeEmitter"), hub: hub, bus: b}
}

func (e *Emitter) Emit(ctx context.Context, msg realtime.Message) {
	if e.bus == nil {
		e.hub.Broadcast(msg)
		return
	}
	if err := e.bus.Publish(ctx, msg); err != nil {
		e.log.Warn("Realtime publish failed, delivering locally only", "room", msg.Room, "error", err)
		e.hub.Broadcast(msg)
	}
}

// Run starts the bus forwarder into the local hub and blocks until ctx ends.
func (e *Emitter) Run(ctx context.Context) error {
	if e.bus == nil {
		<-ctx.Done()
		return nil
	}
	if err := e.bus.StartForwarder(ctx, e.hub.Broadcast); err != nil {
		return err
	}
	<-ctx.Done()
	return nil
}
