package events

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hearthlabs/hearth-assistant/pkg/logging"
)

// Handler consumes one event. A non-nil return is treated as a subscriber
// failure and isolated from the publisher.
type Handler func(ctx context.Context, evt Event) error

// Bus is an in-process publish/subscribe fan-out. Subscriber failures and
// panics are caught, logged, and re-emitted as InteractionErrorV1 events;
// they never propagate to the publisher, so a capture is never rolled back
// by a broken consumer.
type Bus struct {
	mu     sync.RWMutex
	subs   map[string][]Handler
	logger *logging.Logger
}

func NewBus(logger *logging.Logger) *Bus {
	if logger == nil {
		logger = logging.Default()
	}
	return &Bus{
		subs:   make(map[string][]Handler),
		logger: logger.WithComponent("events"),
	}
}

// Subscribe registers a handler for an event type.
func (b *Bus) Subscribe(eventType string, h Handler) {
	if h == nil {
		return
	}
	b.mu.Lock()
	b.subs[eventType] = append(b.subs[eventType], h)
	b.mu.Unlock()
}

// Publish delivers evt to every subscriber of its type, in registration
// order, on the caller's goroutine.
func (b *Bus) Publish(ctx context.Context, evt Event) {
	if b == nil || evt == nil {
		return
	}
	b.mu.RLock()
	handlers := append([]Handler(nil), b.subs[evt.EventType()]...)
	b.mu.RUnlock()

	for _, h := range handlers {
		if err := b.deliver(ctx, h, evt); err != nil {
			b.logger.Warn("subscriber failed", "event_type", evt.EventType(), "error", err)
			// Avoid recursing when the failing subscriber listens on the
			// error type itself.
			if evt.EventType() != TypeInteractionError {
				b.Publish(ctx, InteractionErrorV1{
					EventID:    uuid.NewString(),
					Stage:      "subscriber",
					Reason:     err.Error(),
					OccurredAt: time.Now().UTC(),
				})
			}
		}
	}
}

func (b *Bus) deliver(ctx context.Context, h Handler, evt Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("events: subscriber panic: %v", r)
		}
	}()
	return h(ctx, evt)
}
