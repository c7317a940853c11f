package events

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher fans recovery events out to in-process subscribers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

type syncDispatcher struct {
	mu     sync.RWMutex
	routes map[EventType][]EventHandler
}

// NewInMemoryDispatcher returns a dispatcher that runs subscribers on the publishing goroutine.
func NewInMemoryDispatcher() Dispatcher {
	return &syncDispatcher{routes: make(map[EventType][]EventHandler)}
}

// Publish runs the subscribers of event.Type in subscription order. A failing or
// panicking subscriber does not stop the rest; their errors are joined.
func (d *syncDispatcher) Publish(ctx context.Context, event Event) error {
	if event.Type == "" {
		return errors.New("event without type")
	}
	d.mu.RLock()
	subscribers := slices.Clone(d.routes[event.Type])
	d.mu.RUnlock()

	var errs []error
	for i, handle := range subscribers {
		if err := deliver(ctx, handle, event); err != nil {
			errs = append(errs, fmt.Errorf("%s subscriber %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}

// Subscribe registers handler for eventType. A nil handler is ignored.
func (d *syncDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	if handler == nil {
		return
	}
	d.mu.Lock()
	d.routes[eventType] = append(d.routes[eventType], handler)
	d.mu.Unlock()
}

func deliver(ctx context.Context, handle EventHandler, event Event) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()
	return handle(ctx, event)
}
