package events

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// EventHandler handles a published event.
type EventHandler func(context.Context, Event) error

// Dispatcher publishes events to subscribed handlers.
type Dispatcher interface {
	Publish(ctx context.Context, event Event) error
	Subscribe(eventType EventType, handler EventHandler)
}

// LocalDispatcher delivers events to handlers in this process, synchronously and in
// subscription order.
type LocalDispatcher struct {
	mu     sync.RWMutex
	routes map[EventType][]EventHandler
}

// NewLocalDispatcher returns an empty dispatcher.
func NewLocalDispatcher() *LocalDispatcher {
	return &LocalDispatcher{routes: map[EventType][]EventHandler{}}
}

// Subscribe adds handler for eventType.
func (d *LocalDispatcher) Subscribe(eventType EventType, handler EventHandler) {
	d.mu.Lock()
	d.routes[eventType] = append(d.routes[eventType], handler)
	d.mu.Unlock()
}

// Publish runs every handler for event.Type. A failing handler does not stop the rest.
func (d *LocalDispatcher) Publish(ctx context.Context, event Event) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	d.mu.RLock()
	targets := d.routes[event.Type]
	d.mu.RUnlock()

	var errs []error
	for i, h := range targets {
		if err := h(ctx, event); err != nil {
			errs = append(errs, fmt.Errorf("%s handler %d: %w", event.Type, i, err))
		}
	}
	return errors.Join(errs...)
}
