package testutil

import (
	"context"
	"sync"

	"installment_app_echo/internal/events"
)

// EventRecorder is an events.Publisher that keeps everything it is given.
type EventRecorder struct {
	mu     sync.Mutex
	Events []events.Event
}

func (r *EventRecorder) Publish(_ context.Context, e events.Event) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Events = append(r.Events, e)
	return nil
}

// Types returns the recorded event types in publish order.
func (r *EventRecorder) Types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	types := make([]string, len(r.Events))
	for i, e := range r.Events {
		types[i] = e.Type
	}
	return types
}
