package events

import (
	"context"
	"errors"
)

// Publisher delivers events to a downstream sink.
//
// Publish is called after the change has been committed, so a failure is
// reported to the caller for logging but never undoes the change.
type Publisher interface {
	Publish(ctx context.Context, e Event) error
}

// Nop discards every event.
type Nop struct{}

// Publish implements Publisher.
func (Nop) Publish(context.Context, Event) error { return nil }

// Fanout publishes each event to every publisher in order.
// A failing publisher does not stop delivery to the rest.
type Fanout []Publisher

// Publish implements Publisher. The returned error joins every failure.
func (f Fanout) Publish(ctx context.Context, e Event) error {
	var errs []error
	for _, p := range f {
		if p == nil {
			continue
		}
		if err := p.Publish(ctx, e); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
