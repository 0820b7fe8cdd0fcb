// Package notify delivers "new contact submission" events to the team's chat
// relay. Delivery is best effort: callers log a failed Notify and move on.
package notify

import (
	"context"
	"errors"

	"github.com/brightside-studio/backend/internal/model"
)

// Notifier sends one event.
type Notifier interface {
	Notify(ctx context.Context, ev model.ContactEvent) error
}

// Nop discards every event. It is used when no relay is configured.
type Nop struct{}

func (Nop) Notify(context.Context, model.ContactEvent) error { return nil }

// Multi sends the event through each notifier in order. Every notifier is
// tried; the returned error joins all failures.
type Multi []Notifier

func (m Multi) Notify(ctx context.Context, ev model.ContactEvent) error {
	var errs []error
	for _, n := range m {
		if err := n.Notify(ctx, ev); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Func adapts a plain function to a Notifier.
type Func func(ctx context.Context, ev model.ContactEvent) error

func (f Func) Notify(ctx context.Context, ev model.ContactEvent) error { return f(ctx, ev) }
