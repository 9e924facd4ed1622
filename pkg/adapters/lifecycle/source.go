package lifecycle

import (
	"context"

	"github.com/aretw0/lifecycle"

	"github.com/veikko/jamb/pkg/core"
)

type planSource struct {
	events <-chan core.Event
	out    chan lifecycle.Event
}

// NewSource creates a lifecycle.Source that emits plan change events.
// It bridges the typed event channel to the generic lifecycle Event
// interface so a plan watcher can feed a lifecycle-managed app.
func NewSource(events <-chan core.Event) lifecycle.Source {
	return &planSource{
		events: events,
		out:    make(chan lifecycle.Event),
	}
}

func (s *planSource) Events() <-chan lifecycle.Event {
	return s.out
}

func (s *planSource) Start(ctx context.Context) error {
	// The bridge goroutine is itself lifecycle-tracked.
	lifecycle.Go(ctx, func(ctx context.Context) error {
		defer close(s.out)
		for {
			select {
			case <-ctx.Done():
				return nil
			case e, ok := <-s.events:
				if !ok {
					return nil
				}
				// core.Event implements lifecycle.Event (has String())
				select {
				case s.out <- e:
				case <-ctx.Done():
					return nil
				}
			}
		}
	})
	return nil
}
