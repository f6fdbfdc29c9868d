package view

import (
	"context"

	"github.com/askiada/go-pipeview/pkg/pipeview"
)

// Source publishes snapshots. *pipeview.Poller implements it.
type Source interface {
	Subscribe() (<-chan pipeview.Event, func())
	CurrentSnapshot() pipeview.Snapshot
}

var _ Source = (*pipeview.Poller)(nil)

// Watch applies every snapshot replacement published by source to m and then calls onChange.
// onChange is also called for failed and discarded fetches, with the model left untouched.
// Watch returns when ctx is done or the source closes its channel.
func Watch(ctx context.Context, source Source, m *Model, onChange func(pipeview.Event)) error {
	events, unsubscribe := source.Subscribe()
	defer unsubscribe()

	// a fetch may have completed before the subscription
	if snap := source.CurrentSnapshot(); !snap.IsEmpty() && snap.Seq != m.Snapshot().Seq {
		err := m.Apply(snap)
		if err != nil {
			return err
		}

		notify(onChange, pipeview.Event{Kind: pipeview.EventReplaced, Seq: snap.Seq, Snapshot: snap})
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}

			if ev.Kind == pipeview.EventReplaced {
				err := m.Apply(ev.Snapshot)
				if err != nil {
					return err
				}
			}

			notify(onChange, ev)
		}
	}
}

func notify(onChange func(pipeview.Event), ev pipeview.Event) {
	if onChange != nil {
		onChange(ev)
	}
}
