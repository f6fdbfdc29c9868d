package measure

import "time"

// Measure records the outcome of every fetch issued by a poller.
type Measure interface {
	// AddFetch records a completed fetch. A nil err marks a success.
	AddFetch(completedAt time.Time, elapsed time.Duration, err error)
	// AddDiscarded records a successful fetch whose result was dropped because a newer one was held.
	AddDiscarded()
	// Stats returns a copy of the current statistics.
	Stats() Stats
}
