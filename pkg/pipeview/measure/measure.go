package measure

import (
	"sync"
	"time"
)

// Stats summarises the fetches of a poller.
type Stats struct {
	Fetches     int64
	Failures    int64
	Discarded   int64
	AvgLatency  time.Duration
	LastLatency time.Duration
	LastError   error
	LastSuccess time.Time
	LastFailure time.Time
	// FailuresSinceSuccess counts consecutive failures.
	FailuresSinceSuccess int64
}

// Stale reports whether the last good document should be flagged as out of date:
// either the latest fetch failed or no success arrived for two intervals.
func (s Stats) Stale(now time.Time, interval time.Duration) bool {
	if s.FailuresSinceSuccess > 0 {
		return true
	}

	if s.LastSuccess.IsZero() {
		return false
	}

	return now.Sub(s.LastSuccess) > 2*interval
}

// DefaultMeasure keeps fetch statistics in memory.
type DefaultMeasure struct {
	mu      sync.Mutex
	elapsed time.Duration
	stats   Stats
}

// NewDefaultMeasure returns an empty measure.
func NewDefaultMeasure() *DefaultMeasure {
	return &DefaultMeasure{}
}

func (m *DefaultMeasure) AddFetch(completedAt time.Time, elapsed time.Duration, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Fetches++
	m.elapsed += elapsed
	m.stats.LastLatency = round(elapsed)
	m.stats.AvgLatency = round(time.Duration(float64(m.elapsed) / float64(m.stats.Fetches)))

	if err != nil {
		m.stats.Failures++
		m.stats.FailuresSinceSuccess++
		m.stats.LastError = err
		m.stats.LastFailure = completedAt

		return
	}

	m.stats.FailuresSinceSuccess = 0
	m.stats.LastSuccess = completedAt
}

func (m *DefaultMeasure) AddDiscarded() {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.stats.Discarded++
}

func (m *DefaultMeasure) Stats() Stats {
	m.mu.Lock()
	defer m.mu.Unlock()

	return m.stats
}

func round(d time.Duration) time.Duration {
	switch {
	case d > time.Second:
		d = d.Round(10 * time.Millisecond)
	case d > time.Millisecond:
		d = d.Round(time.Millisecond)
	case d > time.Microsecond:
		d = d.Round(time.Microsecond)
	}

	return d
}

var _ Measure = (*DefaultMeasure)(nil)
