package measure_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
)

func TestAddFetch(t *testing.T) {
	t.Parallel()

	start := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	m := measure.NewDefaultMeasure()

	m.AddFetch(start, 10*time.Millisecond, nil)
	m.AddFetch(start.Add(2*time.Second), 30*time.Millisecond, assert.AnError)
	m.AddDiscarded()

	stats := m.Stats()
	assert.Equal(t, int64(2), stats.Fetches)
	assert.Equal(t, int64(1), stats.Failures)
	assert.Equal(t, int64(1), stats.Discarded)
	assert.Equal(t, int64(1), stats.FailuresSinceSuccess)
	assert.Equal(t, 20*time.Millisecond, stats.AvgLatency)
	assert.Equal(t, 30*time.Millisecond, stats.LastLatency)
	assert.Equal(t, start, stats.LastSuccess)
	assert.ErrorIs(t, stats.LastError, assert.AnError)

	m.AddFetch(start.Add(4*time.Second), 20*time.Millisecond, nil)
	assert.Zero(t, m.Stats().FailuresSinceSuccess)
}

func TestStale(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 1, 1, 0, 0, 10, 0, time.UTC)
	interval := 2 * time.Second

	tcs := map[string]struct {
		stats measure.Stats
		want  bool
	}{
		"never fetched": {stats: measure.Stats{}, want: false},
		"fresh":         {stats: measure.Stats{LastSuccess: now.Add(-time.Second)}, want: false},
		"old":           {stats: measure.Stats{LastSuccess: now.Add(-5 * time.Second)}, want: true},
		"failing": {
			stats: measure.Stats{LastSuccess: now, FailuresSinceSuccess: 1},
			want:  true,
		},
	}

	for name, tc := range tcs {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.want, tc.stats.Stale(now, interval))
		})
	}
}
