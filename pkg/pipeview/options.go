package pipeview

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
)

const (
	// DefaultInterval is the polling period used by the designer front-end.
	DefaultInterval = 2000 * time.Millisecond
	// DefaultTimeout bounds a single request.
	DefaultTimeout = 10 * time.Second
	// DefaultPath is the pipeline endpoint path on the backend.
	DefaultPath = "/api/pipeline"
)

// Ordering decides which completion wins when fetches finish out of firing order.
type Ordering int

const (
	// OrderLastCompleted accepts every successful completion, the last one to complete wins.
	OrderLastCompleted Ordering = iota
	// OrderLatestIssued drops completions fired before the snapshot currently held.
	OrderLatestIssued
)

// ErrUnknownOrdering is returned by ParseOrdering for names it does not know.
var ErrUnknownOrdering = errors.New("unknown ordering")

// ParseOrdering parses "last-completed" or "latest-issued".
func ParseOrdering(s string) (Ordering, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "last-completed":
		return OrderLastCompleted, nil
	case "latest-issued":
		return OrderLatestIssued, nil
	default:
		return 0, errors.Wrapf(ErrUnknownOrdering, "%q", s)
	}
}

func (o Ordering) String() string {
	if o == OrderLatestIssued {
		return "latest-issued"
	}

	return "last-completed"
}

// Option configures a Poller.
type Option func(p *Poller)

// WithHTTPClient sets the client used for fetches.
func WithHTTPClient(client *http.Client) Option {
	return func(p *Poller) {
		p.client = client
	}
}

// WithClock sets the clock driving the polling ticker.
func WithClock(c clock.WithTicker) Option {
	return func(p *Poller) {
		p.clock = c
	}
}

// WithLogger sets the logger used for fetch and polling events.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Poller) {
		p.logger = logger
	}
}

// WithMeasure sets where fetch statistics are recorded.
func WithMeasure(m measure.Measure) Option {
	return func(p *Poller) {
		p.measure = m
	}
}

// WithOrdering sets how out of order responses are resolved.
func WithOrdering(o Ordering) Option {
	return func(p *Poller) {
		p.ordering = o
	}
}

// WithTimeout bounds each request. Zero disables the per request timeout.
func WithTimeout(timeout time.Duration) Option {
	return func(p *Poller) {
		p.timeout = timeout
	}
}
