package pipeview

import (
	"context"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"sync"
	"sync/atomic"
	"time"

	"github.com/pkg/errors"
	"k8s.io/utils/clock"

	"github.com/askiada/go-pipeview/pkg/pipeview/measure"
	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

const maxBodySize = 32 << 20

// Poller holds the current pipeline document and keeps it refreshed from the backend.
type Poller struct {
	endpoint string
	client   *http.Client
	clock    clock.WithTicker
	logger   *slog.Logger
	measure  measure.Measure
	ordering Ordering
	timeout  time.Duration

	seq atomic.Uint64

	mu          sync.RWMutex
	current     Snapshot
	subscribers subscribers

	loopMu   sync.Mutex
	stop     context.CancelFunc
	done     chan struct{}
	inflight sync.WaitGroup
}

// New creates a poller for endpoint, the full url of the pipeline resource.
func New(endpoint string, opts ...Option) (*Poller, error) {
	u, err := url.Parse(endpoint)
	if err != nil {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "%q: %v", endpoint, err)
	}

	if (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return nil, errors.Wrapf(ErrInvalidEndpoint, "%q", endpoint)
	}

	p := &Poller{
		endpoint: u.String(),
		client:   http.DefaultClient,
		clock:    clock.RealClock{},
		logger:   slog.Default(),
		measure:  measure.NewDefaultMeasure(),
		ordering: OrderLastCompleted,
		timeout:  DefaultTimeout,
	}

	for _, opt := range opts {
		opt(p)
	}

	return p, nil
}

// Endpoint returns the url being polled.
func (p *Poller) Endpoint() string {
	return p.endpoint
}

// Stats returns the fetch statistics.
func (p *Poller) Stats() measure.Stats {
	return p.measure.Stats()
}

// CurrentSnapshot returns the most recently accepted document.
// Before the first successful fetch the returned snapshot is empty.
func (p *Poller) CurrentSnapshot() Snapshot {
	p.mu.RLock()
	defer p.mu.RUnlock()

	return p.current
}

// Subscribe registers an observer. The returned function unregisters it and closes the channel.
func (p *Poller) Subscribe() (<-chan Event, func()) {
	p.mu.Lock()
	defer p.mu.Unlock()

	id, ch := p.subscribers.add()

	var once sync.Once

	return ch, func() {
		once.Do(func() {
			p.mu.Lock()
			defer p.mu.Unlock()
			p.subscribers.remove(id)
		})
	}
}

// FetchSnapshot issues one request and, on success, replaces the held snapshot.
// On failure the previous snapshot is kept and the error is returned and published.
func (p *Poller) FetchSnapshot(ctx context.Context) error {
	return p.fetch(ctx, p.seq.Add(1))
}

func (p *Poller) fetch(ctx context.Context, seq uint64) error {
	start := p.clock.Now()
	doc, err := p.get(ctx, seq)
	completedAt := p.clock.Now()

	p.measure.AddFetch(completedAt, completedAt.Sub(start), err)

	if err != nil {
		p.fail(seq, err)

		return err
	}

	return p.accept(seq, doc, completedAt)
}

func (p *Poller) get(ctx context.Context, seq uint64) (*model.PipelineDocument, error) {
	if p.timeout > 0 {
		var cancel context.CancelFunc

		ctx, cancel = context.WithTimeout(ctx, p.timeout)
		defer cancel()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.endpoint, nil)
	if err != nil {
		return nil, &FetchError{Seq: seq, Kind: ErrTransport, Err: err}
	}

	req.Header.Set("Accept", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, &FetchError{Seq: seq, Kind: ErrTransport, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))

		return nil, &FetchError{
			Seq:  seq,
			Kind: ErrStatus,
			Err:  errors.Errorf("GET %s returned %s", p.endpoint, resp.Status),
		}
	}

	doc, err := model.Decode(io.LimitReader(resp.Body, maxBodySize))
	if err != nil {
		kind := ErrMalformedDocument
		if !errors.Is(err, ErrMalformedDocument) {
			// the body stopped mid-read
			kind = ErrTransport
		}

		return nil, &FetchError{Seq: seq, Kind: kind, Err: err}
	}

	return doc, nil
}

func (p *Poller) accept(seq uint64, doc *model.PipelineDocument, fetchedAt time.Time) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.ordering == OrderLatestIssued && seq < p.current.Seq {
		p.measure.AddDiscarded()
		p.logger.Debug("pipeline response superseded", "seq", seq, "held", p.current.Seq)
		p.subscribers.publish(Event{Kind: EventDiscarded, Seq: seq, Snapshot: p.current})

		return errors.Wrapf(ErrSuperseded, "fetch #%d older than #%d", seq, p.current.Seq)
	}

	p.current = Snapshot{Document: doc, Seq: seq, FetchedAt: fetchedAt}
	p.logger.Debug("pipeline snapshot replaced", "seq", seq, "jobs", len(doc.Jobs), "stages", len(doc.Stages))
	p.subscribers.publish(Event{Kind: EventReplaced, Seq: seq, Snapshot: p.current})

	return nil
}

func (p *Poller) fail(seq uint64, err error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.logger.Warn("pipeline fetch failed", "seq", seq, "endpoint", p.endpoint, "error", err)
	p.subscribers.publish(Event{Kind: EventFailed, Seq: seq, Snapshot: p.current, Err: err})
}

// StartPolling fetches immediately and then once every interval until StopPolling is called
// or ctx is done. Fetches run concurrently and outlive StopPolling, they are only aborted
// when ctx is done.
func (p *Poller) StartPolling(ctx context.Context, interval time.Duration) error {
	if interval <= 0 {
		return ErrInvalidInterval
	}

	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	if p.running() {
		return ErrAlreadyPolling
	}

	loopCtx, cancel := context.WithCancel(ctx)
	done := make(chan struct{})
	ticker := p.clock.NewTicker(interval)

	p.stop = cancel
	p.done = done

	p.logger.Info("polling pipeline", "endpoint", p.endpoint, "interval", interval, "ordering", p.ordering)

	p.trigger(ctx)

	go p.loop(loopCtx, ctx, ticker, done)

	return nil
}

func (p *Poller) running() bool {
	if p.done == nil {
		return false
	}

	select {
	case <-p.done:
		return false
	default:
		return true
	}
}

// Polling reports whether the recurring trigger is active.
func (p *Poller) Polling() bool {
	p.loopMu.Lock()
	defer p.loopMu.Unlock()

	return p.running()
}

func (p *Poller) loop(loopCtx, fetchCtx context.Context, ticker clock.Ticker, done chan struct{}) {
	defer close(done)
	defer ticker.Stop()

	for {
		select {
		case <-loopCtx.Done():
			return
		case <-ticker.C():
			// a tick can be ready at the same time as the stop signal
			if loopCtx.Err() != nil {
				return
			}

			p.trigger(fetchCtx)
		}
	}
}

func (p *Poller) trigger(ctx context.Context) {
	seq := p.seq.Add(1)

	p.inflight.Add(1)

	go func() {
		defer p.inflight.Done()

		// failures are logged and published by fetch
		_ = p.fetch(ctx, seq)
	}()
}

// StopPolling cancels the recurring trigger. No new fetch fires once it returns.
// Requests already in flight still complete. Calling it when not polling does nothing.
func (p *Poller) StopPolling() {
	p.loopMu.Lock()
	stop, done := p.stop, p.done
	p.stop, p.done = nil, nil
	p.loopMu.Unlock()

	if stop == nil {
		return
	}

	stop()
	<-done
	p.logger.Info("stopped polling pipeline", "endpoint", p.endpoint)
}

// Wait blocks until the polling loop has exited and every fetch in flight has returned.
func (p *Poller) Wait() {
	p.loopMu.Lock()
	done := p.done
	p.loopMu.Unlock()

	if done != nil {
		<-done
	}

	p.inflight.Wait()
}

// Close stops polling, waits for fetches in flight and closes all subscriber channels.
func (p *Poller) Close() {
	p.StopPolling()
	p.inflight.Wait()

	p.mu.Lock()
	defer p.mu.Unlock()

	p.subscribers.closeAll()
}
