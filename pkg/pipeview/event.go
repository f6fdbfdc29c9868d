package pipeview

import (
	"time"

	"github.com/askiada/go-pipeview/pkg/pipeview/model"
)

// Snapshot is the document held by a Poller at a point in time.
type Snapshot struct {
	Document *model.PipelineDocument
	// Seq is the sequence number of the fetch that produced the document.
	Seq       uint64
	FetchedAt time.Time
}

// IsEmpty reports whether no fetch has succeeded yet.
func (s Snapshot) IsEmpty() bool {
	return s.Document == nil
}

// EventKind identifies what happened to the snapshot.
type EventKind int

const (
	// EventReplaced is published after a successful fetch replaced the snapshot.
	EventReplaced EventKind = iota
	// EventFailed is published after a fetch failed. The snapshot is unchanged.
	EventFailed
	// EventDiscarded is published when a completion was older than the snapshot held.
	EventDiscarded
)

func (k EventKind) String() string {
	switch k {
	case EventReplaced:
		return "replaced"
	case EventFailed:
		return "failed"
	case EventDiscarded:
		return "discarded"
	default:
		return "unknown"
	}
}

// Event is delivered to subscribers. Snapshot is always the snapshot held after the event.
type Event struct {
	Kind     EventKind
	Seq      uint64
	Snapshot Snapshot
	Err      error
}

const subscriberBuffer = 16

type subscribers struct {
	next int
	list map[int]chan Event
}

func (s *subscribers) add() (int, chan Event) {
	if s.list == nil {
		s.list = make(map[int]chan Event)
	}

	id := s.next
	s.next++
	ch := make(chan Event, subscriberBuffer)
	s.list[id] = ch

	return id, ch
}

func (s *subscribers) remove(id int) {
	ch, ok := s.list[id]
	if !ok {
		return
	}

	delete(s.list, id)
	close(ch)
}

// publish never blocks. A subscriber that is behind misses the event
// and can still read the current snapshot.
func (s *subscribers) publish(ev Event) {
	for _, ch := range s.list {
		select {
		case ch <- ev:
		default:
		}
	}
}

func (s *subscribers) closeAll() {
	for id := range s.list {
		s.remove(id)
	}
}
