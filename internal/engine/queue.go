package engine

import (
	"sync"

	"github.com/roach88/combomirror/internal/ir"
)

// EventType distinguishes between event kinds.
type EventType int

const (
	// EventTypeChange sets or deletes one key of one table.
	EventTypeChange EventType = iota + 1
	// EventTypeSnapshot replaces a whole table.
	EventTypeSnapshot
	// EventTypeFunc runs Fn on the loop goroutine.
	EventTypeFunc
)

// String returns the lower-case name used in logs.
func (t EventType) String() string {
	switch t {
	case EventTypeChange:
		return "change"
	case EventTypeSnapshot:
		return "snapshot"
	case EventTypeFunc:
		return "func"
	default:
		return "unknown"
	}
}

// Event is one unit of work for the loop.
type Event struct {
	Type  EventType
	Table string

	// Key and Value describe a change. A nil or ir.IRNull Value is a delete.
	Key   string
	Value ir.IRValue

	// Entries is the full table content of a snapshot.
	Entries map[string]ir.IRValue

	// Seq is the upstream sequence number, 0 when unknown.
	Seq int64

	// Tick is stamped by the loop when the event is processed.
	Tick int64

	Fn func()
}

// eventQueue is a thread-safe FIFO queue for events.
//
// The queue is unbounded so that a burst of upstream frames never blocks the
// network reader.
//
// The queue uses a channel for signaling to enable context-aware waiting
// in the Run loop.
type eventQueue struct {
	mu     sync.Mutex
	events []Event
	closed bool
	signal chan struct{} // buffered, size 1
}

func newEventQueue() *eventQueue {
	return &eventQueue{
		events: make([]Event, 0, 64),
		signal: make(chan struct{}, 1),
	}
}

// Enqueue adds an event to the back of the queue.
// Returns false if the queue is closed.
func (q *eventQueue) Enqueue(e Event) bool {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return false
	}

	q.events = append(q.events, e)

	// buffer of 1 coalesces multiple signals
	select {
	case q.signal <- struct{}{}:
	default:
	}

	return true
}

// TryDequeue attempts to dequeue without blocking.
// Returns (Event{}, false) if queue is empty.
func (q *eventQueue) TryDequeue() (Event, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()

	if len(q.events) == 0 {
		return Event{}, false
	}

	e := q.events[0]

	// Clear the slot so the backing array does not pin values and closures.
	q.events[0] = Event{}

	if len(q.events) == 1 {
		q.events = q.events[:0]
	} else {
		q.events = q.events[1:]
	}

	return e, true
}

// Wait returns a channel that signals when events may be available.
// Use with select for context-aware waiting:
//
//	select {
//	case <-ctx.Done():
//	    return ctx.Err()
//	case <-q.Wait():
//	    // Try TryDequeue
//	}
func (q *eventQueue) Wait() <-chan struct{} {
	return q.signal
}

// Len returns the current queue length.
func (q *eventQueue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.events)
}

// Close signals that no more events will be enqueued and wakes waiters.
func (q *eventQueue) Close() {
	q.mu.Lock()
	defer q.mu.Unlock()

	if q.closed {
		return
	}

	q.closed = true
	close(q.signal)
}
