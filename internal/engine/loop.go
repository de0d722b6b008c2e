package engine

import (
	"context"
	"fmt"
	"log/slog"
)

// HandlerFunc processes a data event on the loop goroutine.
type HandlerFunc func(ctx context.Context, ev Event) error

// Loop is the single-writer event loop.
//
// Thread-safety model:
//   - Enqueue, Do: safe from any goroutine
//   - Run: must be called from exactly one goroutine
//   - the handler and every Fn run only on the Run goroutine
type Loop struct {
	queue   *eventQueue
	clock   *Clock
	handler HandlerFunc
	logger  *slog.Logger
}

// LoopOption configures a Loop.
type LoopOption func(*Loop)

// WithClock sets the clock used to stamp events. Default: NewClock().
func WithClock(c *Clock) LoopOption {
	return func(l *Loop) {
		l.clock = c
	}
}

// WithLogger sets the logger. Default: slog.Default().
func WithLogger(logger *slog.Logger) LoopOption {
	return func(l *Loop) {
		l.logger = logger
	}
}

// New creates a loop that passes data events to handler. handler may be nil
// for loops that only run EventTypeFunc events.
func New(handler HandlerFunc, opts ...LoopOption) *Loop {
	l := &Loop{
		queue:   newEventQueue(),
		clock:   NewClock(),
		handler: handler,
		logger:  slog.Default(),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// Enqueue submits an event for processing by the Run loop.
// Returns false if the loop has been stopped.
func (l *Loop) Enqueue(ev Event) bool {
	return l.queue.Enqueue(ev)
}

// Do schedules fn to run on the loop goroutine.
// Returns false if the loop has been stopped.
func (l *Loop) Do(fn func()) bool {
	return l.queue.Enqueue(Event{Type: EventTypeFunc, Fn: fn})
}

// Clock returns the loop's clock.
func (l *Loop) Clock() *Clock {
	return l.clock
}

// Pending returns the number of queued events.
func (l *Loop) Pending() int {
	return l.queue.Len()
}

// Run processes events until ctx is cancelled or Stop is called. Events
// already queued when Stop is called are still processed.
//
// A failing event is logged with its context and processing continues;
// later events never wait on a retry of an earlier one.
func (l *Loop) Run(ctx context.Context) error {
	l.logger.Debug("event loop starting")

	for {
		if ev, ok := l.queue.TryDequeue(); ok {
			if err := l.process(ctx, ev); err != nil {
				l.logEventError(ev, err)
			}
			continue
		}

		select {
		case <-ctx.Done():
			l.logger.Debug("event loop stopping: context cancelled")
			l.queue.Close()
			return ctx.Err()

		case <-l.queue.Wait():
			// The signal channel is closed with the queue, so a closed and
			// drained queue lands here with nothing left to do.
			if l.closedAndEmpty() {
				l.logger.Debug("event loop stopping: queue closed")
				return nil
			}
		}
	}
}

// Stop closes the queue. Run returns once it has drained.
func (l *Loop) Stop() {
	l.queue.Close()
}

func (l *Loop) closedAndEmpty() bool {
	l.queue.mu.Lock()
	defer l.queue.mu.Unlock()
	return l.queue.closed && len(l.queue.events) == 0
}

// process routes one event. Called only from Run.
func (l *Loop) process(ctx context.Context, ev Event) (err error) {
	ev.Tick = l.clock.Next()

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("panic: %v", r)
		}
	}()

	switch ev.Type {
	case EventTypeFunc:
		if ev.Fn == nil {
			return fmt.Errorf("func event missing function")
		}
		ev.Fn()
		return nil

	case EventTypeChange, EventTypeSnapshot:
		if l.handler == nil {
			return ErrNoHandler
		}
		return l.handler(ctx, ev)

	default:
		return fmt.Errorf("unknown event type: %d", ev.Type)
	}
}

func (l *Loop) logEventError(ev Event, err error) {
	l.logger.Error("event processing failed",
		"error", &EventError{Type: ev.Type, Table: ev.Table, Key: ev.Key, Seq: ev.Seq, Err: err},
		"type", ev.Type.String(),
		"table", ev.Table,
		"key", ev.Key,
		"seq", ev.Seq,
	)
}
