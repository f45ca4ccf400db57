package upload

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
)

// Queue uploads items one at a time in arrival order and emits an Event per
// item on an unbuffered channel, then a Done event once the buffer drains.
// The unbuffered channel is the backpressure: the worker cannot move to the
// next item until the consumer has finished handling the previous event.
//
// The queue expects a single logical consumer ranging over Events().
type Queue struct {
	backend Backend
	log     logging.Logger
	events  chan Event

	mu      sync.Mutex
	pending []*item.Binary
	running bool
}

func NewQueue(backend Backend, log logging.Logger) *Queue {
	return &Queue{
		backend: backend,
		log:     log,
		events:  make(chan Event),
	}
}

// Events returns the resolution stream.
func (q *Queue) Events() <-chan Event {
	return q.events
}

// Enqueue appends items to the buffer and wakes the worker if it is parked.
// Items enqueued while a cycle is running join that cycle.
func (q *Queue) Enqueue(ctx context.Context, items []*item.Binary) {
	if len(items) == 0 {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, items...)
	start := !q.running
	if start {
		q.running = true
	}
	q.mu.Unlock()

	if start {
		go q.work(ctx)
	}
}

func (q *Queue) work(ctx context.Context) {
	for {
		q.mu.Lock()
		if len(q.pending) == 0 {
			q.mu.Unlock()
			// Drained: report completion, then re-check; an Enqueue
			// racing with the send starts the next cycle here
			// instead of spawning a second worker.
			select {
			case q.events <- Event{Done: true}:
			case <-ctx.Done():
			}
			q.mu.Lock()
			if len(q.pending) == 0 || ctx.Err() != nil {
				q.running = false
				q.mu.Unlock()
				return
			}
			q.mu.Unlock()
			continue
		}
		next := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		ev := Event{}
		resolved, err := q.backend.Upload(ctx, next)
		if err != nil {
			ev.Err = fmt.Errorf("uploading %q: %w", next.Name, err)
			if q.log != nil {
				q.log.Warn(ctx, "upload failed", "name", next.Name, "error", err)
			}
		} else {
			ev.Item = resolved
		}

		select {
		case q.events <- ev:
		case <-ctx.Done():
			q.mu.Lock()
			q.running = false
			q.mu.Unlock()
			return
		}
	}
}
