// Package dispatch is the upload dispatch and section aggregation engine:
// it submits batches to the upload queue, consumes resolutions one at a
// time, re-groups items by originating directory and turns every completed
// unit into a rendered section.
package dispatch

import (
	"context"
	"fmt"
	"sync"

	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/logging"
	"github.com/dmitrijs2005/picdrop/internal/notify"
	"github.com/dmitrijs2005/picdrop/internal/upload"
)

// EventSource is the upload queue surface the dispatcher consumes.
type EventSource interface {
	Enqueue(ctx context.Context, items []*item.Binary)
	Events() <-chan upload.Event
}

// Dispatcher owns the transient aggregation state of a dispatch cycle: the
// classification map (item handle -> directory label) and the per-label
// directory buffers. Both are touched only from Submit and from the single
// consumption goroutine, and every yielded event is handled to completion
// before the next one is requested, so the "no classification entry still
// references this label" test is race-free.
type Dispatcher struct {
	queue    EventSource
	registry *Registry
	notifier notify.Notifier
	log      logging.Logger

	mu        sync.Mutex
	consuming bool
	classify  map[uint64]string
	buffers   map[string][]*item.Resolved
	labels    []string // buffer insertion order
	clearNext bool
	failed    int

	onCycleComplete func()
}

func New(queue EventSource, registry *Registry, notifier notify.Notifier, log logging.Logger) *Dispatcher {
	return &Dispatcher{
		queue:     queue,
		registry:  registry,
		notifier:  notifier,
		log:       log,
		classify:  make(map[uint64]string),
		buffers:   make(map[string][]*item.Resolved),
		clearNext: true,
	}
}

// OnCycleComplete registers a hook fired after every terminal flush.
func (d *Dispatcher) OnCycleComplete(fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.onCycleComplete = fn
}

// Submit enqueues a batch for upload, tagging every item with dir when the
// batch originates from a folder. Classification is recorded before the
// items reach the queue, so a resolution can never arrive ahead of its
// directory label. The first Submit starts the consumption loop; later
// calls feed the same loop and never start a second one.
func (d *Dispatcher) Submit(ctx context.Context, items []*item.Binary, dir string) {
	if len(items) == 0 {
		return
	}

	d.mu.Lock()
	if dir != "" {
		for _, b := range items {
			d.classify[b.Handle()] = dir
		}
	}
	d.mu.Unlock()

	d.queue.Enqueue(ctx, items)

	d.mu.Lock()
	if !d.consuming {
		d.consuming = true
		go d.consume(ctx)
	}
	d.mu.Unlock()
}

// consume is the single consumption loop. It processes exactly one yielded
// event at a time and finishes its synchronous handling before receiving
// the next; the unbuffered queue channel supplies the backpressure.
func (d *Dispatcher) consume(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			d.mu.Lock()
			d.consuming = false
			d.mu.Unlock()
			return
		case ev := <-d.queue.Events():
			d.handle(ctx, ev)
		}
	}
}

func (d *Dispatcher) handle(ctx context.Context, ev upload.Event) {
	switch {
	case ev.Done:
		d.finishCycle(ctx)
	case ev.Err != nil:
		d.mu.Lock()
		d.failed++
		d.mu.Unlock()
		if d.log != nil {
			d.log.Warn(ctx, "item dropped from cycle", "error", ev.Err)
		}
	default:
		d.resolve(ctx, ev.Item)
	}
}

// resolve files one resolution: buffered under its directory label, flushed
// eagerly once the label has no outstanding classifications, or rendered
// immediately as a singleton when the item was never classified.
func (d *Dispatcher) resolve(ctx context.Context, r *item.Resolved) {
	d.mu.Lock()
	label, ok := d.classify[r.Source.Handle()]
	if !ok {
		d.mu.Unlock()
		d.render(ctx, []*item.Resolved{r}, "")
		return
	}

	// consume the classification exactly once
	delete(d.classify, r.Source.Handle())
	if _, exists := d.buffers[label]; !exists {
		d.labels = append(d.labels, label)
	}
	d.buffers[label] = append(d.buffers[label], r)

	outstanding := false
	for _, l := range d.classify {
		if l == label {
			outstanding = true
			break
		}
	}

	var flush []*item.Resolved
	if !outstanding && len(d.buffers[label]) > 0 {
		flush = d.buffers[label]
		delete(d.buffers, label)
		d.dropLabel(label)
	}
	d.mu.Unlock()

	if flush != nil {
		d.render(ctx, flush, label)
	}
}

// dropLabel removes an eagerly-flushed label from the insertion-order list
// so the terminal flush never sees it again. Caller holds d.mu.
func (d *Dispatcher) dropLabel(label string) {
	for i, l := range d.labels {
		if l == label {
			d.labels = append(d.labels[:i], d.labels[i+1:]...)
			return
		}
	}
}

// finishCycle handles the queue's done marker: flush every still-buffered
// directory in label insertion order, reset the transient state and re-arm
// the clean-slate flag for the next cycle.
func (d *Dispatcher) finishCycle(ctx context.Context) {
	d.mu.Lock()
	labels := d.labels
	buffers := d.buffers
	failed := d.failed
	hook := d.onCycleComplete
	d.labels = nil
	d.buffers = make(map[string][]*item.Resolved)
	d.classify = make(map[uint64]string)
	d.failed = 0
	d.mu.Unlock()

	for _, label := range labels {
		// a label whose items all vanished upstream is never flushed
		if items := buffers[label]; len(items) > 0 {
			d.render(ctx, items, label)
		}
	}

	d.mu.Lock()
	d.clearNext = true
	d.mu.Unlock()

	if failed > 0 && d.notifier != nil {
		d.notifier.Notify(ctx, "Upload", fmt.Sprintf("%d item(s) failed to upload", failed))
	}
	if d.log != nil {
		d.log.Debug(ctx, "dispatch cycle complete", "failed", failed)
	}
	if hook != nil {
		hook()
	}
}

// render pushes one display unit into the registry, clearing the previous
// batch's sections when this is the first render of a fresh cycle.
func (d *Dispatcher) render(ctx context.Context, items []*item.Resolved, dir string) {
	d.mu.Lock()
	fresh := d.clearNext
	d.clearNext = false
	d.mu.Unlock()

	if fresh {
		d.registry.Clear()
	}
	s := d.registry.Render(items, dir)
	if d.log != nil {
		d.log.Debug(ctx, "section rendered", "handle", s.Handle(), "dir", dir, "items", len(items))
	}
}
