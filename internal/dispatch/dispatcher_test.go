package dispatch

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/dmitrijs2005/picdrop/internal/item"
	"github.com/dmitrijs2005/picdrop/internal/transform"
	"github.com/dmitrijs2005/picdrop/internal/upload"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fakeQueue lets a test hand-feed resolution events to the dispatcher. The
// unbuffered channel mirrors the real queue's backpressure.
type fakeQueue struct {
	events chan upload.Event

	mu       sync.Mutex
	enqueued [][]*item.Binary
}

func newFakeQueue() *fakeQueue {
	return &fakeQueue{events: make(chan upload.Event)}
}

func (q *fakeQueue) Enqueue(_ context.Context, items []*item.Binary) {
	q.mu.Lock()
	q.enqueued = append(q.enqueued, items)
	q.mu.Unlock()
}

func (q *fakeQueue) Events() <-chan upload.Event { return q.events }

func (q *fakeQueue) enqueueCount() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.enqueued)
}

func (q *fakeQueue) resolve(t *testing.T, b *item.Binary, pid string) {
	t.Helper()
	select {
	case q.events <- upload.Event{Item: &item.Resolved{PID: pid, MimeType: "image/jpeg", Source: b}}:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not accept resolution")
	}
}

func (q *fakeQueue) fail(t *testing.T, err error) {
	t.Helper()
	select {
	case q.events <- upload.Event{Err: err}:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not accept failure")
	}
}

func (q *fakeQueue) done(t *testing.T) {
	t.Helper()
	select {
	case q.events <- upload.Event{Done: true}:
	case <-time.After(2 * time.Second):
		t.Fatal("dispatcher did not accept done marker")
	}
}

type fakeNotifier struct {
	mu       sync.Mutex
	messages []string
}

func (n *fakeNotifier) Notify(_ context.Context, _, message string) {
	n.mu.Lock()
	n.messages = append(n.messages, message)
	n.mu.Unlock()
}

func (n *fakeNotifier) all() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.messages...)
}

func testRegistry() *Registry {
	opts := transform.Options{SchemePrefix: "https://", Host: "img.example.com", Crop: "medium"}
	return NewRegistry(func() transform.Options { return opts }, nil)
}

// harness wires a dispatcher to fakes and exposes a cycle-completion signal.
func harness(t *testing.T) (*Dispatcher, *fakeQueue, *Registry, *fakeNotifier, chan struct{}) {
	t.Helper()
	q := newFakeQueue()
	reg := testRegistry()
	n := &fakeNotifier{}
	d := New(q, reg, n, nil)
	completed := make(chan struct{}, 4)
	d.OnCycleComplete(func() { completed <- struct{}{} })
	return d, q, reg, n, completed
}

func waitCycle(t *testing.T, completed chan struct{}) {
	t.Helper()
	select {
	case <-completed:
	case <-time.After(2 * time.Second):
		t.Fatal("cycle did not complete")
	}
}

func pids(recs []transform.Record) []string {
	out := make([]string, 0, len(recs))
	for _, r := range recs {
		out = append(out, r.Item.PID)
	}
	return out
}

func TestDispatcher_DirectoryBatchAggregatesIntoOneSection(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	a := item.NewBinary("a.jpg", []byte{1})
	b := item.NewBinary("b.jpg", []byte{2})
	c := item.NewBinary("c.jpg", []byte{3})
	d.Submit(ctx, []*item.Binary{a, b, c}, "dirA")

	// out of submission order
	q.resolve(t, b, "pid-b")
	q.resolve(t, a, "pid-a")
	q.resolve(t, c, "pid-c")

	// the third resolution empties the classification map for dirA, so the
	// flush happens eagerly, ahead of the done marker
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	q.done(t)
	waitCycle(t, completed)

	// done must not flush the same directory a second time
	sections := reg.Sections()
	require.Len(t, sections, 1)

	s := sections[0]
	assert.True(t, s.Group())
	assert.Equal(t, "dirA", s.Directory())
	assert.Equal(t, []string{"pid-b", "pid-a", "pid-c"}, pids(s.Records()))

	rep := s.Representative()
	assert.Equal(t, "pid-c", rep.Item.PID)
	for _, text := range []string{rep.URL, rep.HTML, rep.UBB, rep.Markdown} {
		assert.Contains(t, text, DirectorySymbol)
	}
}

func TestDispatcher_UnlabeledItemRendersImmediately(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	b := item.NewBinary("solo.jpg", []byte{1})
	d.Submit(ctx, []*item.Binary{b}, "")

	q.resolve(t, b, "pid-solo")

	// the singleton section appears without waiting for done
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	s := reg.Sections()[0]
	assert.False(t, s.Group())
	rep := s.Representative()
	assert.NotContains(t, rep.URL, DirectorySymbol)

	q.done(t)
	waitCycle(t, completed)
	assert.Equal(t, 1, reg.Len())
}

func TestDispatcher_GroupingCompleteness(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	items := make([]*item.Binary, 5)
	for i := range items {
		items[i] = item.NewBinary("f", []byte{byte(i)})
	}
	d.Submit(ctx, items, "album")

	// arbitrary resolution order
	order := []int{3, 0, 4, 1, 2}
	want := make([]string, 0, len(order))
	for _, i := range order {
		pid := "pid-" + string(rune('a'+i))
		want = append(want, pid)
		q.resolve(t, items[i], pid)
	}

	q.done(t)
	waitCycle(t, completed)

	sections := reg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, want, pids(sections[0].Records()))
}

func TestDispatcher_DoubleResolutionDoesNotDoubleAppend(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	a := item.NewBinary("a.jpg", []byte{1})
	b := item.NewBinary("b.jpg", []byte{2})
	d.Submit(ctx, []*item.Binary{a, b}, "dirA")

	q.resolve(t, a, "pid-a")
	// upstream should never do this; the classification was already
	// consumed, so the duplicate renders as a stray singleton
	q.resolve(t, a, "pid-a-dup")
	q.resolve(t, b, "pid-b")
	q.done(t)
	waitCycle(t, completed)

	var group *Section
	for _, s := range reg.Sections() {
		if s.Group() {
			group = s
		}
	}
	require.NotNil(t, group)
	assert.Equal(t, []string{"pid-a", "pid-b"}, pids(group.Records()))
}

func TestDispatcher_EmptySubmitIsNoOp(t *testing.T) {
	d, q, _, _, _ := harness(t)

	d.Submit(context.Background(), nil, "dirA")

	assert.Zero(t, q.enqueueCount())
}

func TestDispatcher_InterleavedDirectoriesFlushIndependently(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	a1 := item.NewBinary("a1", []byte{1})
	a2 := item.NewBinary("a2", []byte{2})
	b1 := item.NewBinary("b1", []byte{3})
	d.Submit(ctx, []*item.Binary{a1, a2}, "dirA")
	d.Submit(ctx, []*item.Binary{b1}, "dirB")

	q.resolve(t, a1, "pid-a1")
	q.resolve(t, b1, "pid-b1") // dirB completes first
	require.Eventually(t, func() bool { return reg.Len() == 1 }, 2*time.Second, 5*time.Millisecond)

	q.resolve(t, a2, "pid-a2")
	q.done(t)
	waitCycle(t, completed)

	sections := reg.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "dirB", sections[0].Directory())
	assert.Equal(t, "dirA", sections[1].Directory())

	// both submits fed one consumption loop
	assert.Equal(t, 2, q.enqueueCount())
}

func TestDispatcher_EagerlyFlushedLabelsSkipTerminalFlush(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	a := item.NewBinary("a", []byte{1})
	b := item.NewBinary("b", []byte{2})
	d.Submit(ctx, []*item.Binary{a}, "dirA")
	d.Submit(ctx, []*item.Binary{b}, "dirB")

	// both labels complete, and flush, before the done marker
	q.resolve(t, a, "pid-a")
	q.resolve(t, b, "pid-b")
	require.Eventually(t, func() bool { return reg.Len() == 2 }, 2*time.Second, 5*time.Millisecond)

	q.done(t)
	waitCycle(t, completed)

	// the terminal pass must not revisit either label
	sections := reg.Sections()
	require.Len(t, sections, 2)
	assert.Equal(t, "dirA", sections[0].Directory())
	assert.Equal(t, "dirB", sections[1].Directory())
}

func TestDispatcher_AllItemsFailedLeavesNoSectionAndNotifiesOnce(t *testing.T) {
	d, q, reg, n, completed := harness(t)
	ctx := context.Background()

	a := item.NewBinary("a", []byte{1})
	b := item.NewBinary("b", []byte{2})
	d.Submit(ctx, []*item.Binary{a, b}, "doomed")

	q.fail(t, errors.New("boom"))
	q.fail(t, errors.New("boom"))
	q.done(t)
	waitCycle(t, completed)

	// a label whose items never resolved must not flush
	assert.Zero(t, reg.Len())

	messages := n.all()
	require.Len(t, messages, 1)
	assert.Contains(t, messages[0], "2 item(s)")
}

func TestDispatcher_RemainingBufferFlushesOnDone(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	// one item of the pair fails, so the label still has an outstanding
	// classification when done arrives; the partial buffer flushes then
	a := item.NewBinary("a", []byte{1})
	b := item.NewBinary("b", []byte{2})
	d.Submit(ctx, []*item.Binary{a, b}, "partial")

	q.resolve(t, a, "pid-a")
	q.fail(t, errors.New("boom"))
	q.done(t)
	waitCycle(t, completed)

	sections := reg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"pid-a"}, pids(sections[0].Records()))
	assert.Equal(t, "partial", sections[0].Directory())
}

func TestDispatcher_NewCycleStartsWithCleanSlate(t *testing.T) {
	d, q, reg, _, completed := harness(t)
	ctx := context.Background()

	first := item.NewBinary("first", []byte{1})
	d.Submit(ctx, []*item.Binary{first}, "")
	q.resolve(t, first, "pid-first")
	q.done(t)
	waitCycle(t, completed)
	require.Equal(t, 1, reg.Len())

	second := item.NewBinary("second", []byte{2})
	d.Submit(ctx, []*item.Binary{second}, "")
	q.resolve(t, second, "pid-second")
	q.done(t)
	waitCycle(t, completed)

	sections := reg.Sections()
	require.Len(t, sections, 1)
	assert.Equal(t, []string{"pid-second"}, pids(sections[0].Records()))
}
