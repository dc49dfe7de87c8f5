// Package timer implements the single timer wheel driving the event loop
// (spec.md 5): a min-heap of entries sorted by due time, re-armed on
// firing for periodic timers. Adapted from the teacher's timer package,
// which wrapped time.AfterFunc per-timer — that model runs each callback
// on its own goroutine and cannot give the ordering and
// run-to-completion guarantees spec.md 5 requires, so this version
// collects expired entries for the caller's single-threaded loop to run
// instead of invoking callbacks itself.
package timer

import (
	"container/heap"
	"time"
)

// Entry is one scheduled timer: a name, a due time, an optional repeat
// period, opaque context and the callback to invoke when it fires.
type Entry struct {
	Name     string
	DueAt    time.Time
	Period   time.Duration // 0 for one-shot
	Context  interface{}
	Callback func(e *Entry)

	index int // heap bookkeeping
	seq   int // registration order, for same-tick tie-breaking
	dead  bool
}

type entryHeap []*Entry

func (h entryHeap) Len() int { return len(h) }
func (h entryHeap) Less(i, j int) bool {
	if h[i].DueAt.Equal(h[j].DueAt) {
		return h[i].seq < h[j].seq
	}
	return h[i].DueAt.Before(h[j].DueAt)
}
func (h entryHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index, h[j].index = i, j
}
func (h *entryHeap) Push(x interface{}) {
	e := x.(*Entry)
	e.index = len(*h)
	*h = append(*h, e)
}
func (h *entryHeap) Pop() interface{} {
	old := *h
	n := len(old)
	e := old[n-1]
	old[n-1] = nil
	e.index = -1
	*h = old[:n-1]
	return e
}

// Wheel is the process-wide timer wheel. It is not safe for concurrent
// use; all access happens from the single event-loop thread (spec.md 5).
type Wheel struct {
	h       entryHeap
	nextSeq int
}

// NewWheel creates an empty timer wheel.
func NewWheel() *Wheel {
	return &Wheel{}
}

// Create schedules a new timer. The wheel does not re-arm it on firing;
// a periodic timer's callback calls Rearm to schedule it again at
// dueAt + period.
func (w *Wheel) Create(name string, dueAt time.Time, period time.Duration, context interface{}, callback func(e *Entry)) *Entry {
	e := &Entry{Name: name, DueAt: dueAt, Period: period, Context: context, Callback: callback, seq: w.nextSeq}
	w.nextSeq++
	heap.Push(&w.h, e)
	return e
}

// Stop removes a timer from the wheel. Safe to call on an already-fired
// or already-stopped entry.
func (w *Wheel) Stop(e *Entry) {
	if e.dead || e.index < 0 {
		e.dead = true
		return
	}
	heap.Remove(&w.h, e.index)
	e.dead = true
}

// SecondsUntilNextDue returns how long the event loop may block before
// the next timer is due, or a negative duration if one is already due.
// If the wheel is empty it returns a long duration; callers should also
// be woken by datalink/stop events.
func (w *Wheel) SecondsUntilNextDue(now time.Time) time.Duration {
	if len(w.h) == 0 {
		return time.Hour
	}
	return w.h[0].DueAt.Sub(now)
}

// RunExpired pops and runs every timer due at or before now (without
// re-arming it; see Rearm), in due-time then registration order (spec.md 5: "Timers
// due at the same tick fire in registration order"). The caller's event
// loop is expected to call this once per wakeup before dispatching any
// datalink-readiness handlers, also per spec.md 5.
func (w *Wheel) RunExpired(now time.Time) {
	for len(w.h) > 0 && !w.h[0].DueAt.After(now) {
		e := heap.Pop(&w.h).(*Entry)
		e.dead = true
		if e.Callback != nil {
			e.Callback(e)
		}
	}
}

// Rearm re-schedules a periodic entry for dueAt+period and re-adds it to
// the wheel; callbacks that want to keep repeating call this themselves
// so that StopTimer (Stop) during the callback is always honored.
func (w *Wheel) Rearm(e *Entry) *Entry {
	next := &Entry{
		Name: e.Name, DueAt: e.DueAt.Add(e.Period), Period: e.Period,
		Context: e.Context, Callback: e.Callback, seq: w.nextSeq,
	}
	w.nextSeq++
	heap.Push(&w.h, next)
	return next
}
