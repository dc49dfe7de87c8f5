// Package queue implements the bounded FIFO used at the one
// non-cooperative concurrency boundary described in spec.md 5: platform
// back-ends that must queue packets from an OS callback (the
// Windows/VAXELN peculiarity the spec calls out) hand frames to the
// event-loop thread across this queue instead of calling into the
// router state directly. Adapted from the teacher's unbounded, mutex-only
// Queue; this version is capacity-bounded with a semaphore and draws its
// buffers from a pool so the OS callback never allocates.
package queue

import "sync"

// Queue is a bounded FIFO of pre-allocated buffers. Producers (an OS
// callback running on another thread) call Push; the event-loop thread
// calls Pop to drain it and Release to return a buffer to the free pool
// once its handler has finished with it.
type Queue struct {
	mu     sync.Mutex
	items  [][]byte
	cap    int
	sem    chan struct{} // bounds outstanding items
	notify chan struct{}
	pool   sync.Pool
}

// New creates a bounded queue of the given capacity, with a pool of
// pre-allocated buffers of bufSize bytes.
func New(capacity, bufSize int) *Queue {
	q := &Queue{
		items:  make([][]byte, 0, capacity),
		cap:    capacity,
		sem:    make(chan struct{}, capacity),
		notify: make(chan struct{}, 1),
	}
	q.pool.New = func() interface{} {
		return make([]byte, bufSize)
	}
	return q
}

// Notify returns a channel that carries a value after a successful Push
// (at most one signal is held until it is received), so an event loop
// built around select can wait on it instead of polling Pop.
func (q *Queue) Notify() <-chan struct{} {
	return q.notify
}

// Get returns a buffer from the free pool for a producer to fill.
func (q *Queue) Get() []byte {
	return q.pool.Get().([]byte)
}

// Release returns a buffer to the free pool once the event-loop thread
// is done with it.
func (q *Queue) Release(buf []byte) {
	q.pool.Put(buf) //nolint:staticcheck // capacity reused as-is
}

// Push enqueues a filled buffer. It reports false if the queue is full,
// in which case the caller (a datalink's OS callback) must drop the
// frame rather than block the callback thread.
func (q *Queue) Push(item []byte) bool {
	select {
	case q.sem <- struct{}{}:
	default:
		return false
	}
	q.mu.Lock()
	q.items = append(q.items, item)
	q.mu.Unlock()
	select {
	case q.notify <- struct{}{}:
	default:
	}
	return true
}

// Pop removes and returns the oldest item, or nil if the queue is empty.
func (q *Queue) Pop() []byte {
	q.mu.Lock()
	defer q.mu.Unlock()
	if len(q.items) == 0 {
		return nil
	}
	item := q.items[0]
	q.items = q.items[1:]
	select {
	case <-q.sem:
	default:
	}
	return item
}

// Length returns the number of items currently queued.
func (q *Queue) Length() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.items)
}
