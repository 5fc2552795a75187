// Package mpmc implements a lock-free, multi-producer multi-consumer
// bounded sequence-number queue, grounded on the original library's
// mpmc_bounded_queue.h (itself inspired by rigtorp/MPMCQueue): a ring of
// slots each carrying an atomic "turn" counter, with cache-line-isolated
// head/tail indices.
//
// For a slot at absolute index i, the producer turn is 2*(i/N) and the
// consumer turn is 2*(i/N)+1, where N is the (power-of-two) ring size.
// Non-blocking Enqueue/Dequeue are lock-free but not wait-free; the
// blocking variants claim a ticket via fetch-add and spin on the slot's
// turn, and (as in the original) cannot be cancelled mid-wait — a
// goroutine that blocks forever after claiming a ticket blocks every
// future user of that slot.
package mpmc

import (
	"sync/atomic"

	"github.com/shaia/corelib/internal/obsmetrics"
)

const cacheLinePad = 64

type slot[T any] struct {
	turn atomic.Uint64
	_    [cacheLinePad - 8]byte
	data T
}

// Queue is a bounded MPMC ring buffer holding elements of type T. Size
// must be a power of two.
type Queue[T any] struct {
	head atomic.Uint64
	_    [cacheLinePad - 8]byte
	tail atomic.Uint64
	_    [cacheLinePad - 8]byte
	size    uint64
	mask    uint64
	slot    []slot[T]
	metrics obsmetrics.Sink
}

// Option configures optional collaborators at construction time.
type Option[T any] func(*Queue[T])

// WithMetrics reports full/empty observations on the non-blocking path
// to sink instead of discarding them.
func WithMetrics[T any](sink obsmetrics.Sink) Option[T] {
	return func(q *Queue[T]) { q.metrics = sink }
}

// New creates a queue of the given size, which must be a power of two. It
// panics on a non-power-of-two size, matching the original's assert.
func New[T any](size int, opts ...Option[T]) *Queue[T] {
	if size <= 0 || size&(size-1) != 0 {
		panic("mpmc: size must be a power of two")
	}
	q := &Queue[T]{
		size:    uint64(size),
		mask:    uint64(size - 1),
		slot:    make([]slot[T], size),
		metrics: obsmetrics.Noop(),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// Cap returns the queue's fixed capacity.
func (q *Queue[T]) Cap() int { return int(q.size) }

// Enqueue attempts to push v without blocking. It returns false if the
// queue was observed full.
func (q *Queue[T]) Enqueue(v T) bool {
	hd := q.head.Load()
	for {
		s := &q.slot[hd&q.mask]
		wantTurn := 2 * (hd / q.size)

		if s.turn.Load() == wantTurn {
			if q.head.CompareAndSwap(hd, hd+1) {
				s.data = v
				s.turn.Store(wantTurn + 1)
				return true
			}
			continue
		}
		prev := hd
		hd = q.head.Load()
		if prev == hd {
			q.metrics.IncCounter("mpmc_enqueue_full")
			return false
		}
	}
}

// Dequeue attempts to pop the oldest element without blocking. ok is
// false if the queue was observed empty.
func (q *Queue[T]) Dequeue() (v T, ok bool) {
	tl := q.tail.Load()
	for {
		s := &q.slot[tl&q.mask]
		wantTurn := 2*(tl/q.size) + 1

		if s.turn.Load() == wantTurn {
			if q.tail.CompareAndSwap(tl, tl+1) {
				v = s.data
				s.turn.Store(wantTurn + 1)
				return v, true
			}
			continue
		}
		prev := tl
		tl = q.tail.Load()
		if prev == tl {
			q.metrics.IncCounter("mpmc_dequeue_empty")
			return v, false
		}
	}
}

// EnqueueBlocking claims a ticket and spins until the slot is ready,
// then pushes v. It never returns false; it cannot be cancelled once
// called, and will block forever if the queue never drains.
func (q *Queue[T]) EnqueueBlocking(v T) {
	hd := q.head.Add(1) - 1
	s := &q.slot[hd&q.mask]
	wantTurn := 2 * (hd / q.size)
	for s.turn.Load() != wantTurn {
	}
	s.data = v
	s.turn.Store(wantTurn + 1)
}

// DequeueBlocking claims a ticket and spins until an element is ready,
// then returns it. Same cancellation caveat as EnqueueBlocking.
func (q *Queue[T]) DequeueBlocking() T {
	tl := q.tail.Add(1) - 1
	s := &q.slot[tl&q.mask]
	wantTurn := 2*(tl/q.size) + 1
	for s.turn.Load() != wantTurn {
	}
	v := s.data
	s.turn.Store(wantTurn + 1)
	return v
}

// Len returns a best-effort snapshot of the number of queued elements.
// Accurate only in the absence of concurrent mutation.
func (q *Queue[T]) Len() int {
	hd := q.head.Load()
	tl := q.tail.Load()
	if hd < tl {
		return int(^uint64(0) - tl + hd)
	}
	return int(hd - tl)
}
