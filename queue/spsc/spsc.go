// Package spsc implements a lock-free, single-producer single-consumer
// bounded ring buffer, grounded on the original library's
// spsc_bounded_queue.h: a read index and a write index, each isolated on
// its own cache line, with one slot permanently unused to disambiguate
// full from empty.
//
// Exactly one goroutine may call Enqueue and exactly one (possibly
// different) goroutine may call Dequeue; using either endpoint from more
// than one goroutine concurrently is a misuse this package does not
// detect.
package spsc

import "sync/atomic"

const cacheLinePad = 64

// Queue is a bounded SPSC ring buffer holding elements of type T.
type Queue[T any] struct {
	rd   atomic.Uint32
	_    [cacheLinePad - 4]byte
	wr   atomic.Uint32
	_    [cacheLinePad - 4]byte
	size uint32
	elem []T
}

// New creates a queue that can hold up to size-1 elements at once (one
// slot is always kept empty, matching the original implementation's
// full/empty disambiguation strategy).
func New[T any](size int) *Queue[T] {
	if size < 2 {
		size = 2
	}
	return &Queue[T]{
		size: uint32(size),
		elem: make([]T, size),
	}
}

// Enqueue attempts to push v onto the queue. It returns false if the
// queue is full.
func (q *Queue[T]) Enqueue(v T) bool {
	wr := q.wr.Load()
	nwr := wr + 1
	if nwr == q.size {
		nwr = 0
	}
	if nwr == q.rd.Load() {
		return false
	}
	q.elem[wr] = v
	q.wr.Store(nwr)
	return true
}

// Dequeue attempts to pop the oldest element off the queue. ok is false if
// the queue is empty.
func (q *Queue[T]) Dequeue() (v T, ok bool) {
	rd := q.rd.Load()
	if rd == q.wr.Load() {
		return v, false
	}
	v = q.elem[rd]
	nrd := rd + 1
	if nrd == q.size {
		nrd = 0
	}
	q.rd.Store(nrd)
	return v, true
}

// Peek returns the element at the head of the queue without removing it.
// ok is false if the queue is empty.
func (q *Queue[T]) Peek() (v T, ok bool) {
	rd := q.rd.Load()
	if rd == q.wr.Load() {
		return v, false
	}
	return q.elem[rd], true
}

// Full reports whether the queue is at capacity. This is a best-effort
// snapshot, accurate only in the absence of concurrent mutation.
func (q *Queue[T]) Full() bool {
	wr := q.wr.Load() + 1
	if wr == q.size {
		wr = 0
	}
	return wr == q.rd.Load()
}

// Empty reports whether the queue currently holds no elements. Best
// effort, same caveat as Full.
func (q *Queue[T]) Empty() bool {
	return q.rd.Load() == q.wr.Load()
}

// Size returns a best-effort count of elements currently queued.
func (q *Queue[T]) Size() int {
	rd := q.rd.Load()
	wr := q.wr.Load()
	if rd <= wr {
		return int(wr - rd)
	}
	return int(q.size - rd + wr)
}

// Cap returns the maximum number of elements the queue can hold at once
// (size-1, since one slot is always kept empty).
func (q *Queue[T]) Cap() int { return int(q.size) - 1 }
