// Package arena implements a lifetime-based bump allocator: individual
// allocations are never freed, only the whole arena is, in one O(1) step.
// It is grounded on the original library's arena.c — same default chunk
// size, same "allocate 128x the request when it overflows the default"
// growth rule, same alignment-to-max-scalar-alignment behaviour.
//
// Arena is not safe for concurrent use; callers must serialise access.
package arena

import (
	"unsafe"

	"github.com/shaia/corelib/internal/obsmetrics"
)

// defaultChunkSize matches the original library's DEFAULT_CHUNK_SIZE
// (128 * 1024 bytes).
const defaultChunkSize = 128 * 1024

// sysAlignment is the maximum alignment required by any scalar type on the
// target platform, mirroring the C union-based alignment trick in arena.c.
const sysAlignment = unsafe.Alignof(struct {
	f float64
	i int64
	p unsafe.Pointer
}{})

type chunk struct {
	buf  []byte
	free int // offset of the next free byte in buf
	next *chunk
}

func (c *chunk) avail() int { return len(c.buf) - c.free }

// Arena is a chain of chunks; allocations are served by bumping a free
// pointer within the head chunk, falling back to a new chunk when none has
// enough room.
type Arena struct {
	head       *chunk
	chunkSize  int
	allocCount int
	chunkCount int
	metrics    obsmetrics.Sink
}

// Option configures optional collaborators at construction time.
type Option func(*Arena)

// WithMetrics reports chunk-allocation events to sink instead of
// discarding them.
func WithMetrics(sink obsmetrics.Sink) Option {
	return func(a *Arena) { a.metrics = sink }
}

// New creates an arena whose chunks default to chunkSize bytes. A
// chunkSize of zero selects the library default of 128 KiB, matching
// arena_new's treatment of chunk_size <= 0.
func New(chunkSize int, opts ...Option) *Arena {
	if chunkSize <= 0 {
		chunkSize = defaultChunkSize
	}
	a := &Arena{chunkSize: chunkSize, metrics: obsmetrics.Noop()}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

// Alloc returns a pointer to n bytes of storage, aligned to the platform's
// maximum scalar alignment. It returns nil only if n is negative; the
// backing Go allocator is assumed not to fail (unlike the C original, which
// can return nil from malloc).
//
// A zero-byte request still returns a unique slice header backed by arena
// storage rather than a bare nil, so that callers may safely take its
// address; it is never safe to write through it.
func (a *Arena) Alloc(n int) []byte {
	if n < 0 {
		return nil
	}
	need := alignUp(n, int(sysAlignment))
	if need == 0 {
		need = int(sysAlignment)
	}

	for c := a.head; c != nil; c = c.next {
		if c.avail() >= need {
			return a.carve(c, n, need)
		}
	}

	size := a.chunkSize
	if need > size {
		size = need * 128
	}
	c := &chunk{buf: make([]byte, size)}
	c.next = a.head
	a.head = c
	a.chunkCount++
	a.metrics.IncCounter("arena_chunks_allocated")
	a.metrics.ObserveGauge("arena_chunk_bytes", float64(size))

	return a.carve(c, n, need)
}

func (a *Arena) carve(c *chunk, n, need int) []byte {
	start := c.free
	c.free += need
	a.allocCount++
	return c.buf[start : start+n : start+need]
}

// Strdup copies s (plus a trailing NUL byte, for parity with the original
// arena_strdup) into the arena and returns the bytes including the
// terminator. Go callers typically want the string without the
// terminator; use Strdup(s)[:len(s)] or the returned string via
// string(Strdup(s)[:len(s)]).
func (a *Arena) Strdup(s string) []byte {
	buf := a.Alloc(len(s) + 1)
	copy(buf, s)
	buf[len(s)] = 0
	return buf
}

// ChunkCount returns the number of OS-level chunks currently backing the
// arena; useful for tests asserting growth behaviour.
func (a *Arena) ChunkCount() int { return a.chunkCount }

// AllocCount returns the number of successful Alloc calls so far.
func (a *Arena) AllocCount() int { return a.allocCount }

// Destroy releases every chunk. Any slice previously returned by Alloc must
// not be used after Destroy; unlike the C original there is no explicit
// free() call, but dropping the chunk list lets the Go garbage collector
// reclaim the backing arrays once nothing else references them.
func (a *Arena) Destroy() {
	a.head = nil
	a.chunkCount = 0
	a.allocCount = 0
}

// Manager adapts the arena to the memmgr.Manager interface so that hash
// tables and pools may be parameterised by it. Free is a no-op: arena
// allocations are only ever reclaimed in bulk, via Destroy.
type Manager struct{ A *Arena }

// Alloc delegates to the wrapped arena.
func (m Manager) Alloc(n int) []byte { return m.A.Alloc(n) }

// Free is a no-op; arena memory is reclaimed only by Destroy.
func (m Manager) Free([]byte) {}
