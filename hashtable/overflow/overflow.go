// Package overflow implements an open-addressed hash table with a fixed
// number of primary entries per bucket plus a shared linearly-probed
// overflow array, grounded on the original library's oht.c: each primary
// bucket holds 8 entries, the overflow array is sized n/16 (minimum 128),
// and a stored hash of zero is the empty/tombstone sentinel.
//
// Both the primary and overflow zones are flat cell arrays, not
// intrusively-linked chains, so this table has no use for the list
// package's embeddable links: a collision here is resolved by probing to
// the next array slot, not by following a pointer. It does allocate those
// arrays through memmgr.Manager, so it consumes the allocator half of the
// "H and I depend on C and D" relationship without the linked-list half.
//
// Table is not safe for concurrent use.
package overflow

import (
	"unsafe"

	"github.com/shaia/corelib/internal/obsmetrics"
	"github.com/shaia/corelib/memmgr"
	"github.com/shaia/corelib/prng"
)

// bucketWidth mirrors oht.c's fixed 8 entries per primary bucket.
const bucketWidth = 8

// overflowDivisor and minOverflow mirror oht.c: the overflow array is
// sized n/16, minimum 128.
const (
	overflowDivisor = 16
	minOverflow     = 128
)

// fillPercent mirrors oht.c's FILLPCT resize trigger.
const fillPercent = 75

type cell[V any] struct {
	hash  uint64 // 0 means empty; caller hashes must avoid 0 or remap it
	value V
}

// Stats reports growth and shape statistics.
type Stats struct {
	Splits     int
	Overflowed int
}

// Table is an open-addressed hash table keyed by a pre-computed 64-bit
// hash. A stored hash of exactly zero denotes an empty slot; hashes equal
// to zero from the caller are remapped to an internal sentinel so they
// remain distinguishable from "empty".
type Table[V any] struct {
	primary  []cell[V]
	overflow []cell[V]
	n        uint64 // number of primary buckets, power of two
	mm       memmgr.Manager
	seed     uint64
	nodes    int
	fill     int
	stats    Stats
	rng      prng.Xoroshiro128Plus
	metrics  obsmetrics.Sink
}

// Option configures optional collaborators at construction time.
type Option[V any] func(*Table[V])

// WithMetrics reports growth events (bucket splits) to sink instead of
// discarding them.
func WithMetrics[V any](sink obsmetrics.Sink) Option[V] {
	return func(t *Table[V]) { t.metrics = sink }
}

// WithManager backs the primary and overflow array allocation with mm
// (component C) instead of the default memmgr.Heap. As with bagchain, a V
// whose only live reference sits in one of these cells is not traced by
// the garbage collector regardless of which Manager is used, since Alloc
// always hands back untyped []byte reinterpreted via unsafe.Slice.
func WithManager[V any](mm memmgr.Manager) Option[V] {
	return func(t *Table[V]) { t.mm = mm }
}

// allocCells carves an n-element []cell[V] out of mm. It panics on
// allocator exhaustion, matching bagchain's behaviour for the same
// condition: neither table has a degraded fallback path once its backing
// allocator refuses a request.
func allocCells[V any](mm memmgr.Manager, n uint64) []cell[V] {
	if n == 0 {
		return nil
	}
	var zero cell[V]
	size := int(unsafe.Sizeof(zero)) * int(n)
	buf := mm.Alloc(size)
	if buf == nil {
		panic("overflow: backing allocator exhausted")
	}
	cells := unsafe.Slice((*cell[V])(unsafe.Pointer(&buf[0])), n)
	for i := range cells {
		cells[i] = cell[V]{}
	}
	return cells
}

func nextPow2(n uint64) uint64 {
	if n < 1 {
		return 1
	}
	p := uint64(1)
	for p < n {
		p <<= 1
	}
	return p
}

const zeroReplacement = ^uint64(0)

func remap(h uint64) uint64 {
	if h == 0 {
		return zeroReplacement
	}
	return h
}

// New creates a table sized for at least initialBuckets primary buckets
// (rounded to a power of two; non-positive selects a small default).
func New[V any](initialBuckets int, opts ...Option[V]) *Table[V] {
	if initialBuckets <= 0 {
		initialBuckets = 16
	}
	n := nextPow2(uint64(initialBuckets))
	t := &Table[V]{
		n:       n,
		mm:      memmgr.Heap{},
		metrics: obsmetrics.Noop(),
	}
	for _, opt := range opts {
		opt(t)
	}
	t.rng.Init(0)
	t.seed = t.rng.U64()
	t.primary = allocCells[V](t.mm, n*bucketWidth)
	t.overflow = allocCells[V](t.mm, overflowSize(n))
	return t
}

func freeCells[V any](mm memmgr.Manager, cells []cell[V]) {
	if len(cells) == 0 {
		return
	}
	var zero cell[V]
	size := unsafe.Sizeof(zero) * uintptr(len(cells))
	buf := unsafe.Slice((*byte)(unsafe.Pointer(&cells[0])), size)
	mm.Free(buf)
}

func overflowSize(n uint64) uint64 {
	sz := n / overflowDivisor
	if sz < minOverflow {
		sz = minOverflow
	}
	return sz
}

func (t *Table[V]) bucketIndex(h uint64) uint64 {
	return (h ^ t.seed) & (t.n - 1)
}

// Probe inserts {hash, value}, or overwrites the value if hash is already
// present. It returns true if hash was already present.
func (t *Table[V]) Probe(hash uint64, value V) bool {
	h := remap(hash)
	idx := t.bucketIndex(h)
	return t.probeImpl(h, idx*bucketWidth, value)
}

func (t *Table[V]) probeImpl(h uint64, base uint64, value V) bool {
	firstFree := -1
	for i := 0; i < bucketWidth; i++ {
		c := &t.primary[base+uint64(i)]
		if c.hash == h {
			c.value = value
			return true
		}
		if c.hash == 0 && firstFree < 0 {
			firstFree = i
		}
	}
	if firstFree >= 0 {
		c := &t.primary[base+uint64(firstFree)]
		c.hash = h
		c.value = value
		t.afterInsert()
		return false
	}

	// Primary bucket full: linear-probe the overflow array.
	start := h % uint64(len(t.overflow))
	for i := uint64(0); i < uint64(len(t.overflow)); i++ {
		pos := (start + i) % uint64(len(t.overflow))
		c := &t.overflow[pos]
		if c.hash == h {
			c.value = value
			return true
		}
		if c.hash == 0 {
			c.hash = h
			c.value = value
			t.stats.Overflowed++
			t.afterInsert()
			return false
		}
	}
	panic("overflow: table full, caller must grow before saturating")
}

func (t *Table[V]) afterInsert() {
	t.nodes++
	t.fill++
	if 100*t.fill/int(t.n) > fillPercent {
		t.grow()
	}
}

// Find returns the value stored for hash, if present.
func (t *Table[V]) Find(hash uint64) (V, bool) {
	h := remap(hash)
	idx := t.bucketIndex(h)
	base := idx * bucketWidth
	for i := uint64(0); i < bucketWidth; i++ {
		c := &t.primary[base+i]
		if c.hash == h {
			return c.value, true
		}
	}
	start := h % uint64(len(t.overflow))
	for i := uint64(0); i < uint64(len(t.overflow)); i++ {
		pos := (start + i) % uint64(len(t.overflow))
		c := &t.overflow[pos]
		if c.hash == h {
			return c.value, true
		}
	}
	var zero V
	return zero, false
}

// Remove deletes the entry for hash, zeroing its hash slot (the original
// oht.c does not compact the overflow chain on deletion, so lookups of a
// different, later-inserted key may still need to scan past a tombstone
// that shares its probe start).
func (t *Table[V]) Remove(hash uint64) bool {
	h := remap(hash)
	idx := t.bucketIndex(h)
	base := idx * bucketWidth
	for i := uint64(0); i < bucketWidth; i++ {
		c := &t.primary[base+i]
		if c.hash == h {
			var zero V
			c.hash = 0
			c.value = zero
			t.nodes--
			t.fill--
			return true
		}
	}
	start := h % uint64(len(t.overflow))
	for i := uint64(0); i < uint64(len(t.overflow)); i++ {
		pos := (start + i) % uint64(len(t.overflow))
		c := &t.overflow[pos]
		if c.hash == h {
			var zero V
			c.hash = 0
			c.value = zero
			t.nodes--
			t.fill--
			return true
		}
	}
	return false
}

// Len returns the number of live entries.
func (t *Table[V]) Len() int { return t.nodes }

// Buckets returns the current number of primary buckets.
func (t *Table[V]) Buckets() int { return int(t.n) }

// Stats returns a snapshot of growth and shape statistics.
func (t *Table[V]) Stats() Stats { return t.stats }

func (t *Table[V]) grow() {
	oldPrimary := t.primary
	oldOverflow := t.overflow

	t.n *= 2
	t.seed = t.rng.U64()
	t.primary = allocCells[V](t.mm, t.n*bucketWidth)
	t.overflow = allocCells[V](t.mm, overflowSize(t.n))
	t.nodes = 0
	t.fill = 0
	t.stats.Overflowed = 0

	for _, c := range oldPrimary {
		if c.hash != 0 {
			t.reinsert(c.hash, c.value)
		}
	}
	for _, c := range oldOverflow {
		if c.hash != 0 {
			t.reinsert(c.hash, c.value)
		}
	}
	freeCells(t.mm, oldPrimary)
	freeCells(t.mm, oldOverflow)
	t.stats.Splits++
	t.metrics.IncCounter("overflow_splits")
	t.metrics.ObserveGauge("overflow_buckets", float64(t.n))
}

func (t *Table[V]) reinsert(h uint64, value V) {
	idx := t.bucketIndex(h)
	t.probeImpl(h, idx*bucketWidth, value)
}
