// Package bagchain implements an open-chained hash table keyed by a
// pre-computed 64-bit hash, where each bucket's collision chain is made of
// fixed-width "bags" of entries rather than one node per link — grounded
// on the original library's fastht.h (FASTHT_BAGSZ == 4, FILLPCT == 75).
//
// Table is not safe for concurrent use; callers must serialise access
// (spec.md explicitly excludes concurrent resize of hash tables from
// scope).
package bagchain

import (
	"unsafe"

	"github.com/shaia/corelib/internal/obsmetrics"
	"github.com/shaia/corelib/list"
	"github.com/shaia/corelib/memmgr"
	"github.com/shaia/corelib/prng"
)

// bagSize mirrors the original's FASTHT_BAGSZ.
const bagSize = 4

// fillPercent mirrors the original's FILLPCT: doubling triggers once more
// than this percentage of buckets hold at least one item.
const fillPercent = 75

type entry[V any] struct {
	hash     uint64
	occupied bool
	value    V
}

// bag is a bucket's fixed-width collision-chain node. It embeds a
// list.Link so the chain is a genuine intrusive singly-linked list
// (component D) rather than a bare next pointer field.
//
// Bags are carved out of the table's memmgr.Manager (component C) via an
// unsafe cast from a raw byte buffer, the same pattern arena and mempool
// use for their own free-list links. Because Manager hands out untyped
// []byte even when that Manager is memmgr.Heap, the Go garbage collector
// does not trace pointers living inside a bag's items: a V whose only
// live reference is a bag slot (e.g. V is itself a pointer type, or a
// struct containing one) is not guaranteed to survive collection once
// nothing else outside the table references it, no matter which Manager
// backs the table. Callers storing pointer-shaped V must otherwise keep
// those values reachable (e.g. in a caller-owned slice) for as long as
// they remain probed into the table.
type bag[V any] struct {
	items [bagSize]entry[V]
	link  list.Link[bag[V]]
}

// ListLink implements the list package's embeddable-link accessor so
// bag[V] can be the node type of a list.Head[bag[V]] chain.
func (b *bag[V]) ListLink() *list.Link[bag[V]] { return &b.link }

// Stats reports growth and shape statistics tracked by the table.
type Stats struct {
	Splits            int
	MaxBagsPerBucket  int
	MaxItemsPerBucket int
}

// Table is a bag-chained hash table mapping pre-hashed 64-bit keys to
// values of type V.
type Table[V any] struct {
	buckets []list.Head[bag[V]]
	mm      memmgr.Manager
	seed    uint64
	size    uint64 // power of two
	fill    int    // buckets with >=1 item
	nodes   int
	stats   Stats
	rng     prng.Xoroshiro128Plus
	metrics obsmetrics.Sink
}

// Option configures optional collaborators at construction time.
type Option[V any] func(*Table[V])

// WithMetrics reports growth events (bucket splits) to sink instead of
// discarding them.
func WithMetrics[V any](sink obsmetrics.Sink) Option[V] {
	return func(t *Table[V]) { t.metrics = sink }
}

// WithManager backs bag allocation with mm (component C) instead of the
// default memmgr.Heap, e.g. an arena sized for the table's expected
// lifetime. See bag[V]'s doc comment for the GC-tracing caveat this
// introduces for pointer-shaped V.
func WithManager[V any](mm memmgr.Manager) Option[V] {
	return func(t *Table[V]) { t.mm = mm }
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

func mix(h, seed uint64) uint64 {
	h ^= seed
	h ^= h >> 33
	h *= 0xff51afd7ed558ccd
	h ^= h >> 33
	h *= 0xc4ceb9fe1a85ec53
	h ^= h >> 33
	return h
}

// New creates a table with at least initialSize buckets (rounded up to a
// power of two; a zero or negative value selects a small default).
func New[V any](initialSize int, opts ...Option[V]) *Table[V] {
	if initialSize <= 0 {
		initialSize = 16
	}
	size := nextPow2(uint64(initialSize))
	t := &Table[V]{
		buckets: make([]list.Head[bag[V]], size),
		mm:      memmgr.Heap{},
		size:    size,
		metrics: obsmetrics.Noop(),
	}
	t.rng.Init(0)
	t.seed = t.rng.U64()
	for _, opt := range opts {
		opt(t)
	}
	return t
}

func (t *Table[V]) bucketIndex(h uint64) uint64 {
	return mix(h, t.seed) & (t.size - 1)
}

// newBag carves a fresh bag out of the table's Manager and links it to the
// front of the chain at head.
func (t *Table[V]) newBag(head *list.Head[bag[V]]) *bag[V] {
	var zero bag[V]
	size := int(unsafe.Sizeof(zero))
	buf := t.mm.Alloc(size)
	if buf == nil {
		// memmgr.Heap never fails; only a caller-supplied clamped
		// allocator can reach here, and the table has no fallback path
		// left (matching the original's "alloc failure propagates").
		panic("bagchain: backing allocator exhausted")
	}
	nb := (*bag[V])(unsafe.Pointer(&buf[0]))
	*nb = bag[V]{}
	list.InsertHead(head, nb)
	return nb
}

func (t *Table[V]) freeBag(b *bag[V]) {
	buf := unsafe.Slice((*byte)(unsafe.Pointer(b)), unsafe.Sizeof(*b))
	t.mm.Free(buf)
}

// Probe inserts {hash, value} if hash is not already present, otherwise
// overwrites the value of the existing entry. It returns true if the key
// was already present (the stored value has been updated in that case),
// false if this was a fresh insertion.
func (t *Table[V]) Probe(hash uint64, value V) bool {
	idx := t.bucketIndex(hash)
	head := &t.buckets[idx]
	wasEmpty := t.countBucketItems(idx) == 0

	var firstFree *entry[V]
	for cur := head.First(); cur != nil; cur = list.Next(cur) {
		for i := range cur.items {
			slot := &cur.items[i]
			if slot.occupied && slot.hash == hash {
				slot.value = value
				return true
			}
			if !slot.occupied && firstFree == nil {
				firstFree = slot
			}
		}
	}

	if firstFree == nil {
		nb := t.newBag(head)
		firstFree = &nb.items[0]
	}
	if depth := t.bagDepth(idx); depth > t.stats.MaxBagsPerBucket {
		t.stats.MaxBagsPerBucket = depth
	}

	firstFree.hash = hash
	firstFree.occupied = true
	firstFree.value = value

	t.nodes++
	if wasEmpty {
		t.fill++
	}
	t.updateMaxItems(idx)

	if 100*t.fill/int(t.size) > fillPercent {
		t.grow()
	}
	return false
}

func (t *Table[V]) bagDepth(idx uint64) int {
	n := 0
	for cur := t.buckets[idx].First(); cur != nil; cur = list.Next(cur) {
		n++
	}
	return n
}

func (t *Table[V]) countBucketItems(idx uint64) int {
	n := 0
	for cur := t.buckets[idx].First(); cur != nil; cur = list.Next(cur) {
		for i := range cur.items {
			if cur.items[i].occupied {
				n++
			}
		}
	}
	return n
}

func (t *Table[V]) updateMaxItems(idx uint64) {
	n := t.countBucketItems(idx)
	if n > t.stats.MaxItemsPerBucket {
		t.stats.MaxItemsPerBucket = n
	}
}

// Find returns the value stored for hash, if present.
func (t *Table[V]) Find(hash uint64) (V, bool) {
	idx := t.bucketIndex(hash)
	for cur := t.buckets[idx].First(); cur != nil; cur = list.Next(cur) {
		for i := range cur.items {
			slot := &cur.items[i]
			if slot.occupied && slot.hash == hash {
				return slot.value, true
			}
		}
	}
	var zero V
	return zero, false
}

// Remove deletes the entry for hash, if present. It returns true if an
// entry was removed. The bag holding the slot is not deallocated even if
// it becomes entirely empty, matching the original's behaviour.
func (t *Table[V]) Remove(hash uint64) bool {
	idx := t.bucketIndex(hash)
	for cur := t.buckets[idx].First(); cur != nil; cur = list.Next(cur) {
		for i := range cur.items {
			slot := &cur.items[i]
			if slot.occupied && slot.hash == hash {
				var zero V
				slot.occupied = false
				slot.value = zero
				t.nodes--
				if t.countBucketItems(idx) == 0 {
					t.fill--
				}
				return true
			}
		}
	}
	return false
}

// Len returns the number of live entries.
func (t *Table[V]) Len() int { return t.nodes }

// Size returns the current number of buckets.
func (t *Table[V]) Size() int { return int(t.size) }

// Stats returns a snapshot of growth and shape statistics.
func (t *Table[V]) Stats() Stats { return t.stats }

func (t *Table[V]) grow() {
	old := t.buckets
	newSize := t.size * 2
	t.buckets = make([]list.Head[bag[V]], newSize)
	t.size = newSize
	t.seed = t.rng.U64()
	t.fill = 0
	t.nodes = 0
	prevMaxBags, prevMaxItems := t.stats.MaxBagsPerBucket, t.stats.MaxItemsPerBucket
	t.stats.MaxBagsPerBucket = 0
	t.stats.MaxItemsPerBucket = 0

	for i := range old {
		for cur := old[i].First(); cur != nil; {
			next := list.Next(cur)
			for j := range cur.items {
				if cur.items[j].occupied {
					t.Probe(cur.items[j].hash, cur.items[j].value)
				}
			}
			t.freeBag(cur)
			cur = next
		}
	}
	if t.stats.MaxBagsPerBucket < prevMaxBags {
		t.stats.MaxBagsPerBucket = prevMaxBags
	}
	if t.stats.MaxItemsPerBucket < prevMaxItems {
		t.stats.MaxItemsPerBucket = prevMaxItems
	}
	t.stats.Splits++
	t.metrics.IncCounter("bagchain_splits")
	t.metrics.ObserveGauge("bagchain_buckets", float64(t.size))
}
