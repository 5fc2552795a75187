// Package mempool implements an O(1) fixed-size block allocator: large
// chunks are carved from a backing memmgr.Manager (or caller-supplied
// memory) and handed out one block at a time, with freed blocks kept on a
// most-recently-used free list so repeated alloc/free cycles never touch
// the backing allocator.
//
// Grounded on the original library's mempool.h/mempool.c: same MRU free
// list, same "MRU list, then hot chunk, then new chunk" allocation order,
// same default allocation granularity (4096 blocks per chunk).
//
// Pool is not safe for concurrent use; callers holding a single shared
// instance across goroutines must serialise access with their own lock, as
// documented by the original header.
package mempool

import (
	"unsafe"

	"github.com/shaia/corelib/internal/obsmetrics"
	"github.com/shaia/corelib/memmgr"
)

// defaultMinUnits is the original library's MEMPOOL_MIN_ALLOC_UNITS.
const defaultMinUnits = 4096

// linkSize is the minimum block size: large enough to hold a free-list
// link (one pointer-sized word), mirroring MIN_OBJ_SIZE = sizeof(mru_node).
const linkSize = int(unsafe.Sizeof(uintptr(0)))

const sysAlignment = int(unsafe.Alignof(struct {
	f float64
	p unsafe.Pointer
}{}))

func alignUp(n, align int) int {
	return (n + align - 1) &^ (align - 1)
}

type freeNode struct {
	next *freeNode
}

// Pool is a fixed-size block allocator.
type Pool struct {
	blockSize  int
	maxBlocks  int // 0 means unclamped
	minUnits   int
	mm         memmgr.Manager
	chunks     [][]byte
	chunkFree  int // offset of next free byte within the tail chunk
	mruHead    *freeNode
	allocated  int // blocks currently held by callers
	fromCaller bool // true when constructed via NewFromMem: no further OS allocation
	metrics    obsmetrics.Sink
}

// Option configures optional collaborators at construction time.
type Option func(*Pool)

// WithMetrics reports exhaustion events (a clamped pool refusing Alloc)
// to sink instead of discarding them.
func WithMetrics(sink obsmetrics.Sink) Option {
	return func(p *Pool) { p.metrics = sink }
}

// New creates a pool of fixed-size blocks backed by mm (memmgr.Heap if nil).
// blockSize is rounded up to the maximum of the free-list link size and
// scalar alignment. If maxBlocks > 0 the pool is clamped to that many
// blocks total and minUnits is clamped to fit; otherwise minUnits defaults
// to 4096 when zero.
func New(mm memmgr.Manager, blockSize, maxBlocks, minUnits int, opts ...Option) *Pool {
	if mm == nil {
		mm = memmgr.Heap{}
	}
	bs := blockSize
	if bs < linkSize {
		bs = linkSize
	}
	bs = alignUp(bs, sysAlignment)

	if minUnits <= 0 {
		minUnits = defaultMinUnits
	}
	if maxBlocks > 0 && minUnits > maxBlocks {
		minUnits = maxBlocks
	}

	p := &Pool{
		blockSize: bs,
		maxBlocks: maxBlocks,
		minUnits:  minUnits,
		mm:        mm,
		metrics:   obsmetrics.Noop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// NewFromMem installs a single chunk over caller-supplied memory; the pool
// never requests anything further from an allocator, and is implicitly
// clamped to however many blocks fit in buf.
func NewFromMem(blockSize int, buf []byte) *Pool {
	bs := blockSize
	if bs < linkSize {
		bs = linkSize
	}
	bs = alignUp(bs, sysAlignment)

	n := len(buf) / bs
	p := &Pool{
		blockSize:  bs,
		maxBlocks:  n,
		fromCaller: true,
		metrics:    obsmetrics.Noop(),
	}
	if n > 0 {
		p.chunks = [][]byte{buf[:n*bs]}
	}
	return p
}

func (p *Pool) totalBlocks() int {
	total := 0
	for _, c := range p.chunks {
		total += len(c) / p.blockSize
	}
	return total
}

// newChunk requests min(minUnits, remaining-budget) additional blocks worth
// of memory from the backing allocator. Returns false if exhausted
// (clamped and already at cap) or the allocator failed.
func (p *Pool) newChunk() bool {
	if p.fromCaller {
		return false
	}
	units := p.minUnits
	if p.maxBlocks > 0 {
		remaining := p.maxBlocks - p.totalBlocks()
		if remaining <= 0 {
			p.metrics.IncCounter("mempool_exhausted")
			return false
		}
		if units > remaining {
			units = remaining
		}
	}
	buf := p.mm.Alloc(units * p.blockSize)
	if buf == nil {
		p.metrics.IncCounter("mempool_alloc_failed")
		return false
	}
	p.chunks = append(p.chunks, buf)
	p.chunkFree = 0
	return true
}

// Alloc returns a pointer to a fresh block, or nil on exhaustion (clamped
// pool with no free block) or backing-allocator failure.
func (p *Pool) Alloc() []byte {
	if p.mruHead != nil {
		n := p.mruHead
		p.mruHead = n.next
		p.allocated++
		return unsafe.Slice((*byte)(unsafe.Pointer(n)), p.blockSize)
	}

	if len(p.chunks) == 0 || p.chunkFree+p.blockSize > len(p.chunks[len(p.chunks)-1]) {
		if !p.newChunk() {
			return nil
		}
	}

	tail := p.chunks[len(p.chunks)-1]
	start := p.chunkFree
	p.chunkFree += p.blockSize
	p.allocated++
	return tail[start : start+p.blockSize : start+p.blockSize]
}

// Free returns blk to the pool's MRU free list. blk must have been
// returned by Alloc and not already freed; double-free is a caller bug
// that will corrupt the free list, exactly as in the original C library.
func (p *Pool) Free(blk []byte) {
	node := (*freeNode)(unsafe.Pointer(&blk[0]))
	node.next = p.mruHead
	p.mruHead = node
	p.allocated--
}

// BlockSize returns the effective (post-rounding) block size.
func (p *Pool) BlockSize() int { return p.blockSize }

// TotalBlocks returns the effective cap on block count, or 0 if unclamped.
func (p *Pool) TotalBlocks() int { return p.maxBlocks }

// Outstanding returns the number of blocks currently held by callers.
func (p *Pool) Outstanding() int { return p.allocated }

// Manager adapts the pool to the memmgr.Manager interface. Alloc ignores
// its size argument beyond validating it fits within BlockSize, matching
// the fixed-size nature of the pool; Free returns the block to the pool.
type Manager struct{ P *Pool }

// Alloc returns a pool block, provided n fits within the pool's block size.
func (m Manager) Alloc(n int) []byte {
	if n > m.P.blockSize {
		return nil
	}
	blk := m.P.Alloc()
	if blk == nil {
		return nil
	}
	return blk[:n]
}

// Free returns buf's backing block to the pool.
func (m Manager) Free(buf []byte) {
	if cap(buf) == 0 {
		return
	}
	m.P.Free(buf[:m.P.blockSize])
}
