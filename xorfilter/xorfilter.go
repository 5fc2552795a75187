// Package xorfilter implements the xor filter approximate-membership
// structure, grounded on the original library's xorfilter.c: a 3-hash
// peeling construction over a fixed-size fingerprint array, with 8-bit
// and 16-bit fingerprint variants.
//
// A filter is immutable once built: there is no incremental Add, matching
// the original (construction requires the full key set up front so the
// peeling order can be computed).
package xorfilter

import (
	"errors"

	"github.com/shaia/corelib/prng"
)

// ErrTooManyFailures is returned when construction could not find a
// peelable hash assignment within the retry budget, matching the
// original's hard-coded retry cap.
var ErrTooManyFailures = errors.New("xorfilter: exceeded construction retry limit")

// maxRetries mirrors xorfilter.c's reseed cap.
const maxRetries = 1_000_000

func mix(h uint64) uint64 {
	h ^= h >> 23
	h *= 0x2127599bf4325c37
	h ^= h >> 47
	return h
}

// hashKey applies one round of fasthash64 to compress a 64-bit caller
// hash together with the filter's seed, matching xorfilter.c's hashkey().
func hashKey(v, seed uint64) uint64 {
	const m = 0x880355f21e6d1965
	h := seed ^ (8 * m)
	v = mix(v)
	h ^= v
	h *= m
	return mix(h)
}

func calcSize(n int) uint32 {
	capacity := 32 + (123*uint64(n)+99)/100 // ceil(1.23*n)
	return uint32(capacity / 3)
}

type triple struct {
	h0, h1, h2 uint32
}

func hash3(hk uint64, size uint32) triple {
	h0 := uint32(hk % uint64(size))
	h1 := uint32(mix(hk)%uint64(size)) + size
	h2 := uint32(mix(mix(hk))%uint64(size)) + 2*size
	return triple{h0, h1, h2}
}

// peel runs the construction's degree-1 peeling algorithm for one seed
// attempt. It returns the peel order (slot-to-key assignments, in pop
// order) and true if every key could be peeled.
func peel(hks []uint64, size uint32) ([]peelStep, bool) {
	n := len(hks)
	total := 3 * size

	mask := make([]uint64, total) // XOR of key indices assigned to each slot
	count := make([]int32, total)

	for i, hk := range hks {
		t := hash3(hk, size)
		for _, h := range [3]uint32{t.h0, t.h1, t.h2} {
			mask[h] ^= uint64(i)
			count[h]++
		}
	}

	queue := make([]uint32, 0, total)
	for h := uint32(0); h < total; h++ {
		if count[h] == 1 {
			queue = append(queue, h)
		}
	}

	order := make([]peelStep, 0, n)
	for len(queue) > 0 {
		h := queue[len(queue)-1]
		queue = queue[:len(queue)-1]
		if count[h] != 1 {
			continue // slot's degree changed since it was enqueued
		}
		idx := uint32(mask[h])
		hk := hks[idx]
		t := hash3(hk, size)
		order = append(order, peelStep{slot: h, keyIdx: idx, hash: hk, triple: t})

		for _, other := range [3]uint32{t.h0, t.h1, t.h2} {
			if other == h {
				continue
			}
			mask[other] ^= uint64(idx)
			count[other]--
			if count[other] == 1 {
				queue = append(queue, other)
			}
		}
		count[h] = 0
	}

	return order, len(order) == n
}

type peelStep struct {
	slot   uint32
	keyIdx uint32
	hash   uint64
	triple triple
}

func fingerprintBits(hk uint64) uint64 { return hk ^ (hk >> 32) }

// build runs the shared peeling construction and calls assign once per
// peeled key (in LIFO pop order, i.e. reverse of peel discovery order) so
// the caller can write its fingerprint array.
func build(hashes []uint64, alloc func(size uint32), assign func(size uint32, step peelStep, other1, other2 uint32)) (seed uint64, size uint32, err error) {
	size = calcSize(len(hashes))
	if size == 0 {
		size = 1
	}
	alloc(size)

	var gen prng.Xoroshiro128Plus
	gen.Init(0) // 0 requests a host-entropy seed, per prng's Init contract
	seed = gen.U64()
	hks := make([]uint64, len(hashes))

	for attempt := 0; attempt < maxRetries; attempt++ {
		for i, h := range hashes {
			hks[i] = hashKey(h, seed)
		}
		order, ok := peel(hks, size)
		if ok {
			for i := len(order) - 1; i >= 0; i-- {
				step := order[i]
				var others [2]uint32
				j := 0
				for _, s := range [3]uint32{step.triple.h0, step.triple.h1, step.triple.h2} {
					if s != step.slot {
						others[j] = s
						j++
					}
				}
				assign(size, step, others[0], others[1])
			}
			return seed, size, nil
		}
		seed = gen.U64()
	}
	return 0, 0, ErrTooManyFailures
}

// Filter8 is a xor filter with an 8-bit fingerprint per slot.
type Filter8 struct {
	fp   []uint8
	seed uint64
	size uint32
	n    int
}

// New8 constructs an 8-bit xor filter over the given pre-computed 64-bit
// key hashes. Hashing the original keys is the caller's responsibility.
func New8(hashes []uint64) (*Filter8, error) {
	f := &Filter8{n: len(hashes)}
	seed, size, err := build(hashes,
		func(size uint32) { f.fp = make([]uint8, 3*size) },
		func(size uint32, step peelStep, o1, o2 uint32) {
			fp := uint8(fingerprintBits(step.hash))
			f.fp[step.slot] = fp ^ f.fp[o1] ^ f.fp[o2]
		})
	if err != nil {
		return nil, err
	}
	f.seed, f.size = seed, size
	return f, nil
}

// Contains reports whether hash is (probably) a member. False positives
// are possible at a rate of roughly 1/256; false negatives never occur
// for hashes that were present at construction time.
func (f *Filter8) Contains(hash uint64) bool {
	hk := hashKey(hash, f.seed)
	t := hash3(hk, f.size)
	fp := uint8(fingerprintBits(hk))
	return fp == f.fp[t.h0]^f.fp[t.h1]^f.fp[t.h2]
}

// Len returns the number of keys the filter was built from.
func (f *Filter8) Len() int { return f.n }

// SizeBytes returns the size of the backing fingerprint array in bytes.
func (f *Filter8) SizeBytes() int { return len(f.fp) }

// Filter16 is a xor filter with a 16-bit fingerprint per slot, trading
// roughly double the memory for a false-positive rate near 1/65536.
type Filter16 struct {
	fp   []uint16
	seed uint64
	size uint32
	n    int
}

// New16 constructs a 16-bit xor filter over the given pre-computed
// 64-bit key hashes.
func New16(hashes []uint64) (*Filter16, error) {
	f := &Filter16{n: len(hashes)}
	seed, size, err := build(hashes,
		func(size uint32) { f.fp = make([]uint16, 3*size) },
		func(size uint32, step peelStep, o1, o2 uint32) {
			fp := uint16(fingerprintBits(step.hash))
			f.fp[step.slot] = fp ^ f.fp[o1] ^ f.fp[o2]
		})
	if err != nil {
		return nil, err
	}
	f.seed, f.size = seed, size
	return f, nil
}

func (f *Filter16) Contains(hash uint64) bool {
	hk := hashKey(hash, f.seed)
	t := hash3(hk, f.size)
	fp := uint16(fingerprintBits(hk))
	return fp == f.fp[t.h0]^f.fp[t.h1]^f.fp[t.h2]
}

func (f *Filter16) Len() int { return f.n }

func (f *Filter16) SizeBytes() int { return len(f.fp) * 2 }
