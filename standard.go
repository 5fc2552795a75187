package bloomfilter

import (
	"crypto/rand"
	"encoding/binary"
	"math"

	"github.com/willf/bitset"
)

// StandardFilter is a partitioned Kirsch-Mitzenmacher bloom filter keyed
// by pre-computed 64-bit hashes: the bitmap is divided into k disjoint
// partitions of m bits each, and each probe splits h into two 32-bit
// halves h1, h2, deriving position i within partition i as h1 + i*h2
// (mod m) — the standard double-hashing construction that avoids
// computing k independent hashes per operation while keeping each
// partition's bit range independent of the others.
type StandardFilter struct {
	bits *bitset.BitSet
	m    uint64 // bits per partition
	k    uint32 // partition (hash) count
	salt uint64
	n    uint64 // elements inserted so far
}

// NewStandardFilter sizes a filter for expectedElements items at the
// given target false-positive rate, drawing its salt from a secure PRNG.
func NewStandardFilter(expectedElements uint64, falsePositiveRate float64) *StandardFilter {
	m, k := optimalParams(expectedElements, falsePositiveRate)
	return &StandardFilter{
		bits: newBitSet(m, k),
		m:    m,
		k:    k,
		salt: secureSalt(),
	}
}

func newBitSet(m uint64, k uint32) *bitset.BitSet {
	return bitset.New(uint(m) * uint(k))
}

// optimalParams derives k, the partition count, as ceil(-ln(e)/ln2), then
// the per-partition bit count m as ceil(n * -ln(e) / ln2^2 / k), matching
// the partitioned geometry bloom.c builds (msub = m/k there; here m is
// already the per-partition width, so the total bitmap is k*m bits).
func optimalParams(n uint64, e float64) (m uint64, k uint32) {
	ln2 := math.Ln2
	k = uint32(math.Ceil(-math.Log(e) / ln2))
	if k < 1 {
		k = 1
	}
	m = uint64(math.Ceil(-float64(n) * math.Log(e) / (ln2 * ln2) / float64(k)))
	if m < 1 {
		m = 1
	}
	return m, k
}

func secureSalt() uint64 {
	var b [8]byte
	if _, err := rand.Read(b[:]); err != nil {
		// crypto/rand failing is effectively unrecoverable; fall back to
		// a fixed non-zero value rather than a zero salt.
		return 0x9e3779b97f4a7c15
	}
	return binary.LittleEndian.Uint64(b[:])
}

// positions derives one bit index per partition: partition i occupies
// the bitmap range [i*m, (i+1)*m), and the position within it is
// (h1 + i*h2) mod m, per the Kirsch-Mitzenmacher construction.
func (f *StandardFilter) positions(h uint64) []uint64 {
	h1 := uint32(h)
	h2 := uint32(h >> 32)
	h1 ^= uint32(f.salt)
	h2 ^= uint32(f.salt >> 32)

	pos := make([]uint64, f.k)
	combined := uint64(h1)
	for i := uint32(0); i < f.k; i++ {
		pos[i] = uint64(i)*f.m + combined%f.m
		combined += uint64(h2)
	}
	return pos
}

// Probe inserts h into the filter.
func (f *StandardFilter) Probe(h uint64) {
	for _, p := range f.positions(h) {
		f.bits.Set(uint(p))
	}
	f.n++
}

// Find reports whether h may have been inserted. False positives are
// possible; false negatives never occur for hashes previously probed.
func (f *StandardFilter) Find(h uint64) bool {
	for _, p := range f.positions(h) {
		if !f.bits.Test(uint(p)) {
			return false
		}
	}
	return true
}

// FillRatioEstimate returns 1 - exp(-n/m), the expected fraction of bits
// set given n insertions into an m-bit filter under the standard
// independence assumption.
func (f *StandardFilter) FillRatioEstimate() float64 {
	return 1 - math.Exp(-float64(f.n)/float64(f.m))
}

// EstimatedFPP returns the estimated false-positive probability given
// the current fill ratio: fillRatio^k.
func (f *StandardFilter) EstimatedFPP() float64 {
	return math.Pow(f.FillRatioEstimate(), float64(f.k))
}

// M returns the bit count per partition (the bitmap holds M*K bits). K
// returns the hash (partition) count. N returns the
// number of elements probed so far. Salt returns the per-instance salt.
func (f *StandardFilter) M() uint64    { return f.m }
func (f *StandardFilter) K() uint32    { return f.k }
func (f *StandardFilter) N() uint64    { return f.n }
func (f *StandardFilter) Salt() uint64 { return f.salt }

// PopCount returns the number of bits currently set.
func (f *StandardFilter) PopCount() uint64 {
	return uint64(f.bits.Count())
}

// Clear zeroes every bit and resets the insertion count, without
// changing m, k, or salt.
func (f *StandardFilter) Clear() {
	f.bits.ClearAll()
	f.n = 0
}

// Union ORs other's bitmap into f in place. Both filters must share the
// same m, k, and salt (otherwise positions would not be comparable);
// Union panics if they don't, mirroring the teacher's own same-size
// check in CacheOptimizedBloomFilter.
func (f *StandardFilter) Union(other *StandardFilter) {
	f.requireCompatible(other)
	f.bits.InPlaceUnion(other.bits)
	if other.n > f.n {
		f.n = other.n
	}
}

// Intersection ANDs other's bitmap into f in place. Same compatibility
// requirement as Union.
func (f *StandardFilter) Intersection(other *StandardFilter) {
	f.requireCompatible(other)
	f.bits.InPlaceIntersection(other.bits)
}

func (f *StandardFilter) requireCompatible(other *StandardFilter) {
	if f.m != other.m || f.k != other.k || f.salt != other.salt {
		panic("bloomfilter: Union/Intersection require matching m, k, and salt")
	}
}
