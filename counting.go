package bloomfilter

// CountingFilter is a bloom filter backed by byte counters instead of
// bits, so entries can be removed without needing a second structure.
// Counters saturate at 255 and never go negative on Remove. Like
// StandardFilter, the counter array is divided into k partitions of m
// counters each.
type CountingFilter struct {
	counters []byte
	m        uint64 // counters per partition
	k        uint32 // partition (hash) count
	salt     uint64
	n        uint64
}

// NewCountingFilter sizes a filter for expectedElements items at the
// given target false-positive rate.
func NewCountingFilter(expectedElements uint64, falsePositiveRate float64) *CountingFilter {
	m, k := optimalParams(expectedElements, falsePositiveRate)
	return &CountingFilter{
		counters: make([]byte, m*uint64(k)),
		m:        m,
		k:        k,
		salt:     secureSalt(),
	}
}

// positions mirrors StandardFilter.positions: partition i occupies
// counters [i*m, (i+1)*m).
func (f *CountingFilter) positions(h uint64) []uint64 {
	h1 := uint32(h) ^ uint32(f.salt)
	h2 := uint32(h>>32) ^ uint32(f.salt>>32)

	pos := make([]uint64, f.k)
	combined := uint64(h1)
	for i := uint32(0); i < f.k; i++ {
		pos[i] = uint64(i)*f.m + combined%f.m
		combined += uint64(h2)
	}
	return pos
}

// Probe increments each of h's k counters by one (saturating at 255).
func (f *CountingFilter) Probe(h uint64) {
	for _, p := range f.positions(h) {
		if f.counters[p] < 255 {
			f.counters[p]++
		}
	}
	f.n++
}

// Find reports whether all of h's k counters are non-zero.
func (f *CountingFilter) Find(h uint64) bool {
	for _, p := range f.positions(h) {
		if f.counters[p] == 0 {
			return false
		}
	}
	return true
}

// Remove decrements each of h's non-zero counters by one. Removing a
// hash that was never probed (or probed fewer times than other members
// sharing its positions) can produce false negatives for those other
// members — counting filters share this limitation with every counter-
// based structure and it is not detected here.
func (f *CountingFilter) Remove(h uint64) {
	for _, p := range f.positions(h) {
		if f.counters[p] > 0 {
			f.counters[p]--
		}
	}
	if f.n > 0 {
		f.n--
	}
}

func (f *CountingFilter) M() uint64    { return f.m }
func (f *CountingFilter) K() uint32    { return f.k }
func (f *CountingFilter) N() uint64    { return f.n }
func (f *CountingFilter) Salt() uint64 { return f.salt }
