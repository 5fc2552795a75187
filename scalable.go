package bloomfilter

// ScalableFilter is a grow-only chain of StandardFilters. When the
// active (most recently appended) filter's fill ratio exceeds 0.5 before
// an insert, a new filter is appended sized scaleFactor times the active
// filter's capacity (in m*k terms) at a tightened target error rate, and
// the insert lands in the new filter instead. Lookups scan from the
// newest filter to the oldest so membership established at any point in
// the chain's history is still found.
type ScalableFilter struct {
	filters  []*StandardFilter
	errRates []float64
	baseN    uint64
	baseE    float64
}

const (
	scaleFactor    = 2
	tighteningRate = 0.9
	growThreshold  = 0.5
)

// NewScalableFilter creates a scalable filter whose first backing filter
// is sized for baseElements items at baseErrorRate.
func NewScalableFilter(baseElements uint64, baseErrorRate float64) *ScalableFilter {
	sf := &ScalableFilter{baseN: baseElements, baseE: baseErrorRate}
	sf.filters = append(sf.filters, NewStandardFilter(baseElements, baseErrorRate))
	sf.errRates = append(sf.errRates, baseErrorRate)
	return sf
}

func (sf *ScalableFilter) active() *StandardFilter {
	return sf.filters[len(sf.filters)-1]
}

// Probe inserts h, growing the chain first if the active filter's fill
// ratio already exceeds the growth threshold.
func (sf *ScalableFilter) Probe(h uint64) {
	cur := sf.active()
	if cur.FillRatioEstimate() > growThreshold {
		nextCapacity := cur.m * uint64(cur.k) * scaleFactor
		nextRate := sf.lastErrorRate() * tighteningRate
		sf.filters = append(sf.filters, NewStandardFilter(nextCapacity, nextRate))
		sf.errRates = append(sf.errRates, nextRate)
		cur = sf.active()
	}
	cur.Probe(h)
}

// lastErrorRate recovers the error rate the active filter was built
// with; tracked alongside since StandardFilter itself only stores the
// derived m/k, not the original e.
func (sf *ScalableFilter) lastErrorRate() float64 {
	if len(sf.errRates) == 0 {
		return sf.baseE
	}
	return sf.errRates[len(sf.errRates)-1]
}

// Find reports whether h may be a member of any filter in the chain,
// scanning from the newest (most likely to match recent inserts) to the
// oldest. O(L) in the number of filters.
func (sf *ScalableFilter) Find(h uint64) bool {
	for i := len(sf.filters) - 1; i >= 0; i-- {
		if sf.filters[i].Find(h) {
			return true
		}
	}
	return false
}

// FilterCount returns the number of backing filters currently chained.
func (sf *ScalableFilter) FilterCount() int { return len(sf.filters) }
