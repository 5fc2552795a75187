package bloomfilter

import (
	"encoding/binary"
	"fmt"
	"math"

	"github.com/shaia/corelib/marshal"
)

// On-disk layout for StandardFilter/CountingFilter/ScalableFilter, per the
// marshal framework's versioned-header-plus-checksum convention (see
// package marshal). All multi-byte fields are little-endian.
//
//	[0..4)   magic "BLOM"
//	[4]      version (0)
//	[5]      type: 0=counting 1=standard 2=scalable
//	[6]      hash-family tag (informational; filters accept pre-hashed u64)
//	[7]      checksum-algorithm tag
//	[8..16)  n: elements inserted so far (standard/counting) or the
//	         base capacity (scalable); the construction-time n of a
//	         standard or counting filter is not stored
//	[16..24) error rate e (float64 bits): the scalable filter's base
//	         rate; 0 for standard/counting, which do not keep their rate
//	[24..28) filter count (1 for standard/counting, >=1 for scalable)
//	[28..32) reserved
//	per filter: [8) m  [4) k  [8) salt  [4) body length  [bitmap/counters bytes]
const (
	bloomMagic   = "BLOM"
	bloomVersion = 0

	filterTypeCounting = 0
	filterTypeStandard = 1
	filterTypeScalable = 2

	hashFamilyTagOpaque = 0
)

func writeBloomHeader(w *marshal.Writer, typ byte, checksum marshal.ChecksumAlgo, expectedN uint64, targetE float64, filterCount uint32) {
	var hdr [32]byte
	copy(hdr[0:4], bloomMagic)
	hdr[4] = bloomVersion
	hdr[5] = typ
	hdr[6] = hashFamilyTagOpaque
	hdr[7] = byte(checksum)
	binary.LittleEndian.PutUint64(hdr[8:16], expectedN)
	binary.LittleEndian.PutUint64(hdr[16:24], math.Float64bits(targetE))
	binary.LittleEndian.PutUint32(hdr[24:28], filterCount)
	w.Write(hdr[:])
	w.Pad(marshal.CacheLineSize)
}

func writeStandardBody(w *marshal.Writer, f *StandardFilter) error {
	bits, err := f.bits.MarshalBinary()
	if err != nil {
		return fmt.Errorf("bloomfilter: marshal bitmap: %w", err)
	}
	var fh [24]byte
	binary.LittleEndian.PutUint64(fh[0:8], f.m)
	binary.LittleEndian.PutUint32(fh[8:12], f.k)
	binary.LittleEndian.PutUint64(fh[12:20], f.salt)
	binary.LittleEndian.PutUint32(fh[20:24], uint32(len(bits)))
	w.Write(fh[:])
	w.Write(bits)
	w.Pad(marshal.CacheLineSize)
	return nil
}

// Marshal writes f to path, publishing it atomically (temp file + rename).
func (f *StandardFilter) Marshal(path string, checksum marshal.ChecksumAlgo) error {
	w := marshal.NewWriter(256+int(f.m*uint64(f.k)/8), checksum)
	writeBloomHeader(w, filterTypeStandard, checksum, f.n, 0, 1)
	if err := writeStandardBody(w, f); err != nil {
		return err
	}
	return w.CommitToFile(path)
}

// UnmarshalStandardFilter reads a StandardFilter previously written with
// Marshal. mode selects mmap-zero-copy vs heap-copy for the reader; the
// bitmap itself is always heap-copied into a fresh bitset.
func UnmarshalStandardFilter(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode) (*StandardFilter, error) {
	r, err := marshal.Open(path, checksum, mode)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data := r.Bytes()
	if len(data) < 32 {
		return nil, fmt.Errorf("%w: short file", marshal.ErrCorrupt)
	}
	if string(data[0:4]) != bloomMagic {
		return nil, fmt.Errorf("%w: bad magic", marshal.ErrCorrupt)
	}
	if data[4] != bloomVersion {
		return nil, fmt.Errorf("%w: version %d", marshal.ErrUnsupportedVersion, data[4])
	}
	if data[5] != filterTypeStandard {
		return nil, fmt.Errorf("%w: not a standard filter", marshal.ErrCorrupt)
	}
	n := binary.LittleEndian.Uint64(data[8:16])

	body := data[alignUp(32):]
	if len(body) < 24 {
		return nil, fmt.Errorf("%w: short filter body", marshal.ErrCorrupt)
	}
	m := binary.LittleEndian.Uint64(body[0:8])
	k := binary.LittleEndian.Uint32(body[8:12])
	salt := binary.LittleEndian.Uint64(body[12:20])
	bmLen := binary.LittleEndian.Uint32(body[20:24])
	if len(body) < 24+int(bmLen) {
		return nil, fmt.Errorf("%w: truncated bitmap", marshal.ErrCorrupt)
	}

	f := &StandardFilter{m: m, k: k, salt: salt, n: n}
	f.bits = newBitSet(m, k)
	if err := f.bits.UnmarshalBinary(body[24 : 24+int(bmLen)]); err != nil {
		return nil, fmt.Errorf("%w: unmarshal bitmap: %v", marshal.ErrCorrupt, err)
	}
	return f, nil
}

func alignUp(n int) int {
	const b = marshal.CacheLineSize
	return (n + b - 1) &^ (b - 1)
}

// Marshal writes f to path. Counting filters store their byte counters
// directly (no bitset involved).
func (f *CountingFilter) Marshal(path string, checksum marshal.ChecksumAlgo) error {
	w := marshal.NewWriter(256+len(f.counters), checksum)
	writeBloomHeader(w, filterTypeCounting, checksum, f.n, 0, 1)
	var fh [24]byte
	binary.LittleEndian.PutUint64(fh[0:8], f.m)
	binary.LittleEndian.PutUint32(fh[8:12], f.k)
	binary.LittleEndian.PutUint64(fh[12:20], f.salt)
	binary.LittleEndian.PutUint32(fh[20:24], uint32(len(f.counters)))
	w.Write(fh[:])
	w.Write(f.counters)
	w.Pad(marshal.CacheLineSize)
	return w.CommitToFile(path)
}

// UnmarshalCountingFilter reads a CountingFilter previously written with Marshal.
func UnmarshalCountingFilter(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode) (*CountingFilter, error) {
	r, err := marshal.Open(path, checksum, mode)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data := r.Bytes()
	if len(data) < 32 || string(data[0:4]) != bloomMagic {
		return nil, fmt.Errorf("%w: bad header", marshal.ErrCorrupt)
	}
	if data[4] != bloomVersion {
		return nil, fmt.Errorf("%w: version %d", marshal.ErrUnsupportedVersion, data[4])
	}
	if data[5] != filterTypeCounting {
		return nil, fmt.Errorf("%w: not a counting filter", marshal.ErrCorrupt)
	}
	n := binary.LittleEndian.Uint64(data[8:16])

	body := data[alignUp(32):]
	if len(body) < 24 {
		return nil, fmt.Errorf("%w: short filter body", marshal.ErrCorrupt)
	}
	m := binary.LittleEndian.Uint64(body[0:8])
	k := binary.LittleEndian.Uint32(body[8:12])
	salt := binary.LittleEndian.Uint64(body[12:20])
	clen := binary.LittleEndian.Uint32(body[20:24])
	if len(body) < 24+int(clen) {
		return nil, fmt.Errorf("%w: truncated counters", marshal.ErrCorrupt)
	}
	counters := make([]byte, clen)
	copy(counters, body[24:24+int(clen)])

	return &CountingFilter{counters: counters, m: m, k: k, salt: salt, n: n}, nil
}

// Marshal writes the entire filter chain to path, preserving insertion
// order (oldest filter first) so Unmarshal reconstructs active-filter
// growth semantics identically.
func (sf *ScalableFilter) Marshal(path string, checksum marshal.ChecksumAlgo) error {
	w := marshal.NewWriter(512, checksum)
	writeBloomHeader(w, filterTypeScalable, checksum, sf.baseN, sf.baseE, uint32(len(sf.filters)))
	for i, f := range sf.filters {
		if err := writeStandardBody(w, f); err != nil {
			return fmt.Errorf("bloomfilter: filter %d: %w", i, err)
		}
	}
	return w.CommitToFile(path)
}

// UnmarshalScalableFilter reads a ScalableFilter previously written with Marshal.
func UnmarshalScalableFilter(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode) (*ScalableFilter, error) {
	r, err := marshal.Open(path, checksum, mode)
	if err != nil {
		return nil, err
	}
	defer r.Close()

	data := r.Bytes()
	if len(data) < 32 || string(data[0:4]) != bloomMagic {
		return nil, fmt.Errorf("%w: bad header", marshal.ErrCorrupt)
	}
	if data[4] != bloomVersion {
		return nil, fmt.Errorf("%w: version %d", marshal.ErrUnsupportedVersion, data[4])
	}
	if data[5] != filterTypeScalable {
		return nil, fmt.Errorf("%w: not a scalable filter", marshal.ErrCorrupt)
	}
	baseN := binary.LittleEndian.Uint64(data[8:16])
	baseE := math.Float64frombits(binary.LittleEndian.Uint64(data[16:24]))
	count := binary.LittleEndian.Uint32(data[24:28])

	off := alignUp(32)
	sf := &ScalableFilter{baseN: baseN, baseE: baseE}
	for i := uint32(0); i < count; i++ {
		body := data[off:]
		if len(body) < 24 {
			return nil, fmt.Errorf("%w: short filter %d", marshal.ErrCorrupt, i)
		}
		m := binary.LittleEndian.Uint64(body[0:8])
		k := binary.LittleEndian.Uint32(body[8:12])
		salt := binary.LittleEndian.Uint64(body[12:20])
		bmLen := binary.LittleEndian.Uint32(body[20:24])
		if len(body) < 24+int(bmLen) {
			return nil, fmt.Errorf("%w: truncated filter %d", marshal.ErrCorrupt, i)
		}
		f := &StandardFilter{m: m, k: k, salt: salt}
		f.bits = newBitSet(m, k)
		if err := f.bits.UnmarshalBinary(body[24 : 24+int(bmLen)]); err != nil {
			return nil, fmt.Errorf("%w: unmarshal filter %d: %v", marshal.ErrCorrupt, i, err)
		}
		sf.filters = append(sf.filters, f)
		sf.errRates = append(sf.errRates, baseE)
		off += alignUp(24 + int(bmLen))
	}
	return sf, nil
}
