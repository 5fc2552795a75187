package xorfilter

import (
	"encoding/binary"
	"fmt"

	"github.com/shaia/corelib/marshal"
)

// On-disk layout, per the marshal framework's versioned-header-plus-checksum
// convention (see package marshal). Fingerprint bodies are page-aligned;
// UnmarshalFilter8/UnmarshalFilter16 copy them into the heap in either
// open mode.
//
//	[0..4)  magic "XORF"
//	[4]     version (1)
//	[5]     width flag: 0 = 8-bit, 1 = 16-bit
//	[6..8)  reserved
//	[8..16) seed
//	[16..20) size
//	[20..24) n
//	[page-aligned] fingerprint bytes
const (
	xorMagic      = "XORF"
	xorVersion    = 1
	widthFlag8    = 0
	widthFlag16   = 1
	xorHeaderSize = 24
)

// Marshal writes f to path, publishing it atomically.
func (f *Filter8) Marshal(path string, checksum marshal.ChecksumAlgo) error {
	w := marshal.NewWriter(xorHeaderSize+len(f.fp), checksum)
	writeXorHeader(w, widthFlag8, f.seed, f.size, uint32(f.n))
	w.Write(f.fp)
	return w.CommitToFile(path)
}

// UnmarshalFilter8 reads a Filter8 previously written with Marshal.
func UnmarshalFilter8(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode) (*Filter8, error) {
	seed, size, n, body, err := readXorHeader(path, checksum, mode, widthFlag8)
	if err != nil {
		return nil, err
	}
	want := int(3 * size)
	if len(body) < want {
		return nil, fmt.Errorf("%w: truncated fingerprint array", marshal.ErrCorrupt)
	}
	fp := make([]uint8, want)
	copy(fp, body[:want])
	return &Filter8{fp: fp, seed: seed, size: size, n: int(n)}, nil
}

// Marshal writes f to path, publishing it atomically.
func (f *Filter16) Marshal(path string, checksum marshal.ChecksumAlgo) error {
	raw := make([]byte, len(f.fp)*2)
	for i, v := range f.fp {
		binary.LittleEndian.PutUint16(raw[i*2:], v)
	}
	w := marshal.NewWriter(xorHeaderSize+len(raw), checksum)
	writeXorHeader(w, widthFlag16, f.seed, f.size, uint32(f.n))
	w.Write(raw)
	return w.CommitToFile(path)
}

// UnmarshalFilter16 reads a Filter16 previously written with Marshal.
func UnmarshalFilter16(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode) (*Filter16, error) {
	seed, size, n, body, err := readXorHeader(path, checksum, mode, widthFlag16)
	if err != nil {
		return nil, err
	}
	want := int(3*size) * 2
	if len(body) < want {
		return nil, fmt.Errorf("%w: truncated fingerprint array", marshal.ErrCorrupt)
	}
	fp := make([]uint16, 3*size)
	for i := range fp {
		fp[i] = binary.LittleEndian.Uint16(body[i*2:])
	}
	return &Filter16{fp: fp, seed: seed, size: size, n: int(n)}, nil
}

func writeXorHeader(w *marshal.Writer, width byte, seed uint64, size, n uint32) {
	var hdr [xorHeaderSize]byte
	copy(hdr[0:4], xorMagic)
	hdr[4] = xorVersion
	hdr[5] = width
	binary.LittleEndian.PutUint64(hdr[8:16], seed)
	binary.LittleEndian.PutUint32(hdr[16:20], size)
	binary.LittleEndian.PutUint32(hdr[20:24], n)
	w.Write(hdr[:])
	w.Pad(marshal.PageSize)
}

func readXorHeader(path string, checksum marshal.ChecksumAlgo, mode marshal.OpenMode, wantWidth byte) (seed uint64, size, n uint32, body []byte, err error) {
	r, err := marshal.Open(path, checksum, mode)
	if err != nil {
		return 0, 0, 0, nil, err
	}
	defer r.Close()

	data := r.Bytes()
	if len(data) < xorHeaderSize || string(data[0:4]) != xorMagic {
		return 0, 0, 0, nil, fmt.Errorf("%w: bad header", marshal.ErrCorrupt)
	}
	if data[4] != xorVersion {
		return 0, 0, 0, nil, fmt.Errorf("%w: version %d", marshal.ErrUnsupportedVersion, data[4])
	}
	if data[5] != wantWidth {
		return 0, 0, 0, nil, fmt.Errorf("%w: width mismatch", marshal.ErrCorrupt)
	}
	seed = binary.LittleEndian.Uint64(data[8:16])
	size = binary.LittleEndian.Uint32(data[16:20])
	n = binary.LittleEndian.Uint32(data[20:24])

	off := (xorHeaderSize + marshal.PageSize - 1) &^ (marshal.PageSize - 1)
	// r is closed (and, in mmap mode, unmapped) on return, so the body is
	// copied out rather than sliced from the mapping.
	bodyOut := make([]byte, 0)
	if off <= len(data) {
		bodyOut = append(bodyOut, data[off:]...)
	}
	return seed, size, n, bodyOut, nil
}
