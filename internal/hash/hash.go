// Package hash provides the 64-bit hash functions consumed by the cache-
// optimized bloom filter engine, plus two hash functions carried over
// from the original C library's hash-family header for callers outside
// this module that need a compatible 64-bit hash before calling into the
// filter/hash-table packages (which otherwise accept pre-hashed values
// and do not hash internally).
package hash

import (
	"unsafe"

	"github.com/spaolacci/murmur3"
)

// Optimized1 implements FNV-1a with 32-byte unrolled chunking for cache
// efficiency.
func Optimized1(data []byte) uint64 {
	const (
		fnvOffsetBasis = 14695981039346656037
		fnvPrime       = 1099511628211
	)

	h := uint64(fnvOffsetBasis)
	i := 0

	for i+32 <= len(data) {
		c1 := *(*uint64)(unsafe.Pointer(&data[i]))
		c2 := *(*uint64)(unsafe.Pointer(&data[i+8]))
		c3 := *(*uint64)(unsafe.Pointer(&data[i+16]))
		c4 := *(*uint64)(unsafe.Pointer(&data[i+24]))

		h ^= c1
		h *= fnvPrime
		h ^= c2
		h *= fnvPrime
		h ^= c3
		h *= fnvPrime
		h ^= c4
		h *= fnvPrime

		i += 32
	}

	for i+8 <= len(data) {
		c := *(*uint64)(unsafe.Pointer(&data[i]))
		h ^= c
		h *= fnvPrime
		i += 8
	}

	for i < len(data) {
		h ^= uint64(data[i])
		h *= fnvPrime
		i++
	}

	return h
}

// Optimized2 is a second, independently-constructed 64-bit hash (murmur-
// style multiply/shift mixing) so Optimized1 and Optimized2 can be
// combined via double hashing without correlated collisions.
func Optimized2(data []byte) uint64 {
	const (
		seed = 0x9e3779b97f4a7c15
		mult = 0xc6a4a7935bd1e995
		r    = 47
	)

	h := uint64(seed)
	i := 0

	for i+32 <= len(data) {
		c1 := *(*uint64)(unsafe.Pointer(&data[i]))
		c2 := *(*uint64)(unsafe.Pointer(&data[i+8]))
		c3 := *(*uint64)(unsafe.Pointer(&data[i+16]))
		c4 := *(*uint64)(unsafe.Pointer(&data[i+24]))

		h ^= c1
		h *= mult
		h ^= h >> r
		h ^= c2
		h *= mult
		h ^= h >> r
		h ^= c3
		h *= mult
		h ^= h >> r
		h ^= c4
		h *= mult
		h ^= h >> r

		i += 32
	}

	for i+8 <= len(data) {
		c := *(*uint64)(unsafe.Pointer(&data[i]))
		h ^= c
		h *= mult
		h ^= h >> r
		i += 8
	}

	for i < len(data) {
		h ^= uint64(data[i])
		h *= mult
		h ^= h >> r
		i++
	}

	return h
}

// Murmur64 hashes data with murmur3's 64-bit variant (the x64 128-bit
// sum truncated to its first word), for callers that want a hash
// interchangeable with other murmur3-based components in this module
// (prng.SeedFromBytes derives its seeds from the same murmur3 word).
func Murmur64(data []byte) uint64 {
	h1, _ := murmur3.Sum128(data)
	return h1
}

// Hsieh64 implements Paul Hsieh's SuperFastHash extended to a 64-bit
// output by running the 32-bit hash twice, with seeds 0 and 0x9e3779b9,
// and joining the two results (high word from the second seed), matching the original library's hsieh_hash variant
// offered alongside FNV and murmur in its hash-family header.
func Hsieh64(data []byte) uint64 {
	lo := hsieh32(data, 0)
	hi := hsieh32(data, 0x9e3779b9)
	return uint64(hi)<<32 | uint64(lo)
}

func hsieh32(data []byte, seed uint32) uint32 {
	if len(data) == 0 {
		return seed
	}
	h := seed ^ uint32(len(data))
	i := 0
	for rem := len(data); rem >= 4; rem -= 4 {
		v := uint32(data[i]) | uint32(data[i+1])<<8
		v2 := uint32(data[i+2]) | uint32(data[i+3])<<8
		h += v
		tmp := (v2 << 11) ^ h
		h = (h << 16) ^ tmp
		h += h >> 11
		i += 4
	}
	rem := len(data) - i
	switch rem {
	case 3:
		h += uint32(data[i]) | uint32(data[i+1])<<8
		h ^= h << 16
		h ^= uint32(data[i+2]) << 18
		h += h >> 11
	case 2:
		h += uint32(data[i]) | uint32(data[i+1])<<8
		h ^= h << 11
		h += h >> 17
	case 1:
		h += uint32(data[i])
		h ^= h << 10
		h += h >> 1
	}
	h ^= h << 3
	h += h >> 5
	h ^= h << 4
	h += h >> 17
	h ^= h << 25
	h += h >> 6
	return h
}
