// Package prng implements the seedable pseudo-random generators used
// internally by the xor filter and the hash tables to pick seeds (the bloom
// filters draw their salts from crypto/rand). None of the generators here are safe for
// concurrent use by multiple goroutines without external locking.
package prng

import (
	"crypto/rand"
	"encoding/binary"

	"github.com/spaolacci/murmur3"
)

// entropy reads a non-zero 64-bit seed from the host entropy source. It is
// used whenever a caller passes seed == 0 to an Init method, mirroring the
// original library's use of arc4random_buf for the same purpose.
func entropy() uint64 {
	var buf [8]byte
	for {
		if _, err := rand.Read(buf[:]); err != nil {
			// Extremely unlikely on any real platform; fall back to a
			// fixed, non-zero constant rather than blocking forever.
			return 0x9e3779b97f4a7c15
		}
		v := binary.LittleEndian.Uint64(buf[:])
		if v != 0 {
			return v
		}
	}
}

// SeedFromBytes derives a non-zero 64-bit seed from arbitrary caller data
// (e.g. a hostname, a config blob) using murmur3, for callers that want a
// reproducible seed instead of host entropy.
func SeedFromBytes(data []byte) uint64 {
	h := murmur3.Sum64(data)
	if h == 0 {
		h = 1
	}
	return h
}

// Generator is satisfied by every generator in this package (and by
// anything else exposing a raw 64-bit draw), so callers can stay
// agnostic to which variant backs a given Source.
type Generator interface {
	U64() uint64
}

// Source adapts a Generator to math/rand/v2's Source interface (a bare
// Uint64() uint64 method), so callers needing the richer rand.Rand API
// (Shuffle, IntN, and friends) can do rand.New(prng.NewSource(gen))
// instead of seeding from math/rand/v2's own generators.
type Source struct {
	gen Generator
}

// NewSource wraps gen as a math/rand/v2-compatible Source.
func NewSource(gen Generator) *Source { return &Source{gen: gen} }

// Uint64 satisfies math/rand/v2.Source.
func (s *Source) Uint64() uint64 { return s.gen.U64() }

// Xorshift64Star is the xorshift64* generator: a single 64-bit word of
// state, advanced and scrambled with a multiplicative constant.
type Xorshift64Star struct {
	v uint64
}

// Init seeds the generator. A seed of zero requests a host-entropy seed.
func (x *Xorshift64Star) Init(seed uint64) {
	if seed == 0 {
		seed = entropy()
	}
	x.v = seed
}

// U64 returns the next pseudo-random 64-bit value.
func (x *Xorshift64Star) U64() uint64 {
	x.v ^= x.v >> 12
	x.v ^= x.v << 25
	x.v ^= x.v >> 27
	return x.v * 0x2545F4914F6CDD1D
}

// Xorshift128Plus is the xorshift128+ generator. Its state is seeded by
// running xorshift64* twice, matching the reference implementation.
type Xorshift128Plus struct {
	v [2]uint64
}

// Init seeds the generator via two rounds of xorshift64*.
func (x *Xorshift128Plus) Init(seed uint64) {
	var seeder Xorshift64Star
	seeder.Init(seed)
	x.v[0] = seeder.U64()
	x.v[1] = seeder.U64()
}

// U64 returns the next pseudo-random 64-bit value.
func (x *Xorshift128Plus) U64() uint64 {
	s1 := x.v[0]
	s0 := x.v[1]
	result := s0 + s1
	x.v[0] = s0
	s1 ^= s1 << 23
	x.v[1] = s1 ^ s0 ^ (s1 >> 18) ^ (s0 >> 5)
	return result
}

// Xoroshiro128Plus is the xoroshiro128+ generator, seeded the same way as
// Xorshift128Plus but with a rotation-based update step.
type Xoroshiro128Plus struct {
	v [2]uint64
}

func rotl(x uint64, k uint) uint64 {
	return (x << k) | (x >> (64 - k))
}

// Init seeds the generator via two rounds of xorshift64*.
func (x *Xoroshiro128Plus) Init(seed uint64) {
	var seeder Xorshift64Star
	seeder.Init(seed)
	x.v[0] = seeder.U64()
	x.v[1] = seeder.U64()
}

// U64 returns the next pseudo-random 64-bit value.
func (x *Xoroshiro128Plus) U64() uint64 {
	s0 := x.v[0]
	s1 := x.v[1]
	result := s0 + s1

	s1 ^= s0
	x.v[0] = rotl(s0, 55) ^ s1 ^ (s1 << 14)
	x.v[1] = rotl(s1, 36)

	return result
}

// Xorshift1024Star is the xorshift1024* generator. Its state is seeded by
// running xorshift128+ sixteen times, matching the reference implementation.
type Xorshift1024Star struct {
	v [16]uint64
	p uint32
}

// Init seeds the generator via sixteen rounds of xorshift128+.
func (x *Xorshift1024Star) Init(seed uint64) {
	var seeder Xorshift128Plus
	seeder.Init(seed)
	for i := range x.v {
		x.v[i] = seeder.U64()
	}
	x.p = 0
}

// U64 returns the next pseudo-random 64-bit value.
func (x *Xorshift1024Star) U64() uint64 {
	p0 := x.p
	s0 := x.v[p0]
	p1 := (p0 + 1) & 15
	s1 := x.v[p1]

	s1 ^= s1 << 31
	s1 ^= s1 >> 11
	s0 ^= s0 >> 30

	x.v[p1] = s0 ^ s1
	x.p = p1

	return x.v[p1] * 0x106689D45497FDB5
}
