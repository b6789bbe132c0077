// Package random is a small xorshift32 generator seeded from the BIOS tick
// counter. It is not suitable for cryptographic use.
package random

import (
	"encoding/binary"

	"github.com/tnicklin/dosrt/clock"
)

// fallbackSeed replaces an all-zero state, which xorshift never leaves.
const fallbackSeed uint32 = 0x9E3779B9

// Source is an xorshift32 (13, 17, 5) generator. It is not safe for
// concurrent use.
type Source struct {
	state uint32
}

// NewSource seeds a Source from the current tick count mixed with noise,
// standing in for the PIT counter and buffer address the hardware version
// folds in.
func NewSource(ticks clock.TickSource, noise uint32) *Source {
	return Seeded(ticks.Ticks() ^ noise)
}

// Seeded returns a Source with a fixed seed.
func Seeded(seed uint32) *Source {
	if seed == 0 {
		seed = fallbackSeed
	}
	return &Source{state: seed}
}

// Uint32 returns the next value.
func (s *Source) Uint32() uint32 {
	x := s.state
	x ^= x << 13
	x ^= x >> 17
	x ^= x << 5
	s.state = x
	return x
}

// Uint64 returns two consecutive values, high word first. It makes Source
// usable as a math/rand/v2 Source.
func (s *Source) Uint64() uint64 {
	hi := uint64(s.Uint32())
	return hi<<32 | uint64(s.Uint32())
}

// FillBytes fills p with little-endian output words.
func (s *Source) FillBytes(p []byte) {
	var word [4]byte
	for len(p) > 0 {
		binary.LittleEndian.PutUint32(word[:], s.Uint32())
		n := copy(p, word[:])
		p = p[n:]
	}
}
