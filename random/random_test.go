package random

import (
	"math/rand/v2"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tnicklin/dosrt/clock"
)

func TestUint32Sequence(t *testing.T) {
	s := Seeded(1)
	assert.Equal(t, uint32(270369), s.Uint32())
	assert.Equal(t, uint32(67634689), s.Uint32())
	assert.Equal(t, uint32(2647435461), s.Uint32())
}

func TestUint64(t *testing.T) {
	assert.Equal(t, uint64(0x0004202104080601), Seeded(1).Uint64())
}

func TestFillBytes(t *testing.T) {
	buf := make([]byte, 6)
	Seeded(1).FillBytes(buf)
	assert.Equal(t, []byte{0x21, 0x20, 0x04, 0x00, 0x01, 0x06}, buf)

	Seeded(1).FillBytes(nil)
}

func TestZeroSeedIsReplaced(t *testing.T) {
	s := NewSource(clock.TickFunc(func() uint32 { return 0xABCD }), 0xABCD)
	require.Equal(t, fallbackSeed, s.state)
	assert.NotZero(t, s.Uint32())
}

func TestNewSourceMixesTicks(t *testing.T) {
	a := NewSource(clock.TickFunc(func() uint32 { return 100 }), 7)
	b := Seeded(100 ^ 7)
	assert.Equal(t, b.Uint32(), a.Uint32())
}

func TestUsableAsRandSource(t *testing.T) {
	r := rand.New(Seeded(42))
	for range 100 {
		v := r.IntN(10)
		require.GreaterOrEqual(t, v, 0)
		require.Less(t, v, 10)
	}
}
