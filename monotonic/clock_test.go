package monotonic

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/atomic"

	"github.com/tnicklin/dosrt/clock"
)

// replay returns the given readings in order, repeating the last one.
type replay struct {
	readings []uint32
	next     int
}

func (r *replay) Ticks() uint32 {
	v := r.readings[r.next]
	if r.next < len(r.readings)-1 {
		r.next++
	}
	return v
}

func ticksOf(c *Clock, n int) []uint64 {
	out := make([]uint64, 0, n)
	for range n {
		out = append(out, c.Now().ticks)
	}
	return out
}

func TestNowWithoutWrapMatchesRawReadings(t *testing.T) {
	readings := []uint32{0, 0, 1, 18, 500, 500, 1_000_000, clock.DayTicks - 1}
	c := New(&replay{readings: readings})

	got := ticksOf(c, len(readings))
	for i, raw := range readings {
		assert.Equal(t, uint64(raw), got[i], "reading %d", i)
	}
}

func TestNowCompensatesWraparound(t *testing.T) {
	c := New(&replay{readings: []uint32{100, 50}})

	first := c.Now()
	second := c.Now()

	assert.Equal(t, uint64(100), first.ticks)
	assert.Equal(t, uint64(clock.DayTicks+50), second.ticks)
	assert.True(t, second.After(first))
}

func TestNowAccumulatesOneDayPerWrap(t *testing.T) {
	var wraps [][2]uint32
	c := New(
		&replay{readings: []uint32{clock.DayTicks - 10, 5, 7, clock.DayTicks - 1, 0}},
		WithWrapHook(func(prev, cur uint32) { wraps = append(wraps, [2]uint32{prev, cur}) }),
	)

	got := ticksOf(c, 5)

	assert.Equal(t, []uint64{
		clock.DayTicks - 10,
		clock.DayTicks + 5,
		clock.DayTicks + 7,
		2*clock.DayTicks - 1,
		2 * clock.DayTicks,
	}, got)
	assert.Equal(t, [][2]uint32{{clock.DayTicks - 10, 5}, {clock.DayTicks - 1, 0}}, wraps)
}

func TestNowMissesSecondMidnightBetweenCalls(t *testing.T) {
	// Two days pass between the calls but the counter only looks like one wrap.
	c := New(&replay{readings: []uint32{1000, 900}})

	c.Now()
	got := c.Now()

	assert.Equal(t, uint64(clock.DayTicks+900), got.ticks)
}

func TestClocksAreIndependent(t *testing.T) {
	a := New(&replay{readings: []uint32{10, 5}})
	b := New(&replay{readings: []uint32{10, 20}})

	a.Now()
	b.Now()

	assert.Equal(t, uint64(clock.DayTicks+5), a.Now().ticks)
	assert.Equal(t, uint64(20), b.Now().ticks)
}

func TestElapsed(t *testing.T) {
	c := New(&replay{readings: []uint32{100, 120}})

	start := c.Now()
	assert.Equal(t, ticksToDuration(20), c.Elapsed(start))

	future := Instant{ticks: 1 << 40}
	assert.Zero(t, c.Elapsed(future))
}

func TestNowConcurrentCallersObserveOrderedTicks(t *testing.T) {
	var counter atomic.Uint32
	c := New(clock.TickFunc(func() uint32 {
		// Wrap every 1000 reads to exercise the offset under contention.
		return counter.Inc() % 1000
	}))

	const workers, perWorker = 8, 500
	results := make([][]uint64, workers)

	var wg sync.WaitGroup
	for w := range workers {
		wg.Add(1)
		go func() {
			defer wg.Done()
			results[w] = ticksOf(c, perWorker)
		}()
	}
	wg.Wait()

	seen := make(map[uint64]struct{}, workers*perWorker)
	for _, seq := range results {
		for i := 1; i < len(seq); i++ {
			require.Greater(t, seq[i], seq[i-1])
		}
		for _, v := range seq {
			seen[v] = struct{}{}
		}
	}
	assert.Len(t, seen, workers*perWorker, "every reading should produce a distinct instant")
}
