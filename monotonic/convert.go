package monotonic

import (
	"math"
	"time"

	"github.com/tnicklin/dosrt/clock"
)

const maxDuration = time.Duration(math.MaxInt64)

// ticksToDuration converts a tick count to whole seconds plus the remaining
// ticks at 55ms each. Counts beyond the range of time.Duration saturate.
func ticksToDuration(ticks uint64) time.Duration {
	secs := ticks / clock.TicksPerSecond
	nanos := (ticks % clock.TicksPerSecond) * clock.NanosPerTick
	if secs > (math.MaxInt64-nanos)/uint64(time.Second) {
		return maxDuration
	}
	return time.Duration(secs)*time.Second + time.Duration(nanos)
}

// durationToTicks converts the magnitude of d to ticks and reports whether d
// was negative. Sub-tick remainders are dropped.
func durationToTicks(d time.Duration) (ticks uint64, neg bool) {
	var mag uint64
	if d < 0 {
		neg = true
		mag = uint64(-(d + 1)) + 1
	} else {
		mag = uint64(d)
	}
	secs := mag / uint64(time.Second)
	subsec := mag % uint64(time.Second)
	return saturatingMul(secs, clock.TicksPerSecond) + subsec/clock.NanosPerTick, neg
}

func saturatingMul(a, b uint64) uint64 {
	if a != 0 && b > math.MaxUint64/a {
		return math.MaxUint64
	}
	return a * b
}
