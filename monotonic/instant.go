package monotonic

import (
	"math"
	"strconv"
	"time"
)

// Instant is a reading of a monotonic Clock. It is opaque and only useful
// compared against, or subtracted from, another Instant of the same Clock.
// Instants are never meaningful across processes.
//
// Hardware or virtualization faults can make a later Instant compare below an
// earlier one. DurationSince and Since saturate to zero in that case;
// CheckedDurationSince reports it.
type Instant struct {
	ticks uint64
}

// CheckedDurationSince returns the time elapsed from earlier to i. ok is
// false iff earlier is later than i.
func (i Instant) CheckedDurationSince(earlier Instant) (d time.Duration, ok bool) {
	if i.ticks < earlier.ticks {
		return 0, false
	}
	return ticksToDuration(i.ticks - earlier.ticks), true
}

// DurationSince returns the time elapsed from earlier to i, or zero if
// earlier is later than i.
func (i Instant) DurationSince(earlier Instant) time.Duration {
	d, _ := i.CheckedDurationSince(earlier)
	return d
}

// SaturatingDurationSince is DurationSince.
func (i Instant) SaturatingDurationSince(earlier Instant) time.Duration {
	return i.DurationSince(earlier)
}

// Since is the Instant-minus-Instant operation. It never fails.
func (i Instant) Since(earlier Instant) time.Duration {
	return i.DurationSince(earlier)
}

// CheckedAdd returns i+d, or false if the result does not fit.
func (i Instant) CheckedAdd(d time.Duration) (Instant, bool) {
	ticks, neg := durationToTicks(d)
	if neg {
		return i.subTicks(ticks)
	}
	return i.addTicks(ticks)
}

// CheckedSub returns i-d, or false if the result does not fit.
func (i Instant) CheckedSub(d time.Duration) (Instant, bool) {
	ticks, neg := durationToTicks(d)
	if neg {
		return i.addTicks(ticks)
	}
	return i.subTicks(ticks)
}

// Add returns i+d. It panics on overflow; use CheckedAdd to avoid that.
func (i Instant) Add(d time.Duration) Instant {
	out, ok := i.CheckedAdd(d)
	if !ok {
		panic("monotonic: overflow when adding duration to instant")
	}
	return out
}

// Sub returns i-d. It panics on overflow; use CheckedSub to avoid that.
func (i Instant) Sub(d time.Duration) Instant {
	out, ok := i.CheckedSub(d)
	if !ok {
		panic("monotonic: overflow when subtracting duration from instant")
	}
	return out
}

func (i Instant) addTicks(ticks uint64) (Instant, bool) {
	if ticks > math.MaxUint64-i.ticks {
		return Instant{}, false
	}
	return Instant{ticks: i.ticks + ticks}, true
}

func (i Instant) subTicks(ticks uint64) (Instant, bool) {
	if ticks > i.ticks {
		return Instant{}, false
	}
	return Instant{ticks: i.ticks - ticks}, true
}

// Compare returns -1, 0 or +1 depending on whether i is before, equal to or
// after j.
func (i Instant) Compare(j Instant) int {
	switch {
	case i.ticks < j.ticks:
		return -1
	case i.ticks > j.ticks:
		return 1
	}
	return 0
}

func (i Instant) Before(j Instant) bool { return i.ticks < j.ticks }
func (i Instant) After(j Instant) bool  { return i.ticks > j.ticks }
func (i Instant) Equal(j Instant) bool  { return i.ticks == j.ticks }

// String formats the raw cumulative tick count, for diagnostics only.
func (i Instant) String() string {
	return strconv.FormatUint(i.ticks, 10) + " ticks"
}
