package clock

import "time"

const (
	// DayTicks is the number of BIOS ticks after which the counter resets at
	// midnight.
	DayTicks = 0x1800B0

	// TicksPerSecond and NanosPerTick are the fixed-point approximation of the
	// 18.2065 Hz timer used for every tick/duration conversion.
	TicksPerSecond = 18
	NanosPerTick   = 55_000_000

	pitHz      = 1193182
	pitDivisor = 65536
)

// Clock provides host wall-clock time. Implementations may correct for
// system clock drift (e.g. via NTP).
type Clock interface {
	Now() time.Time
}

// TickSource reads the BIOS timer tick counter (INT 1Ah, AH=00h).
type TickSource interface {
	Ticks() uint32
}

// RTC reads the local time of day (INT 21h, AH=2Ch).
type RTC interface {
	TimeOfDay() (hour, minute, second uint8)
}

// TickFunc adapts a plain function to TickSource.
type TickFunc func() uint32

func (f TickFunc) Ticks() uint32 { return f() }

// RTCFunc adapts a plain function to RTC.
type RTCFunc func() (hour, minute, second uint8)

func (f RTCFunc) TimeOfDay() (uint8, uint8, uint8) { return f() }

// System returns a Clock backed by time.Now().
func System() Clock { return systemClock{} }

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// HostTicks emulates the BIOS tick counter on top of c: the number of timer
// ticks since local midnight at the PIT rate.
func HostTicks(c Clock) TickSource {
	return TickFunc(func() uint32 {
		return ticksSinceMidnight(c.Now())
	})
}

// HostRTC reports the local hour, minute and second of c.
func HostRTC(c Clock) RTC {
	return RTCFunc(func() (uint8, uint8, uint8) {
		h, m, s := c.Now().Clock()
		return uint8(h), uint8(m), uint8(s)
	})
}

func ticksSinceMidnight(now time.Time) uint32 {
	midnight := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	ms := now.Sub(midnight).Milliseconds()
	if ms < 0 {
		return 0
	}
	ticks := uint64(ms) * pitHz / (pitDivisor * 1000)
	if ticks >= DayTicks {
		// DST days run long; the real counter never reaches DayTicks.
		return DayTicks - 1
	}
	return uint32(ticks)
}
