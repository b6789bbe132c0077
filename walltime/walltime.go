// Package walltime implements a non-monotonic wall clock with one-second
// resolution, anchored to the Unix epoch.
//
// The hardware only reports the time of day, so Clock adds it to a fixed day
// anchor instead of tracking the date. Readings are correct for the anchor's
// calendar day only.
package walltime

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/tnicklin/dosrt/clock"
)

// DefaultDayAnchor is 1980-01-01T00:00:00Z, the DOS epoch.
const DefaultDayAnchor uint32 = 315_532_800

// maxTimeOfDay is the largest value an RTC can produce from three bytes.
const maxTimeOfDay = 255*3600 + 255*60 + 255

// Time is a wall-clock reading in whole seconds since the Unix epoch.
type Time struct {
	unix uint32
}

// UnixEpoch is 1970-01-01T00:00:00Z.
var UnixEpoch = Time{}

// Error is returned when the earlier argument of DurationSince lies after
// the receiver. Duration reports how far.
type Error struct {
	d time.Duration
}

func (e *Error) Error() string {
	return fmt.Sprintf("walltime: second time provided was later than self by %s", e.d)
}

// Duration returns the positive distance between the two times.
func (e *Error) Duration() time.Duration { return e.d }

// Clock reads an RTC and anchors it to a fixed day.
type Clock struct {
	rtc    clock.RTC
	anchor uint32
}

// Option configures a Clock.
type Option func(*Clock)

// WithDayAnchor sets the Unix seconds of the midnight the RTC is relative to.
func WithDayAnchor(unix uint32) Option {
	return func(c *Clock) { c.anchor = unix }
}

// New returns a Clock reading rtc.
func New(rtc clock.RTC, opts ...Option) (*Clock, error) {
	if rtc == nil {
		return nil, errors.New("walltime: rtc is required")
	}
	c := &Clock{rtc: rtc, anchor: DefaultDayAnchor}
	for _, o := range opts {
		o(c)
	}
	if c.anchor > math.MaxUint32-maxTimeOfDay {
		return nil, fmt.Errorf("walltime: day anchor %d too large", c.anchor)
	}
	return c, nil
}

// Now returns the current wall-clock time.
func (c *Clock) Now() Time {
	h, m, s := c.rtc.TimeOfDay()
	return Time{unix: c.anchor + uint32(h)*3600 + uint32(m)*60 + uint32(s)}
}

// Elapsed returns the time from t to now. It fails if t is later than now,
// which happens whenever the wall clock has been set back.
func (c *Clock) Elapsed(t Time) (time.Duration, error) {
	return c.Now().DurationSince(t)
}

// DurationSince returns the time elapsed from earlier to t, or an *Error
// holding the reverse distance if earlier is later than t.
func (t Time) DurationSince(earlier Time) (time.Duration, error) {
	if t.unix >= earlier.unix {
		return time.Duration(t.unix-earlier.unix) * time.Second, nil
	}
	return 0, &Error{d: time.Duration(earlier.unix-t.unix) * time.Second}
}

// CheckedAdd returns t+d in whole seconds, or false if the result does not
// fit. Fractions of a second in d are discarded.
func (t Time) CheckedAdd(d time.Duration) (Time, bool) {
	secs := d / time.Second
	if secs < 0 {
		return t.subSeconds(uint64(-secs))
	}
	return t.addSeconds(uint64(secs))
}

// CheckedSub returns t-d in whole seconds, or false if the result does not
// fit.
func (t Time) CheckedSub(d time.Duration) (Time, bool) {
	secs := d / time.Second
	if secs < 0 {
		return t.addSeconds(uint64(-secs))
	}
	return t.subSeconds(uint64(secs))
}

// Add returns t+d. It panics on overflow; use CheckedAdd to avoid that.
func (t Time) Add(d time.Duration) Time {
	out, ok := t.CheckedAdd(d)
	if !ok {
		panic("walltime: overflow when adding duration to time")
	}
	return out
}

// Sub returns t-d. It panics on overflow; use CheckedSub to avoid that.
func (t Time) Sub(d time.Duration) Time {
	out, ok := t.CheckedSub(d)
	if !ok {
		panic("walltime: overflow when subtracting duration from time")
	}
	return out
}

func (t Time) addSeconds(secs uint64) (Time, bool) {
	if secs > uint64(math.MaxUint32-t.unix) {
		return Time{}, false
	}
	return Time{unix: t.unix + uint32(secs)}, true
}

func (t Time) subSeconds(secs uint64) (Time, bool) {
	if secs > uint64(t.unix) {
		return Time{}, false
	}
	return Time{unix: t.unix - uint32(secs)}, true
}

// Compare returns -1, 0 or +1 depending on whether t is before, equal to or
// after u.
func (t Time) Compare(u Time) int {
	switch {
	case t.unix < u.unix:
		return -1
	case t.unix > u.unix:
		return 1
	}
	return 0
}

func (t Time) Before(u Time) bool { return t.unix < u.unix }
func (t Time) After(u Time) bool  { return t.unix > u.unix }
func (t Time) Equal(u Time) bool  { return t.unix == u.unix }

// Unix returns t as seconds since the Unix epoch.
func (t Time) Unix() int64 { return int64(t.unix) }

// String formats t as Unix seconds.
func (t Time) String() string {
	return "@" + strconv.FormatUint(uint64(t.unix), 10)
}
