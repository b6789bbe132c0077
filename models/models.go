package models

import (
	"fmt"
	"strings"
	"time"
)

// Session is one run of the drift monitor.
type Session struct {
	ID          int64  `json:"id" yaml:"id"`
	Source      string `json:"source" yaml:"source"`
	StartedUnix int64  `json:"started_unix" yaml:"started_unix"`
	DayAnchor   int64  `json:"day_anchor" yaml:"day_anchor"`
}

// Label identifies a session in logs and reports.
func (s Session) Label() string {
	return fmt.Sprintf("%s#%d", normalize(s.Source), s.ID)
}

// Sample compares monotonic and wall-clock elapsed time since the session
// baseline.
type Sample struct {
	SessionID     int64         `json:"session_id" yaml:"session_id"`
	Seq           int64         `json:"seq" yaml:"seq"`
	WallUnix      int64         `json:"wall_unix" yaml:"wall_unix"`
	MonoElapsed   time.Duration `json:"mono_elapsed" yaml:"mono_elapsed"`
	WallElapsed   time.Duration `json:"wall_elapsed" yaml:"wall_elapsed"`
	WallRegressed bool          `json:"wall_regressed" yaml:"wall_regressed"`
	Wraps         int64         `json:"wraps" yaml:"wraps"`
}

// Drift is how far the monotonic clock ran ahead of the wall clock. With the
// 55ms tick approximation it grows by roughly 0.1% of elapsed time.
func (s Sample) Drift() time.Duration {
	return s.MonoElapsed - s.WallElapsed
}

// WrapEvent records a midnight wrap of the tick counter.
type WrapEvent struct {
	SessionID int64  `json:"session_id" yaml:"session_id"`
	PrevRaw   uint32 `json:"prev_raw" yaml:"prev_raw"`
	CurRaw    uint32 `json:"cur_raw" yaml:"cur_raw"`
	WallUnix  int64  `json:"wall_unix" yaml:"wall_unix"`
}

// DriftSummary aggregates the samples of a session.
type DriftSummary struct {
	SessionID   int64         `json:"session_id" yaml:"session_id"`
	Samples     int64         `json:"samples" yaml:"samples"`
	Regressions int64         `json:"regressions" yaml:"regressions"`
	Wraps       int64         `json:"wraps" yaml:"wraps"`
	MaxDrift    time.Duration `json:"max_drift" yaml:"max_drift"`
	MinDrift    time.Duration `json:"min_drift" yaml:"min_drift"`
	LastDrift   time.Duration `json:"last_drift" yaml:"last_drift"`
}

func normalize(in string) string {
	return strings.ToLower(strings.TrimSpace(in))
}
