package monitor

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"go.uber.org/atomic"

	"github.com/tnicklin/dosrt/clock"
	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/models"
	"github.com/tnicklin/dosrt/monotonic"
	"github.com/tnicklin/dosrt/random"
	"github.com/tnicklin/dosrt/store"
	"github.com/tnicklin/dosrt/walltime"
)

var _ Monitor = (*DefaultMonitor)(nil)

// DefaultMonitor records how far the monotonic clock and the wall clock
// disagree over time. Every sample measures both clocks from the baseline
// taken when the session started.
type DefaultMonitor struct {
	mono      *monotonic.Clock
	wall      *walltime.Clock
	store     store.Store
	logger    logger.Logger
	source    string
	dayAnchor uint32
	interval  time.Duration
	threshold time.Duration
	rng       *rand.Rand

	mu        sync.Mutex
	sessionID int64
	started   bool
	baseMono  monotonic.Instant
	baseWall  walltime.Time
	lastWall  walltime.Time
	seq       int64

	// Filled by the wrap hook, which runs under the monotonic clock's lock.
	pendingMu sync.Mutex
	pending   []models.WrapEvent

	samples     atomic.Int64
	wraps       atomic.Int64
	regressions atomic.Int64

	cancel context.CancelFunc
	done   chan struct{}
}

// Params holds configuration for creating a new Monitor.
type Params struct {
	Config    Config
	Ticks     clock.TickSource
	RTC       clock.RTC
	Store     store.Store
	Logger    logger.Logger
	Source    string
	DayAnchor uint32
	// Seed fixes the jitter sequence. Zero seeds from Ticks.
	Seed uint32
}

// New creates a DefaultMonitor with the given parameters.
func New(p Params) (*DefaultMonitor, error) {
	if p.Ticks == nil {
		return nil, errors.New("monitor: tick source is required")
	}
	if p.RTC == nil {
		return nil, errors.New("monitor: rtc is required")
	}
	if p.Store == nil {
		return nil, errors.New("monitor: store is required")
	}
	p.Config.Defaults()

	anchor := p.DayAnchor
	if anchor == 0 {
		anchor = walltime.DefaultDayAnchor
	}
	wall, err := walltime.New(p.RTC, walltime.WithDayAnchor(anchor))
	if err != nil {
		return nil, err
	}

	log := p.Logger
	if log == nil {
		log = logger.NewNop()
	}

	src := random.Seeded(p.Seed)
	if p.Seed == 0 {
		src = random.NewSource(p.Ticks, uint32(time.Now().UnixNano()))
	}

	m := &DefaultMonitor{
		wall:      wall,
		store:     p.Store,
		logger:    log,
		source:    p.Source,
		dayAnchor: anchor,
		interval:  p.Config.Interval,
		threshold: p.Config.DriftThreshold,
		rng:       rand.New(src),
	}
	m.mono = monotonic.New(p.Ticks, monotonic.WithWrapHook(m.onWrap))
	return m, nil
}

func (m *DefaultMonitor) onWrap(prev, cur uint32) {
	m.wraps.Inc()
	m.pendingMu.Lock()
	m.pending = append(m.pending, models.WrapEvent{PrevRaw: prev, CurRaw: cur})
	m.pendingMu.Unlock()
}

// SessionID returns the current session, or zero before the first sample.
func (m *DefaultMonitor) SessionID() int64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sessionID
}

// Stats returns the session counters.
func (m *DefaultMonitor) Stats() Stats {
	return Stats{
		Samples:     m.samples.Load(),
		Wraps:       m.wraps.Load(),
		Regressions: m.regressions.Load(),
	}
}

// Start takes a first sample and then keeps sampling on a jittered interval
// until ctx is cancelled or Stop is called.
func (m *DefaultMonitor) Start(ctx context.Context) error {
	if m.cancel != nil {
		return errors.New("monitor: already started")
	}
	if _, err := m.SampleOnce(ctx); err != nil {
		return err
	}

	ctx, m.cancel = context.WithCancel(ctx)
	m.done = make(chan struct{})
	go m.run(ctx)
	return nil
}

// Stop shuts down the sampling goroutine.
func (m *DefaultMonitor) Stop() {
	if m.cancel != nil {
		m.cancel()
		<-m.done
		m.cancel = nil
	}
}

func (m *DefaultMonitor) run(ctx context.Context) {
	defer close(m.done)

	for {
		timer := time.NewTimer(m.nextWait())
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
		}

		if _, err := m.SampleOnce(ctx); err != nil && ctx.Err() == nil {
			m.logger.ErrorW("sample failed", "session_id", m.SessionID(), "error", err)
		}
	}
}

func (m *DefaultMonitor) nextWait() time.Duration {
	wait := m.interval
	jitterWindow := m.interval / 10
	if jitterWindow > 0 {
		wait += time.Duration(m.rng.Int64N(int64(jitterWindow)))
	}
	return wait
}

// SampleOnce reads both clocks and records the result. The first call opens
// a session and sets the baseline.
func (m *DefaultMonitor) SampleOnce(ctx context.Context) (models.Sample, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.ensureSession(ctx); err != nil {
		return models.Sample{}, err
	}

	nowMono := m.mono.Now()
	nowWall := m.wall.Now()

	sample := models.Sample{
		SessionID:   m.sessionID,
		Seq:         m.seq + 1,
		WallUnix:    nowWall.Unix(),
		MonoElapsed: nowMono.SaturatingDurationSince(m.baseMono),
		Wraps:       m.wraps.Load(),
	}

	var werr *walltime.Error
	elapsed, err := nowWall.DurationSince(m.baseWall)
	switch {
	case errors.As(err, &werr):
		sample.WallElapsed = -werr.Duration()
	case err != nil:
		return models.Sample{}, err
	default:
		sample.WallElapsed = elapsed
	}

	if _, err := nowWall.DurationSince(m.lastWall); errors.As(err, &werr) {
		sample.WallRegressed = true
		m.regressions.Inc()
		m.logger.WarnW("wall clock went backwards",
			"session_id", m.sessionID,
			"by", werr.Duration(),
			"wall", nowWall,
		)
	}

	if drift := sample.Drift(); drift > m.threshold || drift < -m.threshold {
		m.logger.WarnW("clock drift over threshold",
			"session_id", m.sessionID,
			"drift", drift,
			"threshold", m.threshold,
		)
	}

	if err := m.flushWraps(ctx, nowWall); err != nil {
		return models.Sample{}, err
	}

	if err := m.store.InsertSample(ctx, sample); err != nil {
		return models.Sample{}, err
	}

	m.seq = sample.Seq
	m.lastWall = nowWall
	m.samples.Inc()
	m.logger.DebugW("sample recorded",
		"session_id", m.sessionID,
		"seq", sample.Seq,
		"mono", nowMono,
		"drift", sample.Drift(),
	)
	return sample, nil
}

func (m *DefaultMonitor) ensureSession(ctx context.Context) error {
	if m.started {
		return nil
	}

	baseMono := m.mono.Now()
	baseWall := m.wall.Now()

	id, err := m.store.StartSession(ctx, models.Session{
		Source:      m.source,
		StartedUnix: baseWall.Unix(),
		DayAnchor:   int64(m.dayAnchor),
	})
	if err != nil {
		return err
	}

	m.sessionID = id
	m.baseMono = baseMono
	m.baseWall = baseWall
	m.lastWall = baseWall
	m.started = true
	m.logger.InfoW("monitor session started",
		"session_id", id,
		"source", m.source,
		"wall", baseWall,
	)
	return nil
}

// flushWraps stores wrap events seen since the last sample. Events that fail
// to store are kept for the next attempt.
func (m *DefaultMonitor) flushWraps(ctx context.Context, at walltime.Time) error {
	m.pendingMu.Lock()
	events := m.pending
	m.pending = nil
	m.pendingMu.Unlock()

	for i, ev := range events {
		ev.SessionID = m.sessionID
		ev.WallUnix = at.Unix()
		if err := m.store.InsertWrap(ctx, ev); err != nil {
			m.pendingMu.Lock()
			m.pending = append(events[i:], m.pending...)
			m.pendingMu.Unlock()
			return err
		}
		m.logger.InfoW("tick counter wrapped",
			"session_id", m.sessionID,
			"prev_raw", ev.PrevRaw,
			"cur_raw", ev.CurRaw,
		)
	}
	return nil
}
