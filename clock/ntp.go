package clock

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/beevik/ntp"
)

// Logger is a minimal logging interface satisfied by logger.Logger.
type Logger interface {
	InfoW(msg string, keysAndValues ...any)
	WarnW(msg string, keysAndValues ...any)
}

// QueryFunc asks an NTP server for the local clock offset.
type QueryFunc func(server string, timeout time.Duration) (time.Duration, error)

// NTPClock provides drift-corrected host time by periodically syncing with
// an NTP server. Feed it to HostTicks and HostRTC to get BIOS readings that
// follow the corrected time.
type NTPClock struct {
	server   string
	interval time.Duration
	timeout  time.Duration
	logger   Logger
	query    QueryFunc
	base     Clock

	mu       sync.RWMutex
	offset   time.Duration
	lastSync time.Time

	cancel context.CancelFunc
	done   chan struct{}
}

// Option configures an NTPClock.
type Option func(*NTPClock)

// WithServer sets the NTP server address.
func WithServer(server string) Option {
	return func(c *NTPClock) { c.server = server }
}

// WithInterval sets the re-sync interval.
func WithInterval(d time.Duration) Option {
	return func(c *NTPClock) { c.interval = d }
}

// WithTimeout sets the NTP query timeout.
func WithTimeout(d time.Duration) Option {
	return func(c *NTPClock) { c.timeout = d }
}

// WithLogger sets the logger.
func WithLogger(l Logger) Option {
	return func(c *NTPClock) { c.logger = l }
}

// WithQuery replaces the NTP query, mostly for tests.
func WithQuery(q QueryFunc) Option {
	return func(c *NTPClock) { c.query = q }
}

// WithBase sets the clock the offset is applied to. Defaults to System().
func WithBase(base Clock) Option {
	return func(c *NTPClock) { c.base = base }
}

const (
	defaultServer   = "pool.ntp.org"
	defaultInterval = 30 * time.Minute
	defaultTimeout  = 5 * time.Second
)

// NewNTP creates an NTPClock with the given options.
func NewNTP(opts ...Option) *NTPClock {
	c := &NTPClock{
		server:   defaultServer,
		interval: defaultInterval,
		timeout:  defaultTimeout,
		query:    queryNTP,
		base:     System(),
	}
	for _, o := range opts {
		o(c)
	}
	return c
}

func queryNTP(server string, timeout time.Duration) (time.Duration, error) {
	resp, err := ntp.QueryWithOptions(server, ntp.QueryOptions{
		Timeout: timeout,
	})
	if err != nil {
		return 0, err
	}
	if err := resp.Validate(); err != nil {
		return 0, err
	}
	return resp.ClockOffset, nil
}

// Now returns the current time adjusted by the NTP offset.
func (c *NTPClock) Now() time.Time {
	c.mu.RLock()
	off := c.offset
	c.mu.RUnlock()
	return c.base.Now().Add(off)
}

// Offset returns the current NTP offset.
func (c *NTPClock) Offset() time.Duration {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.offset
}

// LastSync reports when the offset was last refreshed, zero if never.
func (c *NTPClock) LastSync() time.Time {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lastSync
}

// Start performs an initial NTP sync and starts a background goroutine
// that re-syncs on the configured interval. A failed initial sync is logged
// and the clock runs uncorrected until the next successful one.
func (c *NTPClock) Start(ctx context.Context) error {
	if c.cancel != nil {
		return errors.New("clock: ntp clock already started")
	}
	_ = c.Sync()

	ctx, c.cancel = context.WithCancel(ctx)
	c.done = make(chan struct{})
	go c.run(ctx)
	return nil
}

// Stop shuts down the background sync goroutine.
func (c *NTPClock) Stop() {
	if c.cancel != nil {
		c.cancel()
		<-c.done
		c.cancel = nil
	}
}

func (c *NTPClock) run(ctx context.Context) {
	defer close(c.done)

	ticker := time.NewTicker(c.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			_ = c.Sync()
		}
	}
}

// Sync queries the server once. On failure the previous offset is kept.
func (c *NTPClock) Sync() error {
	off, err := c.query(c.server, c.timeout)
	if err != nil {
		if c.logger != nil {
			c.logger.WarnW("ntp sync failed, keeping last offset", "server", c.server, "error", err)
		}
		return err
	}

	c.mu.Lock()
	c.offset = off
	c.lastSync = c.base.Now()
	c.mu.Unlock()

	if c.logger != nil {
		c.logger.InfoW("ntp sync", "server", c.server, "offset", off)
	}
	return nil
}
