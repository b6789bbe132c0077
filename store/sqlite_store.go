package store

import (
	"context"
	"database/sql"
	"embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/mattn/go-sqlite3"
	"go.uber.org/atomic"
	"go.uber.org/multierr"

	"github.com/tnicklin/dosrt/logger"
	"github.com/tnicklin/dosrt/models"
)

var _ Store = (*SQLiteStore)(nil)

//go:embed schema/migrations/*.sql
var migrations embed.FS

const (
	memoryDSN       = "file:dosrt-%d?mode=memory&cache=shared&_foreign_keys=on&_busy_timeout=5000"
	defaultDebounce = 5 * time.Second
)

var errNotOpen = errors.New("store is not open")

// Each store gets its own in-memory database.
var memoryDBSeq atomic.Int64

type SQLiteStore struct {
	mu           sync.RWMutex
	db           *sql.DB
	snapshotPath string
	logger       logger.Logger

	// Debounced flush
	flushDebounce time.Duration
	flushTimer    *time.Timer
	flushMu       sync.Mutex
	dirty         bool
	ctx           context.Context
	cancel        context.CancelFunc
}

type Params struct {
	Path          string
	Logger        logger.Logger
	FlushDebounce time.Duration
}

func NewSQLiteStore(p Params) *SQLiteStore {
	debounce := p.FlushDebounce
	if debounce <= 0 {
		debounce = defaultDebounce
	}
	return &SQLiteStore{
		snapshotPath:  p.Path,
		flushDebounce: debounce,
		logger:        p.Logger,
	}
}

func (s *SQLiteStore) log() logger.Logger {
	if s.logger == nil {
		return logger.NewNop()
	}
	return s.logger
}

// SetFlushDebounce sets the debounce duration for disk flushes.
// Must be called before Open().
func (s *SQLiteStore) SetFlushDebounce(d time.Duration) {
	s.flushDebounce = d
}

func (s *SQLiteStore) Open(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db != nil {
		return nil
	}

	database, err := sql.Open("sqlite3", fmt.Sprintf(memoryDSN, memoryDBSeq.Inc()))
	if err != nil {
		return err
	}
	database.SetMaxOpenConns(1)
	database.SetMaxIdleConns(1)

	if err = database.PingContext(ctx); err != nil {
		_ = database.Close()
		return err
	}

	s.db = database
	s.ctx, s.cancel = context.WithCancel(context.Background())
	return s.applyMigrations(ctx)
}

// Close closes the database without flushing. Use Shutdown for graceful shutdown.
func (s *SQLiteStore) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.flushMu.Lock()
	s.stopFlushTimer()
	s.flushMu.Unlock()

	if s.cancel != nil {
		s.cancel()
	}

	if s.db == nil {
		return nil
	}
	err := s.db.Close()
	s.db = nil
	return err
}

// Shutdown performs a final flush to disk and closes the database.
func (s *SQLiteStore) Shutdown(ctx context.Context) error {
	s.flushMu.Lock()
	s.stopFlushTimer()
	dirty := s.dirty
	s.flushMu.Unlock()

	var err error
	if dirty && s.snapshotPath != "" {
		if flushErr := s.FlushToDisk(ctx, s.snapshotPath); flushErr != nil {
			s.log().ErrorW("shutdown flush failed", "path", s.snapshotPath, "error", flushErr)
			err = multierr.Append(err, fmt.Errorf("flush: %w", flushErr))
		}
	}

	return multierr.Append(err, s.Close())
}

func (s *SQLiteStore) RestoreFromDisk(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errNotOpen
	}

	if _, err := os.Stat(path); err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return err
	}

	fileDB, err := sql.Open("sqlite3", sqliteFileDSN(path))
	if err != nil {
		return err
	}
	defer fileDB.Close()

	if err := s.backup(ctx, fileDB, s.db); err != nil {
		return err
	}

	s.log().InfoW("restored snapshot", "path", path)
	return s.applyMigrations(ctx)
}

func (s *SQLiteStore) FlushToDisk(ctx context.Context, path string) error {
	if path == "" {
		return nil
	}
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.flushLocked(ctx, path); err != nil {
		return err
	}

	s.flushMu.Lock()
	s.dirty = false
	s.flushMu.Unlock()
	return nil
}

func (s *SQLiteStore) scheduleFlush() {
	if s.snapshotPath == "" {
		return
	}

	s.flushMu.Lock()
	defer s.flushMu.Unlock()

	s.dirty = true
	if s.flushTimer != nil {
		s.flushTimer.Stop()
	}

	s.flushTimer = time.AfterFunc(s.flushDebounce, func() {
		s.performScheduledFlush()
	})
}

func (s *SQLiteStore) performScheduledFlush() {
	s.flushMu.Lock()
	if !s.dirty {
		s.flushMu.Unlock()
		return
	}
	s.flushMu.Unlock()

	ctx, cancel := context.WithTimeout(s.ctx, 30*time.Second)
	defer cancel()

	if err := s.FlushToDisk(ctx, s.snapshotPath); err != nil {
		s.log().ErrorW("scheduled flush failed", "path", s.snapshotPath, "error", err)
	}
}

func (s *SQLiteStore) stopFlushTimer() {
	if s.flushTimer != nil {
		s.flushTimer.Stop()
		s.flushTimer = nil
	}
}

func (s *SQLiteStore) StartSession(ctx context.Context, session models.Session) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return 0, errNotOpen
	}

	res, err := s.db.ExecContext(ctx,
		`INSERT INTO sessions (source, started_unix, day_anchor) VALUES (?, ?, ?)`,
		strings.ToLower(strings.TrimSpace(session.Source)), session.StartedUnix, session.DayAnchor,
	)
	if err != nil {
		s.log().ErrorW("failed to start session", "source", session.Source, "error", err)
		return 0, err
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, err
	}

	s.log().DebugW("session started", "session_id", id, "source", session.Source)
	s.scheduleFlush()
	return id, nil
}

func (s *SQLiteStore) InsertSample(ctx context.Context, sample models.Sample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errNotOpen
	}

	_, err := s.db.ExecContext(ctx, `
INSERT OR REPLACE INTO samples
    (session_id, seq, wall_unix, mono_elapsed_ns, wall_elapsed_ns, wall_regressed, wraps, drift_ns)
VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		sample.SessionID,
		sample.Seq,
		sample.WallUnix,
		int64(sample.MonoElapsed),
		int64(sample.WallElapsed),
		sample.WallRegressed,
		sample.Wraps,
		int64(sample.Drift()),
	)
	if err != nil {
		s.log().ErrorW("failed to insert sample",
			"error", err,
			"session_id", sample.SessionID,
			"seq", sample.Seq,
		)
		return err
	}

	// Schedule debounced flush instead of immediate flush
	s.scheduleFlush()
	return nil
}

func (s *SQLiteStore) InsertWrap(ctx context.Context, event models.WrapEvent) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.db == nil {
		return errNotOpen
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO wrap_events (session_id, prev_raw, cur_raw, wall_unix) VALUES (?, ?, ?, ?)`,
		event.SessionID, int64(event.PrevRaw), int64(event.CurRaw), event.WallUnix,
	)
	if err != nil {
		s.log().ErrorW("failed to insert wrap event", "error", err, "session_id", event.SessionID)
		return err
	}

	s.scheduleFlush()
	return nil
}

func (s *SQLiteStore) ListSessions(ctx context.Context) ([]models.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, source, started_unix, day_anchor FROM sessions ORDER BY id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Session
	for rows.Next() {
		var sess models.Session
		if err := rows.Scan(&sess.ID, &sess.Source, &sess.StartedUnix, &sess.DayAnchor); err != nil {
			return nil, err
		}
		out = append(out, sess)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) ListSamples(ctx context.Context, sessionID int64) ([]models.Sample, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, seq, wall_unix, mono_elapsed_ns, wall_elapsed_ns, wall_regressed, wraps
FROM samples WHERE session_id = ? ORDER BY seq`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.Sample
	for rows.Next() {
		var (
			sample     models.Sample
			mono, wall int64
		)
		if err := rows.Scan(
			&sample.SessionID,
			&sample.Seq,
			&sample.WallUnix,
			&mono,
			&wall,
			&sample.WallRegressed,
			&sample.Wraps,
		); err != nil {
			return nil, err
		}
		sample.MonoElapsed = time.Duration(mono)
		sample.WallElapsed = time.Duration(wall)
		out = append(out, sample)
	}

	s.log().DebugW("samples listed", "session_id", sessionID, "count", len(out))
	return out, rows.Err()
}

func (s *SQLiteStore) ListWraps(ctx context.Context, sessionID int64) ([]models.WrapEvent, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotOpen
	}

	rows, err := s.db.QueryContext(ctx, `
SELECT session_id, prev_raw, cur_raw, wall_unix
FROM wrap_events WHERE session_id = ? ORDER BY id`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []models.WrapEvent
	for rows.Next() {
		var (
			event     models.WrapEvent
			prev, cur int64
		)
		if err := rows.Scan(&event.SessionID, &prev, &cur, &event.WallUnix); err != nil {
			return nil, err
		}
		event.PrevRaw = uint32(prev)
		event.CurRaw = uint32(cur)
		out = append(out, event)
	}
	return out, rows.Err()
}

func (s *SQLiteStore) SummarizeDrift(ctx context.Context, sessionID int64) (*models.DriftSummary, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.db == nil {
		return nil, errNotOpen
	}

	summary := &models.DriftSummary{SessionID: sessionID}
	var maxDrift, minDrift, lastDrift int64

	err := s.db.QueryRowContext(ctx, `
SELECT COUNT(*), COALESCE(SUM(wall_regressed), 0), COALESCE(MAX(drift_ns), 0), COALESCE(MIN(drift_ns), 0)
FROM samples WHERE session_id = ?`, sessionID).Scan(&summary.Samples, &summary.Regressions, &maxDrift, &minDrift)
	if err != nil {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT drift_ns FROM samples WHERE session_id = ? ORDER BY seq DESC LIMIT 1`, sessionID,
	).Scan(&lastDrift)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}

	err = s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM wrap_events WHERE session_id = ?`, sessionID,
	).Scan(&summary.Wraps)
	if err != nil {
		return nil, err
	}

	summary.MaxDrift = time.Duration(maxDrift)
	summary.MinDrift = time.Duration(minDrift)
	summary.LastDrift = time.Duration(lastDrift)
	return summary, nil
}

func (s *SQLiteStore) flushLocked(ctx context.Context, path string) error {
	if s.db == nil {
		return errNotOpen
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}

	fileDB, err := sql.Open("sqlite3", sqliteFileDSN(path))
	if err != nil {
		return err
	}
	defer fileDB.Close()

	return s.backup(ctx, s.db, fileDB)
}

func (s *SQLiteStore) backup(ctx context.Context, src *sql.DB, dst *sql.DB) error {
	srcConn, err := src.Conn(ctx)
	if err != nil {
		return err
	}
	defer srcConn.Close()

	dstConn, err := dst.Conn(ctx)
	if err != nil {
		return err
	}
	defer dstConn.Close()

	return dstConn.Raw(func(dstDriver any) error {
		return srcConn.Raw(func(srcDriver any) error {
			dstSQLite, ok := dstDriver.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected destination driver: %T", dstDriver)
			}
			srcSQLite, ok := srcDriver.(*sqlite3.SQLiteConn)
			if !ok {
				return fmt.Errorf("unexpected source driver: %T", srcDriver)
			}

			backup, err := dstSQLite.Backup("main", srcSQLite, "main")
			if err != nil {
				return err
			}
			defer backup.Finish()

			_, err = backup.Step(-1)
			return err
		})
	})
}

func (s *SQLiteStore) applyMigrations(ctx context.Context) error {
	if s.db == nil {
		return errNotOpen
	}

	files, err := fs.Glob(migrations, "schema/migrations/*.sql")
	if err != nil {
		return err
	}
	sort.Strings(files)

	for _, name := range files {
		content, err := migrations.ReadFile(name)
		if err != nil {
			return err
		}
		sqlText := strings.TrimSpace(string(content))
		if sqlText == "" {
			continue
		}
		if _, err := s.db.ExecContext(ctx, sqlText); err != nil {
			return fmt.Errorf("migration %s: %w", filepath.Base(name), err)
		}
	}
	return nil
}

func sqliteFileDSN(path string) string {
	return fmt.Sprintf("file:%s?_foreign_keys=on&_busy_timeout=5000", path)
}
