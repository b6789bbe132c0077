package store

import (
	"context"

	"github.com/tnicklin/dosrt/models"
)

type Store interface {
	Open(ctx context.Context) error
	Close() error
	Shutdown(ctx context.Context) error

	RestoreFromDisk(ctx context.Context, path string) error
	FlushToDisk(ctx context.Context, path string) error

	StartSession(ctx context.Context, session models.Session) (int64, error)
	InsertSample(ctx context.Context, sample models.Sample) error
	InsertWrap(ctx context.Context, event models.WrapEvent) error

	ListSessions(ctx context.Context) ([]models.Session, error)
	ListSamples(ctx context.Context, sessionID int64) ([]models.Sample, error)
	ListWraps(ctx context.Context, sessionID int64) ([]models.WrapEvent, error)
	SummarizeDrift(ctx context.Context, sessionID int64) (*models.DriftSummary, error)
}
