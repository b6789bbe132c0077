package monitor

import (
	"context"

	"github.com/tnicklin/dosrt/models"
)

// Monitor samples the monotonic and wall clocks side by side.
type Monitor interface {
	Start(ctx context.Context) error
	Stop()
	SampleOnce(ctx context.Context) (models.Sample, error)
}

// Stats are running counters for the current session.
type Stats struct {
	Samples     int64
	Wraps       int64
	Regressions int64
}
