package store

import (
	"context"
	"testing"
	"time"

	"github.com/tnicklin/dosrt/models"
)

func benchStore(b *testing.B) (*SQLiteStore, int64) {
	b.Helper()
	ctx := context.Background()
	st := NewSQLiteStore(Params{})
	st.SetFlushDebounce(1 * time.Hour) // Disable auto-flush for benchmark
	if err := st.Open(ctx); err != nil {
		b.Fatalf("open: %v", err)
	}
	id, err := st.StartSession(ctx, models.Session{Source: "host", StartedUnix: 315_532_800, DayAnchor: 315_532_800})
	if err != nil {
		b.Fatalf("start session: %v", err)
	}
	return st, id
}

func BenchmarkInsertSample(b *testing.B) {
	ctx := context.Background()
	st, id := benchStore(b)
	defer st.Close()

	sample := models.Sample{
		SessionID:   id,
		WallUnix:    315_532_860,
		MonoElapsed: 60*time.Second + 55*time.Millisecond,
		WallElapsed: 60 * time.Second,
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		sample.Seq = int64(i + 1)
		if err := st.InsertSample(ctx, sample); err != nil {
			b.Fatalf("insert: %v", err)
		}
	}
}

func BenchmarkListSamples(b *testing.B) {
	ctx := context.Background()
	st, id := benchStore(b)
	defer st.Close()

	for i := 0; i < 100; i++ {
		sample := models.Sample{
			SessionID:   id,
			Seq:         int64(i + 1),
			WallUnix:    315_532_800 + int64(i),
			MonoElapsed: time.Duration(i) * time.Second,
			WallElapsed: time.Duration(i) * time.Second,
		}
		if err := st.InsertSample(ctx, sample); err != nil {
			b.Fatalf("insert: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := st.ListSamples(ctx, id); err != nil {
			b.Fatalf("list: %v", err)
		}
	}
}

func BenchmarkSummarizeDrift(b *testing.B) {
	ctx := context.Background()
	st, id := benchStore(b)
	defer st.Close()

	for i := 0; i < 100; i++ {
		sample := models.Sample{
			SessionID:   id,
			Seq:         int64(i + 1),
			MonoElapsed: time.Duration(i)*time.Second + time.Duration(i%7)*time.Millisecond,
			WallElapsed: time.Duration(i) * time.Second,
		}
		if err := st.InsertSample(ctx, sample); err != nil {
			b.Fatalf("insert: %v", err)
		}
	}

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := st.SummarizeDrift(ctx, id); err != nil {
			b.Fatalf("summarize: %v", err)
		}
	}
}
