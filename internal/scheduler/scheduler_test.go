package scheduler

import (
	"context"
	"testing"
	"time"

	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/sources"
)

type fakeSessions struct {
	cutoffs chan time.Time
}

func (f *fakeSessions) DeleteSessionsBefore(_ context.Context, cutoff time.Time) (int64, error) {
	f.cutoffs <- cutoff
	return 1, nil
}

type fakeSyncer struct {
	runs chan struct{}
}

func (f *fakeSyncer) RunAll(context.Context) ([]sources.Report, error) {
	f.runs <- struct{}{}
	return nil, nil
}

func TestPurgeExpiredSessionsUsesMaxAge(t *testing.T) {
	sessions := &fakeSessions{cutoffs: make(chan time.Time, 1)}
	s := New(sessions, nil, Config{SessionMaxAge: 36 * time.Hour}, logger.Nop())
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	s.now = func() time.Time { return fixed }

	n, err := s.PurgeExpiredSessions(context.Background())
	if err != nil {
		t.Fatalf("PurgeExpiredSessions: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 purged, but got %d", n)
	}
	want := fixed.Add(-36 * time.Hour)
	if got := <-sessions.cutoffs; !got.Equal(want) {
		t.Errorf("Expected cutoff %v, but got %v", want, got)
	}
}

func TestStartRunsJobs(t *testing.T) {
	sessions := &fakeSessions{cutoffs: make(chan time.Time, 16)}
	syncer := &fakeSyncer{runs: make(chan struct{}, 16)}
	s := New(sessions, syncer, Config{
		SessionMaxAge: time.Hour,
		PurgeInterval: time.Hour,
		SyncInterval:  time.Hour,
	}, logger.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-sessions.cutoffs:
	case <-time.After(5 * time.Second):
		t.Error("Expected the purge job to run on start")
	}
	select {
	case <-syncer.runs:
	case <-time.After(5 * time.Second):
		t.Error("Expected the sync job to run on start")
	}
}

func TestStartWithoutSyncInterval(t *testing.T) {
	syncer := &fakeSyncer{runs: make(chan struct{}, 1)}
	s := New(&fakeSessions{cutoffs: make(chan time.Time, 16)}, syncer, Config{}, logger.Nop())
	if err := s.Start(); err != nil {
		t.Fatalf("Start: %v", err)
	}
	defer s.Stop()

	select {
	case <-syncer.runs:
		t.Error("Expected no sync job when the interval is zero")
	case <-time.After(100 * time.Millisecond):
	}
}
