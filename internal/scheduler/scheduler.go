package scheduler

import (
	"context"
	"fmt"
	"time"

	"github.com/go-co-op/gocron"

	"github.com/conorfennell/flashdeck/internal/logger"
	"github.com/conorfennell/flashdeck/internal/sources"
)

// SessionStore drops sessions created before a cutoff.
type SessionStore interface {
	DeleteSessionsBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

// Resyncer re-imports every deck source.
type Resyncer interface {
	RunAll(ctx context.Context) ([]sources.Report, error)
}

// Config sets the job intervals. A zero SyncInterval disables resyncing.
type Config struct {
	SessionMaxAge  time.Duration
	PurgeInterval  time.Duration
	SyncInterval   time.Duration
	RequestTimeout time.Duration
}

// Scheduler runs the periodic housekeeping jobs.
type Scheduler struct {
	scheduler *gocron.Scheduler
	sessions  SessionStore
	syncer    Resyncer
	cfg       Config
	log       *logger.Logger
	now       func() time.Time
}

// New creates a scheduler. syncer may be nil.
func New(sessions SessionStore, syncer Resyncer, cfg Config, log *logger.Logger) *Scheduler {
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 5 * time.Minute
	}
	return &Scheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		sessions:  sessions,
		syncer:    syncer,
		cfg:       cfg,
		log:       log,
		now:       time.Now,
	}
}

// Start registers the jobs and runs them in the background. Every job fires
// once immediately.
func (s *Scheduler) Start() error {
	if s.cfg.PurgeInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.PurgeInterval).SingletonMode().Do(s.purgeSessions); err != nil {
			return fmt.Errorf("failed to schedule session purge: %w", err)
		}
	}
	if s.syncer != nil && s.cfg.SyncInterval > 0 {
		if _, err := s.scheduler.Every(s.cfg.SyncInterval).SingletonMode().Do(s.resync); err != nil {
			return fmt.Errorf("failed to schedule source sync: %w", err)
		}
	}
	s.scheduler.StartAsync()
	return nil
}

// Stop terminates all scheduled tasks.
func (s *Scheduler) Stop() {
	s.scheduler.Stop()
}

// PurgeExpiredSessions deletes every session older than the session max age.
func (s *Scheduler) PurgeExpiredSessions(ctx context.Context) (int64, error) {
	cutoff := s.now().Add(-s.cfg.SessionMaxAge)
	return s.sessions.DeleteSessionsBefore(ctx, cutoff)
}

func (s *Scheduler) purgeSessions() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	n, err := s.PurgeExpiredSessions(ctx)
	if err != nil {
		s.log.Error("Error purging sessions", "error", err)
		return
	}
	if n > 0 {
		s.log.Info("Purged expired sessions", "count", n)
	}
}

func (s *Scheduler) resync() {
	ctx, cancel := context.WithTimeout(context.Background(), s.cfg.RequestTimeout)
	defer cancel()
	if _, err := s.syncer.RunAll(ctx); err != nil {
		s.log.Error("Error running scheduled sync", "error", err)
	}
}
