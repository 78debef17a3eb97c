package scheduler

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// SessionPurger deletes completed sessions older than a cutoff.
type SessionPurger interface {
	PurgeFinished(ctx context.Context, cutoff time.Time) (int64, error)
}

// PurgeScheduler runs the finished-session purge on a cron spec.
// Sessions still in progress are never purged.
type PurgeScheduler struct {
	cronEngine *cron.Cron
	purger     SessionPurger
	logger     *logrus.Entry
	cronSpec   string
	retention  time.Duration
	now        func() time.Time
}

func NewPurgeScheduler(purger SessionPurger, logger *logrus.Entry, cronSpec string, retention time.Duration) *PurgeScheduler {
	return &PurgeScheduler{
		cronEngine: cron.New(cron.WithLocation(time.Local)),
		purger:     purger,
		logger:     logger,
		cronSpec:   cronSpec,
		retention:  retention,
		now:        time.Now,
	}
}

// Start registers the purge job and starts the cron engine.
func (s *PurgeScheduler) Start() error {
	_, err := s.cronEngine.AddFunc(s.cronSpec, func() {
		s.logger.Debug("Cron job triggered for finished session purge.")
		s.RunOnce()
	})
	if err != nil {
		return err
	}

	s.cronEngine.Start()
	s.logger.WithField("cron_spec", s.cronSpec).Info("Session purge scheduler started.")
	return nil
}

// RunOnce performs a single purge pass.
func (s *PurgeScheduler) RunOnce() {
	ctx, cancel := context.WithTimeout(context.Background(), 1*time.Minute)
	defer cancel()

	cutoff := s.now().Add(-s.retention)
	if _, err := s.purger.PurgeFinished(ctx, cutoff); err != nil {
		s.logger.WithError(err).Error("Finished session purge failed")
	}
}

func (s *PurgeScheduler) Stop() {
	s.logger.Info("Stopping session purge scheduler...")
	ctx := s.cronEngine.Stop() // Waits for running jobs.
	<-ctx.Done()
	s.logger.Info("Session purge scheduler gracefully stopped.")
}
