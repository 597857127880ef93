package notify

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"
)

// Job is one scheduled pipeline run. An error means the whole run was
// aborted before dispatch; the next firing retries naturally.
type Job func(ctx context.Context) error

// Scheduler fires the job once per calendar day at the configured local
// wall-clock time. At most one run executes at a time: a firing that
// lands while the previous run is still going is dropped with a log
// line. The fired-day marker lives in memory only, so a restart around
// the fire time can miss or repeat a day.
type Scheduler struct {
	clock  Clock
	hour   int
	minute int
	job    Job
	logger *zap.Logger

	running atomic.Bool
	lastDay string
	stop    chan struct{}
	wg      sync.WaitGroup
}

func NewScheduler(clock Clock, hour, minute int, job Job, logger *zap.Logger) *Scheduler {
	return &Scheduler{
		clock:  clock,
		hour:   hour,
		minute: minute,
		job:    job,
		logger: logger,
		stop:   make(chan struct{}),
	}
}

func (s *Scheduler) Start(ctx context.Context) {
	s.logger.Info("Starting notification scheduler",
		zap.Int("hour", s.hour),
		zap.Int("minute", s.minute),
	)
	s.wg.Add(1)
	go s.loop(ctx)
}

func (s *Scheduler) Stop() {
	s.logger.Info("Stopping notification scheduler...")
	close(s.stop)
	s.wg.Wait()
	s.logger.Info("Notification scheduler stopped")
}

func (s *Scheduler) loop(ctx context.Context) {
	defer s.wg.Done()

	for {
		now := s.clock.Now()
		timer := time.NewTimer(s.NextFire(now).Sub(now))

		select {
		case <-s.stop:
			timer.Stop()
			return
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			s.fire(ctx)
		}
	}
}

// NextFire returns the next configured fire instant strictly after now.
func (s *Scheduler) NextFire(now time.Time) time.Time {
	y, m, d := now.Date()
	at := time.Date(y, m, d, s.hour, s.minute, 0, 0, now.Location())
	if !at.After(now) {
		at = at.AddDate(0, 0, 1)
	}
	return at
}

func (s *Scheduler) fire(ctx context.Context) {
	if !s.running.CompareAndSwap(false, true) {
		s.logger.Warn("previous run still in progress, skipping this firing")
		return
	}
	defer s.running.Store(false)

	day := s.clock.Now().Format("2006-01-02")
	if day == s.lastDay {
		s.logger.Info("already fired today, skipping", zap.String("day", day))
		return
	}

	if err := s.job(ctx); err != nil {
		// day not marked: a failed run may be retried if the clock
		// fires again the same day
		s.logger.Error("scheduled run failed", zap.Error(err))
		return
	}
	s.lastDay = day
}
