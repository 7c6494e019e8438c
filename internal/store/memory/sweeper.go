package memory

import (
	"log/slog"
	"time"

	"github.com/go-co-op/gocron"
)

// Purger removes expired entries and reports how many were dropped.
type Purger interface {
	Purge() int
}

// Sweeper periodically purges expired cache entries.
type Sweeper struct {
	scheduler *gocron.Scheduler
	target    Purger
	interval  time.Duration
	logger    *slog.Logger
}

// NewSweeper creates a sweeper for target. It does nothing until Start.
func NewSweeper(target Purger, interval time.Duration, logger *slog.Logger) *Sweeper {
	return &Sweeper{
		scheduler: gocron.NewScheduler(time.UTC),
		target:    target,
		interval:  interval,
		logger:    logger,
	}
}

// Start schedules the purge job and starts the underlying scheduler.
func (s *Sweeper) Start() error {
	interval := s.interval
	if interval <= 0 {
		interval = 10 * time.Minute
	}

	_, err := s.scheduler.Every(interval).Do(s.sweep)
	if err != nil {
		return err
	}

	s.scheduler.StartAsync()
	s.logger.Info("cache sweeper started", "interval", interval)
	return nil
}

// Stop stops the scheduler and cancels any future runs.
func (s *Sweeper) Stop() {
	if s.scheduler != nil {
		s.scheduler.Stop()
	}
}

func (s *Sweeper) sweep() {
	if n := s.target.Purge(); n > 0 {
		s.logger.Debug("purged expired cache entries", "count", n)
	}
}
