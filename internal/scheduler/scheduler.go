package scheduler

import (
	"time"

	"github.com/robfig/cron/v3"

	"github.com/markaz-center/markazbot/internal/logger"
)

// Runner is a pass the scheduler fires on every tick. Runners guard their own
// overlap; a tick that lands mid-pass is skipped by the runner itself.
type Runner interface {
	Run()
}

// Scheduler drives all recurring passes off a single interval in the business
// timezone.
type Scheduler struct {
	engine   *cron.Cron
	interval time.Duration
	runners  []Runner
}

func NewScheduler(loc *time.Location, interval time.Duration, runners ...Runner) *Scheduler {
	cronLog := cron.PrintfLogger(logger.Log)
	return &Scheduler{
		engine: cron.New(
			cron.WithLocation(loc),
			cron.WithChain(cron.SkipIfStillRunning(cronLog)),
		),
		interval: interval,
		runners:  runners,
	}
}

func (s *Scheduler) Start() {
	for _, r := range s.runners {
		s.engine.Schedule(cron.Every(s.interval), r)
	}
	s.engine.Start()
	logger.Log.WithField("interval", s.interval.String()).Info("scheduler started")
}

// Stop halts future ticks and waits for in-flight passes to finish.
func (s *Scheduler) Stop() {
	ctx := s.engine.Stop()
	<-ctx.Done()
	logger.Log.Info("scheduler stopped")
}
