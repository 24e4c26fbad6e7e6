package rate

import (
	"context"
	"sync"
	"time"

	"fxhub/internal/domain"

	"github.com/go-co-op/gocron/v2"
	"github.com/sirupsen/logrus"
)

const defaultUpdateInterval = 300 * time.Second

type cycleRunner interface {
	RunUpdateCycle(ctx context.Context) (domain.UpdateOutcome, error)
}

type Scheduler struct {
	cycle  cycleRunner
	logger logrus.FieldLogger
	// -----
	mu                     sync.Mutex
	sched                  gocron.Scheduler
	updateRatesJobDuration time.Duration
}

func (s *Scheduler) Start(ctx context.Context) error {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.sched = scheduler
	s.mu.Unlock()

	job := func(jobCtx context.Context) {
		outcome, updErr := s.cycle.RunUpdateCycle(jobCtx)
		log := s.logger.WithField("exec_id", outcome.ExecID)
		if updErr != nil {
			log.Errorf("Update rates job failed: %v", updErr)
			return
		}
		for _, f := range outcome.Errors {
			log.WithField("source", f.Source).Warnf("Source skipped this cycle: %v", f.Err)
		}
	}

	_, err = scheduler.NewJob(
		gocron.DurationJob(s.updateRatesJobDuration),
		gocron.NewTask(job),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
		gocron.WithStartAt(gocron.WithStartImmediately()),
	)

	if err != nil {
		return err
	}

	scheduler.Start()

	// Stop scheduler when the provided context is canceled.
	go func() {
		<-ctx.Done()
		if sdErr := s.Shutdown(); sdErr != nil {
			s.logger.Errorf("Scheduler shutdown error: %v", sdErr)
		}
	}()
	return nil
}

// Shutdown stops the scheduler; repeated calls are no-ops.
func (s *Scheduler) Shutdown() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.sched == nil {
		return nil
	}
	err := s.sched.Shutdown()
	s.sched = nil
	return err
}

func NewScheduler(cycle cycleRunner, interval time.Duration, logger logrus.FieldLogger) *Scheduler {
	if interval <= 0 {
		interval = defaultUpdateInterval
	}
	return &Scheduler{cycle: cycle, logger: logger, updateRatesJobDuration: interval}
}
