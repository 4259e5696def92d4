package queue

import (
	"fmt"

	"github.com/hibiken/asynq"

	"library-backend/internal/config"
	borrowingJob "library-backend/internal/domains/borrowing/job"
)

// Scheduler registers the periodic background tasks on a Redis-backed
// asynq scheduler.
type Scheduler struct {
	scheduler *asynq.Scheduler
	cfg       config.WorkerConfig
}

func NewScheduler(redisCfg config.RedisConfig, workerCfg config.WorkerConfig) *Scheduler {
	scheduler := asynq.NewScheduler(
		asynq.RedisClientOpt{
			Addr:     redisCfg.Host,
			Password: redisCfg.Password,
			DB:       redisCfg.DB,
		},
		nil,
	)

	return &Scheduler{
		scheduler: scheduler,
		cfg:       workerCfg,
	}
}

// RegisterJobs wires all cron entries.
func (s *Scheduler) RegisterJobs() error {
	_, err := s.scheduler.Register(
		s.cfg.OverdueReminderCron,
		borrowingJob.NewOverdueReminderTask(),
		asynq.Queue(s.cfg.OverdueReminderQueue),
	)
	if err != nil {
		return fmt.Errorf("failed to register overdue reminder job: %w", err)
	}

	return nil
}

// Start runs the scheduler loop; it blocks until Shutdown.
func (s *Scheduler) Start() error {
	return s.scheduler.Run()
}

func (s *Scheduler) Shutdown() {
	s.scheduler.Shutdown()
}
