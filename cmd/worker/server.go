package main

import (
	"context"

	"github.com/hibiken/asynq"
	"github.com/rs/zerolog/log"

	borrowingJob "library-backend/internal/domains/borrowing/job"
	"library-backend/pkg/container"
)

// asynqServer wraps asynq.Server with startup and shutdown helpers.
type asynqServer struct {
	*asynq.Server
}

func setupAsynqServer(c *container.Container) *asynqServer {
	mux := asynq.NewServeMux()
	mux.Handle(
		borrowingJob.TypeOverdueReminder,
		borrowingJob.NewOverdueReminderHandler(c.BorrowingRepo, c.Notifier),
	)

	srv := asynq.NewServer(
		asynq.RedisClientOpt{
			Addr:     c.Config.Redis.Host,
			Password: c.Config.Redis.Password,
			DB:       c.Config.Redis.DB,
		},
		asynq.Config{
			Concurrency: c.Config.Worker.Concurrency,
			Queues: map[string]int{
				"default": 10,
				"low":     5,
			},
			ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
				log.Error().Err(err).Str("type", task.Type()).Msg("task failed")
			}),
		},
	)

	go func() {
		if err := srv.Run(mux); err != nil {
			log.Fatal().Err(err).Msg("worker server failed")
		}
	}()

	return &asynqServer{Server: srv}
}

func (s *asynqServer) Shutdown() {
	log.Info().Msg("shutting down worker server")
	s.Server.Shutdown()
}
