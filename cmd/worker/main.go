package main

import (
	stdlog "log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"library-backend/pkg/container"
	"library-backend/pkg/logger"
)

func main() {
	if err := godotenv.Load(); err != nil {
		stdlog.Println("no .env file found, using system environment variables")
	}

	c, err := container.NewContainer()
	if err != nil {
		stdlog.Fatalf("failed to initialize container: %v", err)
	}
	defer c.Cleanup()

	logger.Init(c.Config.App.Environment)

	srv := setupAsynqServer(c)
	scheduler := setupScheduler(c)

	log.Info().
		Int("concurrency", c.Config.Worker.Concurrency).
		Str("overdue_cron", c.Config.Worker.OverdueReminderCron).
		Msg("worker started")

	waitForShutdown(srv, scheduler)
}

func waitForShutdown(srv *asynqServer, scheduler *asynqScheduler) {
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, os.Interrupt, syscall.SIGTERM)
	<-quit

	log.Info().Msg("gracefully stopping worker")
	scheduler.Shutdown()
	srv.Shutdown()
	log.Info().Msg("worker stopped")
}
