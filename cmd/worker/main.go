package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/hibiken/asynq"

	"github.com/ignatzorin/crowdship-backend/internal/app"
	"github.com/ignatzorin/crowdship-backend/internal/config"
	"github.com/ignatzorin/crowdship-backend/internal/infrastructure/queue"
	"github.com/ignatzorin/crowdship-backend/internal/logger"
)

const (
	sweepSpec  = "@every 5m"
	sweepBatch = 200
)

// Воркер исполняет отложенные задачи истечения матчей и периодический обход.
func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("worker: ошибка загрузки конфигурации: %v", err)
	}
	logger.Init("info")
	if cfg.Env == "development" {
		logger.SetTextFormatter()
	}
	if !cfg.Redis.Enabled() {
		log.Fatalf("worker: для очереди задач нужен REDIS_ADDR")
	}

	infra, err := app.Open(ctx, cfg, app.OpenOptions{})
	if err != nil {
		log.Fatalf("worker: ошибка подключения инфраструктуры: %v", err)
	}
	defer infra.Close()

	// Воркер не держит WebSocket подключений, уведомления идут через Kafka.
	uc := app.NewUseCases(cfg, infra, app.NewRepositories(infra), nil)

	redisOpt := queue.RedisOpt(cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
	server := asynq.NewServer(redisOpt, asynq.Config{
		Concurrency: cfg.WorkerConcurrency,
		Logger:      logger.Log,
	})
	processor := queue.NewProcessor(uc.ExpireMatch)

	scheduler := asynq.NewScheduler(redisOpt, &asynq.SchedulerOpts{Location: time.UTC, Logger: logger.Log})
	sweep, err := queue.NewSweepTask(sweepBatch)
	if err != nil {
		log.Fatalf("worker: %v", err)
	}
	if _, err := scheduler.Register(sweepSpec, sweep, asynq.Unique(time.Minute)); err != nil {
		log.Fatalf("worker: не удалось зарегистрировать обход: %v", err)
	}
	if err := scheduler.Start(); err != nil {
		log.Fatalf("worker: не удалось запустить планировщик: %v", err)
	}

	go func() {
		<-ctx.Done()
		scheduler.Shutdown()
		server.Shutdown()
	}()

	logger.Log.WithField("concurrency", cfg.WorkerConcurrency).Info("воркер запущен")
	if err := server.Run(processor.Handler()); err != nil {
		logger.Log.WithError(err).Error("воркер остановлен")
		os.Exit(1)
	}
}
