// Command scanner runs the deadline scan engine: a recurring in-process
// timer plus an asynq worker for on-demand passes enqueued by the API.
package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/delaynotice/repository"
	"opsboard_backend/internal/delaynotice/scanner"
	"opsboard_backend/internal/email"
	"opsboard_backend/internal/onboarding"
	"opsboard_backend/internal/scheduler"
	"opsboard_backend/internal/tasks"
	"opsboard_backend/internal/workitem"
	"opsboard_backend/platform/config"
	"opsboard_backend/platform/db"
	platformevents "opsboard_backend/platform/events"
	"opsboard_backend/platform/logger"

	"github.com/jackc/pgx/v5/pgxpool"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		logger.New("production").Error("config load failed", "error", err.Error())
		os.Exit(1)
	}
	log := logger.New(cfg.Env)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := connectWithRetry(ctx, cfg, log)
	if err != nil {
		log.Error("database connection failed", "error", err.Error())
		os.Exit(1)
	}
	defer pool.Close()

	if err := db.RunMigrations(ctx, cfg, cfg.MigrationsDir); err != nil {
		log.Error("migrations failed", "error", err.Error())
		os.Exit(1)
	}

	bus := platformevents.NewInMemoryBus(log)
	directory := clients.NewDirectory(pool)

	if cfg.EmailEnabled {
		sender, err := email.NewSender(cfg, log)
		if err != nil {
			log.Error("smtp client setup failed", "error", err.Error())
			os.Exit(1)
		}
		email.NewNotifier(sender, directory, log).Register(bus)
		log.Info("delay notice emails enabled", "smtp_host", cfg.SMTPHost)
	}

	taskRepo := tasks.New(pool)
	onboardingModule := onboarding.NewModule(pool, cfg.GetScanLocation(), log)
	sources := []workitem.Lister{
		tasks.NewAdsSource(taskRepo),
		tasks.NewDepartmentSource(taskRepo),
		tasks.NewOnboardingTaskSource(taskRepo),
		tasks.NewKanbanSource(taskRepo),
		onboardingModule.WorkItemSource(),
	}

	scan := scanner.New(
		sources,
		repository.NewNotifications(pool),
		directory,
		bus,
		cfg.GetScanLocation(),
		log,
	)

	if cfg.RedisURL != "" {
		worker, err := scheduler.NewWorker(cfg, scan, log)
		if err != nil {
			log.Error("worker setup failed", "error", err.Error())
			os.Exit(1)
		}
		if err := worker.Start(); err != nil {
			log.Error("worker start failed", "error", err.Error())
			os.Exit(1)
		}
		defer worker.Shutdown()
		log.Info("on-demand scan worker started", "queue", cfg.AsynqQueueName)
	} else {
		log.Warn("REDIS_URL not set, running timer passes only")
	}

	log.Info("scan loop starting", "interval", cfg.ScanInterval.String())
	scheduler.NewLoop(scan, cfg.ScanInterval, log).Run(ctx)
}

// connectWithRetry dials the pool a few times before giving up.
func connectWithRetry(ctx context.Context, cfg *config.Config, log *logger.Logger) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool
	var err error
	for attempt := 1; attempt <= 5; attempt++ {
		pool, err = db.NewPool(ctx, cfg)
		if err == nil {
			return pool, nil
		}
		log.Warn("database not ready", "attempt", attempt, "error", err.Error())
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case <-time.After(time.Duration(attempt) * time.Second):
		}
	}
	return nil, err
}
