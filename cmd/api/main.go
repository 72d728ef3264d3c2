// Command api runs the HTTP server: pending notifications, justifications,
// onboarding breach status, churn workflows, and the on-demand scan trigger.
package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"opsboard_backend/internal/churn"
	"opsboard_backend/internal/clients"
	"opsboard_backend/internal/delaynotice"
	"opsboard_backend/internal/delaynotice/handler"
	"opsboard_backend/internal/email"
	apphttp "opsboard_backend/internal/http"
	"opsboard_backend/internal/http/router"
	"opsboard_backend/internal/onboarding"
	"opsboard_backend/internal/scheduler"
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
	clientRepo := clients.New(pool)

	if cfg.EmailEnabled {
		sender, err := email.NewSender(cfg, log)
		if err != nil {
			log.Error("smtp client setup failed", "error", err.Error())
			os.Exit(1)
		}
		email.NewNotifier(sender, directory, log).Register(bus)
		log.Info("delay notice emails enabled", "smtp_host", cfg.SMTPHost)
	}

	var enqueuer handler.ScanEnqueuer
	if cfg.RedisURL != "" {
		client, err := scheduler.NewClient(cfg, log)
		if err != nil {
			log.Error("scheduler client setup failed", "error", err.Error())
			os.Exit(1)
		}
		defer client.Close()
		enqueuer = client
	} else {
		log.Warn("REDIS_URL not set, on-demand scans disabled")
	}

	app := &apphttp.App{
		Config:   cfg,
		Logger:   log,
		Health:   pool,
		EventBus: bus,
		Modules: []apphttp.Module{
			delaynotice.NewModule(pool, enqueuer, log),
			onboarding.NewModule(pool, cfg.GetScanLocation(), log),
			churn.NewModule(pool, clientRepo, bus, log),
		},
	}

	server := &http.Server{
		Addr:              cfg.HTTPAddr,
		Handler:           router.New(app),
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		log.Info("http server listening", "addr", cfg.HTTPAddr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Error("http server failed", "error", err.Error())
			stop()
		}
	}()

	<-ctx.Done()
	log.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("http shutdown failed", "error", err.Error())
	}
}

// connectWithRetry dials the pool a few times before giving up, so the API
// survives a database that comes up a moment later than the app container.
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
