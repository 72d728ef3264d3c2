package scheduler

import (
	"context"
	"encoding/json"
	"fmt"

	"opsboard_backend/internal/delaynotice/scanner"
	"opsboard_backend/platform/config"
	"opsboard_backend/platform/logger"

	"github.com/hibiken/asynq"
)

// ScanRunner executes one scan pass. Satisfied by scanner.Scanner.
type ScanRunner interface {
	Run(ctx context.Context, trigger string) (scanner.Stats, error)
}

// Worker consumes queued scan tasks.
type Worker struct {
	server *asynq.Server
	mux    *asynq.ServeMux
}

// NewWorker builds the asynq server and registers the scan handler.
func NewWorker(cfg config.SchedulerConfig, runner ScanRunner, log *logger.Logger) (*Worker, error) {
	opt, err := RedisClientOpt(cfg)
	if err != nil {
		return nil, err
	}

	server := asynq.NewServer(opt, asynq.Config{
		Concurrency: cfg.GetAsynqConcurrency(),
		Queues:      map[string]int{cfg.GetAsynqQueueName(): 1},
		ErrorHandler: asynq.ErrorHandlerFunc(func(ctx context.Context, task *asynq.Task, err error) {
			log.Error("task failed", "type", task.Type(), "error", err.Error())
		}),
	})

	mux := asynq.NewServeMux()
	mux.HandleFunc(TaskScanRun, func(ctx context.Context, task *asynq.Task) error {
		var payload ScanPayload
		if err := json.Unmarshal(task.Payload(), &payload); err != nil {
			return fmt.Errorf("unmarshal scan payload: %w", err)
		}
		if payload.Trigger == "" {
			payload.Trigger = scanner.TriggerOnDemand
		}

		_, err := runner.Run(ctx, payload.Trigger)
		return err
	})

	return &Worker{server: server, mux: mux}, nil
}

// Start begins processing tasks in the background.
func (w *Worker) Start() error {
	return w.server.Start(w.mux)
}

// Shutdown drains in-flight tasks and stops the server.
func (w *Worker) Shutdown() {
	w.server.Shutdown()
}
