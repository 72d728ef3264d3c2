// Package scheduler runs the deadline scan on a recurring timer and over an
// asynq queue for on-demand passes triggered from the API.
package scheduler

import (
	"encoding/json"
	"fmt"

	"github.com/hibiken/asynq"
)

// TaskScanRun is the asynq task type for one deadline scan pass.
const TaskScanRun = "scan.run"

// ScanPayload carries the trigger label into the worker.
type ScanPayload struct {
	Trigger string `json:"trigger"`
}

// NewScanTask builds the asynq task for a scan pass.
func NewScanTask(trigger string) (*asynq.Task, error) {
	payload, err := json.Marshal(ScanPayload{Trigger: trigger})
	if err != nil {
		return nil, fmt.Errorf("marshal scan payload: %w", err)
	}
	return asynq.NewTask(TaskScanRun, payload), nil
}
