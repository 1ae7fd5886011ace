package jobs

import (
	"encoding/json"
	"time"

	"github.com/hibiken/asynq"
)

const (
	// QueueDefault is the default queue name for background jobs.
	QueueDefault = "default"
	// TaskStorageRateRefresh recomputes the cached storage-cost rate.
	TaskStorageRateRefresh = "storage:rate-refresh"
	// TaskValuationSweep recomputes costs for every product with live lots.
	TaskValuationSweep = "valuation:sweep"
)

// StorageRateRefreshPayload carries scheduling metadata.
type StorageRateRefreshPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewStorageRateRefreshTask constructs an Asynq task for the rate refresh.
func NewStorageRateRefreshTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(StorageRateRefreshPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskStorageRateRefresh, body, asynq.Queue(QueueDefault)), nil
}

// ValuationSweepPayload carries scheduling metadata.
type ValuationSweepPayload struct {
	ScheduledFor time.Time `json:"scheduled_for"`
}

// NewValuationSweepTask constructs an Asynq task for the valuation sweep.
func NewValuationSweepTask(at time.Time) (*asynq.Task, error) {
	body, err := json.Marshal(ValuationSweepPayload{ScheduledFor: at})
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskValuationSweep, body, asynq.Queue(QueueDefault)), nil
}
