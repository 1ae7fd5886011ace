package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/meridian-erp/meridian-erp/internal/storagecost"
)

// NewStorageRateRefreshHandler returns the handler for TaskStorageRateRefresh.
// New expenses are posted monthly; the refresh keeps the cached rate from
// serving a stale month after posting.
func NewStorageRateRefreshHandler(svc *storagecost.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload StorageRateRefreshPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		rate, err := svc.RefreshRate(ctx)
		if err != nil {
			logger.Error("storage rate refresh failed", slog.Any("error", err))
			return err
		}
		logger.Info("storage rate refreshed", slog.Float64("rate", rate))
		return nil
	}
}
