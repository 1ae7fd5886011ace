package jobs

import (
	"context"
	"encoding/json"
	"log/slog"

	"github.com/hibiken/asynq"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/valuation"
)

// NewValuationSweepHandler returns the handler for TaskValuationSweep. It
// recomputes every product holding live warehouse lots; per-product advisory
// locks make the parallel recomputes safe against concurrent API writes.
func NewValuationSweepHandler(svc *valuation.Service, logger *slog.Logger) asynq.HandlerFunc {
	return func(ctx context.Context, t *asynq.Task) error {
		var payload ValuationSweepPayload
		if err := json.Unmarshal(t.Payload(), &payload); err != nil {
			return asynq.SkipRetry
		}
		productIDs, err := svc.ProductsWithLiveLots(ctx)
		if err != nil {
			logger.Error("valuation sweep list failed", slog.Any("error", err))
			return err
		}

		g, ctx := errgroup.WithContext(ctx)
		g.SetLimit(4)
		for _, productID := range productIDs {
			productID := productID
			g.Go(func() error {
				_, err := svc.Recompute(ctx, productID)
				if err != nil {
					logger.Error("valuation sweep recompute failed",
						slog.Int64("product_id", productID), slog.Any("error", err))
				}
				return err
			})
		}
		if err := g.Wait(); err != nil {
			return err
		}
		logger.Info("valuation sweep done", slog.Int("products", len(productIDs)))
		return nil
	}
}
