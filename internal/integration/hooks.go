// Package integration wires lot lifecycle events into the ledger so that
// inventory movements and bookkeeping rows stay paired.
package integration

import (
	"context"
	"log/slog"

	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/lots"
)

// LedgerPort abstracts the ledger operations used by the hooks.
type LedgerPort interface {
	CreateAutoPurchase(ctx context.Context, input ledger.AutoPurchaseInput) (ledger.SalesRecord, error)
	DeleteByImportID(ctx context.Context, importID int64) (int64, error)
}

// LedgerHooks translates lot events into ledger auto purchases.
type LedgerHooks struct {
	ledger LedgerPort
	logger *slog.Logger
}

// NewLedgerHooks builds LedgerHooks.
func NewLedgerHooks(svc LedgerPort, logger *slog.Logger) *LedgerHooks {
	if logger == nil {
		logger = slog.Default()
	}
	return &LedgerHooks{ledger: svc, logger: logger}
}

var _ lots.IntegrationHandler = (*LedgerHooks)(nil)

// HandleLotsReceived writes one PURCHASE row per received lot. Batch imports
// are tagged IMPORT_AUTO; single receipts linked to a sale are tagged
// INBOUND_AUTO so each path retracts independently.
func (h *LedgerHooks) HandleLotsReceived(ctx context.Context, evt lots.LotsReceivedEvent) error {
	source := ledger.SourceImportAuto
	if evt.ImportExportID == nil && evt.LinkedSalesID != nil {
		source = ledger.SourceInboundAuto
	}
	for _, lot := range evt.Lots {
		_, err := h.ledger.CreateAutoPurchase(ctx, ledger.AutoPurchaseInput{
			ProductID:      lot.ProductID,
			VendorID:       lot.VendorID,
			SalespersonID:  evt.SalespersonID,
			CategoryID:     evt.CategoryID,
			ItemName:       lot.ItemName,
			Quantity:       lot.Qty,
			UnitPrice:      lot.UnitPrice,
			Date:           lot.ReceivedDate,
			Source:         source,
			LinkedSalesID:  evt.LinkedSalesID,
			ImportExportID: evt.ImportExportID,
		})
		if err != nil {
			h.logger.Error("auto purchase gagal dibuat", slog.Int64("product_id", lot.ProductID), slog.String("error", err.Error()))
			return err
		}
	}
	return nil
}

// HandleLotsDeleted retracts the import's auto purchase rows.
func (h *LedgerHooks) HandleLotsDeleted(ctx context.Context, evt lots.LotsDeletedEvent) error {
	deleted, err := h.ledger.DeleteByImportID(ctx, evt.ImportExportID)
	if err != nil {
		h.logger.Error("retraksi auto purchase gagal", slog.Int64("import_export_id", evt.ImportExportID), slog.String("error", err.Error()))
		return err
	}
	h.logger.Info("auto purchase diretraksi", slog.Int64("import_export_id", evt.ImportExportID), slog.Int64("deleted", deleted))
	return nil
}
