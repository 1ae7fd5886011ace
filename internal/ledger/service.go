package ledger

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	FindAutoPurchasesByImport(ctx context.Context, importID int64) ([]SalesRecord, error)
	FindAutoPurchasesBySales(ctx context.Context, salesID int64) ([]SalesRecord, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertRecord(ctx context.Context, rec SalesRecord) (int64, error)
	DeleteAutoPurchasesByImport(ctx context.Context, importID int64) (int64, error)
	DeleteAutoPurchasesBySales(ctx context.Context, salesID int64) (int64, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the auto-ledger bridge: it writes and retracts the paired
// PURCHASE-side rows generated by inventory-affecting events.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// AutoPurchaseInput describes an auto-generated purchase row. Vendor,
// salesperson and category ids are caller-supplied and assumed valid.
type AutoPurchaseInput struct {
	ProductID      int64
	VendorID       int64
	SalespersonID  int64
	CategoryID     int64
	ItemName       string
	Quantity       float64
	UnitPrice      float64
	Date           time.Time
	Source         CostSource
	LinkedSalesID  *int64
	ImportExportID *int64
}

// CreateAutoPurchase writes one PURCHASE row with amount = qty * unitPrice.
// Purchase-side rows never carry margin: cost, margin and marginRate are 0.
func (s *Service) CreateAutoPurchase(ctx context.Context, input AutoPurchaseInput) (SalesRecord, error) {
	if input.ProductID == 0 {
		return SalesRecord{}, ErrInvalidProduct
	}
	if input.Quantity <= 0 {
		return SalesRecord{}, ErrInvalidQuantity
	}
	if !input.Source.Valid() {
		return SalesRecord{}, ErrInvalidSource
	}
	date := input.Date
	if date.IsZero() {
		date = s.now()
	}
	source := input.Source
	rec := SalesRecord{
		Type:           TypePurchase,
		ProductID:      input.ProductID,
		VendorID:       input.VendorID,
		SalespersonID:  input.SalespersonID,
		CategoryID:     input.CategoryID,
		ItemName:       input.ItemName,
		Quantity:       input.Quantity,
		UnitPrice:      input.UnitPrice,
		Amount:         input.Quantity * input.UnitPrice,
		CostSource:     &source,
		LinkedSalesID:  input.LinkedSalesID,
		ImportExportID: input.ImportExportID,
		RecordDate:     date,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertRecord(ctx, rec)
		if err != nil {
			return err
		}
		rec.ID = id
		return nil
	})
	if err != nil {
		return SalesRecord{}, err
	}
	s.recordAudit(ctx, "LEDGER_AUTO_PURCHASE", rec.ID, map[string]any{"source": string(source), "amount": rec.Amount})
	return rec, nil
}

// DeleteByImportID removes all IMPORT_AUTO purchase rows referencing the
// import document. Removing zero rows is not an error.
func (s *Service) DeleteByImportID(ctx context.Context, importID int64) (int64, error) {
	var deleted int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = tx.DeleteAutoPurchasesByImport(ctx, importID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.recordAudit(ctx, "LEDGER_RETRACT_IMPORT", importID, map[string]any{"deleted": deleted})
	}
	return deleted, nil
}

// DeleteBySalesID removes all SALES_AUTO purchase rows referencing the
// sale. Removing zero rows is not an error.
func (s *Service) DeleteBySalesID(ctx context.Context, salesID int64) (int64, error) {
	var deleted int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		deleted, err = tx.DeleteAutoPurchasesBySales(ctx, salesID)
		return err
	})
	if err != nil {
		return 0, err
	}
	if deleted > 0 {
		s.recordAudit(ctx, "LEDGER_RETRACT_SALES", salesID, map[string]any{"deleted": deleted})
	}
	return deleted, nil
}

// FindByImportID lists auto purchase rows referencing the import document.
func (s *Service) FindByImportID(ctx context.Context, importID int64) ([]SalesRecord, error) {
	return s.repo.FindAutoPurchasesByImport(ctx, importID)
}

// FindBySalesID lists auto purchase rows referencing the sale.
func (s *Service) FindBySalesID(ctx context.Context, salesID int64) ([]SalesRecord, error) {
	return s.repo.FindAutoPurchasesBySales(ctx, salesID)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "ledger", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
