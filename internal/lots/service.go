package lots

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/shared"
	"github.com/meridian-erp/meridian-erp/internal/valuation"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	ListByImport(ctx context.Context, importID int64) ([]Lot, error)
	ListByProduct(ctx context.Context, productID int64) ([]Lot, error)
}

// ValuationPort triggers product cost recomputation after lot mutations.
type ValuationPort interface {
	Recompute(ctx context.Context, productID int64) (valuation.RecomputeResult, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the lot factory: it turns import documents and single receipts
// into inventory lots and keeps product valuation in sync.
type Service struct {
	repo        RepositoryPort
	valuation   ValuationPort
	audit       AuditPort
	integration IntegrationHandler
	now         func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, valuation ValuationPort, audit AuditPort, integration IntegrationHandler) *Service {
	return &Service{repo: repo, valuation: valuation, audit: audit, integration: integration, now: time.Now}
}

// CreateFromImportInput describes a multi-item lot creation batch. The
// aggregate costs are shared across all line items via equal distribution;
// each lot's unit cost comes from its own line item.
type CreateFromImportInput struct {
	ImportExportID int64
	VendorID       int64
	SalespersonID  int64
	CategoryID     int64
	ReceivedDate   time.Time
	Location       StorageLocation
	Costs          costing.Input
	Items          []LineItem
}

// CreateFromImport distributes the import document's aggregate costs over
// its line items and creates one lot per item inside one transaction.
// Valuation is recomputed synchronously for every affected product, then the
// batch is handed to the ledger integration.
func (s *Service) CreateFromImport(ctx context.Context, input CreateFromImportInput) ([]Lot, error) {
	if len(input.Items) == 0 {
		return nil, ErrNoItems
	}
	if !input.Location.Valid() {
		return nil, ErrStorageLocationRequired
	}
	for _, item := range input.Items {
		if item.ProductID == 0 {
			return nil, ErrInvalidProduct
		}
		if item.Qty <= 0 {
			return nil, ErrInvalidQuantity
		}
	}

	shares, err := costing.Distribute(input.Costs, len(input.Items))
	if err != nil {
		return nil, err
	}

	received := defaultTime(input.ReceivedDate, s.now)
	created := make([]Lot, 0, len(input.Items))
	err = s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		for i, item := range input.Items {
			importID := input.ImportExportID
			lot := Lot{
				LotCode:         lotCode(input.ImportExportID, i+1),
				ProductID:       item.ProductID,
				VendorID:        input.VendorID,
				ReceivedDate:    received,
				QtyReceived:     item.Qty,
				QtyRemaining:    item.Qty,
				UnitCost:        item.UnitPrice,
				GoodsAmount:     shares[i].GoodsAmount,
				DutyAmount:      shares[i].DutyAmount,
				DomesticFreight: shares[i].DomesticFreight,
				OtherCost:       shares[i].OtherCost,
				StorageLocation: input.Location,
				ImportExportID:  &importID,
			}
			id, err := tx.InsertLot(ctx, lot)
			if err != nil {
				return err
			}
			lot.ID = id
			created = append(created, lot)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	if err := s.recomputeProducts(ctx, distinctProducts(created)); err != nil {
		return nil, err
	}
	if s.integration != nil {
		importID := input.ImportExportID
		evt := LotsReceivedEvent{
			ImportExportID: &importID,
			SalespersonID:  input.SalespersonID,
			CategoryID:     input.CategoryID,
			Lots:           receivedLots(created, input.Items),
		}
		if err := s.integration.HandleLotsReceived(ctx, evt); err != nil {
			return nil, err
		}
	}
	s.recordAudit(ctx, "LOTS_CREATE_BATCH", input.ImportExportID, map[string]any{"count": len(created)})
	return created, nil
}

// CreateSingleInput describes a single-receipt lot. Goods amount and the
// other cost components are already home currency; no distribution runs.
type CreateSingleInput struct {
	ImportExportID  *int64
	LinkedSalesID   *int64
	ProductID       int64
	VendorID        int64
	SalespersonID   int64
	CategoryID      int64
	ItemName        string
	Qty             float64
	UnitPrice       float64
	GoodsAmount     float64
	DutyAmount      float64
	DomesticFreight float64
	OtherCost       float64
	ReceivedDate    time.Time
	Location        StorageLocation
}

// CreateSingle creates exactly one lot from caller-supplied totals.
func (s *Service) CreateSingle(ctx context.Context, input CreateSingleInput) (Lot, error) {
	if input.ProductID == 0 {
		return Lot{}, ErrInvalidProduct
	}
	if input.Qty <= 0 {
		return Lot{}, ErrInvalidQuantity
	}
	if !input.Location.Valid() {
		return Lot{}, ErrStorageLocationRequired
	}

	received := defaultTime(input.ReceivedDate, s.now)
	parent := int64(0)
	if input.ImportExportID != nil {
		parent = *input.ImportExportID
	}
	lot := Lot{
		LotCode:         lotCode(parent, 1),
		ProductID:       input.ProductID,
		VendorID:        input.VendorID,
		ReceivedDate:    received,
		QtyReceived:     input.Qty,
		QtyRemaining:    input.Qty,
		UnitCost:        input.UnitPrice,
		GoodsAmount:     input.GoodsAmount,
		DutyAmount:      input.DutyAmount,
		DomesticFreight: input.DomesticFreight,
		OtherCost:       input.OtherCost,
		StorageLocation: input.Location,
		ImportExportID:  input.ImportExportID,
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertLot(ctx, lot)
		if err != nil {
			return err
		}
		lot.ID = id
		return nil
	})
	if err != nil {
		return Lot{}, err
	}

	if err := s.recomputeProducts(ctx, []int64{lot.ProductID}); err != nil {
		return Lot{}, err
	}
	if s.integration != nil {
		evt := LotsReceivedEvent{
			ImportExportID: input.ImportExportID,
			LinkedSalesID:  input.LinkedSalesID,
			SalespersonID:  input.SalespersonID,
			CategoryID:     input.CategoryID,
			Lots: []ReceivedLot{{
				LotID:        lot.ID,
				LotCode:      lot.LotCode,
				ProductID:    lot.ProductID,
				VendorID:     lot.VendorID,
				ItemName:     input.ItemName,
				Qty:          lot.QtyReceived,
				UnitPrice:    lot.UnitCost,
				ReceivedDate: lot.ReceivedDate,
			}},
		}
		if err := s.integration.HandleLotsReceived(ctx, evt); err != nil {
			return Lot{}, err
		}
	}
	s.recordAudit(ctx, "LOT_CREATE", lot.ID, map[string]any{"lot_code": lot.LotCode})
	return lot, nil
}

// RelocateByImport moves every lot of the import document to location.
func (s *Service) RelocateByImport(ctx context.Context, importID int64, location StorageLocation) (int64, error) {
	if importID == 0 {
		return 0, ErrNotFound
	}
	if !location.Valid() {
		return 0, ErrStorageLocationRequired
	}
	var moved int64
	var affected []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		moved, affected, err = tx.RelocateByImport(ctx, importID, location)
		return err
	})
	if err != nil {
		return 0, err
	}
	// Moving lots in or out of WAREHOUSE changes the qualifying lot set.
	if err := s.recomputeProducts(ctx, affected); err != nil {
		return moved, err
	}
	s.recordAudit(ctx, "LOTS_RELOCATE", importID, map[string]any{"location": string(location), "moved": moved})
	return moved, nil
}

// DeleteByImport removes every lot of the import document and returns the
// affected product ids. Valuation is recomputed for each before the paired
// ledger rows are retracted. Deleting zero lots is not an error.
func (s *Service) DeleteByImport(ctx context.Context, importID int64) ([]int64, error) {
	if importID == 0 {
		return nil, ErrNotFound
	}
	var affected []int64
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		var err error
		affected, err = tx.DeleteByImport(ctx, importID)
		return err
	})
	if err != nil {
		return nil, err
	}
	if err := s.recomputeProducts(ctx, affected); err != nil {
		return affected, err
	}
	if s.integration != nil {
		evt := LotsDeletedEvent{ImportExportID: importID, ProductIDs: affected}
		if err := s.integration.HandleLotsDeleted(ctx, evt); err != nil {
			return affected, err
		}
	}
	s.recordAudit(ctx, "LOTS_DELETE_BATCH", importID, map[string]any{"products": len(affected)})
	return affected, nil
}

// ListByImport lists the lots of one import document.
func (s *Service) ListByImport(ctx context.Context, importID int64) ([]Lot, error) {
	if importID == 0 {
		return nil, ErrNotFound
	}
	return s.repo.ListByImport(ctx, importID)
}

// ItemsChanged reports whether the proposed item list differs from the
// existing lot set as a multiset of (productID, qty) pairs, in any order.
// The editing workflow uses it to decide whether lots must be rebuilt.
func ItemsChanged(existing []Lot, proposed []LineItem) bool {
	if len(existing) != len(proposed) {
		return true
	}
	counts := make(map[[2]int64]int, len(existing))
	for _, lot := range existing {
		counts[pairKey(lot.ProductID, lot.QtyReceived)]++
	}
	for _, item := range proposed {
		k := pairKey(item.ProductID, item.Qty)
		counts[k]--
		if counts[k] < 0 {
			return true
		}
	}
	return false
}

func pairKey(productID int64, qty float64) [2]int64 {
	// Quantities are compared at 3-decimal precision.
	return [2]int64{productID, int64(qty*1000 + 0.5)}
}

func (s *Service) recomputeProducts(ctx context.Context, productIDs []int64) error {
	if s.valuation == nil {
		return nil
	}
	for _, id := range productIDs {
		if _, err := s.valuation.Recompute(ctx, id); err != nil {
			return fmt.Errorf("lots: recompute product %d: %w", id, err)
		}
	}
	return nil
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "lots", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}

// lotCode builds a human-scannable code with a random suffix so re-imports
// of the same document never collide.
func lotCode(importID int64, index int) string {
	return fmt.Sprintf("LOT-%d-%d-%s", importID, index, uuid.NewString()[:8])
}

func distinctProducts(created []Lot) []int64 {
	seen := make(map[int64]bool, len(created))
	ids := make([]int64, 0, len(created))
	for _, lot := range created {
		if !seen[lot.ProductID] {
			seen[lot.ProductID] = true
			ids = append(ids, lot.ProductID)
		}
	}
	return ids
}

func receivedLots(created []Lot, items []LineItem) []ReceivedLot {
	out := make([]ReceivedLot, 0, len(created))
	for i, lot := range created {
		name := ""
		if i < len(items) {
			name = items[i].ItemName
		}
		out = append(out, ReceivedLot{
			LotID:        lot.ID,
			LotCode:      lot.LotCode,
			ProductID:    lot.ProductID,
			VendorID:     lot.VendorID,
			ItemName:     name,
			Qty:          lot.QtyReceived,
			UnitPrice:    lot.UnitCost,
			ReceivedDate: lot.ReceivedDate,
		})
	}
	return out
}

func defaultTime(value time.Time, now func() time.Time) time.Time {
	if value.IsZero() {
		return now()
	}
	return value
}
