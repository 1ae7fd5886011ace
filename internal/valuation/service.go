package valuation

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProductCost(ctx context.Context, productID int64) (ProductCostRow, error)
	ListMonthlyCosts(ctx context.Context, productID int64, limit int) ([]MonthlyCost, error)
	ListProductsWithLiveLots(ctx context.Context) ([]int64, error)
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	// AcquireProductLock takes the per-product advisory lock for the
	// duration of the transaction, serializing concurrent recomputes.
	AcquireProductLock(ctx context.Context, key int64) error
	ListLiveWarehouseLots(ctx context.Context, productID int64) ([]LotValue, error)
	UpdateProductCost(ctx context.Context, productID int64, cost float64, at time.Time) error
	UpsertMonthlyCost(ctx context.Context, mc MonthlyCost) error
}

// ProductCostRow is the product slice needed for the fallback chain.
type ProductCostRow struct {
	CurrentCost          *float64
	DefaultPurchasePrice float64
}

// ErrProductCostNotFound indicates the product row is missing.
var ErrProductCostNotFound = errors.New("valuation: product cost row not found")

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service is the valuation engine. It is the only writer of
// Product.currentCost: every mutating path (new lots, lot deletion,
// consumption, storage fee posting) funnels through Recompute.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// WithClock overrides the clock, for tests and backdated runs.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Recompute recalculates the product's weighted-average cost from its live
// WAREHOUSE lots and persists both the live cost and the monthly snapshot.
// With no qualifying lots the product is left unchanged and NoData is set.
//
// totalCost adds each lot's accumulated warehouse fee once per lot; the fee
// is a lot total and is not scaled by quantity.
func (s *Service) Recompute(ctx context.Context, productID int64) (RecomputeResult, error) {
	if productID == 0 {
		return RecomputeResult{}, ErrInvalidProduct
	}
	now := s.now()
	result := RecomputeResult{YearMonth: shared.YearMonthOf(now)}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.AcquireProductLock(ctx, shared.ProductCostLockKey(productID)); err != nil {
			return err
		}
		lots, err := tx.ListLiveWarehouseLots(ctx, productID)
		if err != nil {
			return err
		}
		if len(lots) == 0 {
			result.NoData = true
			return nil
		}

		var totalQty, baseTotal, feeTotal float64
		for _, lot := range lots {
			totalQty += lot.QtyRemaining
			baseTotal += lot.QtyRemaining * lot.UnitCost
			feeTotal += lot.WarehouseFee
		}
		totalCost := baseTotal + feeTotal
		result.CurrentCost = totalCost / totalQty
		result.BaseCost = baseTotal / totalQty
		result.StorageCost = feeTotal / totalQty
		result.Quantity = totalQty

		if err := tx.UpdateProductCost(ctx, productID, result.CurrentCost, now); err != nil {
			return err
		}
		return tx.UpsertMonthlyCost(ctx, MonthlyCost{
			ProductID:   productID,
			YearMonth:   result.YearMonth,
			BaseCost:    result.BaseCost,
			StorageCost: result.StorageCost,
			TotalCost:   result.CurrentCost,
			Quantity:    totalQty,
			ComputedAt:  now,
		})
	})
	if err != nil {
		return RecomputeResult{}, err
	}
	if !result.NoData && s.audit != nil {
		_ = s.audit.Record(ctx, shared.AuditLog{
			Action:   "VALUATION_RECOMPUTE",
			Entity:   "product",
			EntityID: fmt.Sprintf("%d", productID),
			Meta:     map[string]any{"current_cost": result.CurrentCost, "quantity": result.Quantity},
		})
	}
	return result, nil
}

// GetCurrentCost resolves the product's cost through the fallback chain:
// currentCost when set and positive, else defaultPurchasePrice when
// positive, else zero tagged NONE. A missing product also yields NONE;
// consumers must branch on the tag, never on the zero.
func (s *Service) GetCurrentCost(ctx context.Context, productID int64) (CostLookup, error) {
	if productID == 0 {
		return CostLookup{}, ErrInvalidProduct
	}
	row, err := s.repo.GetProductCost(ctx, productID)
	if err != nil {
		if errors.Is(err, ErrProductCostNotFound) {
			return CostLookup{Source: CostSourceNone}, nil
		}
		return CostLookup{}, err
	}
	if row.CurrentCost != nil && *row.CurrentCost > 0 {
		return CostLookup{Cost: *row.CurrentCost, Source: CostSourceCurrent}, nil
	}
	if row.DefaultPurchasePrice > 0 {
		return CostLookup{Cost: row.DefaultPurchasePrice, Source: CostSourceDefault}, nil
	}
	return CostLookup{Source: CostSourceNone}, nil
}

// MonthlyHistory lists monthly cost snapshots, most recent month first.
func (s *Service) MonthlyHistory(ctx context.Context, productID int64, limit int) ([]MonthlyCost, error) {
	if productID == 0 {
		return nil, ErrInvalidProduct
	}
	if limit <= 0 {
		limit = 24
	}
	return s.repo.ListMonthlyCosts(ctx, productID, limit)
}

// ProductsWithLiveLots lists product ids that currently hold live warehouse
// lots; the valuation sweep job recomputes each.
func (s *Service) ProductsWithLiveLots(ctx context.Context) ([]int64, error) {
	return s.repo.ListProductsWithLiveLots(ctx)
}
