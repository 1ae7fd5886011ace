package valuation

import (
	"errors"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// CostSource tags where a reported cost came from, so callers can branch on
// provenance instead of treating zero as a real cost.
type CostSource string

const (
	// CostSourceCurrent means the live weighted-average cost was used.
	CostSourceCurrent CostSource = "CURRENT"
	// CostSourceDefault means the fallback default purchase price was used.
	CostSourceDefault CostSource = "DEFAULT"
	// CostSourceNone means no cost data exists; the value is zero.
	CostSourceNone CostSource = "NONE"
)

// LotValue is the slice of an inventory lot the engine needs: remaining
// quantity, per-unit base cost at receipt, and the accumulated storage fee
// posted against the lot (a lot total, not a per-unit rate).
type LotValue struct {
	LotID        int64
	QtyRemaining float64
	UnitCost     float64
	WarehouseFee float64
}

// MonthlyCost is the per-product monthly snapshot, upserted by
// (productID, yearMonth). Reruns in the same month overwrite in place.
type MonthlyCost struct {
	ProductID   int64
	YearMonth   shared.YearMonth
	BaseCost    float64
	StorageCost float64
	TotalCost   float64
	Quantity    float64
	ComputedAt  time.Time
}

// RecomputeResult reports one recompute run. NoData means no qualifying
// lots existed and the product was left untouched; it is not an error.
type RecomputeResult struct {
	NoData      bool
	CurrentCost float64
	BaseCost    float64
	StorageCost float64
	Quantity    float64
	YearMonth   shared.YearMonth
}

// CostLookup is the result of the cost fallback chain.
type CostLookup struct {
	Cost   float64
	Source CostSource
}

// ErrInvalidProduct indicates a missing product reference.
var ErrInvalidProduct = errors.New("valuation: product required")
