package storagecost

import (
	"errors"
	"time"
)

// Expense is a posted warehouse-fee period. Read-only input: expenses are
// posted by the bookkeeping side and never mutated here.
type Expense struct {
	ID       int64
	Period   string
	DateFrom time.Time
	DateTo   time.Time
	Amount   float64
}

// Breakdown is the read-only reporting view of a product's cost with the
// global storage rate applied. It intentionally diverges from the valuation
// engine's persisted cost, which uses accumulated per-lot warehouse fees;
// the rate view is a reporting estimate, not bookkeeping.
type Breakdown struct {
	ProductID            int64   `json:"productId"`
	BaseAvgCost          float64 `json:"baseAvgCost"`
	StorageCostPerUnit   float64 `json:"storageCostPerUnit"`
	TotalCostWithStorage float64 `json:"totalCostWithStorage"`
	StorageCostRate      float64 `json:"storageCostRate"`
}

// ErrInvalidProduct indicates a missing product reference.
var ErrInvalidProduct = errors.New("storagecost: product required")
