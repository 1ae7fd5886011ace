package catalog

import (
	"errors"
	"time"
)

// Product is the product master record. CurrentCost is the live
// weighted-average cost owned by the valuation engine; catalog CRUD only
// mutates the static fields and DefaultPurchasePrice.
type Product struct {
	ID                   int64
	Code                 string
	Name                 string
	Unit                 string
	DefaultPurchasePrice float64
	CurrentCost          *float64
	LastCostUpdatedAt    *time.Time
	CreatedAt            time.Time
	UpdatedAt            time.Time
}

// PriceHistoryEntry is one row of the append-only purchase price ledger.
// Entries are never mutated or deleted.
type PriceHistoryEntry struct {
	ID            int64
	ProductID     int64
	EffectiveDate time.Time
	PurchasePrice float64
	Notes         string
	CreatedAt     time.Time
}

var (
	// ErrNotFound indicates product missing.
	ErrNotFound = errors.New("catalog: product not found")
	// ErrValidation indicates invalid input.
	ErrValidation = errors.New("catalog: invalid input")
	// ErrDuplicateCode indicates the product code already exists.
	ErrDuplicateCode = errors.New("catalog: product code already exists")
)
