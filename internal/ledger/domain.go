package ledger

import (
	"errors"
	"time"
)

// RecordType discriminates ledger rows.
type RecordType string

const (
	// TypePurchase marks purchase-side rows.
	TypePurchase RecordType = "PURCHASE"
	// TypeSales marks sales-side rows.
	TypeSales RecordType = "SALES"
)

// CostSource tags why an auto-generated row exists, enabling exact
// retraction. Modeled as a closed enumeration so invalid provenance cannot
// reach the store.
type CostSource string

const (
	// SourceImportAuto marks rows generated by import registration.
	SourceImportAuto CostSource = "IMPORT_AUTO"
	// SourceInboundAuto marks rows generated by an inbound-linked sale.
	SourceInboundAuto CostSource = "INBOUND_AUTO"
	// SourceSalesAuto marks rows generated alongside a sales record.
	SourceSalesAuto CostSource = "SALES_AUTO"
)

// Valid reports whether the source is a known value.
func (s CostSource) Valid() bool {
	switch s {
	case SourceImportAuto, SourceInboundAuto, SourceSalesAuto:
		return true
	default:
		return false
	}
}

// SalesRecord is one ledger row. Auto-generated PURCHASE rows always carry
// cost = margin = marginRate = 0 and back-references for retraction.
type SalesRecord struct {
	ID             int64
	Type           RecordType
	ProductID      int64
	VendorID       int64
	SalespersonID  int64
	CategoryID     int64
	ItemName       string
	Quantity       float64
	UnitPrice      float64
	Amount         float64
	Cost           float64
	Margin         float64
	MarginRate     float64
	CostSource     *CostSource
	LinkedSalesID  *int64
	ImportExportID *int64
	RecordDate     time.Time
	CreatedAt      time.Time
}

var (
	// ErrInvalidSource indicates an unknown provenance tag.
	ErrInvalidSource = errors.New("ledger: invalid cost source")
	// ErrInvalidQuantity indicates qty <= 0.
	ErrInvalidQuantity = errors.New("ledger: quantity must be > 0")
	// ErrInvalidProduct indicates missing product reference.
	ErrInvalidProduct = errors.New("ledger: product required")
)
