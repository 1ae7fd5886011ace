package lots

import (
	"errors"
	"time"
)

// StorageLocation enumerates where a lot is physically held. Only WAREHOUSE
// lots participate in valuation; OFFICE lots are excluded from costing.
type StorageLocation string

const (
	// StorageWarehouse marks sellable, stored inventory.
	StorageWarehouse StorageLocation = "WAREHOUSE"
	// StorageOffice marks samples and office stock.
	StorageOffice StorageLocation = "OFFICE"
)

// Valid reports whether the location is a known value.
func (l StorageLocation) Valid() bool {
	return l == StorageWarehouse || l == StorageOffice
}

// Lot is a discrete receipt of inventory for one product. QtyReceived is
// immutable once set; QtyRemaining only decreases as stock is consumed.
// The allocated cost components are this lot's fraction of the parent
// import document's aggregate costs, not totals. WarehouseFee is the
// accumulated total storage charge posted against the lot.
type Lot struct {
	ID              int64
	LotCode         string
	ProductID       int64
	VendorID        int64
	ReceivedDate    time.Time
	QtyReceived     float64
	QtyRemaining    float64
	UnitCost        float64
	GoodsAmount     float64
	DutyAmount      float64
	DomesticFreight float64
	OtherCost       float64
	WarehouseFee    float64
	StorageLocation StorageLocation
	ImportExportID  *int64
	CreatedAt       time.Time
}

// LineItem is one line of an import document.
type LineItem struct {
	ProductID int64
	ItemName  string
	Qty       float64
	UnitPrice float64
}

var (
	// ErrInvalidQuantity indicates qty <= 0.
	ErrInvalidQuantity = errors.New("lots: quantity must be > 0")
	// ErrInvalidProduct indicates missing product reference.
	ErrInvalidProduct = errors.New("lots: product required")
	// ErrStorageLocationRequired indicates a lot without a storage location.
	ErrStorageLocationRequired = errors.New("lots: storage location required")
	// ErrNoItems indicates an import without line items.
	ErrNoItems = errors.New("lots: minimal 1 line item")
	// ErrNotFound indicates no lots matched.
	ErrNotFound = errors.New("lots: not found")
)
