package lots

import (
	"context"
	"time"
)

// ReceivedLot describes one created lot for downstream ledger posting.
type ReceivedLot struct {
	LotID        int64
	LotCode      string
	ProductID    int64
	VendorID     int64
	ItemName     string
	Qty          float64
	UnitPrice    float64
	ReceivedDate time.Time
}

// LotsReceivedEvent is emitted after a lot creation batch commits.
type LotsReceivedEvent struct {
	ImportExportID *int64
	LinkedSalesID  *int64
	SalespersonID  int64
	CategoryID     int64
	Lots           []ReceivedLot
}

// LotsDeletedEvent is emitted after all lots of an import document are
// removed, so paired ledger records can be retracted.
type LotsDeletedEvent struct {
	ImportExportID int64
	ProductIDs     []int64
}

// IntegrationHandler receives lot events for ledger integration.
type IntegrationHandler interface {
	HandleLotsReceived(ctx context.Context, evt LotsReceivedEvent) error
	HandleLotsDeleted(ctx context.Context, evt LotsDeletedEvent) error
}
