package lots

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/costing"
	"github.com/meridian-erp/meridian-erp/internal/valuation"
)

type memoryRepo struct {
	lots   map[int64]Lot
	nextID int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{lots: make(map[int64]Lot)}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) ListByImport(ctx context.Context, importID int64) ([]Lot, error) {
	var out []Lot
	for _, lot := range r.lots {
		if lot.ImportExportID != nil && *lot.ImportExportID == importID {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (r *memoryRepo) ListByProduct(ctx context.Context, productID int64) ([]Lot, error) {
	var out []Lot
	for _, lot := range r.lots {
		if lot.ProductID == productID {
			out = append(out, lot)
		}
	}
	return out, nil
}

func (tx *memoryTx) InsertLot(ctx context.Context, lot Lot) (int64, error) {
	tx.repo.nextID++
	lot.ID = tx.repo.nextID
	tx.repo.lots[lot.ID] = lot
	return lot.ID, nil
}

func (tx *memoryTx) RelocateByImport(ctx context.Context, importID int64, location StorageLocation) (int64, []int64, error) {
	var moved int64
	seen := make(map[int64]bool)
	var products []int64
	for id, lot := range tx.repo.lots {
		if lot.ImportExportID != nil && *lot.ImportExportID == importID {
			lot.StorageLocation = location
			tx.repo.lots[id] = lot
			moved++
			if !seen[lot.ProductID] {
				seen[lot.ProductID] = true
				products = append(products, lot.ProductID)
			}
		}
	}
	return moved, products, nil
}

func (tx *memoryTx) DeleteByImport(ctx context.Context, importID int64) ([]int64, error) {
	seen := make(map[int64]bool)
	var products []int64
	for id, lot := range tx.repo.lots {
		if lot.ImportExportID != nil && *lot.ImportExportID == importID {
			delete(tx.repo.lots, id)
			if !seen[lot.ProductID] {
				seen[lot.ProductID] = true
				products = append(products, lot.ProductID)
			}
		}
	}
	return products, nil
}

type fakeValuation struct {
	recomputed []int64
}

func (f *fakeValuation) Recompute(ctx context.Context, productID int64) (valuation.RecomputeResult, error) {
	f.recomputed = append(f.recomputed, productID)
	return valuation.RecomputeResult{}, nil
}

type fakeIntegration struct {
	received []LotsReceivedEvent
	deleted  []LotsDeletedEvent
}

func (f *fakeIntegration) HandleLotsReceived(ctx context.Context, evt LotsReceivedEvent) error {
	f.received = append(f.received, evt)
	return nil
}

func (f *fakeIntegration) HandleLotsDeleted(ctx context.Context, evt LotsDeletedEvent) error {
	f.deleted = append(f.deleted, evt)
	return nil
}

func amount(v float64) costing.Amount { return costing.AmountOf(v) }

func TestCreateFromImportDistributesCosts(t *testing.T) {
	repo := newMemoryRepo()
	val := &fakeValuation{}
	hooks := &fakeIntegration{}
	svc := NewService(repo, val, nil, hooks)

	created, err := svc.CreateFromImport(context.Background(), CreateFromImportInput{
		ImportExportID: 42,
		VendorID:       1,
		Location:       StorageWarehouse,
		Costs: costing.Input{
			GoodsAmount:  amount(300),
			ExchangeRate: amount(1300),
			DutyAmount:   amount(10000),
			ShippingCost: amount(5000),
		},
		Items: []LineItem{
			{ProductID: 10, ItemName: "Komponen A", Qty: 3, UnitPrice: 1500},
			{ProductID: 11, ItemName: "Komponen B", Qty: 2, UnitPrice: 2500},
			{ProductID: 10, ItemName: "Komponen A", Qty: 1, UnitPrice: 1500},
		},
	})
	require.NoError(t, err)
	require.Len(t, created, 3)

	var goodsSum, dutySum, freightSum float64
	for _, lot := range created {
		goodsSum += lot.GoodsAmount
		dutySum += lot.DutyAmount
		freightSum += lot.DomesticFreight
		require.Equal(t, StorageWarehouse, lot.StorageLocation)
		require.NotNil(t, lot.ImportExportID)
		require.EqualValues(t, 42, *lot.ImportExportID)
	}
	require.InDelta(t, 390000.0, goodsSum, 0.001)
	require.InDelta(t, 10000.0, dutySum, 0.001)
	require.InDelta(t, 5000.0, freightSum, 0.001)

	// Unit cost stays the line item's own price, not the distributed share.
	require.InDelta(t, 1500.0, created[0].UnitCost, 0.0001)
	require.InDelta(t, 2500.0, created[1].UnitCost, 0.0001)

	// Both products recomputed exactly once each.
	require.ElementsMatch(t, []int64{10, 11}, val.recomputed)

	require.Len(t, hooks.received, 1)
	require.Len(t, hooks.received[0].Lots, 3)
	require.Equal(t, "Komponen B", hooks.received[0].Lots[1].ItemName)
}

func TestCreateFromImportValidation(t *testing.T) {
	svc := NewService(newMemoryRepo(), &fakeValuation{}, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateFromImport(ctx, CreateFromImportInput{ImportExportID: 1, Location: StorageWarehouse})
	require.ErrorIs(t, err, ErrNoItems)

	_, err = svc.CreateFromImport(ctx, CreateFromImportInput{
		ImportExportID: 1,
		Items:          []LineItem{{ProductID: 1, Qty: 1}},
	})
	require.ErrorIs(t, err, ErrStorageLocationRequired)

	_, err = svc.CreateFromImport(ctx, CreateFromImportInput{
		ImportExportID: 1,
		Location:       StorageWarehouse,
		Items:          []LineItem{{ProductID: 1, Qty: 0}},
	})
	require.ErrorIs(t, err, ErrInvalidQuantity)

	_, err = svc.CreateFromImport(ctx, CreateFromImportInput{
		ImportExportID: 1,
		Location:       StorageWarehouse,
		Items:          []LineItem{{Qty: 5}},
	})
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestCreateSingleLinkedToSale(t *testing.T) {
	repo := newMemoryRepo()
	val := &fakeValuation{}
	hooks := &fakeIntegration{}
	svc := NewService(repo, val, nil, hooks)

	salesID := int64(77)
	lot, err := svc.CreateSingle(context.Background(), CreateSingleInput{
		LinkedSalesID: &salesID,
		ProductID:     5,
		VendorID:      2,
		ItemName:      "Barang retur",
		Qty:           4,
		UnitPrice:     250,
		Location:      StorageWarehouse,
	})
	require.NoError(t, err)
	require.InDelta(t, 4.0, lot.QtyRemaining, 0.0001)
	require.Equal(t, []int64{5}, val.recomputed)

	require.Len(t, hooks.received, 1)
	evt := hooks.received[0]
	require.Nil(t, evt.ImportExportID)
	require.NotNil(t, evt.LinkedSalesID)
	require.EqualValues(t, 77, *evt.LinkedSalesID)
}

func TestRelocateByImportRecomputesAffected(t *testing.T) {
	repo := newMemoryRepo()
	val := &fakeValuation{}
	svc := NewService(repo, val, nil, nil)
	ctx := context.Background()

	_, err := svc.CreateFromImport(ctx, CreateFromImportInput{
		ImportExportID: 9,
		Location:       StorageWarehouse,
		Items: []LineItem{
			{ProductID: 1, Qty: 2, UnitPrice: 10},
			{ProductID: 2, Qty: 3, UnitPrice: 20},
		},
	})
	require.NoError(t, err)
	val.recomputed = nil

	moved, err := svc.RelocateByImport(ctx, 9, StorageOffice)
	require.NoError(t, err)
	require.EqualValues(t, 2, moved)
	require.ElementsMatch(t, []int64{1, 2}, val.recomputed)

	for _, lot := range repo.lots {
		require.Equal(t, StorageOffice, lot.StorageLocation)
	}

	_, err = svc.RelocateByImport(ctx, 9, StorageLocation("GARAGE"))
	require.ErrorIs(t, err, ErrStorageLocationRequired)
}

func TestDeleteByImportEmitsRetraction(t *testing.T) {
	repo := newMemoryRepo()
	val := &fakeValuation{}
	hooks := &fakeIntegration{}
	svc := NewService(repo, val, nil, hooks)
	ctx := context.Background()

	_, err := svc.CreateFromImport(ctx, CreateFromImportInput{
		ImportExportID: 30,
		Location:       StorageWarehouse,
		Items: []LineItem{
			{ProductID: 4, Qty: 1, UnitPrice: 100},
			{ProductID: 6, Qty: 2, UnitPrice: 100},
		},
	})
	require.NoError(t, err)
	val.recomputed = nil

	affected, err := svc.DeleteByImport(ctx, 30)
	require.NoError(t, err)
	require.ElementsMatch(t, []int64{4, 6}, affected)
	require.ElementsMatch(t, []int64{4, 6}, val.recomputed)
	require.Empty(t, repo.lots)

	require.Len(t, hooks.deleted, 1)
	require.EqualValues(t, 30, hooks.deleted[0].ImportExportID)

	// Deleting again removes nothing and stays silent.
	affected, err = svc.DeleteByImport(ctx, 30)
	require.NoError(t, err)
	require.Empty(t, affected)
}

func TestItemsChanged(t *testing.T) {
	existing := []Lot{
		{ProductID: 1, QtyReceived: 2},
		{ProductID: 2, QtyReceived: 3.5},
	}

	require.False(t, ItemsChanged(existing, []LineItem{
		{ProductID: 2, Qty: 3.5},
		{ProductID: 1, Qty: 2},
	}))

	require.True(t, ItemsChanged(existing, []LineItem{
		{ProductID: 1, Qty: 2},
		{ProductID: 2, Qty: 4},
	}))

	require.True(t, ItemsChanged(existing, []LineItem{
		{ProductID: 1, Qty: 2},
	}))

	require.True(t, ItemsChanged(existing, []LineItem{
		{ProductID: 1, Qty: 2},
		{ProductID: 1, Qty: 2},
	}))
}
