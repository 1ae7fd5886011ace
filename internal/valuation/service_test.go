package valuation

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// fakeLot mirrors an inventory_lots row: the LotValue slice the engine reads
// plus the storage location the repository filters on.
type fakeLot struct {
	value    LotValue
	location string
}

func warehouseLot(id int64, qty, cost, fee float64) fakeLot {
	return fakeLot{value: LotValue{LotID: id, QtyRemaining: qty, UnitCost: cost, WarehouseFee: fee}, location: "WAREHOUSE"}
}

func officeLot(id int64, qty, cost, fee float64) fakeLot {
	return fakeLot{value: LotValue{LotID: id, QtyRemaining: qty, UnitCost: cost, WarehouseFee: fee}, location: "OFFICE"}
}

type memoryRepo struct {
	lots     map[int64][]fakeLot
	products map[int64]ProductCostRow
	monthly  map[int64]map[shared.YearMonth]MonthlyCost
	lockKeys []int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		lots:     make(map[int64][]fakeLot),
		products: make(map[int64]ProductCostRow),
		monthly:  make(map[int64]map[shared.YearMonth]MonthlyCost),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetProductCost(ctx context.Context, productID int64) (ProductCostRow, error) {
	row, ok := r.products[productID]
	if !ok {
		return ProductCostRow{}, ErrProductCostNotFound
	}
	return row, nil
}

func (r *memoryRepo) ListMonthlyCosts(ctx context.Context, productID int64, limit int) ([]MonthlyCost, error) {
	var out []MonthlyCost
	for _, mc := range r.monthly[productID] {
		out = append(out, mc)
	}
	return out, nil
}

func (r *memoryRepo) ListProductsWithLiveLots(ctx context.Context) ([]int64, error) {
	var out []int64
	for id, lots := range r.lots {
		for _, lot := range lots {
			if lot.location == "WAREHOUSE" && lot.value.QtyRemaining > 0 {
				out = append(out, id)
				break
			}
		}
	}
	return out, nil
}

func (tx *memoryTx) AcquireProductLock(ctx context.Context, key int64) error {
	tx.repo.lockKeys = append(tx.repo.lockKeys, key)
	return nil
}

func (tx *memoryTx) ListLiveWarehouseLots(ctx context.Context, productID int64) ([]LotValue, error) {
	var out []LotValue
	for _, lot := range tx.repo.lots[productID] {
		if lot.location == "WAREHOUSE" && lot.value.QtyRemaining > 0 {
			out = append(out, lot.value)
		}
	}
	return out, nil
}

func (tx *memoryTx) UpdateProductCost(ctx context.Context, productID int64, cost float64, at time.Time) error {
	row := tx.repo.products[productID]
	c := cost
	row.CurrentCost = &c
	tx.repo.products[productID] = row
	return nil
}

func (tx *memoryTx) UpsertMonthlyCost(ctx context.Context, mc MonthlyCost) error {
	byMonth, ok := tx.repo.monthly[mc.ProductID]
	if !ok {
		byMonth = make(map[shared.YearMonth]MonthlyCost)
		tx.repo.monthly[mc.ProductID] = byMonth
	}
	byMonth[mc.YearMonth] = mc
	return nil
}

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func TestRecomputeWeightedAverage(t *testing.T) {
	repo := newMemoryRepo()
	repo.lots[7] = []fakeLot{
		warehouseLot(1, 10, 100, 50),
		warehouseLot(2, 5, 200, 0),
	}
	svc := NewService(repo, nil).WithClock(fixedClock(time.Date(2026, 3, 10, 12, 0, 0, 0, time.UTC)))

	result, err := svc.Recompute(context.Background(), 7)
	require.NoError(t, err)
	require.False(t, result.NoData)
	// (10*100 + 5*200 + 50) / 15
	require.InDelta(t, 136.6667, result.CurrentCost, 0.001)
	require.InDelta(t, 133.3333, result.BaseCost, 0.001)
	require.InDelta(t, 3.3333, result.StorageCost, 0.001)
	require.InDelta(t, 15.0, result.Quantity, 0.0001)
	require.Equal(t, shared.YearMonth("2026-03"), result.YearMonth)

	require.NotNil(t, repo.products[7].CurrentCost)
	require.InDelta(t, 136.6667, *repo.products[7].CurrentCost, 0.001)

	snapshot := repo.monthly[7]["2026-03"]
	require.InDelta(t, 136.6667, snapshot.TotalCost, 0.001)
	require.InDelta(t, 15.0, snapshot.Quantity, 0.0001)
}

func TestRecomputeWarehouseFeeCountedOncePerLot(t *testing.T) {
	repo := newMemoryRepo()
	repo.lots[3] = []fakeLot{warehouseLot(1, 4, 25, 12)}
	svc := NewService(repo, nil)

	result, err := svc.Recompute(context.Background(), 3)
	require.NoError(t, err)
	// (4*25 + 12) / 4, the fee is a lot total, not per unit
	require.InDelta(t, 28.0, result.CurrentCost, 0.0001)
}

func TestRecomputeExcludesOfficeLots(t *testing.T) {
	repo := newMemoryRepo()
	repo.lots[8] = []fakeLot{warehouseLot(1, 10, 100, 0)}
	svc := NewService(repo, nil)
	ctx := context.Background()

	first, err := svc.Recompute(ctx, 8)
	require.NoError(t, err)
	require.InDelta(t, 100.0, first.CurrentCost, 0.0001)

	// An OFFICE lot with live quantity, a different cost and a posted fee
	// is not sellable inventory and must not move the average.
	repo.lots[8] = append(repo.lots[8], officeLot(2, 10, 900, 40))
	second, err := svc.Recompute(ctx, 8)
	require.NoError(t, err)
	require.InDelta(t, first.CurrentCost, second.CurrentCost, 0.0001)
	require.InDelta(t, first.Quantity, second.Quantity, 0.0001)
}

func TestRecomputeNoLiveLotsLeavesCostUntouched(t *testing.T) {
	repo := newMemoryRepo()
	prior := 99.0
	repo.products[5] = ProductCostRow{CurrentCost: &prior}
	repo.lots[5] = []fakeLot{warehouseLot(1, 0, 100, 0)}
	svc := NewService(repo, nil)

	result, err := svc.Recompute(context.Background(), 5)
	require.NoError(t, err)
	require.True(t, result.NoData)
	require.InDelta(t, 99.0, *repo.products[5].CurrentCost, 0.0001)
	require.Empty(t, repo.monthly[5])
}

func TestRecomputeUpsertsMonthlySnapshot(t *testing.T) {
	repo := newMemoryRepo()
	repo.lots[2] = []fakeLot{warehouseLot(1, 10, 100, 0)}
	svc := NewService(repo, nil).WithClock(fixedClock(time.Date(2026, 4, 1, 0, 0, 0, 0, time.UTC)))

	_, err := svc.Recompute(context.Background(), 2)
	require.NoError(t, err)

	repo.lots[2] = append(repo.lots[2], warehouseLot(2, 10, 200, 0))
	_, err = svc.Recompute(context.Background(), 2)
	require.NoError(t, err)

	// Same month recomputed twice keeps one snapshot with the latest values.
	require.Len(t, repo.monthly[2], 1)
	require.InDelta(t, 150.0, repo.monthly[2]["2026-04"].TotalCost, 0.0001)
}

func TestRecomputeTakesProductLock(t *testing.T) {
	repo := newMemoryRepo()
	repo.lots[9] = []fakeLot{warehouseLot(1, 1, 10, 0)}
	svc := NewService(repo, nil)

	_, err := svc.Recompute(context.Background(), 9)
	require.NoError(t, err)
	require.Equal(t, []int64{shared.ProductCostLockKey(9)}, repo.lockKeys)
}

func TestRecomputeRejectsZeroProduct(t *testing.T) {
	svc := NewService(newMemoryRepo(), nil)
	_, err := svc.Recompute(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidProduct)
}

func TestGetCurrentCostFallbackChain(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	current := 120.0
	repo.products[1] = ProductCostRow{CurrentCost: &current, DefaultPurchasePrice: 80}
	lookup, err := svc.GetCurrentCost(ctx, 1)
	require.NoError(t, err)
	require.Equal(t, CostSourceCurrent, lookup.Source)
	require.InDelta(t, 120.0, lookup.Cost, 0.0001)

	repo.products[2] = ProductCostRow{DefaultPurchasePrice: 80}
	lookup, err = svc.GetCurrentCost(ctx, 2)
	require.NoError(t, err)
	require.Equal(t, CostSourceDefault, lookup.Source)
	require.InDelta(t, 80.0, lookup.Cost, 0.0001)

	zero := 0.0
	repo.products[3] = ProductCostRow{CurrentCost: &zero}
	lookup, err = svc.GetCurrentCost(ctx, 3)
	require.NoError(t, err)
	require.Equal(t, CostSourceNone, lookup.Source)
	require.InDelta(t, 0.0, lookup.Cost, 0.0001)

	// Missing product resolves as NONE, not as an error.
	lookup, err = svc.GetCurrentCost(ctx, 404)
	require.NoError(t, err)
	require.Equal(t, CostSourceNone, lookup.Source)
}
