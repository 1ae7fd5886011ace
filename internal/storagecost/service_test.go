package storagecost

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

// fakeLot mirrors an inventory_lots row: the repository only ever sums
// WAREHOUSE lots with remaining quantity.
type fakeLot struct {
	productID int64
	qty       float64
	unitCost  float64
	location  string
}

type memoryRepo struct {
	expense       float64
	expenseCalls  int
	expenseWindow [2]time.Time
	lots          []fakeLot
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{}
}

func (r *memoryRepo) SumExpensesForMonth(ctx context.Context, from, to time.Time) (float64, error) {
	r.expenseCalls++
	r.expenseWindow = [2]time.Time{from, to}
	return r.expense, nil
}

func (r *memoryRepo) TotalWarehouseValue(ctx context.Context) (float64, error) {
	var total float64
	for _, lot := range r.lots {
		if lot.location == "WAREHOUSE" && lot.qty > 0 {
			total += lot.qty * lot.unitCost
		}
	}
	return total, nil
}

func (r *memoryRepo) ProductWarehouseTotals(ctx context.Context, productID int64) (float64, float64, error) {
	var qty, value float64
	for _, lot := range r.lots {
		if lot.productID == productID && lot.location == "WAREHOUSE" && lot.qty > 0 {
			qty += lot.qty
			value += lot.qty * lot.unitCost
		}
	}
	return qty, value, nil
}

func newTestService(t *testing.T, repo *memoryRepo) *Service {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return NewService(repo, client, time.Minute).
		WithClock(func() time.Time { return time.Date(2026, 6, 15, 10, 0, 0, 0, time.UTC) })
}

func TestRate(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 500
	repo.lots = []fakeLot{{productID: 1, qty: 10, unitCost: 1000, location: "WAREHOUSE"}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	rate, err := svc.Rate(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.05, rate, 0.0001)

	// The expense window covers the current calendar month.
	require.Equal(t, time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC), repo.expenseWindow[0])
	require.Equal(t, time.Date(2026, 7, 1, 0, 0, 0, 0, time.UTC), repo.expenseWindow[1])

	// Second call is served from cache.
	rate, err = svc.Rate(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.05, rate, 0.0001)
	require.Equal(t, 1, repo.expenseCalls)
}

func TestRateZeroInventoryValue(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 800
	svc := newTestService(t, repo)

	rate, err := svc.Rate(context.Background())
	require.NoError(t, err)
	require.Zero(t, rate)
}

func TestRateExcludesOfficeLots(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 500
	repo.lots = []fakeLot{
		{productID: 1, qty: 10, unitCost: 1000, location: "WAREHOUSE"},
		{productID: 1, qty: 10, unitCost: 5000, location: "OFFICE"},
		{productID: 2, qty: 0, unitCost: 9000, location: "WAREHOUSE"},
	}
	svc := newTestService(t, repo)

	// Only the live warehouse lot counts toward the denominator.
	rate, err := svc.Rate(context.Background())
	require.NoError(t, err)
	require.InDelta(t, 0.05, rate, 0.0001)
}

func TestRefreshRateOverwritesCache(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 500
	repo.lots = []fakeLot{{productID: 1, qty: 10, unitCost: 1000, location: "WAREHOUSE"}}
	svc := newTestService(t, repo)
	ctx := context.Background()

	_, err := svc.Rate(ctx)
	require.NoError(t, err)

	repo.expense = 1000
	rate, err := svc.RefreshRate(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.1, rate, 0.0001)

	rate, err = svc.Rate(ctx)
	require.NoError(t, err)
	require.InDelta(t, 0.1, rate, 0.0001)
}

func TestProductCostWithStorage(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 500
	repo.lots = []fakeLot{
		{productID: 4, qty: 10, unitCost: 200, location: "WAREHOUSE"},
		{productID: 5, qty: 8, unitCost: 1000, location: "WAREHOUSE"},
		{productID: 4, qty: 6, unitCost: 700, location: "OFFICE"},
	}
	svc := newTestService(t, repo)

	// Total warehouse value 10000, rate 0.05; product 4's office lot is
	// excluded from both the denominator and its own base average.
	breakdown, err := svc.ProductCostWithStorage(context.Background(), 4)
	require.NoError(t, err)
	require.InDelta(t, 200.0, breakdown.BaseAvgCost, 0.001)
	require.InDelta(t, 10.0, breakdown.StorageCostPerUnit, 0.001)
	require.InDelta(t, 210.0, breakdown.TotalCostWithStorage, 0.001)
	require.InDelta(t, 0.05, breakdown.StorageCostRate, 0.0001)
}

func TestProductCostWithStorageNoStock(t *testing.T) {
	repo := newMemoryRepo()
	repo.expense = 500
	repo.lots = []fakeLot{{productID: 5, qty: 10, unitCost: 1000, location: "WAREHOUSE"}}
	svc := newTestService(t, repo)

	breakdown, err := svc.ProductCostWithStorage(context.Background(), 9)
	require.NoError(t, err)
	require.Zero(t, breakdown.BaseAvgCost)
	require.Zero(t, breakdown.TotalCostWithStorage)

	_, err = svc.ProductCostWithStorage(context.Background(), 0)
	require.ErrorIs(t, err, ErrInvalidProduct)
}
