package catalog

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type memoryRepo struct {
	products map[int64]Product
	byCode   map[string]int64
	history  map[int64][]PriceHistoryEntry
	nextID   int64
}

type memoryTx struct {
	repo *memoryRepo
}

func newMemoryRepo() *memoryRepo {
	return &memoryRepo{
		products: make(map[int64]Product),
		byCode:   make(map[string]int64),
		history:  make(map[int64][]PriceHistoryEntry),
	}
}

func (r *memoryRepo) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return fn(ctx, &memoryTx{repo: r})
}

func (r *memoryRepo) GetProduct(ctx context.Context, id int64) (Product, error) {
	p, ok := r.products[id]
	if !ok {
		return Product{}, ErrNotFound
	}
	return p, nil
}

func (r *memoryRepo) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	var out []Product
	for _, p := range r.products {
		out = append(out, p)
	}
	return out, nil
}

func (r *memoryRepo) ListPriceHistory(ctx context.Context, productID int64, limit int) ([]PriceHistoryEntry, error) {
	return r.history[productID], nil
}

func (tx *memoryTx) InsertProduct(ctx context.Context, p Product) (int64, error) {
	if _, dup := tx.repo.byCode[p.Code]; dup {
		return 0, ErrDuplicateCode
	}
	tx.repo.nextID++
	p.ID = tx.repo.nextID
	tx.repo.products[p.ID] = p
	tx.repo.byCode[p.Code] = p.ID
	return p.ID, nil
}

func (tx *memoryTx) UpdateDefaultPurchasePrice(ctx context.Context, productID int64, price float64) error {
	p, ok := tx.repo.products[productID]
	if !ok {
		return ErrNotFound
	}
	p.DefaultPurchasePrice = price
	tx.repo.products[productID] = p
	return nil
}

func (tx *memoryTx) InsertPriceHistory(ctx context.Context, entry PriceHistoryEntry) error {
	tx.repo.history[entry.ProductID] = append(tx.repo.history[entry.ProductID], entry)
	return nil
}

func TestCreateProduct(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Code: "PRD-001", Name: "Pompa air", Unit: "pcs", DefaultPurchasePrice: 150000})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Code: "PRD-001", Name: "Pompa air lain"})
	require.ErrorIs(t, err, ErrDuplicateCode)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Name: "Tanpa kode"})
	require.ErrorIs(t, err, ErrValidation)

	_, err = svc.CreateProduct(ctx, CreateProductInput{Code: "PRD-002", Name: "Negatif", DefaultPurchasePrice: -1})
	require.ErrorIs(t, err, ErrValidation)
}

func TestUpdatePurchasePriceWritesHistory(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)
	ctx := context.Background()

	created, err := svc.CreateProduct(ctx, CreateProductInput{Code: "PRD-010", Name: "Selang", DefaultPurchasePrice: 10000})
	require.NoError(t, err)

	effective := time.Date(2026, 5, 1, 0, 0, 0, 0, time.UTC)
	err = svc.UpdatePurchasePrice(ctx, UpdatePurchasePriceInput{
		ProductID:     created.ID,
		PurchasePrice: 12500,
		EffectiveDate: effective,
		Notes:         "Kenaikan harga vendor",
	})
	require.NoError(t, err)

	p, err := svc.GetProduct(ctx, created.ID)
	require.NoError(t, err)
	require.InDelta(t, 12500.0, p.DefaultPurchasePrice, 0.001)

	history, err := svc.PriceHistory(ctx, created.ID, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.Equal(t, effective, history[0].EffectiveDate)
	require.InDelta(t, 12500.0, history[0].PurchasePrice, 0.001)
}

func TestUpdatePurchasePriceMissingProductRollsBack(t *testing.T) {
	repo := newMemoryRepo()
	svc := NewService(repo, nil)

	err := svc.UpdatePurchasePrice(context.Background(), UpdatePurchasePriceInput{ProductID: 99, PurchasePrice: 100})
	require.ErrorIs(t, err, ErrNotFound)
	require.Empty(t, repo.history[99])
}
