package storagecost

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// Repository reads storage expenses and lot values from PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// SumExpensesForMonth sums expense amounts whose date_from falls in [from, to).
func (r *Repository) SumExpensesForMonth(ctx context.Context, from, to time.Time) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(amount), 0) FROM storage_expenses
WHERE date_from >= $1 AND date_from < $2`, from, to).Scan(&total)
	return total, err
}

// TotalWarehouseValue sums qty_remaining * unit_cost over all live
// warehouse lots system-wide.
func (r *Repository) TotalWarehouseValue(ctx context.Context) (float64, error) {
	var total float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(qty_remaining * unit_cost), 0) FROM inventory_lots
WHERE storage_location='WAREHOUSE' AND qty_remaining > 0`).Scan(&total)
	return total, err
}

// ProductWarehouseTotals sums remaining quantity and value for one product's
// live warehouse lots.
func (r *Repository) ProductWarehouseTotals(ctx context.Context, productID int64) (float64, float64, error) {
	var qty, value float64
	err := r.pool.QueryRow(ctx, `SELECT COALESCE(SUM(qty_remaining), 0), COALESCE(SUM(qty_remaining * unit_cost), 0)
FROM inventory_lots WHERE product_id=$1 AND storage_location='WAREHOUSE' AND qty_remaining > 0`, productID).Scan(&qty, &value)
	return qty, value, err
}
