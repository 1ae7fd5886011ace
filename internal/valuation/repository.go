package valuation

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// Repository persists valuation data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("valuation repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetProductCost loads the cost fields needed for the fallback chain.
func (r *Repository) GetProductCost(ctx context.Context, productID int64) (ProductCostRow, error) {
	var row ProductCostRow
	err := r.pool.QueryRow(ctx, `SELECT current_cost, default_purchase_price FROM products WHERE id=$1`, productID).
		Scan(&row.CurrentCost, &row.DefaultPurchasePrice)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return ProductCostRow{}, ErrProductCostNotFound
		}
		return ProductCostRow{}, err
	}
	return row, nil
}

// ListMonthlyCosts returns monthly snapshots, most recent month first.
func (r *Repository) ListMonthlyCosts(ctx context.Context, productID int64, limit int) ([]MonthlyCost, error) {
	rows, err := r.pool.Query(ctx, `SELECT product_id, year_month, base_cost, storage_cost, total_cost, quantity, computed_at
FROM product_monthly_costs WHERE product_id=$1 ORDER BY year_month DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	costs := []MonthlyCost{}
	for rows.Next() {
		var mc MonthlyCost
		var ym string
		if err := rows.Scan(&mc.ProductID, &ym, &mc.BaseCost, &mc.StorageCost, &mc.TotalCost, &mc.Quantity, &mc.ComputedAt); err != nil {
			return nil, err
		}
		mc.YearMonth = shared.YearMonth(ym)
		costs = append(costs, mc)
	}
	return costs, rows.Err()
}

// ListProductsWithLiveLots lists products holding warehouse lots with
// remaining quantity.
func (r *Repository) ListProductsWithLiveLots(ctx context.Context) ([]int64, error) {
	rows, err := r.pool.Query(ctx, `SELECT DISTINCT product_id FROM inventory_lots
WHERE storage_location='WAREHOUSE' AND qty_remaining > 0 ORDER BY product_id`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		ids = append(ids, id)
	}
	return ids, rows.Err()
}

func (r *txRepository) AcquireProductLock(ctx context.Context, key int64) error {
	_, err := r.tx.Exec(ctx, `SELECT pg_advisory_xact_lock($1)`, key)
	return err
}

func (r *txRepository) ListLiveWarehouseLots(ctx context.Context, productID int64) ([]LotValue, error) {
	rows, err := r.tx.Query(ctx, `SELECT id, qty_remaining, unit_cost, warehouse_fee FROM inventory_lots
WHERE product_id=$1 AND storage_location='WAREHOUSE' AND qty_remaining > 0 ORDER BY id ASC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	lots := []LotValue{}
	for rows.Next() {
		var lot LotValue
		if err := rows.Scan(&lot.LotID, &lot.QtyRemaining, &lot.UnitCost, &lot.WarehouseFee); err != nil {
			return nil, err
		}
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func (r *txRepository) UpdateProductCost(ctx context.Context, productID int64, cost float64, at time.Time) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET current_cost=$2, last_cost_updated_at=$3, updated_at=NOW() WHERE id=$1`, productID, cost, at)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrProductCostNotFound
	}
	return nil
}

func (r *txRepository) UpsertMonthlyCost(ctx context.Context, mc MonthlyCost) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_monthly_costs (product_id, year_month, base_cost, storage_cost, total_cost, quantity, computed_at)
VALUES ($1,$2,$3,$4,$5,$6,$7)
ON CONFLICT (product_id, year_month) DO UPDATE SET
 base_cost=EXCLUDED.base_cost, storage_cost=EXCLUDED.storage_cost, total_cost=EXCLUDED.total_cost,
 quantity=EXCLUDED.quantity, computed_at=EXCLUDED.computed_at`,
		mc.ProductID, mc.YearMonth.String(), mc.BaseCost, mc.StorageCost, mc.TotalCost, mc.Quantity, mc.ComputedAt)
	return err
}
