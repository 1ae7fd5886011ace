package ledger

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists ledger rows in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// WithTx runs fn inside a transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const recordColumns = `id, record_type, product_id, vendor_id, salesperson_id, category_id, item_name,
quantity, unit_price, amount, cost, margin, margin_rate, cost_source, linked_sales_id, import_export_id,
record_date, created_at`

// FindAutoPurchasesByImport lists IMPORT_AUTO purchase rows for the import
// document. The filter mirrors DeleteAutoPurchasesByImport exactly.
func (r *Repository) FindAutoPurchasesByImport(ctx context.Context, importID int64) ([]SalesRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM sales_records
WHERE record_type='PURCHASE' AND cost_source='IMPORT_AUTO' AND import_export_id=$1 ORDER BY id`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

// FindAutoPurchasesBySales lists SALES_AUTO purchase rows for the sale.
// The filter mirrors DeleteAutoPurchasesBySales exactly.
func (r *Repository) FindAutoPurchasesBySales(ctx context.Context, salesID int64) ([]SalesRecord, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+recordColumns+` FROM sales_records
WHERE record_type='PURCHASE' AND cost_source='SALES_AUTO' AND linked_sales_id=$1 ORDER BY id`, salesID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanRecords(rows)
}

type txRepository struct {
	tx pgx.Tx
}

func (t *txRepository) InsertRecord(ctx context.Context, rec SalesRecord) (int64, error) {
	var id int64
	err := t.tx.QueryRow(ctx, `INSERT INTO sales_records
(record_type, product_id, vendor_id, salesperson_id, category_id, item_name, quantity, unit_price, amount,
 cost, margin, margin_rate, cost_source, linked_sales_id, import_export_id, record_date)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16)
RETURNING id`,
		rec.Type, rec.ProductID, rec.VendorID, rec.SalespersonID, rec.CategoryID, rec.ItemName,
		rec.Quantity, rec.UnitPrice, rec.Amount, rec.Cost, rec.Margin, rec.MarginRate,
		rec.CostSource, rec.LinkedSalesID, rec.ImportExportID, rec.RecordDate).Scan(&id)
	return id, err
}

// DeleteAutoPurchasesByImport retracts IMPORT_AUTO rows only. Rows of other
// provenance (INBOUND_AUTO) may reference the same import and must survive.
func (t *txRepository) DeleteAutoPurchasesByImport(ctx context.Context, importID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales_records
WHERE record_type='PURCHASE' AND cost_source='IMPORT_AUTO' AND import_export_id=$1`, importID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

// DeleteAutoPurchasesBySales retracts SALES_AUTO rows only, leaving
// INBOUND_AUTO rows that carry the same linked_sales_id in place.
func (t *txRepository) DeleteAutoPurchasesBySales(ctx context.Context, salesID int64) (int64, error) {
	tag, err := t.tx.Exec(ctx, `DELETE FROM sales_records
WHERE record_type='PURCHASE' AND cost_source='SALES_AUTO' AND linked_sales_id=$1`, salesID)
	if err != nil {
		return 0, err
	}
	return tag.RowsAffected(), nil
}

func scanRecords(rows pgx.Rows) ([]SalesRecord, error) {
	var out []SalesRecord
	for rows.Next() {
		var rec SalesRecord
		if err := rows.Scan(&rec.ID, &rec.Type, &rec.ProductID, &rec.VendorID, &rec.SalespersonID,
			&rec.CategoryID, &rec.ItemName, &rec.Quantity, &rec.UnitPrice, &rec.Amount,
			&rec.Cost, &rec.Margin, &rec.MarginRate, &rec.CostSource, &rec.LinkedSalesID,
			&rec.ImportExportID, &rec.RecordDate, &rec.CreatedAt); err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}
