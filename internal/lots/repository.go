package lots

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists inventory lots in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertLot(ctx context.Context, lot Lot) (int64, error)
	RelocateByImport(ctx context.Context, importID int64, location StorageLocation) (int64, []int64, error)
	DeleteByImport(ctx context.Context, importID int64) ([]int64, error)
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("lots repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

const lotColumns = `id, lot_code, product_id, vendor_id, received_date, qty_received, qty_remaining, unit_cost,
goods_amount, duty_amount, domestic_freight, other_cost, warehouse_fee, storage_location, import_export_id, created_at`

// ListByImport lists all lots belonging to one import document.
func (r *Repository) ListByImport(ctx context.Context, importID int64) ([]Lot, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lotColumns+` FROM inventory_lots WHERE import_export_id=$1 ORDER BY id ASC`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

// ListByProduct lists all lots of one product, newest receipt first.
func (r *Repository) ListByProduct(ctx context.Context, productID int64) ([]Lot, error) {
	rows, err := r.pool.Query(ctx, `SELECT `+lotColumns+` FROM inventory_lots WHERE product_id=$1 ORDER BY received_date DESC, id DESC`, productID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanLots(rows)
}

func (r *txRepository) InsertLot(ctx context.Context, lot Lot) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO inventory_lots
(lot_code, product_id, vendor_id, received_date, qty_received, qty_remaining, unit_cost,
 goods_amount, duty_amount, domestic_freight, other_cost, warehouse_fee, storage_location, import_export_id, created_at)
VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,NOW()) RETURNING id`,
		lot.LotCode, lot.ProductID, lot.VendorID, lot.ReceivedDate, lot.QtyReceived, lot.QtyRemaining, lot.UnitCost,
		lot.GoodsAmount, lot.DutyAmount, lot.DomesticFreight, lot.OtherCost, lot.WarehouseFee, string(lot.StorageLocation), lot.ImportExportID).Scan(&id)
	return id, err
}

func (r *txRepository) RelocateByImport(ctx context.Context, importID int64, location StorageLocation) (int64, []int64, error) {
	rows, err := r.tx.Query(ctx, `UPDATE inventory_lots SET storage_location=$2 WHERE import_export_id=$1 RETURNING product_id`, importID, string(location))
	if err != nil {
		return 0, nil, err
	}
	defer rows.Close()
	var moved int64
	seen := map[int64]bool{}
	products := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return 0, nil, err
		}
		moved++
		if !seen[id] {
			seen[id] = true
			products = append(products, id)
		}
	}
	return moved, products, rows.Err()
}

func (r *txRepository) DeleteByImport(ctx context.Context, importID int64) ([]int64, error) {
	rows, err := r.tx.Query(ctx, `DELETE FROM inventory_lots WHERE import_export_id=$1 RETURNING product_id`, importID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	return scanDistinctProducts(rows)
}

func scanLots(rows pgx.Rows) ([]Lot, error) {
	lots := []Lot{}
	for rows.Next() {
		var lot Lot
		var location string
		if err := rows.Scan(&lot.ID, &lot.LotCode, &lot.ProductID, &lot.VendorID, &lot.ReceivedDate,
			&lot.QtyReceived, &lot.QtyRemaining, &lot.UnitCost,
			&lot.GoodsAmount, &lot.DutyAmount, &lot.DomesticFreight, &lot.OtherCost, &lot.WarehouseFee,
			&location, &lot.ImportExportID, &lot.CreatedAt); err != nil {
			return nil, err
		}
		lot.StorageLocation = StorageLocation(location)
		lots = append(lots, lot)
	}
	return lots, rows.Err()
}

func scanDistinctProducts(rows pgx.Rows) ([]int64, error) {
	seen := map[int64]bool{}
	ids := []int64{}
	for rows.Next() {
		var id int64
		if err := rows.Scan(&id); err != nil {
			return nil, err
		}
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	return ids, rows.Err()
}
