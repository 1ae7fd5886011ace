package catalog

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/meridian-erp/meridian-erp/internal/platform/db"
)

// Repository persists catalog data in PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// NewRepository constructs Repository.
func NewRepository(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// TxRepository exposes transactional operations used by service.
type TxRepository interface {
	InsertProduct(ctx context.Context, p Product) (int64, error)
	UpdateDefaultPurchasePrice(ctx context.Context, productID int64, price float64) error
	InsertPriceHistory(ctx context.Context, entry PriceHistoryEntry) error
}

type txRepository struct {
	tx pgx.Tx
}

// WithTx executes the callback inside repeatable-read transaction.
func (r *Repository) WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error {
	if r == nil {
		return errors.New("catalog repository not initialised")
	}
	return db.WithTx(ctx, r.pool, func(ctx context.Context, tx pgx.Tx) error {
		return fn(ctx, &txRepository{tx: tx})
	})
}

// GetProduct loads a product by id.
func (r *Repository) GetProduct(ctx context.Context, id int64) (Product, error) {
	var p Product
	err := r.pool.QueryRow(ctx, `SELECT id, code, name, unit, default_purchase_price, current_cost, last_cost_updated_at, created_at, updated_at
FROM products WHERE id=$1`, id).
		Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.DefaultPurchasePrice, &p.CurrentCost, &p.LastCostUpdatedAt, &p.CreatedAt, &p.UpdatedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return Product{}, ErrNotFound
		}
		return Product{}, err
	}
	return p, nil
}

// ListProducts returns a page of products ordered by code.
func (r *Repository) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, code, name, unit, default_purchase_price, current_cost, last_cost_updated_at, created_at, updated_at
FROM products ORDER BY code ASC LIMIT $1 OFFSET $2`, limit, offset)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	products := []Product{}
	for rows.Next() {
		var p Product
		if err := rows.Scan(&p.ID, &p.Code, &p.Name, &p.Unit, &p.DefaultPurchasePrice, &p.CurrentCost, &p.LastCostUpdatedAt, &p.CreatedAt, &p.UpdatedAt); err != nil {
			return nil, err
		}
		products = append(products, p)
	}
	return products, rows.Err()
}

// ListPriceHistory returns price history entries, newest effective date first.
func (r *Repository) ListPriceHistory(ctx context.Context, productID int64, limit int) ([]PriceHistoryEntry, error) {
	rows, err := r.pool.Query(ctx, `SELECT id, product_id, effective_date, purchase_price, notes, created_at
FROM product_price_history WHERE product_id=$1 ORDER BY effective_date DESC, id DESC LIMIT $2`, productID, limit)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	entries := []PriceHistoryEntry{}
	for rows.Next() {
		var e PriceHistoryEntry
		if err := rows.Scan(&e.ID, &e.ProductID, &e.EffectiveDate, &e.PurchasePrice, &e.Notes, &e.CreatedAt); err != nil {
			return nil, err
		}
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

func (r *txRepository) InsertProduct(ctx context.Context, p Product) (int64, error) {
	var id int64
	err := r.tx.QueryRow(ctx, `INSERT INTO products (code, name, unit, default_purchase_price, created_at, updated_at)
VALUES ($1,$2,$3,$4,NOW(),NOW()) RETURNING id`, p.Code, p.Name, p.Unit, p.DefaultPurchasePrice).Scan(&id)
	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return 0, ErrDuplicateCode
		}
		return 0, err
	}
	return id, nil
}

func (r *txRepository) UpdateDefaultPurchasePrice(ctx context.Context, productID int64, price float64) error {
	tag, err := r.tx.Exec(ctx, `UPDATE products SET default_purchase_price=$2, updated_at=NOW() WHERE id=$1`, productID, price)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

func (r *txRepository) InsertPriceHistory(ctx context.Context, entry PriceHistoryEntry) error {
	_, err := r.tx.Exec(ctx, `INSERT INTO product_price_history (product_id, effective_date, purchase_price, notes, created_at)
VALUES ($1,$2,$3,$4,NOW())`, entry.ProductID, entry.EffectiveDate, entry.PurchasePrice, entry.Notes)
	return err
}
