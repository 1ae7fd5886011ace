package catalog

import (
	"context"
	"fmt"
	"time"

	"github.com/meridian-erp/meridian-erp/internal/shared"
)

// RepositoryPort describes repository operations used by Service.
type RepositoryPort interface {
	WithTx(ctx context.Context, fn func(context.Context, TxRepository) error) error
	GetProduct(ctx context.Context, id int64) (Product, error)
	ListProducts(ctx context.Context, limit, offset int) ([]Product, error)
	ListPriceHistory(ctx context.Context, productID int64, limit int) ([]PriceHistoryEntry, error)
}

// AuditPort abstracts audit logging functionality.
type AuditPort interface {
	Record(ctx context.Context, log shared.AuditLog) error
}

// Service coordinates product master operations.
type Service struct {
	repo  RepositoryPort
	audit AuditPort
	now   func() time.Time
}

// NewService builds Service.
func NewService(repo RepositoryPort, audit AuditPort) *Service {
	return &Service{repo: repo, audit: audit, now: time.Now}
}

// CreateProductInput describes creation payload.
type CreateProductInput struct {
	Code                 string
	Name                 string
	Unit                 string
	DefaultPurchasePrice float64
}

// CreateProduct persists a new product.
func (s *Service) CreateProduct(ctx context.Context, input CreateProductInput) (Product, error) {
	if input.Code == "" || input.Name == "" {
		return Product{}, fmt.Errorf("%w: code and name required", ErrValidation)
	}
	if input.DefaultPurchasePrice < 0 {
		return Product{}, fmt.Errorf("%w: default purchase price must be >= 0", ErrValidation)
	}
	var created Product
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		id, err := tx.InsertProduct(ctx, Product{
			Code:                 input.Code,
			Name:                 input.Name,
			Unit:                 input.Unit,
			DefaultPurchasePrice: input.DefaultPurchasePrice,
		})
		if err != nil {
			return err
		}
		created = Product{ID: id, Code: input.Code, Name: input.Name, Unit: input.Unit, DefaultPurchasePrice: input.DefaultPurchasePrice}
		return nil
	})
	if err != nil {
		return Product{}, err
	}
	s.recordAudit(ctx, "PRODUCT_CREATE", created.ID, map[string]any{"code": created.Code})
	return created, nil
}

// GetProduct fetches a product by id.
func (s *Service) GetProduct(ctx context.Context, id int64) (Product, error) {
	return s.repo.GetProduct(ctx, id)
}

// ListProducts lists products with pagination.
func (s *Service) ListProducts(ctx context.Context, limit, offset int) ([]Product, error) {
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListProducts(ctx, limit, offset)
}

// UpdatePurchasePriceInput describes a default purchase price change.
type UpdatePurchasePriceInput struct {
	ProductID     int64
	PurchasePrice float64
	EffectiveDate time.Time
	Notes         string
}

// UpdatePurchasePrice updates DefaultPurchasePrice and appends the price
// history entry in one transaction. The pair commits together or not at all.
func (s *Service) UpdatePurchasePrice(ctx context.Context, input UpdatePurchasePriceInput) error {
	if input.ProductID == 0 {
		return fmt.Errorf("%w: product required", ErrValidation)
	}
	if input.PurchasePrice < 0 {
		return fmt.Errorf("%w: purchase price must be >= 0", ErrValidation)
	}
	effective := input.EffectiveDate
	if effective.IsZero() {
		effective = s.now()
	}
	err := s.repo.WithTx(ctx, func(ctx context.Context, tx TxRepository) error {
		if err := tx.UpdateDefaultPurchasePrice(ctx, input.ProductID, input.PurchasePrice); err != nil {
			return err
		}
		return tx.InsertPriceHistory(ctx, PriceHistoryEntry{
			ProductID:     input.ProductID,
			EffectiveDate: effective,
			PurchasePrice: input.PurchasePrice,
			Notes:         input.Notes,
		})
	})
	if err != nil {
		return err
	}
	s.recordAudit(ctx, "PRODUCT_PRICE_UPDATE", input.ProductID, map[string]any{"price": input.PurchasePrice})
	return nil
}

// PriceHistory lists the append-only price ledger, most recent first.
func (s *Service) PriceHistory(ctx context.Context, productID int64, limit int) ([]PriceHistoryEntry, error) {
	if productID == 0 {
		return nil, fmt.Errorf("%w: product required", ErrValidation)
	}
	if limit <= 0 {
		limit = 100
	}
	return s.repo.ListPriceHistory(ctx, productID, limit)
}

func (s *Service) recordAudit(ctx context.Context, action string, entityID int64, meta map[string]any) {
	if s.audit == nil {
		return
	}
	_ = s.audit.Record(ctx, shared.AuditLog{Action: action, Entity: "catalog", EntityID: fmt.Sprintf("%d", entityID), Meta: meta})
}
