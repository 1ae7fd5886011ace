package storagecost

import (
	"context"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"
)

// RepositoryPort abstracts repository usage for service.
type RepositoryPort interface {
	SumExpensesForMonth(ctx context.Context, from, to time.Time) (float64, error)
	TotalWarehouseValue(ctx context.Context) (float64, error)
	ProductWarehouseTotals(ctx context.Context, productID int64) (qty float64, value float64, err error)
}

// Service derives the global storage-cost rate and per-product
// cost-with-storage breakdowns. The rate is cached in Redis per calendar
// month; concurrent cache misses are collapsed with singleflight.
type Service struct {
	repo   RepositoryPort
	client *redis.Client
	ttl    time.Duration
	group  singleflight.Group
	now    func() time.Time
}

// NewService builds Service. client may be nil; the rate is then computed
// on every call.
func NewService(repo RepositoryPort, client *redis.Client, ttl time.Duration) *Service {
	if ttl <= 0 {
		ttl = 10 * time.Minute
	}
	return &Service{repo: repo, client: client, ttl: ttl, now: time.Now}
}

// WithClock overrides the clock, for tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Rate returns totalExpense / totalInventoryValue for the current calendar
// month, or exactly 0 when the warehouse holds no value. Never NaN or Inf.
func (s *Service) Rate(ctx context.Context) (float64, error) {
	key := s.cacheKey()
	if s.client != nil {
		if cached, err := s.client.Get(ctx, key).Float64(); err == nil {
			return cached, nil
		} else if err != redis.Nil {
			return 0, err
		}
	}
	v, err, _ := s.group.Do(key, func() (any, error) {
		rate, err := s.computeRate(ctx)
		if err != nil {
			return nil, err
		}
		if s.client != nil {
			if err := s.client.Set(ctx, key, strconv.FormatFloat(rate, 'f', -1, 64), s.ttl).Err(); err != nil {
				return nil, err
			}
		}
		return rate, nil
	})
	if err != nil {
		return 0, err
	}
	return v.(float64), nil
}

// RefreshRate recomputes the rate and overwrites the cache entry. The
// storage-rate job calls this after new expenses are posted.
func (s *Service) RefreshRate(ctx context.Context) (float64, error) {
	rate, err := s.computeRate(ctx)
	if err != nil {
		return 0, err
	}
	if s.client != nil {
		if err := s.client.Set(ctx, s.cacheKey(), strconv.FormatFloat(rate, 'f', -1, 64), s.ttl).Err(); err != nil {
			return 0, err
		}
	}
	return rate, nil
}

// ProductCostWithStorage reports the product's quantity-weighted base cost
// plus the global rate applied as a per-unit storage add-on.
func (s *Service) ProductCostWithStorage(ctx context.Context, productID int64) (Breakdown, error) {
	if productID == 0 {
		return Breakdown{}, ErrInvalidProduct
	}
	rate, err := s.Rate(ctx)
	if err != nil {
		return Breakdown{}, err
	}
	qty, value, err := s.repo.ProductWarehouseTotals(ctx, productID)
	if err != nil {
		return Breakdown{}, err
	}
	baseAvg := 0.0
	if qty > 0 {
		baseAvg = value / qty
	}
	storagePerUnit := baseAvg * rate
	return Breakdown{
		ProductID:            productID,
		BaseAvgCost:          baseAvg,
		StorageCostPerUnit:   storagePerUnit,
		TotalCostWithStorage: baseAvg + storagePerUnit,
		StorageCostRate:      rate,
	}, nil
}

func (s *Service) computeRate(ctx context.Context) (float64, error) {
	now := s.now()
	from := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	to := from.AddDate(0, 1, 0)
	expense, err := s.repo.SumExpensesForMonth(ctx, from, to)
	if err != nil {
		return 0, err
	}
	value, err := s.repo.TotalWarehouseValue(ctx)
	if err != nil {
		return 0, err
	}
	if value <= 0 {
		return 0, nil
	}
	return expense / value, nil
}

func (s *Service) cacheKey() string {
	return "storagecost:rate:" + s.now().Format("2006-01")
}
