package integration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// promotionTimeLayout accepts the remote end date with optional fractional seconds
const promotionTimeLayout = "2006-01-02T15:04:05.999999999"

// PromotionService applies active remote promotions as sale prices and
// retracts sale prices of products no longer promoted.
type PromotionService struct {
	remote   integration.RemoteCatalog
	products integration.ProductStore
	cache    integration.ProductCacheInvalidator
	now      func() time.Time
}

// NewPromotionService creates a new PromotionService
func NewPromotionService(
	remote integration.RemoteCatalog,
	products integration.ProductStore,
	cache integration.ProductCacheInvalidator,
) *PromotionService {
	return &PromotionService{
		remote:   remote,
		products: products,
		cache:    cache,
		now:      time.Now,
	}
}

// SyncPromotions runs one promotion pass.
func (s *PromotionService) SyncPromotions(ctx context.Context, run *RunContext) (*integration.SyncResult, error) {
	promotions, err := s.remote.GetActivePromotions(ctx)
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult(integration.SyncTypePromotions, s.now())

	keep := make([]int, 0, len(promotions))
	for _, p := range promotions {
		keep = append(keep, p.ProductID)
	}
	cleared, err := s.products.ClearSalesExcept(ctx, keep)
	if err != nil {
		return nil, err
	}
	run.Logger.Info("expired promotions retracted", zap.Int64("products", cleared))

	for _, p := range promotions {
		if err := ctx.Err(); err != nil {
			result.RecordFailure(strconv.Itoa(p.ProductID), err)
			break
		}
		if err := s.apply(ctx, run, p); err != nil {
			if errors.Is(err, integration.ErrNotFound) {
				run.Logger.Debug("promotion for unknown product", zap.Int("product_id", p.ProductID))
				continue
			}
			run.Logger.Warn("failed to apply promotion", zap.Int("product_id", p.ProductID), zap.Error(err))
			result.RecordFailure(strconv.Itoa(p.ProductID), err)
			continue
		}
		result.RecordSuccess()
	}

	if s.cache != nil {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			run.Logger.Warn("failed to invalidate product cache", zap.Error(err))
		}
	}

	result.Finish(s.now())
	return result, nil
}

func (s *PromotionService) apply(ctx context.Context, run *RunContext, p integration.RemotePromotion) error {
	product, err := s.products.FindProductByExternalID(ctx, p.ProductID, integration.ProductStatusPublish)
	if err != nil {
		return err
	}

	price := p.Price
	product.SalePrice = &price
	product.Price = price
	product.SaleTo = ParsePromotionEnd(p.DateEnd, run.Settings.location())
	return s.products.SaveProduct(ctx, product)
}

// ParsePromotionEnd parses a remote end date and converts it to loc. An
// unparseable value yields nil so the end date is cleared.
func ParsePromotionEnd(value string, loc *time.Location) *time.Time {
	if value == "" {
		return nil
	}
	t, err := time.Parse(promotionTimeLayout, value)
	if err != nil {
		return nil
	}
	t = t.In(loc)
	return &t
}
