package integration

import (
	"context"
	"errors"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// StockService applies remote stock rows to products and variants.
type StockService struct {
	remote   integration.RemoteCatalog
	products integration.ProductStore
	now      func() time.Time
}

// NewStockService creates a new StockService
func NewStockService(remote integration.RemoteCatalog, products integration.ProductStore) *StockService {
	return &StockService{
		remote:   remote,
		products: products,
		now:      time.Now,
	}
}

// StockScope selects the stock rows to fetch: explicit product ids, or every
// row changed since a timestamp.
type StockScope struct {
	ProductIDs []int
	Since      time.Time
}

// serialTotal accumulates serialized rows of one product
type serialTotal struct {
	product *integration.LocalProduct
	count   int64
}

// SyncStock fetches the rows of scope and writes stock levels. Rows of other
// stores are ignored. Serialized rows are counted per product and written
// once after the pass.
func (s *StockService) SyncStock(ctx context.Context, run *RunContext, scope StockScope) (*integration.SyncResult, error) {
	var (
		rows []integration.RemoteStock
		err  error
	)
	if len(scope.ProductIDs) > 0 {
		rows, err = s.remote.GetProductStockByIDs(ctx, scope.ProductIDs)
	} else {
		rows, err = s.remote.GetProductStock(ctx, scope.Since)
	}
	if err != nil {
		return nil, err
	}

	result := integration.NewSyncResult(integration.SyncTypeStock, s.now())
	serials := make(map[int]*serialTotal)
	var serialOrder []int

	for i := range rows {
		row := &rows[i]
		if err := ctx.Err(); err != nil {
			result.RecordFailure(strconv.Itoa(row.ProductID), err)
			break
		}
		if run.Settings.StoreID != 0 && row.StoreID != run.Settings.StoreID {
			continue
		}

		product, err := s.products.FindProductByExternalID(ctx, row.ProductID,
			integration.ProductStatusPublish, integration.ProductStatusPrivate, integration.ProductStatusDraft)
		if err != nil {
			if errors.Is(err, integration.ErrNotFound) {
				run.Logger.Warn("stock row for unknown product", zap.Int("product_id", row.ProductID))
				continue
			}
			result.RecordFailure(strconv.Itoa(row.ProductID), err)
			continue
		}

		target := integration.StockTarget{ID: product.ID}
		if row.HasGrid() {
			variant, err := s.matchVariant(ctx, product, row)
			if err != nil {
				result.RecordFailure(strconv.Itoa(row.ProductID), err)
				continue
			}
			if variant == nil {
				grids := row.GridIDs()
				run.Logger.Warn("stock row matches no variant",
					zap.Int("product_id", row.ProductID),
					zap.Ints("grid_ids", grids[:]),
				)
				continue
			}
			target = integration.StockTarget{ID: variant.ID, Variant: true}
		}

		if row.SerialNumber != "" {
			total, ok := serials[row.ProductID]
			if !ok {
				total = &serialTotal{product: product}
				serials[row.ProductID] = total
				serialOrder = append(serialOrder, row.ProductID)
			}
			if row.Available.IsPositive() {
				total.count++
			}
			continue
		}

		level := s.level(run, row.Available, product.SellByDecimals)
		if err := s.products.ApplyStock(ctx, target, level); err != nil {
			result.RecordFailure(strconv.Itoa(row.ProductID), err)
			continue
		}
		result.RecordSuccess()
	}

	for _, productID := range serialOrder {
		total := serials[productID]
		level := s.level(run, decimal.NewFromInt(total.count), total.product.SellByDecimals)
		if err := s.products.ApplyStock(ctx, integration.StockTarget{ID: total.product.ID}, level); err != nil {
			result.RecordFailure(strconv.Itoa(productID), err)
			continue
		}
		result.RecordSuccess()
	}

	result.Finish(s.now())
	return result, nil
}

// level derives the stock level of an available count. Products sold in
// fractional units store the count scaled to the finest unit.
func (s *StockService) level(run *RunContext, available decimal.Decimal, sellByDecimals int) integration.StockLevel {
	quantity := available
	if sellByDecimals > 0 {
		quantity = available.Shift(int32(sellByDecimals))
	}
	return integration.StockLevel{
		Quantity:    quantity,
		Status:      integration.DeriveStockStatus(available, run.Settings.BackordersAllowed),
		ManageStock: true,
		Backorders:  run.Settings.backorderPolicy(),
	}
}

// matchVariant returns the first variant of product matching the grid ids of
// row, or nil. Slot 1 must be stored on the variant and equal; slots 2 to 4
// only have to be equal when stored on the variant.
func (s *StockService) matchVariant(ctx context.Context, product *integration.LocalProduct, row *integration.RemoteStock) (*integration.Variant, error) {
	variants, err := s.products.ListVariants(ctx, product.ID)
	if err != nil {
		return nil, err
	}
	for _, v := range variants {
		if GridsMatch(v.Grids, row.GridIDs()) {
			return v, nil
		}
	}
	return nil, nil
}

// GridsMatch applies the stock row matching rule to stored variant grids.
func GridsMatch(stored integration.GridAssignment, row [4]int) bool {
	if stored[0] == nil || stored[0].GridID != row[0] {
		return false
	}
	for i := 1; i < 4; i++ {
		if stored[i] != nil && stored[i].GridID != row[i] {
			return false
		}
	}
	return true
}
