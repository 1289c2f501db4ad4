package integration

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

// VariantService materializes the grid combinations of variable products.
type VariantService struct {
	remote   integration.RemoteCatalog
	products integration.ProductStore
	terms    integration.TermStore
	cache    integration.ProductCacheInvalidator
	logger   *zap.Logger
}

// NewVariantService creates a new VariantService
func NewVariantService(
	remote integration.RemoteCatalog,
	products integration.ProductStore,
	terms integration.TermStore,
	cache integration.ProductCacheInvalidator,
	logger *zap.Logger,
) *VariantService {
	return &VariantService{
		remote:   remote,
		products: products,
		terms:    terms,
		cache:    cache,
		logger:   logger,
	}
}

// dimensionSlot is a populated, mirrored dimension of the parent product
type dimensionSlot struct {
	position    int
	dimensionID int
	attribute   *integration.Attribute
}

// Materialize creates or updates one variant per remote barcode combination.
// The parent must already be saved. Dimensions that are not mirrored locally
// are reported together as a DimensionNotEnabledError before anything is
// written. The parent's attribute list is updated in memory; the caller saves
// it.
func (s *VariantService) Materialize(ctx context.Context, run *RunContext, parent *integration.LocalProduct, remote *integration.RemoteProduct) error {
	slots, err := s.resolveDimensions(ctx, remote)
	if err != nil {
		return err
	}
	if len(slots) == 0 {
		return nil
	}

	var bySlot [4]*dimensionSlot
	for i := range slots {
		slot := &slots[i]
		bySlot[slot.position] = slot
		parent.SetAttribute(integration.ProductAttribute{
			Taxonomy:  slot.attribute.Taxonomy(),
			Position:  slot.position,
			Visible:   true,
			Variation: true,
		})
	}

	barcodes, err := s.remote.GetProductBarcodes(ctx, remote.ProductID)
	if err != nil {
		return err
	}

	for _, combo := range barcodes {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := s.saveVariant(ctx, run, parent, remote, bySlot, combo); err != nil {
			return err
		}
	}

	if s.cache != nil {
		if err := s.cache.InvalidateProduct(ctx, parent.ID); err != nil {
			run.Logger.Warn("failed to invalidate variant cache",
				zap.String("product_id", parent.ID.String()),
				zap.Error(err),
			)
		}
	}
	return nil
}

// resolveDimensions returns the mirrored dimensions of the product, or a
// DimensionNotEnabledError naming every dimension that is not mirrored.
func (s *VariantService) resolveDimensions(ctx context.Context, remote *integration.RemoteProduct) ([]dimensionSlot, error) {
	var (
		slots   []dimensionSlot
		missing []string
	)
	for i, dimID := range remote.Product.DimensionIDs() {
		if dimID == 0 {
			continue
		}
		attr, err := s.terms.FindAttribute(ctx, integration.GridSlug(dimID))
		if err != nil {
			if errors.Is(err, integration.ErrNotFound) {
				missing = append(missing, fmt.Sprintf("dimension%d", dimID))
				continue
			}
			return nil, err
		}
		slots = append(slots, dimensionSlot{position: i, dimensionID: dimID, attribute: attr})
	}

	if len(missing) > 0 {
		return nil, &integration.DimensionNotEnabledError{Code: remote.Product.Code, Dimensions: missing}
	}
	return slots, nil
}

func (s *VariantService) saveVariant(
	ctx context.Context,
	run *RunContext,
	parent *integration.LocalProduct,
	remote *integration.RemoteProduct,
	bySlot [4]*dimensionSlot,
	combo integration.RemoteBarcode,
) error {
	uid := integration.VariantUID(remote.ProductID, combo.GridIDs()...)

	variant, err := s.products.FindVariantByUID(ctx, uid)
	created := false
	switch {
	case errors.Is(err, integration.ErrNotFound):
		variant = integration.NewVariant(parent, uid)
		variant.ManageStock = true
		variant.Backorders = integration.BackordersNotify
		variant.StockStatus = integration.DeriveStockStatus(zeroQuantity, run.Settings.BackordersAllowed)
		created = true
	case err != nil:
		return err
	}

	var grids integration.GridAssignment
	for i, slot := range bySlot {
		grid := combo.Grid(i)
		if slot == nil || grid.GridID == nil {
			continue
		}
		grids[i] = &integration.GridSlot{DimensionID: slot.dimensionID, GridID: *grid.GridID}
	}
	variant.Grids = grids

	if variant.Attributes == nil {
		variant.Attributes = make(map[string]string)
	}
	for i := range combo.Grids {
		grid := combo.Grid(i)
		if grid.GridID == nil || *grid.GridID == 0 {
			continue
		}
		if i >= len(bySlot) || bySlot[i] == nil {
			return fmt.Errorf("%w: grid position %d of %s", integration.ErrTaxonomyMissing, i+1, uid)
		}
		taxonomy := bySlot[i].attribute.Taxonomy()

		term, err := s.terms.FindTermByName(ctx, taxonomy, grid.GridValue)
		if err != nil {
			if errors.Is(err, integration.ErrNotFound) {
				return fmt.Errorf("%w: %q in %s", integration.ErrTermMissing, grid.GridValue, taxonomy)
			}
			return err
		}
		if err := s.products.SetProductTerms(ctx, parent.ID, taxonomy, []uuid.UUID{term.ID}, true); err != nil {
			return err
		}
		variant.Attributes[taxonomy] = term.Slug
	}

	variant.SKU = remote.Product.Code
	variant.ApplyPricing(remote.Product.Price, remote.Product.DiscountPrice)
	variant.Dimensions = dimensionsOf(remote.Product.WebProperties, variant.Dimensions)
	variant.Barcode = integration.BarcodeKey(combo.Barcode)

	if err := s.products.SaveVariant(ctx, variant); err != nil {
		return err
	}
	if created {
		run.Logger.Debug("variant created", zap.String("uid", uid), zap.String("sku", variant.SKU))
	}
	return nil
}
