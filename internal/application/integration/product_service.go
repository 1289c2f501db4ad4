package integration

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"go.uber.org/zap"
)

var zeroQuantity = decimal.Zero

// ProductService reconciles remote products into local products.
type ProductService struct {
	products integration.ProductStore
	terms    integration.TermStore
	variants *VariantService
	images   *ImageService
	cache    integration.ProductCacheInvalidator
	validate *validator.Validate
	now      func() time.Time
}

// NewProductService creates a new ProductService
func NewProductService(
	products integration.ProductStore,
	terms integration.TermStore,
	variants *VariantService,
	images *ImageService,
	cache integration.ProductCacheInvalidator,
) *ProductService {
	return &ProductService{
		products: products,
		terms:    terms,
		variants: variants,
		images:   images,
		cache:    cache,
		validate: validator.New(),
		now:      time.Now,
	}
}

// ---------------------------------------------------------------------------
// Batch
// ---------------------------------------------------------------------------

// SyncProducts processes the remote products in ProductID order. Item
// failures are recorded in the result; only cancellation stops the batch.
func (s *ProductService) SyncProducts(ctx context.Context, run *RunContext, items []integration.RemoteProduct) *integration.SyncResult {
	result := integration.NewSyncResult(integration.SyncTypeProducts, s.now())

	sorted := make([]integration.RemoteProduct, len(items))
	copy(sorted, items)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].ProductID < sorted[j].ProductID
	})

	for i := range sorted {
		item := &sorted[i]
		if err := ctx.Err(); err != nil {
			result.RecordFailure(strconv.Itoa(item.ProductID), err)
			break
		}

		if err := s.ProcessItem(ctx, run, item); err != nil {
			fields := []zap.Field{
				zap.Int("product_id", item.ProductID),
				zap.String("code", item.Product.Code),
				zap.Error(err),
			}
			if integration.IsSoft(err) {
				run.Logger.Warn("product demoted", fields...)
			} else {
				run.Logger.Error("failed to process product", fields...)
			}
			result.RecordFailure(strconv.Itoa(item.ProductID), err)
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
	return result
}

// ---------------------------------------------------------------------------
// Item
// ---------------------------------------------------------------------------

// ProcessItem creates or updates the local product of one remote product.
// Soft errors (DimensionNotEnabledError, GroupingNotEnabledError) demote the
// product to draft and are returned after the product is fully written; any
// other error aborts the item.
func (s *ProductService) ProcessItem(ctx context.Context, run *RunContext, remote *integration.RemoteProduct) error {
	if err := s.validate.Struct(remote); err != nil {
		return fmt.Errorf("%w: product %d: %v", integration.ErrValidation, remote.ProductID, err)
	}
	detail := &remote.Product

	product, err := s.products.FindProductByExternalID(ctx, remote.ProductID, integration.AllProductStatuses...)
	isNew := false
	switch {
	case errors.Is(err, integration.ErrNotFound):
		product = integration.NewLocalProduct(remote.ProductID)
		isNew = true
	case err != nil:
		return err
	}

	placeholder := run.IsPlaceholder(detail.Code)
	s.applyDetail(product, detail, isNew)

	categoryID, err := s.resolveCategory(ctx, detail.DepartmentID)
	if err != nil {
		return err
	}
	product.CategoryIDs = nil
	if categoryID != uuid.Nil {
		product.CategoryIDs = []uuid.UUID{categoryID}
	}

	if isNew {
		product.Status = integration.NextStatus(product.Status, integration.StatusEventCreated, placeholder)
	}
	if err := s.products.SaveProduct(ctx, product); err != nil {
		return err
	}
	if err := s.products.SetProductTerms(ctx, product.ID, integration.TaxonomyProductCategory, product.CategoryIDs, false); err != nil {
		return err
	}

	var softErrs []error
	if detail.HasDimension {
		if err := s.variants.Materialize(ctx, run, product, remote); err != nil {
			if !integration.IsSoft(err) {
				return err
			}
			product.Status = integration.NextStatus(product.Status, integration.StatusEventDimensionInvalid, placeholder)
			softErrs = append(softErrs, err)
		}
	}

	s.applyFlags(ctx, run, product, detail)
	s.applySuppliers(ctx, run, product, detail)
	if err := s.applyGroupings(ctx, product, detail); err != nil {
		if integration.IsSoft(err) {
			product.Status = integration.NextStatus(product.Status, integration.StatusEventGroupingInvalid, placeholder)
			softErrs = append(softErrs, err)
		} else {
			run.Logger.Warn("failed to assign groupings", zap.Int("product_id", remote.ProductID), zap.Error(err))
		}
	}

	if len(softErrs) == 0 {
		product.Status = integration.NextStatus(product.Status, integration.StatusEventReconciled, placeholder)
	}
	if err := s.products.SaveProduct(ctx, product); err != nil {
		return err
	}

	if s.images != nil {
		if err := s.images.ReplaceProductImages(ctx, product, detail.HasDimension); err != nil {
			run.Logger.Warn("failed to replace product images", zap.Int("product_id", remote.ProductID), zap.Error(err))
		}
	}

	return errors.Join(softErrs...)
}

// applyDetail writes the identity, pricing and shipping fields of a remote
// product. Stock defaults are only written on creation.
func (s *ProductService) applyDetail(product *integration.LocalProduct, detail *integration.RemoteProductDetail, isNew bool) {
	description := integration.DefaultDescription
	if detail.Description != nil {
		description = *detail.Description
	}
	short := description
	if detail.SeoDescription != nil {
		short = *detail.SeoDescription
	}

	product.SKU = detail.Code
	product.Name = detail.Name
	product.Description = description
	product.ShortDescription = short
	product.Visibility = integration.VisibilityVisible
	product.Featured = detail.Featured
	product.TaxIDs = append([]int(nil), detail.TaxIDs...)
	product.SellByDecimals = detail.SellByDecimals()
	product.Dimensions = dimensionsOf(detail.WebProperties, product.Dimensions)
	if product.Permalink == "" {
		product.Permalink = fmt.Sprintf("product-%d", product.ExternalID)
	}

	if detail.HasDimension {
		product.Type = integration.ProductTypeVariable
	} else {
		product.Type = integration.ProductTypeSimple
		product.ApplyPricing(detail.Price, detail.DiscountPrice)
	}

	if isNew && !detail.HasDimension {
		product.StockStatus = integration.StockStatusInStock
		product.TotalSales = 0
		product.Downloadable = false
		product.Virtual = false
		product.ManageStock = false
		product.Backorders = integration.BackordersNotify
	}
}

// dimensionsOf overlays the remote web properties on current; absent remote
// values keep the current ones.
func dimensionsOf(props *integration.WebProperties, current integration.Dimensions) integration.Dimensions {
	if props == nil {
		return current
	}
	out := current
	if props.Weight != nil {
		out.Weight = props.Weight
	}
	if props.Length != nil {
		out.Length = props.Length
	}
	if props.Width != nil {
		out.Width = props.Width
	}
	if props.Height != nil {
		out.Height = props.Height
	}
	return out
}

// resolveCategory returns the department term, falling back to
// uncategorized. uuid.Nil means neither exists.
func (s *ProductService) resolveCategory(ctx context.Context, departmentID int) (uuid.UUID, error) {
	for _, slug := range []string{integration.DepartmentSlug(departmentID), integration.UncategorizedSlug} {
		term, err := s.terms.FindTermBySlug(ctx, integration.TaxonomyProductCategory, slug)
		if err == nil {
			return term.ID, nil
		}
		if !errors.Is(err, integration.ErrNotFound) {
			return uuid.Nil, err
		}
	}
	return uuid.Nil, nil
}

// applyFlags replaces the flag terms of the product.
func (s *ProductService) applyFlags(ctx context.Context, run *RunContext, product *integration.LocalProduct, detail *integration.RemoteProductDetail) {
	flags := make([]string, 0, 4)
	if detail.New {
		flags = append(flags, integration.FlagNew)
	}
	if detail.WebClearance {
		flags = append(flags, integration.FlagClearance)
	}
	if detail.WebSpecial {
		flags = append(flags, integration.FlagSpecial)
	}
	if detail.CatalogueOnly {
		flags = append(flags, integration.FlagCatalogueOnly)
	}

	taxonomy := integration.AttributeTaxonomy(integration.FlagsAttributeSlug)
	product.SetAttribute(integration.ProductAttribute{Taxonomy: taxonomy})

	ids := make([]uuid.UUID, 0, len(flags))
	for _, name := range flags {
		term, err := s.findOrCreateTerm(ctx, taxonomy, integration.ValueSlug(taxonomy, name), name)
		if err != nil {
			run.Logger.Warn("failed to resolve flag term", zap.String("flag", name), zap.Error(err))
			continue
		}
		ids = append(ids, term.ID)
	}
	if err := s.products.SetProductTerms(ctx, product.ID, taxonomy, ids, false); err != nil {
		run.Logger.Warn("failed to assign flags", zap.String("product_id", product.ID.String()), zap.Error(err))
	}
}

// applySuppliers replaces the supplier terms. Suppliers missing from the run's
// supplier table are dropped.
func (s *ProductService) applySuppliers(ctx context.Context, run *RunContext, product *integration.LocalProduct, detail *integration.RemoteProductDetail) {
	taxonomy := integration.AttributeTaxonomy(integration.SupplierAttributeSlug)

	ids := make([]uuid.UUID, 0, len(detail.SupplierIDs))
	for _, supplierID := range detail.SupplierIDs {
		if id, ok := run.SupplierTerm(supplierID); ok {
			ids = append(ids, id)
		}
	}
	if len(ids) > 0 {
		product.SetAttribute(integration.ProductAttribute{Taxonomy: taxonomy, Visible: true})
	}
	if err := s.products.SetProductTerms(ctx, product.ID, taxonomy, ids, false); err != nil {
		run.Logger.Warn("failed to assign suppliers", zap.String("product_id", product.ID.String()), zap.Error(err))
	}
}

// applyGroupings assigns the grouping value terms. Every grouping that is not
// mirrored locally is reported in one GroupingNotEnabledError and nothing
// further is assigned once one is missing.
func (s *ProductService) applyGroupings(ctx context.Context, product *integration.LocalProduct, detail *integration.RemoteProductDetail) error {
	var missing []string
	for i, g := range detail.ProductGrouping {
		slug := integration.GroupingSlug(g.Group)
		attr, err := s.terms.FindAttribute(ctx, slug)
		if err != nil {
			if errors.Is(err, integration.ErrNotFound) {
				missing = append(missing, "grouping "+integration.SanitizeName(g.Group))
				continue
			}
			return err
		}
		if len(missing) > 0 {
			continue
		}

		taxonomy := attr.Taxonomy()
		product.SetAttribute(integration.ProductAttribute{Taxonomy: taxonomy, Position: i, Visible: true})

		term, err := s.findOrCreateTerm(ctx, taxonomy, integration.ValueSlug(taxonomy, g.Value), g.Value)
		if err != nil {
			return err
		}
		if err := s.products.SetProductTerms(ctx, product.ID, taxonomy, []uuid.UUID{term.ID}, false); err != nil {
			return err
		}
	}

	if len(missing) > 0 {
		return &integration.GroupingNotEnabledError{Code: detail.Code, Groups: missing}
	}
	return nil
}

func (s *ProductService) findOrCreateTerm(ctx context.Context, taxonomy, slug, name string) (*integration.Term, error) {
	term, err := s.terms.FindTermBySlug(ctx, taxonomy, slug)
	if err == nil {
		return term, nil
	}
	if !errors.Is(err, integration.ErrNotFound) {
		return nil, err
	}
	term = integration.NewTerm(taxonomy, slug, name, "")
	if err := s.terms.SaveTerm(ctx, term); err != nil {
		return nil, err
	}
	return term, nil
}

// ---------------------------------------------------------------------------
// Disabled products
// ---------------------------------------------------------------------------

// RetireDisabled moves every local product the remote reports disabled to
// trash.
func (s *ProductService) RetireDisabled(ctx context.Context, run *RunContext, externalIDs []int) (*integration.SyncResult, error) {
	result := integration.NewSyncResult(integration.SyncTypeDisabled, s.now())
	if len(externalIDs) == 0 {
		result.Finish(s.now())
		return result, nil
	}

	trashed, err := s.products.TrashByExternalIDs(ctx, externalIDs)
	if err != nil {
		return nil, err
	}
	for i := int64(0); i < trashed; i++ {
		result.RecordSuccess()
	}
	run.Logger.Info("disabled products retired",
		zap.Int("reported", len(externalIDs)),
		zap.Int64("trashed", trashed),
	)

	if s.cache != nil && trashed > 0 {
		if err := s.cache.InvalidateAll(ctx); err != nil {
			run.Logger.Warn("failed to invalidate product cache", zap.Error(err))
		}
	}

	result.Finish(s.now())
	return result, nil
}
