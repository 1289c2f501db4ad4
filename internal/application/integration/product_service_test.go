package integration

import (
	"context"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type productFixture struct {
	store   *memStore
	objects *memObjects
	remote  *MockRemoteCatalog
	svc     *ProductService
}

func newProductFixture() *productFixture {
	store := newMemStore()
	objects := newMemObjects()
	remote := new(MockRemoteCatalog)
	logger := zap.NewNop()

	images := NewImageService(remote, store, objects, store, store, logger)
	variants := NewVariantService(remote, store, store, nil, logger)
	svc := NewProductService(store, store, variants, images, nil)

	return &productFixture{store: store, objects: objects, remote: remote, svc: svc}
}

func (f *productFixture) noImages() {
	f.remote.On("GetImagesForProduct", mock.Anything, mock.Anything, mock.Anything).
		Return([]integration.RemoteImage{}, nil)
}

func simpleRemote(id int, code string, price string, department int) integration.RemoteProduct {
	return integration.RemoteProduct{
		ProductID: id,
		Product: integration.RemoteProductDetail{
			Code:         code,
			Name:         "Product " + code,
			Price:        decimal.RequireFromString(price),
			DepartmentID: department,
		},
	}
}

func fullGrids(ids ...int) []integration.BarcodeGrid {
	grids := make([]integration.BarcodeGrid, 4)
	for i := range grids {
		grids[i] = integration.BarcodeGrid{GridID: intPtr(0)}
	}
	for i, id := range ids {
		grids[i] = integration.BarcodeGrid{GridID: intPtr(id)}
	}
	return grids
}

// ---------------------------------------------------------------------------
// Simple products
// ---------------------------------------------------------------------------

func TestProductService_ProcessItem_CreatesSimpleProduct(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	department := f.store.addTerm(integration.TaxonomyProductCategory, "department-5", "Shoes")

	remote := simpleRemote(100, "ABC", "19.99", 5)
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "ABC", product.SKU)
	assert.Equal(t, integration.ProductStatusPublish, product.Status)
	assert.Equal(t, integration.ProductTypeSimple, product.Type)
	assert.True(t, product.Price.Equal(decimal.RequireFromString("19.99")))
	assert.True(t, product.RegularPrice.Equal(decimal.RequireFromString("19.99")))
	assert.Equal(t, integration.DefaultDescription, product.Description)
	assert.Equal(t, integration.DefaultDescription, product.ShortDescription)
	assert.Equal(t, integration.StockStatusInStock, product.StockStatus)
	assert.False(t, product.ManageStock)
	assert.Equal(t, integration.BackordersNotify, product.Backorders)
	require.Len(t, product.CategoryIDs, 1)
	assert.Equal(t, department.ID, product.CategoryIDs[0])
	assert.Equal(t, 0, f.store.variantCount())
}

func TestProductService_ProcessItem_FallsBackToUncategorized(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	uncategorized := f.store.addTerm(integration.TaxonomyProductCategory, integration.UncategorizedSlug, "Uncategorized")

	remote := simpleRemote(100, "ABC", "19.99", 5)
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	require.Len(t, product.CategoryIDs, 1)
	assert.Equal(t, uncategorized.ID, product.CategoryIDs[0])
}

func TestProductService_ProcessItem_DiscountPrice(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	remote := simpleRemote(100, "ABC", "19.99", 5)
	discount := decimal.RequireFromString("15.00")
	remote.Product.DiscountPrice = &discount
	remote.Product.Description = strPtr("Long text")

	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.True(t, product.Price.Equal(discount))
	require.NotNil(t, product.SalePrice)
	assert.True(t, product.SalePrice.Equal(discount))
	assert.Equal(t, "Long text", product.ShortDescription)
}

func TestProductService_ProcessItem_PlaceholderIsPrivate(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	run := testRun(Settings{})
	run.placeholders["SHIP"] = struct{}{}

	remote := simpleRemote(7, "ship", "0", 0)
	require.NoError(t, f.svc.ProcessItem(ctx, run, &remote))

	product, err := f.store.FindProductByExternalID(ctx, 7)
	require.NoError(t, err)
	assert.Equal(t, integration.ProductStatusPrivate, product.Status)
}

func TestProductService_ProcessItem_Validation(t *testing.T) {
	f := newProductFixture()
	remote := simpleRemote(0, "", "1", 0)

	err := f.svc.ProcessItem(context.Background(), testRun(Settings{}), &remote)
	assert.ErrorIs(t, err, integration.ErrValidation)
	assert.Equal(t, 0, f.store.productCount())
}

func TestProductService_SyncProducts_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	f.store.addTerm(integration.TaxonomyProductCategory, "department-5", "Shoes")

	items := []integration.RemoteProduct{
		simpleRemote(200, "B", "5.00", 5),
		simpleRemote(100, "A", "19.99", 5),
	}
	run := testRun(Settings{})

	first := f.svc.SyncProducts(ctx, run, items)
	second := f.svc.SyncProducts(ctx, run, items)

	assert.Equal(t, integration.SyncStatusSuccess, first.Status)
	assert.Equal(t, 2, second.SuccessCount)
	assert.Equal(t, 2, f.store.productCount())
	assert.Equal(t, 0, f.store.variantCount())

	a, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, "A", a.SKU)
	assert.True(t, a.Price.Equal(decimal.RequireFromString("19.99")))
}

func TestProductService_ProcessItem_Flags(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	remote := simpleRemote(100, "ABC", "1", 0)
	remote.Product.New = true
	remote.Product.CatalogueOnly = true
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, _ := f.store.FindProductByExternalID(ctx, 100)
	taxonomy := integration.AttributeTaxonomy(integration.FlagsAttributeSlug)
	terms, err := f.store.ListProductTerms(ctx, product.ID, taxonomy)
	require.NoError(t, err)
	require.Len(t, terms, 2)
	assert.Equal(t, integration.FlagNew, terms[0].Name)
	assert.Equal(t, integration.FlagCatalogueOnly, terms[1].Name)

	// flags are fully replaced on the next run
	remote.Product.New = false
	remote.Product.CatalogueOnly = false
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))
	assert.Empty(t, f.store.termIDs(product.ID, taxonomy))
}

func TestProductService_ProcessItem_Suppliers(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	taxonomy := integration.AttributeTaxonomy(integration.SupplierAttributeSlug)
	acme := f.store.addTerm(taxonomy, "supplier-acme-3", "Acme")
	run := testRun(Settings{})
	run.suppliers[3] = acme.ID

	remote := simpleRemote(100, "ABC", "1", 0)
	remote.Product.SupplierIDs = []int{3, 99}
	require.NoError(t, f.svc.ProcessItem(ctx, run, &remote))

	product, _ := f.store.FindProductByExternalID(ctx, 100)
	assigned := f.store.termIDs(product.ID, taxonomy)
	require.Len(t, assigned, 1)
	assert.Equal(t, acme.ID, assigned[0])
}

func TestProductService_ProcessItem_GroupingNotEnabled(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	f.store.addAttribute(integration.GroupingSlug("Fabric"))

	remote := simpleRemote(100, "ABC", "1", 0)
	remote.Product.ProductGrouping = []integration.GroupingAssignment{
		{Group: "Fabric", Value: "Cotton"},
		{Group: "Season", Value: "Winter"},
	}

	err := f.svc.ProcessItem(ctx, testRun(Settings{}), &remote)
	require.Error(t, err)
	assert.True(t, integration.IsSoft(err))

	var groupErr *integration.GroupingNotEnabledError
	require.True(t, errors.As(err, &groupErr))
	assert.Equal(t, []string{"grouping season"}, groupErr.Groups)

	product, _ := f.store.FindProductByExternalID(ctx, 100)
	assert.Equal(t, integration.ProductStatusDraft, product.Status)

	// the known grouping is still assigned
	fabric := integration.AttributeTaxonomy(integration.GroupingSlug("Fabric"))
	assert.Len(t, f.store.termIDs(product.ID, fabric), 1)
}

// ---------------------------------------------------------------------------
// Variable products
// ---------------------------------------------------------------------------

func variableRemote() integration.RemoteProduct {
	remote := simpleRemote(100, "TEE", "20.00", 0)
	remote.Product.HasDimension = true
	remote.Product.DimensionId1 = 12
	return remote
}

func TestProductService_ProcessItem_MaterializesVariants(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	grid := f.store.addAttribute(integration.GridSlug(12), "Red", "Blue")

	f.remote.On("GetProductBarcodes", mock.Anything, 100).Return([]integration.RemoteBarcode{
		{Barcode: "111", Grids: withValues(fullGrids(7), "Red")},
		{Barcode: "222", Grids: withValues(fullGrids(8), "Blue")},
	}, nil)

	remote := variableRemote()
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, integration.ProductTypeVariable, product.Type)
	assert.Equal(t, integration.ProductStatusPublish, product.Status)

	red, err := f.store.FindVariantByUID(ctx, "1007000")
	require.NoError(t, err)
	blue, err := f.store.FindVariantByUID(ctx, "1008000")
	require.NoError(t, err)

	taxonomy := grid.Taxonomy()
	assert.Equal(t, "pa_grid-12-val-red", red.Attributes[taxonomy])
	assert.Equal(t, "pa_grid-12-val-blue", blue.Attributes[taxonomy])
	assert.NotEqual(t, red.Attributes[taxonomy], blue.Attributes[taxonomy])
	assert.Equal(t, "111", red.Barcode)
	assert.True(t, red.ManageStock)
	assert.Equal(t, integration.BackordersNotify, red.Backorders)
	require.NotNil(t, red.Grids[0])
	assert.Equal(t, 12, red.Grids[0].DimensionID)
	assert.Equal(t, 7, red.Grids[0].GridID)
	assert.Nil(t, red.Grids[1])
	assert.Len(t, f.store.termIDs(product.ID, taxonomy), 2)

	// second run reuses every variant
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))
	assert.Equal(t, 2, f.store.variantCount())
	assert.Equal(t, 1, f.store.productCount())
	assert.Len(t, f.store.termIDs(product.ID, taxonomy), 2)
}

func withValues(grids []integration.BarcodeGrid, values ...string) []integration.BarcodeGrid {
	for i, v := range values {
		grids[i].GridValue = v
	}
	return grids
}

func TestProductService_ProcessItem_ZeroPaddedBarcodeGetsImage(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.store.addAttribute(integration.GridSlug(12), "Red")

	f.remote.On("GetProductBarcodes", mock.Anything, 100).Return([]integration.RemoteBarcode{
		{Barcode: "000111", Grids: withValues(fullGrids(7), "Red")},
	}, nil)
	f.remote.On("GetImagesForProduct", mock.Anything, 100, true).Return([]integration.RemoteImage{
		{Data: []byte("a"), MimeType: "image/jpeg", Barcode: integration.NoImageBarcode},
		{Data: []byte("b"), MimeType: "image/jpeg", Barcode: 111},
	}, nil)

	remote := variableRemote()
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	red, err := f.store.FindVariantByUID(ctx, "1007000")
	require.NoError(t, err)
	assert.Equal(t, "111", red.Barcode)
	require.NotNil(t, red.FeatureImageID)
	require.Len(t, product.Gallery, 1)
	assert.Equal(t, product.Gallery[0], *red.FeatureImageID)
}

func TestProductService_ProcessItem_DimensionNotEnabled(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	remote := variableRemote()
	remote.Product.DimensionId2 = 13

	err := f.svc.ProcessItem(ctx, testRun(Settings{}), &remote)
	require.Error(t, err)

	var dimErr *integration.DimensionNotEnabledError
	require.True(t, errors.As(err, &dimErr))
	assert.Equal(t, []string{"dimension12", "dimension13"}, dimErr.Dimensions)

	product, err := f.store.FindProductByExternalID(ctx, 100)
	require.NoError(t, err)
	assert.Equal(t, integration.ProductStatusDraft, product.Status)
	assert.Equal(t, 0, f.store.variantCount())
	f.remote.AssertNotCalled(t, "GetProductBarcodes", mock.Anything, mock.Anything)
}

func TestProductService_ProcessItem_DraftIsRepublishedOnceFixed(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()
	f.remote.On("GetProductBarcodes", mock.Anything, 100).Return([]integration.RemoteBarcode{}, nil)

	remote := variableRemote()
	require.Error(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	f.store.addAttribute(integration.GridSlug(12), "Red")
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, _ := f.store.FindProductByExternalID(ctx, 100)
	assert.Equal(t, integration.ProductStatusPublish, product.Status)
}

func TestProductService_ProcessItem_TermMissingAbortsItem(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.store.addAttribute(integration.GridSlug(12), "Red")
	f.remote.On("GetProductBarcodes", mock.Anything, 100).Return([]integration.RemoteBarcode{
		{Barcode: "1", Grids: withValues(fullGrids(9), "Green")},
	}, nil)

	remote := variableRemote()
	err := f.svc.ProcessItem(ctx, testRun(Settings{}), &remote)
	assert.ErrorIs(t, err, integration.ErrTermMissing)
	assert.False(t, integration.IsSoft(err))
}

func TestProductService_SyncProducts_RecordsSoftFailures(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	items := []integration.RemoteProduct{variableRemote(), simpleRemote(50, "S", "1", 0)}
	result := f.svc.SyncProducts(ctx, testRun(Settings{}), items)

	assert.Equal(t, integration.SyncStatusPartial, result.Status)
	assert.Equal(t, 2, result.TotalCount)
	require.Equal(t, 1, result.FailedCount())
	assert.Equal(t, "100", result.FailedItems[0].ItemID)
	assert.True(t, result.FailedItems[0].Soft)
	assert.Equal(t, "DIMENSION_NOT_ENABLED", result.FailedItems[0].ErrorCode)
}

// ---------------------------------------------------------------------------
// Images
// ---------------------------------------------------------------------------

func TestProductService_ProcessItem_ReplacesImages(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.store.addAttribute(integration.GridSlug(12), "Red")
	f.remote.On("GetProductBarcodes", mock.Anything, 100).Return([]integration.RemoteBarcode{
		{Barcode: "555", Grids: withValues(fullGrids(7), "Red")},
	}, nil)
	f.remote.On("GetImagesForProduct", mock.Anything, 100, true).Return([]integration.RemoteImage{
		{Data: []byte("a"), MimeType: "image/png", Barcode: integration.NoImageBarcode},
		{Data: []byte("b"), MimeType: "image/jpeg", Barcode: 555},
		{Data: []byte("c"), MimeType: "image/gif", Barcode: 999},
	}, nil)

	remote := variableRemote()
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))

	product, _ := f.store.FindProductByExternalID(ctx, 100)
	require.NotNil(t, product.FeatureImageID)
	require.Len(t, product.Gallery, 2)

	feature, err := f.store.GetMedia(ctx, *product.FeatureImageID)
	require.NoError(t, err)
	assert.Equal(t, "product-100.png", feature.Filename)

	variant, err := f.store.FindVariantByUID(ctx, "1007000")
	require.NoError(t, err)
	require.NotNil(t, variant.FeatureImageID)
	assert.Equal(t, product.Gallery[0], *variant.FeatureImageID)

	// a second run replaces rather than accumulates
	require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &remote))
	media, err := f.store.ListMedia(ctx, product.ID)
	require.NoError(t, err)
	assert.Len(t, media, 3)
	assert.Equal(t, 3, f.objects.count())
}

// ---------------------------------------------------------------------------
// Disabled products
// ---------------------------------------------------------------------------

func TestProductService_RetireDisabled(t *testing.T) {
	ctx := context.Background()
	f := newProductFixture()
	f.noImages()

	for _, r := range []integration.RemoteProduct{simpleRemote(1, "A", "1", 0), simpleRemote(2, "B", "1", 0)} {
		r := r
		require.NoError(t, f.svc.ProcessItem(ctx, testRun(Settings{}), &r))
	}

	result, err := f.svc.RetireDisabled(ctx, testRun(Settings{}), []int{2, 3})
	require.NoError(t, err)
	assert.Equal(t, 1, result.SuccessCount)

	b, _ := f.store.FindProductByExternalID(ctx, 2)
	assert.Equal(t, integration.ProductStatusTrash, b.Status)
	a, _ := f.store.FindProductByExternalID(ctx, 1)
	assert.Equal(t, integration.ProductStatusPublish, a.Status)
}
