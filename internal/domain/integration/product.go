package integration

import (
	"context"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Product enums
// ---------------------------------------------------------------------------

// ProductType distinguishes simple products from variant parents
type ProductType string

const (
	ProductTypeSimple   ProductType = "simple"
	ProductTypeVariable ProductType = "variable"
)

// StockStatus is the storefront stock status of a product or variant
type StockStatus string

const (
	StockStatusInStock     StockStatus = "instock"
	StockStatusOutOfStock  StockStatus = "outofstock"
	StockStatusOnBackorder StockStatus = "onbackorder"
)

// IsValid returns true if the stock status is valid
func (s StockStatus) IsValid() bool {
	switch s {
	case StockStatusInStock, StockStatusOutOfStock, StockStatusOnBackorder:
		return true
	default:
		return false
	}
}

// BackorderPolicy controls whether a product accepts backorders
type BackorderPolicy string

const (
	BackordersNo     BackorderPolicy = "no"
	BackordersNotify BackorderPolicy = "notify"
	BackordersYes    BackorderPolicy = "yes"
)

// VisibilityVisible is the only catalog visibility the sync assigns
const VisibilityVisible = "visible"

// DefaultDescription is used when the remote product has no description
const DefaultDescription = "No Description"

// ---------------------------------------------------------------------------
// LocalProduct
// ---------------------------------------------------------------------------

// ProductAttribute registers an attribute taxonomy on a product.
type ProductAttribute struct {
	Taxonomy  string `json:"taxonomy"`
	Position  int    `json:"position"`
	Visible   bool   `json:"visible"`
	Variation bool   `json:"variation"`
}

// Dimensions holds the optional shipping dimensions of a product
type Dimensions struct {
	Weight *decimal.Decimal
	Length *decimal.Decimal
	Width  *decimal.Decimal
	Height *decimal.Decimal
}

// LocalProduct is the storefront product document joined to a remote product
// by ExternalID.
type LocalProduct struct {
	// ID is the storefront identifier
	ID uuid.UUID
	// ExternalID is the remote ProductID; unique across products
	ExternalID int
	// SKU is the remote product code
	SKU string
	// Name is the display name
	Name string
	// Description is the long description
	Description string
	// ShortDescription is the SEO description
	ShortDescription string
	// Permalink is the storefront slug of the product
	Permalink string
	// Status is the publication status
	Status ProductStatus
	// Type is simple or variable
	Type ProductType
	// Visibility is the catalog visibility
	Visibility string
	// Featured marks featured products
	Featured bool

	RegularPrice decimal.Decimal
	SalePrice    *decimal.Decimal
	Price        decimal.Decimal
	SaleFrom     *time.Time
	SaleTo       *time.Time

	Dimensions Dimensions

	ManageStock   bool
	Backorders    BackorderPolicy
	StockQuantity *decimal.Decimal
	StockStatus   StockStatus
	TotalSales    int
	Virtual       bool
	Downloadable  bool

	// SellByDecimals is the decimal precision of the remote sell-by unit
	SellByDecimals int
	// TaxIDs are the remote tax identifiers
	TaxIDs []int
	// CategoryIDs are product_cat term ids
	CategoryIDs []uuid.UUID
	// Attributes are the registered attribute taxonomies
	Attributes []ProductAttribute

	// FeatureImageID is the primary image
	FeatureImageID *uuid.UUID
	// Gallery holds the secondary images in remote order
	Gallery []uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewLocalProduct creates an unsaved product for a remote product id.
func NewLocalProduct(externalID int) *LocalProduct {
	return &LocalProduct{
		ID:          uuid.New(),
		ExternalID:  externalID,
		Type:        ProductTypeSimple,
		Visibility:  VisibilityVisible,
		Backorders:  BackordersNo,
		StockStatus: StockStatusInStock,
	}
}

// IsVariable returns true for variant parents
func (p *LocalProduct) IsVariable() bool {
	return p.Type == ProductTypeVariable
}

// SetAttribute registers or replaces the attribute entry for a taxonomy.
func (p *LocalProduct) SetAttribute(attr ProductAttribute) {
	for i := range p.Attributes {
		if p.Attributes[i].Taxonomy == attr.Taxonomy {
			p.Attributes[i] = attr
			return
		}
	}
	p.Attributes = append(p.Attributes, attr)
}

// ApplyPricing sets regular, sale and active price from a remote price and
// an optional discount price.
func (p *LocalProduct) ApplyPricing(price decimal.Decimal, discount *decimal.Decimal) {
	p.RegularPrice = price
	p.SalePrice, p.Price = salePricing(price, discount)
}

// salePricing returns the sale and active price. Without a discount the sale
// price equals the regular price.
func salePricing(price decimal.Decimal, discount *decimal.Decimal) (*decimal.Decimal, decimal.Decimal) {
	sale := price
	if discount != nil {
		sale = *discount
	}
	return &sale, sale
}

// ClearSale removes sale pricing and sale dates, restoring the regular price.
func (p *LocalProduct) ClearSale() {
	p.SalePrice = nil
	p.SaleFrom = nil
	p.SaleTo = nil
	p.Price = p.RegularPrice
}

// ---------------------------------------------------------------------------
// Variant
// ---------------------------------------------------------------------------

// GridSlot is one populated dimension of a variant.
type GridSlot struct {
	DimensionID int `json:"dimensionId"`
	GridID      int `json:"gridId"`
}

// GridAssignment holds the up to four dimension/grid pairs of a variant.
// A nil slot means the parent had no dimension in that position.
type GridAssignment [4]*GridSlot

// Variant is one grid combination of a variable product.
type Variant struct {
	ID        uuid.UUID
	ParentID  uuid.UUID
	UID       string
	SKU       string
	Title     string
	Permalink string
	Status    ProductStatus

	RegularPrice decimal.Decimal
	SalePrice    *decimal.Decimal
	Price        decimal.Decimal

	Dimensions Dimensions

	ManageStock   bool
	Backorders    BackorderPolicy
	StockQuantity *decimal.Decimal
	StockStatus   StockStatus

	// Grids is the stored dimension/grid metadata
	Grids GridAssignment
	// Attributes maps attribute taxonomy to the selected term slug
	Attributes map[string]string
	// Barcode is the secondary index used for image assignment, stored as a
	// BarcodeKey
	Barcode string
	// FeatureImageID is the variant image
	FeatureImageID *uuid.UUID

	CreatedAt time.Time
	UpdatedAt time.Time
}

// NewVariant creates an unsaved variant under parent.
func NewVariant(parent *LocalProduct, uid string) *Variant {
	return &Variant{
		ID:         uuid.New(),
		ParentID:   parent.ID,
		UID:        uid,
		Title:      parent.Name,
		Permalink:  parent.Permalink,
		Status:     ProductStatusPublish,
		Attributes: make(map[string]string),
	}
}

// ApplyPricing mirrors LocalProduct.ApplyPricing.
func (v *Variant) ApplyPricing(price decimal.Decimal, discount *decimal.Decimal) {
	v.RegularPrice = price
	v.SalePrice, v.Price = salePricing(price, discount)
}

// VariantUID builds the composite identity of a grid combination: the remote
// product id followed by each grid id, missing grid ids contributing nothing.
func VariantUID(productID int, gridIDs ...*int) string {
	var b strings.Builder
	b.WriteString(strconv.Itoa(productID))
	for i := 0; i < 4; i++ {
		if i < len(gridIDs) && gridIDs[i] != nil {
			b.WriteString(strconv.Itoa(*gridIDs[i]))
		}
	}
	return b.String()
}

// BarcodeKey normalizes a barcode for variant lookups. Surrounding space and
// leading zeros are dropped so "000555" and the image barcode 555 agree.
func BarcodeKey(barcode string) string {
	key := strings.TrimLeft(strings.TrimSpace(barcode), "0")
	if key == "" && strings.TrimSpace(barcode) != "" {
		return "0"
	}
	return key
}

// ---------------------------------------------------------------------------
// Stock
// ---------------------------------------------------------------------------

// StockTarget identifies the product or variant a stock row applies to
type StockTarget struct {
	ID      uuid.UUID
	Variant bool
}

// StockLevel is the stock state written by the stock reconciler
type StockLevel struct {
	Quantity    decimal.Decimal
	Status      StockStatus
	ManageStock bool
	Backorders  BackorderPolicy
}

// DeriveStockStatus maps an available quantity to a stock status.
func DeriveStockStatus(available decimal.Decimal, backordersAllowed bool) StockStatus {
	if available.GreaterThanOrEqual(decimal.NewFromInt(1)) {
		return StockStatusInStock
	}
	if backordersAllowed {
		return StockStatusOnBackorder
	}
	return StockStatusOutOfStock
}

// ---------------------------------------------------------------------------
// Product store port
// ---------------------------------------------------------------------------

// ProductStore persists storefront products and variants.
type ProductStore interface {
	// GetProduct returns a product by storefront id or ErrNotFound
	GetProduct(ctx context.Context, id uuid.UUID) (*LocalProduct, error)
	// FindProductByExternalID returns the first product with the external id
	// in any of the given statuses (all statuses when none given) or ErrNotFound
	FindProductByExternalID(ctx context.Context, externalID int, statuses ...ProductStatus) (*LocalProduct, error)
	// SaveProduct creates or updates a product by ID
	SaveProduct(ctx context.Context, product *LocalProduct) error
	// SetProductStatus changes only the status of a product
	SetProductStatus(ctx context.Context, id uuid.UUID, status ProductStatus) error

	// SetProductTerms attaches terms of one taxonomy to a product. When
	// appendTerms is false every existing term of that taxonomy is replaced.
	SetProductTerms(ctx context.Context, productID uuid.UUID, taxonomy string, termIDs []uuid.UUID, appendTerms bool) error
	// ListProductTerms returns the terms of one taxonomy attached to a product
	ListProductTerms(ctx context.Context, productID uuid.UUID, taxonomy string) ([]*Term, error)

	// GetVariant returns a variant by storefront id or ErrNotFound
	GetVariant(ctx context.Context, id uuid.UUID) (*Variant, error)
	// FindVariantByUID returns the variant with the composite uid or ErrNotFound
	FindVariantByUID(ctx context.Context, uid string) (*Variant, error)
	// FindVariantByBarcode returns the first variant of parent with the barcode or ErrNotFound
	FindVariantByBarcode(ctx context.Context, parentID uuid.UUID, barcode string) (*Variant, error)
	// ListVariants returns every variant of a parent product
	ListVariants(ctx context.Context, parentID uuid.UUID) ([]*Variant, error)
	// SaveVariant creates or updates a variant by ID
	SaveVariant(ctx context.Context, variant *Variant) error

	// ApplyStock writes a stock level to a product or variant
	ApplyStock(ctx context.Context, target StockTarget, level StockLevel) error
	// ClearSalesExcept clears sale price and dates on published products whose
	// external id is not in keep and returns the number of products changed
	ClearSalesExcept(ctx context.Context, keep []int) (int64, error)
	// TrashByExternalIDs moves products with the given external ids to trash
	TrashByExternalIDs(ctx context.Context, externalIDs []int) (int64, error)
}
