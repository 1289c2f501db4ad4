package integration

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ---------------------------------------------------------------------------
// Remote catalog records
// ---------------------------------------------------------------------------

// FullSyncEpoch is the window start used for a full resync
var FullSyncEpoch = time.Date(1900, time.January, 1, 0, 0, 0, 0, time.UTC)

// RemoteTimeLayout is the timestamp layout the remote API accepts and returns
const RemoteTimeLayout = "2006-01-02T15:04:05"

// ServerTime is the remote server clock report
type ServerTime struct {
	// ServerTime is the remote local time
	ServerTime string `json:"ServerTime"`
	// UtcOffset is the remote offset from UTC in minutes
	UtcOffset int `json:"UtcOffset"`
}

// WebProperties holds the optional shipping dimensions of a remote product
type WebProperties struct {
	Weight *decimal.Decimal `json:"Weight"`
	Length *decimal.Decimal `json:"Length"`
	Width  *decimal.Decimal `json:"Width"`
	Height *decimal.Decimal `json:"Height"`
}

// UnitOfMeasure describes a sell-by or retail-by unit
type UnitOfMeasure struct {
	Code          string          `json:"Code"`
	Multiplier    decimal.Decimal `json:"Multiplier"`
	DecimalPlaces int             `json:"DecimalPlaces" validate:"gte=0,lte=6"`
}

// CustomerGroupPrice is a price list entry for a customer group
type CustomerGroupPrice struct {
	CustomerGroupID int             `json:"CustomerGroupID"`
	Price           decimal.Decimal `json:"Price"`
}

// GroupingAssignment assigns a grouping value to a product
type GroupingAssignment struct {
	Group string `json:"Group" validate:"required"`
	Value string `json:"Value"`
}

// RemoteProductDetail is the product record nested in RemoteProduct
type RemoteProductDetail struct {
	Code           string           `json:"Code" validate:"required"`
	Name           string           `json:"Name" validate:"required"`
	Description    *string          `json:"Description"`
	SeoDescription *string          `json:"SeoDescription"`
	Price          decimal.Decimal  `json:"Price"`
	DiscountPrice  *decimal.Decimal `json:"DiscountPrice"`

	HasDimension bool `json:"HasDimension"`
	DimensionId1 int  `json:"DimensionId1"`
	DimensionId2 int  `json:"DimensionId2"`
	DimensionId3 int  `json:"DimensionId3"`
	DimensionId4 int  `json:"DimensionId4"`

	DepartmentID  int  `json:"DepartmentID"`
	New           bool `json:"New"`
	WebClearance  bool `json:"WebClearance"`
	WebSpecial    bool `json:"WebSpecial"`
	CatalogueOnly bool `json:"CatalogueOnly"`
	Featured      bool `json:"Featured"`

	WebProperties       *WebProperties       `json:"WebProperties"`
	SupplierIDs         []int                `json:"SupplierIDs"`
	SellBy              *UnitOfMeasure       `json:"SellBy"`
	RetailBy            *UnitOfMeasure       `json:"RetailBy"`
	TaxIDs              []int                `json:"TaxIDs"`
	CustomerGroupPrices []CustomerGroupPrice `json:"CustomerGroupPrices" validate:"dive"`
	ProductGrouping     []GroupingAssignment `json:"ProductGrouping" validate:"dive"`
}

// DimensionIDs returns the four dimension references, 0 meaning unset.
func (d *RemoteProductDetail) DimensionIDs() [4]int {
	return [4]int{d.DimensionId1, d.DimensionId2, d.DimensionId3, d.DimensionId4}
}

// SellByDecimals returns the decimal places of the sell-by unit.
func (d *RemoteProductDetail) SellByDecimals() int {
	if d.SellBy == nil {
		return 0
	}
	return d.SellBy.DecimalPlaces
}

// RemoteProduct is a product as returned by the remote catalog
type RemoteProduct struct {
	ProductID int                 `json:"ProductID" validate:"required,gt=0"`
	Product   RemoteProductDetail `json:"Product"`
}

// BarcodeGrid is one grid position of a barcode combination
type BarcodeGrid struct {
	GridID    *int   `json:"GridID"`
	GridValue string `json:"GridValue"`
}

// RemoteBarcode is one grid combination of a variable product
type RemoteBarcode struct {
	Barcode string        `json:"Barcode"`
	Grids   []BarcodeGrid `json:"Grids"`
}

// Grid returns the grid at position i, or an empty grid when absent.
func (b *RemoteBarcode) Grid(i int) BarcodeGrid {
	if i < 0 || i >= len(b.Grids) {
		return BarcodeGrid{}
	}
	return b.Grids[i]
}

// GridIDs returns the four grid ids of the combination, nil when absent.
func (b *RemoteBarcode) GridIDs() []*int {
	ids := make([]*int, 4)
	for i := range ids {
		ids[i] = b.Grid(i).GridID
	}
	return ids
}

// RemoteGrid is a flat grid row: one value of one grid category
type RemoteGrid struct {
	CategoryId   int    `json:"CategoryId" validate:"required"`
	CategoryName string `json:"CategoryName"`
	ValueId      int    `json:"ValueId"`
	ValueName    string `json:"ValueName"`
}

// RemoteGrouping is a flat grouping row: one value of one group
type RemoteGrouping struct {
	GroupingListID   int     `json:"GroupingListID"`
	Group            string  `json:"Group"`
	GroupDescription string  `json:"GroupDescription"`
	Value            string  `json:"Value"`
	ValueDescription *string `json:"ValueDescription"`
}

// DepartmentFilter names a grouping used as a storefront filter
type DepartmentFilter struct {
	Name string `json:"Name"`
}

// RemoteDepartment is a hierarchical product category
type RemoteDepartment struct {
	Id          int                `json:"Id" validate:"required"`
	Name        string             `json:"Name"`
	Description *string            `json:"Description"`
	ParentId    *int               `json:"ParentId"`
	Filters     []DepartmentFilter `json:"Filters"`
}

// RemoteSupplier is a product supplier
type RemoteSupplier struct {
	Id   int    `json:"Id" validate:"required"`
	Code string `json:"Code"`
	Name string `json:"Name"`
}

// RemoteStock is a stock row for a product or grid combination
type RemoteStock struct {
	ProductID    int             `json:"ProductID"`
	StoreID      int             `json:"StoreID"`
	GridID1      int             `json:"GridID1"`
	GridID2      int             `json:"GridID2"`
	GridID3      int             `json:"GridID3"`
	GridID4      int             `json:"GridID4"`
	Available    decimal.Decimal `json:"Available"`
	SerialNumber string          `json:"SerialNumber"`
}

// HasGrid reports whether the row targets a specific grid combination.
func (s *RemoteStock) HasGrid() bool {
	return s.GridID1 != 0 || s.GridID2 != 0 || s.GridID3 != 0 || s.GridID4 != 0
}

// GridIDs returns the four grid ids of the row.
func (s *RemoteStock) GridIDs() [4]int {
	return [4]int{s.GridID1, s.GridID2, s.GridID3, s.GridID4}
}

// RemotePromotion is an active sale price for a product
type RemotePromotion struct {
	ProductID int             `json:"ProductID"`
	Price     decimal.Decimal `json:"Price"`
	DateEnd   string          `json:"DateEnd"`
}

// NoImageBarcode marks an image that is not tied to a grid combination
const NoImageBarcode int64 = -1

// RemoteImage is a product or department image
type RemoteImage struct {
	Data     []byte
	MimeType string
	// Barcode ties the image to a variant, NoImageBarcode when unused
	Barcode int64
}

// RemoteCustomer is a customer record in the remote system
type RemoteCustomer struct {
	ID            int    `json:"id,omitempty"`
	Username      string `json:"Username"`
	Password      string `json:"Password,omitempty"`
	Name          string `json:"Name"`
	Surname       string `json:"Surname"`
	CompanyName   string `json:"Companyname"`
	Address1      string `json:"Address1"`
	Address2      string `json:"Address2,omitempty"`
	City          string `json:"City,omitempty"`
	ProvinceState string `json:"ProvinceState"`
	Country       string `json:"Country"`
	ZipPostalCode string `json:"ZipPostalCode,omitempty"`
	Phone         string `json:"Phone,omitempty"`
	Email         string `json:"Email,omitempty"`
}

// Remote settings read by the sync
const (
	SettingShippingProductCodes = "WebShippingProductCodes"
	SettingGiftCardProductCode  = "WebGiftCardProductCode"
)

// Customer lookup fields
const (
	CustomerFieldUsername = "UserName"
	CustomerFieldID       = "Id"
)

// ---------------------------------------------------------------------------
// Remote catalog port
// ---------------------------------------------------------------------------

// RemoteCatalog is the typed interface to the Aralco API. Every failure is
// returned wrapped around ErrRemoteFetchFailed, server time failures around
// ErrRemoteTimeUnavailable.
type RemoteCatalog interface {
	GetServerTime(ctx context.Context) (*ServerTime, error)
	GetProducts(ctx context.Context, since time.Time) ([]RemoteProduct, error)
	GetProductStock(ctx context.Context, since time.Time) ([]RemoteStock, error)
	GetProductStockByIDs(ctx context.Context, productIDs []int) ([]RemoteStock, error)
	GetGrids(ctx context.Context) ([]RemoteGrid, error)
	GetGroupings(ctx context.Context) ([]RemoteGrouping, error)
	GetDepartments(ctx context.Context) ([]RemoteDepartment, error)
	GetSuppliers(ctx context.Context) ([]RemoteSupplier, error)
	GetDisabledProducts(ctx context.Context) ([]int, error)
	GetActivePromotions(ctx context.Context) ([]RemotePromotion, error)
	GetSetting(ctx context.Context, key string) (string, error)
	GetProductBarcodes(ctx context.Context, productID int) ([]RemoteBarcode, error)
	GetImagesForProduct(ctx context.Context, productID int, hasDimension bool) ([]RemoteImage, error)
	// GetImageForDepartment returns nil without error when the department has no image
	GetImageForDepartment(ctx context.Context, departmentID int) (*RemoteImage, error)
	// GetCustomer returns nil without error when no customer matches
	GetCustomer(ctx context.Context, field, value string) (*RemoteCustomer, error)
	CreateCustomer(ctx context.Context, customer *RemoteCustomer) (int, error)
	UpdateCustomer(ctx context.Context, customer *RemoteCustomer) error
	CreateOrder(ctx context.Context, payload *OrderPayload) error
}
