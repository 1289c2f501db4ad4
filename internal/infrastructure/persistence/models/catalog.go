package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/storesync/backend/internal/domain/integration"
	"gorm.io/datatypes"
)

// ProductModel is the persistence model for a storefront product
type ProductModel struct {
	BaseModel
	ExternalID       int                       `gorm:"not null;index:idx_products_external_status,priority:1"`
	SKU              string                    `gorm:"type:varchar(100);index"`
	Name             string                    `gorm:"type:varchar(255);not null"`
	Description      string                    `gorm:"type:text"`
	ShortDescription string                    `gorm:"type:text"`
	Permalink        string                    `gorm:"type:varchar(255)"`
	Status           integration.ProductStatus `gorm:"type:varchar(20);not null;index:idx_products_external_status,priority:2"`
	Type             integration.ProductType   `gorm:"type:varchar(20);not null"`
	Visibility       string                    `gorm:"type:varchar(20);not null"`
	Featured         bool                      `gorm:"not null;default:false"`

	RegularPrice decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	SalePrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Price        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	SaleFrom     *time.Time
	SaleTo       *time.Time

	Weight *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Length *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Width  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Height *decimal.Decimal `gorm:"type:decimal(18,4)"`

	ManageStock   bool                        `gorm:"not null;default:false"`
	Backorders    integration.BackorderPolicy `gorm:"type:varchar(10);not null"`
	StockQuantity *decimal.Decimal            `gorm:"type:decimal(18,4)"`
	StockStatus   integration.StockStatus     `gorm:"type:varchar(20);not null"`
	TotalSales    int                         `gorm:"not null;default:0"`
	Virtual       bool                        `gorm:"not null;default:false"`
	Downloadable  bool                        `gorm:"not null;default:false"`

	SellByDecimals int            `gorm:"not null;default:0"`
	TaxIDs         datatypes.JSON `gorm:"type:jsonb;not null"`
	Attributes     datatypes.JSON `gorm:"type:jsonb;not null"`
	FeatureImageID *uuid.UUID     `gorm:"type:uuid"`
	Gallery        datatypes.JSON `gorm:"type:jsonb;not null"`
}

// TableName returns the table name for GORM
func (ProductModel) TableName() string {
	return "products"
}

// ToDomain converts the persistence model to a domain product. Category ids
// live in product_terms and are filled in by the store.
func (m *ProductModel) ToDomain() *integration.LocalProduct {
	p := &integration.LocalProduct{
		ID:               m.ID,
		ExternalID:       m.ExternalID,
		SKU:              m.SKU,
		Name:             m.Name,
		Description:      m.Description,
		ShortDescription: m.ShortDescription,
		Permalink:        m.Permalink,
		Status:           m.Status,
		Type:             m.Type,
		Visibility:       m.Visibility,
		Featured:         m.Featured,
		RegularPrice:     m.RegularPrice,
		SalePrice:        m.SalePrice,
		Price:            m.Price,
		SaleFrom:         m.SaleFrom,
		SaleTo:           m.SaleTo,
		Dimensions: integration.Dimensions{
			Weight: m.Weight,
			Length: m.Length,
			Width:  m.Width,
			Height: m.Height,
		},
		ManageStock:    m.ManageStock,
		Backorders:     m.Backorders,
		StockQuantity:  m.StockQuantity,
		StockStatus:    m.StockStatus,
		TotalSales:     m.TotalSales,
		Virtual:        m.Virtual,
		Downloadable:   m.Downloadable,
		SellByDecimals: m.SellByDecimals,
		FeatureImageID: m.FeatureImageID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	fromJSON(m.TaxIDs, &p.TaxIDs)
	fromJSON(m.Attributes, &p.Attributes)
	fromJSON(m.Gallery, &p.Gallery)
	return p
}

// FromDomain populates the persistence model from a domain product
func (m *ProductModel) FromDomain(p *integration.LocalProduct) {
	m.fromDomain(p.ID, p.CreatedAt, p.UpdatedAt)
	m.ExternalID = p.ExternalID
	m.SKU = p.SKU
	m.Name = p.Name
	m.Description = p.Description
	m.ShortDescription = p.ShortDescription
	m.Permalink = p.Permalink
	m.Status = p.Status
	m.Type = p.Type
	m.Visibility = p.Visibility
	m.Featured = p.Featured
	m.RegularPrice = p.RegularPrice
	m.SalePrice = p.SalePrice
	m.Price = p.Price
	m.SaleFrom = p.SaleFrom
	m.SaleTo = p.SaleTo
	m.Weight = p.Dimensions.Weight
	m.Length = p.Dimensions.Length
	m.Width = p.Dimensions.Width
	m.Height = p.Dimensions.Height
	m.ManageStock = p.ManageStock
	m.Backorders = p.Backorders
	m.StockQuantity = p.StockQuantity
	m.StockStatus = p.StockStatus
	m.TotalSales = p.TotalSales
	m.Virtual = p.Virtual
	m.Downloadable = p.Downloadable
	m.SellByDecimals = p.SellByDecimals
	m.TaxIDs = toJSON(p.TaxIDs)
	m.Attributes = toJSON(p.Attributes)
	m.FeatureImageID = p.FeatureImageID
	m.Gallery = toJSON(p.Gallery)
}

// ProductModelFromDomain creates a new persistence model from a domain product
func ProductModelFromDomain(p *integration.LocalProduct) *ProductModel {
	m := &ProductModel{}
	m.FromDomain(p)
	return m
}

// VariantModel is the persistence model for a variant of a variable product
type VariantModel struct {
	BaseModel
	ParentID  uuid.UUID                 `gorm:"type:uuid;not null;index:idx_variants_parent_barcode,priority:1"`
	UID       string                    `gorm:"type:varchar(64);not null;uniqueIndex"`
	SKU       string                    `gorm:"type:varchar(100)"`
	Title     string                    `gorm:"type:varchar(255)"`
	Permalink string                    `gorm:"type:varchar(255)"`
	Status    integration.ProductStatus `gorm:"type:varchar(20);not null"`

	RegularPrice decimal.Decimal  `gorm:"type:decimal(18,4);not null"`
	SalePrice    *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Price        decimal.Decimal  `gorm:"type:decimal(18,4);not null"`

	Weight *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Length *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Width  *decimal.Decimal `gorm:"type:decimal(18,4)"`
	Height *decimal.Decimal `gorm:"type:decimal(18,4)"`

	ManageStock   bool                        `gorm:"not null;default:false"`
	Backorders    integration.BackorderPolicy `gorm:"type:varchar(10);not null"`
	StockQuantity *decimal.Decimal            `gorm:"type:decimal(18,4)"`
	StockStatus   integration.StockStatus     `gorm:"type:varchar(20);not null"`

	Grids          datatypes.JSON `gorm:"type:jsonb;not null"`
	Attributes     datatypes.JSON `gorm:"type:jsonb;not null"`
	Barcode        string         `gorm:"type:varchar(64);index:idx_variants_parent_barcode,priority:2"`
	FeatureImageID *uuid.UUID     `gorm:"type:uuid"`
}

// TableName returns the table name for GORM
func (VariantModel) TableName() string {
	return "product_variants"
}

// ToDomain converts the persistence model to a domain variant
func (m *VariantModel) ToDomain() *integration.Variant {
	v := &integration.Variant{
		ID:           m.ID,
		ParentID:     m.ParentID,
		UID:          m.UID,
		SKU:          m.SKU,
		Title:        m.Title,
		Permalink:    m.Permalink,
		Status:       m.Status,
		RegularPrice: m.RegularPrice,
		SalePrice:    m.SalePrice,
		Price:        m.Price,
		Dimensions: integration.Dimensions{
			Weight: m.Weight,
			Length: m.Length,
			Width:  m.Width,
			Height: m.Height,
		},
		ManageStock:    m.ManageStock,
		Backorders:     m.Backorders,
		StockQuantity:  m.StockQuantity,
		StockStatus:    m.StockStatus,
		Attributes:     make(map[string]string),
		Barcode:        m.Barcode,
		FeatureImageID: m.FeatureImageID,
		CreatedAt:      m.CreatedAt,
		UpdatedAt:      m.UpdatedAt,
	}
	fromJSON(m.Grids, &v.Grids)
	fromJSON(m.Attributes, &v.Attributes)
	if v.Attributes == nil {
		v.Attributes = make(map[string]string)
	}
	return v
}

// FromDomain populates the persistence model from a domain variant
func (m *VariantModel) FromDomain(v *integration.Variant) {
	m.fromDomain(v.ID, v.CreatedAt, v.UpdatedAt)
	m.ParentID = v.ParentID
	m.UID = v.UID
	m.SKU = v.SKU
	m.Title = v.Title
	m.Permalink = v.Permalink
	m.Status = v.Status
	m.RegularPrice = v.RegularPrice
	m.SalePrice = v.SalePrice
	m.Price = v.Price
	m.Weight = v.Dimensions.Weight
	m.Length = v.Dimensions.Length
	m.Width = v.Dimensions.Width
	m.Height = v.Dimensions.Height
	m.ManageStock = v.ManageStock
	m.Backorders = v.Backorders
	m.StockQuantity = v.StockQuantity
	m.StockStatus = v.StockStatus
	m.Grids = toJSON(v.Grids)
	m.Attributes = toJSON(v.Attributes)
	m.Barcode = v.Barcode
	m.FeatureImageID = v.FeatureImageID
}

// VariantModelFromDomain creates a new persistence model from a domain variant
func VariantModelFromDomain(v *integration.Variant) *VariantModel {
	m := &VariantModel{}
	m.FromDomain(v)
	return m
}

// ProductTermModel attaches a taxonomy term to a product
type ProductTermModel struct {
	ProductID uuid.UUID `gorm:"type:uuid;primaryKey"`
	TermID    uuid.UUID `gorm:"type:uuid;primaryKey"`
	Taxonomy  string    `gorm:"type:varchar(100);not null;index"`
	CreatedAt time.Time `gorm:"not null"`
}

// TableName returns the table name for GORM
func (ProductTermModel) TableName() string {
	return "product_terms"
}
