package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// maxInParams bounds the number of values bound to a single IN clause
const maxInParams = 1000

// GormProductStore implements integration.ProductStore using GORM
type GormProductStore struct {
	db  *gorm.DB
	now func() time.Time
}

var _ integration.ProductStore = (*GormProductStore)(nil)

// NewGormProductStore creates a new GormProductStore
func NewGormProductStore(db *gorm.DB) *GormProductStore {
	return &GormProductStore{db: db, now: time.Now}
}

// ---------------------------------------------------------------------------
// Products
// ---------------------------------------------------------------------------

// GetProduct returns a product by storefront id
func (s *GormProductStore) GetProduct(ctx context.Context, id uuid.UUID) (*integration.LocalProduct, error) {
	var model models.ProductModel
	if err := s.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return s.withCategories(ctx, model.ToDomain())
}

// FindProductByExternalID returns the oldest product with the external id in
// one of the given statuses
func (s *GormProductStore) FindProductByExternalID(ctx context.Context, externalID int, statuses ...integration.ProductStatus) (*integration.LocalProduct, error) {
	query := s.db.WithContext(ctx).Where("external_id = ?", externalID)
	if len(statuses) > 0 {
		query = query.Where("status IN ?", statuses)
	}

	var model models.ProductModel
	if err := query.Order("created_at ASC").Order("id ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return s.withCategories(ctx, model.ToDomain())
}

func (s *GormProductStore) withCategories(ctx context.Context, product *integration.LocalProduct) (*integration.LocalProduct, error) {
	var ids []uuid.UUID
	if err := s.db.WithContext(ctx).
		Model(&models.ProductTermModel{}).
		Where("product_id = ? AND taxonomy = ?", product.ID, integration.TaxonomyProductCategory).
		Order("created_at ASC").
		Pluck("term_id", &ids).Error; err != nil {
		return nil, err
	}
	if len(ids) > 0 {
		product.CategoryIDs = ids
	}
	return product, nil
}

// SaveProduct creates or updates a product
func (s *GormProductStore) SaveProduct(ctx context.Context, product *integration.LocalProduct) error {
	now := s.now()
	if product.CreatedAt.IsZero() {
		product.CreatedAt = now
	}
	product.UpdatedAt = now

	model := models.ProductModelFromDomain(product)
	return s.db.WithContext(ctx).Save(model).Error
}

// SetProductStatus changes only the status of a product
func (s *GormProductStore) SetProductStatus(ctx context.Context, id uuid.UUID, status integration.ProductStatus) error {
	result := s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("id = ?", id).
		Updates(map[string]any{
			"status":     status,
			"updated_at": s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrNotFound
	}
	return nil
}

// ---------------------------------------------------------------------------
// Product terms
// ---------------------------------------------------------------------------

// SetProductTerms attaches terms of one taxonomy to a product
func (s *GormProductStore) SetProductTerms(ctx context.Context, productID uuid.UUID, taxonomy string, termIDs []uuid.UUID, appendTerms bool) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if !appendTerms {
			if err := tx.Where("product_id = ? AND taxonomy = ?", productID, taxonomy).
				Delete(&models.ProductTermModel{}).Error; err != nil {
				return err
			}
		}
		if len(termIDs) == 0 {
			return nil
		}

		now := s.now()
		rows := make([]models.ProductTermModel, 0, len(termIDs))
		seen := make(map[uuid.UUID]struct{}, len(termIDs))
		for _, id := range termIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			rows = append(rows, models.ProductTermModel{
				ProductID: productID,
				TermID:    id,
				Taxonomy:  taxonomy,
				CreatedAt: now,
			})
		}
		return tx.Clauses(clause.OnConflict{DoNothing: true}).Create(&rows).Error
	})
}

// ListProductTerms returns the terms of one taxonomy attached to a product
func (s *GormProductStore) ListProductTerms(ctx context.Context, productID uuid.UUID, taxonomy string) ([]*integration.Term, error) {
	var termModels []models.TermModel
	if err := s.db.WithContext(ctx).
		Joins("JOIN product_terms ON product_terms.term_id = terms.id").
		Where("product_terms.product_id = ? AND product_terms.taxonomy = ?", productID, taxonomy).
		Order("product_terms.created_at ASC").
		Find(&termModels).Error; err != nil {
		return nil, err
	}

	terms := make([]*integration.Term, len(termModels))
	for i := range termModels {
		terms[i] = termModels[i].ToDomain()
	}
	return terms, nil
}

// ---------------------------------------------------------------------------
// Variants
// ---------------------------------------------------------------------------

func (s *GormProductStore) findVariant(ctx context.Context, query string, args ...any) (*integration.Variant, error) {
	var model models.VariantModel
	if err := s.db.WithContext(ctx).Where(query, args...).Order("created_at ASC").First(&model).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// GetVariant returns a variant by storefront id
func (s *GormProductStore) GetVariant(ctx context.Context, id uuid.UUID) (*integration.Variant, error) {
	return s.findVariant(ctx, "id = ?", id)
}

// FindVariantByUID returns the variant with the composite uid
func (s *GormProductStore) FindVariantByUID(ctx context.Context, uid string) (*integration.Variant, error) {
	return s.findVariant(ctx, "uid = ?", uid)
}

// FindVariantByBarcode returns the first variant of parent with the barcode
func (s *GormProductStore) FindVariantByBarcode(ctx context.Context, parentID uuid.UUID, barcode string) (*integration.Variant, error) {
	return s.findVariant(ctx, "parent_id = ? AND barcode = ?", parentID, barcode)
}

// ListVariants returns every variant of a parent product
func (s *GormProductStore) ListVariants(ctx context.Context, parentID uuid.UUID) ([]*integration.Variant, error) {
	var variantModels []models.VariantModel
	if err := s.db.WithContext(ctx).
		Where("parent_id = ?", parentID).
		Order("created_at ASC").
		Find(&variantModels).Error; err != nil {
		return nil, err
	}

	variants := make([]*integration.Variant, len(variantModels))
	for i := range variantModels {
		variants[i] = variantModels[i].ToDomain()
	}
	return variants, nil
}

// SaveVariant creates or updates a variant
func (s *GormProductStore) SaveVariant(ctx context.Context, variant *integration.Variant) error {
	now := s.now()
	if variant.CreatedAt.IsZero() {
		variant.CreatedAt = now
	}
	variant.UpdatedAt = now

	model := models.VariantModelFromDomain(variant)
	return s.db.WithContext(ctx).Save(model).Error
}

// ---------------------------------------------------------------------------
// Bulk writes
// ---------------------------------------------------------------------------

// ApplyStock writes a stock level to a product or variant
func (s *GormProductStore) ApplyStock(ctx context.Context, target integration.StockTarget, level integration.StockLevel) error {
	var model any = &models.ProductModel{}
	if target.Variant {
		model = &models.VariantModel{}
	}

	result := s.db.WithContext(ctx).
		Model(model).
		Where("id = ?", target.ID).
		Updates(map[string]any{
			"stock_quantity": level.Quantity,
			"stock_status":   level.Status,
			"manage_stock":   level.ManageStock,
			"backorders":     level.Backorders,
			"updated_at":     s.now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrNotFound
	}
	return nil
}

// ClearSalesExcept clears sale price and dates on published products whose
// external id is not in keep
func (s *GormProductStore) ClearSalesExcept(ctx context.Context, keep []int) (int64, error) {
	query := s.db.WithContext(ctx).
		Model(&models.ProductModel{}).
		Where("status = ?", integration.ProductStatusPublish).
		Where("(sale_price IS NOT NULL OR sale_from IS NOT NULL OR sale_to IS NOT NULL)")
	if len(keep) > 0 {
		query = query.Where("external_id NOT IN ?", keep)
	}

	result := query.Updates(map[string]any{
		"sale_price": nil,
		"sale_from":  nil,
		"sale_to":    nil,
		"price":      gorm.Expr("regular_price"),
		"updated_at": s.now(),
	})
	return result.RowsAffected, result.Error
}

// TrashByExternalIDs moves products with the given external ids to trash
func (s *GormProductStore) TrashByExternalIDs(ctx context.Context, externalIDs []int) (int64, error) {
	var total int64
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for start := 0; start < len(externalIDs); start += maxInParams {
			end := min(start+maxInParams, len(externalIDs))
			result := tx.Model(&models.ProductModel{}).
				Where("external_id IN ? AND status <> ?", externalIDs[start:end], integration.ProductStatusTrash).
				Updates(map[string]any{
					"status":     integration.ProductStatusTrash,
					"updated_at": s.now(),
				})
			if result.Error != nil {
				return result.Error
			}
			total += result.RowsAffected
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}
