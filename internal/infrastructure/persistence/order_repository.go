package persistence

import (
	"context"
	"errors"
	"time"

	"github.com/storesync/backend/internal/domain/integration"
	"github.com/storesync/backend/internal/infrastructure/persistence/models"
	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormOrderRepository implements integration.OrderRepository using GORM. It
// also ingests storefront orders and gift card numbers reported by the
// storefront.
type GormOrderRepository struct {
	db  *gorm.DB
	now func() time.Time
}

var _ integration.OrderRepository = (*GormOrderRepository)(nil)

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db, now: time.Now}
}

// GetOrder returns an order with its lines
func (r *GormOrderRepository) GetOrder(ctx context.Context, id int64) (*integration.Order, error) {
	var model models.OrderModel
	if err := r.db.WithContext(ctx).
		Preload("Lines", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, integration.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain(), nil
}

// SaveOrder creates or replaces a storefront order with its lines. Gift card
// numbers already provisioned for a line are kept.
func (r *GormOrderRepository) SaveOrder(ctx context.Context, order *integration.Order) error {
	now := r.now()
	if order.CreatedAt.IsZero() {
		order.CreatedAt = now
	}
	model := models.OrderModelFromDomain(order)
	model.UpdatedAt = now
	lines := model.Lines
	model.Lines = nil

	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Omit("submitted_payload", "submitted_at", "submit_status", "submit_message").
			Clauses(clause.OnConflict{
				Columns: []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{
					"customer_id", "billing", "shipping", "payment_method", "payment_method_title",
					"transaction_id", "shipping_method_id", "subtotal", "total_tax", "shipping_total",
					"total", "points_redeemed", "gift_cards_redeemed", "paid", "is_refund", "updated_at",
				}),
			}).
			Create(model).Error; err != nil {
			return err
		}

		ids := make([]int64, len(lines))
		for i := range lines {
			ids[i] = lines[i].ID
		}
		stale := tx.Where("order_id = ?", order.ID)
		if len(ids) > 0 {
			stale = stale.Where("id NOT IN ?", ids)
		}
		if err := stale.Delete(&models.OrderLineModel{}).Error; err != nil {
			return err
		}
		if len(lines) == 0 {
			return nil
		}
		return tx.Omit("gift_card_number").
			Clauses(clause.OnConflict{
				Columns:   []clause.Column{{Name: "id"}},
				DoUpdates: clause.AssignmentColumns([]string{"product_id", "variant_id", "name", "quantity", "subtotal", "gift_card_amount"}),
			}).
			Create(&lines).Error
	})
}

// SavePayload stores the submitted payload for audit
func (r *GormOrderRepository) SavePayload(ctx context.Context, orderID int64, payload []byte) error {
	return r.updateOrder(ctx, orderID, map[string]any{
		"submitted_payload": datatypes.JSON(payload),
		"updated_at":        r.now(),
	})
}

// MarkSubmitted records the submission outcome
func (r *GormOrderRepository) MarkSubmitted(ctx context.Context, orderID int64, status, message string) error {
	now := r.now()
	return r.updateOrder(ctx, orderID, map[string]any{
		"submitted_at":   now,
		"submit_status":  status,
		"submit_message": message,
		"updated_at":     now,
	})
}

func (r *GormOrderRepository) updateOrder(ctx context.Context, orderID int64, values map[string]any) error {
	result := r.db.WithContext(ctx).Model(&models.OrderModel{}).Where("id = ?", orderID).Updates(values)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrNotFound
	}
	return nil
}

// GiftCardNumber returns the provisioned gift card number of a line, "" while
// the storefront has not reported one
func (r *GormOrderRepository) GiftCardNumber(ctx context.Context, orderID, lineID int64) (string, error) {
	var line models.OrderLineModel
	if err := r.db.WithContext(ctx).
		Where("order_id = ? AND id = ?", orderID, lineID).
		First(&line).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", integration.ErrNotFound
		}
		return "", err
	}
	return line.GiftCardNumber, nil
}

// SetGiftCardNumber records the gift card number provisioned for a line
func (r *GormOrderRepository) SetGiftCardNumber(ctx context.Context, orderID, lineID int64, number string) error {
	result := r.db.WithContext(ctx).
		Model(&models.OrderLineModel{}).
		Where("order_id = ? AND id = ?", orderID, lineID).
		Update("gift_card_number", number)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return integration.ErrNotFound
	}
	return nil
}
