package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// Repository handles order persistence. Orders are addressed by
// (seller_id, date_key, id).
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, order *models.Order) error
	Save(ctx context.Context, order *models.Order) error
	ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error
	FindByKey(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error)
	MarkCancelled(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (bool, error)
	ListForDay(ctx context.Context, sellerID uuid.UUID, dateKey string) ([]models.Order, error)
	FindEarliestUpcoming(ctx context.Context, sellerID uuid.UUID, orderIDs []uuid.UUID, from time.Time) (*models.Order, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository returns an order repository bound to the provided database.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Create(order).Error
}

func (r *repository) Save(ctx context.Context, order *models.Order) error {
	return r.db.WithContext(ctx).Omit("Items").Save(order).Error
}

// ReplaceItems swaps the order's line items wholesale. Updates always carry
// the full snapshot, so a delete-and-insert keeps positions authoritative.
func (r *repository) ReplaceItems(ctx context.Context, orderID uuid.UUID, items []models.OrderLineItem) error {
	if err := r.db.WithContext(ctx).
		Where("order_id = ?", orderID).
		Delete(&models.OrderLineItem{}).Error; err != nil {
		return err
	}
	if len(items) == 0 {
		return nil
	}
	for i := range items {
		items[i].OrderID = orderID
	}
	return r.db.WithContext(ctx).Create(&items).Error
}

func (r *repository) FindByKey(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("seller_id = ? AND date_key = ? AND id = ?", sellerID, dateKey, orderID).
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}

// MarkCancelled flips the order to cancelled and reports whether a live order
// was actually there.
func (r *repository) MarkCancelled(ctx context.Context, sellerID uuid.UUID, dateKey string, orderID uuid.UUID) (bool, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Order{}).
		Where("seller_id = ? AND date_key = ? AND id = ? AND status = ?", sellerID, dateKey, orderID, enums.OrderStatusPlaced).
		Update("status", enums.OrderStatusCancelled)
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}

func (r *repository) ListForDay(ctx context.Context, sellerID uuid.UUID, dateKey string) ([]models.Order, error) {
	var list []models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("seller_id = ? AND date_key = ? AND status = ?", sellerID, dateKey, enums.OrderStatusPlaced).
		Order("created_at ASC").
		Find(&list).Error; err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) FindEarliestUpcoming(ctx context.Context, sellerID uuid.UUID, orderIDs []uuid.UUID, from time.Time) (*models.Order, error) {
	if len(orderIDs) == 0 {
		return nil, nil
	}
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items", func(db *gorm.DB) *gorm.DB {
			return db.Order("position ASC")
		}).
		Where("seller_id = ? AND id IN (?) AND status = ? AND pickup_date >= ?", sellerID, orderIDs, enums.OrderStatusPlaced, from).
		Order("pickup_date ASC").
		First(&order).Error; err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, err
	}
	return &order, nil
}
