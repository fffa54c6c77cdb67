package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// Order is one buyer's order in a seller's per-day slot. The addressing key is
// (seller_id, date_key, id) with date_key the canonical YYYYMMDD of the
// pickup date in the market timezone.
type Order struct {
	ID         uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID   uuid.UUID         `gorm:"column:seller_id;type:uuid;not null;index:idx_orders_seller_date"`
	MarketID   uuid.UUID         `gorm:"column:market_id;type:uuid;not null"`
	DateKey    string            `gorm:"column:date_key;type:text;not null;index:idx_orders_seller_date"`
	BuyerID    uuid.UUID         `gorm:"column:buyer_id;type:uuid;not null;index"`
	BuyerName  string            `gorm:"column:buyer_name;not null"`
	BuyerEmail string            `gorm:"column:buyer_email;not null;default:''"`
	PickupDate time.Time         `gorm:"column:pickup_date;not null"`
	Message    string            `gorm:"column:message;not null;default:''"`
	Status     enums.OrderStatus `gorm:"column:status;type:text;not null;default:'placed'"`
	Items      []OrderLineItem   `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	CreatedAt  time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
