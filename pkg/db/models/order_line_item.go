package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// OrderLineItem is a priced basket line frozen into an order. Price is the
// snapshot taken when the item entered the basket, not the live article price.
type OrderLineItem struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	OrderID        uuid.UUID       `gorm:"column:order_id;type:uuid;not null;index"`
	ProductID      uuid.UUID       `gorm:"column:product_id;type:uuid;not null"`
	ProductName    string          `gorm:"column:product_name;not null"`
	Unit           enums.Unit      `gorm:"column:unit;type:text;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	AmountCount    decimal.Decimal `gorm:"column:amount_count;type:numeric(12,4);not null"`
	WeightPerPiece decimal.Decimal `gorm:"column:weight_per_piece;type:numeric(12,4);not null;default:0"`
	PiecesCount    int64           `gorm:"column:pieces_count;not null;default:0"`
	Position       int             `gorm:"column:position;not null;default:0"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
}
