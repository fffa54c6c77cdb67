package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// Article is a seller's catalog entry. Price is a snapshot source: baskets
// copy it at the moment an item is added.
type Article struct {
	ID             uuid.UUID       `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	SellerID       uuid.UUID       `gorm:"column:seller_id;type:uuid;not null;index"`
	Name           string          `gorm:"column:name;not null"`
	Unit           enums.Unit      `gorm:"column:unit;type:text;not null"`
	Price          decimal.Decimal `gorm:"column:price;type:numeric(12,2);not null"`
	WeightPerPiece decimal.Decimal `gorm:"column:weight_per_piece;type:numeric(12,4);not null;default:0"`
	Available      bool            `gorm:"column:available;not null;default:true"`
	CreatedAt      time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt      time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
