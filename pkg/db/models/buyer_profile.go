package models

import (
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

// BuyerProfile carries the buyer's identity plus the placed-order-id map: one
// order id per date key, the record that checkout consults to detect a
// sibling order already on file for the same pickup day.
type BuyerProfile struct {
	UserID            uuid.UUID        `gorm:"column:user_id;type:uuid;primaryKey"`
	Name              string           `gorm:"column:name;not null"`
	Email             string           `gorm:"column:email;not null;default:''"`
	PlacedOrderIDs    types.DateKeyMap `gorm:"column:placed_order_ids;type:jsonb"`
	FavouriteArticles types.StringList `gorm:"column:favourite_articles;type:jsonb"`
	CreatedAt         time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt         time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
