package basket

import (
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

// Order is the whole-order snapshot the synchronizer exchanges with the
// order collaborator. Reads and writes always carry the complete snapshot;
// there are no partial-field updates.
type Order struct {
	ID          string
	SellerID    uuid.UUID
	MarketID    uuid.UUID
	BuyerID     uuid.UUID
	BuyerName   string
	BuyerEmail  string
	PickupDate  time.Time
	CreatedDate time.Time
	Message     string
	Status      enums.OrderStatus
	Articles    []LineItem
}

// Profile is the buyer profile surface the synchronizer consumes: identity
// plus the per-date-key map of already placed order ids.
type Profile struct {
	UserID            uuid.UUID
	Name              string
	Email             string
	PlacedOrderIDs    types.DateKeyMap
	FavouriteArticles types.StringList
}
