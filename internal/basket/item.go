package basket

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// LineItem is one basket line. Price is the snapshot taken when the article
// entered the basket; ID is order-scoped and stays empty until the basket is
// placed as an order.
type LineItem struct {
	ID             string
	ProductID      uuid.UUID
	ProductName    string
	Unit           enums.Unit
	Price          decimal.Decimal
	AmountCount    decimal.Decimal
	WeightPerPiece decimal.Decimal
	PiecesCount    int64
}

// DerivePieces computes the piece count for a quantity. Weight-sold units
// divide by the article's weight per piece; everything else truncates the
// amount itself.
func DerivePieces(unit enums.Unit, amount, weightPerPiece decimal.Decimal) int64 {
	if amount.IsNegative() {
		return 0
	}
	if unit.IsWeight() {
		if weightPerPiece.IsZero() {
			return 0
		}
		return amount.Div(weightPerPiece).IntPart()
	}
	return amount.IntPart()
}

// WithAmount returns a copy of the item carrying the new quantity and its
// re-derived piece count.
func (li LineItem) WithAmount(amount decimal.Decimal) LineItem {
	li.AmountCount = amount
	li.PiecesCount = DerivePieces(li.Unit, amount, li.WeightPerPiece)
	return li
}

// LineTotal is price times quantity.
func (li LineItem) LineTotal() decimal.Decimal {
	return li.Price.Mul(li.AmountCount)
}

func cloneItems(items []LineItem) []LineItem {
	if items == nil {
		return nil
	}
	out := make([]LineItem, len(items))
	copy(out, items)
	return out
}
