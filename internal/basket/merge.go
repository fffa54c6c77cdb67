package basket

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// MergeConflict is a per-product quantity discrepancy between a locally built
// basket and an order already on file for the same pickup day. It exists only
// while the merge dialog is open.
type MergeConflict struct {
	ProductID        uuid.UUID
	ProductName      string
	Unit             enums.Unit
	ExistingQuantity decimal.Decimal
	NewQuantity      decimal.Decimal
	ExistingPrice    decimal.Decimal
	NewPrice         decimal.Decimal
	Resolution       enums.MergeResolution
}

// ComputeMergeConflicts reports one conflict per product present on both
// sides with differing quantities. Products on only one side are not
// conflicts: they pass through untouched when the merge is confirmed.
// Equal-quantity overlaps are intentionally invisible to the buyer.
func ComputeMergeConflicts(newItems, existingItems []LineItem) []MergeConflict {
	existingByProduct := make(map[uuid.UUID]LineItem, len(existingItems))
	for _, item := range existingItems {
		existingByProduct[item.ProductID] = item
	}

	var conflicts []MergeConflict
	for _, item := range newItems {
		existing, ok := existingByProduct[item.ProductID]
		if !ok {
			continue
		}
		if existing.AmountCount.Equal(item.AmountCount) {
			continue
		}
		conflicts = append(conflicts, MergeConflict{
			ProductID:        item.ProductID,
			ProductName:      item.ProductName,
			Unit:             item.Unit,
			ExistingQuantity: existing.AmountCount,
			NewQuantity:      item.AmountCount,
			ExistingPrice:    existing.Price,
			NewPrice:         item.Price,
			Resolution:       enums.MergeResolutionUndecided,
		})
	}
	return conflicts
}

// MergeItems builds the merged line-item list for a confirmed merge. The
// existing order's items come first, in order of record, each transformed by
// its conflict resolution; new-only products are appended afterwards.
// Undecided conflicts keep the existing item, so an all-undecided confirm
// never destroys anything already on file.
func MergeItems(existingItems, newItems []LineItem, conflicts []MergeConflict) []LineItem {
	resolutionByProduct := make(map[uuid.UUID]MergeConflict, len(conflicts))
	for _, conflict := range conflicts {
		resolutionByProduct[conflict.ProductID] = conflict
	}
	newByProduct := make(map[uuid.UUID]LineItem, len(newItems))
	for _, item := range newItems {
		newByProduct[item.ProductID] = item
	}

	merged := make([]LineItem, 0, len(existingItems)+len(newItems))
	seen := make(map[uuid.UUID]struct{}, len(existingItems))

	for _, existing := range existingItems {
		seen[existing.ProductID] = struct{}{}

		conflict, hasConflict := resolutionByProduct[existing.ProductID]
		if !hasConflict {
			merged = append(merged, existing)
			continue
		}

		incoming := newByProduct[existing.ProductID]
		switch conflict.Resolution {
		case enums.MergeResolutionAdd:
			// summed quantity at the new item's price
			summed := incoming.WithAmount(existing.AmountCount.Add(incoming.AmountCount))
			summed.ID = existing.ID
			merged = append(merged, summed)
		case enums.MergeResolutionUseNew:
			substituted := incoming
			substituted.ID = existing.ID
			merged = append(merged, substituted)
		default:
			// keep-existing, including undecided
			merged = append(merged, existing)
		}
	}

	for _, item := range newItems {
		if _, done := seen[item.ProductID]; done {
			continue
		}
		merged = append(merged, item)
	}
	return merged
}

// HasChanges reports whether two line-item lists differ in membership (by
// product id) or in quantity for any shared product. It is recomputed from
// full snapshots on every basket emission, never tracked incrementally.
func HasChanges(current, original []LineItem) bool {
	if len(current) != len(original) {
		return true
	}
	originalByProduct := make(map[uuid.UUID]decimal.Decimal, len(original))
	for _, item := range original {
		originalByProduct[item.ProductID] = item.AmountCount
	}
	for _, item := range current {
		amount, ok := originalByProduct[item.ProductID]
		if !ok || !amount.Equal(item.AmountCount) {
			return true
		}
	}
	return false
}
