package controllers

import (
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/internal/basket"
)

// lineItemDTO is the transport shape of one basket or order line.
type lineItemDTO struct {
	ID          string    `json:"id,omitempty"`
	ProductID   uuid.UUID `json:"product_id"`
	ProductName string    `json:"product_name"`
	Unit        string    `json:"unit"`
	Price       string    `json:"price"`
	AmountCount string    `json:"amount_count"`
	PiecesCount int64     `json:"pieces_count"`
	LineTotal   string    `json:"line_total"`
}

type mergeConflictDTO struct {
	ProductID        uuid.UUID `json:"product_id"`
	ProductName      string    `json:"product_name"`
	Unit             string    `json:"unit"`
	ExistingQuantity string    `json:"existing_quantity"`
	NewQuantity      string    `json:"new_quantity"`
	ExistingPrice    string    `json:"existing_price"`
	NewPrice         string    `json:"new_price"`
	Resolution       string    `json:"resolution"`
}

type basketStateDTO struct {
	Items      []lineItemDTO `json:"items"`
	Total      string        `json:"total"`
	ItemCount  int64         `json:"item_count"`
	HasChanges bool          `json:"has_changes"`
	CanEdit    bool          `json:"can_edit"`

	OrderID     string     `json:"order_id,omitempty"`
	PickupDate  *time.Time `json:"pickup_date,omitempty"`
	CreatedDate *time.Time `json:"created_date,omitempty"`

	SelectedPickupDate   *time.Time  `json:"selected_pickup_date,omitempty"`
	AvailablePickupDates []time.Time `json:"available_pickup_dates"`

	IsCheckingOut   bool               `json:"is_checking_out"`
	IsCancelling    bool               `json:"is_cancelling"`
	IsReordering    bool               `json:"is_reordering"`
	IsMerging       bool               `json:"is_merging"`
	ShowMergeDialog bool               `json:"show_merge_dialog"`
	MergeConflicts  []mergeConflictDTO `json:"merge_conflicts,omitempty"`

	Error string `json:"error,omitempty"`
}

type orderDTO struct {
	ID          string        `json:"id"`
	SellerID    uuid.UUID     `json:"seller_id"`
	MarketID    uuid.UUID     `json:"market_id"`
	BuyerID     uuid.UUID     `json:"buyer_id"`
	BuyerName   string        `json:"buyer_name"`
	BuyerEmail  string        `json:"buyer_email,omitempty"`
	PickupDate  time.Time     `json:"pickup_date"`
	CreatedDate time.Time     `json:"created_date"`
	Message     string        `json:"message,omitempty"`
	Status      string        `json:"status"`
	Articles    []lineItemDTO `json:"articles"`
}

func toLineItemDTO(item basket.LineItem) lineItemDTO {
	return lineItemDTO{
		ID:          item.ID,
		ProductID:   item.ProductID,
		ProductName: item.ProductName,
		Unit:        string(item.Unit),
		Price:       item.Price.String(),
		AmountCount: item.AmountCount.String(),
		PiecesCount: item.PiecesCount,
		LineTotal:   item.LineTotal().String(),
	}
}

func toStateDTO(state basket.State) basketStateDTO {
	items := make([]lineItemDTO, 0, len(state.Items))
	for _, item := range state.Items {
		items = append(items, toLineItemDTO(item))
	}

	conflicts := make([]mergeConflictDTO, 0, len(state.MergeConflicts))
	for _, conflict := range state.MergeConflicts {
		conflicts = append(conflicts, mergeConflictDTO{
			ProductID:        conflict.ProductID,
			ProductName:      conflict.ProductName,
			Unit:             string(conflict.Unit),
			ExistingQuantity: conflict.ExistingQuantity.String(),
			NewQuantity:      conflict.NewQuantity.String(),
			ExistingPrice:    conflict.ExistingPrice.String(),
			NewPrice:         conflict.NewPrice.String(),
			Resolution:       string(conflict.Resolution),
		})
	}

	dto := basketStateDTO{
		Items:                items,
		Total:                state.Total.String(),
		ItemCount:            state.ItemCount,
		HasChanges:           state.HasChanges,
		CanEdit:              state.CanEdit,
		OrderID:              state.OrderID,
		PickupDate:           state.PickupDate,
		CreatedDate:          state.CreatedDate,
		SelectedPickupDate:   state.SelectedPickupDate,
		AvailablePickupDates: state.AvailablePickupDates,
		IsCheckingOut:        state.IsCheckingOut,
		IsCancelling:         state.IsCancelling,
		IsReordering:         state.IsReordering,
		IsMerging:            state.IsMerging,
		ShowMergeDialog:      state.ShowMergeDialog,
		Error:                state.Error,
	}
	if len(conflicts) > 0 {
		dto.MergeConflicts = conflicts
	}
	if dto.AvailablePickupDates == nil {
		dto.AvailablePickupDates = []time.Time{}
	}
	return dto
}

func toOrderDTO(order basket.Order) orderDTO {
	articles := make([]lineItemDTO, 0, len(order.Articles))
	for _, item := range order.Articles {
		articles = append(articles, toLineItemDTO(item))
	}
	return orderDTO{
		ID:          order.ID,
		SellerID:    order.SellerID,
		MarketID:    order.MarketID,
		BuyerID:     order.BuyerID,
		BuyerName:   order.BuyerName,
		BuyerEmail:  order.BuyerEmail,
		PickupDate:  order.PickupDate,
		CreatedDate: order.CreatedDate,
		Message:     order.Message,
		Status:      string(order.Status),
		Articles:    articles,
	}
}
