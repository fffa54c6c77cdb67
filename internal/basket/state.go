package basket

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/enums"
)

// State is the immutable view of the basket screen's state machine. It is
// replaced wholesale by Reduce; nothing mutates it in place.
type State struct {
	Items      []LineItem
	Total      decimal.Decimal
	ItemCount  int64
	HasChanges bool
	CanEdit    bool

	// order linkage; zero values when no order is associated
	OrderID     string
	PickupDate  *time.Time
	CreatedDate *time.Time

	SelectedPickupDate   *time.Time
	AvailablePickupDates []time.Time

	IsCheckingOut   bool
	IsCancelling    bool
	IsReordering    bool
	IsMerging       bool
	ShowMergeDialog bool
	MergeConflicts  []MergeConflict

	Error string
}

// Event is the tagged union of state transitions. Each flow in the
// synchronizer applies its transitions through Reduce only.
type Event interface{ isEvent() }

type basketChanged struct {
	items      []LineItem
	total      decimal.Decimal
	itemCount  int64
	hasChanges bool
	canEdit    bool
}

type datesLoaded struct{ dates []time.Time }

type dateSelected struct{ date time.Time }

type checkoutStarted struct{}

type checkoutFailed struct{ message string }

type orderAttached struct {
	orderID     string
	pickupDate  time.Time
	createdDate time.Time
	canEdit     bool
}

type mergeRequired struct{ conflicts []MergeConflict }

type conflictResolved struct {
	productID  uuid.UUID
	resolution enums.MergeResolution
}

type mergeDismissed struct{}

type mergeStarted struct{}

type mergeFailed struct{ message string }

type cancelStarted struct{}

type cancelFailed struct{ message string }

type updateStarted struct{}

type updateFailed struct{ message string }

type updateSucceeded struct{}

type reorderStarted struct{}

type reorderFailed struct{ message string }

type reorderDone struct{ date time.Time }

type orderDetached struct{}

func (basketChanged) isEvent()    {}
func (datesLoaded) isEvent()      {}
func (dateSelected) isEvent()     {}
func (checkoutStarted) isEvent()  {}
func (checkoutFailed) isEvent()   {}
func (orderAttached) isEvent()    {}
func (mergeRequired) isEvent()    {}
func (conflictResolved) isEvent() {}
func (mergeDismissed) isEvent()   {}
func (mergeStarted) isEvent()     {}
func (mergeFailed) isEvent()      {}
func (cancelStarted) isEvent()    {}
func (cancelFailed) isEvent()     {}
func (updateStarted) isEvent()    {}
func (updateFailed) isEvent()     {}
func (updateSucceeded) isEvent()  {}
func (reorderStarted) isEvent()   {}
func (reorderFailed) isEvent()    {}
func (reorderDone) isEvent()      {}
func (orderDetached) isEvent()    {}

// Reduce returns the state after applying ev. Errors are transient: starting
// a flow clears the previous attempt's error.
func Reduce(state State, ev Event) State {
	switch e := ev.(type) {
	case basketChanged:
		state.Items = e.items
		state.Total = e.total
		state.ItemCount = e.itemCount
		state.HasChanges = e.hasChanges
		state.CanEdit = e.canEdit

	case datesLoaded:
		state.AvailablePickupDates = e.dates

	case dateSelected:
		date := e.date
		state.SelectedPickupDate = &date
		state.Error = ""

	case checkoutStarted:
		state.IsCheckingOut = true
		state.Error = ""

	case checkoutFailed:
		state.IsCheckingOut = false
		state.Error = e.message

	case orderAttached:
		pickup := e.pickupDate
		created := e.createdDate
		state.IsCheckingOut = false
		state.IsMerging = false
		state.ShowMergeDialog = false
		state.MergeConflicts = nil
		state.OrderID = e.orderID
		state.PickupDate = &pickup
		state.CreatedDate = &created
		state.SelectedPickupDate = nil
		state.CanEdit = e.canEdit
		state.HasChanges = false
		state.Error = ""

	case mergeRequired:
		state.IsCheckingOut = false
		state.ShowMergeDialog = true
		state.MergeConflicts = e.conflicts
		state.Error = ""

	case conflictResolved:
		conflicts := make([]MergeConflict, len(state.MergeConflicts))
		copy(conflicts, state.MergeConflicts)
		for i := range conflicts {
			if conflicts[i].ProductID == e.productID {
				conflicts[i].Resolution = e.resolution
			}
		}
		state.MergeConflicts = conflicts

	case mergeDismissed:
		state.ShowMergeDialog = false
		state.MergeConflicts = nil
		state.IsMerging = false

	case mergeStarted:
		state.IsMerging = true
		state.Error = ""

	case mergeFailed:
		// dialog state stays intact so the buyer can retry without
		// re-deriving conflicts
		state.IsMerging = false
		state.Error = e.message

	case cancelStarted:
		state.IsCancelling = true
		state.Error = ""

	case cancelFailed:
		state.IsCancelling = false
		state.Error = e.message

	case updateStarted:
		state.IsCheckingOut = true
		state.Error = ""

	case updateFailed:
		state.IsCheckingOut = false
		state.Error = e.message

	case updateSucceeded:
		state.IsCheckingOut = false
		state.HasChanges = false
		state.Error = ""

	case reorderStarted:
		state.IsReordering = true
		state.Error = ""

	case reorderFailed:
		state.IsReordering = false
		state.Error = e.message

	case reorderDone:
		date := e.date
		state.IsReordering = false
		state.OrderID = ""
		state.PickupDate = nil
		state.CreatedDate = nil
		state.SelectedPickupDate = &date
		state.HasChanges = false
		state.Error = ""

	case orderDetached:
		// terminal reset after cancel, new order, or logout; the
		// available dates are unrelated to any one order and survive
		dates := state.AvailablePickupDates
		state = State{AvailablePickupDates: dates, Total: decimal.Zero}
	}

	return state
}
