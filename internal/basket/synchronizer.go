package basket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/metrics"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

// OrderCollaborator is the remote order surface the synchronizer drives.
// Orders are addressed by (sellerID, dateKey, orderID).
type OrderCollaborator interface {
	PlaceOrder(ctx context.Context, order Order) (Order, error)
	UpdateOrder(ctx context.Context, order Order) error
	LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error)
	CancelOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error)
	GetUpcomingOrder(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*Order, error)
}

// ProfileCollaborator reads and writes the buyer profile.
type ProfileCollaborator interface {
	GetBuyerProfile(ctx context.Context, userID uuid.UUID) (Profile, error)
	SaveBuyerProfile(ctx context.Context, profile Profile) (Profile, error)
}

// AuthCollaborator yields the signed-in buyer, if any.
type AuthCollaborator interface {
	CurrentUserID(ctx context.Context) (uuid.UUID, bool)
}

type dateRules interface {
	DateKey(t time.Time) string
	AvailablePickupDates(now time.Time, count int) []time.Time
	IsPickupDateValid(now, date time.Time) bool
	CanEditOrder(now, pickupDate time.Time) bool
}

// SynchronizerParams wires a Synchronizer.
type SynchronizerParams struct {
	Store           *Store
	Orders          OrderCollaborator
	Profiles        ProfileCollaborator
	Auth            AuthCollaborator
	Dates           dateRules
	Metrics         *metrics.SyncMetrics
	Logger          *logger.Logger
	Clock           func() time.Time
	SellerID        uuid.UUID
	MarketID        uuid.UUID
	PickupDateCount int
}

// Synchronizer keeps the locally mutable basket consistent with the remote
// order document: checkout, update, cancel, merge-on-conflict, and reorder
// flows. Each remote flow is gated by its in-flight flag; overlapping
// dispatches of the same flow are rejected, never interleaved.
type Synchronizer struct {
	store    *Store
	orders   OrderCollaborator
	profiles ProfileCollaborator
	auth     AuthCollaborator
	dates    dateRules
	metrics  *metrics.SyncMetrics
	logg     *logger.Logger
	clock    func() time.Time

	sellerID        uuid.UUID
	marketID        uuid.UUID
	pickupDateCount int

	mu    sync.Mutex
	state State

	// originalOrderItems is the diff baseline for hasChanges; lastOrder the
	// full snapshot behind the basket's order link. pendingExisting/
	// pendingNew live only while a merge dialog is open.
	original        []LineItem
	lastOrder       *Order
	pendingExisting *Order
	pendingNew      []LineItem
}

// NewSynchronizer validates the collaborator wiring and returns a ready
// synchronizer with an empty state.
func NewSynchronizer(params SynchronizerParams) (*Synchronizer, error) {
	if params.Store == nil {
		return nil, fmt.Errorf("basket store required")
	}
	if params.Orders == nil {
		return nil, fmt.Errorf("order collaborator required")
	}
	if params.Profiles == nil {
		return nil, fmt.Errorf("profile collaborator required")
	}
	if params.Auth == nil {
		return nil, fmt.Errorf("auth collaborator required")
	}
	if params.Dates == nil {
		return nil, fmt.Errorf("date rules required")
	}
	if params.SellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	count := params.PickupDateCount
	if count <= 0 {
		count = 4
	}
	return &Synchronizer{
		store:           params.Store,
		orders:          params.Orders,
		profiles:        params.Profiles,
		auth:            params.Auth,
		dates:           params.Dates,
		metrics:         params.Metrics,
		logg:            params.Logger,
		clock:           clock,
		sellerID:        params.SellerID,
		marketID:        params.MarketID,
		pickupDateCount: count,
		state:           State{Total: decimal.Zero},
	}, nil
}

// State returns a snapshot of the current screen state.
func (s *Synchronizer) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

func (s *Synchronizer) snapshotLocked() State {
	out := s.state
	out.Items = cloneItems(s.state.Items)
	if s.state.MergeConflicts != nil {
		conflicts := make([]MergeConflict, len(s.state.MergeConflicts))
		copy(conflicts, s.state.MergeConflicts)
		out.MergeConflicts = conflicts
	}
	return out
}

// Run mirrors basket emissions into the screen state until ctx is cancelled.
// Editability is re-derived on every emission because time advances
// independently of basket changes.
func (s *Synchronizer) Run(ctx context.Context) {
	stream := s.store.Observe(ctx)
	for {
		select {
		case <-ctx.Done():
			return
		case _, ok := <-stream:
			if !ok {
				return
			}
			s.mu.Lock()
			s.refreshBasketLocked()
			s.mu.Unlock()
		}
	}
}

// AddItem upserts a basket line.
func (s *Synchronizer) AddItem(item LineItem) State {
	s.store.AddItem(item)
	return s.refreshBasket()
}

// RemoveItem drops a basket line; absent products are a no-op.
func (s *Synchronizer) RemoveItem(productID uuid.UUID) State {
	s.store.RemoveItem(productID)
	return s.refreshBasket()
}

// UpdateQuantity changes a line's amount; absent products are a no-op.
func (s *Synchronizer) UpdateQuantity(productID uuid.UUID, amount decimal.Decimal) State {
	s.store.UpdateQuantity(productID, amount)
	return s.refreshBasket()
}

// ClearBasket empties the basket and detaches any order link ("start new
// order" and logout).
func (s *Synchronizer) ClearBasket() State {
	s.store.Clear()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = nil
	s.original = nil
	s.pendingExisting = nil
	s.pendingNew = nil
	s.state = Reduce(s.state, orderDetached{})
	s.refreshBasketLocked()
	return s.snapshotLocked()
}

// RefreshPickupDates recomputes the orderable pickup dates from the current
// clock.
func (s *Synchronizer) RefreshPickupDates() State {
	now := s.clock()
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, datesLoaded{dates: s.dates.AvailablePickupDates(now, s.pickupDateCount)})
	return s.snapshotLocked()
}

// SelectPickupDate records the buyer's chosen pickup date after
// re-validating it against the current clock.
func (s *Synchronizer) SelectPickupDate(date time.Time) (State, error) {
	if !s.dates.IsPickupDateValid(s.clock(), date) {
		return s.State(), pkgerrors.New(pkgerrors.CodeValidation, "pickup date is no longer available, choose a new date")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, dateSelected{date: date})
	return s.snapshotLocked(), nil
}

// Checkout places the basket as a new order for the selected pickup date. If
// the buyer's profile already carries an order id for that day, no silent
// overwrite happens: the existing order is loaded, conflicts are derived, and
// the flow stops in the merge dialog until the buyer resolves it.
func (s *Synchronizer) Checkout(ctx context.Context) (State, error) {
	started := s.clock()

	s.mu.Lock()
	if s.state.IsCheckingOut {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "checkout already in progress")
	}
	s.state = Reduce(s.state, checkoutStarted{})

	userID, authenticated := s.auth.CurrentUserID(ctx)
	if !authenticated {
		return s.failCheckoutLocked("checkout", pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to place an order"))
	}
	items := s.store.Items()
	if len(items) == 0 {
		return s.failCheckoutLocked("checkout", pkgerrors.New(pkgerrors.CodeValidation, "basket is empty"))
	}
	if s.state.SelectedPickupDate == nil {
		return s.failCheckoutLocked("checkout", pkgerrors.New(pkgerrors.CodeValidation, "select a pickup date"))
	}
	pickupDate := *s.state.SelectedPickupDate
	if !s.dates.IsPickupDateValid(started, pickupDate) {
		return s.failCheckoutLocked("checkout", pkgerrors.New(pkgerrors.CodeValidation, "pickup date is no longer available, choose a new date"))
	}
	s.mu.Unlock()

	dateKey := s.dates.DateKey(pickupDate)

	profile, err := s.profiles.GetBuyerProfile(ctx, userID)
	if err != nil {
		return s.failCheckout("checkout", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer profile"))
	}

	if existingID := profile.PlacedOrderIDs[dateKey]; existingID != "" {
		existing, err := s.orders.LoadOrder(ctx, s.sellerID, dateKey, existingID)
		switch {
		case err == nil:
			conflicts := ComputeMergeConflicts(items, existing.Articles)
			s.metrics.AddMergeConflicts(len(conflicts))

			s.mu.Lock()
			defer s.mu.Unlock()
			s.pendingExisting = &existing
			s.pendingNew = items
			s.state = Reduce(s.state, mergeRequired{conflicts: conflicts})
			return s.snapshotLocked(), nil
		case pkgerrors.IsCode(err, pkgerrors.CodeNotFound):
			// The recorded order vanished remotely. Forget the stale id and
			// place a fresh order instead of failing until a manual cancel.
			s.scrubPlacedOrderID(ctx, dateKey)
		default:
			return s.failCheckout("checkout", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load existing order"))
		}
	}

	order := Order{
		SellerID:    s.sellerID,
		MarketID:    s.marketID,
		BuyerID:     userID,
		BuyerName:   profile.Name,
		BuyerEmail:  profile.Email,
		PickupDate:  pickupDate,
		CreatedDate: started,
		Status:      enums.OrderStatusPlaced,
		Articles:    items,
	}

	placed, err := s.orders.PlaceOrder(ctx, order)
	if err != nil {
		return s.failCheckout("checkout", pkgerrors.Wrap(pkgerrors.CodeDependency, err, "place order"))
	}

	profile.PlacedOrderIDs = profile.PlacedOrderIDs.Clone()
	profile.PlacedOrderIDs[dateKey] = placed.ID
	if _, err := s.profiles.SaveBuyerProfile(ctx, profile); err != nil && s.logg != nil {
		// the placed order is the source of truth; a stale profile map only
		// costs an extra merge check next time
		s.logg.Warn(s.logg.WithOrderID(ctx, placed.ID), "failed to record placed order id on profile")
	}

	s.store.LoadOrderItems(placed.Articles, placed.ID, dateKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = &placed
	s.original = cloneItems(placed.Articles)
	s.state = Reduce(s.state, orderAttached{
		orderID:     placed.ID,
		pickupDate:  placed.PickupDate,
		createdDate: placed.CreatedDate,
		canEdit:     s.dates.CanEditOrder(s.clock(), placed.PickupDate),
	})
	s.refreshBasketLocked()
	s.observeFlow("checkout", started, nil)
	return s.snapshotLocked(), nil
}

// ResolveMergeConflict records the buyer's decision for one conflicting
// product. Nothing remote or local changes until the merge is confirmed.
func (s *Synchronizer) ResolveMergeConflict(productID uuid.UUID, resolution enums.MergeResolution) (State, error) {
	if !resolution.IsValid() {
		return s.State(), pkgerrors.New(pkgerrors.CodeValidation, "invalid merge resolution")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if !s.state.ShowMergeDialog {
		return s.snapshotLocked(), pkgerrors.New(pkgerrors.CodeStateConflict, "no merge in progress")
	}
	s.state = Reduce(s.state, conflictResolved{productID: productID, resolution: resolution})
	return s.snapshotLocked(), nil
}

// DismissMerge abandons the pending merge; the checkout never completed, so
// both the local basket and the remote order stay as they were.
func (s *Synchronizer) DismissMerge() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pendingExisting = nil
	s.pendingNew = nil
	s.state = Reduce(s.state, mergeDismissed{})
	return s.snapshotLocked()
}

// ConfirmMerge applies the recorded resolutions, submits the merged item
// list as an update to the existing order, and reloads the basket under that
// order's link. A failed submit keeps the dialog state so the buyer can
// retry without re-deriving conflicts.
func (s *Synchronizer) ConfirmMerge(ctx context.Context) (State, error) {
	started := s.clock()

	s.mu.Lock()
	if s.state.IsMerging {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "merge already in progress")
	}
	if s.pendingExisting == nil {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "no merge pending")
	}
	existing := *s.pendingExisting
	newItems := cloneItems(s.pendingNew)
	conflicts := make([]MergeConflict, len(s.state.MergeConflicts))
	copy(conflicts, s.state.MergeConflicts)
	s.state = Reduce(s.state, mergeStarted{})
	s.mu.Unlock()

	merged := MergeItems(existing.Articles, newItems, conflicts)
	updated := existing
	updated.Articles = merged

	if err := s.orders.UpdateOrder(ctx, updated); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update existing order")
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = Reduce(s.state, mergeFailed{message: wrapped.Message()})
		s.observeFlow("merge", started, wrapped)
		return s.snapshotLocked(), wrapped
	}

	dateKey := s.dates.DateKey(existing.PickupDate)
	s.store.LoadOrderItems(merged, existing.ID, dateKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = &updated
	s.original = cloneItems(merged)
	s.pendingExisting = nil
	s.pendingNew = nil
	s.state = Reduce(s.state, orderAttached{
		orderID:     existing.ID,
		pickupDate:  existing.PickupDate,
		createdDate: existing.CreatedDate,
		canEdit:     s.dates.CanEditOrder(s.clock(), existing.PickupDate),
	})
	s.refreshBasketLocked()
	s.observeFlow("merge", started, nil)
	return s.snapshotLocked(), nil
}

// UpdateOrder submits the current basket as the new whole-order snapshot for
// the loaded order.
func (s *Synchronizer) UpdateOrder(ctx context.Context) (State, error) {
	started := s.clock()

	s.mu.Lock()
	if s.state.IsCheckingOut {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "update already in progress")
	}
	if s.lastOrder == nil {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "no order loaded")
	}
	order := *s.lastOrder
	s.state = Reduce(s.state, updateStarted{})

	if _, authenticated := s.auth.CurrentUserID(ctx); !authenticated {
		return s.failUpdateLocked(pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to change the order"))
	}
	items := s.store.Items()
	if len(items) == 0 {
		return s.failUpdateLocked(pkgerrors.New(pkgerrors.CodeValidation, "basket is empty"))
	}
	if !s.dates.CanEditOrder(started, order.PickupDate) {
		return s.failUpdateLocked(pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be changed"))
	}
	s.mu.Unlock()

	order.Articles = items
	if err := s.orders.UpdateOrder(ctx, order); err != nil {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update order")
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = Reduce(s.state, updateFailed{message: wrapped.Message()})
		s.observeFlow("update", started, wrapped)
		return s.snapshotLocked(), wrapped
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = &order
	s.original = cloneItems(items)
	s.state = Reduce(s.state, updateSucceeded{})
	s.refreshBasketLocked()
	s.observeFlow("update", started, nil)
	return s.snapshotLocked(), nil
}

// CancelOrder cancels the loaded order remotely and resets the basket. A
// remote "not found" means the order already vanished (a concurrent session
// or the seller removed it); that is treated as idempotent success and the
// stale id is scrubbed from the profile instead of surfacing an error.
func (s *Synchronizer) CancelOrder(ctx context.Context) (State, error) {
	started := s.clock()

	s.mu.Lock()
	if s.state.IsCancelling {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "cancel already in progress")
	}
	link, linked := s.store.LoadedOrderInfo()
	if !linked || s.lastOrder == nil {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "no order loaded")
	}
	pickupDate := s.lastOrder.PickupDate
	s.state = Reduce(s.state, cancelStarted{})
	if !s.dates.CanEditOrder(started, pickupDate) {
		s.state = Reduce(s.state, cancelFailed{message: "order can no longer be cancelled"})
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "order can no longer be cancelled")
	}
	s.mu.Unlock()

	_, err := s.orders.CancelOrder(ctx, s.sellerID, link.DateKey, link.OrderID)
	if err != nil && !pkgerrors.IsCode(err, pkgerrors.CodeNotFound) {
		wrapped := pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel order")
		s.mu.Lock()
		defer s.mu.Unlock()
		s.state = Reduce(s.state, cancelFailed{message: wrapped.Message()})
		s.observeFlow("cancel", started, wrapped)
		return s.snapshotLocked(), wrapped
	}

	s.scrubPlacedOrderID(ctx, link.DateKey)

	s.store.Clear()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = nil
	s.original = nil
	s.pendingExisting = nil
	s.pendingNew = nil
	s.state = Reduce(s.state, orderDetached{})
	s.refreshBasketLocked()
	s.observeFlow("cancel", started, nil)
	return s.snapshotLocked(), nil
}

// ReorderWithNewDate rebuilds the basket for a fresh pickup date, re-pricing
// each line against the live catalog. Lines whose article is gone or
// unavailable keep their old name, unit, and price. The result is a fresh
// unplaced basket with the new date pending.
func (s *Synchronizer) ReorderWithNewDate(newPickupDate time.Time, catalog []models.Article) (State, error) {
	started := s.clock()

	s.mu.Lock()
	if s.state.IsReordering {
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeStateConflict, "reorder already in progress")
	}
	s.state = Reduce(s.state, reorderStarted{})
	if !s.dates.IsPickupDateValid(started, newPickupDate) {
		s.state = Reduce(s.state, reorderFailed{message: "pickup date is no longer available, choose a new date"})
		s.mu.Unlock()
		return s.State(), pkgerrors.New(pkgerrors.CodeValidation, "pickup date is no longer available, choose a new date")
	}
	s.mu.Unlock()

	articlesByID := make(map[uuid.UUID]models.Article, len(catalog))
	for _, article := range catalog {
		articlesByID[article.ID] = article
	}

	items := s.store.Items()
	rebuilt := make([]LineItem, 0, len(items))
	for _, item := range items {
		item.ID = ""
		article, found := articlesByID[item.ProductID]
		if found && article.Available {
			item.ProductName = article.Name
			item.Unit = article.Unit
			item.Price = article.Price
			item.WeightPerPiece = article.WeightPerPiece
			item = item.WithAmount(item.AmountCount)
		}
		rebuilt = append(rebuilt, item)
	}

	s.store.ReplaceItems(rebuilt)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = nil
	s.original = nil
	s.state = Reduce(s.state, reorderDone{date: newPickupDate})
	s.refreshBasketLocked()
	s.observeFlow("reorder", started, nil)
	return s.snapshotLocked(), nil
}

// LoadUpcomingOrder restores the buyer's next placed order into the basket.
func (s *Synchronizer) LoadUpcomingOrder(ctx context.Context) (State, error) {
	userID, authenticated := s.auth.CurrentUserID(ctx)
	if !authenticated {
		return s.State(), pkgerrors.New(pkgerrors.CodeUnauthorized, "sign in to load orders")
	}

	profile, err := s.profiles.GetBuyerProfile(ctx, userID)
	if err != nil {
		return s.State(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load buyer profile")
	}

	order, err := s.orders.GetUpcomingOrder(ctx, s.sellerID, profile.PlacedOrderIDs)
	if err != nil {
		return s.State(), pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load upcoming order")
	}
	if order == nil {
		return s.State(), nil
	}

	dateKey := s.dates.DateKey(order.PickupDate)
	s.store.LoadOrderItems(order.Articles, order.ID, dateKey)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.lastOrder = order
	s.original = cloneItems(order.Articles)
	s.state = Reduce(s.state, orderAttached{
		orderID:     order.ID,
		pickupDate:  order.PickupDate,
		createdDate: order.CreatedDate,
		canEdit:     s.dates.CanEditOrder(s.clock(), order.PickupDate),
	})
	s.refreshBasketLocked()
	return s.snapshotLocked(), nil
}

func (s *Synchronizer) refreshBasket() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.refreshBasketLocked()
	return s.snapshotLocked()
}

func (s *Synchronizer) refreshBasketLocked() {
	items := s.store.Items()
	hasChanges := false
	canEdit := false
	if s.lastOrder != nil {
		hasChanges = HasChanges(items, s.original)
		canEdit = s.dates.CanEditOrder(s.clock(), s.lastOrder.PickupDate)
	}
	s.state = Reduce(s.state, basketChanged{
		items:      items,
		total:      s.store.Total(),
		itemCount:  s.store.ItemCount(),
		hasChanges: hasChanges,
		canEdit:    canEdit,
	})
}

// scrubPlacedOrderID removes a day's order id from the buyer's profile map
// once the order is known to be gone remotely. A failure is logged and
// swallowed: a stale entry only triggers a not-found reconciliation later.
func (s *Synchronizer) scrubPlacedOrderID(ctx context.Context, dateKey string) {
	userID, authenticated := s.auth.CurrentUserID(ctx)
	if !authenticated {
		return
	}
	profile, err := s.profiles.GetBuyerProfile(ctx, userID)
	if err != nil {
		if s.logg != nil {
			s.logg.Warn(ctx, "failed to load profile while scrubbing placed order id")
		}
		return
	}
	if _, present := profile.PlacedOrderIDs[dateKey]; !present {
		return
	}
	profile.PlacedOrderIDs = profile.PlacedOrderIDs.Clone()
	delete(profile.PlacedOrderIDs, dateKey)
	if _, err := s.profiles.SaveBuyerProfile(ctx, profile); err != nil && s.logg != nil {
		s.logg.Warn(ctx, "failed to scrub placed order id from profile")
	}
}

func (s *Synchronizer) failCheckoutLocked(flow string, err *pkgerrors.Error) (State, error) {
	s.state = Reduce(s.state, checkoutFailed{message: err.Message()})
	s.mu.Unlock()
	s.metrics.IncFailure(flow)
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), err
}

func (s *Synchronizer) failCheckout(flow string, err *pkgerrors.Error) (State, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state = Reduce(s.state, checkoutFailed{message: err.Message()})
	s.metrics.IncFailure(flow)
	return s.snapshotLocked(), err
}

func (s *Synchronizer) failUpdateLocked(err *pkgerrors.Error) (State, error) {
	s.state = Reduce(s.state, updateFailed{message: err.Message()})
	s.mu.Unlock()
	s.metrics.IncFailure("update")
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked(), err
}

func (s *Synchronizer) observeFlow(flow string, started time.Time, err error) {
	s.metrics.ObserveDuration(flow, s.clock().Sub(started))
	if err != nil {
		s.metrics.IncFailure(flow)
		return
	}
	s.metrics.IncSuccess(flow)
}
