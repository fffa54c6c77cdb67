package basket

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

type stubOrders struct {
	placeFn    func(ctx context.Context, order Order) (Order, error)
	updateFn   func(ctx context.Context, order Order) error
	loadFn     func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error)
	cancelFn   func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error)
	upcomingFn func(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*Order, error)
}

func (s *stubOrders) PlaceOrder(ctx context.Context, order Order) (Order, error) {
	if s.placeFn != nil {
		return s.placeFn(ctx, order)
	}
	order.ID = "order-" + uuid.NewString()
	return order, nil
}

func (s *stubOrders) UpdateOrder(ctx context.Context, order Order) error {
	if s.updateFn != nil {
		return s.updateFn(ctx, order)
	}
	return nil
}

func (s *stubOrders) LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
	if s.loadFn != nil {
		return s.loadFn(ctx, sellerID, dateKey, orderID)
	}
	return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
}

func (s *stubOrders) CancelOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error) {
	if s.cancelFn != nil {
		return s.cancelFn(ctx, sellerID, dateKey, orderID)
	}
	return true, nil
}

func (s *stubOrders) GetUpcomingOrder(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*Order, error) {
	if s.upcomingFn != nil {
		return s.upcomingFn(ctx, sellerID, placedOrderIDs)
	}
	return nil, nil
}

type stubProfiles struct {
	profile Profile
	saved   []Profile
	getErr  error
	saveErr error
}

func (s *stubProfiles) GetBuyerProfile(ctx context.Context, userID uuid.UUID) (Profile, error) {
	if s.getErr != nil {
		return Profile{}, s.getErr
	}
	profile := s.profile
	profile.UserID = userID
	if profile.PlacedOrderIDs == nil {
		profile.PlacedOrderIDs = types.DateKeyMap{}
	}
	return profile, nil
}

func (s *stubProfiles) SaveBuyerProfile(ctx context.Context, profile Profile) (Profile, error) {
	if s.saveErr != nil {
		return Profile{}, s.saveErr
	}
	s.saved = append(s.saved, profile)
	s.profile = profile
	return profile, nil
}

type stubAuth struct {
	userID        uuid.UUID
	authenticated bool
}

func (s *stubAuth) CurrentUserID(ctx context.Context) (uuid.UUID, bool) {
	return s.userID, s.authenticated
}

type stubDates struct {
	available []time.Time
	validFn   func(now, date time.Time) bool
	canEditFn func(now, pickup time.Time) bool
}

func (s *stubDates) DateKey(t time.Time) string { return t.Format("20060102") }

func (s *stubDates) AvailablePickupDates(now time.Time, count int) []time.Time {
	return s.available
}

func (s *stubDates) IsPickupDateValid(now, date time.Time) bool {
	if s.validFn != nil {
		return s.validFn(now, date)
	}
	return true
}

func (s *stubDates) CanEditOrder(now, pickup time.Time) bool {
	if s.canEditFn != nil {
		return s.canEditFn(now, pickup)
	}
	return true
}

var (
	testNow    = time.Date(2025, 1, 6, 10, 0, 0, 0, time.UTC)
	testPickup = time.Date(2025, 1, 10, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	sync     *Synchronizer
	store    *Store
	orders   *stubOrders
	profiles *stubProfiles
	auth     *stubAuth
	dates    *stubDates
	buyerID  uuid.UUID
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	fx := &fixture{
		store:    NewStore(),
		orders:   &stubOrders{},
		profiles: &stubProfiles{profile: Profile{Name: "Jo Miller", Email: "jo@example.com"}},
		auth:     &stubAuth{userID: uuid.New(), authenticated: true},
		dates:    &stubDates{available: []time.Time{testPickup}},
	}
	fx.buyerID = fx.auth.userID

	sync, err := NewSynchronizer(SynchronizerParams{
		Store:    fx.store,
		Orders:   fx.orders,
		Profiles: fx.profiles,
		Auth:     fx.auth,
		Dates:    fx.dates,
		Clock:    func() time.Time { return testNow },
		SellerID: uuid.New(),
		MarketID: uuid.New(),
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	fx.sync = sync
	return fx
}

func (fx *fixture) selectPickupDate(t *testing.T) {
	t.Helper()
	if _, err := fx.sync.SelectPickupDate(testPickup); err != nil {
		t.Fatalf("unexpected error selecting date: %v", err)
	}
}

func TestCheckoutPlacesOrderAndLinksBasket(t *testing.T) {
	fx := newFixture(t)
	var placed *Order
	fx.orders.placeFn = func(ctx context.Context, order Order) (Order, error) {
		order.ID = "order-1"
		placed = &order
		return order, nil
	}

	apples := kgItem("Apples", "1.5", "0.5", "2.40")
	fx.sync.AddItem(apples)
	fx.selectPickupDate(t)

	state, err := fx.sync.Checkout(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if placed == nil {
		t.Fatal("order was not placed")
	}
	if placed.BuyerID != fx.buyerID || placed.BuyerName != "Jo Miller" {
		t.Fatalf("buyer identity not carried onto the order: %+v", placed)
	}
	if !placed.PickupDate.Equal(testPickup) || placed.Status != enums.OrderStatusPlaced {
		t.Fatalf("unexpected order envelope: %+v", placed)
	}
	if len(placed.Articles) != 1 || placed.Articles[0].PiecesCount != 3 {
		t.Fatalf("expected apples line with 3 derived pieces, got %+v", placed.Articles)
	}

	if state.OrderID != "order-1" || state.IsCheckingOut || state.HasChanges {
		t.Fatalf("unexpected post-checkout state: %+v", state)
	}
	link, ok := fx.store.LoadedOrderInfo()
	if !ok || link.OrderID != "order-1" || link.DateKey != "20250110" {
		t.Fatalf("basket not linked to placed order: %+v ok=%v", link, ok)
	}
	if len(fx.profiles.saved) != 1 {
		t.Fatalf("expected one profile save, got %d", len(fx.profiles.saved))
	}
	if got := fx.profiles.saved[0].PlacedOrderIDs["20250110"]; got != "order-1" {
		t.Fatalf("placed order id not recorded on profile, got %q", got)
	}
}

func TestCheckoutRequiresItemsDateAndAuth(t *testing.T) {
	fx := newFixture(t)

	if _, err := fx.sync.Checkout(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("empty basket must fail validation, got %v", err)
	}

	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	if _, err := fx.sync.Checkout(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("missing pickup date must fail validation, got %v", err)
	}

	fx.selectPickupDate(t)
	fx.auth.authenticated = false
	if _, err := fx.sync.Checkout(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeUnauthorized {
		t.Fatalf("anonymous checkout must be unauthorized, got %v", err)
	}

	state := fx.sync.State()
	if state.IsCheckingOut {
		t.Fatal("failed preconditions must reset the in-flight flag")
	}
	if state.Error == "" {
		t.Fatal("failed preconditions must surface an error message")
	}
}

func TestCheckoutRevalidatesDateAgainstClock(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)

	// the cutoff passed between selection and checkout
	fx.dates.validFn = func(now, date time.Time) bool { return false }

	placeCalled := false
	fx.orders.placeFn = func(ctx context.Context, order Order) (Order, error) {
		placeCalled = true
		return order, nil
	}

	_, err := fx.sync.Checkout(context.Background())
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if placeCalled {
		t.Fatal("no order may be placed for a stale pickup date")
	}
}

func TestCheckoutWithSiblingOrderOpensMergeDialog(t *testing.T) {
	fx := newFixture(t)
	fx.profiles.profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "order-existing"}

	apples := kgItem("Apples", "2.0", "0.5", "2.60")
	existingLine := apples.WithAmount(decimal.RequireFromString("1.0"))
	existingLine.ID = "line-1"
	existingLine.Price = decimal.RequireFromString("2.40")

	fx.orders.loadFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
		if orderID != "order-existing" || dateKey != "20250110" {
			return Order{}, fmt.Errorf("unexpected lookup %s/%s", dateKey, orderID)
		}
		return Order{
			ID:         "order-existing",
			PickupDate: testPickup,
			Articles:   []LineItem{existingLine},
		}, nil
	}
	placeCalled := false
	fx.orders.placeFn = func(ctx context.Context, order Order) (Order, error) {
		placeCalled = true
		return order, nil
	}

	fx.sync.AddItem(apples)
	fx.selectPickupDate(t)

	state, err := fx.sync.Checkout(context.Background())
	if err != nil {
		t.Fatalf("a required merge is not an error: %v", err)
	}
	if placeCalled {
		t.Fatal("a sibling order must never be silently overwritten")
	}
	if !state.ShowMergeDialog || state.IsCheckingOut {
		t.Fatalf("expected open merge dialog: %+v", state)
	}
	if len(state.MergeConflicts) != 1 {
		t.Fatalf("expected 1 conflict, got %d", len(state.MergeConflicts))
	}
	conflict := state.MergeConflicts[0]
	if !conflict.ExistingQuantity.Equal(decimal.RequireFromString("1.0")) ||
		!conflict.NewQuantity.Equal(decimal.RequireFromString("2.0")) {
		t.Fatalf("unexpected conflict quantities: %+v", conflict)
	}
}

func TestConfirmMergeAddSubmitsSummedQuantity(t *testing.T) {
	fx := newFixture(t)
	fx.profiles.profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "order-existing"}

	apples := kgItem("Apples", "2.0", "0.5", "2.60")
	existingLine := apples.WithAmount(decimal.RequireFromString("1.0"))
	existingLine.ID = "line-1"
	existingLine.Price = decimal.RequireFromString("2.40")

	fx.orders.loadFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
		return Order{ID: "order-existing", PickupDate: testPickup, Articles: []LineItem{existingLine}}, nil
	}
	var submitted *Order
	fx.orders.updateFn = func(ctx context.Context, order Order) error {
		submitted = &order
		return nil
	}

	fx.sync.AddItem(apples)
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := fx.sync.ResolveMergeConflict(apples.ProductID, enums.MergeResolutionAdd); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	state, err := fx.sync.ConfirmMerge(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if submitted == nil || submitted.ID != "order-existing" {
		t.Fatalf("merge must update the existing order, got %+v", submitted)
	}
	if len(submitted.Articles) != 1 {
		t.Fatalf("expected 1 merged line, got %d", len(submitted.Articles))
	}
	line := submitted.Articles[0]
	if !line.AmountCount.Equal(decimal.RequireFromString("3.0")) {
		t.Fatalf("expected summed 3.0 kg, got %s", line.AmountCount)
	}
	if !line.Price.Equal(decimal.RequireFromString("2.60")) {
		t.Fatalf("summed line carries the new price, got %s", line.Price)
	}
	if line.ID != "line-1" {
		t.Fatal("summed line keeps the existing order-scoped id")
	}

	if state.ShowMergeDialog || state.IsMerging || state.OrderID != "order-existing" {
		t.Fatalf("unexpected post-merge state: %+v", state)
	}
	link, ok := fx.store.LoadedOrderInfo()
	if !ok || link.OrderID != "order-existing" {
		t.Fatal("basket must mirror the merged order")
	}
}

func TestConfirmMergeFailureKeepsDialogForRetry(t *testing.T) {
	fx := newFixture(t)
	fx.profiles.profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "order-existing"}

	apples := kgItem("Apples", "2.0", "0.5", "2.60")
	fx.orders.loadFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
		return Order{
			ID:         "order-existing",
			PickupDate: testPickup,
			Articles:   []LineItem{apples.WithAmount(decimal.RequireFromString("1.0"))},
		}, nil
	}
	fx.orders.updateFn = func(ctx context.Context, order Order) error {
		return fmt.Errorf("remote unavailable")
	}

	fx.sync.AddItem(apples)
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := fx.sync.ConfirmMerge(context.Background())
	if err == nil {
		t.Fatal("expected error from failed submit")
	}
	if !state.ShowMergeDialog || len(state.MergeConflicts) != 1 {
		t.Fatal("dialog and conflicts must survive a failed submit")
	}
	if state.IsMerging {
		t.Fatal("in-flight flag must reset on failure")
	}

	// retry succeeds once the remote recovers
	fx.orders.updateFn = nil
	if _, err := fx.sync.ConfirmMerge(context.Background()); err != nil {
		t.Fatalf("retry after failure should succeed: %v", err)
	}
}

func TestConfirmMergeWithoutPendingMerge(t *testing.T) {
	fx := newFixture(t)
	if _, err := fx.sync.ConfirmMerge(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict, got %v", err)
	}
}

func TestDismissMergeLeavesBothSidesUntouched(t *testing.T) {
	fx := newFixture(t)
	fx.profiles.profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "order-existing"}
	apples := kgItem("Apples", "2.0", "0.5", "2.60")
	fx.orders.loadFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
		return Order{
			ID:         "order-existing",
			PickupDate: testPickup,
			Articles:   []LineItem{apples.WithAmount(decimal.RequireFromString("1.0"))},
		}, nil
	}

	fx.sync.AddItem(apples)
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := fx.sync.DismissMerge()
	if state.ShowMergeDialog || state.MergeConflicts != nil {
		t.Fatal("dismiss must close the dialog")
	}
	if len(fx.store.Items()) != 1 {
		t.Fatal("the local basket survives a dismissed merge")
	}
	if _, ok := fx.store.LoadedOrderInfo(); ok {
		t.Fatal("no order may attach on dismiss")
	}
}

func TestUpdateOrderSubmitsWholeSnapshot(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	bread := pieceItem("Bread", "1", "3.20")
	state := fx.sync.AddItem(bread)
	if !state.HasChanges {
		t.Fatal("adding a line after checkout must flag local changes")
	}

	var submitted *Order
	fx.orders.updateFn = func(ctx context.Context, order Order) error {
		submitted = &order
		return nil
	}

	state, err := fx.sync.UpdateOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if submitted == nil || len(submitted.Articles) != 2 {
		t.Fatalf("expected whole-order snapshot with 2 lines, got %+v", submitted)
	}
	if state.HasChanges {
		t.Fatal("a successful update resets the change baseline")
	}
}

func TestUpdateOrderAfterCutoffIsRejected(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fx.dates.canEditFn = func(now, pickup time.Time) bool { return false }
	updateCalled := false
	fx.orders.updateFn = func(ctx context.Context, order Order) error {
		updateCalled = true
		return nil
	}

	_, err := fx.sync.UpdateOrder(context.Background())
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict after cutoff, got %v", err)
	}
	if updateCalled {
		t.Fatal("no remote call may happen after the cutoff")
	}
}

func TestUpdateOrderRequiresLoadedOrder(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	if _, err := fx.sync.UpdateOrder(context.Background()); pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict without a loaded order, got %v", err)
	}
}

func TestCancelOrderResetsBasketAndProfile(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state, err := fx.sync.CancelOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.OrderID != "" || len(state.Items) != 0 {
		t.Fatalf("cancel must reset the basket: %+v", state)
	}
	if _, ok := fx.store.LoadedOrderInfo(); ok {
		t.Fatal("cancel must drop the order link")
	}

	final := fx.profiles.profile
	if _, present := final.PlacedOrderIDs["20250110"]; present {
		t.Fatal("cancelled day must be scrubbed from the profile")
	}
}

func TestCancelOrderNotFoundIsIdempotentSuccess(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// the order vanished remotely (concurrent session or seller removal)
	fx.orders.cancelFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error) {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	state, err := fx.sync.CancelOrder(context.Background())
	if err != nil {
		t.Fatalf("not-found cancel must reconcile, not fail: %v", err)
	}
	if state.OrderID != "" || len(fx.store.Items()) != 0 {
		t.Fatal("reconciled cancel must reset the basket")
	}
	final := fx.profiles.profile
	if _, present := final.PlacedOrderIDs["20250110"]; present {
		t.Fatal("stale order id must be scrubbed from the profile")
	}
}

func TestCancelOrderRemoteFailureKeepsBasket(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	fx.orders.cancelFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error) {
		return false, fmt.Errorf("remote unavailable")
	}

	state, err := fx.sync.CancelOrder(context.Background())
	if err == nil {
		t.Fatal("expected error from failed cancel")
	}
	if state.OrderID == "" || len(fx.store.Items()) != 1 {
		t.Fatal("a failed cancel leaves the order and basket untouched")
	}
	if state.IsCancelling {
		t.Fatal("in-flight flag must reset on failure")
	}
}

func TestOverlappingCheckoutIsRejected(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)

	started := make(chan struct{})
	release := make(chan struct{})
	fx.orders.placeFn = func(ctx context.Context, order Order) (Order, error) {
		close(started)
		<-release
		order.ID = "order-1"
		return order, nil
	}

	done := make(chan error, 1)
	go func() {
		_, err := fx.sync.Checkout(context.Background())
		done <- err
	}()

	<-started
	_, err := fx.sync.Checkout(context.Background())
	if pkgerrors.As(err).Code() != pkgerrors.CodeStateConflict {
		t.Fatalf("expected state conflict for overlapping checkout, got %v", err)
	}

	close(release)
	if err := <-done; err != nil {
		t.Fatalf("first checkout should complete: %v", err)
	}
}

func TestReorderRepricesAgainstLiveCatalog(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	items := fx.store.Items()
	eggsID := items[0].ProductID
	goneID := uuid.New()
	fx.sync.AddItem(LineItem{
		ProductID:   goneID,
		ProductName: "Heirloom Tomatoes",
		Unit:        enums.UnitKilogram,
		Price:       decimal.RequireFromString("4.80"),
	}.WithAmount(decimal.RequireFromString("1.0")))

	catalog := []models.Article{
		{ID: eggsID, Name: "Free-range Eggs", Unit: enums.UnitPiece, Price: decimal.RequireFromString("0.55"), Available: true},
		{ID: goneID, Name: "Heirloom Tomatoes", Unit: enums.UnitKilogram, Price: decimal.RequireFromString("5.20"), Available: false},
	}

	newDate := time.Date(2025, 1, 17, 0, 0, 0, 0, time.UTC)
	state, err := fx.sync.ReorderWithNewDate(newDate, catalog)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if state.OrderID != "" {
		t.Fatal("reorder must produce a fresh unplaced basket")
	}
	if _, ok := fx.store.LoadedOrderInfo(); ok {
		t.Fatal("reorder must drop the order link")
	}
	if state.SelectedPickupDate == nil || !state.SelectedPickupDate.Equal(newDate) {
		t.Fatal("reorder must pre-select the new pickup date")
	}

	byProduct := map[uuid.UUID]LineItem{}
	for _, item := range state.Items {
		byProduct[item.ProductID] = item
	}
	eggs := byProduct[eggsID]
	if eggs.ProductName != "Free-range Eggs" || !eggs.Price.Equal(decimal.RequireFromString("0.55")) {
		t.Fatalf("available article must be re-priced from the catalog: %+v", eggs)
	}
	if eggs.ID != "" {
		t.Fatal("order-scoped line ids must clear on reorder")
	}
	tomatoes := byProduct[goneID]
	if tomatoes.ProductName != "Heirloom Tomatoes" || !tomatoes.Price.Equal(decimal.RequireFromString("4.80")) {
		t.Fatalf("unavailable article keeps its old name and price: %+v", tomatoes)
	}
}

func TestReorderRejectsInvalidDate(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.dates.validFn = func(now, date time.Time) bool { return false }

	_, err := fx.sync.ReorderWithNewDate(testPickup, nil)
	if pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if len(fx.store.Items()) != 1 {
		t.Fatal("a rejected reorder leaves the basket untouched")
	}
}

func TestLoadUpcomingOrderRestoresBasket(t *testing.T) {
	fx := newFixture(t)
	upcoming := Order{
		ID:          "order-7",
		PickupDate:  testPickup,
		CreatedDate: testNow.Add(-24 * time.Hour),
		Articles:    []LineItem{pieceItem("Eggs", "6", "0.45")},
	}
	fx.orders.upcomingFn = func(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*Order, error) {
		return &upcoming, nil
	}

	state, err := fx.sync.LoadUpcomingOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.OrderID != "order-7" || state.HasChanges {
		t.Fatalf("unexpected state after restore: %+v", state)
	}
	link, ok := fx.store.LoadedOrderInfo()
	if !ok || link.OrderID != "order-7" || link.DateKey != "20250110" {
		t.Fatalf("basket not linked to restored order: %+v ok=%v", link, ok)
	}
}

func TestLoadUpcomingOrderWithoutOrdersIsNoop(t *testing.T) {
	fx := newFixture(t)
	state, err := fx.sync.LoadUpcomingOrder(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if state.OrderID != "" || len(state.Items) != 0 {
		t.Fatalf("no upcoming order must leave the state empty: %+v", state)
	}
}

func TestSelectPickupDateRevalidates(t *testing.T) {
	fx := newFixture(t)
	fx.dates.validFn = func(now, date time.Time) bool { return false }
	if _, err := fx.sync.SelectPickupDate(testPickup); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
	if fx.sync.State().SelectedPickupDate != nil {
		t.Fatal("an invalid date must not be selected")
	}
}

func TestClearBasketDetachesOrder(t *testing.T) {
	fx := newFixture(t)
	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	state := fx.sync.ClearBasket()
	if state.OrderID != "" || len(state.Items) != 0 {
		t.Fatalf("clear must reset everything: %+v", state)
	}
	if _, ok := fx.store.LoadedOrderInfo(); ok {
		t.Fatal("clear must drop the order link")
	}
}

func TestManagerKeepsBasketsPerBuyerSellerPair(t *testing.T) {
	manager, err := NewManager(ManagerParams{
		Orders:   &stubOrders{},
		Profiles: &stubProfiles{},
		Auth:     &stubAuth{},
		Dates:    &stubDates{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buyer := uuid.New()
	sellerA := uuid.New()
	sellerB := uuid.New()

	syncA, err := manager.Synchronizer(buyer, sellerA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	syncB, err := manager.Synchronizer(buyer, sellerB)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if syncA == syncB {
		t.Fatal("baskets are per seller")
	}

	syncA.AddItem(pieceItem("Eggs", "6", "0.45"))
	if len(syncB.State().Items) != 0 {
		t.Fatal("seller baskets must not leak into each other")
	}

	again, err := manager.Synchronizer(buyer, sellerA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if again != syncA {
		t.Fatal("the same pair must return the same synchronizer")
	}

	manager.Drop(buyer, sellerA)
	fresh, err := manager.Synchronizer(buyer, sellerA)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if fresh == syncA {
		t.Fatal("dropped baskets must not be reused")
	}
}

func TestRunMirrorsStoreMutations(t *testing.T) {
	fx := newFixture(t)
	var editable atomic.Bool
	editable.Store(true)
	fx.dates.canEditFn = func(now, pickup time.Time) bool { return editable.Load() }

	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)
	if _, err := fx.sync.Checkout(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !fx.sync.State().CanEdit {
		t.Fatal("order must start out editable")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go fx.sync.Run(ctx)

	// the cutoff passes and the basket changes behind the synchronizer's
	// back; the mirror must pick up both without a mutator call
	editable.Store(false)
	fx.store.AddItem(pieceItem("Butter", "1", "2.10"))

	waitFor(t, func() bool {
		state := fx.sync.State()
		return len(state.Items) == 2 && !state.CanEdit
	})
}

func TestManagerRunsMirrorPerBasket(t *testing.T) {
	manager, err := NewManager(ManagerParams{
		Orders:   &stubOrders{},
		Profiles: &stubProfiles{},
		Auth:     &stubAuth{},
		Dates:    &stubDates{},
	})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	buyer := uuid.New()
	seller := uuid.New()
	sync, err := manager.Synchronizer(buyer, seller)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sync.store.AddItem(pieceItem("Eggs", "6", "0.45"))
	waitFor(t, func() bool {
		return len(sync.State().Items) == 1
	})

	manager.Drop(buyer, seller)
}

func TestCheckoutScrubsVanishedOrderAndPlacesFresh(t *testing.T) {
	fx := newFixture(t)
	fx.profiles.profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "vanished-1"}

	var loaded []string
	fx.orders.loadFn = func(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (Order, error) {
		loaded = append(loaded, orderID)
		return Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	var placed *Order
	fx.orders.placeFn = func(ctx context.Context, order Order) (Order, error) {
		order.ID = "order-2"
		placed = &order
		return order, nil
	}

	fx.sync.AddItem(pieceItem("Eggs", "6", "0.45"))
	fx.selectPickupDate(t)

	state, err := fx.sync.Checkout(context.Background())
	if err != nil {
		t.Fatalf("a vanished sibling order must not block checkout: %v", err)
	}
	if len(loaded) != 1 || loaded[0] != "vanished-1" {
		t.Fatalf("expected one lookup of the recorded order, got %v", loaded)
	}
	if placed == nil {
		t.Fatal("expected a fresh order to be placed")
	}
	if state.ShowMergeDialog {
		t.Fatal("no merge dialog for an order that no longer exists")
	}
	if state.OrderID != "order-2" {
		t.Fatalf("basket must link to the fresh order, got %q", state.OrderID)
	}
	final := fx.profiles.profile
	if final.PlacedOrderIDs["20250110"] != "order-2" {
		t.Fatalf("profile must map the day to the fresh order, got %v", final.PlacedOrderIDs)
	}
}
