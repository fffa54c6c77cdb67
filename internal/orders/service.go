package orders

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marktkorb/marktkorb-backend/internal/basket"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

// Service is the order collaborator behind the basket synchronizer, plus the
// seller-facing day listing.
type Service interface {
	PlaceOrder(ctx context.Context, order basket.Order) (basket.Order, error)
	UpdateOrder(ctx context.Context, order basket.Order) error
	LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (basket.Order, error)
	CancelOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error)
	GetUpcomingOrder(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*basket.Order, error)
	ListOrdersForDay(ctx context.Context, sellerID uuid.UUID, dateKey string) ([]basket.Order, error)
}

// ServiceParams wires an order service.
type ServiceParams struct {
	DB     *gorm.DB
	Repo   Repository
	Dates  DateKeyer
	Logger *logger.Logger
	Clock  func() time.Time
}

// DateKeyer derives the canonical day key for a pickup date.
type DateKeyer interface {
	DateKey(t time.Time) string
}

type service struct {
	db    *gorm.DB
	repo  Repository
	dates DateKeyer
	logg  *logger.Logger
	clock func() time.Time
}

// NewService validates dependencies and returns an order service.
func NewService(params ServiceParams) (Service, error) {
	if params.DB == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "db handle is required")
	}
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "order repository is required")
	}
	if params.Dates == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "date rules are required")
	}
	clock := params.Clock
	if clock == nil {
		clock = time.Now
	}
	return &service{
		db:    params.DB,
		repo:  params.Repo,
		dates: params.Dates,
		logg:  params.Logger,
		clock: clock,
	}, nil
}

func (s *service) PlaceOrder(ctx context.Context, order basket.Order) (basket.Order, error) {
	if order.SellerID == uuid.Nil || order.BuyerID == uuid.Nil {
		return basket.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "seller and buyer are required")
	}
	if len(order.Articles) == 0 {
		return basket.Order{}, pkgerrors.New(pkgerrors.CodeValidation, "an order needs at least one article")
	}

	record := toModel(order)
	record.ID = uuid.New()
	record.DateKey = s.dates.DateKey(order.PickupDate)
	for i := range record.Items {
		record.Items[i].ID = uuid.New()
		record.Items[i].OrderID = record.ID
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).Create(ctx, &record)
	}); err != nil {
		return basket.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to place order")
	}

	if s.logg != nil {
		s.logg.Info(s.logg.WithOrderID(ctx, record.ID.String()), "order placed")
	}
	return toDomain(record), nil
}

// UpdateOrder persists a whole-order snapshot: the envelope plus the complete
// replacement line-item list.
func (s *service) UpdateOrder(ctx context.Context, order basket.Order) error {
	orderID, err := uuid.Parse(order.ID)
	if err != nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid order id")
	}

	dateKey := s.dates.DateKey(order.PickupDate)
	existing, err := s.repo.FindByKey(ctx, order.SellerID, dateKey, orderID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if existing == nil {
		return pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}

	record := toModel(order)
	record.ID = orderID
	record.DateKey = dateKey
	record.CreatedAt = existing.CreatedAt
	items := record.Items
	record.Items = nil
	for i := range items {
		if items[i].ID == uuid.Nil {
			items[i].ID = uuid.New()
		}
		items[i].Position = i
	}

	if err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		if err := repo.Save(ctx, &record); err != nil {
			return err
		}
		return repo.ReplaceItems(ctx, orderID, items)
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update order")
	}
	return nil
}

func (s *service) LoadOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (basket.Order, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return basket.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	record, err := s.repo.FindByKey(ctx, sellerID, dateKey, id)
	if err != nil {
		return basket.Order{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load order")
	}
	if record == nil {
		return basket.Order{}, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return toDomain(*record), nil
}

func (s *service) CancelOrder(ctx context.Context, sellerID uuid.UUID, dateKey, orderID string) (bool, error) {
	id, err := uuid.Parse(orderID)
	if err != nil {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	cancelled, err := s.repo.MarkCancelled(ctx, sellerID, dateKey, id)
	if err != nil {
		return false, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to cancel order")
	}
	if !cancelled {
		return false, pkgerrors.New(pkgerrors.CodeNotFound, "order not found")
	}
	return true, nil
}

func (s *service) GetUpcomingOrder(ctx context.Context, sellerID uuid.UUID, placedOrderIDs types.DateKeyMap) (*basket.Order, error) {
	ids := make([]uuid.UUID, 0, len(placedOrderIDs))
	for _, raw := range placedOrderIDs {
		id, err := uuid.Parse(raw)
		if err != nil {
			continue
		}
		ids = append(ids, id)
	}
	if len(ids) == 0 {
		return nil, nil
	}

	now := s.clock()
	startOfDay := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	record, err := s.repo.FindEarliestUpcoming(ctx, sellerID, ids, startOfDay)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load upcoming order")
	}
	if record == nil {
		return nil, nil
	}
	order := toDomain(*record)
	return &order, nil
}

func (s *service) ListOrdersForDay(ctx context.Context, sellerID uuid.UUID, dateKey string) ([]basket.Order, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	if dateKey == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "date key is required")
	}
	records, err := s.repo.ListForDay(ctx, sellerID, dateKey)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list orders")
	}
	out := make([]basket.Order, 0, len(records))
	for _, record := range records {
		out = append(out, toDomain(record))
	}
	return out, nil
}
