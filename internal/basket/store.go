package basket

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// OrderLink records which remote order the in-memory basket currently
// mirrors, if any.
type OrderLink struct {
	OrderID string
	DateKey string
}

// Store owns the in-memory basket. It is the single mutator of the line-item
// list; every mutation is atomic with respect to the observable stream, so
// subscribers never see a half-applied basket.
type Store struct {
	mu      sync.RWMutex
	items   []LineItem
	link    *OrderLink
	subs    map[int]chan []LineItem
	nextSub int
}

// NewStore builds an empty basket store.
func NewStore() *Store {
	return &Store{subs: make(map[int]chan []LineItem)}
}

// Observe returns a stream of basket snapshots. The current snapshot is
// delivered first; afterwards every committed mutation produces a new one.
// Slow consumers are conflated to the latest snapshot rather than blocking
// mutations. The subscription ends when ctx is cancelled.
func (s *Store) Observe(ctx context.Context) <-chan []LineItem {
	s.mu.Lock()
	ch := make(chan []LineItem, 1)
	ch <- cloneItems(s.items)
	id := s.nextSub
	s.nextSub++
	s.subs[id] = ch
	s.mu.Unlock()

	go func() {
		<-ctx.Done()
		s.mu.Lock()
		delete(s.subs, id)
		s.mu.Unlock()
	}()

	return ch
}

// AddItem upserts by product id: adding a product already in the basket
// replaces that line instead of duplicating it.
func (s *Store) AddItem(item LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i := range s.items {
		if s.items[i].ProductID == item.ProductID {
			s.items[i] = item
			replaced = true
			break
		}
	}
	if !replaced {
		s.items = append(s.items, item)
	}
	s.broadcastLocked()
}

// RemoveItem drops the line for the given product; absent products are a
// no-op.
func (s *Store) RemoveItem(productID uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items = append(s.items[:i], s.items[i+1:]...)
			s.broadcastLocked()
			return
		}
	}
}

// UpdateQuantity sets the amount for the given product and re-derives its
// piece count; absent products are a no-op.
func (s *Store) UpdateQuantity(productID uuid.UUID, amount decimal.Decimal) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.items {
		if s.items[i].ProductID == productID {
			s.items[i] = s.items[i].WithAmount(amount)
			s.broadcastLocked()
			return
		}
	}
}

// Clear empties the basket and drops the order link.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = nil
	s.link = nil
	s.broadcastLocked()
}

// LoadOrderItems replaces the basket wholesale with a placed order's items
// and records the link to that order. Used when restoring a placed order and
// when a merge is confirmed.
func (s *Store) LoadOrderItems(items []LineItem, orderID, dateKey string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneItems(items)
	s.link = &OrderLink{OrderID: orderID, DateKey: dateKey}
	s.broadcastLocked()
}

// ReplaceItems replaces the basket wholesale and drops the order link: the
// result is a fresh, unplaced basket (the reorder flow).
func (s *Store) ReplaceItems(items []LineItem) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.items = cloneItems(items)
	s.link = nil
	s.broadcastLocked()
}

// Items returns a snapshot copy of the basket lines.
func (s *Store) Items() []LineItem {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return cloneItems(s.items)
}

// LoadedOrderInfo reports the order the basket currently mirrors.
func (s *Store) LoadedOrderInfo() (OrderLink, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.link == nil {
		return OrderLink{}, false
	}
	return *s.link, true
}

// Total sums price times amount across all lines.
func (s *Store) Total() decimal.Decimal {
	s.mu.RLock()
	defer s.mu.RUnlock()
	total := decimal.Zero
	for _, item := range s.items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// ItemCount sums the derived piece counts across all lines.
func (s *Store) ItemCount() int64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var count int64
	for _, item := range s.items {
		count += item.PiecesCount
	}
	return count
}

// broadcastLocked pushes the current snapshot to every subscriber, replacing
// an undelivered older snapshot instead of blocking.
func (s *Store) broadcastLocked() {
	snapshot := cloneItems(s.items)
	for _, ch := range s.subs {
		select {
		case ch <- snapshot:
		default:
			select {
			case <-ch:
			default:
			}
			ch <- snapshot
		}
	}
}
