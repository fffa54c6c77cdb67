package basket

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/metrics"
)

// ManagerParams wires a Manager. The collaborators are shared across all
// synchronizers; each buyer/seller pair gets its own store and state.
// BaseContext bounds the mirror goroutine started for every basket; it
// defaults to context.Background.
type ManagerParams struct {
	Orders          OrderCollaborator
	Profiles        ProfileCollaborator
	Auth            AuthCollaborator
	Dates           dateRules
	Metrics         *metrics.SyncMetrics
	Logger          *logger.Logger
	Clock           func() time.Time
	BaseContext     context.Context
	MarketID        uuid.UUID
	PickupDateCount int
}

// Manager hands out one Synchronizer per (buyer, seller) pair. Baskets are
// per seller: adding items for seller A never touches the basket for
// seller B.
type Manager struct {
	params  ManagerParams
	baseCtx context.Context

	mu            sync.Mutex
	synchronizers map[basketKey]*Synchronizer
	cancels       map[basketKey]context.CancelFunc
}

type basketKey struct {
	buyerID  uuid.UUID
	sellerID uuid.UUID
}

func NewManager(params ManagerParams) (*Manager, error) {
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
	baseCtx := params.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &Manager{
		params:        params,
		baseCtx:       baseCtx,
		synchronizers: make(map[basketKey]*Synchronizer),
		cancels:       make(map[basketKey]context.CancelFunc),
	}, nil
}

// Synchronizer returns the basket synchronizer for the buyer/seller pair,
// creating it on first use. Each basket gets a mirror goroutine observing
// the store so state stays current even when the store changes outside a
// synchronizer call; it stops when the basket is dropped or the base
// context ends.
func (m *Manager) Synchronizer(buyerID, sellerID uuid.UUID) (*Synchronizer, error) {
	if buyerID == uuid.Nil {
		return nil, fmt.Errorf("buyer id required")
	}
	if sellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id required")
	}

	key := basketKey{buyerID: buyerID, sellerID: sellerID}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.synchronizers[key]; ok {
		return existing, nil
	}

	created, err := NewSynchronizer(SynchronizerParams{
		Store:           NewStore(),
		Orders:          m.params.Orders,
		Profiles:        m.params.Profiles,
		Auth:            m.params.Auth,
		Dates:           m.params.Dates,
		Metrics:         m.params.Metrics,
		Logger:          m.params.Logger,
		Clock:           m.params.Clock,
		SellerID:        sellerID,
		MarketID:        m.params.MarketID,
		PickupDateCount: m.params.PickupDateCount,
	})
	if err != nil {
		return nil, err
	}

	runCtx, cancel := context.WithCancel(m.baseCtx)
	go created.Run(runCtx)

	m.synchronizers[key] = created
	m.cancels[key] = cancel
	return created, nil
}

// Drop forgets a buyer/seller basket (logout) and stops its mirror
// goroutine.
func (m *Manager) Drop(buyerID, sellerID uuid.UUID) {
	m.mu.Lock()
	defer m.mu.Unlock()
	key := basketKey{buyerID: buyerID, sellerID: sellerID}
	if cancel, ok := m.cancels[key]; ok {
		cancel()
		delete(m.cancels, key)
	}
	delete(m.synchronizers, key)
}
