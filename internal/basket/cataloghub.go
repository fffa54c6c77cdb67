package basket

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

// CatalogHub hands out one live Catalog per seller. The first request for a
// seller seeds the view and starts its feed consumer; later requests share
// the same view.
type CatalogHub struct {
	stream  ArticleCollaborator
	lister  CatalogLister
	logg    *logger.Logger
	baseCtx context.Context

	mu       sync.Mutex
	catalogs map[uuid.UUID]*Catalog
}

// CatalogHubParams bundles the shared dependencies for all catalog views.
// BaseContext bounds every feed consumer the hub starts; it defaults to
// context.Background.
type CatalogHubParams struct {
	Stream      ArticleCollaborator
	Lister      CatalogLister
	Logger      *logger.Logger
	BaseContext context.Context
}

// NewCatalogHub builds an empty hub.
func NewCatalogHub(params CatalogHubParams) (*CatalogHub, error) {
	if params.Stream == nil {
		return nil, fmt.Errorf("article stream is required")
	}
	if params.Lister == nil {
		return nil, fmt.Errorf("article lister is required")
	}
	baseCtx := params.BaseContext
	if baseCtx == nil {
		baseCtx = context.Background()
	}
	return &CatalogHub{
		stream:   params.Stream,
		lister:   params.Lister,
		logg:     params.Logger,
		baseCtx:  baseCtx,
		catalogs: make(map[uuid.UUID]*Catalog),
	}, nil
}

// Catalog returns the live view for a seller, creating and starting it on
// first use. The view keeps running until the hub's base context is done.
func (h *CatalogHub) Catalog(ctx context.Context, sellerID uuid.UUID) (*Catalog, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if catalog, ok := h.catalogs[sellerID]; ok {
		return catalog, nil
	}

	catalog, err := NewCatalog(CatalogParams{
		Stream:   h.stream,
		Lister:   h.lister,
		Logger:   h.logg,
		SellerID: sellerID,
	})
	if err != nil {
		return nil, err
	}

	seed, err := h.lister.ListArticles(ctx, sellerID, false)
	if err != nil {
		return nil, fmt.Errorf("seeding catalog: %w", err)
	}
	catalog.mu.Lock()
	for _, article := range seed {
		catalog.articles[article.ID] = article
	}
	catalog.mu.Unlock()

	go func() {
		err := catalog.consume(h.baseCtx)
		if err != nil && !errors.Is(err, context.Canceled) && h.logg != nil {
			h.logg.Warn(h.baseCtx, fmt.Sprintf("catalog feed for seller %s stopped: %v", sellerID, err))
		}
	}()

	h.catalogs[sellerID] = catalog
	return catalog, nil
}
