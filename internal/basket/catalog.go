package basket

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

// ArticleChange is one entry on a seller's article change feed.
type ArticleChange struct {
	Kind    enums.ArticleChangeKind
	Article models.Article
}

// ArticleCollaborator streams catalog changes for a seller.
type ArticleCollaborator interface {
	StreamArticles(ctx context.Context, sellerID uuid.UUID) (<-chan ArticleChange, error)
}

// CatalogLister loads the current catalog snapshot used to seed the view.
type CatalogLister interface {
	ListArticles(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error)
}

// Catalog is the live article view for one seller. It is seeded from the
// repository and kept current by the seller's change feed, so reorder
// re-pricing always sees the latest prices and availability.
type Catalog struct {
	stream   ArticleCollaborator
	lister   CatalogLister
	logg     *logger.Logger
	sellerID uuid.UUID

	mu       sync.RWMutex
	articles map[uuid.UUID]models.Article
}

// CatalogParams bundles the dependencies for a catalog view.
type CatalogParams struct {
	Stream   ArticleCollaborator
	Lister   CatalogLister
	Logger   *logger.Logger
	SellerID uuid.UUID
}

// NewCatalog builds an empty catalog view for the given seller.
func NewCatalog(params CatalogParams) (*Catalog, error) {
	if params.Stream == nil {
		return nil, fmt.Errorf("article stream is required")
	}
	if params.Lister == nil {
		return nil, fmt.Errorf("article lister is required")
	}
	if params.SellerID == uuid.Nil {
		return nil, fmt.Errorf("seller id is required")
	}
	return &Catalog{
		stream:   params.Stream,
		lister:   params.Lister,
		logg:     params.Logger,
		sellerID: params.SellerID,
		articles: make(map[uuid.UUID]models.Article),
	}, nil
}

// Run seeds the view and applies feed changes until the context is cancelled.
func (c *Catalog) Run(ctx context.Context) error {
	seed, err := c.lister.ListArticles(ctx, c.sellerID, false)
	if err != nil {
		return fmt.Errorf("seeding catalog: %w", err)
	}
	c.mu.Lock()
	for _, article := range seed {
		c.articles[article.ID] = article
	}
	c.mu.Unlock()

	return c.consume(ctx)
}

// consume applies feed changes until the context is cancelled.
func (c *Catalog) consume(ctx context.Context) error {
	changes, err := c.stream.StreamArticles(ctx, c.sellerID)
	if err != nil {
		return fmt.Errorf("subscribing to article feed: %w", err)
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case change, ok := <-changes:
			if !ok {
				return nil
			}
			c.apply(ctx, change)
		}
	}
}

func (c *Catalog) apply(ctx context.Context, change ArticleChange) {
	c.mu.Lock()
	switch change.Kind {
	case enums.ArticleChangeAdded, enums.ArticleChangeChanged:
		c.articles[change.Article.ID] = change.Article
	case enums.ArticleChangeRemoved:
		delete(c.articles, change.Article.ID)
	}
	c.mu.Unlock()

	if c.logg != nil {
		c.logg.Debug(ctx, fmt.Sprintf("catalog change applied: %s %s", change.Kind, change.Article.ID))
	}
}

// Articles returns the current catalog snapshot.
func (c *Catalog) Articles() []models.Article {
	c.mu.RLock()
	defer c.mu.RUnlock()

	snapshot := make([]models.Article, 0, len(c.articles))
	for _, article := range c.articles {
		snapshot = append(snapshot, article)
	}
	return snapshot
}

// Lookup returns the catalog entry for a product, if known.
func (c *Catalog) Lookup(productID uuid.UUID) (models.Article, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	article, ok := c.articles[productID]
	return article, ok
}
