package articles

import (
	"context"
	"encoding/json"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/pagination"
	"github.com/marktkorb/marktkorb-backend/pkg/redis"
)

// Service manages a seller's catalog. Every committed change is announced on
// the seller's article channel so open basket sessions can refresh prices.
type Service interface {
	CreateArticle(ctx context.Context, params CreateArticleParams) (models.Article, error)
	UpdateArticle(ctx context.Context, params UpdateArticleParams) (models.Article, error)
	SetAvailability(ctx context.Context, sellerID, articleID uuid.UUID, available bool) (models.Article, error)
	DeleteArticle(ctx context.Context, sellerID, articleID uuid.UUID) error
	GetArticle(ctx context.Context, articleID uuid.UUID) (models.Article, error)
	ListArticles(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error)
	ListArticlesPage(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool, page pagination.Params) (*ArticlePage, error)
	ListArticlesByIDs(ctx context.Context, articleIDs []uuid.UUID) ([]models.Article, error)
}

// ChangeEvent is the payload published on a seller's article channel.
type ChangeEvent struct {
	Kind    enums.ArticleChangeKind `json:"kind"`
	Article models.Article          `json:"article"`
}

type changePublisher interface {
	Publish(ctx context.Context, channel string, payload any) error
}

// CreateArticleParams carries a new catalog entry.
type CreateArticleParams struct {
	SellerID       uuid.UUID
	Name           string
	Unit           enums.Unit
	Price          decimal.Decimal
	WeightPerPiece decimal.Decimal
	Available      bool
}

// UpdateArticleParams carries a full replacement for an existing entry.
type UpdateArticleParams struct {
	SellerID       uuid.UUID
	ArticleID      uuid.UUID
	Name           string
	Unit           enums.Unit
	Price          decimal.Decimal
	WeightPerPiece decimal.Decimal
	Available      bool
}

// ServiceParams wires a catalog service.
type ServiceParams struct {
	Repo      Repository
	Publisher changePublisher
	Logger    *logger.Logger
}

type service struct {
	repo      Repository
	publisher changePublisher
	logg      *logger.Logger
}

// NewService validates dependencies and returns a catalog service. The
// publisher is optional; without it changes simply go unannounced.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "article repository is required")
	}
	return &service{
		repo:      params.Repo,
		publisher: params.Publisher,
		logg:      params.Logger,
	}, nil
}

func (s *service) CreateArticle(ctx context.Context, params CreateArticleParams) (models.Article, error) {
	if err := validateArticleFields(params.SellerID, params.Name, params.Unit, params.Price, params.WeightPerPiece); err != nil {
		return models.Article{}, err
	}

	article := models.Article{
		ID:             uuid.New(),
		SellerID:       params.SellerID,
		Name:           params.Name,
		Unit:           params.Unit,
		Price:          params.Price,
		WeightPerPiece: params.WeightPerPiece,
		Available:      params.Available,
	}
	if err := s.repo.Create(ctx, &article); err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to create article")
	}

	s.announce(ctx, enums.ArticleChangeAdded, article)
	return article, nil
}

func (s *service) UpdateArticle(ctx context.Context, params UpdateArticleParams) (models.Article, error) {
	if err := validateArticleFields(params.SellerID, params.Name, params.Unit, params.Price, params.WeightPerPiece); err != nil {
		return models.Article{}, err
	}

	existing, err := s.repo.FindByID(ctx, params.ArticleID)
	if err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load article")
	}
	if existing == nil || existing.SellerID != params.SellerID {
		return models.Article{}, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}

	existing.Name = params.Name
	existing.Unit = params.Unit
	existing.Price = params.Price
	existing.WeightPerPiece = params.WeightPerPiece
	existing.Available = params.Available
	if err := s.repo.Save(ctx, existing); err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update article")
	}

	s.announce(ctx, enums.ArticleChangeChanged, *existing)
	return *existing, nil
}

func (s *service) SetAvailability(ctx context.Context, sellerID, articleID uuid.UUID, available bool) (models.Article, error) {
	existing, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load article")
	}
	if existing == nil || existing.SellerID != sellerID {
		return models.Article{}, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	if existing.Available == available {
		return *existing, nil
	}

	existing.Available = available
	if err := s.repo.Save(ctx, existing); err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to update article")
	}

	s.announce(ctx, enums.ArticleChangeChanged, *existing)
	return *existing, nil
}

func (s *service) DeleteArticle(ctx context.Context, sellerID, articleID uuid.UUID) error {
	existing, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load article")
	}
	if existing == nil || existing.SellerID != sellerID {
		return pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}

	deleted, err := s.repo.Delete(ctx, sellerID, articleID)
	if err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to delete article")
	}
	if deleted {
		s.announce(ctx, enums.ArticleChangeRemoved, *existing)
	}
	return nil
}

func (s *service) GetArticle(ctx context.Context, articleID uuid.UUID) (models.Article, error) {
	article, err := s.repo.FindByID(ctx, articleID)
	if err != nil {
		return models.Article{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load article")
	}
	if article == nil {
		return models.Article{}, pkgerrors.New(pkgerrors.CodeNotFound, "article not found")
	}
	return *article, nil
}

func (s *service) ListArticles(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	list, err := s.repo.ListBySeller(ctx, sellerID, onlyAvailable)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list articles")
	}
	return list, nil
}

func (s *service) ListArticlesPage(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool, page pagination.Params) (*ArticlePage, error) {
	if sellerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	if _, err := pagination.ParseCursor(page.Cursor); err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid cursor")
	}
	result, err := s.repo.ListSellerPage(ctx, sellerID, onlyAvailable, page)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list articles")
	}
	return result, nil
}

func (s *service) ListArticlesByIDs(ctx context.Context, articleIDs []uuid.UUID) ([]models.Article, error) {
	list, err := s.repo.ListByIDs(ctx, articleIDs)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to list articles")
	}
	return list, nil
}

// announce publishes a change event on the seller's channel. Publication is
// best effort: a failed announce never fails the catalog write.
func (s *service) announce(ctx context.Context, kind enums.ArticleChangeKind, article models.Article) {
	if s.publisher == nil {
		return
	}
	payload, err := json.Marshal(ChangeEvent{Kind: kind, Article: article})
	if err != nil {
		return
	}
	if err := s.publisher.Publish(ctx, redis.ArticleChannel(article.SellerID.String()), payload); err != nil && s.logg != nil {
		s.logg.Warn(s.logg.WithSellerID(ctx, article.SellerID.String()), "failed to publish article change")
	}
}

func validateArticleFields(sellerID uuid.UUID, name string, unit enums.Unit, price, weightPerPiece decimal.Decimal) error {
	if sellerID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "seller is required")
	}
	if name == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "article name is required")
	}
	if !unit.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	if price.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "price must not be negative")
	}
	if unit.IsWeight() && weightPerPiece.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "weight per piece must not be negative")
	}
	return nil
}
