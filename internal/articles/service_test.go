package articles

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/pagination"
)

type stubRepo struct {
	stored map[uuid.UUID]models.Article
}

func newStubRepo() *stubRepo {
	return &stubRepo{stored: make(map[uuid.UUID]models.Article)}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Create(ctx context.Context, article *models.Article) error {
	s.stored[article.ID] = *article
	return nil
}

func (s *stubRepo) Save(ctx context.Context, article *models.Article) error {
	s.stored[article.ID] = *article
	return nil
}

func (s *stubRepo) Delete(ctx context.Context, sellerID, articleID uuid.UUID) (bool, error) {
	article, ok := s.stored[articleID]
	if !ok || article.SellerID != sellerID {
		return false, nil
	}
	delete(s.stored, articleID)
	return true, nil
}

func (s *stubRepo) FindByID(ctx context.Context, articleID uuid.UUID) (*models.Article, error) {
	article, ok := s.stored[articleID]
	if !ok {
		return nil, nil
	}
	return &article, nil
}

func (s *stubRepo) ListBySeller(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool) ([]models.Article, error) {
	var list []models.Article
	for _, article := range s.stored {
		if article.SellerID != sellerID {
			continue
		}
		if onlyAvailable && !article.Available {
			continue
		}
		list = append(list, article)
	}
	return list, nil
}

func (s *stubRepo) ListSellerPage(ctx context.Context, sellerID uuid.UUID, onlyAvailable bool, page pagination.Params) (*ArticlePage, error) {
	list, err := s.ListBySeller(ctx, sellerID, onlyAvailable)
	if err != nil {
		return nil, err
	}
	limit := pagination.NormalizeLimit(page.Limit)
	if len(list) > limit {
		list = list[:limit]
	}
	return &ArticlePage{Articles: list}, nil
}

func (s *stubRepo) ListByIDs(ctx context.Context, articleIDs []uuid.UUID) ([]models.Article, error) {
	var list []models.Article
	for _, id := range articleIDs {
		if article, ok := s.stored[id]; ok {
			list = append(list, article)
		}
	}
	return list, nil
}

type stubPublisher struct {
	channels []string
	payloads [][]byte
	err      error
}

func (s *stubPublisher) Publish(ctx context.Context, channel string, payload any) error {
	if s.err != nil {
		return s.err
	}
	s.channels = append(s.channels, channel)
	s.payloads = append(s.payloads, payload.([]byte))
	return nil
}

func createParams(sellerID uuid.UUID) CreateArticleParams {
	return CreateArticleParams{
		SellerID:       sellerID,
		Name:           "Apples",
		Unit:           enums.UnitKilogram,
		Price:          decimal.RequireFromString("2.40"),
		WeightPerPiece: decimal.RequireFromString("0.5"),
		Available:      true,
	}
}

func TestServiceCreateArticleAnnouncesChange(t *testing.T) {
	publisher := &stubPublisher{}
	svc, err := NewService(ServiceParams{Repo: newStubRepo(), Publisher: publisher})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	sellerID := uuid.New()
	article, err := svc.CreateArticle(context.Background(), createParams(sellerID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if article.ID == uuid.Nil {
		t.Fatal("article id must be assigned")
	}

	if len(publisher.channels) != 1 {
		t.Fatalf("expected 1 announcement, got %d", len(publisher.channels))
	}
	if publisher.channels[0] != "mk:articles:"+sellerID.String() {
		t.Fatalf("unexpected channel %q", publisher.channels[0])
	}
	var event ChangeEvent
	if err := json.Unmarshal(publisher.payloads[0], &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Kind != enums.ArticleChangeAdded || event.Article.ID != article.ID {
		t.Fatalf("unexpected event: %+v", event)
	}
}

func TestServiceCreateArticleValidation(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})

	params := createParams(uuid.New())
	params.Name = ""
	if _, err := svc.CreateArticle(context.Background(), params); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for empty name, got %v", err)
	}

	params = createParams(uuid.New())
	params.Unit = enums.Unit("crate")
	if _, err := svc.CreateArticle(context.Background(), params); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for bad unit, got %v", err)
	}

	params = createParams(uuid.New())
	params.Price = decimal.RequireFromString("-1")
	if _, err := svc.CreateArticle(context.Background(), params); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error for negative price, got %v", err)
	}
}

func TestServiceUpdateArticleEnforcesOwnership(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo})

	sellerID := uuid.New()
	article, err := svc.CreateArticle(context.Background(), createParams(sellerID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = svc.UpdateArticle(context.Background(), UpdateArticleParams{
		SellerID:  uuid.New(), // another seller
		ArticleID: article.ID,
		Name:      "Hijacked",
		Unit:      enums.UnitPiece,
		Price:     decimal.RequireFromString("1"),
	})
	if pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("foreign articles must read as not found, got %v", err)
	}
}

func TestServiceSetAvailabilityAnnouncesOnlyOnChange(t *testing.T) {
	publisher := &stubPublisher{}
	svc, _ := NewService(ServiceParams{Repo: newStubRepo(), Publisher: publisher})

	sellerID := uuid.New()
	article, err := svc.CreateArticle(context.Background(), createParams(sellerID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if _, err := svc.SetAvailability(context.Background(), sellerID, article.ID, true); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(publisher.channels) != 1 {
		t.Fatal("an unchanged availability must not announce")
	}

	updated, err := svc.SetAvailability(context.Background(), sellerID, article.ID, false)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if updated.Available {
		t.Fatal("availability must flip")
	}
	if len(publisher.channels) != 2 {
		t.Fatal("a real availability change must announce")
	}
}

func TestServiceDeleteArticleAnnouncesRemoval(t *testing.T) {
	publisher := &stubPublisher{}
	svc, _ := NewService(ServiceParams{Repo: newStubRepo(), Publisher: publisher})

	sellerID := uuid.New()
	article, err := svc.CreateArticle(context.Background(), createParams(sellerID))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	if err := svc.DeleteArticle(context.Background(), sellerID, article.ID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	var event ChangeEvent
	if err := json.Unmarshal(publisher.payloads[len(publisher.payloads)-1], &event); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if event.Kind != enums.ArticleChangeRemoved {
		t.Fatalf("expected removal event, got %s", event.Kind)
	}

	if _, err := svc.GetArticle(context.Background(), article.ID); pkgerrors.As(err).Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not found after delete, got %v", err)
	}
}

func TestServicePublishFailureDoesNotFailWrite(t *testing.T) {
	publisher := &stubPublisher{err: context.DeadlineExceeded}
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo, Publisher: publisher})

	article, err := svc.CreateArticle(context.Background(), createParams(uuid.New()))
	if err != nil {
		t.Fatalf("a failed announce must not fail the write: %v", err)
	}
	if _, ok := repo.stored[article.ID]; !ok {
		t.Fatal("article must be stored despite publish failure")
	}
}
