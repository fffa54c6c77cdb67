package profiles

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

type stubRepo struct {
	stored map[uuid.UUID]models.BuyerProfile
}

func newStubRepo() *stubRepo {
	return &stubRepo{stored: make(map[uuid.UUID]models.BuyerProfile)}
}

func (s *stubRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubRepo) Find(ctx context.Context, userID uuid.UUID) (*models.BuyerProfile, error) {
	profile, ok := s.stored[userID]
	if !ok {
		return nil, nil
	}
	return &profile, nil
}

func (s *stubRepo) Upsert(ctx context.Context, profile *models.BuyerProfile) error {
	s.stored[profile.UserID] = *profile
	return nil
}

func TestServiceGetBuyerProfileCreatesEmptyDefault(t *testing.T) {
	repo := newStubRepo()
	svc, err := NewService(ServiceParams{Repo: repo})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	userID := uuid.New()
	profile, err := svc.GetBuyerProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if profile.UserID != userID {
		t.Fatal("default profile must carry the user id")
	}
	if profile.PlacedOrderIDs == nil || len(profile.PlacedOrderIDs) != 0 {
		t.Fatal("default profile starts with an empty placed-order map")
	}
	if len(repo.stored) != 0 {
		t.Fatal("the default profile is not persisted until the first save")
	}
}

func TestServiceGetBuyerProfileRequiresUserID(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})
	if _, err := svc.GetBuyerProfile(context.Background(), uuid.Nil); pkgerrors.As(err).Code() != pkgerrors.CodeValidation {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestServiceFavouritesAddIsIdempotent(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})
	userID := uuid.New()
	articleID := uuid.New()

	profile, err := svc.AddFavourite(context.Background(), userID, articleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !profile.FavouriteArticles.Contains(articleID.String()) {
		t.Fatal("favourite must be recorded")
	}

	profile, err = svc.AddFavourite(context.Background(), userID, articleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.FavouriteArticles) != 1 {
		t.Fatalf("adding twice must not duplicate, got %v", profile.FavouriteArticles)
	}
}

func TestServiceFavouritesRemove(t *testing.T) {
	svc, _ := NewService(ServiceParams{Repo: newStubRepo()})
	userID := uuid.New()
	articleID := uuid.New()

	if _, err := svc.AddFavourite(context.Background(), userID, articleID); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile, err := svc.RemoveFavourite(context.Background(), userID, articleID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if len(profile.FavouriteArticles) != 0 {
		t.Fatal("favourite must be removed")
	}

	// removing an absent favourite is a no-op
	if _, err := svc.RemoveFavourite(context.Background(), userID, uuid.New()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestServiceSaveRoundTripsPlacedOrderIDs(t *testing.T) {
	repo := newStubRepo()
	svc, _ := NewService(ServiceParams{Repo: repo})
	userID := uuid.New()

	profile, err := svc.GetBuyerProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	profile.Name = "Jo Miller"
	profile.PlacedOrderIDs = types.DateKeyMap{"20250110": "order-1"}

	if _, err := svc.SaveBuyerProfile(context.Background(), profile); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	reloaded, err := svc.GetBuyerProfile(context.Background(), userID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if reloaded.Name != "Jo Miller" || reloaded.PlacedOrderIDs["20250110"] != "order-1" {
		t.Fatalf("profile did not round trip: %+v", reloaded)
	}
}
