package profiles

import (
	"context"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/types"
)

// Service is the profile collaborator behind the basket synchronizer, plus
// the favourite-articles surface.
type Service interface {
	GetBuyerProfile(ctx context.Context, userID uuid.UUID) (basket.Profile, error)
	SaveBuyerProfile(ctx context.Context, profile basket.Profile) (basket.Profile, error)
	AddFavourite(ctx context.Context, userID, articleID uuid.UUID) (basket.Profile, error)
	RemoveFavourite(ctx context.Context, userID, articleID uuid.UUID) (basket.Profile, error)
}

// ServiceParams wires a profile service.
type ServiceParams struct {
	Repo   Repository
	Logger *logger.Logger
}

type service struct {
	repo Repository
	logg *logger.Logger
}

// NewService validates dependencies and returns a profile service.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, pkgerrors.New(pkgerrors.CodeInternal, "profile repository is required")
	}
	return &service{repo: params.Repo, logg: params.Logger}, nil
}

// GetBuyerProfile returns the stored profile, or a fresh empty one when the
// buyer has never been seen. The empty profile is not persisted until the
// first save.
func (s *service) GetBuyerProfile(ctx context.Context, userID uuid.UUID) (basket.Profile, error) {
	if userID == uuid.Nil {
		return basket.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record, err := s.repo.Find(ctx, userID)
	if err != nil {
		return basket.Profile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to load profile")
	}
	if record == nil {
		return basket.Profile{
			UserID:         userID,
			PlacedOrderIDs: types.DateKeyMap{},
		}, nil
	}
	return toDomain(*record), nil
}

func (s *service) SaveBuyerProfile(ctx context.Context, profile basket.Profile) (basket.Profile, error) {
	if profile.UserID == uuid.Nil {
		return basket.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	record := toModel(profile)
	if err := s.repo.Upsert(ctx, &record); err != nil {
		return basket.Profile{}, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "failed to save profile")
	}
	return toDomain(record), nil
}

func (s *service) AddFavourite(ctx context.Context, userID, articleID uuid.UUID) (basket.Profile, error) {
	if articleID == uuid.Nil {
		return basket.Profile{}, pkgerrors.New(pkgerrors.CodeValidation, "article id is required")
	}
	profile, err := s.GetBuyerProfile(ctx, userID)
	if err != nil {
		return basket.Profile{}, err
	}
	if profile.FavouriteArticles.Contains(articleID.String()) {
		return profile, nil
	}
	profile.FavouriteArticles = append(profile.FavouriteArticles, articleID.String())
	return s.SaveBuyerProfile(ctx, profile)
}

func (s *service) RemoveFavourite(ctx context.Context, userID, articleID uuid.UUID) (basket.Profile, error) {
	profile, err := s.GetBuyerProfile(ctx, userID)
	if err != nil {
		return basket.Profile{}, err
	}
	kept := make(types.StringList, 0, len(profile.FavouriteArticles))
	for _, id := range profile.FavouriteArticles {
		if id != articleID.String() {
			kept = append(kept, id)
		}
	}
	if len(kept) == len(profile.FavouriteArticles) {
		return profile, nil
	}
	profile.FavouriteArticles = kept
	return s.SaveBuyerProfile(ctx, profile)
}

func toDomain(record models.BuyerProfile) basket.Profile {
	placed := record.PlacedOrderIDs
	if placed == nil {
		placed = types.DateKeyMap{}
	}
	return basket.Profile{
		UserID:            record.UserID,
		Name:              record.Name,
		Email:             record.Email,
		PlacedOrderIDs:    placed,
		FavouriteArticles: record.FavouriteArticles,
	}
}

func toModel(profile basket.Profile) models.BuyerProfile {
	return models.BuyerProfile{
		UserID:            profile.UserID,
		Name:              profile.Name,
		Email:             profile.Email,
		PlacedOrderIDs:    profile.PlacedOrderIDs,
		FavouriteArticles: profile.FavouriteArticles,
	}
}
