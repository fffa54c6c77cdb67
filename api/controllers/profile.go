package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/api/responses"
	"github.com/marktkorb/marktkorb-backend/api/validators"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/internal/profiles"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

type profileDTO struct {
	UserID            uuid.UUID         `json:"user_id"`
	Name              string            `json:"name"`
	Email             string            `json:"email"`
	PlacedOrderIDs    map[string]string `json:"placed_order_ids"`
	FavouriteArticles []string          `json:"favourite_articles"`
}

func toProfileDTO(profile basket.Profile) profileDTO {
	placed := make(map[string]string, len(profile.PlacedOrderIDs))
	for dateKey, orderID := range profile.PlacedOrderIDs {
		placed[dateKey] = orderID
	}
	favourites := make([]string, 0, len(profile.FavouriteArticles))
	favourites = append(favourites, profile.FavouriteArticles...)
	return profileDTO{
		UserID:            profile.UserID,
		Name:              profile.Name,
		Email:             profile.Email,
		PlacedOrderIDs:    placed,
		FavouriteArticles: favourites,
	}
}

func buyerFromContext(r *http.Request) (uuid.UUID, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	return p.UserID, nil
}

func ProfileGet(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := buyerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.GetBuyerProfile(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProfileDTO(profile))
	}
}

func ProfileAddFavourite(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := buyerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := validators.UUIDParam(r, "articleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.AddFavourite(r.Context(), userID, articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProfileDTO(profile))
	}
}

func ProfileRemoveFavourite(svc profiles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		userID, err := buyerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := validators.UUIDParam(r, "articleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		profile, err := svc.RemoveFavourite(r.Context(), userID, articleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toProfileDTO(profile))
	}
}
