package controllers

import (
	"net/http"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/api/responses"
	"github.com/marktkorb/marktkorb-backend/api/validators"
	"github.com/marktkorb/marktkorb-backend/internal/articles"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/pkg/db/models"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
	"github.com/marktkorb/marktkorb-backend/pkg/pagination"
)

type articleDTO struct {
	ID             uuid.UUID `json:"id"`
	SellerID       uuid.UUID `json:"seller_id"`
	Name           string    `json:"name"`
	Unit           string    `json:"unit"`
	Price          string    `json:"price"`
	WeightPerPiece string    `json:"weight_per_piece"`
	Available      bool      `json:"available"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

func toArticleDTO(article models.Article) articleDTO {
	return articleDTO{
		ID:             article.ID,
		SellerID:       article.SellerID,
		Name:           article.Name,
		Unit:           string(article.Unit),
		Price:          article.Price.String(),
		WeightPerPiece: article.WeightPerPiece.String(),
		Available:      article.Available,
		CreatedAt:      article.CreatedAt,
		UpdatedAt:      article.UpdatedAt,
	}
}

type articleRequest struct {
	Name           string `json:"name" validate:"required"`
	Unit           string `json:"unit" validate:"required"`
	Price          string `json:"price" validate:"required"`
	WeightPerPiece string `json:"weight_per_piece,omitempty"`
	Available      *bool  `json:"available,omitempty"`
}

func sellerFromContext(r *http.Request) (uuid.UUID, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok || p.SellerID == nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required")
	}
	return *p.SellerID, nil
}

func articleParamsFromRequest(r *http.Request) (articles.CreateArticleParams, error) {
	sellerID, err := sellerFromContext(r)
	if err != nil {
		return articles.CreateArticleParams{}, err
	}

	var req articleRequest
	if err := validators.DecodeJSONBody(r, &req); err != nil {
		return articles.CreateArticleParams{}, err
	}

	unit, err := enums.ParseUnit(req.Unit)
	if err != nil {
		return articles.CreateArticleParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid unit")
	}
	price, err := validators.ParseAmount(req.Price)
	if err != nil {
		return articles.CreateArticleParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid price")
	}

	params := articles.CreateArticleParams{
		SellerID:  sellerID,
		Name:      req.Name,
		Unit:      unit,
		Price:     price,
		Available: true,
	}
	if req.WeightPerPiece != "" {
		weight, err := validators.ParseAmount(req.WeightPerPiece)
		if err != nil {
			return articles.CreateArticleParams{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid weight_per_piece")
		}
		params.WeightPerPiece = weight
	}
	if req.Available != nil {
		params.Available = *req.Available
	}
	return params, nil
}

func SellerArticleCreate(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		params, err := articleParamsFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.CreateArticle(r.Context(), params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, toArticleDTO(article))
	}
}

func SellerArticleUpdate(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		articleID, err := validators.UUIDParam(r, "articleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params, err := articleParamsFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.UpdateArticle(r.Context(), articles.UpdateArticleParams{
			SellerID:       params.SellerID,
			ArticleID:      articleID,
			Name:           params.Name,
			Unit:           params.Unit,
			Price:          params.Price,
			WeightPerPiece: params.WeightPerPiece,
			Available:      params.Available,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toArticleDTO(article))
	}
}

type availabilityRequest struct {
	Available *bool `json:"available" validate:"required"`
}

func SellerArticleAvailability(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := validators.UUIDParam(r, "articleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req availabilityRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := svc.SetAvailability(r.Context(), sellerID, articleID, *req.Available)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toArticleDTO(article))
	}
}

func SellerArticleDelete(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := sellerFromContext(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		articleID, err := validators.UUIDParam(r, "articleID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.DeleteArticle(r.Context(), sellerID, articleID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}

// SellerArticles lists a seller's catalog for buyers. Unavailable entries are
// filtered out unless include_unavailable is set.
func SellerArticles(svc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sellerID, err := validators.UUIDParam(r, "sellerID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		onlyAvailable := r.URL.Query().Get("include_unavailable") != "true"
		limit := 0
		if raw := r.URL.Query().Get("limit"); raw != "" {
			parsed, err := strconv.Atoi(raw)
			if err != nil || parsed < 0 {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a non-negative integer"))
				return
			}
			limit = parsed
		}

		page, err := svc.ListArticlesPage(r.Context(), sellerID, onlyAvailable, pagination.Params{
			Limit:  limit,
			Cursor: r.URL.Query().Get("cursor"),
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]articleDTO, 0, len(page.Articles))
		for _, article := range page.Articles {
			payload = append(payload, toArticleDTO(article))
		}
		responses.WriteSuccess(w, articleListDTO{
			Articles:   payload,
			NextCursor: page.NextCursor,
		})
	}
}

type articleListDTO struct {
	Articles   []articleDTO `json:"articles"`
	NextCursor string       `json:"next_cursor,omitempty"`
}
