package controllers

import (
	"net/http"

	"github.com/google/uuid"

	"github.com/marktkorb/marktkorb-backend/api/responses"
	"github.com/marktkorb/marktkorb-backend/api/validators"
	"github.com/marktkorb/marktkorb-backend/internal/articles"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/internal/basket"
	"github.com/marktkorb/marktkorb-backend/pkg/enums"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

// synchronizerFor resolves the per-(buyer, seller) engine for the request.
// Baskets are seller-scoped, so every basket route carries a seller_id query
// parameter.
func synchronizerFor(r *http.Request, manager *basket.Manager) (*basket.Synchronizer, error) {
	p, ok := auth.PrincipalFrom(r.Context())
	if !ok {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "authentication required")
	}
	sellerID, err := validators.UUIDQuery(r, "seller_id")
	if err != nil {
		return nil, err
	}
	return manager.Synchronizer(p.UserID, sellerID)
}

func BasketState(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(sync.State()))
	}
}

type addItemRequest struct {
	ArticleID uuid.UUID `json:"article_id" validate:"required"`
	Amount    string    `json:"amount" validate:"required"`
}

func BasketAddItem(manager *basket.Manager, articlesSvc articles.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req addItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseAmount(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		article, err := articlesSvc.GetArticle(r.Context(), req.ArticleID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if !article.Available {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "article is not available"))
			return
		}

		item := basket.LineItem{
			ProductID:      article.ID,
			ProductName:    article.Name,
			Unit:           article.Unit,
			Price:          article.Price,
			WeightPerPiece: article.WeightPerPiece,
		}
		responses.WriteSuccess(w, toStateDTO(sync.AddItem(item.WithAmount(amount))))
	}
}

type updateItemRequest struct {
	Amount string `json:"amount" validate:"required"`
}

func BasketUpdateItem(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.UUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req updateItemRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		amount, err := validators.ParseAmount(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, toStateDTO(sync.UpdateQuantity(productID, amount)))
	}
}

func BasketRemoveItem(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		productID, err := validators.UUIDParam(r, "productID")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(sync.RemoveItem(productID)))
	}
}

func BasketClear(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(sync.ClearBasket()))
	}
}

func PickupDates(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		state := sync.RefreshPickupDates()
		responses.WriteSuccess(w, map[string]any{
			"available_pickup_dates": state.AvailablePickupDates,
			"selected_pickup_date":   state.SelectedPickupDate,
		})
	}
}

type selectDateRequest struct {
	PickupDate string `json:"pickup_date" validate:"required"`
}

func BasketSelectDate(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req selectDateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseDate(req.PickupDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.SelectPickupDate(date)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

func BasketCheckout(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.Checkout(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if state.ShowMergeDialog {
			responses.WriteSuccessStatus(w, http.StatusConflict, toStateDTO(state))
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

type resolveConflictRequest struct {
	ProductID  uuid.UUID `json:"product_id" validate:"required"`
	Resolution string    `json:"resolution" validate:"required"`
}

func BasketMergeResolve(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req resolveConflictRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		resolution := enums.MergeResolution(req.Resolution)
		if !resolution.IsValid() {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid resolution"))
			return
		}

		state, err := sync.ResolveMergeConflict(req.ProductID, resolution)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

func BasketMergeConfirm(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.ConfirmMerge(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

func BasketMergeDismiss(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(sync.DismissMerge()))
	}
}

func BasketUpdateOrder(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.UpdateOrder(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

func BasketCancelOrder(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.CancelOrder(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

type reorderRequest struct {
	PickupDate string `json:"pickup_date" validate:"required"`
}

func BasketReorder(manager *basket.Manager, catalogs *basket.CatalogHub, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sellerID, err := validators.UUIDQuery(r, "seller_id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req reorderRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		date, err := validators.ParseDate(req.PickupDate)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		catalog, err := catalogs.Catalog(r.Context(), sellerID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load catalog"))
			return
		}

		state, err := sync.ReorderWithNewDate(date, catalog.Articles())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}

func OrdersUpcoming(manager *basket.Manager, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		sync, err := synchronizerFor(r, manager)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		state, err := sync.LoadUpcomingOrder(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, toStateDTO(state))
	}
}
