package controllers

import (
	"net/http"
	"strings"

	"github.com/marktkorb/marktkorb-backend/api/responses"
	"github.com/marktkorb/marktkorb-backend/internal/auth"
	"github.com/marktkorb/marktkorb-backend/internal/orders"
	pkgerrors "github.com/marktkorb/marktkorb-backend/pkg/errors"
	"github.com/marktkorb/marktkorb-backend/pkg/logger"
)

// SellerOrders lists the placed orders for the seller's pickup day. The day
// is addressed by its date key (YYYYMMDD).
func SellerOrders(svc orders.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		p, ok := auth.PrincipalFrom(r.Context())
		if !ok || p.SellerID == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeForbidden, "seller access required"))
			return
		}

		dateKey := strings.TrimSpace(r.URL.Query().Get("date"))
		if len(dateKey) != 8 {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date must be a YYYYMMDD key"))
			return
		}

		listed, err := svc.ListOrdersForDay(r.Context(), *p.SellerID, dateKey)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		payload := make([]orderDTO, 0, len(listed))
		for _, order := range listed {
			payload = append(payload, toOrderDTO(order))
		}
		responses.WriteSuccess(w, payload)
	}
}
