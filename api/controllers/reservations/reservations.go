package reservations

import (
	"net/http"

	"github.com/studhome/studhome-backend/api/middleware"
	"github.com/studhome/studhome-backend/api/responses"
	"github.com/studhome/studhome-backend/api/validators"
	internalreservations "github.com/studhome/studhome-backend/internal/reservations"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

// ListMine returns the caller's active reservations.
func ListMine(svc internalreservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		rows, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, rows)
	}
}

// HouseStatus reports whether a house currently has an active hold.
func HouseStatus(svc internalreservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}

		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		holder, err := svc.ActiveHolder(r.Context(), houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		body := map[string]any{"reserved": holder != nil}
		if holder != nil {
			body["expires_at"] = holder.ExpiresAt
		}
		responses.WriteSuccess(w, body)
	}
}
