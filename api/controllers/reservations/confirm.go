package reservations

import (
	"net/http"

	"github.com/studhome/studhome-backend/api/middleware"
	"github.com/studhome/studhome-backend/api/responses"
	"github.com/studhome/studhome-backend/api/validators"
	internalreservations "github.com/studhome/studhome-backend/internal/reservations"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

type confirmResponse struct {
	Confirmed     bool                `json:"confirmed"`
	TransactionID string              `json:"transaction_id"`
	Reservation   *models.Reservation `json:"reservation,omitempty"`
}

// ConfirmReserve asserts the caller has a settled reserve payment for the
// house and re-runs the idempotent grant. The grant normally happens when the
// payment outcome is applied; re-running it here converges a hold that was
// missed or has lapsed since.
func ConfirmReserve(txns transactions.Service, svc internalreservations.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if txns == nil || svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reservations service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := txns.GetSuccessful(r.Context(), userID, houseID, enums.TransactionKindReserve)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reservation, _, err := svc.Reserve(r.Context(), userID, houseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmResponse{
			Confirmed:     true,
			TransactionID: txn.ID.String(),
			Reservation:   reservation,
		})
	}
}

// ConfirmTour asserts the caller has a settled tour payment for the house.
// Tours never hold the listing, so there is nothing to grant.
func ConfirmTour(txns transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if txns == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		houseID, err := validators.ParseUUIDParam(r, "houseId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txn, err := txns.GetSuccessful(r.Context(), userID, houseID, enums.TransactionKindTour)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, confirmResponse{
			Confirmed:     true,
			TransactionID: txn.ID.String(),
		})
	}
}
