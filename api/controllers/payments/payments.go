package payments

import (
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/api/middleware"
	"github.com/studhome/studhome-backend/api/responses"
	"github.com/studhome/studhome-backend/api/validators"
	internalpayments "github.com/studhome/studhome-backend/internal/payments"
	"github.com/studhome/studhome-backend/internal/reconcile"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
)

type initiateRequest struct {
	HouseID     string `json:"house_id" validate:"required,uuid4"`
	Amount      string `json:"amount" validate:"required"`
	Kind        string `json:"transaction_type" validate:"required,oneof=reserve tour"`
	PhoneNumber string `json:"phone_number" validate:"required,startswith=+"`
}

type initiateResponse struct {
	TransactionID string `json:"transaction_id"`
	Reference     string `json:"reference"`
	USSDCode      string `json:"ussd_code,omitempty"`
	Operator      string `json:"operator,omitempty"`
	Status        string `json:"status"`
}

type outcomeResponse struct {
	Reference       string              `json:"reference"`
	Status          string              `json:"status"`
	Applied         bool                `json:"applied"`
	Reservation     *models.Reservation `json:"reservation,omitempty"`
	ReserveConflict bool                `json:"reserve_conflict,omitempty"`
}

// Initiate starts a mobile-money collection for the caller.
func Initiate(svc internalpayments.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "payments service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var req initiateRequest
		if err := validators.DecodeJSONBody(r, &req); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		houseID, err := uuid.Parse(req.HouseID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid house id"))
			return
		}
		amount, err := decimal.NewFromString(req.Amount)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid amount"))
			return
		}

		result, err := svc.Initiate(r.Context(), internalpayments.InitiateInput{
			UserID:      userID,
			HouseID:     houseID,
			Amount:      amount,
			Kind:        enums.TransactionKind(req.Kind),
			PhoneNumber: req.PhoneNumber,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccessStatus(w, http.StatusAccepted, initiateResponse{
			TransactionID: result.Transaction.ID.String(),
			Reference:     result.Reference,
			USSDCode:      result.USSDCode,
			Operator:      result.Operator,
			Status:        string(result.Transaction.Status),
		})
	}
}

// Verify polls the gateway for a reference the caller owns and applies the
// outcome.
func Verify(svc reconcile.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "reconcile service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		reference := strings.TrimSpace(r.URL.Query().Get("reference"))
		if reference == "" {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "reference query parameter is required"))
			return
		}

		outcome, err := svc.Verify(r.Context(), userID, reference)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		if outcome.ReserveConflict {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeConflict, "house is already reserved by another user"))
			return
		}

		responses.WriteSuccess(w, outcomeResponse{
			Reference:   reference,
			Status:      string(outcome.Transaction.Status),
			Applied:     outcome.Applied,
			Reservation: outcome.Reservation,
		})
	}
}

// ListMine returns the caller's payment history.
func ListMine(svc transactions.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "transactions service unavailable"))
			return
		}

		userID, err := middleware.CurrentUserID(r.Context())
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		txns, err := svc.ListForUser(r.Context(), userID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, txns)
	}
}
