package payments

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/internal/reservations"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/pkg/campay"
	"github.com/studhome/studhome-backend/pkg/config"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
	"github.com/studhome/studhome-backend/pkg/metrics"
)

type collector interface {
	InitiateCollect(ctx context.Context, req campay.CollectRequest) (*campay.CollectResponse, error)
}

// InitiateInput captures one payment initiation request.
type InitiateInput struct {
	UserID      uuid.UUID
	HouseID     uuid.UUID
	Amount      decimal.Decimal
	Kind        enums.TransactionKind
	PhoneNumber string
}

// InitiateResult carries what the client needs to complete the collect on
// their phone.
type InitiateResult struct {
	Transaction *models.Transaction
	Reference   string
	USSDCode    string
	Operator    string
}

// Service starts mobile-money collections.
type Service interface {
	Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error)
}

type service struct {
	txns         transactions.Service
	reservations reservations.Service
	houses       houses.Service
	gateway      collector
	cfg          config.CamPayConfig
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

// NewService builds the payments service.
func NewService(
	txns transactions.Service,
	reservationSvc reservations.Service,
	houseSvc houses.Service,
	gateway collector,
	cfg config.CamPayConfig,
	paymentMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
) (Service, error) {
	if txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if reservationSvc == nil {
		return nil, fmt.Errorf("reservations service required")
	}
	if houseSvc == nil {
		return nil, fmt.Errorf("houses service required")
	}
	if gateway == nil {
		return nil, fmt.Errorf("payment gateway required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		txns:         txns,
		reservations: reservationSvc,
		houses:       houseSvc,
		gateway:      gateway,
		cfg:          cfg,
		metrics:      paymentMetrics,
		logg:         logg,
	}, nil
}

// Initiate opens a PENDING transaction and asks the gateway to collect. While
// another user holds the house, neither kind may start: a tour of a reserved
// house is not bookable, and for a reserve payment the check fails fast before
// money moves (the reservation step re-checks atomically once the payment
// succeeds). The sandbox gateway only accepts one fixed amount, so the request
// amount must match the configured one.
func (s *service) Initiate(ctx context.Context, input InitiateInput) (*InitiateResult, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.HouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
	}

	phone := strings.TrimSpace(input.PhoneNumber)
	if !strings.HasPrefix(phone, "+") {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "phone number must include the country code").
			WithDetails(map[string]any{"phone_number": "must start with +"})
	}

	expected := s.cfg.FixedAmount()
	if !input.Amount.Equal(expected) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount does not match the accepted collect amount").
			WithDetails(map[string]any{"expected_amount": expected.String()})
	}

	house, err := s.houses.GetByID(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}

	holder, err := s.reservations.ActiveHolder(ctx, input.HouseID)
	if err != nil {
		return nil, err
	}
	if holder != nil && holder.UserID != input.UserID {
		msg := "house is already reserved by another user"
		if input.Kind == enums.TransactionKindTour {
			msg = "cannot book a tour; house is reserved by another user"
		}
		return nil, pkgerrors.New(pkgerrors.CodeConflict, msg)
	}

	txn, err := s.txns.CreatePending(ctx, transactions.CreatePendingInput{
		UserID:  input.UserID,
		HouseID: input.HouseID,
		Amount:  input.Amount,
		Kind:    input.Kind,
	})
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"house_id":       input.HouseID.String(),
		"kind":           string(input.Kind),
	})

	resp, err := s.gateway.InitiateCollect(ctx, campay.CollectRequest{
		Amount:            input.Amount.String(),
		Currency:          s.cfg.Currency,
		From:              phone,
		Description:       fmt.Sprintf("StudHome %s payment for %s", input.Kind, house.Name),
		ExternalReference: txn.ID.String(),
	})
	if err != nil {
		// The PENDING row keeps no reference and gets cleared on the
		// user's next attempt.
		s.logg.Error(ctx, "gateway collect failed", err)
		return nil, err
	}

	if err := s.txns.AttachReference(ctx, txn.ID, resp.Reference); err != nil {
		return nil, err
	}
	txn.PaymentReference = &resp.Reference

	s.metrics.IncInitiated(string(input.Kind))
	s.logg.Info(ctx, "payment collection initiated")

	return &InitiateResult{
		Transaction: txn,
		Reference:   resp.Reference,
		USSDCode:    resp.USSDCode,
		Operator:    resp.Operator,
	}, nil
}
