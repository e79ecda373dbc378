package reconcile

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/internal/notifications"
	"github.com/studhome/studhome-backend/internal/reservations"
	"github.com/studhome/studhome-backend/internal/transactions"
	"github.com/studhome/studhome-backend/internal/users"
	"github.com/studhome/studhome-backend/pkg/campay"
	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
	"github.com/studhome/studhome-backend/pkg/logger"
	"github.com/studhome/studhome-backend/pkg/metrics"
)

// Ingress paths an outcome can arrive through.
const (
	PathPoll    = "poll"
	PathWebhook = "webhook"
)

type statusPoller interface {
	GetTransactionStatus(ctx context.Context, reference string) (*campay.TransactionStatus, error)
}

type webhookGuard interface {
	CheckAndMark(ctx context.Context, eventID string) (bool, error)
	Delete(ctx context.Context, eventID string) error
}

// Outcome reports what applying a gateway status changed.
type Outcome struct {
	Transaction     *models.Transaction
	Applied         bool
	Replay          bool
	Reservation     *models.Reservation
	ReserveConflict bool
}

// Service converges gateway-reported payment outcomes from the poll and
// webhook paths onto one shared apply routine.
type Service interface {
	Verify(ctx context.Context, userID uuid.UUID, reference string) (*Outcome, error)
	HandleWebhook(ctx context.Context, reference, status string) (*Outcome, error)
	Apply(ctx context.Context, txn *models.Transaction, status enums.PaymentStatus, path string) (*Outcome, error)
}

type service struct {
	txns         transactions.Service
	reservations reservations.Service
	userRepo     users.Repository
	houseRepo    houses.Repository
	poller       statusPoller
	guard        webhookGuard
	mailer       notifications.Mailer
	metrics      *metrics.PaymentMetrics
	logg         *logger.Logger
}

// NewService builds the reconciliation service.
func NewService(
	txns transactions.Service,
	reservationSvc reservations.Service,
	userRepo users.Repository,
	houseRepo houses.Repository,
	poller statusPoller,
	guard webhookGuard,
	mailer notifications.Mailer,
	paymentMetrics *metrics.PaymentMetrics,
	logg *logger.Logger,
) (Service, error) {
	if txns == nil {
		return nil, fmt.Errorf("transactions service required")
	}
	if reservationSvc == nil {
		return nil, fmt.Errorf("reservations service required")
	}
	if userRepo == nil {
		return nil, fmt.Errorf("users repository required")
	}
	if houseRepo == nil {
		return nil, fmt.Errorf("houses repository required")
	}
	if poller == nil {
		return nil, fmt.Errorf("status poller required")
	}
	if guard == nil {
		return nil, fmt.Errorf("webhook guard required")
	}
	if mailer == nil {
		return nil, fmt.Errorf("mailer required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		txns:         txns,
		reservations: reservationSvc,
		userRepo:     userRepo,
		houseRepo:    houseRepo,
		poller:       poller,
		guard:        guard,
		mailer:       mailer,
		metrics:      paymentMetrics,
		logg:         logg,
	}, nil
}

// Verify polls the gateway for the reference's current status and applies it.
// The lookup is scoped to the calling user, so one user cannot verify another
// user's payment.
func (s *service) Verify(ctx context.Context, userID uuid.UUID, reference string) (*Outcome, error) {
	reference = strings.TrimSpace(reference)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}

	txn, err := s.txns.GetByReferenceForUser(ctx, reference, userID)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithReference(ctx, reference)
	polled, err := s.poller.GetTransactionStatus(ctx, reference)
	if err != nil {
		return nil, err
	}

	return s.Apply(ctx, txn, normalizeStatus(polled.Status), PathPoll)
}

// HandleWebhook applies a gateway-pushed outcome. Unknown references surface
// as not-found; duplicate deliveries for the same reference/status pair are
// suppressed via the redis guard.
func (s *service) HandleWebhook(ctx context.Context, reference, status string) (*Outcome, error) {
	reference = strings.TrimSpace(reference)
	normalized := normalizeStatus(status)
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if normalized == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}

	txn, err := s.txns.GetByReference(ctx, reference)
	if err != nil {
		return nil, err
	}

	ctx = s.logg.WithReference(ctx, reference)
	eventID := reference + ":" + string(normalized)
	seen, err := s.guard.CheckAndMark(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("webhook idempotency check: %w", err)
	}
	if seen {
		s.logg.Info(ctx, "duplicate webhook delivery suppressed")
		return &Outcome{Transaction: txn, Replay: true}, nil
	}

	outcome, err := s.Apply(ctx, txn, normalized, PathWebhook)
	if err != nil {
		// Clear the marker so the gateway's retry can reprocess.
		if delErr := s.guard.Delete(ctx, eventID); delErr != nil {
			s.logg.Error(ctx, "failed to clear webhook idempotency marker", delErr)
		}
		return nil, err
	}
	return outcome, nil
}

// Apply is the single convergence point for payment outcomes. The status write
// commits on its own, so a downstream reservation conflict never un-records the
// outcome. Reservation creation and the confirmation email only run for a
// successful reserve payment; tour payments never place a hold.
func (s *service) Apply(ctx context.Context, txn *models.Transaction, status enums.PaymentStatus, path string) (*Outcome, error) {
	if txn == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "transaction is required")
	}
	if status == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}

	ctx = s.logg.WithFields(ctx, map[string]any{
		"transaction_id": txn.ID.String(),
		"status":         string(status),
		"path":           path,
	})

	applied, err := s.txns.RecordOutcome(ctx, txn.ID, status)
	if err != nil {
		return nil, err
	}
	txn.Status = status
	if applied {
		s.metrics.IncOutcome(string(status), path)
		s.logg.Info(ctx, "payment outcome recorded")
	}

	outcome := &Outcome{Transaction: txn, Applied: applied}
	if !status.IsSuccessful() {
		return outcome, nil
	}

	if txn.Kind == enums.TransactionKindReserve {
		reservation, created, err := s.reservations.Reserve(ctx, txn.UserID, txn.HouseID)
		if err != nil {
			if typed := pkgerrors.As(err); typed != nil && typed.Code() == pkgerrors.CodeConflict {
				outcome.ReserveConflict = true
				s.metrics.IncReservationConflict()
				s.logg.Warn(ctx, "successful payment for a house held by another user")
			} else {
				return nil, err
			}
		} else {
			outcome.Reservation = reservation
			if created {
				s.metrics.IncReservationCreated()
			}
		}
	}

	// No email when the house went to someone else: the payment settled but
	// nothing was confirmed for this user.
	if applied && !outcome.ReserveConflict {
		s.sendConfirmation(ctx, txn)
	}
	return outcome, nil
}

// sendConfirmation is best-effort: failures are logged and counted, never
// propagated.
func (s *service) sendConfirmation(ctx context.Context, txn *models.Transaction) {
	user, err := s.userRepo.FindByID(ctx, txn.UserID)
	if err != nil {
		s.metrics.IncNotificationFailure()
		s.logg.Error(ctx, "confirmation skipped: user lookup failed", err)
		return
	}

	houseName := "your selected house"
	if house, err := s.houseRepo.FindByID(ctx, txn.HouseID); err == nil {
		houseName = house.Name
	}

	var subject, body string
	switch txn.Kind {
	case enums.TransactionKindReserve:
		subject = "Your house reservation is confirmed"
		body = fmt.Sprintf(
			"Hello %s,\n\nYour payment was received and %s is now reserved for you for the next 7 days.\n\nThe StudHome Team",
			user.Username, houseName,
		)
	default:
		subject = "Your house tour is booked"
		body = fmt.Sprintf(
			"Hello %s,\n\nYour payment was received and your tour of %s is booked. The landlord will contact you shortly.\n\nThe StudHome Team",
			user.Username, houseName,
		)
	}

	email := notifications.Email{
		ToEmail:  user.Email,
		ToName:   user.Username,
		Subject:  subject,
		BodyText: body,
	}
	if err := s.mailer.Send(ctx, email); err != nil {
		s.metrics.IncNotificationFailure()
		s.logg.Error(ctx, "confirmation email failed", err)
	}
}

func normalizeStatus(raw string) enums.PaymentStatus {
	return enums.PaymentStatus(strings.ToUpper(strings.TrimSpace(raw)))
}
