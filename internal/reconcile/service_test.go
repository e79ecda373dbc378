package reconcile

import (
	"context"
	"io"
	"testing"

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
)

type fakeTxns struct {
	transactions.Service
	recordOutcomeFn func(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error)
	getByRefFn      func(ctx context.Context, reference string) (*models.Transaction, error)
	getByRefUserFn  func(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error)
}

func (f *fakeTxns) RecordOutcome(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error) {
	return f.recordOutcomeFn(ctx, id, status)
}

func (f *fakeTxns) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	return f.getByRefFn(ctx, reference)
}

func (f *fakeTxns) GetByReferenceForUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error) {
	return f.getByRefUserFn(ctx, reference, userID)
}

type fakeReservations struct {
	reservations.Service
	reserveFn func(ctx context.Context, userID, houseID uuid.UUID) (*models.Reservation, bool, error)
}

func (f *fakeReservations) Reserve(ctx context.Context, userID, houseID uuid.UUID) (*models.Reservation, bool, error) {
	return f.reserveFn(ctx, userID, houseID)
}

type fakeUserRepo struct {
	users.Repository
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.User, error)
}

func (f *fakeUserRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.User, error) {
	return f.findByIDFn(ctx, id)
}

type fakeHouseRepo struct {
	houses.Repository
	findByIDFn func(ctx context.Context, id uuid.UUID) (*models.House, error)
}

func (f *fakeHouseRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.House, error) {
	return f.findByIDFn(ctx, id)
}

type fakePoller struct {
	statusFn func(ctx context.Context, reference string) (*campay.TransactionStatus, error)
}

func (f *fakePoller) GetTransactionStatus(ctx context.Context, reference string) (*campay.TransactionStatus, error) {
	return f.statusFn(ctx, reference)
}

type fakeGuard struct {
	seen      bool
	checkErr  error
	deleted   []string
	checkedID string
}

func (f *fakeGuard) CheckAndMark(_ context.Context, eventID string) (bool, error) {
	f.checkedID = eventID
	return f.seen, f.checkErr
}

func (f *fakeGuard) Delete(_ context.Context, eventID string) error {
	f.deleted = append(f.deleted, eventID)
	return nil
}

type fakeMailer struct {
	sent []notifications.Email
	err  error
}

func (f *fakeMailer) Send(_ context.Context, email notifications.Email) error {
	f.sent = append(f.sent, email)
	return f.err
}

type fixture struct {
	txns    *fakeTxns
	resv    *fakeReservations
	userRep *fakeUserRepo
	houses  *fakeHouseRepo
	poller  *fakePoller
	guard   *fakeGuard
	mailer  *fakeMailer
	svc     Service
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		txns: &fakeTxns{
			recordOutcomeFn: func(context.Context, uuid.UUID, enums.PaymentStatus) (bool, error) {
				return true, nil
			},
		},
		resv: &fakeReservations{
			reserveFn: func(_ context.Context, userID, houseID uuid.UUID) (*models.Reservation, bool, error) {
				return &models.Reservation{ID: uuid.New(), UserID: userID, HouseID: houseID, IsActive: true}, true, nil
			},
		},
		userRep: &fakeUserRepo{
			findByIDFn: func(_ context.Context, id uuid.UUID) (*models.User, error) {
				return &models.User{ID: id, Username: "amina", Email: "amina@example.com"}, nil
			},
		},
		houses: &fakeHouseRepo{
			findByIDFn: func(_ context.Context, id uuid.UUID) (*models.House, error) {
				return &models.House{ID: id, Name: "Molyko Flat"}, nil
			},
		},
		poller: &fakePoller{
			statusFn: func(_ context.Context, reference string) (*campay.TransactionStatus, error) {
				return &campay.TransactionStatus{Reference: reference, Status: "SUCCESSFUL"}, nil
			},
		},
		guard:  &fakeGuard{},
		mailer: &fakeMailer{},
	}

	logg := logger.New(logger.Options{ServiceName: "test", Output: io.Discard})
	svc, err := NewService(f.txns, f.resv, f.userRep, f.houses, f.poller, f.guard, f.mailer, nil, logg)
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	f.svc = svc
	return f
}

func reserveTxn(ref string) *models.Transaction {
	return &models.Transaction{
		ID:               uuid.New(),
		UserID:           uuid.New(),
		HouseID:          uuid.New(),
		Kind:             enums.TransactionKindReserve,
		PaymentReference: &ref,
		Status:           enums.PaymentStatusPending,
	}
}

func TestVerifyAppliesPolledOutcome(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-1")
	f.txns.getByRefUserFn = func(_ context.Context, _ string, _ uuid.UUID) (*models.Transaction, error) {
		return txn, nil
	}

	outcome, err := f.svc.Verify(context.Background(), txn.UserID, "ref-1")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !outcome.Applied {
		t.Fatal("expected outcome to be applied")
	}
	if outcome.Reservation == nil {
		t.Fatal("expected a reservation for a successful reserve payment")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected 1 confirmation email, got %d", len(f.mailer.sent))
	}
	if outcome.Transaction.Status != enums.PaymentStatusSuccessful {
		t.Fatalf("expected transaction status updated, got %q", outcome.Transaction.Status)
	}
}

func TestVerifyScopesLookupToUser(t *testing.T) {
	f := newFixture(t)
	f.txns.getByRefUserFn = func(_ context.Context, _ string, _ uuid.UUID) (*models.Transaction, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}

	_, err := f.svc.Verify(context.Background(), uuid.New(), "ref-1")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestHandleWebhookSuppressesReplay(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-2")
	f.txns.getByRefFn = func(context.Context, string) (*models.Transaction, error) {
		return txn, nil
	}
	f.guard.seen = true
	recorded := false
	f.txns.recordOutcomeFn = func(context.Context, uuid.UUID, enums.PaymentStatus) (bool, error) {
		recorded = true
		return true, nil
	}

	outcome, err := f.svc.HandleWebhook(context.Background(), "ref-2", "SUCCESSFUL")
	if err != nil {
		t.Fatalf("HandleWebhook: %v", err)
	}
	if !outcome.Replay {
		t.Fatal("expected a replay outcome")
	}
	if recorded {
		t.Fatal("expected no outcome write for a suppressed replay")
	}
	if f.guard.checkedID != "ref-2:SUCCESSFUL" {
		t.Fatalf("unexpected idempotency key %q", f.guard.checkedID)
	}
}

func TestHandleWebhookUnknownReference(t *testing.T) {
	f := newFixture(t)
	f.txns.getByRefFn = func(context.Context, string) (*models.Transaction, error) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
	}

	_, err := f.svc.HandleWebhook(context.Background(), "missing", "SUCCESSFUL")
	typed := pkgerrors.As(err)
	if typed == nil || typed.Code() != pkgerrors.CodeNotFound {
		t.Fatalf("expected not-found error, got %v", err)
	}
}

func TestHandleWebhookClearsMarkerOnFailure(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-3")
	f.txns.getByRefFn = func(context.Context, string) (*models.Transaction, error) {
		return txn, nil
	}
	f.txns.recordOutcomeFn = func(context.Context, uuid.UUID, enums.PaymentStatus) (bool, error) {
		return false, context.DeadlineExceeded
	}

	_, err := f.svc.HandleWebhook(context.Background(), "ref-3", "FAILED")
	if err == nil {
		t.Fatal("expected the apply failure to propagate")
	}
	if len(f.guard.deleted) != 1 || f.guard.deleted[0] != "ref-3:FAILED" {
		t.Fatalf("expected the idempotency marker cleared, got %v", f.guard.deleted)
	}
}

func TestApplyReserveConflictKeepsOutcome(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-4")
	f.resv.reserveFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.Reservation, bool, error) {
		return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "house is already reserved by another user")
	}

	outcome, err := f.svc.Apply(context.Background(), txn, enums.PaymentStatusSuccessful, PathWebhook)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if !outcome.ReserveConflict {
		t.Fatal("expected a reserve conflict to be reported")
	}
	if !outcome.Applied {
		t.Fatal("expected the outcome itself to stay recorded")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatal("expected no confirmation email when the house went to someone else")
	}
}

func TestApplyFailedStatusSkipsSideEffects(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-5")
	reserveCalled := false
	f.resv.reserveFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.Reservation, bool, error) {
		reserveCalled = true
		return nil, false, nil
	}

	outcome, err := f.svc.Apply(context.Background(), txn, enums.PaymentStatusFailed, PathPoll)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if reserveCalled {
		t.Fatal("expected no reservation attempt for a failed payment")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatal("expected no confirmation email for a failed payment")
	}
	if !outcome.Applied {
		t.Fatal("expected the failed outcome to be recorded")
	}
}

func TestApplyTourNeverReserves(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-6")
	txn.Kind = enums.TransactionKindTour
	reserveCalled := false
	f.resv.reserveFn = func(context.Context, uuid.UUID, uuid.UUID) (*models.Reservation, bool, error) {
		reserveCalled = true
		return nil, false, nil
	}

	outcome, err := f.svc.Apply(context.Background(), txn, enums.PaymentStatusSuccessful, PathWebhook)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if reserveCalled {
		t.Fatal("expected a tour payment to never place a hold")
	}
	if len(f.mailer.sent) != 1 {
		t.Fatalf("expected a tour confirmation email, got %d", len(f.mailer.sent))
	}
	if outcome.Reservation != nil {
		t.Fatal("expected no reservation on a tour outcome")
	}
}

func TestApplyDuplicateStillConverges(t *testing.T) {
	f := newFixture(t)
	txn := reserveTxn("ref-7")
	f.txns.recordOutcomeFn = func(context.Context, uuid.UUID, enums.PaymentStatus) (bool, error) {
		return false, nil
	}

	outcome, err := f.svc.Apply(context.Background(), txn, enums.PaymentStatusSuccessful, PathPoll)
	if err != nil {
		t.Fatalf("Apply: %v", err)
	}
	if outcome.Applied {
		t.Fatal("expected a duplicate outcome to report not applied")
	}
	if outcome.Reservation == nil {
		t.Fatal("expected the reservation to still be surfaced on replays")
	}
	if len(f.mailer.sent) != 0 {
		t.Fatal("expected no duplicate confirmation email")
	}
}
