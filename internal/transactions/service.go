package transactions

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

// Service defines ledger operations over payment transactions.
type Service interface {
	CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error)
	AttachReference(ctx context.Context, id uuid.UUID, reference string) error
	RecordOutcome(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error)
	GetByReference(ctx context.Context, reference string) (*models.Transaction, error)
	GetByReferenceForUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error)
	GetSuccessful(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (*models.Transaction, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

// CreatePendingInput captures the data a new payment attempt requires.
type CreatePendingInput struct {
	UserID  uuid.UUID
	HouseID uuid.UUID
	Amount  decimal.Decimal
	Kind    enums.TransactionKind
}

type service struct {
	repo Repository
}

// NewService wires a transactions service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("transactions repository required")
	}
	return &service{repo: repo}, nil
}

// CreatePending opens a new PENDING attempt. Earlier unsettled attempts for
// the same user/house/kind are cleared first so exactly one fresh row tracks
// the new collect.
func (s *service) CreatePending(ctx context.Context, input CreatePendingInput) (*models.Transaction, error) {
	if input.UserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if input.HouseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be positive")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", input.Kind))
	}

	if _, err := s.repo.DeleteStalePending(ctx, input.UserID, input.HouseID, input.Kind); err != nil {
		return nil, fmt.Errorf("clearing stale attempts: %w", err)
	}

	txn := &models.Transaction{
		ID:      uuid.New(),
		UserID:  input.UserID,
		HouseID: input.HouseID,
		Amount:  input.Amount,
		Kind:    input.Kind,
		Status:  enums.PaymentStatusPending,
	}
	if err := s.repo.Create(ctx, txn); err != nil {
		return nil, err
	}
	return txn, nil
}

func (s *service) AttachReference(ctx context.Context, id uuid.UUID, reference string) error {
	if id == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if reference == "" {
		return pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	return s.repo.SetReference(ctx, id, reference)
}

// RecordOutcome stores the gateway-reported status. The write is conditional
// on the status actually changing, so replays from the webhook and the poll
// path applying the same outcome report applied=false.
func (s *service) RecordOutcome(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (bool, error) {
	if id == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "transaction id is required")
	}
	if status == "" {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "status is required")
	}

	affected, err := s.repo.UpdateStatusIfChanged(ctx, id, status)
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (s *service) GetByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	txn, err := s.repo.FindByReference(ctx, reference)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) GetByReferenceForUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error) {
	if reference == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "payment reference is required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	txn, err := s.repo.FindByReferenceAndUser(ctx, reference, userID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "transaction not found")
		}
		return nil, err
	}
	return txn, nil
}

// GetSuccessful returns the latest settled payment of the given kind a user
// made for a house. Confirmation endpoints use it to assert payment happened.
func (s *service) GetSuccessful(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (*models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	if !kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid transaction kind %q", kind))
	}
	txn, err := s.repo.FindSuccessful(ctx, userID, houseID, kind)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, fmt.Sprintf("no successful %s payment for this house", kind))
		}
		return nil, err
	}
	return txn, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListByUser(ctx, userID)
}
