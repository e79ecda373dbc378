package transactions

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
)

// Repository defines persistence operations for payment transactions.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, txn *models.Transaction) error
	DeleteStalePending(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (int64, error)
	SetReference(ctx context.Context, id uuid.UUID, reference string) error
	UpdateStatusIfChanged(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error)
	FindByReference(ctx context.Context, reference string) (*models.Transaction, error)
	FindByReferenceAndUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error)
	FindSuccessful(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (*models.Transaction, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a transactions repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, txn *models.Transaction) error {
	return r.db.WithContext(ctx).Create(txn).Error
}

// DeleteStalePending clears unsettled attempts for the same user/house/kind
// before a new one is opened: the referenced attempt the user is superseding
// and any unreferenced rows whose gateway call never went through. A late
// outcome for a superseded reference then resolves to no transaction.
func (r *repository) DeleteStalePending(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND house_id = ? AND kind = ? AND status = ?",
			userID, houseID, kind, enums.PaymentStatusPending).
		Delete(&models.Transaction{})
	return result.RowsAffected, result.Error
}

func (r *repository) SetReference(ctx context.Context, id uuid.UUID, reference string) error {
	return r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ?", id).
		Update("payment_reference", reference).Error
}

// UpdateStatusIfChanged flips the status only when it differs from the stored
// value. The returned row count is the idempotency signal: zero means the same
// outcome was already applied.
func (r *repository) UpdateStatusIfChanged(ctx context.Context, id uuid.UUID, status enums.PaymentStatus) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Transaction{}).
		Where("id = ? AND status <> ?", id, status).
		Update("status", status)
	return result.RowsAffected, result.Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).Where("id = ?", id).First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByReference(ctx context.Context, reference string) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("payment_reference = ?", reference).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindByReferenceAndUser(ctx context.Context, reference string, userID uuid.UUID) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("payment_reference = ? AND user_id = ?", reference, userID).
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) FindSuccessful(ctx context.Context, userID, houseID uuid.UUID, kind enums.TransactionKind) (*models.Transaction, error) {
	var txn models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND house_id = ? AND kind = ? AND status = ?",
			userID, houseID, kind, enums.PaymentStatusSuccessful).
		Order("created_at DESC").
		First(&txn).Error
	if err != nil {
		return nil, err
	}
	return &txn, nil
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.Transaction, error) {
	var txns []models.Transaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&txns).Error
	if err != nil {
		return nil, err
	}
	return txns, nil
}
