package reservations

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
)

// Repository defines persistence operations for reservations.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, reservation *models.Reservation) error
	DeactivateLapsed(ctx context.Context, houseID uuid.UUID, now time.Time) (int64, error)
	FindActiveByHouse(ctx context.Context, houseID uuid.UUID) (*models.Reservation, error)
	ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Reservation, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reservations repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, reservation *models.Reservation) error {
	return r.db.WithContext(ctx).Create(reservation).Error
}

// DeactivateLapsed retires active rows whose expiry has passed. There is no
// background sweep; callers run this inside the same transaction that reads
// or writes the active holder, so the partial unique index never blocks a
// legitimate re-reserve.
func (r *repository) DeactivateLapsed(ctx context.Context, houseID uuid.UUID, now time.Time) (int64, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Reservation{}).
		Where("house_id = ? AND is_active = ? AND expires_at <= ?", houseID, true, now).
		Update("is_active", false)
	return result.RowsAffected, result.Error
}

func (r *repository) FindActiveByHouse(ctx context.Context, houseID uuid.UUID) (*models.Reservation, error) {
	var reservation models.Reservation
	err := r.db.WithContext(ctx).
		Where("house_id = ? AND is_active = ?", houseID, true).
		First(&reservation).Error
	if err != nil {
		return nil, err
	}
	return &reservation, nil
}

func (r *repository) ListActiveByUser(ctx context.Context, userID uuid.UUID, now time.Time) ([]models.Reservation, error) {
	var rows []models.Reservation
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND is_active = ? AND expires_at > ?", userID, true, now).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
