package savedhomes

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
)

// Repository defines persistence operations for saved homes.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, saved *models.SavedHome) error
	FindByUserAndHouse(ctx context.Context, userID, houseID uuid.UUID) (*models.SavedHome, error)
	DeleteByUserAndHouse(ctx context.Context, userID, houseID uuid.UUID) (int64, error)
	ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedHome, error)
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a saved-homes repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, saved *models.SavedHome) error {
	return r.db.WithContext(ctx).Create(saved).Error
}

func (r *repository) FindByUserAndHouse(ctx context.Context, userID, houseID uuid.UUID) (*models.SavedHome, error) {
	var saved models.SavedHome
	err := r.db.WithContext(ctx).
		Where("user_id = ? AND house_id = ?", userID, houseID).
		First(&saved).Error
	if err != nil {
		return nil, err
	}
	return &saved, nil
}

func (r *repository) DeleteByUserAndHouse(ctx context.Context, userID, houseID uuid.UUID) (int64, error) {
	result := r.db.WithContext(ctx).
		Where("user_id = ? AND house_id = ?", userID, houseID).
		Delete(&models.SavedHome{})
	return result.RowsAffected, result.Error
}

func (r *repository) ListByUser(ctx context.Context, userID uuid.UUID) ([]models.SavedHome, error) {
	var rows []models.SavedHome
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}
