package houses

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
)

// ListFilter narrows the public house listing.
type ListFilter struct {
	RoomType      *enums.RoomType
	OnlyAvailable bool
}

// Repository defines persistence operations for house listings.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, house *models.House) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.House, error)
	List(ctx context.Context, filter ListFilter) ([]models.House, error)
	Update(ctx context.Context, house *models.House) error
	SetReserved(ctx context.Context, id uuid.UUID, reserved bool) error
}

type repository struct {
	db *gorm.DB
}

// NewRepository builds a houses repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, house *models.House) error {
	return r.db.WithContext(ctx).Create(house).Error
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.House, error) {
	var house models.House
	err := r.db.WithContext(ctx).
		Where("id = ? AND removed = ?", id, false).
		First(&house).Error
	if err != nil {
		return nil, err
	}
	return &house, nil
}

func (r *repository) List(ctx context.Context, filter ListFilter) ([]models.House, error) {
	query := r.db.WithContext(ctx).Where("removed = ?", false)
	if filter.RoomType != nil {
		query = query.Where("room_type = ?", *filter.RoomType)
	}
	if filter.OnlyAvailable {
		query = query.Where("availability = ? AND is_reserved = ?", true, false)
	}

	var houses []models.House
	if err := query.Order("created_at DESC").Find(&houses).Error; err != nil {
		return nil, err
	}
	return houses, nil
}

func (r *repository) Update(ctx context.Context, house *models.House) error {
	return r.db.WithContext(ctx).Save(house).Error
}

func (r *repository) SetReserved(ctx context.Context, id uuid.UUID, reserved bool) error {
	return r.db.WithContext(ctx).
		Model(&models.House{}).
		Where("id = ?", id).
		Update("is_reserved", reserved).Error
}
