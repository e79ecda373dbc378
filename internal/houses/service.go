package houses

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/pkg/db/models"
	"github.com/studhome/studhome-backend/pkg/enums"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

// Service defines house listing operations.
type Service interface {
	Create(ctx context.Context, input CreateHouseInput) (*models.House, error)
	GetByID(ctx context.Context, id uuid.UUID) (*models.House, error)
	List(ctx context.Context, filter ListFilter) ([]models.House, error)
	Update(ctx context.Context, id uuid.UUID, input UpdateHouseInput) (*models.House, error)
	Remove(ctx context.Context, id uuid.UUID) error
}

// CreateHouseInput captures the data a new listing requires.
type CreateHouseInput struct {
	Name         string
	RoomType     enums.RoomType
	Description  *string
	Price        decimal.Decimal
	Availability bool
	Lat          float64
	Lng          float64
	Media        json.RawMessage
}

// UpdateHouseInput carries optional field updates; nil means unchanged.
type UpdateHouseInput struct {
	Name         *string
	RoomType     *enums.RoomType
	Description  *string
	Price        *decimal.Decimal
	Availability *bool
	Lat          *float64
	Lng          *float64
	Media        json.RawMessage
}

type service struct {
	repo Repository
}

// NewService wires a houses service with the provided repository.
func NewService(repo Repository) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("houses repository required")
	}
	return &service{repo: repo}, nil
}

func (s *service) Create(ctx context.Context, input CreateHouseInput) (*models.House, error) {
	if input.Name == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house name is required")
	}
	if !input.RoomType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid room type %q", input.RoomType))
	}
	if !input.Price.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
	}
	if err := validateCoordinates(input.Lat, input.Lng); err != nil {
		return nil, err
	}

	house := &models.House{
		ID:           uuid.New(),
		Name:         input.Name,
		RoomType:     input.RoomType,
		Description:  input.Description,
		Price:        input.Price,
		Availability: input.Availability,
		Lat:          input.Lat,
		Lng:          input.Lng,
		Media:        input.Media,
	}
	if err := s.repo.Create(ctx, house); err != nil {
		return nil, err
	}
	return house, nil
}

func (s *service) GetByID(ctx context.Context, id uuid.UUID) (*models.House, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	house, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "house not found")
		}
		return nil, err
	}
	return house, nil
}

func (s *service) List(ctx context.Context, filter ListFilter) ([]models.House, error) {
	return s.repo.List(ctx, filter)
}

func (s *service) Update(ctx context.Context, id uuid.UUID, input UpdateHouseInput) (*models.House, error) {
	house, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if input.Name != nil {
		if *input.Name == "" {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "house name cannot be empty")
		}
		house.Name = *input.Name
	}
	if input.RoomType != nil {
		if !input.RoomType.IsValid() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("invalid room type %q", *input.RoomType))
		}
		house.RoomType = *input.RoomType
	}
	if input.Description != nil {
		house.Description = input.Description
	}
	if input.Price != nil {
		if !input.Price.IsPositive() {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "price must be positive")
		}
		house.Price = *input.Price
	}
	if input.Availability != nil {
		house.Availability = *input.Availability
	}
	if input.Lat != nil || input.Lng != nil {
		lat, lng := house.Lat, house.Lng
		if input.Lat != nil {
			lat = *input.Lat
		}
		if input.Lng != nil {
			lng = *input.Lng
		}
		if err := validateCoordinates(lat, lng); err != nil {
			return nil, err
		}
		house.Lat, house.Lng = lat, lng
	}
	if input.Media != nil {
		house.Media = input.Media
	}

	if err := s.repo.Update(ctx, house); err != nil {
		return nil, err
	}
	return house, nil
}

// Remove soft-deletes the listing. Existing transactions and reservations keep
// their foreign keys; the house just stops appearing in listings.
func (s *service) Remove(ctx context.Context, id uuid.UUID) error {
	house, err := s.GetByID(ctx, id)
	if err != nil {
		return err
	}
	house.Removed = true
	house.Availability = false
	return s.repo.Update(ctx, house)
}

func validateCoordinates(lat, lng float64) error {
	if lat < -90 || lat > 90 {
		return pkgerrors.New(pkgerrors.CodeValidation, "latitude must be between -90 and 90")
	}
	if lng < -180 || lng > 180 {
		return pkgerrors.New(pkgerrors.CodeValidation, "longitude must be between -180 and 180")
	}
	return nil
}
