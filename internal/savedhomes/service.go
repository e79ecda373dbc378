package savedhomes

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/pkg/db"
	"github.com/studhome/studhome-backend/pkg/db/models"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

const uniqueConstraintName = "saved_homes_user_house"

// Service manages per-user house bookmarks.
type Service interface {
	Save(ctx context.Context, userID, houseID uuid.UUID) (*models.SavedHome, error)
	Unsave(ctx context.Context, userID, houseID uuid.UUID) error
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.SavedHome, error)
}

type service struct {
	repo   Repository
	houses houses.Service
}

// NewService wires the saved-homes service.
func NewService(repo Repository, houseSvc houses.Service) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("saved-homes repository required")
	}
	if houseSvc == nil {
		return nil, fmt.Errorf("houses service required")
	}
	return &service{repo: repo, houses: houseSvc}, nil
}

// Save bookmarks the house. Saving the same house twice is a no-op returning
// the existing bookmark.
func (s *service) Save(ctx context.Context, userID, houseID uuid.UUID) (*models.SavedHome, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if _, err := s.houses.GetByID(ctx, houseID); err != nil {
		return nil, err
	}

	saved := &models.SavedHome{
		ID:      uuid.New(),
		UserID:  userID,
		HouseID: houseID,
	}
	if err := s.repo.Create(ctx, saved); err != nil {
		if db.IsUniqueViolation(err, uniqueConstraintName) {
			return s.repo.FindByUserAndHouse(ctx, userID, houseID)
		}
		return nil, err
	}
	return saved, nil
}

func (s *service) Unsave(ctx context.Context, userID, houseID uuid.UUID) error {
	if userID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if houseID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	deleted, err := s.repo.DeleteByUserAndHouse(ctx, userID, houseID)
	if err != nil {
		return err
	}
	if deleted == 0 {
		return pkgerrors.New(pkgerrors.CodeNotFound, "saved home not found")
	}
	return nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.SavedHome, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	rows, err := s.repo.ListByUser(ctx, userID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return rows, nil
}
