package reservations

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/studhome/studhome-backend/internal/houses"
	"github.com/studhome/studhome-backend/pkg/db"
	"github.com/studhome/studhome-backend/pkg/db/models"
	pkgerrors "github.com/studhome/studhome-backend/pkg/errors"
)

// HoldDuration is how long a successful reserve payment holds a house.
const HoldDuration = 7 * 24 * time.Hour

const activeIndexName = "reservations_one_active_per_house"

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

// Service grants and reads exclusive house holds.
type Service interface {
	Reserve(ctx context.Context, userID, houseID uuid.UUID) (*models.Reservation, bool, error)
	ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error)
	ActiveHolder(ctx context.Context, houseID uuid.UUID) (*models.Reservation, error)
}

type service struct {
	tx        txRunner
	repo      Repository
	houseRepo houses.Repository
	now       func() time.Time
}

// NewService builds the reservations service.
func NewService(tx txRunner, repo Repository, houseRepo houses.Repository) (Service, error) {
	if tx == nil {
		return nil, fmt.Errorf("tx runner required")
	}
	if repo == nil {
		return nil, fmt.Errorf("reservations repository required")
	}
	if houseRepo == nil {
		return nil, fmt.Errorf("houses repository required")
	}
	return &service{
		tx:        tx,
		repo:      repo,
		houseRepo: houseRepo,
		now:       time.Now,
	}, nil
}

// Reserve grants the house to the user for HoldDuration. The check-then-create
// runs inside one transaction: lapsed holds are retired, the current holder is
// read, and only then is a new row inserted. A repeat call by the current
// holder is a no-op returning the existing reservation; a call while another
// user holds the house fails with a conflict. The partial unique index on
// (house_id) WHERE is_active backs the same invariant against concurrent
// commits.
func (s *service) Reserve(ctx context.Context, userID, houseID uuid.UUID) (*models.Reservation, bool, error) {
	if userID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	if houseID == uuid.Nil {
		return nil, false, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}

	now := s.now()
	var (
		reservation *models.Reservation
		created     bool
	)
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		houseRepo := s.houseRepo.WithTx(tx)

		if _, err := repo.DeactivateLapsed(ctx, houseID, now); err != nil {
			return fmt.Errorf("retiring lapsed holds: %w", err)
		}

		holder, err := repo.FindActiveByHouse(ctx, houseID)
		if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
			return err
		}
		if holder != nil {
			if holder.UserID == userID {
				reservation = holder
				return nil
			}
			return pkgerrors.New(pkgerrors.CodeConflict, "house is already reserved by another user")
		}

		fresh := &models.Reservation{
			ID:        uuid.New(),
			UserID:    userID,
			HouseID:   houseID,
			ExpiresAt: now.Add(HoldDuration),
			IsActive:  true,
		}
		if err := repo.Create(ctx, fresh); err != nil {
			return err
		}
		if err := houseRepo.SetReserved(ctx, houseID, true); err != nil {
			return err
		}
		reservation = fresh
		created = true
		return nil
	})
	if err != nil {
		// A concurrent commit can win the insert race; the partial unique
		// index reports it. Re-read the holder to tell the same user's
		// double-apply (poll and webhook racing on one reference) from a
		// house that genuinely went to someone else.
		if db.IsUniqueViolation(err, activeIndexName) {
			holder, readErr := s.repo.FindActiveByHouse(ctx, houseID)
			if readErr == nil && holder != nil && holder.UserID == userID && holder.ActiveAt(now) {
				return holder, false, nil
			}
			return nil, false, pkgerrors.New(pkgerrors.CodeConflict, "house is already reserved by another user")
		}
		return nil, false, err
	}
	return reservation, created, nil
}

func (s *service) ListForUser(ctx context.Context, userID uuid.UUID) ([]models.Reservation, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "user id is required")
	}
	return s.repo.ListActiveByUser(ctx, userID, s.now())
}

// ActiveHolder returns the unexpired hold on a house, or nil when none exists.
func (s *service) ActiveHolder(ctx context.Context, houseID uuid.UUID) (*models.Reservation, error) {
	if houseID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "house id is required")
	}
	holder, err := s.repo.FindActiveByHouse(ctx, houseID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	if !holder.ActiveAt(s.now()) {
		return nil, nil
	}
	return holder, nil
}
