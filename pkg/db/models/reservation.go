package models

import (
	"time"

	"github.com/google/uuid"
)

// Reservation is an exclusive, time-bounded claim on a house. A reservation is
// "active" when IsActive is set and ExpiresAt is in the future; the partial
// unique index reservations_one_active_per_house (house_id WHERE is_active)
// backs the one-active-holder-per-house invariant.
type Reservation struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;index"`
	HouseID   uuid.UUID `gorm:"column:house_id;type:uuid;not null;index"`
	ExpiresAt time.Time `gorm:"column:expires_at;not null"`
	IsActive  bool      `gorm:"column:is_active;not null;default:true"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}

// ActiveAt reports whether the reservation still holds the house at the given
// instant. Expiry is a derived read-time condition, not a background sweep.
func (r Reservation) ActiveAt(now time.Time) bool {
	return r.IsActive && r.ExpiresAt.After(now)
}
