package models

import (
	"time"

	"github.com/google/uuid"
)

// SavedHome bookmarks a house for a user.
type SavedHome struct {
	ID        uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID    uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex:saved_homes_user_house"`
	HouseID   uuid.UUID `gorm:"column:house_id;type:uuid;not null;uniqueIndex:saved_homes_user_house"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime"`
}
