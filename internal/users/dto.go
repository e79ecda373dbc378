package users

import (
	"time"

	"github.com/google/uuid"

	"github.com/studhome/studhome-backend/pkg/db/models"
)

// Profile is the public view of a user returned by the API.
type Profile struct {
	ID          uuid.UUID  `json:"id"`
	Username    string     `json:"username"`
	Email       string     `json:"email"`
	PhoneNumber string     `json:"phone_number"`
	IsStaff     bool       `json:"is_staff"`
	LastLoginAt *time.Time `json:"last_login_at,omitempty"`
	CreatedAt   time.Time  `json:"created_at"`
}

// ToProfile maps the persistence model onto the public view.
func ToProfile(user *models.User) Profile {
	return Profile{
		ID:          user.ID,
		Username:    user.Username,
		Email:       user.Email,
		PhoneNumber: user.PhoneNumber,
		IsStaff:     user.IsStaff,
		LastLoginAt: user.LastLoginAt,
		CreatedAt:   user.CreatedAt,
	}
}
