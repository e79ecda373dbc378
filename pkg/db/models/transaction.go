package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/pkg/enums"
)

// Transaction records one payment attempt through the mobile-money gateway.
// PaymentReference stays nil until the gateway acknowledges the collect; Status
// holds the gateway vocabulary verbatim once an outcome is reported.
type Transaction struct {
	ID               uuid.UUID             `gorm:"column:id;type:uuid;primaryKey"`
	UserID           uuid.UUID             `gorm:"column:user_id;type:uuid;not null;index"`
	HouseID          uuid.UUID             `gorm:"column:house_id;type:uuid;not null;index"`
	Amount           decimal.Decimal       `gorm:"column:amount;type:numeric(10,2);not null"`
	Kind             enums.TransactionKind `gorm:"column:kind;type:text;not null"`
	PaymentReference *string               `gorm:"column:payment_reference;type:text;uniqueIndex"`
	Status           enums.PaymentStatus   `gorm:"column:status;type:text;not null;default:'PENDING'"`
	CreatedAt        time.Time             `gorm:"column:created_at;autoCreateTime;index"`
	UpdatedAt        time.Time             `gorm:"column:updated_at;autoUpdateTime"`
}
