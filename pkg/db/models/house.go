package models

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/studhome/studhome-backend/pkg/enums"
)

// House is a rental listing. Media holds provider-hosted file metadata; the
// upload pipeline itself lives outside this service.
type House struct {
	ID           uuid.UUID       `gorm:"column:id;type:uuid;primaryKey"`
	Name         string          `gorm:"column:name;type:text;not null"`
	RoomType     enums.RoomType  `gorm:"column:room_type;type:text;not null;index"`
	Description  *string         `gorm:"column:description;type:text"`
	Price        decimal.Decimal `gorm:"column:price;type:numeric(10,2);not null"`
	Availability bool            `gorm:"column:availability;not null;default:true"`
	IsReserved   bool            `gorm:"column:is_reserved;not null;default:false"`
	Removed      bool            `gorm:"column:removed;not null;default:false"`
	Lat          float64         `gorm:"column:lat;not null"`
	Lng          float64         `gorm:"column:lng;not null"`
	Media        json.RawMessage `gorm:"column:media;type:jsonb"`
	CreatedAt    time.Time       `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt    time.Time       `gorm:"column:updated_at;autoUpdateTime"`
}
