package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Profile holds the public-facing account data. Workshop fields are nil for
// customer accounts.
type Profile struct {
	ID                  uuid.UUID        `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	UserID              uuid.UUID        `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	FullName            string           `gorm:"column:full_name;type:text;not null"`
	Phone               *string          `gorm:"column:phone;type:text"`
	City                *string          `gorm:"column:city;type:text"`
	AvatarURL           *string          `gorm:"column:avatar_url;type:text"`
	WorkshopName        *string          `gorm:"column:workshop_name;type:text"`
	WorkshopDescription *string          `gorm:"column:workshop_description;type:text"`
	Rating              *decimal.Decimal `gorm:"column:rating;type:numeric(3,2)"`
	ReviewsCount        int              `gorm:"column:reviews_count;not null;default:0"`
	CreatedAt           time.Time        `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt           time.Time        `gorm:"column:updated_at;autoUpdateTime"`
}
