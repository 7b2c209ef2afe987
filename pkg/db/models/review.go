package models

import (
	"time"

	"github.com/google/uuid"
)

// Review is a customer's rating of a workshop after a completed repair.
// One review per repair request.
type Review struct {
	ID         uuid.UUID `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID  uuid.UUID `gorm:"column:request_id;type:uuid;not null;uniqueIndex"`
	CustomerID uuid.UUID `gorm:"column:customer_id;type:uuid;not null"`
	WorkshopID uuid.UUID `gorm:"column:workshop_id;type:uuid;not null"`
	Rating     int       `gorm:"column:rating;not null"`
	Comment    *string   `gorm:"column:comment;type:text"`
	CreatedAt  time.Time `gorm:"column:created_at;autoCreateTime"`
}
