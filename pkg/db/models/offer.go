package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Offer is a workshop's bid on a repair request. Amounts are EUR.
type Offer struct {
	ID               uuid.UUID         `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID        uuid.UUID         `gorm:"column:request_id;type:uuid;not null"`
	WorkshopID       uuid.UUID         `gorm:"column:workshop_id;type:uuid;not null"`
	EstimatedCostMin decimal.Decimal   `gorm:"column:estimated_cost_min;type:numeric(10,2);not null"`
	EstimatedCostMax decimal.Decimal   `gorm:"column:estimated_cost_max;type:numeric(10,2);not null"`
	DiagnosisCost    decimal.Decimal   `gorm:"column:diagnosis_cost;type:numeric(10,2);not null"`
	TransportCost    decimal.Decimal   `gorm:"column:transport_cost;type:numeric(10,2);not null;default:0"`
	EstimatedDays    int               `gorm:"column:estimated_days;not null"`
	Message          *string           `gorm:"column:message;type:text"`
	Status           enums.OfferStatus `gorm:"column:status;type:offer_status;not null;default:'pendiente'"`
	FinalQuote       *decimal.Decimal  `gorm:"column:final_quote;type:numeric(10,2)"`
	CreatedAt        time.Time         `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt        time.Time         `gorm:"column:updated_at;autoUpdateTime"`
}
