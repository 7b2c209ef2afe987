package models

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// CounterOffer is one round of price negotiation over an offer's quote.
// Rows are append-only; resolution flips Status, never rewrites Amount.
type CounterOffer struct {
	ID         uuid.UUID                `gorm:"column:id;type:uuid;default:gen_random_uuid();primaryKey"`
	RequestID  uuid.UUID                `gorm:"column:request_id;type:uuid;not null"`
	OfferID    uuid.UUID                `gorm:"column:offer_id;type:uuid;not null"`
	Amount     decimal.Decimal          `gorm:"column:amount;type:numeric(10,2);not null"`
	ProposedBy enums.ProposerRole       `gorm:"column:proposed_by;type:proposer_role;not null"`
	Status     enums.CounterOfferStatus `gorm:"column:status;type:counter_offer_status;not null;default:'pending'"`
	Message    *string                  `gorm:"column:message;type:text"`
	CreatedAt  time.Time                `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt  time.Time                `gorm:"column:updated_at;autoUpdateTime"`
}
