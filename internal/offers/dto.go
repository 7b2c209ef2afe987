package offers

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// SubmitInput captures the fields a workshop sends when bidding on a request.
type SubmitInput struct {
	RequestID        uuid.UUID
	WorkshopID       uuid.UUID
	EstimatedCostMin decimal.Decimal
	EstimatedCostMax decimal.Decimal
	DiagnosisCost    decimal.Decimal
	TransportCost    decimal.Decimal
	EstimatedDays    int
	Message          *string
}

// AcceptInput identifies the offer a customer selects.
type AcceptInput struct {
	OfferID     uuid.UUID
	ActorUserID uuid.UUID
}

// Summary exposes the aggregated fields returned in the workshop offer list.
type Summary struct {
	ID               uuid.UUID          `json:"id"`
	RequestID        uuid.UUID          `json:"request_id"`
	EstimatedCostMin decimal.Decimal    `json:"estimated_cost_min"`
	EstimatedCostMax decimal.Decimal    `json:"estimated_cost_max"`
	EstimatedDays    int                `json:"estimated_days"`
	Status           enums.OfferStatus  `json:"status"`
	RequestStatus    enums.RepairStatus `json:"request_status"`
	DeviceBrand      string             `json:"device_brand"`
	DeviceModel      string             `json:"device_model"`
	CreatedAt        time.Time          `json:"created_at"`
}

// OfferList wraps the paginated offers plus the next page cursor.
type OfferList struct {
	Offers     []Summary `json:"offers"`
	NextCursor string    `json:"next_cursor,omitempty"`
}
