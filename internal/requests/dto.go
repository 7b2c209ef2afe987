package requests

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Filters describe the inputs supported by the customer request list.
type Filters struct {
	Status   *enums.RepairStatus
	DateFrom *time.Time
	DateTo   *time.Time
}

// OpenFilters describe the inputs supported by the workshop browse list.
// Only requests still waiting for offers are returned.
type OpenFilters struct {
	City       string
	DeviceType *enums.DeviceType
}

// Summary exposes the aggregated fields returned in request lists.
type Summary struct {
	ID              uuid.UUID          `json:"id"`
	DeviceBrand     string             `json:"device_brand"`
	DeviceModel     string             `json:"device_model"`
	DeviceType      enums.DeviceType   `json:"device_type"`
	ProblemCategory *string            `json:"problem_category,omitempty"`
	City            string             `json:"city"`
	Status          enums.RepairStatus `json:"status"`
	OfferCount      int                `json:"offer_count"`
	CreatedAt       time.Time          `json:"created_at"`
}

// RequestList wraps the paginated requests plus the next page cursor.
type RequestList struct {
	Requests   []Summary `json:"requests"`
	NextCursor string    `json:"next_cursor,omitempty"`
}

// CreateInput captures the fields a customer submits when posting a device.
type CreateInput struct {
	CustomerID         uuid.UUID
	DeviceBrand        string
	DeviceModel        string
	DeviceType         enums.DeviceType
	ProblemDescription string
	ProblemCategory    *string
	City               string
	Images             []string
}

// TransitionInput carries the contextual metadata for a lifecycle move.
type TransitionInput struct {
	RequestID   uuid.UUID
	ActorUserID uuid.UUID
	ActorRole   enums.AppRole
}

// FinalQuoteInput carries the binding post-diagnosis price.
type FinalQuoteInput struct {
	TransitionInput
	Quote decimal.Decimal
}
