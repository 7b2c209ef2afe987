package payloads

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// RequestCreatedEvent signals a new repair request entering the marketplace.
type RequestCreatedEvent struct {
	RequestID   uuid.UUID        `json:"request_id"`
	CustomerID  uuid.UUID        `json:"customer_id"`
	DeviceBrand string           `json:"device_brand"`
	DeviceModel string           `json:"device_model"`
	DeviceType  enums.DeviceType `json:"device_type"`
	City        string           `json:"city"`
}

// RequestStatusChangedEvent is emitted on every lifecycle transition.
type RequestStatusChangedEvent struct {
	RequestID  uuid.UUID          `json:"request_id"`
	CustomerID uuid.UUID          `json:"customer_id"`
	WorkshopID *uuid.UUID         `json:"workshop_id,omitempty"`
	FromStatus enums.RepairStatus `json:"from_status"`
	ToStatus   enums.RepairStatus `json:"to_status"`
}

// OfferSubmittedEvent signals a new workshop offer on an open request.
type OfferSubmittedEvent struct {
	OfferID    uuid.UUID       `json:"offer_id"`
	RequestID  uuid.UUID       `json:"request_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	WorkshopID uuid.UUID       `json:"workshop_id"`
	CostMin    decimal.Decimal `json:"cost_min"`
	CostMax    decimal.Decimal `json:"cost_max"`
}

// OfferAcceptedEvent is emitted when a customer selects an offer. Sibling
// offers are already rejected by the time this event is visible.
type OfferAcceptedEvent struct {
	OfferID          uuid.UUID   `json:"offer_id"`
	RequestID        uuid.UUID   `json:"request_id"`
	CustomerID       uuid.UUID   `json:"customer_id"`
	WorkshopID       uuid.UUID   `json:"workshop_id"`
	RejectedOfferIDs []uuid.UUID `json:"rejected_offer_ids,omitempty"`
}

// CounterOfferProposedEvent carries one new negotiation round.
type CounterOfferProposedEvent struct {
	CounterOfferID uuid.UUID          `json:"counter_offer_id"`
	RequestID      uuid.UUID          `json:"request_id"`
	OfferID        uuid.UUID          `json:"offer_id"`
	CustomerID     uuid.UUID          `json:"customer_id"`
	WorkshopID     uuid.UUID          `json:"workshop_id"`
	Amount         decimal.Decimal    `json:"amount"`
	ProposedBy     enums.ProposerRole `json:"proposed_by"`
	Round          int                `json:"round"`
}

// CounterOfferResolvedEvent reports the accept/reject decision on a round.
type CounterOfferResolvedEvent struct {
	CounterOfferID uuid.UUID                `json:"counter_offer_id"`
	RequestID      uuid.UUID                `json:"request_id"`
	CustomerID     uuid.UUID                `json:"customer_id"`
	WorkshopID     uuid.UUID                `json:"workshop_id"`
	Resolution     enums.CounterOfferStatus `json:"resolution"`
	Amount         decimal.Decimal          `json:"amount"`
	Exhausted      bool                     `json:"exhausted"`
}

// FinalQuoteSubmittedEvent is emitted after diagnosis when the workshop
// publishes the binding price.
type FinalQuoteSubmittedEvent struct {
	OfferID    uuid.UUID       `json:"offer_id"`
	RequestID  uuid.UUID       `json:"request_id"`
	CustomerID uuid.UUID       `json:"customer_id"`
	WorkshopID uuid.UUID       `json:"workshop_id"`
	FinalQuote decimal.Decimal `json:"final_quote"`
}

// ShipmentUpdatedEvent is emitted for every applied shipment status change,
// whether manual or carrier-driven.
type ShipmentUpdatedEvent struct {
	ShipmentID uuid.UUID            `json:"shipment_id"`
	RequestID  uuid.UUID            `json:"request_id"`
	CustomerID uuid.UUID            `json:"customer_id"`
	WorkshopID *uuid.UUID           `json:"workshop_id,omitempty"`
	Type       enums.ShipmentType   `json:"type"`
	Status     enums.ShipmentStatus `json:"status"`
	OccurredAt time.Time            `json:"occurred_at"`
}

// MessageSentEvent signals a new chat message so the recipient can be alerted.
type MessageSentEvent struct {
	MessageID      uuid.UUID `json:"message_id"`
	ConversationID uuid.UUID `json:"conversation_id"`
	SenderID       uuid.UUID `json:"sender_id"`
	RecipientID    uuid.UUID `json:"recipient_id"`
	Preview        string    `json:"preview"`
}

// ReviewSubmittedEvent reports a published workshop review.
type ReviewSubmittedEvent struct {
	ReviewID   uuid.UUID `json:"review_id"`
	RequestID  uuid.UUID `json:"request_id"`
	CustomerID uuid.UUID `json:"customer_id"`
	WorkshopID uuid.UUID `json:"workshop_id"`
	Rating     int       `json:"rating"`
}
