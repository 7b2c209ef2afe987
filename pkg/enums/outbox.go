package enums

import "fmt"

// OutboxAggregateType maps to the aggregate_type enum in Postgres.
type OutboxAggregateType string

const (
	AggregateRepairRequest OutboxAggregateType = "repair_request"
	AggregateOffer         OutboxAggregateType = "offer"
	AggregateCounterOffer  OutboxAggregateType = "counter_offer"
	AggregateShipment      OutboxAggregateType = "shipment"
	AggregateMessage       OutboxAggregateType = "message"
	AggregateReview        OutboxAggregateType = "review"
)

var validAggregateTypes = []OutboxAggregateType{
	AggregateRepairRequest,
	AggregateOffer,
	AggregateCounterOffer,
	AggregateShipment,
	AggregateMessage,
	AggregateReview,
}

// IsValid reports whether the value matches the canonical aggregate_type enum.
func (a OutboxAggregateType) IsValid() bool {
	for _, candidate := range validAggregateTypes {
		if candidate == a {
			return true
		}
	}
	return false
}

// ParseOutboxAggregateType converts raw input into OutboxAggregateType.
func ParseOutboxAggregateType(value string) (OutboxAggregateType, error) {
	for _, candidate := range validAggregateTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid aggregate type %q", value)
}

// OutboxEventType maps to the event_type enum in Postgres.
type OutboxEventType string

const (
	EventRequestCreated       OutboxEventType = "request_created"
	EventRequestStatusChanged OutboxEventType = "request_status_changed"
	EventOfferSubmitted       OutboxEventType = "offer_submitted"
	EventOfferAccepted        OutboxEventType = "offer_accepted"
	EventCounterOfferProposed OutboxEventType = "counter_offer_proposed"
	EventCounterOfferResolved OutboxEventType = "counter_offer_resolved"
	EventFinalQuoteSubmitted  OutboxEventType = "final_quote_submitted"
	EventShipmentUpdated      OutboxEventType = "shipment_updated"
	EventMessageSent          OutboxEventType = "message_sent"
	EventReviewSubmitted      OutboxEventType = "review_submitted"
)

var validOutboxEventTypes = []OutboxEventType{
	EventRequestCreated,
	EventRequestStatusChanged,
	EventOfferSubmitted,
	EventOfferAccepted,
	EventCounterOfferProposed,
	EventCounterOfferResolved,
	EventFinalQuoteSubmitted,
	EventShipmentUpdated,
	EventMessageSent,
	EventReviewSubmitted,
}

// IsValid reports whether the value matches the canonical event_type enum.
func (e OutboxEventType) IsValid() bool {
	for _, candidate := range validOutboxEventTypes {
		if candidate == e {
			return true
		}
	}
	return false
}

// ParseOutboxEventType converts raw input into OutboxEventType.
func ParseOutboxEventType(value string) (OutboxEventType, error) {
	for _, candidate := range validOutboxEventTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid event type %q", value)
}
