package enums

import "fmt"

// ShipmentType distinguishes the two legs of a repair: device to the workshop
// and device back to the customer.
type ShipmentType string

const (
	ShipmentTypeToWorkshop ShipmentType = "to_workshop"
	ShipmentTypeToCustomer ShipmentType = "to_customer"
)

var validShipmentTypes = []ShipmentType{
	ShipmentTypeToWorkshop,
	ShipmentTypeToCustomer,
}

// String implements fmt.Stringer.
func (s ShipmentType) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentType.
func (s ShipmentType) IsValid() bool {
	for _, candidate := range validShipmentTypes {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentType converts raw input into a ShipmentType.
func ParseShipmentType(value string) (ShipmentType, error) {
	for _, candidate := range validShipmentTypes {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment type %q", value)
}

// ShipmentStatus maps to the shipment_status enum in Postgres. Not every
// status applies to both legs; the per-type step sequence lives in
// internal/shipments.
type ShipmentStatus string

const (
	ShipmentStatusCreated        ShipmentStatus = "created"
	ShipmentStatusPickedUp       ShipmentStatus = "picked_up"
	ShipmentStatusInTransit      ShipmentStatus = "in_transit"
	ShipmentStatusOutForDelivery ShipmentStatus = "out_for_delivery"
	ShipmentStatusDelivered      ShipmentStatus = "delivered"
)

var validShipmentStatuses = []ShipmentStatus{
	ShipmentStatusCreated,
	ShipmentStatusPickedUp,
	ShipmentStatusInTransit,
	ShipmentStatusOutForDelivery,
	ShipmentStatusDelivered,
}

// String implements fmt.Stringer.
func (s ShipmentStatus) String() string {
	return string(s)
}

// IsValid reports whether the value is a known ShipmentStatus.
func (s ShipmentStatus) IsValid() bool {
	for _, candidate := range validShipmentStatuses {
		if candidate == s {
			return true
		}
	}
	return false
}

// ParseShipmentStatus converts raw input into a ShipmentStatus.
func ParseShipmentStatus(value string) (ShipmentStatus, error) {
	for _, candidate := range validShipmentStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid shipment status %q", value)
}
