package shipments

import "github.com/reparalo-app/reparalo-backend/pkg/enums"

// stepSequences fixes the ordered statuses each leg walks through. The
// workshop leg is shorter because the carrier batches local pickups straight
// into transit.
var stepSequences = map[enums.ShipmentType][]enums.ShipmentStatus{
	enums.ShipmentTypeToWorkshop: {
		enums.ShipmentStatusCreated,
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusDelivered,
	},
	enums.ShipmentTypeToCustomer: {
		enums.ShipmentStatusCreated,
		enums.ShipmentStatusPickedUp,
		enums.ShipmentStatusInTransit,
		enums.ShipmentStatusOutForDelivery,
		enums.ShipmentStatusDelivered,
	},
}

// Steps returns the ordered status sequence for a shipment type.
func Steps(shipmentType enums.ShipmentType) []enums.ShipmentStatus {
	return stepSequences[shipmentType]
}

// StepIndex returns the position of a status within a leg's sequence, or -1
// when the status does not apply to that leg.
func StepIndex(shipmentType enums.ShipmentType, status enums.ShipmentStatus) int {
	for i, step := range stepSequences[shipmentType] {
		if step == status {
			return i
		}
	}
	return -1
}

// NextStep returns the status after current for the given leg. ok is false
// when current is the final step or does not belong to the leg.
func NextStep(shipmentType enums.ShipmentType, current enums.ShipmentStatus) (enums.ShipmentStatus, bool) {
	steps := stepSequences[shipmentType]
	idx := StepIndex(shipmentType, current)
	if idx < 0 || idx+1 >= len(steps) {
		return "", false
	}
	return steps[idx+1], true
}
