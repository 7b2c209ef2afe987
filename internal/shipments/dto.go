package shipments

import (
	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// AdvanceInput moves a shipment one step forward by hand. Only the workshop
// that holds the device may do this, and only on the return leg.
type AdvanceInput struct {
	ShipmentID  uuid.UUID
	Location    *string
	Notes       *string
	ActorUserID uuid.UUID
	ActorRole   enums.AppRole
}
