package negotiation

import (
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// MaxRounds bounds how many counter-offers a customer may open per request.
const MaxRounds = 3

// ProposeInput captures one new negotiation round. Customers counter the
// workshop's price; workshops counter the customer's pending proposal.
type ProposeInput struct {
	RequestID   uuid.UUID
	OfferID     uuid.UUID
	Amount      decimal.Decimal
	Message     *string
	ActorUserID uuid.UUID
	ActorRole   enums.AppRole
}

// ResolveInput carries the accept/reject decision on a pending counter.
type ResolveInput struct {
	CounterOfferID uuid.UUID
	Accept         bool
	ActorUserID    uuid.UUID
	ActorRole      enums.AppRole
}
