package enums

import "fmt"

// CounterOfferStatus tracks the resolution of a single counter-offer round.
type CounterOfferStatus string

const (
	CounterOfferStatusPending  CounterOfferStatus = "pending"
	CounterOfferStatusAccepted CounterOfferStatus = "accepted"
	CounterOfferStatusRejected CounterOfferStatus = "rejected"
)

var validCounterOfferStatuses = []CounterOfferStatus{
	CounterOfferStatusPending,
	CounterOfferStatusAccepted,
	CounterOfferStatusRejected,
}

// String implements fmt.Stringer.
func (c CounterOfferStatus) String() string {
	return string(c)
}

// IsValid reports whether the value is a known CounterOfferStatus.
func (c CounterOfferStatus) IsValid() bool {
	for _, candidate := range validCounterOfferStatuses {
		if candidate == c {
			return true
		}
	}
	return false
}

// ParseCounterOfferStatus converts raw input into a CounterOfferStatus.
func ParseCounterOfferStatus(value string) (CounterOfferStatus, error) {
	for _, candidate := range validCounterOfferStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid counter offer status %q", value)
}

// ProposerRole identifies which side of the negotiation authored a counter-offer.
type ProposerRole string

const (
	ProposerCustomer ProposerRole = "customer"
	ProposerWorkshop ProposerRole = "workshop"
)

var validProposerRoles = []ProposerRole{
	ProposerCustomer,
	ProposerWorkshop,
}

// String implements fmt.Stringer.
func (p ProposerRole) String() string {
	return string(p)
}

// IsValid reports whether the value is a known ProposerRole.
func (p ProposerRole) IsValid() bool {
	for _, candidate := range validProposerRoles {
		if candidate == p {
			return true
		}
	}
	return false
}

// Opposite returns the other side of the negotiation.
func (p ProposerRole) Opposite() ProposerRole {
	if p == ProposerCustomer {
		return ProposerWorkshop
	}
	return ProposerCustomer
}

// ParseProposerRole converts raw input into a ProposerRole.
func ParseProposerRole(value string) (ProposerRole, error) {
	for _, candidate := range validProposerRoles {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid proposer role %q", value)
}
