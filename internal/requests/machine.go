package requests

import (
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// transition is one edge of the repair lifecycle graph.
type transition struct {
	from enums.RepairStatus
	to   enums.RepairStatus
}

// lifecycle is the single authoritative transition table. Every status
// mutation in the service goes through Allowed; nothing else compares
// repair statuses directly.
var lifecycle = map[transition][]enums.AppRole{
	{enums.RepairStatusWaitingOffers, enums.RepairStatusOfferSelected}: {enums.AppRoleCustomer},
	{enums.RepairStatusWaitingOffers, enums.RepairStatusNegotiating}:   {enums.AppRoleCustomer},
	{enums.RepairStatusWaitingOffers, enums.RepairStatusCanceled}:      {enums.AppRoleCustomer},

	{enums.RepairStatusOfferSelected, enums.RepairStatusInTransitToShop}: {enums.AppRoleCustomer},
	{enums.RepairStatusOfferSelected, enums.RepairStatusNegotiating}:     {enums.AppRoleCustomer},
	{enums.RepairStatusOfferSelected, enums.RepairStatusCanceled}:        {enums.AppRoleCustomer},

	{enums.RepairStatusInTransitToShop, enums.RepairStatusDiagnosis}: {enums.AppRoleWorkshop},

	{enums.RepairStatusDiagnosis, enums.RepairStatusFinalQuote}: {enums.AppRoleWorkshop},

	{enums.RepairStatusFinalQuote, enums.RepairStatusRepairing}:   {enums.AppRoleCustomer},
	{enums.RepairStatusFinalQuote, enums.RepairStatusNegotiating}: {enums.AppRoleCustomer},
	{enums.RepairStatusFinalQuote, enums.RepairStatusCanceled}:    {enums.AppRoleCustomer},

	{enums.RepairStatusNegotiating, enums.RepairStatusOfferSelected}: {enums.AppRoleCustomer, enums.AppRoleWorkshop},
	{enums.RepairStatusNegotiating, enums.RepairStatusCanceled}:      {enums.AppRoleCustomer, enums.AppRoleWorkshop},

	{enums.RepairStatusRepairing, enums.RepairStatusRepaired}: {enums.AppRoleWorkshop},

	{enums.RepairStatusRepaired, enums.RepairStatusInTransitToOwner}: {enums.AppRoleWorkshop},

	{enums.RepairStatusInTransitToOwner, enums.RepairStatusCompleted}: {enums.AppRoleCustomer},
}

// Allowed reports whether the actor role may move a request from one status
// to another. Terminal statuses have no outgoing edges.
func Allowed(from, to enums.RepairStatus, actor enums.AppRole) bool {
	roles, ok := lifecycle[transition{from: from, to: to}]
	if !ok {
		return false
	}
	for _, role := range roles {
		if role == actor {
			return true
		}
	}
	return false
}

// NextStatuses lists the statuses the actor may move a request into from the
// given status. Order is unspecified.
func NextStatuses(from enums.RepairStatus, actor enums.AppRole) []enums.RepairStatus {
	var out []enums.RepairStatus
	for edge, roles := range lifecycle {
		if edge.from != from {
			continue
		}
		for _, role := range roles {
			if role == actor {
				out = append(out, edge.to)
				break
			}
		}
	}
	return out
}
