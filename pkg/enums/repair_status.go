package enums

import "fmt"

// RepairStatus tracks the lifecycle of a repair request. Values are the
// canonical Spanish wire strings stored in the repair_status enum in Postgres.
type RepairStatus string

const (
	RepairStatusWaitingOffers    RepairStatus = "esperando_ofertas"
	RepairStatusOfferSelected    RepairStatus = "oferta_seleccionada"
	RepairStatusInTransitToShop  RepairStatus = "en_camino_taller"
	RepairStatusDiagnosis        RepairStatus = "diagnostico"
	RepairStatusFinalQuote       RepairStatus = "presupuesto_final"
	RepairStatusNegotiating      RepairStatus = "negociando"
	RepairStatusRepairing        RepairStatus = "en_reparacion"
	RepairStatusRepaired         RepairStatus = "reparado"
	RepairStatusInTransitToOwner RepairStatus = "en_camino_cliente"
	RepairStatusCompleted        RepairStatus = "completado"
	RepairStatusCanceled         RepairStatus = "cancelado"
)

var validRepairStatuses = []RepairStatus{
	RepairStatusWaitingOffers,
	RepairStatusOfferSelected,
	RepairStatusInTransitToShop,
	RepairStatusDiagnosis,
	RepairStatusFinalQuote,
	RepairStatusNegotiating,
	RepairStatusRepairing,
	RepairStatusRepaired,
	RepairStatusInTransitToOwner,
	RepairStatusCompleted,
	RepairStatusCanceled,
}

// String implements fmt.Stringer.
func (r RepairStatus) String() string {
	return string(r)
}

// IsValid reports whether the value is a known RepairStatus.
func (r RepairStatus) IsValid() bool {
	for _, candidate := range validRepairStatuses {
		if candidate == r {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions are allowed from the status.
func (r RepairStatus) IsTerminal() bool {
	return r == RepairStatusCompleted || r == RepairStatusCanceled
}

// ParseRepairStatus converts raw input into a RepairStatus.
func ParseRepairStatus(value string) (RepairStatus, error) {
	for _, candidate := range validRepairStatuses {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid repair status %q", value)
}
