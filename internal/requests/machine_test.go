package requests

import (
	"testing"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

func TestAllowedHappyPath(t *testing.T) {
	steps := []struct {
		from  enums.RepairStatus
		to    enums.RepairStatus
		actor enums.AppRole
	}{
		{enums.RepairStatusWaitingOffers, enums.RepairStatusOfferSelected, enums.AppRoleCustomer},
		{enums.RepairStatusOfferSelected, enums.RepairStatusInTransitToShop, enums.AppRoleCustomer},
		{enums.RepairStatusInTransitToShop, enums.RepairStatusDiagnosis, enums.AppRoleWorkshop},
		{enums.RepairStatusDiagnosis, enums.RepairStatusFinalQuote, enums.AppRoleWorkshop},
		{enums.RepairStatusFinalQuote, enums.RepairStatusRepairing, enums.AppRoleCustomer},
		{enums.RepairStatusRepairing, enums.RepairStatusRepaired, enums.AppRoleWorkshop},
		{enums.RepairStatusRepaired, enums.RepairStatusInTransitToOwner, enums.AppRoleWorkshop},
		{enums.RepairStatusInTransitToOwner, enums.RepairStatusCompleted, enums.AppRoleCustomer},
	}
	for _, step := range steps {
		if !Allowed(step.from, step.to, step.actor) {
			t.Fatalf("expected %s -> %s allowed for %s", step.from, step.to, step.actor)
		}
	}
}

func TestAllowedRejectsWrongActor(t *testing.T) {
	if Allowed(enums.RepairStatusInTransitToShop, enums.RepairStatusDiagnosis, enums.AppRoleCustomer) {
		t.Fatal("customer must not confirm workshop receipt")
	}
	if Allowed(enums.RepairStatusFinalQuote, enums.RepairStatusRepairing, enums.AppRoleWorkshop) {
		t.Fatal("workshop must not accept its own quote")
	}
	if Allowed(enums.RepairStatusRepairing, enums.RepairStatusRepaired, enums.AppRoleCustomer) {
		t.Fatal("customer must not mark device repaired")
	}
}

func TestAllowedRejectsSkippedStates(t *testing.T) {
	if Allowed(enums.RepairStatusWaitingOffers, enums.RepairStatusRepairing, enums.AppRoleCustomer) {
		t.Fatal("lifecycle must not skip intermediate states")
	}
	if Allowed(enums.RepairStatusDiagnosis, enums.RepairStatusCompleted, enums.AppRoleWorkshop) {
		t.Fatal("lifecycle must not skip intermediate states")
	}
}

func TestTerminalStatesHaveNoExits(t *testing.T) {
	for _, terminal := range []enums.RepairStatus{enums.RepairStatusCompleted, enums.RepairStatusCanceled} {
		for _, actor := range []enums.AppRole{enums.AppRoleCustomer, enums.AppRoleWorkshop} {
			if next := NextStatuses(terminal, actor); len(next) != 0 {
				t.Fatalf("terminal status %s has exits %v for %s", terminal, next, actor)
			}
		}
	}
}

func TestNegotiatingExits(t *testing.T) {
	next := NextStatuses(enums.RepairStatusNegotiating, enums.AppRoleWorkshop)
	want := map[enums.RepairStatus]bool{
		enums.RepairStatusOfferSelected: false,
		enums.RepairStatusCanceled:      false,
	}
	for _, status := range next {
		if _, ok := want[status]; !ok {
			t.Fatalf("unexpected exit %s from negotiating", status)
		}
		want[status] = true
	}
	for status, seen := range want {
		if !seen {
			t.Fatalf("missing exit %s from negotiating", status)
		}
	}
}
