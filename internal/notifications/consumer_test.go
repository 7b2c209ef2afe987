package notifications

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
)

func envelopeFor(t *testing.T, actor *outbox.ActorRef, data any) outbox.PayloadEnvelope {
	t.Helper()
	raw, err := json.Marshal(data)
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return outbox.PayloadEnvelope{
		Version: 1,
		EventID: uuid.NewString(),
		Actor:   actor,
		Data:    raw,
	}
}

func TestRouteOfferSubmittedNotifiesCustomer(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}
	customerID := uuid.New()

	envelope := envelopeFor(t, nil, payloads.OfferSubmittedEvent{
		OfferID:    uuid.New(),
		RequestID:  uuid.New(),
		CustomerID: customerID,
		WorkshopID: uuid.New(),
		CostMin:    decimal.NewFromInt(40),
		CostMax:    decimal.NewFromInt(90),
	})
	if err := consumer.route(context.Background(), enums.EventOfferSubmitted, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 1 {
		t.Fatalf("expected one notification got %d", len(repo.created))
	}
	created := repo.created[0]
	if created.UserID != customerID {
		t.Fatalf("expected customer recipient got %s", created.UserID)
	}
	if created.Type != enums.NotificationTypeNewOffer {
		t.Fatalf("expected new_offer got %s", created.Type)
	}
}

func TestRouteCounterProposedNotifiesOppositeParty(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}
	customerID := uuid.New()
	workshopID := uuid.New()

	envelope := envelopeFor(t, nil, payloads.CounterOfferProposedEvent{
		CounterOfferID: uuid.New(),
		RequestID:      uuid.New(),
		CustomerID:     customerID,
		WorkshopID:     workshopID,
		Amount:         decimal.NewFromInt(70),
		ProposedBy:     enums.ProposerWorkshop,
		Round:          2,
	})
	if err := consumer.route(context.Background(), enums.EventCounterOfferProposed, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].UserID != customerID {
		t.Fatalf("expected customer notified of workshop counter, got %+v", repo.created)
	}
}

func TestRouteStatusChangedSkipsActor(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}
	customerID := uuid.New()
	workshopID := uuid.New()

	actor := &outbox.ActorRef{UserID: customerID, Role: enums.AppRoleCustomer.String()}
	envelope := envelopeFor(t, actor, payloads.RequestStatusChangedEvent{
		RequestID:  uuid.New(),
		CustomerID: customerID,
		WorkshopID: &workshopID,
		FromStatus: enums.RepairStatusFinalQuote,
		ToStatus:   enums.RepairStatusRepairing,
	})
	if err := consumer.route(context.Background(), enums.EventRequestStatusChanged, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].UserID != workshopID {
		t.Fatalf("expected workshop notified, got %+v", repo.created)
	}
}

func TestRouteShipmentCreatedIsSilent(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}

	envelope := envelopeFor(t, nil, payloads.ShipmentUpdatedEvent{
		ShipmentID: uuid.New(),
		RequestID:  uuid.New(),
		CustomerID: uuid.New(),
		Type:       enums.ShipmentTypeToWorkshop,
		Status:     enums.ShipmentStatusCreated,
	})
	if err := consumer.route(context.Background(), enums.EventShipmentUpdated, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 0 {
		t.Fatalf("expected no notification for label creation, got %+v", repo.created)
	}
}

func TestRouteWorkshopDeliveryNotifiesWorkshop(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}
	workshopID := uuid.New()

	envelope := envelopeFor(t, nil, payloads.ShipmentUpdatedEvent{
		ShipmentID: uuid.New(),
		RequestID:  uuid.New(),
		CustomerID: uuid.New(),
		WorkshopID: &workshopID,
		Type:       enums.ShipmentTypeToWorkshop,
		Status:     enums.ShipmentStatusDelivered,
	})
	if err := consumer.route(context.Background(), enums.EventShipmentUpdated, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].UserID != workshopID {
		t.Fatalf("expected workshop notified of arrival, got %+v", repo.created)
	}
}

func TestRouteMessageSentNotifiesRecipient(t *testing.T) {
	repo := &fakeRepository{}
	consumer := &Consumer{repo: repo}
	recipientID := uuid.New()

	envelope := envelopeFor(t, nil, payloads.MessageSentEvent{
		MessageID:      uuid.New(),
		ConversationID: uuid.New(),
		SenderID:       uuid.New(),
		RecipientID:    recipientID,
		Preview:        "¿Cuándo llega el cargador?",
	})
	if err := consumer.route(context.Background(), enums.EventMessageSent, envelope); err != nil {
		t.Fatalf("route: %v", err)
	}
	if len(repo.created) != 1 || repo.created[0].UserID != recipientID {
		t.Fatalf("expected recipient notified, got %+v", repo.created)
	}
	if repo.created[0].Type != enums.NotificationTypeMessage {
		t.Fatalf("expected message type got %s", repo.created[0].Type)
	}
}
