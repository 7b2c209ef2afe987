package shipments

import (
	"context"
	"strings"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
)

type stubShipmentsRepo struct {
	request   *models.RepairRequest
	offer     *models.Offer
	shipments map[uuid.UUID]*models.Shipment
	history   []models.ShipmentStatusHistory
	updates   map[string]any
}

func (s *stubShipmentsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubShipmentsRepo) Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error) {
	if shipment.ID == uuid.Nil {
		shipment.ID = uuid.New()
	}
	if s.shipments == nil {
		s.shipments = make(map[uuid.UUID]*models.Shipment)
	}
	s.shipments[shipment.ID] = shipment
	return shipment, nil
}

func (s *stubShipmentsRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error) {
	shipment, ok := s.shipments[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return shipment, nil
}

func (s *stubShipmentsRepo) FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error) {
	for _, shipment := range s.shipments {
		if shipment.TrackingNumber == trackingNumber {
			return shipment, nil
		}
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubShipmentsRepo) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		if shipment.RequestID == requestID {
			out = append(out, *shipment)
		}
	}
	return out, nil
}

func (s *stubShipmentsRepo) ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error) {
	var out []models.Shipment
	for _, shipment := range s.shipments {
		if shipment.Status != enums.ShipmentStatusDelivered {
			out = append(out, *shipment)
		}
	}
	return out, nil
}

func (s *stubShipmentsRepo) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	s.updates = updates
	if shipment, ok := s.shipments[id]; ok {
		if status, ok := updates["status"].(enums.ShipmentStatus); ok {
			shipment.Status = status
		}
	}
	return nil
}

func (s *stubShipmentsRepo) AppendHistory(ctx context.Context, entry *models.ShipmentStatusHistory) error {
	s.history = append(s.history, *entry)
	return nil
}

func (s *stubShipmentsRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error) {
	if s.request == nil || s.request.ID != requestID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.request, nil
}

func (s *stubShipmentsRepo) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	if s.offer == nil || s.offer.ID != offerID {
		return nil, gorm.ErrRecordNotFound
	}
	return s.offer, nil
}

func (s *stubShipmentsRepo) FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error) {
	return nil, gorm.ErrRecordNotFound
}

type stubTxRunner struct{}

func (stubTxRunner) WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error {
	return fn(nil)
}

type stubOutboxPublisher struct {
	events []outbox.DomainEvent
}

func (s *stubOutboxPublisher) Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error {
	s.events = append(s.events, event)
	return nil
}

func shipmentFixture() (*stubShipmentsRepo, uuid.UUID) {
	workshopID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()
	repo := &stubShipmentsRepo{
		request: &models.RepairRequest{
			ID:              requestID,
			UserID:          uuid.New(),
			City:            "Madrid",
			Status:          enums.RepairStatusOfferSelected,
			SelectedOfferID: &offerID,
		},
		offer: &models.Offer{
			ID:         offerID,
			RequestID:  requestID,
			WorkshopID: workshopID,
		},
		shipments: make(map[uuid.UUID]*models.Shipment),
	}
	return repo, workshopID
}

func TestCreateForRequestBuildsTrackingNumber(t *testing.T) {
	repo, _ := shipmentFixture()
	events := &stubOutboxPublisher{}
	svc, err := NewService(repo, stubTxRunner{}, events)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	shipment, err := svc.CreateForRequest(context.Background(), nil, repo.request, enums.ShipmentTypeToWorkshop)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	wantPrefix := "ENV-" + strings.ToUpper(repo.request.ID.String()[:8])
	if shipment.TrackingNumber != wantPrefix {
		t.Fatalf("expected tracking %s got %s", wantPrefix, shipment.TrackingNumber)
	}
	if shipment.Status != enums.ShipmentStatusCreated {
		t.Fatalf("expected created got %s", shipment.Status)
	}
	if len(repo.history) != 1 || repo.history[0].Status != enums.ShipmentStatusCreated {
		t.Fatalf("expected one created history row got %+v", repo.history)
	}
	if len(events.events) != 1 || events.events[0].EventType != enums.EventShipmentUpdated {
		t.Fatalf("expected shipment_updated event got %+v", events.events)
	}
}

func TestCreateForRequestReturnLegUsesDevPrefix(t *testing.T) {
	repo, _ := shipmentFixture()
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	shipment, err := svc.CreateForRequest(context.Background(), nil, repo.request, enums.ShipmentTypeToCustomer)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !strings.HasPrefix(shipment.TrackingNumber, "DEV-") {
		t.Fatalf("expected DEV prefix got %s", shipment.TrackingNumber)
	}
}

func TestCreateForRequestIsIdempotentPerLeg(t *testing.T) {
	repo, _ := shipmentFixture()
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	first, err := svc.CreateForRequest(context.Background(), nil, repo.request, enums.ShipmentTypeToWorkshop)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	second, err := svc.CreateForRequest(context.Background(), nil, repo.request, enums.ShipmentTypeToWorkshop)
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if first.ID != second.ID {
		t.Fatalf("expected same shipment, got %s and %s", first.ID, second.ID)
	}
	if len(repo.shipments) != 1 {
		t.Fatalf("expected one shipment row got %d", len(repo.shipments))
	}
}

func TestAdvanceWalksReturnLeg(t *testing.T) {
	repo, workshopID := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToCustomer,
		Status:    enums.ShipmentStatusCreated,
	}
	repo.shipments[shipment.ID] = shipment
	events := &stubOutboxPublisher{}
	svc, _ := NewService(repo, stubTxRunner{}, events)

	advanced, err := svc.Advance(context.Background(), AdvanceInput{
		ShipmentID:  shipment.ID,
		ActorUserID: workshopID,
		ActorRole:   enums.AppRoleWorkshop,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if advanced.Status != enums.ShipmentStatusPickedUp {
		t.Fatalf("expected picked_up got %s", advanced.Status)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event got %d", len(events.events))
	}
	payload := events.events[0].Data.(payloads.ShipmentUpdatedEvent)
	if payload.Status != enums.ShipmentStatusPickedUp {
		t.Fatalf("expected picked_up payload got %+v", payload)
	}
}

func TestAdvanceRejectsOutboundLeg(t *testing.T) {
	repo, workshopID := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusCreated,
	}
	repo.shipments[shipment.ID] = shipment
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Advance(context.Background(), AdvanceInput{
		ShipmentID:  shipment.ID,
		ActorUserID: workshopID,
		ActorRole:   enums.AppRoleWorkshop,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestAdvanceRejectsForeignWorkshop(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToCustomer,
		Status:    enums.ShipmentStatusCreated,
	}
	repo.shipments[shipment.ID] = shipment
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Advance(context.Background(), AdvanceInput{
		ShipmentID:  shipment.ID,
		ActorUserID: uuid.New(),
		ActorRole:   enums.AppRoleWorkshop,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestAdvanceRejectsCustomers(t *testing.T) {
	repo, _ := shipmentFixture()
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Advance(context.Background(), AdvanceInput{
		ShipmentID:  uuid.New(),
		ActorUserID: uuid.New(),
		ActorRole:   enums.AppRoleCustomer,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestCarrierUpdateMovesForward(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusCreated,
	}
	repo.shipments[shipment.ID] = shipment
	events := &stubOutboxPublisher{}
	svc, _ := NewService(repo, stubTxRunner{}, events)

	applied, err := svc.ApplyCarrierUpdate(context.Background(), shipment.ID, CarrierUpdate{
		Status: enums.ShipmentStatusInTransit,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if !applied {
		t.Fatalf("expected update applied")
	}
	if shipment.Status != enums.ShipmentStatusInTransit {
		t.Fatalf("expected in_transit got %s", shipment.Status)
	}
	if len(events.events) != 1 {
		t.Fatalf("expected one event got %d", len(events.events))
	}
}

func TestCarrierUpdateNeverRegresses(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusDelivered,
	}
	repo.shipments[shipment.ID] = shipment
	events := &stubOutboxPublisher{}
	svc, _ := NewService(repo, stubTxRunner{}, events)

	applied, err := svc.ApplyCarrierUpdate(context.Background(), shipment.ID, CarrierUpdate{
		Status: enums.ShipmentStatusInTransit,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if applied {
		t.Fatalf("expected regression dropped")
	}
	if shipment.Status != enums.ShipmentStatusDelivered {
		t.Fatalf("expected delivered untouched got %s", shipment.Status)
	}
	if len(events.events) != 0 {
		t.Fatalf("expected no events got %d", len(events.events))
	}
}

func TestCarrierUpdateIsIdempotent(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusInTransit,
	}
	repo.shipments[shipment.ID] = shipment
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	applied, err := svc.ApplyCarrierUpdate(context.Background(), shipment.ID, CarrierUpdate{
		Status: enums.ShipmentStatusInTransit,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if applied {
		t.Fatalf("expected duplicate update dropped")
	}
	if len(repo.history) != 0 {
		t.Fatalf("expected no history rows got %d", len(repo.history))
	}
}

func TestCarrierUpdateDropsForeignStatus(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusCreated,
	}
	repo.shipments[shipment.ID] = shipment
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	applied, err := svc.ApplyCarrierUpdate(context.Background(), shipment.ID, CarrierUpdate{
		Status: enums.ShipmentStatusOutForDelivery,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if applied {
		t.Fatalf("expected foreign status dropped")
	}
}

func TestCarrierUpdateDeliveredStampsTimestamp(t *testing.T) {
	repo, _ := shipmentFixture()
	shipment := &models.Shipment{
		ID:        uuid.New(),
		RequestID: repo.request.ID,
		Type:      enums.ShipmentTypeToWorkshop,
		Status:    enums.ShipmentStatusInTransit,
	}
	repo.shipments[shipment.ID] = shipment
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	applied, err := svc.ApplyCarrierUpdate(context.Background(), shipment.ID, CarrierUpdate{
		Status: enums.ShipmentStatusDelivered,
	})
	if err != nil || !applied {
		t.Fatalf("expected applied got applied=%v err=%v", applied, err)
	}
	if shipment.DeliveredAt == nil {
		t.Fatalf("expected delivered_at set")
	}
	if _, ok := repo.updates["delivered_at"]; !ok {
		t.Fatalf("expected delivered_at persisted got %v", repo.updates)
	}
}

func TestGetByRequestRejectsForeignCustomer(t *testing.T) {
	repo, _ := shipmentFixture()
	svc, _ := NewService(repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.GetByRequest(context.Background(), repo.request.ID, uuid.New(), enums.AppRoleCustomer)
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}
