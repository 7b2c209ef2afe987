package cron

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/internal/shipments"
	"github.com/reparalo-app/reparalo-backend/pkg/correos"
	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

type fakeTrackingShipments struct {
	undelivered []models.Shipment
	applied     map[uuid.UUID]shipments.CarrierUpdate
	applyResult bool
	applyErr    error
}

func (f *fakeTrackingShipments) ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error) {
	return f.undelivered, nil
}

func (f *fakeTrackingShipments) ApplyCarrierUpdate(ctx context.Context, shipmentID uuid.UUID, update shipments.CarrierUpdate) (bool, error) {
	if f.applied == nil {
		f.applied = map[uuid.UUID]shipments.CarrierUpdate{}
	}
	if f.applyErr != nil {
		return false, f.applyErr
	}
	f.applied[shipmentID] = update
	return f.applyResult, nil
}

type fakeCarrier struct {
	info map[string]*correos.TrackingInfo
	err  error
}

func (f *fakeCarrier) Track(ctx context.Context, trackingNumber string) (*correos.TrackingInfo, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.info[trackingNumber], nil
}

func newTrackingReconcileJob(t *testing.T, svc trackingShipmentsService, carrier carrierTracker) Job {
	t.Helper()
	job, err := NewTrackingReconcileJob(TrackingReconcileJobParams{
		Logger:    logger.New(logger.Options{ServiceName: "test"}),
		Shipments: svc,
		Carrier:   carrier,
	})
	if err != nil {
		t.Fatalf("NewTrackingReconcileJob: %v", err)
	}
	return job
}

func TestTrackingReconcileAppliesLatestScan(t *testing.T) {
	t.Parallel()

	shipmentID := uuid.New()
	svc := &fakeTrackingShipments{
		undelivered: []models.Shipment{{ID: shipmentID, TrackingNumber: "DEV-ABC12345"}},
		applyResult: true,
	}
	observedAt := time.Date(2026, 3, 1, 9, 30, 0, 0, time.UTC)
	carrier := &fakeCarrier{info: map[string]*correos.TrackingInfo{
		"DEV-ABC12345": {
			TrackingNumber: "DEV-ABC12345",
			Events: []correos.TrackingEvent{
				{Status: enums.ShipmentStatusInTransit, OccurredAt: observedAt},
			},
		},
	}}
	job := newTrackingReconcileJob(t, svc, carrier)

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	update, ok := svc.applied[shipmentID]
	if !ok {
		t.Fatalf("expected carrier update applied")
	}
	if update.Status != enums.ShipmentStatusInTransit || !update.ObservedAt.Equal(observedAt) {
		t.Fatalf("unexpected update %+v", update)
	}
}

func TestTrackingReconcileSkipsUnregisteredLabels(t *testing.T) {
	t.Parallel()

	svc := &fakeTrackingShipments{
		undelivered: []models.Shipment{{ID: uuid.New(), TrackingNumber: "ENV-NEW00001"}},
	}
	job := newTrackingReconcileJob(t, svc, &fakeCarrier{})

	if err := job.Run(context.Background()); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if len(svc.applied) != 0 {
		t.Fatalf("expected no updates for label without scans")
	}
}

func TestTrackingReconcileCollectsPerShipmentErrors(t *testing.T) {
	t.Parallel()

	svc := &fakeTrackingShipments{
		undelivered: []models.Shipment{
			{ID: uuid.New(), TrackingNumber: "DEV-AAA11111"},
			{ID: uuid.New(), TrackingNumber: "DEV-BBB22222"},
		},
	}
	job := newTrackingReconcileJob(t, svc, &fakeCarrier{err: errors.New("carrier down")})

	err := job.Run(context.Background())
	if err == nil {
		t.Fatal("expected aggregated error")
	}
}
