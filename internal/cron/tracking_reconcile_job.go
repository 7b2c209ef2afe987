package cron

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"github.com/reparalo-app/reparalo-backend/internal/shipments"
	"github.com/reparalo-app/reparalo-backend/pkg/correos"
	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

const trackingReconcileBatchSize = 200

type trackingShipmentsService interface {
	ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error)
	ApplyCarrierUpdate(ctx context.Context, shipmentID uuid.UUID, update shipments.CarrierUpdate) (bool, error)
}

type carrierTracker interface {
	Track(ctx context.Context, trackingNumber string) (*correos.TrackingInfo, error)
}

type TrackingReconcileJobParams struct {
	Logger    *logger.Logger
	Shipments trackingShipmentsService
	Carrier   carrierTracker
	BatchSize int
}

// NewTrackingReconcileJob builds the job that polls the carrier for every
// undelivered shipment and folds the latest scan into the tracker. Applying
// an update is idempotent, so rerunning the job never double-advances.
func NewTrackingReconcileJob(params TrackingReconcileJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.Shipments == nil {
		return nil, fmt.Errorf("shipments service required")
	}
	if params.Carrier == nil {
		return nil, fmt.Errorf("carrier client required")
	}
	batchSize := params.BatchSize
	if batchSize <= 0 {
		batchSize = trackingReconcileBatchSize
	}
	return &trackingReconcileJob{
		logg:      params.Logger,
		shipments: params.Shipments,
		carrier:   params.Carrier,
		batchSize: batchSize,
	}, nil
}

type trackingReconcileJob struct {
	logg      *logger.Logger
	shipments trackingShipmentsService
	carrier   carrierTracker
	batchSize int
}

func (j *trackingReconcileJob) Name() string { return "tracking-reconcile" }

func (j *trackingReconcileJob) Run(ctx context.Context) error {
	rows, err := j.shipments.ListUndelivered(ctx, j.batchSize)
	if err != nil {
		return fmt.Errorf("list undelivered shipments: %w", err)
	}

	var (
		applied int
		skipped int
		errs    error
	)
	for _, shipment := range rows {
		info, err := j.carrier.Track(ctx, shipment.TrackingNumber)
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("track %s: %w", shipment.TrackingNumber, err))
			continue
		}
		latest := info.Latest()
		if latest == nil {
			skipped++
			continue
		}
		ok, err := j.shipments.ApplyCarrierUpdate(ctx, shipment.ID, shipments.CarrierUpdate{
			Status:     latest.Status,
			Location:   latest.Location,
			Notes:      latest.Notes,
			ObservedAt: latest.OccurredAt,
		})
		if err != nil {
			errs = multierr.Append(errs, fmt.Errorf("apply update %s: %w", shipment.TrackingNumber, err))
			continue
		}
		if ok {
			applied++
		} else {
			skipped++
		}
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"shipments": len(rows),
		"applied":   applied,
		"skipped":   skipped,
	})
	if errs != nil {
		j.logg.Error(logCtx, "tracking reconcile finished with errors", errs)
		return fmt.Errorf("tracking reconcile: %w", errs)
	}
	j.logg.Info(logCtx, "tracking reconcile complete")
	return nil
}
