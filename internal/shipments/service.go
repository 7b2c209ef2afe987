package shipments

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the shipment sub-tracker operations.
type Service interface {
	CreateForRequest(ctx context.Context, tx *gorm.DB, request *models.RepairRequest, shipmentType enums.ShipmentType) (*models.Shipment, error)
	Advance(ctx context.Context, input AdvanceInput) (*models.Shipment, error)
	ApplyCarrierUpdate(ctx context.Context, shipmentID uuid.UUID, update CarrierUpdate) (bool, error)
	GetByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Shipment, error)
	ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a shipments service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("shipments repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// trackingPrefix distinguishes the two legs on the label itself: ENV for the
// envío to the workshop, DEV for the devolución to the customer.
func trackingPrefix(shipmentType enums.ShipmentType) string {
	if shipmentType == enums.ShipmentTypeToCustomer {
		return "DEV"
	}
	return "ENV"
}

func trackingNumber(shipmentType enums.ShipmentType, requestID uuid.UUID) string {
	return fmt.Sprintf("%s-%s", trackingPrefix(shipmentType), strings.ToUpper(requestID.String()[:8]))
}

// CreateForRequest opens the leg matching a lifecycle transition inside the
// caller's transaction. Calling it twice for the same (request, type) pair
// returns the existing shipment rather than a duplicate.
func (s *service) CreateForRequest(ctx context.Context, tx *gorm.DB, request *models.RepairRequest, shipmentType enums.ShipmentType) (*models.Shipment, error) {
	if request == nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request required")
	}
	if !shipmentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid shipment type")
	}
	repo := s.repo.WithTx(tx)

	existing, err := repo.FindByRequest(ctx, request.ID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipments")
	}
	for i := range existing {
		if existing[i].Type == shipmentType {
			return &existing[i], nil
		}
	}

	workshopID, err := s.workshopForRequest(ctx, repo, request)
	if err != nil {
		return nil, err
	}
	origin, destination := s.endpoints(ctx, repo, request, workshopID, shipmentType)

	shipment := &models.Shipment{
		RequestID:       request.ID,
		Type:            shipmentType,
		TrackingNumber:  trackingNumber(shipmentType, request.ID),
		Status:          enums.ShipmentStatusCreated,
		OriginName:      origin.name,
		OriginCity:      origin.city,
		DestinationName: destination.name,
		DestinationCity: destination.city,
	}
	created, err := repo.Create(ctx, shipment)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create shipment")
	}
	if err := repo.AppendHistory(ctx, &models.ShipmentStatusHistory{
		ShipmentID: created.ID,
		Status:     enums.ShipmentStatusCreated,
	}); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record shipment history")
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventShipmentUpdated,
		AggregateType: enums.AggregateShipment,
		AggregateID:   created.ID,
		Version:       1,
		Data: payloads.ShipmentUpdatedEvent{
			ShipmentID: created.ID,
			RequestID:  request.ID,
			CustomerID: request.UserID,
			WorkshopID: workshopID,
			Type:       shipmentType,
			Status:     enums.ShipmentStatusCreated,
			OccurredAt: time.Now().UTC(),
		},
	}
	if err := s.outbox.Emit(ctx, tx, event); err != nil {
		return nil, err
	}
	return created, nil
}

// Advance moves the return leg one step forward on the workshop's say-so.
// The outbound leg is carrier-driven only.
func (s *service) Advance(ctx context.Context, input AdvanceInput) (*models.Shipment, error) {
	if input.ShipmentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}
	if input.ActorRole != enums.AppRoleWorkshop {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only workshops advance shipments")
	}

	var shipment *models.Shipment
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		loaded, err := repo.FindByID(ctx, input.ShipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}
		if loaded.Type != enums.ShipmentTypeToCustomer {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "outbound shipments are carrier-tracked")
		}

		request, err := repo.FindRequest(ctx, loaded.RequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		workshopID, err := s.workshopForRequest(ctx, repo, request)
		if err != nil {
			return err
		}
		if workshopID == nil || *workshopID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "shipment does not belong to workshop")
		}

		next, ok := NextStep(loaded.Type, loaded.Status)
		if !ok {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "shipment already at final step")
		}
		if err := s.applyStep(ctx, repo, tx, loaded, request, workshopID, next, input.Location, input.Notes, &input.ActorUserID, input.ActorRole); err != nil {
			return err
		}
		shipment = loaded
		return nil
	})
	if err != nil {
		return nil, err
	}
	return shipment, nil
}

// ApplyCarrierUpdate folds one carrier observation into the tracker. Updates
// that would move the shipment backwards, repeat the current step, or name a
// status the leg never visits are dropped, which makes replaying a feed safe.
func (s *service) ApplyCarrierUpdate(ctx context.Context, shipmentID uuid.UUID, update CarrierUpdate) (bool, error) {
	if shipmentID == uuid.Nil {
		return false, pkgerrors.New(pkgerrors.CodeValidation, "shipment id required")
	}

	applied := false
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		shipment, err := repo.FindByID(ctx, shipmentID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "shipment not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load shipment")
		}

		target := StepIndex(shipment.Type, update.Status)
		current := StepIndex(shipment.Type, shipment.Status)
		if target < 0 || target <= current {
			return nil
		}

		request, err := repo.FindRequest(ctx, shipment.RequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		workshopID, err := s.workshopForRequest(ctx, repo, request)
		if err != nil {
			return err
		}
		if err := s.applyStep(ctx, repo, tx, shipment, request, workshopID, update.Status, update.Location, update.Notes, nil, ""); err != nil {
			return err
		}
		applied = true
		return nil
	})
	if err != nil {
		return false, err
	}
	return applied, nil
}

func (s *service) GetByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Shipment, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
	}
	switch actorRole {
	case enums.AppRoleCustomer:
		if request.UserID != actorUserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
	case enums.AppRoleWorkshop:
		workshopID, err := s.workshopForRequest(ctx, s.repo, request)
		if err != nil {
			return nil, err
		}
		if workshopID == nil || *workshopID != actorUserID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to workshop")
		}
	default:
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	rows, err := s.repo.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list shipments")
	}
	return rows, nil
}

func (s *service) ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error) {
	rows, err := s.repo.ListUndelivered(ctx, limit)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list undelivered shipments")
	}
	return rows, nil
}

func (s *service) applyStep(ctx context.Context, repo Repository, tx *gorm.DB, shipment *models.Shipment, request *models.RepairRequest, workshopID *uuid.UUID, status enums.ShipmentStatus, location, notes *string, actorID *uuid.UUID, actorRole enums.AppRole) error {
	now := time.Now().UTC()
	updates := map[string]any{"status": status}
	if status == enums.ShipmentStatusDelivered {
		updates["delivered_at"] = now
	}
	if err := repo.Update(ctx, shipment.ID, updates); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update shipment")
	}
	if err := repo.AppendHistory(ctx, &models.ShipmentStatusHistory{
		ShipmentID: shipment.ID,
		Status:     status,
		Location:   location,
		Notes:      notes,
	}); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "record shipment history")
	}
	shipment.Status = status
	if status == enums.ShipmentStatusDelivered {
		shipment.DeliveredAt = &now
	}

	event := outbox.DomainEvent{
		EventType:     enums.EventShipmentUpdated,
		AggregateType: enums.AggregateShipment,
		AggregateID:   shipment.ID,
		Version:       1,
		Data: payloads.ShipmentUpdatedEvent{
			ShipmentID: shipment.ID,
			RequestID:  request.ID,
			CustomerID: request.UserID,
			WorkshopID: workshopID,
			Type:       shipment.Type,
			Status:     status,
			OccurredAt: now,
		},
	}
	if actorID != nil {
		event.Actor = &outbox.ActorRef{UserID: *actorID, Role: actorRole.String()}
	}
	return s.outbox.Emit(ctx, tx, event)
}

// workshopForRequest resolves the counterpart workshop via the selected offer.
// Nil before an offer is chosen.
func (s *service) workshopForRequest(ctx context.Context, repo Repository, request *models.RepairRequest) (*uuid.UUID, error) {
	if request.SelectedOfferID == nil {
		return nil, nil
	}
	offer, err := repo.FindOffer(ctx, *request.SelectedOfferID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selected offer")
	}
	return &offer.WorkshopID, nil
}

type endpoint struct {
	name string
	city string
}

// endpoints fills the label's origin and destination from the two profiles,
// falling back to the request's own city when a profile is incomplete.
func (s *service) endpoints(ctx context.Context, repo Repository, request *models.RepairRequest, workshopID *uuid.UUID, shipmentType enums.ShipmentType) (endpoint, endpoint) {
	customer := endpoint{name: "Cliente", city: request.City}
	if profile, err := repo.FindProfile(ctx, request.UserID); err == nil {
		customer.name = profile.FullName
		if profile.City != nil && *profile.City != "" {
			customer.city = *profile.City
		}
	}

	workshop := endpoint{name: "Taller", city: request.City}
	if workshopID != nil {
		if profile, err := repo.FindProfile(ctx, *workshopID); err == nil {
			if profile.WorkshopName != nil && *profile.WorkshopName != "" {
				workshop.name = *profile.WorkshopName
			} else {
				workshop.name = profile.FullName
			}
			if profile.City != nil && *profile.City != "" {
				workshop.city = *profile.City
			}
		}
	}

	if shipmentType == enums.ShipmentTypeToWorkshop {
		return customer, workshop
	}
	return workshop, customer
}
