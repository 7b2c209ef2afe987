package requests

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

const maxImagesPerRequest = 5

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines the repair lifecycle operations beyond repository reads.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.RepairRequest, error)
	Get(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) (*models.RepairRequest, error)
	ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*RequestList, error)
	ListOpen(ctx context.Context, params pagination.Params, filters OpenFilters) (*RequestList, error)
	MarkShipped(ctx context.Context, input TransitionInput) error
	ConfirmReceived(ctx context.Context, input TransitionInput) error
	SubmitFinalQuote(ctx context.Context, input FinalQuoteInput) error
	AcceptQuote(ctx context.Context, input TransitionInput) error
	RejectQuote(ctx context.Context, input TransitionInput) error
	MarkRepaired(ctx context.Context, input TransitionInput) error
	ShipBack(ctx context.Context, input TransitionInput) error
	ConfirmDelivered(ctx context.Context, input TransitionInput) error
	Cancel(ctx context.Context, input TransitionInput) error
}

type service struct {
	repo      Repository
	tx        txRunner
	outbox    outboxPublisher
	shipments ShipmentCreator
}

// NewService builds a repair request service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher, shipments ShipmentCreator) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("requests repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	if shipments == nil {
		return nil, fmt.Errorf("shipment creator required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		outbox:    outbox,
		shipments: shipments,
	}, nil
}

func (s *service) Create(ctx context.Context, input CreateInput) (*models.RepairRequest, error) {
	if input.CustomerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.DeviceBrand == "" || input.DeviceModel == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "device brand and model required")
	}
	if !input.DeviceType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid device type")
	}
	if input.ProblemDescription == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "problem description required")
	}
	if input.City == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "city required")
	}
	if len(input.Images) > maxImagesPerRequest {
		return nil, pkgerrors.New(pkgerrors.CodeValidation,
			fmt.Sprintf("at most %d images allowed", maxImagesPerRequest))
	}

	request := &models.RepairRequest{
		UserID:             input.CustomerID,
		DeviceBrand:        input.DeviceBrand,
		DeviceModel:        input.DeviceModel,
		DeviceType:         input.DeviceType,
		ProblemDescription: input.ProblemDescription,
		ProblemCategory:    input.ProblemCategory,
		City:               input.City,
		Images:             input.Images,
		Status:             enums.RepairStatusWaitingOffers,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		created, err := repo.Create(ctx, request)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create repair request")
		}
		request = created
		event := outbox.DomainEvent{
			EventType:     enums.EventRequestCreated,
			AggregateType: enums.AggregateRepairRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         buildActor(input.CustomerID, enums.AppRoleCustomer),
			Data: payloads.RequestCreatedEvent{
				RequestID:   request.ID,
				CustomerID:  request.UserID,
				DeviceBrand: request.DeviceBrand,
				DeviceModel: request.DeviceModel,
				DeviceType:  request.DeviceType,
				City:        request.City,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return request, nil
}

func (s *service) Get(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) (*models.RepairRequest, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindDetail(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
	}
	if actorRole == enums.AppRoleCustomer && request.UserID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
	}
	return request, nil
}

func (s *service) ListMine(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*RequestList, error) {
	if customerID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByCustomer(ctx, customerID, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list customer requests")
	}
	return list, nil
}

func (s *service) ListOpen(ctx context.Context, params pagination.Params, filters OpenFilters) (*RequestList, error) {
	list, err := s.repo.ListOpen(ctx, params, filters)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list open requests")
	}
	return list, nil
}

// MarkShipped records that the customer handed the device to the carrier and
// opens the to-workshop shipment inside the same transaction.
func (s *service) MarkShipped(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusInTransitToShop, func(ctx context.Context, tx *gorm.DB, request *models.RepairRequest) error {
		_, err := s.shipments.CreateForRequest(ctx, tx, request, enums.ShipmentTypeToWorkshop)
		return err
	})
}

func (s *service) ConfirmReceived(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusDiagnosis, nil)
}

// SubmitFinalQuote publishes the binding post-diagnosis price on the selected
// offer and moves the request to the quote-review state.
func (s *service) SubmitFinalQuote(ctx context.Context, input FinalQuoteInput) error {
	if !input.Quote.IsPositive() {
		return pkgerrors.New(pkgerrors.CodeValidation, "final quote must be greater than zero")
	}
	err := s.transition(ctx, input.TransitionInput, enums.RepairStatusFinalQuote, func(ctx context.Context, tx *gorm.DB, request *models.RepairRequest) error {
		repo := s.repo.WithTx(tx)
		if request.SelectedOfferID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request has no selected offer")
		}
		if err := repo.UpdateOffer(ctx, *request.SelectedOfferID, map[string]any{
			"final_quote": input.Quote,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "store final quote")
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventFinalQuoteSubmitted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   *request.SelectedOfferID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: payloads.FinalQuoteSubmittedEvent{
				OfferID:    *request.SelectedOfferID,
				RequestID:  request.ID,
				CustomerID: request.UserID,
				WorkshopID: input.ActorUserID,
				FinalQuote: input.Quote,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	return err
}

func (s *service) AcceptQuote(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusRepairing, func(ctx context.Context, tx *gorm.DB, request *models.RepairRequest) error {
		return s.repo.WithTx(tx).Update(ctx, request.ID, map[string]any{
			"final_quote_paid": true,
		})
	})
}

func (s *service) RejectQuote(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusCanceled, nil)
}

func (s *service) MarkRepaired(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusRepaired, nil)
}

// ShipBack records that the workshop handed the repaired device to the
// carrier and opens the to-customer shipment inside the same transaction.
func (s *service) ShipBack(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusInTransitToOwner, func(ctx context.Context, tx *gorm.DB, request *models.RepairRequest) error {
		_, err := s.shipments.CreateForRequest(ctx, tx, request, enums.ShipmentTypeToCustomer)
		return err
	})
}

func (s *service) ConfirmDelivered(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusCompleted, nil)
}

func (s *service) Cancel(ctx context.Context, input TransitionInput) error {
	return s.transition(ctx, input, enums.RepairStatusCanceled, nil)
}

type sideEffect func(ctx context.Context, tx *gorm.DB, request *models.RepairRequest) error

// transition re-checks the persisted status against the lifecycle table and
// applies the move plus its side effects as one transaction. The caller never
// observes a request whose status changed without its companion writes.
func (s *service) transition(ctx context.Context, input TransitionInput, target enums.RepairStatus, effect sideEffect) error {
	if input.RequestID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.ActorRole.IsValid() {
		return pkgerrors.New(pkgerrors.CodeForbidden, "actor role missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)
		request, err := repo.FindByID(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}

		if err := s.authorize(ctx, repo, request, input); err != nil {
			return err
		}

		if !Allowed(request.Status, target, input.ActorRole) {
			return pkgerrors.New(pkgerrors.CodeStateConflict,
				fmt.Sprintf("cannot move request from %s to %s", request.Status, target)).
				WithDetails(map[string]any{
					"from": request.Status,
					"to":   target,
				})
		}

		fromStatus := request.Status
		if err := repo.UpdateStatus(ctx, request.ID, target); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request status")
		}
		request.Status = target

		if effect != nil {
			if err := effect(ctx, tx, request); err != nil {
				return err
			}
		}

		var workshopID *uuid.UUID
		if input.ActorRole == enums.AppRoleWorkshop {
			actor := input.ActorUserID
			workshopID = &actor
		}
		event := outbox.DomainEvent{
			EventType:     enums.EventRequestStatusChanged,
			AggregateType: enums.AggregateRepairRequest,
			AggregateID:   request.ID,
			Version:       1,
			Actor:         buildActor(input.ActorUserID, input.ActorRole),
			Data: payloads.RequestStatusChangedEvent{
				RequestID:  request.ID,
				CustomerID: request.UserID,
				WorkshopID: workshopID,
				FromStatus: fromStatus,
				ToStatus:   target,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

// authorize verifies the actor may touch the request at all: customers must
// own it, workshops must own the selected offer.
func (s *service) authorize(ctx context.Context, repo Repository, request *models.RepairRequest, input TransitionInput) error {
	switch input.ActorRole {
	case enums.AppRoleCustomer:
		if request.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
	case enums.AppRoleWorkshop:
		if request.SelectedOfferID == nil {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request has no selected offer")
		}
		offer, err := repo.FindOffer(ctx, *request.SelectedOfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "selected offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selected offer")
		}
		if offer.WorkshopID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request is not assigned to workshop")
		}
	default:
		return pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
	return nil
}

func buildActor(userID uuid.UUID, role enums.AppRole) *outbox.ActorRef {
	return &outbox.ActorRef{
		UserID: userID,
		Role:   role.String(),
	}
}
