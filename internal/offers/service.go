package offers

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

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type outboxPublisher interface {
	Emit(ctx context.Context, tx *gorm.DB, event outbox.DomainEvent) error
}

// Service defines offer operations.
type Service interface {
	Submit(ctx context.Context, input SubmitInput) (*models.Offer, error)
	Accept(ctx context.Context, input AcceptInput) error
	ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Offer, error)
	ListMine(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*OfferList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds an offers service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("offers repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Submit places a workshop bid on an open request. A workshop holds at most
// one live offer per request; resubmitting after a rejection is allowed.
func (s *service) Submit(ctx context.Context, input SubmitInput) (*models.Offer, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.WorkshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.EstimatedCostMin.IsPositive() || !input.EstimatedCostMax.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated costs must be greater than zero")
	}
	if input.EstimatedCostMax.LessThan(input.EstimatedCostMin) {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated cost range inverted")
	}
	if input.DiagnosisCost.IsNegative() || input.TransportCost.IsNegative() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "costs must not be negative")
	}
	if input.EstimatedDays <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "estimated days must be greater than zero")
	}

	offer := &models.Offer{
		RequestID:        input.RequestID,
		WorkshopID:       input.WorkshopID,
		EstimatedCostMin: input.EstimatedCostMin,
		EstimatedCostMax: input.EstimatedCostMax,
		DiagnosisCost:    input.DiagnosisCost,
		TransportCost:    input.TransportCost,
		EstimatedDays:    input.EstimatedDays,
		Message:          input.Message,
		Status:           enums.OfferStatusPending,
	}

	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindRequest(ctx, input.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		if request.Status != enums.RepairStatusWaitingOffers {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request is no longer accepting offers")
		}

		existing, err := repo.FindLiveByRequestAndWorkshop(ctx, input.RequestID, input.WorkshopID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing offer")
		}
		if existing != nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "workshop already has a live offer on this request")
		}

		created, err := repo.Create(ctx, offer)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create offer")
		}
		offer = created

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferSubmitted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.WorkshopID, Role: enums.AppRoleWorkshop.String()},
			Data: payloads.OfferSubmittedEvent{
				OfferID:    offer.ID,
				RequestID:  request.ID,
				CustomerID: request.UserID,
				WorkshopID: offer.WorkshopID,
				CostMin:    offer.EstimatedCostMin,
				CostMax:    offer.EstimatedCostMax,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return offer, nil
}

// Accept selects an offer for the customer. The chosen offer, its siblings
// and the request row all change in one transaction; no reader ever sees an
// accepted offer whose siblings are still pending.
func (s *service) Accept(ctx context.Context, input AcceptInput) error {
	if input.OfferID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "offer id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		offer, err := repo.FindByID(ctx, input.OfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
		}
		if offer.Status != enums.OfferStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "offer is no longer pending")
		}

		request, err := repo.FindRequest(ctx, offer.RequestID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		if request.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		if request.Status != enums.RepairStatusWaitingOffers {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request already has a selected offer")
		}

		if err := repo.UpdateStatus(ctx, offer.ID, enums.OfferStatusAccepted); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept offer")
		}
		rejected, err := repo.RejectSiblings(ctx, request.ID, offer.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject sibling offers")
		}
		if err := repo.UpdateRequest(ctx, request.ID, map[string]any{
			"status":            enums.RepairStatusOfferSelected,
			"selected_offer_id": offer.ID,
		}); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventOfferAccepted,
			AggregateType: enums.AggregateOffer,
			AggregateID:   offer.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.AppRoleCustomer.String()},
			Data: payloads.OfferAcceptedEvent{
				OfferID:          offer.ID,
				RequestID:        request.ID,
				CustomerID:       request.UserID,
				WorkshopID:       offer.WorkshopID,
				RejectedOfferIDs: rejected,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
}

func (s *service) ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.Offer, error) {
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
	if actorRole == enums.AppRoleCustomer && request.UserID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
	}
	list, err := s.repo.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list offers")
	}
	return list, nil
}

func (s *service) ListMine(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*OfferList, error) {
	if workshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	list, err := s.repo.ListByWorkshop(ctx, workshopID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list workshop offers")
	}
	return list, nil
}
