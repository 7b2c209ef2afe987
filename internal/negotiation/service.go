package negotiation

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/internal/requests"
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

// Service defines the counter-offer negotiation operations.
type Service interface {
	Propose(ctx context.Context, input ProposeInput) (*models.CounterOffer, error)
	Resolve(ctx context.Context, input ResolveInput) error
	ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.CounterOffer, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a negotiation service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("negotiation repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Propose opens a new negotiation round. A pending counter from the other
// side is rejected in the same transaction; the round cap and the strict
// amount inequalities are enforced against persisted rows, never client
// state. The denormalized counter on the request is recomputed from a row
// count inside the transaction.
func (s *service) Propose(ctx context.Context, input ProposeInput) (*models.CounterOffer, error) {
	if input.RequestID == uuid.Nil || input.OfferID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request and offer ids required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Amount.IsPositive() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "amount must be greater than zero")
	}

	var counter *models.CounterOffer
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, offer, err := s.loadPair(ctx, repo, input.RequestID, input.OfferID)
		if err != nil {
			return err
		}

		proposer, err := s.authorizeProposer(request, offer, input)
		if err != nil {
			return err
		}

		pending, err := repo.FindPendingByRequest(ctx, input.RequestID)
		if err != nil && err != gorm.ErrRecordNotFound {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load pending counter")
		}

		rounds, err := repo.CountRounds(ctx, input.RequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count negotiation rounds")
		}
		if rounds >= MaxRounds {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "negotiation round limit reached").
				WithDetails(map[string]any{"max_rounds": MaxRounds})
		}

		switch proposer {
		case enums.ProposerCustomer:
			if request.Status != enums.RepairStatusNegotiating &&
				!requests.Allowed(request.Status, enums.RepairStatusNegotiating, enums.AppRoleCustomer) {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "request is not open for negotiation")
			}
			if pending != nil && pending.ProposedBy == enums.ProposerCustomer {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "previous counter offer still pending")
			}
			reference := referencePrice(offer)
			if !input.Amount.LessThan(reference) {
				return pkgerrors.New(pkgerrors.CodeValidation, "counter offer must undercut the current price").
					WithDetails(map[string]any{"reference": reference})
			}
		case enums.ProposerWorkshop:
			if request.Status != enums.RepairStatusNegotiating {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "request is not in negotiation")
			}
			if pending == nil || pending.ProposedBy != enums.ProposerCustomer {
				return pkgerrors.New(pkgerrors.CodeStateConflict, "no customer counter to respond to")
			}
			if !input.Amount.GreaterThan(pending.Amount) {
				return pkgerrors.New(pkgerrors.CodeValidation, "counter offer must exceed the customer proposal").
					WithDetails(map[string]any{"floor": pending.Amount})
			}
		}

		// Proposing over the other side's pending counter implicitly
		// rejects it.
		if pending != nil && pending.ProposedBy != proposer {
			if err := repo.UpdateStatus(ctx, pending.ID, enums.CounterOfferStatusRejected); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject pending counter")
			}
		}

		created, err := repo.Create(ctx, &models.CounterOffer{
			RequestID:  input.RequestID,
			OfferID:    input.OfferID,
			Amount:     input.Amount,
			ProposedBy: proposer,
			Status:     enums.CounterOfferStatusPending,
			Message:    input.Message,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create counter offer")
		}
		counter = created

		rounds, err = repo.CountRounds(ctx, input.RequestID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "recount negotiation rounds")
		}
		updates := map[string]any{"counter_offer_count": rounds}
		if request.Status != enums.RepairStatusNegotiating {
			updates["status"] = enums.RepairStatusNegotiating
		}
		if request.SelectedOfferID == nil {
			updates["selected_offer_id"] = offer.ID
		}
		if err := repo.UpdateRequest(ctx, request.ID, updates); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventCounterOfferProposed,
			AggregateType: enums.AggregateCounterOffer,
			AggregateID:   counter.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
			Data: payloads.CounterOfferProposedEvent{
				CounterOfferID: counter.ID,
				RequestID:      request.ID,
				OfferID:        offer.ID,
				CustomerID:     request.UserID,
				WorkshopID:     offer.WorkshopID,
				Amount:         counter.Amount,
				ProposedBy:     proposer,
				Round:          rounds,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return counter, nil
}

// Resolve accepts or rejects a pending counter. Acceptance binds the amount
// as the offer's final quote and returns the request to oferta_seleccionada;
// a rejection with no rounds left cancels the request. All of it is one
// transaction.
func (s *service) Resolve(ctx context.Context, input ResolveInput) error {
	if input.CounterOfferID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "counter offer id required")
	}
	if input.ActorUserID == uuid.Nil {
		return pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}

	return s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		counter, err := repo.FindByID(ctx, input.CounterOfferID)
		if err != nil {
			if err == gorm.ErrRecordNotFound {
				return pkgerrors.New(pkgerrors.CodeNotFound, "counter offer not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load counter offer")
		}
		if counter.Status != enums.CounterOfferStatusPending {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "counter offer already resolved")
		}

		request, offer, err := s.loadPair(ctx, repo, counter.RequestID, counter.OfferID)
		if err != nil {
			return err
		}
		if request.Status != enums.RepairStatusNegotiating {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request is not in negotiation")
		}

		resolver, err := s.authorizeResolver(request, offer, input)
		if err != nil {
			return err
		}
		if resolver == counter.ProposedBy {
			return pkgerrors.New(pkgerrors.CodeForbidden, "cannot resolve own counter offer")
		}

		if input.Accept {
			if err := repo.UpdateStatus(ctx, counter.ID, enums.CounterOfferStatusAccepted); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "accept counter offer")
			}
			if err := repo.UpdateOffer(ctx, offer.ID, map[string]any{
				"final_quote": counter.Amount,
				"status":      enums.OfferStatusAccepted,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "bind final quote")
			}
			if err := repo.UpdateRequest(ctx, request.ID, map[string]any{
				"status":            enums.RepairStatusOfferSelected,
				"selected_offer_id": offer.ID,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update request")
			}
			return s.emitResolved(ctx, tx, input, counter, request, offer, enums.CounterOfferStatusAccepted, false)
		}

		if err := repo.UpdateStatus(ctx, counter.ID, enums.CounterOfferStatusRejected); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "reject counter offer")
		}
		rounds, err := repo.CountRounds(ctx, request.ID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count negotiation rounds")
		}
		exhausted := rounds >= MaxRounds
		if exhausted {
			if err := repo.UpdateRequest(ctx, request.ID, map[string]any{
				"status": enums.RepairStatusCanceled,
			}); err != nil {
				return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "cancel exhausted negotiation")
			}
		}
		return s.emitResolved(ctx, tx, input, counter, request, offer, enums.CounterOfferStatusRejected, exhausted)
	})
}

func (s *service) ListByRequest(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]models.CounterOffer, error) {
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
	rows, err := s.repo.FindByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list counter offers")
	}
	return rows, nil
}

func (s *service) loadPair(ctx context.Context, repo Repository, requestID, offerID uuid.UUID) (*models.RepairRequest, *models.Offer, error) {
	request, err := repo.FindRequest(ctx, requestID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
	}
	offer, err := repo.FindOffer(ctx, offerID)
	if err != nil {
		if err == gorm.ErrRecordNotFound {
			return nil, nil, pkgerrors.New(pkgerrors.CodeNotFound, "offer not found")
		}
		return nil, nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load offer")
	}
	if offer.RequestID != request.ID {
		return nil, nil, pkgerrors.New(pkgerrors.CodeValidation, "offer does not belong to request")
	}
	return request, offer, nil
}

func (s *service) authorizeProposer(request *models.RepairRequest, offer *models.Offer, input ProposeInput) (enums.ProposerRole, error) {
	switch input.ActorRole {
	case enums.AppRoleCustomer:
		if request.UserID != input.ActorUserID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		return enums.ProposerCustomer, nil
	case enums.AppRoleWorkshop:
		if offer.WorkshopID != input.ActorUserID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "offer does not belong to workshop")
		}
		return enums.ProposerWorkshop, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func (s *service) authorizeResolver(request *models.RepairRequest, offer *models.Offer, input ResolveInput) (enums.ProposerRole, error) {
	switch input.ActorRole {
	case enums.AppRoleCustomer:
		if request.UserID != input.ActorUserID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		return enums.ProposerCustomer, nil
	case enums.AppRoleWorkshop:
		if offer.WorkshopID != input.ActorUserID {
			return "", pkgerrors.New(pkgerrors.CodeForbidden, "offer does not belong to workshop")
		}
		return enums.ProposerWorkshop, nil
	default:
		return "", pkgerrors.New(pkgerrors.CodeForbidden, "unknown actor role")
	}
}

func (s *service) emitResolved(ctx context.Context, tx *gorm.DB, input ResolveInput, counter *models.CounterOffer, request *models.RepairRequest, offer *models.Offer, resolution enums.CounterOfferStatus, exhausted bool) error {
	event := outbox.DomainEvent{
		EventType:     enums.EventCounterOfferResolved,
		AggregateType: enums.AggregateCounterOffer,
		AggregateID:   counter.ID,
		Version:       1,
		Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: input.ActorRole.String()},
		Data: payloads.CounterOfferResolvedEvent{
			CounterOfferID: counter.ID,
			RequestID:      request.ID,
			CustomerID:     request.UserID,
			WorkshopID:     offer.WorkshopID,
			Resolution:     resolution,
			Amount:         counter.Amount,
			Exhausted:      exhausted,
		},
	}
	return s.outbox.Emit(ctx, tx, event)
}

// referencePrice is the ceiling a customer counter must undercut: the binding
// final quote when one exists, the offer's upper estimate before diagnosis.
func referencePrice(offer *models.Offer) decimal.Decimal {
	if offer.FinalQuote != nil {
		return *offer.FinalQuote
	}
	return offer.EstimatedCostMax
}
