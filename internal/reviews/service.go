package reviews

import (
	"context"
	"errors"
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

// Service defines review operations.
type Service interface {
	Create(ctx context.Context, input CreateInput) (*models.Review, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*ReviewList, error)
}

type service struct {
	repo   Repository
	tx     txRunner
	outbox outboxPublisher
}

// NewService builds a reviews service with the required dependencies.
func NewService(repo Repository, tx txRunner, outbox outboxPublisher) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("reviews repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if outbox == nil {
		return nil, fmt.Errorf("outbox publisher required")
	}
	return &service{repo: repo, tx: tx, outbox: outbox}, nil
}

// Create publishes one review per completed repair. The review row and the
// workshop's aggregate rating move in the same transaction so the profile
// never shows a stale average.
func (s *service) Create(ctx context.Context, input CreateInput) (*models.Review, error) {
	if input.RequestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	if input.ActorUserID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if input.Rating < 1 || input.Rating > 5 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "rating must be between 1 and 5")
	}

	var review *models.Review
	err := s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		repo := s.repo.WithTx(tx)

		request, err := repo.FindRequest(ctx, input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		if request.UserID != input.ActorUserID {
			return pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		if request.Status != enums.RepairStatusCompleted {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "repair is not completed")
		}
		if request.SelectedOfferID == nil {
			return pkgerrors.New(pkgerrors.CodeStateConflict, "request has no selected offer")
		}
		offer, err := repo.FindOffer(ctx, *request.SelectedOfferID)
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load selected offer")
		}

		if _, err := repo.FindByRequest(ctx, input.RequestID); err == nil {
			return pkgerrors.New(pkgerrors.CodeConflict, "request already reviewed")
		} else if !errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "check existing review")
		}

		created, err := repo.Create(ctx, &models.Review{
			RequestID:  input.RequestID,
			CustomerID: request.UserID,
			WorkshopID: offer.WorkshopID,
			Rating:     input.Rating,
			Comment:    input.Comment,
		})
		if err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create review")
		}
		review = created

		if err := repo.RecalculateWorkshopRating(ctx, offer.WorkshopID); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "update workshop rating")
		}

		event := outbox.DomainEvent{
			EventType:     enums.EventReviewSubmitted,
			AggregateType: enums.AggregateReview,
			AggregateID:   created.ID,
			Version:       1,
			Actor:         &outbox.ActorRef{UserID: input.ActorUserID, Role: enums.AppRoleCustomer.String()},
			Data: payloads.ReviewSubmittedEvent{
				ReviewID:   created.ID,
				RequestID:  request.ID,
				CustomerID: request.UserID,
				WorkshopID: offer.WorkshopID,
				Rating:     input.Rating,
			},
		}
		return s.outbox.Emit(ctx, tx, event)
	})
	if err != nil {
		return nil, err
	}
	return review, nil
}

func (s *service) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	if workshopID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "workshop id required")
	}
	list, err := s.repo.ListByWorkshop(ctx, workshopID, params)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list reviews")
	}
	return list, nil
}
