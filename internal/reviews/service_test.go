package reviews

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox"
	"github.com/reparalo-app/reparalo-backend/pkg/outbox/payloads"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

type stubReviewsRepo struct {
	requests map[uuid.UUID]*models.RepairRequest
	offers   map[uuid.UUID]*models.Offer
	byReq    map[uuid.UUID]*models.Review

	recalculated []uuid.UUID
}

func newStubReviewsRepo() *stubReviewsRepo {
	return &stubReviewsRepo{
		requests: map[uuid.UUID]*models.RepairRequest{},
		offers:   map[uuid.UUID]*models.Offer{},
		byReq:    map[uuid.UUID]*models.Review{},
	}
}

func (s *stubReviewsRepo) WithTx(tx *gorm.DB) Repository { return s }

func (s *stubReviewsRepo) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	review.ID = uuid.New()
	s.byReq[review.RequestID] = review
	return review, nil
}

func (s *stubReviewsRepo) FindByRequest(ctx context.Context, requestID uuid.UUID) (*models.Review, error) {
	if review, ok := s.byReq[requestID]; ok {
		return review, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubReviewsRepo) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	list := &ReviewList{}
	for _, review := range s.byReq {
		if review.WorkshopID == workshopID {
			list.Reviews = append(list.Reviews, Summary{ID: review.ID, RequestID: review.RequestID, Rating: review.Rating})
		}
	}
	return list, nil
}

func (s *stubReviewsRepo) RecalculateWorkshopRating(ctx context.Context, workshopID uuid.UUID) error {
	s.recalculated = append(s.recalculated, workshopID)
	return nil
}

func (s *stubReviewsRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error) {
	if request, ok := s.requests[requestID]; ok {
		return request, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubReviewsRepo) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	if offer, ok := s.offers[offerID]; ok {
		return offer, nil
	}
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

type reviewFixture struct {
	repo       *stubReviewsRepo
	customerID uuid.UUID
	workshopID uuid.UUID
	requestID  uuid.UUID
}

func completedRepairFixture() reviewFixture {
	customerID := uuid.New()
	workshopID := uuid.New()
	offerID := uuid.New()
	requestID := uuid.New()

	repo := newStubReviewsRepo()
	repo.requests[requestID] = &models.RepairRequest{
		ID:              requestID,
		UserID:          customerID,
		Status:          enums.RepairStatusCompleted,
		SelectedOfferID: &offerID,
	}
	repo.offers[offerID] = &models.Offer{
		ID:         offerID,
		RequestID:  requestID,
		WorkshopID: workshopID,
	}
	return reviewFixture{repo: repo, customerID: customerID, workshopID: workshopID, requestID: requestID}
}

func TestCreateReviewUpdatesWorkshopRating(t *testing.T) {
	fx := completedRepairFixture()
	events := &stubOutboxPublisher{}
	svc, err := NewService(fx.repo, stubTxRunner{}, events)
	if err != nil {
		t.Fatalf("service constructor failed: %v", err)
	}

	comment := "Rápidos y atentos"
	review, err := svc.Create(context.Background(), CreateInput{
		RequestID:   fx.requestID,
		Rating:      5,
		Comment:     &comment,
		ActorUserID: fx.customerID,
	})
	if err != nil {
		t.Fatalf("expected success got %v", err)
	}
	if review.WorkshopID != fx.workshopID {
		t.Fatalf("expected review bound to workshop %s got %s", fx.workshopID, review.WorkshopID)
	}
	if len(fx.repo.recalculated) != 1 || fx.repo.recalculated[0] != fx.workshopID {
		t.Fatalf("expected workshop rating recalculated, got %v", fx.repo.recalculated)
	}
	if len(events.events) != 1 || events.events[0].EventType != enums.EventReviewSubmitted {
		t.Fatalf("expected review_submitted event, got %+v", events.events)
	}
	payload := events.events[0].Data.(payloads.ReviewSubmittedEvent)
	if payload.Rating != 5 || payload.WorkshopID != fx.workshopID {
		t.Fatalf("unexpected payload %+v", payload)
	}
}

func TestCreateReviewRequiresCompletedRepair(t *testing.T) {
	fx := completedRepairFixture()
	fx.repo.requests[fx.requestID].Status = enums.RepairStatusRepairing
	svc, _ := NewService(fx.repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Create(context.Background(), CreateInput{
		RequestID: fx.requestID, Rating: 4, ActorUserID: fx.customerID,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeStateConflict) {
		t.Fatalf("expected state conflict got %v", err)
	}
}

func TestCreateReviewRejectsForeignCustomer(t *testing.T) {
	fx := completedRepairFixture()
	svc, _ := NewService(fx.repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Create(context.Background(), CreateInput{
		RequestID: fx.requestID, Rating: 4, ActorUserID: uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden got %v", err)
	}
}

func TestCreateReviewRejectsDuplicate(t *testing.T) {
	fx := completedRepairFixture()
	fx.repo.byReq[fx.requestID] = &models.Review{ID: uuid.New(), RequestID: fx.requestID}
	svc, _ := NewService(fx.repo, stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Create(context.Background(), CreateInput{
		RequestID: fx.requestID, Rating: 4, ActorUserID: fx.customerID,
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict got %v", err)
	}
}

func TestCreateReviewValidatesRating(t *testing.T) {
	fx := completedRepairFixture()
	svc, _ := NewService(fx.repo, stubTxRunner{}, &stubOutboxPublisher{})

	for _, rating := range []int{0, 6, -1} {
		_, err := svc.Create(context.Background(), CreateInput{
			RequestID: fx.requestID, Rating: rating, ActorUserID: fx.customerID,
		})
		if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
			t.Fatalf("rating %d: expected validation error got %v", rating, err)
		}
	}
}

func TestCreateReviewUnknownRequest(t *testing.T) {
	svc, _ := NewService(newStubReviewsRepo(), stubTxRunner{}, &stubOutboxPublisher{})

	_, err := svc.Create(context.Background(), CreateInput{
		RequestID: uuid.New(), Rating: 4, ActorUserID: uuid.New(),
	})
	if !pkgerrors.HasCode(err, pkgerrors.CodeNotFound) {
		t.Fatalf("expected not found got %v", err)
	}
}
