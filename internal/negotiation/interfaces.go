package negotiation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Repository defines persistence operations for counter-offer tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, counter *models.CounterOffer) (*models.CounterOffer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.CounterOffer, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.CounterOffer, error)
	FindPendingByRequest(ctx context.Context, requestID uuid.UUID) (*models.CounterOffer, error)
	CountRounds(ctx context.Context, requestID uuid.UUID) (int, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CounterOfferStatus) error
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error)
	UpdateRequest(ctx context.Context, requestID uuid.UUID, updates map[string]any) error
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error
}
