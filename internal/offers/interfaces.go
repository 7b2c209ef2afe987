package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

// Repository defines persistence operations for offer tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, offer *models.Offer) (*models.Offer, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error)
	FindLiveByRequestAndWorkshop(ctx context.Context, requestID, workshopID uuid.UUID) (*models.Offer, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*OfferList, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error
	RejectSiblings(ctx context.Context, requestID, acceptedOfferID uuid.UUID) ([]uuid.UUID, error)
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error)
	UpdateRequest(ctx context.Context, requestID uuid.UUID, updates map[string]any) error
}
