package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

// Repository defines persistence operations for reviews and the aggregate
// rating kept on workshop profiles.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, review *models.Review) (*models.Review, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) (*models.Review, error)
	ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*ReviewList, error)
	RecalculateWorkshopRating(ctx context.Context, workshopID uuid.UUID) error
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error)
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
}
