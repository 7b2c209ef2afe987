package shipments

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Repository defines persistence operations for shipment tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, shipment *models.Shipment) (*models.Shipment, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Shipment, error)
	FindByTrackingNumber(ctx context.Context, trackingNumber string) (*models.Shipment, error)
	FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Shipment, error)
	ListUndelivered(ctx context.Context, limit int) ([]models.Shipment, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	AppendHistory(ctx context.Context, entry *models.ShipmentStatusHistory) error
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error)
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
	FindProfile(ctx context.Context, userID uuid.UUID) (*models.Profile, error)
}

// CarrierUpdate is one tracking observation from the carrier feed.
type CarrierUpdate struct {
	Status     enums.ShipmentStatus
	Location   *string
	Notes      *string
	ObservedAt time.Time
}
