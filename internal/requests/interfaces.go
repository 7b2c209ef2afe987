package requests

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

// Repository defines persistence operations for repair request tables.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Create(ctx context.Context, request *models.RepairRequest) (*models.RepairRequest, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error)
	FindDetail(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error)
	ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*RequestList, error)
	ListOpen(ctx context.Context, params pagination.Params, filters OpenFilters) (*RequestList, error)
	Update(ctx context.Context, id uuid.UUID, updates map[string]any) error
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RepairStatus) error
	FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error)
	UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error
}

// ShipmentCreator opens the physical leg matching a lifecycle transition.
// Implemented by the shipments service so creation shares the caller's
// transaction.
type ShipmentCreator interface {
	CreateForRequest(ctx context.Context, tx *gorm.DB, request *models.RepairRequest, shipmentType enums.ShipmentType) (*models.Shipment, error)
}
