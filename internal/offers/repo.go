package offers

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds an offers repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, offer *models.Offer) (*models.Offer, error) {
	if err := r.db.WithContext(ctx).Create(offer).Error; err != nil {
		return nil, err
	}
	return offer, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Offer, error) {
	var rows []models.Offer
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindLiveByRequestAndWorkshop(ctx context.Context, requestID, workshopID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND workshop_id = ? AND status <> ?", requestID, workshopID, enums.OfferStatusRejected).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*OfferList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Joins("JOIN repair_requests ON repair_requests.id = offers.request_id").
		Where("offers.workshop_id = ?", workshopID)
	if cursor != nil {
		query = query.Where("(offers.created_at, offers.id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)

	type offerRow struct {
		models.Offer
		RequestStatus enums.RepairStatus
		DeviceBrand   string
		DeviceModel   string
	}
	var rows []offerRow
	err = query.
		Select("offers.*, repair_requests.status AS request_status, repair_requests.device_brand, repair_requests.device_model").
		Order("offers.created_at DESC").
		Order("offers.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &OfferList{Offers: make([]Summary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Offers = append(list.Offers, Summary{
			ID:               row.ID,
			RequestID:        row.RequestID,
			EstimatedCostMin: row.EstimatedCostMin,
			EstimatedCostMax: row.EstimatedCostMax,
			EstimatedDays:    row.EstimatedDays,
			Status:           row.Status,
			RequestStatus:    row.RequestStatus,
			DeviceBrand:      row.DeviceBrand,
			DeviceModel:      row.DeviceModel,
			CreatedAt:        row.CreatedAt,
		})
	}
	if hasMore {
		last := rows[len(rows)-1]
		list.NextCursor = pagination.EncodeCursor(pagination.Cursor{
			CreatedAt: last.CreatedAt,
			ID:        last.ID,
		})
	}
	return list, nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.OfferStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) RejectSiblings(ctx context.Context, requestID, acceptedOfferID uuid.UUID) ([]uuid.UUID, error) {
	var siblings []models.Offer
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND id <> ? AND status = ?", requestID, acceptedOfferID, enums.OfferStatusPending).
		Find(&siblings).Error
	if err != nil {
		return nil, err
	}
	if len(siblings) == 0 {
		return nil, nil
	}
	ids := make([]uuid.UUID, 0, len(siblings))
	for _, sibling := range siblings {
		ids = append(ids, sibling.ID)
	}
	err = r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id IN ?", ids).
		Update("status", enums.OfferStatusRejected).Error
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func (r *repository) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error) {
	var request models.RepairRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) UpdateRequest(ctx context.Context, requestID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairRequest{}).
		Where("id = ?", requestID).
		Updates(updates).Error
}
