package requests

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

// NewRepository builds a requests repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, request *models.RepairRequest) (*models.RepairRequest, error) {
	if err := r.db.WithContext(ctx).Create(request).Error; err != nil {
		return nil, err
	}
	return request, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error) {
	var request models.RepairRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) FindDetail(ctx context.Context, id uuid.UUID) (*models.RepairRequest, error) {
	var request models.RepairRequest
	err := r.db.WithContext(ctx).
		Preload("Offers", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Shipments.History", func(db *gorm.DB) *gorm.DB {
			return db.Order("created_at ASC")
		}).
		Preload("Shipments").
		Where("id = ?", id).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}

func (r *repository) ListByCustomer(ctx context.Context, customerID uuid.UUID, params pagination.Params, filters Filters) (*RequestList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RepairRequest{}).
		Where("repair_requests.user_id = ?", customerID)

	if filters.Status != nil {
		query = query.Where("repair_requests.status = ?", *filters.Status)
	}
	if filters.DateFrom != nil {
		query = query.Where("repair_requests.created_at >= ?", *filters.DateFrom)
	}
	if filters.DateTo != nil {
		query = query.Where("repair_requests.created_at <= ?", *filters.DateTo)
	}

	return r.listPage(query, params)
}

func (r *repository) ListOpen(ctx context.Context, params pagination.Params, filters OpenFilters) (*RequestList, error) {
	query := r.db.WithContext(ctx).
		Model(&models.RepairRequest{}).
		Where("repair_requests.status = ?", enums.RepairStatusWaitingOffers)

	if filters.City != "" {
		query = query.Where("repair_requests.city = ?", filters.City)
	}
	if filters.DeviceType != nil {
		query = query.Where("repair_requests.device_type = ?", *filters.DeviceType)
	}

	return r.listPage(query, params)
}

func (r *repository) listPage(query *gorm.DB, params pagination.Params) (*RequestList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}
	if cursor != nil {
		query = query.Where(
			"(repair_requests.created_at, repair_requests.id) < (?, ?)",
			cursor.CreatedAt, cursor.ID,
		)
	}

	limit := pagination.NormalizeLimit(params.Limit)

	type requestRow struct {
		models.RepairRequest
		OfferCount int
	}
	var rows []requestRow
	err = query.
		Select("repair_requests.*, (SELECT COUNT(*) FROM offers WHERE offers.request_id = repair_requests.id) AS offer_count").
		Order("repair_requests.created_at DESC").
		Order("repair_requests.id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &RequestList{Requests: make([]Summary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Requests = append(list.Requests, Summary{
			ID:              row.ID,
			DeviceBrand:     row.DeviceBrand,
			DeviceModel:     row.DeviceModel,
			DeviceType:      row.DeviceType,
			ProblemCategory: row.ProblemCategory,
			City:            row.City,
			Status:          row.Status,
			OfferCount:      row.OfferCount,
			CreatedAt:       row.CreatedAt,
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

func (r *repository) Update(ctx context.Context, id uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairRequest{}).
		Where("id = ?", id).
		Updates(updates).Error
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.RepairStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.RepairRequest{}).
		Where("id = ?", id).
		Update("status", status).Error
}

func (r *repository) FindOffer(ctx context.Context, offerID uuid.UUID) (*models.Offer, error) {
	var offer models.Offer
	err := r.db.WithContext(ctx).
		Where("id = ?", offerID).
		First(&offer).Error
	if err != nil {
		return nil, err
	}
	return &offer, nil
}

func (r *repository) UpdateOffer(ctx context.Context, offerID uuid.UUID, updates map[string]any) error {
	return r.db.WithContext(ctx).
		Model(&models.Offer{}).
		Where("id = ?", offerID).
		Updates(updates).Error
}
