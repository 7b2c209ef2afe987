package negotiation

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a negotiation repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, counter *models.CounterOffer) (*models.CounterOffer, error) {
	if err := r.db.WithContext(ctx).Create(counter).Error; err != nil {
		return nil, err
	}
	return counter, nil
}

func (r *repository) FindByID(ctx context.Context, id uuid.UUID) (*models.CounterOffer, error) {
	var counter models.CounterOffer
	err := r.db.WithContext(ctx).
		Where("id = ?", id).
		First(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

func (r *repository) FindByRequest(ctx context.Context, requestID uuid.UUID) ([]models.CounterOffer, error) {
	var rows []models.CounterOffer
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

func (r *repository) FindPendingByRequest(ctx context.Context, requestID uuid.UUID) (*models.CounterOffer, error) {
	var counter models.CounterOffer
	err := r.db.WithContext(ctx).
		Where("request_id = ? AND status = ?", requestID, enums.CounterOfferStatusPending).
		Order("created_at DESC").
		First(&counter).Error
	if err != nil {
		return nil, err
	}
	return &counter, nil
}

// CountRounds counts every counter offer on the request. Customer and
// workshop counters both consume rounds against the shared cap.
func (r *repository) CountRounds(ctx context.Context, requestID uuid.UUID) (int, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.CounterOffer{}).
		Where("request_id = ?", requestID).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return int(count), nil
}

func (r *repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.CounterOfferStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.CounterOffer{}).
		Where("id = ?", id).
		Update("status", status).Error
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
