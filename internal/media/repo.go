package media

import (
	"context"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
)

// Repository exposes media metadata persistence operations.
type Repository struct {
	db *gorm.DB
}

// NewRepository constructs a media repository bound to the provided GORM DB.
func NewRepository(db *gorm.DB) *Repository {
	return &Repository{db: db}
}

// Create persists a media record.
func (r *Repository) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if err := r.db.WithContext(ctx).Create(media).Error; err != nil {
		return nil, err
	}
	return media, nil
}

// FindByID retrieves a media record by ID.
func (r *Repository) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	var m models.Media
	if err := r.db.WithContext(ctx).First(&m, "id = ?", id).Error; err != nil {
		return nil, err
	}
	return &m, nil
}

// Delete removes a media record.
func (r *Repository) Delete(ctx context.Context, id uuid.UUID) error {
	return r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Media{}).Error
}

// CountLiveByRequest counts photos on a request that still occupy quota.
func (r *Repository) CountLiveByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("request_id = ? AND status <> ?", requestID, enums.MediaStatusDeleted).
		Count(&count).Error
	if err != nil {
		return 0, err
	}
	return count, nil
}

// ListByRequest returns a request's photos in upload order.
func (r *Repository) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Media, error) {
	var rows []models.Media
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		Order("created_at ASC").
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// UpdateStatus moves a media record through its upload lifecycle.
func (r *Repository) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MediaStatus) error {
	return r.db.WithContext(ctx).
		Model(&models.Media{}).
		Where("id = ?", id).
		Update("status", status).Error
}

// ListStalePending returns pending rows older than the cutoff, for cleanup.
func (r *Repository) ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Media, error) {
	var rows []models.Media
	err := r.db.WithContext(ctx).
		Where("status = ? AND created_at < ?", enums.MediaStatusPending, cutoff).
		Order("created_at ASC").
		Limit(limit).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}
	return rows, nil
}

// FindRequest loads the repair request a photo belongs to.
func (r *Repository) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error) {
	var request models.RepairRequest
	err := r.db.WithContext(ctx).
		Where("id = ?", requestID).
		First(&request).Error
	if err != nil {
		return nil, err
	}
	return &request, nil
}
