package reviews

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

type repository struct {
	db *gorm.DB
}

// NewRepository builds a reviews repository bound to the provided DB.
func NewRepository(db *gorm.DB) Repository {
	return &repository{db: db}
}

func (r *repository) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repository{db: tx}
}

func (r *repository) Create(ctx context.Context, review *models.Review) (*models.Review, error) {
	if err := r.db.WithContext(ctx).Create(review).Error; err != nil {
		return nil, err
	}
	return review, nil
}

func (r *repository) FindByRequest(ctx context.Context, requestID uuid.UUID) (*models.Review, error) {
	var review models.Review
	err := r.db.WithContext(ctx).
		Where("request_id = ?", requestID).
		First(&review).Error
	if err != nil {
		return nil, err
	}
	return &review, nil
}

func (r *repository) ListByWorkshop(ctx context.Context, workshopID uuid.UUID, params pagination.Params) (*ReviewList, error) {
	cursor, err := pagination.ParseCursor(params.Cursor)
	if err != nil {
		return nil, err
	}

	query := r.db.WithContext(ctx).
		Model(&models.Review{}).
		Where("workshop_id = ?", workshopID)
	if cursor != nil {
		query = query.Where("(created_at, id) < (?, ?)", cursor.CreatedAt, cursor.ID)
	}

	limit := pagination.NormalizeLimit(params.Limit)

	var rows []models.Review
	err = query.
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit + 1).
		Find(&rows).Error
	if err != nil {
		return nil, err
	}

	list := &ReviewList{Reviews: make([]Summary, 0, len(rows))}
	hasMore := len(rows) > limit
	if hasMore {
		rows = rows[:limit]
	}
	for _, row := range rows {
		list.Reviews = append(list.Reviews, Summary{
			ID:        row.ID,
			RequestID: row.RequestID,
			Rating:    row.Rating,
			Comment:   row.Comment,
			CreatedAt: row.CreatedAt,
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

func (r *repository) RecalculateWorkshopRating(ctx context.Context, workshopID uuid.UUID) error {
	return r.db.WithContext(ctx).
		Exec(`UPDATE profiles
			SET rating = agg.avg_rating, reviews_count = agg.total
			FROM (
				SELECT ROUND(AVG(rating)::numeric, 2) AS avg_rating, COUNT(*) AS total
				FROM reviews WHERE workshop_id = ?
			) agg
			WHERE profiles.user_id = ?`, workshopID, workshopID).Error
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
