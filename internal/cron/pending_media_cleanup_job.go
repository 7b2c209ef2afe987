package cron

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

const (
	pendingMediaRetentionHours = 24
	pendingMediaBatchSize      = 500
)

type PendingMediaCleanupJobParams struct {
	Logger         *logger.Logger
	MediaRepo      pendingMediaCleanupRepo
	Storage        mediaObjectStore
	Bucket         string
	RetentionHours int
}

type pendingMediaCleanupRepo interface {
	ListStalePending(ctx context.Context, cutoff time.Time, limit int) ([]models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
}

type mediaObjectStore interface {
	DeleteObject(ctx context.Context, bucket, object string) error
}

// NewPendingMediaCleanupJob builds the job that drops presigned upload rows
// whose PUT never happened, along with any partial object in the bucket.
func NewPendingMediaCleanupJob(params PendingMediaCleanupJobParams) (Job, error) {
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	if params.MediaRepo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.Storage == nil {
		return nil, fmt.Errorf("object store required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("bucket required")
	}
	retention := params.RetentionHours
	if retention <= 0 {
		retention = pendingMediaRetentionHours
	}
	return &pendingMediaCleanupJob{
		logg:           params.Logger,
		repo:           params.MediaRepo,
		storage:        params.Storage,
		bucket:         params.Bucket,
		retentionHours: retention,
		now:            time.Now,
	}, nil
}

type pendingMediaCleanupJob struct {
	logg           *logger.Logger
	repo           pendingMediaCleanupRepo
	storage        mediaObjectStore
	bucket         string
	retentionHours int
	now            func() time.Time
}

func (j *pendingMediaCleanupJob) Name() string { return "pending-media-cleanup" }

func (j *pendingMediaCleanupJob) Run(ctx context.Context) error {
	cutoff := j.now().UTC().Add(-time.Duration(j.retentionHours) * time.Hour)
	rows, err := j.repo.ListStalePending(ctx, cutoff, pendingMediaBatchSize)
	if err != nil {
		return fmt.Errorf("query stale pending media: %w", err)
	}

	var deleted int64
	for _, row := range rows {
		if err := j.storage.DeleteObject(ctx, j.bucket, row.GCSKey); err != nil {
			return fmt.Errorf("delete stored object %s: %w", row.GCSKey, err)
		}
		if err := j.repo.Delete(ctx, row.ID); err != nil {
			return fmt.Errorf("delete media row: %w", err)
		}
		deleted++
	}

	logCtx := j.logg.WithFields(ctx, map[string]any{
		"cutoff":          cutoff,
		"retention_hours": j.retentionHours,
		"candidates":      len(rows),
		"rows_deleted":    deleted,
	})
	j.logg.Info(logCtx, "pending media cleanup complete")
	return nil
}
