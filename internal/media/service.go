package media

import (
	"context"
	"errors"
	"fmt"
	"mime"
	"path"
	"strings"
	"time"
	"unicode"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
)

var allowedImageMimes = []string{"image/png", "image/jpeg", "image/webp", "image/heic"}

type mediaRepository interface {
	Create(ctx context.Context, media *models.Media) (*models.Media, error)
	FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error)
	Delete(ctx context.Context, id uuid.UUID) error
	CountLiveByRequest(ctx context.Context, requestID uuid.UUID) (int64, error)
	ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Media, error)
	UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MediaStatus) error
	FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error)
}

type gcsClient interface {
	SignedURL(bucket, object, contentType string, expires time.Duration) (string, error)
	SignedReadURL(bucket, object string, expires time.Duration) (string, error)
	DeleteObject(ctx context.Context, bucket, object string) error
}

// Service exposes presigned upload and photo listing semantics.
type Service interface {
	PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error)
	ConfirmUpload(ctx context.Context, mediaID, userID uuid.UUID) error
	ListRequestPhotos(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]PhotoView, error)
	Delete(ctx context.Context, mediaID, userID uuid.UUID) error
}

// ServiceParams packages the media service dependencies and limits.
type ServiceParams struct {
	Repo                mediaRepository
	GCS                 gcsClient
	Bucket              string
	UploadTTL           time.Duration
	DownloadTTL         time.Duration
	MaxUploadMB         int
	MaxImagesPerRequest int
}

type service struct {
	repo           mediaRepository
	gcs            gcsClient
	bucket         string
	uploadTTL      time.Duration
	downloadTTL    time.Duration
	maxUploadBytes int64
	maxPerRequest  int64
}

// NewService constructs a media service backed by the repository and GCS signer.
func NewService(params ServiceParams) (Service, error) {
	if params.Repo == nil {
		return nil, fmt.Errorf("media repository required")
	}
	if params.GCS == nil {
		return nil, fmt.Errorf("gcs client required")
	}
	if params.Bucket == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	if params.UploadTTL <= 0 || params.DownloadTTL <= 0 {
		return nil, fmt.Errorf("url ttls must be positive")
	}
	if params.MaxUploadMB <= 0 {
		return nil, fmt.Errorf("max upload size must be positive")
	}
	if params.MaxImagesPerRequest <= 0 {
		return nil, fmt.Errorf("max images per request must be positive")
	}
	return &service{
		repo:           params.Repo,
		gcs:            params.GCS,
		bucket:         params.Bucket,
		uploadTTL:      params.UploadTTL,
		downloadTTL:    params.DownloadTTL,
		maxUploadBytes: int64(params.MaxUploadMB) * 1024 * 1024,
		maxPerRequest:  int64(params.MaxImagesPerRequest),
	}, nil
}

// PresignInput models the payload required to request an upload URL.
type PresignInput struct {
	Kind      enums.MediaKind
	RequestID *uuid.UUID
	MimeType  string
	FileName  string
	SizeBytes int64
}

// PresignOutput contains the data returned to the client after creating a
// pending media record.
type PresignOutput struct {
	MediaID      uuid.UUID `json:"media_id"`
	GCSKey       string    `json:"gcs_key"`
	SignedPUTURL string    `json:"signed_put_url"`
	ContentType  string    `json:"content_type"`
	ExpiresAt    time.Time `json:"expires_at"`
}

// PhotoView is one stored photo with a short-lived download URL.
type PhotoView struct {
	MediaID   uuid.UUID `json:"media_id"`
	FileName  string    `json:"file_name"`
	URL       string    `json:"url"`
	CreatedAt time.Time `json:"created_at"`
}

func (s *service) PresignUpload(ctx context.Context, userID uuid.UUID, input PresignInput) (*PresignOutput, error) {
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	if !input.Kind.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid media kind")
	}
	fileName := strings.TrimSpace(input.FileName)
	if fileName == "" {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "file_name is required")
	}
	if input.SizeBytes <= 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "size_bytes must be positive")
	}
	if input.SizeBytes > s.maxUploadBytes {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("file exceeds %d byte limit", s.maxUploadBytes))
	}
	mimeType, err := normalizeImageMime(input.MimeType)
	if err != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, err.Error())
	}

	if input.Kind == enums.MediaKindRequestPhoto {
		if input.RequestID == nil {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "request_id is required for request photos")
		}
		request, err := s.repo.FindRequest(ctx, *input.RequestID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
			}
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
		}
		if request.UserID != userID {
			return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
		}
		count, err := s.repo.CountLiveByRequest(ctx, *input.RequestID)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "count request photos")
		}
		if count >= s.maxPerRequest {
			return nil, pkgerrors.New(pkgerrors.CodeConflict, fmt.Sprintf("request already has %d photos", s.maxPerRequest))
		}
	} else if input.RequestID != nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request_id only applies to request photos")
	}

	mediaID := uuid.New()
	gcsKey := buildGCSKey(input.Kind, mediaID, fileName)

	row := &models.Media{
		ID:        mediaID,
		OwnerID:   userID,
		RequestID: input.RequestID,
		Kind:      input.Kind,
		Status:    enums.MediaStatusPending,
		GCSKey:    gcsKey,
		FileName:  fileName,
		MimeType:  mimeType,
		SizeBytes: input.SizeBytes,
	}
	if _, err := s.repo.Create(ctx, row); err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "persist media row")
	}

	expiresAt := time.Now().Add(s.uploadTTL)
	signedURL, err := s.gcs.SignedURL(s.bucket, gcsKey, mimeType, s.uploadTTL)
	if err != nil {
		_ = s.repo.Delete(ctx, mediaID)
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign upload url")
	}

	return &PresignOutput{
		MediaID:      mediaID,
		GCSKey:       gcsKey,
		SignedPUTURL: signedURL,
		ContentType:  mimeType,
		ExpiresAt:    expiresAt,
	}, nil
}

// ConfirmUpload marks the pending row uploaded once the client finishes the PUT.
func (s *service) ConfirmUpload(ctx context.Context, mediaID, userID uuid.UUID) error {
	row, err := s.ownedMedia(ctx, mediaID, userID)
	if err != nil {
		return err
	}
	if row.Status == enums.MediaStatusUploaded {
		return nil
	}
	if row.Status != enums.MediaStatusPending {
		return pkgerrors.New(pkgerrors.CodeStateConflict, "media is not awaiting upload")
	}
	if err := s.repo.UpdateStatus(ctx, mediaID, enums.MediaStatusUploaded); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "mark media uploaded")
	}
	return nil
}

// ListRequestPhotos returns uploaded photos with short-lived read URLs. The
// owning customer always sees them; workshops do too, since photos inform
// their offers.
func (s *service) ListRequestPhotos(ctx context.Context, requestID, actorUserID uuid.UUID, actorRole enums.AppRole) ([]PhotoView, error) {
	if requestID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "request id required")
	}
	request, err := s.repo.FindRequest(ctx, requestID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "request not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load repair request")
	}
	if actorRole != enums.AppRoleWorkshop && request.UserID != actorUserID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "request does not belong to user")
	}

	rows, err := s.repo.ListByRequest(ctx, requestID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list request photos")
	}
	photos := make([]PhotoView, 0, len(rows))
	for _, row := range rows {
		if row.Status != enums.MediaStatusUploaded {
			continue
		}
		readURL, err := s.gcs.SignedReadURL(s.bucket, row.GCSKey, s.downloadTTL)
		if err != nil {
			return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "sign read url")
		}
		photos = append(photos, PhotoView{
			MediaID:   row.ID,
			FileName:  row.FileName,
			URL:       readURL,
			CreatedAt: row.CreatedAt,
		})
	}
	return photos, nil
}

func (s *service) Delete(ctx context.Context, mediaID, userID uuid.UUID) error {
	row, err := s.ownedMedia(ctx, mediaID, userID)
	if err != nil {
		return err
	}
	if err := s.gcs.DeleteObject(ctx, s.bucket, row.GCSKey); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete stored object")
	}
	if err := s.repo.Delete(ctx, mediaID); err != nil {
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete media row")
	}
	return nil
}

func (s *service) ownedMedia(ctx context.Context, mediaID, userID uuid.UUID) (*models.Media, error) {
	if mediaID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "media id required")
	}
	if userID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeUnauthorized, "user identity missing")
	}
	row, err := s.repo.FindByID(ctx, mediaID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "media not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "load media")
	}
	if row.OwnerID != userID {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "media does not belong to user")
	}
	return row, nil
}

func normalizeImageMime(value string) (string, error) {
	clean := strings.TrimSpace(value)
	if clean == "" {
		return "", fmt.Errorf("mime_type is required")
	}
	mediaType, _, err := mime.ParseMediaType(clean)
	if err != nil {
		return "", fmt.Errorf("mime_type invalid")
	}
	mediaType = strings.ToLower(mediaType)
	for _, candidate := range allowedImageMimes {
		if candidate == mediaType {
			return mediaType, nil
		}
	}
	return "", fmt.Errorf("only image uploads are allowed")
}

func buildGCSKey(kind enums.MediaKind, id uuid.UUID, fileName string) string {
	cleanName := sanitizeFileName(fileName)
	if cleanName == "" {
		cleanName = id.String()
	}
	return fmt.Sprintf("media/%s/%s/%s", kind, id.String(), cleanName)
}

func sanitizeFileName(name string) string {
	if name == "" {
		return ""
	}
	clean := path.Base(strings.TrimSpace(name))
	if clean == "" {
		return ""
	}
	var b strings.Builder
	b.Grow(len(clean))
	for _, r := range clean {
		switch {
		case r == '/' || r == '\\' || unicode.IsControl(r):
			continue
		case unicode.IsSpace(r):
			b.WriteRune('-')
		default:
			b.WriteRune(r)
		}
	}
	return strings.Trim(b.String(), "-_.")
}
