package media

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/reparalo-app/reparalo-backend/pkg/db/models"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
)

type stubMediaRepo struct {
	requests map[uuid.UUID]*models.RepairRequest
	rows     map[uuid.UUID]*models.Media

	created   *models.Media
	deleteID  uuid.UUID
	liveCount int64
	createErr error
}

func newStubMediaRepo() *stubMediaRepo {
	return &stubMediaRepo{
		requests: map[uuid.UUID]*models.RepairRequest{},
		rows:     map[uuid.UUID]*models.Media{},
	}
}

func (s *stubMediaRepo) Create(ctx context.Context, media *models.Media) (*models.Media, error) {
	if s.createErr != nil {
		return nil, s.createErr
	}
	s.created = media
	s.rows[media.ID] = media
	return media, nil
}

func (s *stubMediaRepo) FindByID(ctx context.Context, id uuid.UUID) (*models.Media, error) {
	if row, ok := s.rows[id]; ok {
		return row, nil
	}
	return nil, gorm.ErrRecordNotFound
}

func (s *stubMediaRepo) Delete(ctx context.Context, id uuid.UUID) error {
	s.deleteID = id
	delete(s.rows, id)
	return nil
}

func (s *stubMediaRepo) CountLiveByRequest(ctx context.Context, requestID uuid.UUID) (int64, error) {
	return s.liveCount, nil
}

func (s *stubMediaRepo) ListByRequest(ctx context.Context, requestID uuid.UUID) ([]models.Media, error) {
	var rows []models.Media
	for _, row := range s.rows {
		if row.RequestID != nil && *row.RequestID == requestID {
			rows = append(rows, *row)
		}
	}
	return rows, nil
}

func (s *stubMediaRepo) UpdateStatus(ctx context.Context, id uuid.UUID, status enums.MediaStatus) error {
	if row, ok := s.rows[id]; ok {
		row.Status = status
	}
	return nil
}

func (s *stubMediaRepo) FindRequest(ctx context.Context, requestID uuid.UUID) (*models.RepairRequest, error) {
	if request, ok := s.requests[requestID]; ok {
		return request, nil
	}
	return nil, gorm.ErrRecordNotFound
}

type stubGCS struct {
	url           string
	err           error
	lastBucket    string
	lastObject    string
	lastMimeType  string
	deletedObject string
}

func (s *stubGCS) SignedURL(bucket, object, contentType string, expires time.Duration) (string, error) {
	s.lastBucket = bucket
	s.lastObject = object
	s.lastMimeType = contentType
	if s.err != nil {
		return "", s.err
	}
	return s.url, nil
}

func (s *stubGCS) SignedReadURL(bucket, object string, expires time.Duration) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	return "https://read.example/" + object, nil
}

func (s *stubGCS) DeleteObject(ctx context.Context, bucket, object string) error {
	s.deletedObject = object
	return nil
}

func newMediaService(t *testing.T, repo *stubMediaRepo, gcs *stubGCS) Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		Repo:                repo,
		GCS:                 gcs,
		Bucket:              "bucket",
		UploadTTL:           time.Minute,
		DownloadTTL:         time.Hour,
		MaxUploadMB:         20,
		MaxImagesPerRequest: 5,
	})
	if err != nil {
		t.Fatalf("NewService: %v", err)
	}
	return svc
}

func requestPhotoInput(requestID uuid.UUID) PresignInput {
	return PresignInput{
		Kind:      enums.MediaKindRequestPhoto,
		RequestID: &requestID,
		MimeType:  "image/png",
		FileName:  "pantalla rota.png",
		SizeBytes: 1024,
	}
}

func TestMediaServicePresignSuccess(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: userID}
	gcs := &stubGCS{url: "https://signed.example"}
	svc := newMediaService(t, repo, gcs)

	res, err := svc.PresignUpload(context.Background(), userID, requestPhotoInput(requestID))
	if err != nil {
		t.Fatalf("PresignUpload returned error: %v", err)
	}
	if res.SignedPUTURL != gcs.url {
		t.Fatalf("unexpected signed url %s", res.SignedPUTURL)
	}
	if res.ContentType != "image/png" {
		t.Fatalf("unexpected content type %s", res.ContentType)
	}
	if repo.created == nil || repo.created.Status != enums.MediaStatusPending {
		t.Fatalf("expected pending media row, got %+v", repo.created)
	}
	if !strings.Contains(res.GCSKey, res.MediaID.String()) {
		t.Fatalf("gcs key %s missing media id", res.GCSKey)
	}
	if strings.Contains(res.GCSKey, " ") {
		t.Fatalf("gcs key %s not sanitized", res.GCSKey)
	}
	if gcs.lastBucket != "bucket" || gcs.lastObject != res.GCSKey || gcs.lastMimeType != "image/png" {
		t.Fatalf("unexpected gcs call %v", gcs)
	}
}

func TestMediaServicePresignValidation(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: userID}
	svc := newMediaService(t, repo, &stubGCS{url: "ok"})

	tooBig := requestPhotoInput(requestID)
	tooBig.SizeBytes = 21 * 1024 * 1024
	notImage := requestPhotoInput(requestID)
	notImage.MimeType = "application/pdf"
	missingRequest := requestPhotoInput(requestID)
	missingRequest.RequestID = nil

	cases := []struct {
		name  string
		input PresignInput
	}{
		{"size too large", tooBig},
		{"non-image mime", notImage},
		{"missing request id", missingRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.PresignUpload(context.Background(), userID, tc.input)
			if !pkgerrors.HasCode(err, pkgerrors.CodeValidation) {
				t.Fatalf("expected validation error, got %v", err)
			}
		})
	}
}

func TestMediaServicePresignEnforcesPhotoQuota(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: userID}
	repo.liveCount = 5
	svc := newMediaService(t, repo, &stubGCS{url: "ok"})

	_, err := svc.PresignUpload(context.Background(), userID, requestPhotoInput(requestID))
	if !pkgerrors.HasCode(err, pkgerrors.CodeConflict) {
		t.Fatalf("expected conflict at photo quota, got %v", err)
	}
}

func TestMediaServicePresignForeignRequest(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: uuid.New()}
	svc := newMediaService(t, repo, &stubGCS{url: "ok"})

	_, err := svc.PresignUpload(context.Background(), uuid.New(), requestPhotoInput(requestID))
	if !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
}

func TestMediaServicePresignGcsErrorCleansUp(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: userID}
	svc := newMediaService(t, repo, &stubGCS{err: errTest})

	_, err := svc.PresignUpload(context.Background(), userID, requestPhotoInput(requestID))
	if err == nil {
		t.Fatal("expected error from gcs")
	}
	if repo.deleteID != repo.created.ID {
		t.Fatalf("expected delete called for %s got %s", repo.created.ID, repo.deleteID)
	}
}

func TestMediaServiceConfirmUpload(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	mediaID := uuid.New()
	repo.rows[mediaID] = &models.Media{ID: mediaID, OwnerID: userID, Status: enums.MediaStatusPending}
	svc := newMediaService(t, repo, &stubGCS{url: "ok"})

	if err := svc.ConfirmUpload(context.Background(), mediaID, userID); err != nil {
		t.Fatalf("confirm failed: %v", err)
	}
	if repo.rows[mediaID].Status != enums.MediaStatusUploaded {
		t.Fatalf("expected uploaded, got %s", repo.rows[mediaID].Status)
	}
	// repeat confirms are a no-op
	if err := svc.ConfirmUpload(context.Background(), mediaID, userID); err != nil {
		t.Fatalf("repeat confirm failed: %v", err)
	}
	if err := svc.ConfirmUpload(context.Background(), mediaID, uuid.New()); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign user, got %v", err)
	}
}

func TestMediaServiceListRequestPhotos(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	requestID := uuid.New()
	repo.requests[requestID] = &models.RepairRequest{ID: requestID, UserID: userID}
	uploaded := uuid.New()
	pending := uuid.New()
	repo.rows[uploaded] = &models.Media{ID: uploaded, OwnerID: userID, RequestID: &requestID, Status: enums.MediaStatusUploaded, GCSKey: "media/a"}
	repo.rows[pending] = &models.Media{ID: pending, OwnerID: userID, RequestID: &requestID, Status: enums.MediaStatusPending, GCSKey: "media/b"}
	svc := newMediaService(t, repo, &stubGCS{url: "ok"})

	photos, err := svc.ListRequestPhotos(context.Background(), requestID, userID, enums.AppRoleCustomer)
	if err != nil {
		t.Fatalf("list failed: %v", err)
	}
	if len(photos) != 1 || photos[0].MediaID != uploaded {
		t.Fatalf("expected only the uploaded photo, got %+v", photos)
	}
	if !strings.HasPrefix(photos[0].URL, "https://read.example/") {
		t.Fatalf("expected signed read url, got %s", photos[0].URL)
	}

	// workshops may browse photos to prepare offers
	if _, err := svc.ListRequestPhotos(context.Background(), requestID, uuid.New(), enums.AppRoleWorkshop); err != nil {
		t.Fatalf("workshop list failed: %v", err)
	}
	if _, err := svc.ListRequestPhotos(context.Background(), requestID, uuid.New(), enums.AppRoleCustomer); !pkgerrors.HasCode(err, pkgerrors.CodeForbidden) {
		t.Fatalf("expected forbidden for foreign customer, got %v", err)
	}
}

func TestMediaServiceDeleteRemovesObject(t *testing.T) {
	t.Parallel()

	repo := newStubMediaRepo()
	userID := uuid.New()
	mediaID := uuid.New()
	repo.rows[mediaID] = &models.Media{ID: mediaID, OwnerID: userID, GCSKey: "media/request_photo/x"}
	gcs := &stubGCS{url: "ok"}
	svc := newMediaService(t, repo, gcs)

	if err := svc.Delete(context.Background(), mediaID, userID); err != nil {
		t.Fatalf("delete failed: %v", err)
	}
	if gcs.deletedObject != "media/request_photo/x" {
		t.Fatalf("expected object deleted, got %q", gcs.deletedObject)
	}
	if repo.deleteID != mediaID {
		t.Fatalf("expected row deleted")
	}
}

var errTest = fmt.Errorf("boom")
