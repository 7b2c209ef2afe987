package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/api/responses"
	"github.com/reparalo-app/reparalo-backend/api/validators"
	"github.com/reparalo-app/reparalo-backend/internal/media"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

type mediaPresignRequest struct {
	MediaKind string     `json:"media_kind" validate:"required"`
	RequestID *uuid.UUID `json:"request_id,omitempty"`
	MimeType  string     `json:"mime_type" validate:"required"`
	FileName  string     `json:"file_name" validate:"required"`
	SizeBytes int64      `json:"size_bytes" validate:"required,min=1"`
}

func (r mediaPresignRequest) toInput() (media.PresignInput, error) {
	kind, err := enums.ParseMediaKind(strings.TrimSpace(r.MediaKind))
	if err != nil {
		return media.PresignInput{}, pkgerrors.New(pkgerrors.CodeValidation, "invalid media_kind")
	}
	return media.PresignInput{
		Kind:      kind,
		RequestID: r.RequestID,
		MimeType:  r.MimeType,
		FileName:  r.FileName,
		SizeBytes: r.SizeBytes,
	}, nil
}

// MediaPresign creates a pending media record and returns a signed PUT URL.
func MediaPresign(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var payload mediaPresignRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input, err := payload.toInput()
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		resp, err := svc.PresignUpload(r.Context(), actorID, input)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		responses.WriteSuccess(w, resp)
	}
}

// MediaConfirm marks a pending upload as stored in the bucket.
func MediaConfirm(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.ConfirmUpload(r.Context(), mediaID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "uploaded"})
	}
}

// ListRequestPhotos returns the uploaded photos of a request with
// short-lived download URLs.
func ListRequestPhotos(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		requestID, err := pathUUID(r, "requestId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		photos, err := svc.ListRequestPhotos(r.Context(), requestID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]any{"photos": photos})
	}
}

// MediaDelete removes an owned media object and its record.
func MediaDelete(svc media.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "media service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		mediaID, err := pathUUID(r, "mediaId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		if err := svc.Delete(r.Context(), mediaID, actorID); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "deleted"})
	}
}
