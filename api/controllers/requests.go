package controllers

import (
	"net/http"
	"strings"
	"time"

	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/api/responses"
	"github.com/reparalo-app/reparalo-backend/api/validators"
	"github.com/reparalo-app/reparalo-backend/internal/requests"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

type createRequestBody struct {
	DeviceBrand        string   `json:"device_brand" validate:"required,max=80"`
	DeviceModel        string   `json:"device_model" validate:"required,max=120"`
	DeviceType         string   `json:"device_type" validate:"required"`
	ProblemDescription string   `json:"problem_description" validate:"required,min=10"`
	ProblemCategory    *string  `json:"problem_category,omitempty"`
	City               string   `json:"city" validate:"required,max=120"`
	Images             []string `json:"images,omitempty"`
}

// CreateRequest handles a customer posting a broken device.
func CreateRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body createRequestBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		deviceType, err := enums.ParseDeviceType(strings.TrimSpace(body.DeviceType))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid device_type"))
			return
		}

		created, err := svc.Create(r.Context(), requests.CreateInput{
			CustomerID:         actorID,
			DeviceBrand:        body.DeviceBrand,
			DeviceModel:        body.DeviceModel,
			DeviceType:         deviceType,
			ProblemDescription: body.ProblemDescription,
			ProblemCategory:    body.ProblemCategory,
			City:               body.City,
			Images:             body.Images,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// GetRequest returns the full request detail for its customer or, while the
// request is visible, for workshops.
func GetRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
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

		result, err := svc.Get(r.Context(), requestID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListMyRequests returns the customer's own requests, newest first.
func ListMyRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		actorID, _, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var filters requests.Filters
		if raw := strings.TrimSpace(r.URL.Query().Get("status")); raw != "" {
			status, err := enums.ParseRepairStatus(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid status filter"))
				return
			}
			filters.Status = &status
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_from")); raw != "" {
			from, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date_from must be RFC3339"))
				return
			}
			filters.DateFrom = &from
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("date_to")); raw != "" {
			to, err := time.Parse(time.RFC3339, raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "date_to must be RFC3339"))
				return
			}
			filters.DateTo = &to
		}

		result, err := svc.ListMine(r.Context(), actorID, params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// ListOpenRequests returns requests still waiting for offers so workshops
// can browse and bid.
func ListOpenRequests(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
			return
		}

		params, err := paginationFromQuery(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters := requests.OpenFilters{
			City: strings.TrimSpace(r.URL.Query().Get("city")),
		}
		if raw := strings.TrimSpace(r.URL.Query().Get("device_type")); raw != "" {
			deviceType, err := enums.ParseDeviceType(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "invalid device_type filter"))
				return
			}
			filters.DeviceType = &deviceType
		}

		result, err := svc.ListOpen(r.Context(), params, filters)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

type requestTransitionBody struct {
	Action string `json:"action" validate:"required"`
}

func applyTransition(r *http.Request, svc requests.Service, action string, input requests.TransitionInput) (bool, error) {
	switch action {
	case "mark_shipped":
		return true, svc.MarkShipped(r.Context(), input)
	case "confirm_received":
		return true, svc.ConfirmReceived(r.Context(), input)
	case "accept_quote":
		return true, svc.AcceptQuote(r.Context(), input)
	case "reject_quote":
		return true, svc.RejectQuote(r.Context(), input)
	case "mark_repaired":
		return true, svc.MarkRepaired(r.Context(), input)
	case "ship_back":
		return true, svc.ShipBack(r.Context(), input)
	case "confirm_delivered":
		return true, svc.ConfirmDelivered(r.Context(), input)
	case "cancel":
		return true, svc.Cancel(r.Context(), input)
	}
	return false, nil
}

// TransitionRequest moves a request through its lifecycle. The action names
// the move; the service enforces who may perform it and from which state.
func TransitionRequest(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
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

		var body requestTransitionBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		input := requests.TransitionInput{
			RequestID:   requestID,
			ActorUserID: actorID,
			ActorRole:   role,
		}
		known, err := applyTransition(r, svc, strings.TrimSpace(body.Action), input)
		if !known {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeValidation, "unknown action"))
			return
		}
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "applied"})
	}
}

type finalQuoteBody struct {
	Quote decimal.Decimal `json:"quote" validate:"required"`
}

// SubmitFinalQuote records the binding post-diagnosis price for a request.
func SubmitFinalQuote(svc requests.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "requests service unavailable"))
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

		var body finalQuoteBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.SubmitFinalQuote(r.Context(), requests.FinalQuoteInput{
			TransitionInput: requests.TransitionInput{
				RequestID:   requestID,
				ActorUserID: actorID,
				ActorRole:   role,
			},
			Quote: body.Quote,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]string{"status": "quoted"})
	}
}
