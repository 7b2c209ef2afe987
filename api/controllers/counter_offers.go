package controllers

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/reparalo-app/reparalo-backend/api/responses"
	"github.com/reparalo-app/reparalo-backend/api/validators"
	"github.com/reparalo-app/reparalo-backend/internal/negotiation"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/logger"
)

type proposeCounterOfferBody struct {
	OfferID uuid.UUID       `json:"offer_id" validate:"required"`
	Amount  decimal.Decimal `json:"amount" validate:"required"`
	Message *string         `json:"message,omitempty"`
}

// ProposeCounterOffer opens one negotiation round on an offer.
func ProposeCounterOffer(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "negotiation service unavailable"))
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

		var body proposeCounterOfferBody
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		created, err := svc.Propose(r.Context(), negotiation.ProposeInput{
			RequestID:   requestID,
			OfferID:     body.OfferID,
			Amount:      body.Amount,
			Message:     body.Message,
			ActorUserID: actorID,
			ActorRole:   role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, http.StatusCreated, created)
	}
}

// ResolveCounterOffer accepts or rejects the pending counter. The accept
// flag comes from the route, not the body, so replays stay unambiguous.
func ResolveCounterOffer(svc negotiation.Service, accept bool, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "negotiation service unavailable"))
			return
		}

		actorID, role, err := actorFromRequest(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		counterOfferID, err := pathUUID(r, "counterOfferId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		err = svc.Resolve(r.Context(), negotiation.ResolveInput{
			CounterOfferID: counterOfferID,
			Accept:         accept,
			ActorUserID:    actorID,
			ActorRole:      role,
		})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		status := "rejected"
		if accept {
			status = "accepted"
		}
		responses.WriteSuccess(w, map[string]string{"status": status})
	}
}

// ListCounterOffers returns the negotiation history of a request.
func ListCounterOffers(svc negotiation.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "negotiation service unavailable"))
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

		result, err := svc.ListByRequest(r.Context(), requestID, actorID, role)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}
