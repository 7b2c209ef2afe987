package controllers

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/reparalo-app/reparalo-backend/api/middleware"
	"github.com/reparalo-app/reparalo-backend/pkg/enums"
	pkgerrors "github.com/reparalo-app/reparalo-backend/pkg/errors"
	"github.com/reparalo-app/reparalo-backend/pkg/pagination"
)

// actorFromRequest resolves the authenticated user and role seeded by the
// auth middleware.
func actorFromRequest(r *http.Request) (uuid.UUID, enums.AppRole, error) {
	raw := middleware.UserIDFromContext(r.Context())
	if raw == "" {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	userID, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, "", pkgerrors.Wrap(pkgerrors.CodeUnauthorized, err, "invalid user id")
	}
	role, err := enums.ParseAppRole(middleware.RoleFromContext(r.Context()))
	if err != nil {
		return uuid.Nil, "", pkgerrors.New(pkgerrors.CodeUnauthorized, "role context missing")
	}
	return userID, role, nil
}

func pathUUID(r *http.Request, key string) (uuid.UUID, error) {
	raw := chi.URLParam(r, key)
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+key)
	}
	return id, nil
}

func paginationFromQuery(r *http.Request) (pagination.Params, error) {
	params := pagination.Params{
		Cursor: strings.TrimSpace(r.URL.Query().Get("cursor")),
	}
	if limitStr := strings.TrimSpace(r.URL.Query().Get("limit")); limitStr != "" {
		value, err := strconv.Atoi(limitStr)
		if err != nil || value <= 0 {
			return params, pkgerrors.New(pkgerrors.CodeValidation, "limit must be a positive integer")
		}
		params.Limit = value
	}
	return params, nil
}
