package controllers

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/middleware"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
)

func requireIdentity(r *http.Request) (auth.Identity, error) {
	identity, ok := middleware.IdentityFromContext(r.Context())
	if !ok || identity.UserID == uuid.Nil {
		return auth.Identity{}, pkgerrors.New(pkgerrors.CodeUnauthorized, "user context missing")
	}
	return identity, nil
}

func uuidParam(r *http.Request, name, label string) (uuid.UUID, error) {
	raw := strings.TrimSpace(chi.URLParam(r, name))
	if raw == "" {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, label+" is required")
	}
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+label)
	}
	return id, nil
}
