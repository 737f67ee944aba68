package controllers

import (
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/responses"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/validators"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/documents"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
)

const maxVerificationNotesLen = 2000

type verifyDocumentRequest struct {
	Status string `json:"status" validate:"required,oneof=approved rejected"`
	Notes  string `json:"notes" validate:"max=2000"`
}

// ListListingDocuments returns a listing's documents to its owner or an admin.
func ListListingDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		listingID, err := uuidParam(r, "listingId", "listing id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		docs, err := svc.ListForEntity(r.Context(), identity, documents.ListingRef{ID: listingID})
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, docs)
	}
}

// DeleteDocument removes the document row and then its stored file.
func DeleteDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		documentID, err := uuidParam(r, "documentId", "document id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithDocumentID(ctx, documentID.String())
		}
		if err := svc.Delete(ctx, identity, documentID); err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, map[string]bool{"deleted": true})
	}
}

// AdminVerifyDocument moves a pending document to approved or rejected.
func AdminVerifyDocument(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		documentID, err := uuidParam(r, "documentId", "document id")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		var body verifyDocumentRequest
		if err := validators.DecodeJSONBody(r, &body); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		status, err := enums.ParseVerificationStatus(strings.ToLower(strings.TrimSpace(body.Status)))
		if err != nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
			return
		}

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithDocumentID(ctx, documentID.String())
		}
		doc, err := svc.Verify(ctx, identity, documentID, status, validators.SanitizeString(body.Notes, maxVerificationNotesLen))
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccess(w, doc)
	}
}

// AdminListDocuments pages through every document with optional filters.
func AdminListDocuments(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		params := documents.ListParams{Page: page}

		q := r.URL.Query()
		if raw := strings.TrimSpace(q.Get("status")); raw != "" {
			status, err := enums.ParseVerificationStatus(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid status"))
				return
			}
			params.Status = &status
		}
		if raw := strings.TrimSpace(q.Get("document_type")); raw != "" {
			docType, err := enums.ParseDocumentType(strings.ToLower(raw))
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid document_type"))
				return
			}
			params.DocumentType = &docType
		}
		if raw := strings.TrimSpace(q.Get("entity_id")); raw != "" {
			id, err := uuid.Parse(raw)
			if err != nil {
				responses.WriteError(r.Context(), logg, w, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid entity_id"))
				return
			}
			params.EntityID = &id
		}

		result, err := svc.List(r.Context(), identity, params)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// AdminDocumentStats reports document counts per verification status.
func AdminDocumentStats(svc documents.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "documents service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		stats, err := svc.Stats(r.Context(), identity)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, stats)
	}
}
