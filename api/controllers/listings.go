package controllers

import (
	"context"
	"net/http"
	"strings"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/responses"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/api/validators"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/listings"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/pagination"
)

const maxSearchTextLen = 128

// SearchListings applies the caller's role and filters to the listing catalog.
func SearchListings(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
			return
		}
		identity, err := requireIdentity(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		filters, err := parseListingFilters(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		page, err := parsePage(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		result, err := svc.Search(r.Context(), identity, filters, page)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, result)
	}
}

// GetListing returns one listing, hidden from customers unless visible.
func GetListing(svc listings.Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
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

		item, err := svc.Get(r.Context(), identity, listingID)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteSuccess(w, item)
	}
}

// UploadListingFiles stores images and documents for a listing the caller manages.
func UploadListingFiles(svc listings.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	var upload listingUpload
	if svc != nil {
		upload = svc.UploadFiles
	}
	return listingUploadHandler(upload, limits, http.StatusCreated, logg)
}

// ReplaceListingImages swaps a listing's images for the uploaded ones.
func ReplaceListingImages(svc listings.Service, limits UploadLimits, logg *logger.Logger) http.HandlerFunc {
	var upload listingUpload
	if svc != nil {
		upload = svc.ReplaceImages
	}
	return listingUploadHandler(upload, limits, http.StatusOK, logg)
}

type listingUpload func(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*listings.UploadResult, error)

func listingUploadHandler(upload listingUpload, limits UploadLimits, status int, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if upload == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "listings service unavailable"))
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

		ctx := r.Context()
		if logg != nil {
			ctx = logg.WithListingID(ctx, listingID.String())
		}

		req, cleanup, err := parseUploadRequest(w, r, limits)
		defer cleanup()
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}

		result, err := upload(ctx, identity, listingID, req)
		if err != nil {
			responses.WriteError(ctx, logg, w, err)
			return
		}
		responses.WriteSuccessStatus(w, status, result)
	}
}

func parsePage(r *http.Request) (pagination.Page, error) {
	page, err := validators.ParseQueryInt(r, "page", 1, 1, 1<<20)
	if err != nil {
		return pagination.Page{}, err
	}
	limit, err := validators.ParseQueryInt(r, "limit", pagination.DefaultLimit, 1, pagination.MaxLimit)
	if err != nil {
		return pagination.Page{}, err
	}
	return pagination.Page{Page: page, Limit: limit}, nil
}

func parseListingFilters(r *http.Request) (listings.Filters, error) {
	q := r.URL.Query()
	filters := listings.Filters{
		Search:       validators.SanitizeString(q.Get("search"), maxSearchTextLen),
		TruckType:    validators.SanitizeString(q.Get("truck_type"), maxSearchTextLen),
		Location:     validators.SanitizeString(q.Get("location"), maxSearchTextLen),
		ProviderName: validators.SanitizeString(q.Get("provider"), maxSearchTextLen),
	}

	if raw := strings.TrimSpace(q.Get("service_type")); raw != "" && !strings.EqualFold(raw, "all") {
		st, err := enums.ParseServiceType(strings.ToLower(raw))
		if err != nil {
			return listings.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid service_type")
		}
		filters.ServiceType = &st
	}
	if raw := strings.TrimSpace(q.Get("pricing_type")); raw != "" {
		pt, err := enums.ParsePricingType(strings.ToLower(raw))
		if err != nil {
			return listings.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid pricing_type")
		}
		filters.PricingType = &pt
	}

	var err error
	if filters.MinCapacity, err = decimalQuery(q.Get("min_capacity"), "min_capacity"); err != nil {
		return listings.Filters{}, err
	}
	if filters.MaxPrice, err = decimalQuery(q.Get("max_price"), "max_price"); err != nil {
		return listings.Filters{}, err
	}

	if raw := strings.TrimSpace(q.Get("provider_id")); raw != "" {
		id, err := uuid.Parse(raw)
		if err != nil {
			return listings.Filters{}, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid provider_id")
		}
		filters.ProviderID = &id
	}
	return filters, nil
}

func decimalQuery(raw, field string) (*decimal.Decimal, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return nil, nil
	}
	value, err := decimal.NewFromString(raw)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeValidation, err, "invalid "+field).WithDetails(map[string]any{"field": field})
	}
	return &value, nil
}
