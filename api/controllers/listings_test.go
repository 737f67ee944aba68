package controllers

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"testing"

	"github.com/google/uuid"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/listings"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/pagination"
)

type testListingsService struct {
	searchFn  func(ctx context.Context, actor auth.Identity, filters listings.Filters, page pagination.Page) (*listings.SearchResult, error)
	getFn     func(ctx context.Context, actor auth.Identity, id uuid.UUID) (*listings.Item, error)
	uploadFn  func(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*listings.UploadResult, error)
	replaceFn func(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*listings.UploadResult, error)
}

func (s *testListingsService) Search(ctx context.Context, actor auth.Identity, filters listings.Filters, page pagination.Page) (*listings.SearchResult, error) {
	if s.searchFn != nil {
		return s.searchFn(ctx, actor, filters, page)
	}
	return &listings.SearchResult{}, nil
}

func (s *testListingsService) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (*listings.Item, error) {
	if s.getFn != nil {
		return s.getFn(ctx, actor, id)
	}
	return &listings.Item{}, nil
}

func (s *testListingsService) UploadFiles(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*listings.UploadResult, error) {
	if s.uploadFn != nil {
		return s.uploadFn(ctx, actor, listingID, req)
	}
	return &listings.UploadResult{}, nil
}

func (s *testListingsService) ReplaceImages(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*listings.UploadResult, error) {
	if s.replaceFn != nil {
		return s.replaceFn(ctx, actor, listingID, req)
	}
	return &listings.UploadResult{}, nil
}

func TestSearchListingsParsesFilters(t *testing.T) {
	userID := uuid.New()
	providerID := uuid.New()
	called := false
	svc := &testListingsService{
		searchFn: func(ctx context.Context, actor auth.Identity, filters listings.Filters, page pagination.Page) (*listings.SearchResult, error) {
			called = true
			if actor.UserID != userID || actor.Role != enums.RoleCustomer {
				t.Fatalf("unexpected actor %+v", actor)
			}
			if filters.Search != "volvo" || filters.Location != "Algiers" || filters.ProviderName != "all" {
				t.Fatalf("unexpected text filters %+v", filters)
			}
			if filters.ServiceType == nil || *filters.ServiceType != enums.ServiceTypeRental {
				t.Fatalf("unexpected service type %v", filters.ServiceType)
			}
			if filters.PricingType == nil || *filters.PricingType != enums.PricingTypeDaily {
				t.Fatalf("unexpected pricing type %v", filters.PricingType)
			}
			if filters.MaxPrice == nil || filters.MaxPrice.String() != "1500.5" {
				t.Fatalf("unexpected max price %v", filters.MaxPrice)
			}
			if filters.MinCapacity == nil || filters.MinCapacity.String() != "10" {
				t.Fatalf("unexpected min capacity %v", filters.MinCapacity)
			}
			if filters.ProviderID == nil || *filters.ProviderID != providerID {
				t.Fatalf("unexpected provider id %v", filters.ProviderID)
			}
			if page.Page != 2 || page.Limit != 5 {
				t.Fatalf("unexpected page %+v", page)
			}
			return &listings.SearchResult{TotalCount: 7, Page: 2, TotalPages: 2}, nil
		},
	}

	url := "/api/v1/listings?search=volvo&service_type=rental&pricing_type=daily&max_price=1500.5&min_capacity=10&location=Algiers&provider=all&provider_id=" + providerID.String() + "&page=2&limit=5"
	req := withActor(httptest.NewRequest(http.MethodGet, url, nil), userID, enums.RoleCustomer)
	resp := httptest.NewRecorder()
	SearchListings(svc, testLogger())(resp, req)

	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d: %s", resp.Code, resp.Body.String())
	}
	if !called {
		t.Fatal("expected service called")
	}
	var envelope struct {
		Data listings.SearchResult `json:"data"`
	}
	if err := json.Unmarshal(resp.Body.Bytes(), &envelope); err != nil {
		t.Fatalf("unmarshal response: %v", err)
	}
	if envelope.Data.TotalCount != 7 || envelope.Data.TotalPages != 2 {
		t.Fatalf("unexpected result %+v", envelope.Data)
	}
}

func TestSearchListingsServiceTypeAllIsIgnored(t *testing.T) {
	svc := &testListingsService{
		searchFn: func(ctx context.Context, actor auth.Identity, filters listings.Filters, page pagination.Page) (*listings.SearchResult, error) {
			if filters.ServiceType != nil {
				t.Fatalf("expected no service type, got %v", *filters.ServiceType)
			}
			if page.Page != 1 || page.Limit != pagination.DefaultLimit {
				t.Fatalf("unexpected default page %+v", page)
			}
			return &listings.SearchResult{}, nil
		},
	}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/listings?service_type=all", nil), uuid.New(), enums.RoleAdmin)
	resp := httptest.NewRecorder()
	SearchListings(svc, testLogger())(resp, req)
	if resp.Code != http.StatusOK {
		t.Fatalf("unexpected status %d", resp.Code)
	}
}

func TestSearchListingsRejectsBadInput(t *testing.T) {
	cases := []string{
		"/api/v1/listings?max_price=cheap",
		"/api/v1/listings?service_type=boat",
		"/api/v1/listings?pricing_type=yearly-ish",
		"/api/v1/listings?provider_id=nope",
		"/api/v1/listings?limit=500",
		"/api/v1/listings?page=0",
	}
	for _, url := range cases {
		req := withActor(httptest.NewRequest(http.MethodGet, url, nil), uuid.New(), enums.RoleCustomer)
		resp := httptest.NewRecorder()
		SearchListings(&testListingsService{}, testLogger())(resp, req)
		if resp.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400 got %d", url, resp.Code)
		}
	}
}

func TestGetListingHiddenFromCustomer(t *testing.T) {
	listingID := uuid.New()
	svc := &testListingsService{
		getFn: func(ctx context.Context, actor auth.Identity, id uuid.UUID) (*listings.Item, error) {
			if id != listingID {
				t.Fatalf("unexpected listing %s", id)
			}
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		},
	}
	req := withActor(httptest.NewRequest(http.MethodGet, "/api/v1/listings/"+listingID.String(), nil), uuid.New(), enums.RoleCustomer)
	req = addRouteParam(req, "listingId", listingID.String())
	resp := httptest.NewRecorder()
	GetListing(svc, testLogger())(resp, req)
	if resp.Code != http.StatusNotFound {
		t.Fatalf("expected 404 got %d", resp.Code)
	}
}

func buildMultipart(t *testing.T, parts []multipartPart, values map[string][]string) (*bytes.Buffer, string) {
	t.Helper()
	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	for field, vals := range values {
		for _, v := range vals {
			if err := writer.WriteField(field, v); err != nil {
				t.Fatalf("write field: %v", err)
			}
		}
	}
	for _, p := range parts {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", `form-data; name="`+p.field+`"; filename="`+p.name+`"`)
		header.Set("Content-Type", p.contentType)
		part, err := writer.CreatePart(header)
		if err != nil {
			t.Fatalf("create part: %v", err)
		}
		if _, err := part.Write(p.content); err != nil {
			t.Fatalf("write part: %v", err)
		}
	}
	if err := writer.Close(); err != nil {
		t.Fatalf("close writer: %v", err)
	}
	return body, writer.FormDataContentType()
}

type multipartPart struct {
	field       string
	name        string
	contentType string
	content     []byte
}

func TestUploadListingFilesBuildsRequest(t *testing.T) {
	listingID := uuid.New()
	providerUser := uuid.New()
	pdf := []byte("%PDF-1.4\n%test\n")

	svc := &testListingsService{
		uploadFn: func(ctx context.Context, actor auth.Identity, id uuid.UUID, req uploads.Request) (*listings.UploadResult, error) {
			if actor.UserID != providerUser || id != listingID {
				t.Fatalf("unexpected actor %s or listing %s", actor.UserID, id)
			}
			if len(req.Files) != 3 {
				t.Fatalf("expected 3 files, got %d", len(req.Files))
			}
			byName := map[string]uploads.IncomingFile{}
			for _, f := range req.Files {
				byName[f.OriginalName] = f
			}
			if byName["a.pdf"].DocumentType != "inspection" || byName["b.pdf"].DocumentType != "license" {
				t.Fatalf("document types not paired in order: %+v", req.Files)
			}
			if byName["permit.pdf"].Field != "transport_permit" || byName["permit.pdf"].DocumentType != "" {
				t.Fatalf("named slot should carry its field: %+v", byName["permit.pdf"])
			}
			rc, err := byName["a.pdf"].Open()
			if err != nil {
				t.Fatalf("open: %v", err)
			}
			defer rc.Close()
			got, _ := io.ReadAll(rc)
			if !bytes.Equal(got, pdf) {
				t.Fatalf("unexpected content %q", got)
			}
			return &listings.UploadResult{ListingID: id}, nil
		},
	}

	body, contentType := buildMultipart(t, []multipartPart{
		{field: "documents", name: "a.pdf", contentType: "application/pdf", content: pdf},
		{field: "documents", name: "b.pdf", contentType: "application/pdf", content: pdf},
		{field: "transport_permit", name: "permit.pdf", contentType: "application/pdf", content: pdf},
	}, map[string][]string{"document_types": {"inspection", "license"}})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/files", body)
	req.Header.Set("Content-Type", contentType)
	req = withActor(req, providerUser, enums.RoleProvider)
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	UploadListingFiles(svc, UploadLimits{}, testLogger())(resp, req)
	if resp.Code != http.StatusCreated {
		t.Fatalf("expected 201 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadListingFilesRequiresMultipart(t *testing.T) {
	listingID := uuid.New()
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/files", bytes.NewBufferString("{}"))
	req.Header.Set("Content-Type", "application/json")
	req = withActor(req, uuid.New(), enums.RoleProvider)
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	UploadListingFiles(&testListingsService{}, UploadLimits{}, testLogger())(resp, req)
	if resp.Code != http.StatusBadRequest {
		t.Fatalf("expected 400 got %d", resp.Code)
	}
}

func TestReplaceListingImagesReturnsOK(t *testing.T) {
	listingID := uuid.New()
	png := []byte{0x89, 'P', 'N', 'G', '\r', '\n', 0x1a, '\n'}
	called := false
	svc := &testListingsService{
		uploadFn: func(context.Context, auth.Identity, uuid.UUID, uploads.Request) (*listings.UploadResult, error) {
			t.Fatal("replace must not append")
			return nil, nil
		},
		replaceFn: func(_ context.Context, _ auth.Identity, id uuid.UUID, req uploads.Request) (*listings.UploadResult, error) {
			called = true
			if id != listingID || len(req.Files) != 2 {
				t.Fatalf("unexpected replace %s with %d files", id, len(req.Files))
			}
			return &listings.UploadResult{ListingID: id}, nil
		},
	}

	body, contentType := buildMultipart(t, []multipartPart{
		{field: "images", name: "a.png", contentType: "image/png", content: png},
		{field: "images", name: "b.png", contentType: "image/png", content: png},
	}, nil)
	req := httptest.NewRequest(http.MethodPut, "/api/v1/listings/"+listingID.String()+"/images", body)
	req.Header.Set("Content-Type", contentType)
	req = withActor(req, uuid.New(), enums.RoleProvider)
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	ReplaceListingImages(svc, UploadLimits{MaxBody: 1 << 20}, testLogger())(resp, req)
	if resp.Code != http.StatusOK || !called {
		t.Fatalf("expected 200 got %d: %s", resp.Code, resp.Body.String())
	}
}

func TestUploadListingFilesRejectsOversizedBody(t *testing.T) {
	listingID := uuid.New()
	body, contentType := buildMultipart(t, []multipartPart{
		{field: "images", name: "a.png", contentType: "image/png", content: bytes.Repeat([]byte{1}, 2<<20)},
	}, nil)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/listings/"+listingID.String()+"/files", body)
	req.Header.Set("Content-Type", contentType)
	req = withActor(req, uuid.New(), enums.RoleProvider)
	req = addRouteParam(req, "listingId", listingID.String())

	resp := httptest.NewRecorder()
	UploadListingFiles(&testListingsService{}, UploadLimits{MaxBody: 1 << 20}, testLogger())(resp, req)
	if resp.Code != http.StatusRequestEntityTooLarge {
		t.Fatalf("expected 413 got %d", resp.Code)
	}
}
