package listings

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/documents"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/uploads"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	dbtypes "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/types"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/pagination"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/visibility"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type documentAttacher interface {
	Attach(ctx context.Context, entity documents.Entity, uploaderName string, docs []documents.NewDocument, opts ...documents.AttachOption) ([]models.Document, error)
}

type uploadPipeline interface {
	Upload(ctx context.Context, req uploads.Request, opts uploads.Options) (*uploads.Result, error)
	Discard(ctx context.Context, descriptors []storage.FileDescriptor) error
	ResolveURL(descriptor storage.FileDescriptor) (string, error)
}

// Service exposes role-aware search and listing file uploads.
type Service interface {
	Search(ctx context.Context, actor auth.Identity, filters Filters, page pagination.Page) (*SearchResult, error)
	Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Item, error)
	UploadFiles(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*UploadResult, error)
	ReplaceImages(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*UploadResult, error)
}

// DocumentCounters are only exposed to admins.
type DocumentCounters struct {
	Total    int64 `json:"total"`
	Approved int64 `json:"approved"`
	Pending  int64 `json:"pending"`
	Rejected int64 `json:"rejected"`
}

// Item is a listing as returned to the caller.
type Item struct {
	models.Listing
	CompanyName       string            `json:"company_name"`
	ProviderCity      *string           `json:"provider_city,omitempty"`
	ProviderVerified  bool              `json:"provider_verified"`
	DocumentsVerified bool              `json:"documents_verified"`
	Documents         *DocumentCounters `json:"documents,omitempty"`
}

type SearchResult struct {
	Items      []Item `json:"items"`
	TotalCount int64  `json:"total_count"`
	Page       int    `json:"page"`
	TotalPages int    `json:"total_pages"`
}

type UploadResult struct {
	ListingID uuid.UUID                `json:"listing_id"`
	Images    []storage.FileDescriptor `json:"images"`
	Documents []models.Document        `json:"documents"`
}

type service struct {
	repo      Repository
	tx        txRunner
	uploads   uploadPipeline
	documents documentAttacher
	logg      *logger.Logger
}

func NewService(repo Repository, tx txRunner, pipeline uploadPipeline, docs documentAttacher, logg *logger.Logger) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("listings repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if pipeline == nil {
		return nil, fmt.Errorf("upload pipeline required")
	}
	if docs == nil {
		return nil, fmt.Errorf("document store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:      repo,
		tx:        tx,
		uploads:   pipeline,
		documents: docs,
		logg:      logg,
	}, nil
}

func (s *service) Search(ctx context.Context, actor auth.Identity, filters Filters, page pagination.Page) (*SearchResult, error) {
	if err := validateFilters(filters); err != nil {
		return nil, err
	}
	page = page.Normalize()

	rows, total, err := s.repo.Search(ctx, filters.Predicates(actor.Role), page.Limit, page.Offset())
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "search listings")
	}

	items := make([]Item, 0, len(rows))
	for _, row := range rows {
		items = append(items, s.toItem(row, actor))
	}
	return &SearchResult{
		Items:      items,
		TotalCount: total,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *service) Get(ctx context.Context, actor auth.Identity, id uuid.UUID) (*Item, error) {
	row, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	isOwner := actor.Role == enums.RoleProvider && row.OwnerUserID == actor.UserID
	if err := visibility.EnsureListingVisibleTo(actor.Role, isOwner, row.Aggregate()); err != nil {
		return nil, err
	}
	item := s.toItem(*row, actor)
	return &item, nil
}

// UploadFiles stores a strict multi-field upload for a listing. Documents
// and images are persisted in one transaction; if that fails the stored files
// are discarded.
func (s *service) UploadFiles(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*UploadResult, error) {
	row, err := s.load(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, row) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner or an admin can upload files")
	}

	stored, err := s.uploads.Upload(ctx, req, uploads.Options{Strict: true})
	if err != nil {
		return nil, err
	}

	out := &UploadResult{ListingID: listingID, Images: stored.Images, Documents: []models.Document{}}
	appendImages := func(tx *gorm.DB) error {
		return s.repo.WithTx(tx).AppendImages(ctx, listingID, stored.Images)
	}

	if len(stored.Documents) > 0 {
		docs := make([]documents.NewDocument, 0, len(stored.Documents))
		for _, d := range stored.Documents {
			docs = append(docs, documents.NewDocument{Descriptor: d.FileDescriptor, DocumentType: d.DocumentType})
		}
		out.Documents, err = s.documents.Attach(ctx, documents.ListingRef{ID: listingID}, row.CompanyName, docs, documents.WithinTx(appendImages))
	} else if len(stored.Images) > 0 {
		err = s.tx.WithTx(ctx, appendImages)
		if err != nil {
			err = pkgerrors.Wrap(pkgerrors.CodeDependency, err, "save listing images")
		}
	}
	if err != nil {
		if discardErr := s.uploads.Discard(context.WithoutCancel(ctx), stored.Descriptors()); discardErr != nil {
			s.logg.Error(s.logg.WithListingID(ctx, listingID.String()), "discard uploaded files", discardErr)
		}
		return nil, err
	}

	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"listing_id": listingID.String(),
		"images":     len(out.Images),
		"documents":  len(out.Documents),
	}), "listing files uploaded")
	return out, nil
}

// ReplaceImages swaps a listing's images for a strict image-only upload. The
// old files are deleted only after the new list is committed; failures there
// are logged and leave orphans behind.
func (s *service) ReplaceImages(ctx context.Context, actor auth.Identity, listingID uuid.UUID, req uploads.Request) (*UploadResult, error) {
	row, err := s.load(ctx, listingID)
	if err != nil {
		return nil, err
	}
	if !canManage(actor, row) {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only the listing owner or an admin can replace images")
	}
	for _, f := range req.Files {
		if !uploads.IsImageField(f.Field) {
			return nil, pkgerrors.New(pkgerrors.CodeValidation, "only images can replace listing images").
				WithDetails(map[string]any{"field": f.Field, "original_name": f.OriginalName})
		}
	}

	stored, err := s.uploads.Upload(ctx, req, uploads.Options{Strict: true})
	if err != nil {
		return nil, err
	}

	var previous []storage.FileDescriptor
	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		var txErr error
		previous, txErr = s.repo.WithTx(tx).ReplaceImages(ctx, listingID, stored.Images)
		return txErr
	})
	ctx = s.logg.WithListingID(ctx, listingID.String())
	if err != nil {
		if discardErr := s.uploads.Discard(context.WithoutCancel(ctx), stored.Descriptors()); discardErr != nil {
			s.logg.Error(ctx, "discard uploaded images", discardErr)
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "replace listing images")
	}

	if err := s.uploads.Discard(context.WithoutCancel(ctx), previous); err != nil {
		s.logg.Error(ctx, "delete replaced images", err)
	}
	s.logg.Info(s.logg.WithFields(ctx, map[string]any{
		"images":   len(stored.Images),
		"replaced": len(previous),
	}), "listing images replaced")
	return &UploadResult{ListingID: listingID, Images: stored.Images, Documents: []models.Document{}}, nil
}

func (s *service) load(ctx context.Context, id uuid.UUID) (*Row, error) {
	if id == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "listing id is required")
	}
	row, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup listing")
	}
	return row, nil
}

func canManage(actor auth.Identity, row *Row) bool {
	if actor.IsAdmin() {
		return true
	}
	return actor.Role == enums.RoleProvider && row.OwnerUserID == actor.UserID
}

func (s *service) toItem(row Row, actor auth.Identity) Item {
	agg := row.Aggregate()
	row.Images = dbtypes.FileDescriptors(storage.WithURLs(s.uploads, row.Images))
	item := Item{
		Listing:           row.Listing,
		CompanyName:       row.CompanyName,
		ProviderCity:      row.ProviderCity,
		ProviderVerified:  row.ProviderVerified,
		DocumentsVerified: agg.HasDocuments() && agg.AllApproved(),
	}
	if actor.IsAdmin() {
		item.Documents = &DocumentCounters{
			Total:    row.TotalDocuments,
			Approved: row.ApprovedDocuments,
			Pending:  row.PendingDocuments,
			Rejected: row.RejectedDocuments,
		}
	}
	return item
}

func validateFilters(f Filters) error {
	if f.ServiceType != nil && !f.ServiceType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid service type")
	}
	if f.PricingType != nil && !f.PricingType.IsValid() {
		return pkgerrors.New(pkgerrors.CodeValidation, "invalid pricing type")
	}
	if f.MinCapacity != nil && f.MinCapacity.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "min capacity must not be negative")
	}
	if f.MaxPrice != nil && f.MaxPrice.IsNegative() {
		return pkgerrors.New(pkgerrors.CodeValidation, "max price must not be negative")
	}
	return nil
}
