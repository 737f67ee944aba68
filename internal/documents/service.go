package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/internal/notifications"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/auth"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	pkgerrors "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/errors"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/logger"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/metrics"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/pagination"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
)

type txRunner interface {
	WithTx(ctx context.Context, fn func(tx *gorm.DB) error) error
}

type fileStore interface {
	DeleteFile(ctx context.Context, descriptor storage.FileDescriptor) error
	ResolveURL(descriptor storage.FileDescriptor) (string, error)
}

// ownerNotifyTimeout bounds the detached owner notification after a verify.
const ownerNotifyTimeout = 10 * time.Second

// Service owns document persistence and the verification state machine.
type Service interface {
	Attach(ctx context.Context, entity Entity, uploaderName string, docs []NewDocument, opts ...AttachOption) ([]models.Document, error)
	Verify(ctx context.Context, actor auth.Identity, documentID uuid.UUID, status enums.VerificationStatus, notes string) (*models.Document, error)
	Get(ctx context.Context, actor auth.Identity, documentID uuid.UUID) (*models.Document, error)
	ListForEntity(ctx context.Context, actor auth.Identity, entity Entity) ([]models.Document, error)
	List(ctx context.Context, actor auth.Identity, params ListParams) (*ListResult, error)
	Stats(ctx context.Context, actor auth.Identity) (*Stats, error)
	Delete(ctx context.Context, actor auth.Identity, documentID uuid.UUID) error
}

// NewDocument is a stored file waiting to be recorded as a pending document.
type NewDocument struct {
	Descriptor   storage.FileDescriptor
	DocumentType enums.DocumentType
}

// AttachOption customizes an Attach call.
type AttachOption func(*attachOptions)

type attachOptions struct {
	withinTx func(tx *gorm.DB) error
}

// WithinTx runs fn in the same transaction that inserts the documents.
func WithinTx(fn func(tx *gorm.DB) error) AttachOption {
	return func(o *attachOptions) {
		o.withinTx = fn
	}
}

// ListParams filters the admin document listing.
type ListParams struct {
	Status       *enums.VerificationStatus
	DocumentType *enums.DocumentType
	EntityID     *uuid.UUID
	Page         pagination.Page
}

type ListResult struct {
	Items      []models.Document `json:"items"`
	TotalCount int64             `json:"total_count"`
	Page       int               `json:"page"`
	TotalPages int               `json:"total_pages"`
}

type service struct {
	repo       Repository
	tx         txRunner
	dispatcher notifications.Dispatcher
	admins     notifications.AdminDirectory
	files      fileStore
	logg       *logger.Logger
	metrics    *metrics.VerificationMetrics
	now        func() time.Time
}

// NewService wires the document store. metrics may be nil.
func NewService(repo Repository, tx txRunner, dispatcher notifications.Dispatcher, admins notifications.AdminDirectory, files fileStore, logg *logger.Logger, m *metrics.VerificationMetrics) (Service, error) {
	if repo == nil {
		return nil, fmt.Errorf("documents repository required")
	}
	if tx == nil {
		return nil, fmt.Errorf("transaction runner required")
	}
	if dispatcher == nil {
		return nil, fmt.Errorf("notification dispatcher required")
	}
	if admins == nil {
		return nil, fmt.Errorf("admin directory required")
	}
	if files == nil {
		return nil, fmt.Errorf("file store required")
	}
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &service{
		repo:       repo,
		tx:         tx,
		dispatcher: dispatcher,
		admins:     admins,
		files:      files,
		logg:       logg,
		metrics:    m,
		now:        func() time.Time { return time.Now().UTC() },
	}, nil
}

func (s *service) Attach(ctx context.Context, entity Entity, uploaderName string, docs []NewDocument, opts ...AttachOption) ([]models.Document, error) {
	entityType, entityID, err := entityKey(entity)
	if err != nil {
		return nil, err
	}
	if len(docs) == 0 {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "no documents to attach")
	}
	var options attachOptions
	for _, opt := range opts {
		opt(&options)
	}

	rows := make([]models.Document, len(docs))
	for i, doc := range docs {
		if err := doc.Descriptor.Validate(); err != nil {
			return nil, err
		}
		docType := doc.DocumentType
		if !docType.IsValid() {
			docType = enums.ClassifyDocumentType(string(docType))
		}
		rows[i] = models.Document{
			EntityType:         entityType,
			EntityID:           entityID,
			DocumentType:       docType,
			VerificationStatus: enums.VerificationStatusPending,
		}
		rows[i].SetDescriptor(doc.Descriptor)
	}

	err = s.tx.WithTx(ctx, func(tx *gorm.DB) error {
		if err := s.repo.WithTx(tx).CreateBatch(ctx, rows); err != nil {
			return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "create documents")
		}
		if options.withinTx != nil {
			return options.withinTx(tx)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.notifyAdmins(ctx, uploaderName, rows)
	s.withURLs(rows)
	return rows, nil
}

// notifyAdmins alerts every admin about each new pending document. Failures
// are logged and never surface to the uploader.
func (s *service) notifyAdmins(ctx context.Context, uploaderName string, rows []models.Document) {
	adminIDs, err := s.admins.AdminIDs(ctx)
	if err != nil {
		s.logg.Error(ctx, "failed to resolve admins for document alert", err)
		return
	}
	if len(adminIDs) == 0 {
		return
	}
	name := strings.TrimSpace(uploaderName)
	if name == "" {
		name = "a provider"
	}
	for _, row := range rows {
		docID := row.ID
		payload := notifications.Payload{
			Title:             "Document Pending Verification",
			Message:           fmt.Sprintf("New %s document uploaded by %s requires verification.", row.DocumentType, name),
			RelatedEntityType: "document",
			RelatedEntityID:   &docID,
			Priority:          enums.NotificationPriorityLow,
		}
		if err := notifications.NotifyAll(ctx, s.dispatcher, adminIDs, enums.NotificationTypeAdminAlert, payload); err != nil {
			s.logg.Error(s.logg.WithDocumentID(ctx, docID.String()), "failed to notify admins about pending document", err)
		}
	}
}

func (s *service) Verify(ctx context.Context, actor auth.Identity, documentID uuid.UUID, status enums.VerificationStatus, notes string) (*models.Document, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can verify documents")
	}
	if documentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id is required")
	}
	if status != enums.VerificationStatusApproved && status != enums.VerificationStatusRejected {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "status must be approved or rejected")
	}

	params := finalizeParams{
		Status:     status,
		VerifiedBy: actor.UserID,
		At:         s.now(),
	}
	if trimmed := strings.TrimSpace(notes); trimmed != "" {
		params.Notes = &trimmed
	}

	doc, err := s.repo.Finalize(ctx, documentID, params)
	if err != nil {
		switch {
		case errors.Is(err, gorm.ErrRecordNotFound):
			s.metrics.Observe("not_found")
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		case errors.Is(err, errAlreadyFinalized):
			s.metrics.Observe("conflict")
			return nil, pkgerrors.New(pkgerrors.CodeConflict, "document already finalized")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "verify document")
	}

	s.metrics.Observe(string(status))
	ctx = s.logg.WithDocumentID(ctx, doc.ID.String())
	s.logg.Info(s.logg.WithField(ctx, "status", status), "document verified")

	notifyCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), ownerNotifyTimeout)
	defer cancel()
	s.notifyOwner(notifyCtx, doc)
	s.withURL(doc)
	return doc, nil
}

// notifyOwner tells the owning provider the outcome. Failures are logged only.
func (s *service) notifyOwner(ctx context.Context, doc *models.Document) {
	owner, err := s.repo.EntityOwner(ctx, doc.EntityType, doc.EntityID)
	if err != nil {
		s.logg.Error(ctx, "failed to resolve document owner for notification", err)
		return
	}

	title := "Document Approved"
	priority := enums.NotificationPriorityMedium
	if doc.VerificationStatus == enums.VerificationStatusRejected {
		title = "Document Rejected"
		priority = enums.NotificationPriorityHigh
	}
	message := fmt.Sprintf("Your document %q has been %s.", doc.OriginalName, doc.VerificationStatus)
	if doc.VerificationNotes != nil && *doc.VerificationNotes != "" {
		message += " Notes: " + *doc.VerificationNotes
	}

	docID := doc.ID
	err = s.dispatcher.Notify(ctx, owner.UserID, enums.NotificationTypeDocumentVerification, notifications.Payload{
		Title:             title,
		Message:           message,
		RelatedEntityType: "document",
		RelatedEntityID:   &docID,
		Priority:          priority,
	})
	if err != nil {
		s.logg.Error(ctx, "failed to notify document owner", err)
	}
}

func (s *service) Get(ctx context.Context, actor auth.Identity, documentID uuid.UUID) (*models.Document, error) {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwnerOrAdmin(ctx, actor, doc.EntityType, doc.EntityID); err != nil {
		return nil, err
	}
	s.withURL(doc)
	return doc, nil
}

func (s *service) ListForEntity(ctx context.Context, actor auth.Identity, entity Entity) ([]models.Document, error) {
	entityType, entityID, err := entityKey(entity)
	if err != nil {
		return nil, err
	}
	if err := s.authorizeOwnerOrAdmin(ctx, actor, entityType, entityID); err != nil {
		return nil, err
	}
	docs, err := s.repo.ListForEntity(ctx, entityType, entityID)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	s.withURLs(docs)
	return docs, nil
}

func (s *service) List(ctx context.Context, actor auth.Identity, params ListParams) (*ListResult, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can list all documents")
	}
	if params.Status != nil && !params.Status.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid verification status")
	}
	if params.DocumentType != nil && !params.DocumentType.IsValid() {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "invalid document type")
	}

	page := params.Page.Normalize()
	docs, total, err := s.repo.List(ctx, listQuery{
		Status:       params.Status,
		DocumentType: params.DocumentType,
		EntityID:     params.EntityID,
		Limit:        page.Limit,
		Offset:       page.Offset(),
	})
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "list documents")
	}
	if docs == nil {
		docs = []models.Document{}
	}
	s.withURLs(docs)
	return &ListResult{
		Items:      docs,
		TotalCount: total,
		Page:       page.Page,
		TotalPages: pagination.TotalPages(total, page.Limit),
	}, nil
}

func (s *service) Stats(ctx context.Context, actor auth.Identity) (*Stats, error) {
	if !actor.IsAdmin() {
		return nil, pkgerrors.New(pkgerrors.CodeForbidden, "only admins can view document stats")
	}
	stats, err := s.repo.Stats(ctx)
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "document stats")
	}
	return &stats, nil
}

// Delete removes the row first, then the stored file. A storage failure only
// leaves an orphaned file, so it is logged and swallowed.
func (s *service) Delete(ctx context.Context, actor auth.Identity, documentID uuid.UUID) error {
	doc, err := s.load(ctx, documentID)
	if err != nil {
		return err
	}
	if err := s.authorizeOwnerOrAdmin(ctx, actor, doc.EntityType, doc.EntityID); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, doc.ID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "delete document")
	}

	ctx = s.logg.WithDocumentID(ctx, doc.ID.String())
	if err := s.files.DeleteFile(ctx, doc.Descriptor()); err != nil {
		s.logg.Error(ctx, "failed to delete stored document file", err)
	}
	return nil
}

func (s *service) withURL(doc *models.Document) {
	if url, err := s.files.ResolveURL(doc.Descriptor()); err == nil {
		doc.URL = url
	}
}

func (s *service) withURLs(docs []models.Document) {
	for i := range docs {
		s.withURL(&docs[i])
	}
}

func (s *service) load(ctx context.Context, documentID uuid.UUID) (*models.Document, error) {
	if documentID == uuid.Nil {
		return nil, pkgerrors.New(pkgerrors.CodeValidation, "document id is required")
	}
	doc, err := s.repo.FindByID(ctx, documentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, pkgerrors.New(pkgerrors.CodeNotFound, "document not found")
		}
		return nil, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document")
	}
	return doc, nil
}

func (s *service) authorizeOwnerOrAdmin(ctx context.Context, actor auth.Identity, entityType enums.EntityType, entityID uuid.UUID) error {
	if actor.IsAdmin() {
		return nil
	}
	if actor.Role != enums.RoleProvider {
		return pkgerrors.New(pkgerrors.CodeForbidden, "documents are visible to their owner and admins only")
	}
	owner, err := s.repo.EntityOwner(ctx, entityType, entityID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return pkgerrors.New(pkgerrors.CodeNotFound, "listing not found")
		}
		return pkgerrors.Wrap(pkgerrors.CodeDependency, err, "lookup document owner")
	}
	if owner.UserID != actor.UserID {
		return pkgerrors.New(pkgerrors.CodeForbidden, "documents are visible to their owner and admins only")
	}
	return nil
}
