package listings

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	dbtypes "github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/types"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/storage"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/visibility"
)

// Repository runs the grouped listing queries.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	Search(ctx context.Context, preds []Predicate, limit, offset int) ([]Row, int64, error)
	FindByID(ctx context.Context, id uuid.UUID) (*Row, error)
	AppendImages(ctx context.Context, listingID uuid.UUID, images []storage.FileDescriptor) error
	ReplaceImages(ctx context.Context, listingID uuid.UUID, images []storage.FileDescriptor) ([]storage.FileDescriptor, error)
}

// Row is one listing with its owner and document counters, aggregated in
// the same statement that applies the filters.
type Row struct {
	models.Listing    `gorm:"embedded"`
	CompanyName       string    `gorm:"column:company_name"`
	ProviderCity      *string   `gorm:"column:provider_city"`
	OwnerUserID       uuid.UUID `gorm:"column:owner_user_id"`
	ProviderVerified  bool      `gorm:"column:provider_verified"`
	OwnerActive       bool      `gorm:"column:owner_active"`
	TotalDocuments    int64     `gorm:"column:total_documents"`
	ApprovedDocuments int64     `gorm:"column:approved_documents"`
	PendingDocuments  int64     `gorm:"column:pending_documents"`
	RejectedDocuments int64     `gorm:"column:rejected_documents"`
	TotalCount        int64     `gorm:"column:total_count"`
}

// Aggregate returns the visibility inputs carried by the row.
func (r Row) Aggregate() visibility.Aggregate {
	return visibility.Aggregate{
		Total:         r.TotalDocuments,
		Approved:      r.ApprovedDocuments,
		Pending:       r.PendingDocuments,
		Rejected:      r.RejectedDocuments,
		OwnerVerified: r.ProviderVerified,
		OwnerActive:   r.OwnerActive,
		Status:        r.Status,
	}
}

const rowColumns = "l.*, " +
	"p.company_name AS company_name, " +
	"p.city AS provider_city, " +
	"p.user_id AS owner_user_id, " +
	"p.is_verified AS provider_verified, " +
	"u.is_active AS owner_active, " +
	visibility.CountTotal + " AS total_documents, " +
	visibility.CountWithStatus + " AS approved_documents, " +
	visibility.CountWithStatus + " AS pending_documents, " +
	visibility.CountWithStatus + " AS rejected_documents"

type repositoryImpl struct {
	db *gorm.DB
}

func NewRepository(db *gorm.DB) Repository {
	return &repositoryImpl{db: db}
}

func (r *repositoryImpl) WithTx(tx *gorm.DB) Repository {
	if tx == nil {
		return r
	}
	return &repositoryImpl{db: tx}
}

// grouped is listings joined to their owner and left-joined to documents,
// one group per listing.
func (r *repositoryImpl) grouped(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).
		Table("listings AS l").
		Joins("JOIN providers p ON p.id = l.provider_id").
		Joins("JOIN users u ON u.id = p.user_id").
		Joins("LEFT JOIN documents d ON d.entity_id = l.id AND d.entity_type = ?", enums.EntityTypeListing).
		Group("l.id, p.id, u.id")
}

func applyAll(q *gorm.DB, preds []Predicate) *gorm.DB {
	for _, p := range preds {
		q = p.Apply(q)
	}
	return q
}

// Search returns one page and the total number of matching listings. The
// total comes from a window count on the page itself; a page past the end
// has no rows to carry it, so the total is recounted.
func (r *repositoryImpl) Search(ctx context.Context, preds []Predicate, limit, offset int) ([]Row, int64, error) {
	q := applyAll(r.grouped(ctx), preds).
		Select(rowColumns+", COUNT(*) OVER() AS total_count",
			enums.VerificationStatusApproved,
			enums.VerificationStatusPending,
			enums.VerificationStatusRejected,
		).
		Order("l.created_at DESC, l.id DESC").
		Limit(limit).
		Offset(offset)

	var rows []Row
	if err := q.Scan(&rows).Error; err != nil {
		return nil, 0, err
	}
	if len(rows) > 0 {
		return rows, rows[0].TotalCount, nil
	}
	if offset == 0 {
		return rows, 0, nil
	}

	sub := applyAll(r.grouped(ctx), preds).Select("l.id")
	var total int64
	if err := r.db.WithContext(ctx).Table("(?) AS matched", sub).Count(&total).Error; err != nil {
		return nil, 0, err
	}
	return rows, total, nil
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*Row, error) {
	var rows []Row
	err := r.grouped(ctx).
		Where("l.id = ?", id).
		Select(rowColumns,
			enums.VerificationStatusApproved,
			enums.VerificationStatusPending,
			enums.VerificationStatusRejected,
		).
		Limit(1).
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &rows[0], nil
}

// AppendImages locks the listing row and appends to its ordered image list.
func (r *repositoryImpl) AppendImages(ctx context.Context, listingID uuid.UUID, images []storage.FileDescriptor) error {
	if len(images) == 0 {
		return nil
	}
	var listing models.Listing
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "images").
		Where("id = ?", listingID).
		Take(&listing).Error; err != nil {
		return err
	}

	merged := make(dbtypes.FileDescriptors, 0, len(listing.Images)+len(images))
	merged = append(merged, listing.Images...)
	merged = append(merged, images...)
	return r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Update("images", merged).Error
}

// ReplaceImages locks the listing row, swaps its image list and returns the
// descriptors it replaced.
func (r *repositoryImpl) ReplaceImages(ctx context.Context, listingID uuid.UUID, images []storage.FileDescriptor) ([]storage.FileDescriptor, error) {
	var listing models.Listing
	if err := r.db.WithContext(ctx).
		Clauses(clause.Locking{Strength: "UPDATE"}).
		Select("id", "images").
		Where("id = ?", listingID).
		Take(&listing).Error; err != nil {
		return nil, err
	}

	replacement := make(dbtypes.FileDescriptors, 0, len(images))
	replacement = append(replacement, images...)
	if err := r.db.WithContext(ctx).
		Model(&models.Listing{}).
		Where("id = ?", listingID).
		Update("images", replacement).Error; err != nil {
		return nil, err
	}
	return []storage.FileDescriptor(listing.Images), nil
}
