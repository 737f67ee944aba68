package documents

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

var errAlreadyFinalized = errors.New("document already finalized")

// Repository persists documents and answers ownership lookups.
type Repository interface {
	WithTx(tx *gorm.DB) Repository
	CreateBatch(ctx context.Context, docs []models.Document) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error)
	Finalize(ctx context.Context, id uuid.UUID, params finalizeParams) (*models.Document, error)
	ListForEntity(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID) ([]models.Document, error)
	List(ctx context.Context, query listQuery) ([]models.Document, int64, error)
	Stats(ctx context.Context) (Stats, error)
	Delete(ctx context.Context, id uuid.UUID) error
	EntityOwner(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID) (*Owner, error)
}

// Owner is the account responsible for an entity's documents.
type Owner struct {
	UserID      uuid.UUID `gorm:"column:user_id"`
	ProviderID  uuid.UUID `gorm:"column:provider_id"`
	CompanyName string    `gorm:"column:company_name"`
}

// Stats are the admin dashboard counters.
type Stats struct {
	Total    int64 `json:"total"`
	Pending  int64 `json:"pending"`
	Approved int64 `json:"approved"`
	Rejected int64 `json:"rejected"`
}

type finalizeParams struct {
	Status     enums.VerificationStatus
	Notes      *string
	VerifiedBy uuid.UUID
	At         time.Time
}

type listQuery struct {
	Status       *enums.VerificationStatus
	DocumentType *enums.DocumentType
	EntityID     *uuid.UUID
	Limit        int
	Offset       int
}

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

func (r *repositoryImpl) CreateBatch(ctx context.Context, docs []models.Document) error {
	if len(docs) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).Create(&docs).Error
}

func (r *repositoryImpl) FindByID(ctx context.Context, id uuid.UUID) (*models.Document, error) {
	var doc models.Document
	if err := r.db.WithContext(ctx).Where("id = ?", id).Take(&doc).Error; err != nil {
		return nil, err
	}
	return &doc, nil
}

// Finalize moves a pending document to a terminal status in one conditional
// update. A missing row yields gorm.ErrRecordNotFound; a row that is no longer
// pending yields errAlreadyFinalized.
func (r *repositoryImpl) Finalize(ctx context.Context, id uuid.UUID, params finalizeParams) (*models.Document, error) {
	result := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Where("id = ? AND verification_status = ?", id, enums.VerificationStatusPending).
		Updates(map[string]any{
			"verification_status": params.Status,
			"verification_notes":  params.Notes,
			"verified_by":         params.VerifiedBy,
			"verified_at":         params.At,
		})
	if result.Error != nil {
		return nil, result.Error
	}

	doc, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if result.RowsAffected == 0 {
		return nil, errAlreadyFinalized
	}
	return doc, nil
}

func (r *repositoryImpl) ListForEntity(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID) ([]models.Document, error) {
	var docs []models.Document
	err := r.db.WithContext(ctx).
		Where("entity_type = ? AND entity_id = ?", entityType, entityID).
		Order("uploaded_at ASC, id ASC").
		Find(&docs).Error
	return docs, err
}

func (r *repositoryImpl) List(ctx context.Context, query listQuery) ([]models.Document, int64, error) {
	base := r.db.WithContext(ctx).Model(&models.Document{})
	if query.Status != nil {
		base = base.Where("verification_status = ?", *query.Status)
	}
	if query.DocumentType != nil {
		base = base.Where("document_type = ?", *query.DocumentType)
	}
	if query.EntityID != nil {
		base = base.Where("entity_id = ?", *query.EntityID)
	}

	var total int64
	if err := base.Session(&gorm.Session{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var docs []models.Document
	err := base.Session(&gorm.Session{}).
		Order("uploaded_at DESC, id DESC").
		Limit(query.Limit).
		Offset(query.Offset).
		Find(&docs).Error
	return docs, total, err
}

func (r *repositoryImpl) Stats(ctx context.Context) (Stats, error) {
	var rows []struct {
		Status enums.VerificationStatus `gorm:"column:verification_status"`
		Count  int64                    `gorm:"column:count"`
	}
	err := r.db.WithContext(ctx).
		Model(&models.Document{}).
		Select("verification_status, COUNT(*) AS count").
		Group("verification_status").
		Scan(&rows).Error
	if err != nil {
		return Stats{}, err
	}

	var stats Stats
	for _, row := range rows {
		stats.Total += row.Count
		switch row.Status {
		case enums.VerificationStatusPending:
			stats.Pending = row.Count
		case enums.VerificationStatusApproved:
			stats.Approved = row.Count
		case enums.VerificationStatusRejected:
			stats.Rejected = row.Count
		}
	}
	return stats, nil
}

func (r *repositoryImpl) Delete(ctx context.Context, id uuid.UUID) error {
	result := r.db.WithContext(ctx).Where("id = ?", id).Delete(&models.Document{})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return gorm.ErrRecordNotFound
	}
	return nil
}

func (r *repositoryImpl) EntityOwner(ctx context.Context, entityType enums.EntityType, entityID uuid.UUID) (*Owner, error) {
	if entityType != enums.EntityTypeListing {
		return nil, gorm.ErrRecordNotFound
	}
	var owner Owner
	result := r.db.WithContext(ctx).
		Table("listings AS l").
		Select("p.user_id AS user_id, p.id AS provider_id, p.company_name AS company_name").
		Joins("JOIN providers p ON p.id = l.provider_id").
		Where("l.id = ?", entityID).
		Limit(1).
		Scan(&owner)
	if result.Error != nil {
		return nil, result.Error
	}
	if result.RowsAffected == 0 {
		return nil, gorm.ErrRecordNotFound
	}
	return &owner, nil
}
