package notifications

import (
	"context"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/db/models"
	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

// AdminDirectory resolves the recipients of admin alerts.
type AdminDirectory interface {
	AdminIDs(ctx context.Context) ([]uuid.UUID, error)
}

type adminDirectory struct {
	db *gorm.DB
}

func NewAdminDirectory(db *gorm.DB) AdminDirectory {
	return &adminDirectory{db: db}
}

// AdminIDs returns active administrators ordered by creation.
func (d *adminDirectory) AdminIDs(ctx context.Context) ([]uuid.UUID, error) {
	var ids []uuid.UUID
	err := d.db.WithContext(ctx).
		Model(&models.User{}).
		Where("role = ? AND is_active = ?", enums.RoleAdmin, true).
		Order("created_at ASC").
		Pluck("id", &ids).Error
	return ids, err
}
