package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// Provider owns listings. Its verification flag and its user's active flag
// both gate customer visibility.
type Provider struct {
	ID          uuid.UUID `gorm:"column:id;type:uuid;primaryKey"`
	UserID      uuid.UUID `gorm:"column:user_id;type:uuid;not null;uniqueIndex"`
	CompanyName string    `gorm:"column:company_name;not null"`
	City        *string   `gorm:"column:city"`
	IsVerified  bool      `gorm:"column:is_verified;not null"`
	CreatedAt   time.Time `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt   time.Time `gorm:"column:updated_at;autoUpdateTime"`

	User User `gorm:"foreignKey:UserID;references:ID"`
}

func (p *Provider) BeforeCreate(*gorm.DB) error {
	if p.ID == uuid.Nil {
		p.ID = uuid.New()
	}
	return nil
}
