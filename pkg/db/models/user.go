package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"github.com/Aymen-ml/TrunkLogistics-MVP-sub000/pkg/enums"
)

// User is the identity record owned by the external auth service.
type User struct {
	ID            uuid.UUID  `gorm:"column:id;type:uuid;primaryKey"`
	Email         string     `gorm:"column:email;type:text;not null;uniqueIndex"`
	FirstName     string     `gorm:"column:first_name;not null"`
	LastName      string     `gorm:"column:last_name;not null"`
	Role          enums.Role `gorm:"column:role;type:user_role;not null"`
	IsActive      bool       `gorm:"column:is_active;not null"`
	EmailVerified bool       `gorm:"column:email_verified;not null"`
	CreatedAt     time.Time  `gorm:"column:created_at;autoCreateTime"`
	UpdatedAt     time.Time  `gorm:"column:updated_at;autoUpdateTime"`
}

func (u *User) BeforeCreate(*gorm.DB) error {
	if u.ID == uuid.Nil {
		u.ID = uuid.New()
	}
	return nil
}

// DisplayName joins first and last name, falling back to the email.
func (u User) DisplayName() string {
	name := u.FirstName
	if u.LastName != "" {
		if name != "" {
			name += " "
		}
		name += u.LastName
	}
	if name == "" {
		return u.Email
	}
	return name
}
